// hiring-bulk 在命令行执行批量导入、更新与分配，结果以 YAML 输出。
package main

import (
	"flag"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/joalafu15/Backend/internal/common/utils"
	"github.com/joalafu15/Backend/internal/service/bulk"
	"github.com/joalafu15/Backend/internal/service/cloud"
	"github.com/joalafu15/Backend/internal/service/db"
	"github.com/joalafu15/Backend/internal/service/workflow"

	"github.com/joho/godotenv"
	"github.com/qiniu/x/log"
	"github.com/qiniu/x/xlog"
	"gopkg.in/yaml.v3"
)

var (
	configFilePath = "hiring.conf"
	operation      = bulk.OperationImport
	notify         = false
)

func main() {
	flag.StringVar(&configFilePath, "f", configFilePath, "configuration file of hiring server")
	flag.StringVar(&operation, "op", operation, "bulk operation: "+strings.Join(bulk.Operations, ", "))
	flag.BoolVar(&notify, "notify", notify, "send the report to the configured notifier")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: hiring-bulk [-f conf] [-op operation] file...\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 || !bulk.ValidOperation(operation) {
		flag.Usage()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("failed to load .env, error %v", err)
	}
	utils.InitConf(configFilePath)
	log.SetOutputLevel(utils.DefaultConf.DebugLevel)
	conf := &utils.DefaultConf
	xl := xlog.New("hiring-bulk-" + operation)

	s, err := db.OpenStore(conf, xl)
	if err != nil {
		log.Fatalf("failed to open %s store, error %v", conf.StoreProvider, err)
	}
	var notifier bulk.Notifier
	if notify {
		n, err := cloud.NewNotifier(conf, xl)
		if err != nil {
			log.Fatalf("failed to create notifier, error %v", err)
		}
		if n != nil {
			notifier = n
		}
	}
	allocator := workflow.NewAllocator(s, nil, nil, nil, conf.Slots.Overbooking, xl)
	reconciler := bulk.NewReconciler(s, allocator, notifier, conf.Upload.BulkWorkers, xl)

	// Reconciler 处理完会删除源文件，先复制一份。
	dir, err := ioutil.TempDir("", "hiring-bulk-")
	if err != nil {
		log.Fatalf("failed to create temp dir, error %v", err)
	}
	defer os.RemoveAll(dir)
	paths := make([]string, 0, flag.NArg())
	for i, src := range flag.Args() {
		dst := filepath.Join(dir, fmt.Sprintf("%d-%s", i, filepath.Base(src)))
		if err := copyFile(src, dst); err != nil {
			log.Fatalf("failed to copy %s, error %v", src, err)
		}
		paths = append(paths, dst)
	}

	report, err := reconciler.Run(xl, operation, paths)
	if err != nil {
		log.Fatalf("bulk %s failed, error %v", operation, err)
	}
	encoder := yaml.NewEncoder(os.Stdout)
	encoder.SetIndent(2)
	if err := encoder.Encode(report); err != nil {
		log.Fatalf("failed to write report, error %v", err)
	}
	_ = encoder.Close()
	if report.Failures > 0 {
		os.Exit(1)
	}
}

func copyFile(src string, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
