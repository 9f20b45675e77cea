// Copyright 2020 Qiniu Cloud (qiniu.com)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joalafu15/Backend/internal/common/utils"
	"github.com/joalafu15/Backend/internal/service/bulk"
	"github.com/joalafu15/Backend/internal/service/cloud"
	"github.com/joalafu15/Backend/internal/service/db"
	"github.com/joalafu15/Backend/internal/service/task"
	"github.com/joalafu15/Backend/internal/service/web"
	"github.com/joalafu15/Backend/internal/service/web/middleware"
	"github.com/joalafu15/Backend/internal/service/workflow"

	"github.com/jasonlvhit/gocron"
	"github.com/joho/godotenv"
	"github.com/qiniu/x/log"
	"github.com/qiniu/x/xlog"
)

var (
	configFilePath = "hiring.conf"
	printSample    = false
)

func main() {
	flag.StringVar(&configFilePath, "f", configFilePath, "configuration file to run hiring server")
	flag.BoolVar(&printSample, "sample", printSample, "print a sample configuration and exit")
	flag.Parse()
	if printSample {
		buf, _ := json.MarshalIndent(utils.NewSample(), "", "  ")
		fmt.Println(string(buf))
		return
	}

	// .env 可选，用于本地开发时注入密钥。
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("failed to load .env, error %v", err)
	}
	utils.InitConf(configFilePath)
	log.SetOutputLevel(utils.DefaultConf.DebugLevel)
	conf := &utils.DefaultConf
	xl := xlog.New("hiring-main")

	s, err := db.OpenStore(conf, xl)
	if err != nil {
		log.Fatalf("failed to open %s store, error %v", conf.StoreProvider, err)
	}
	smsSender, err := cloud.NewSmsSender(conf, xl)
	if err != nil {
		log.Fatalf("failed to create SMS sender, error %v", err)
	}
	storage, err := cloud.NewFileStorage(conf, xl)
	if err != nil {
		log.Fatalf("failed to create file storage, error %v", err)
	}
	im, err := cloud.NewIMService(conf, xl)
	if err != nil {
		log.Fatalf("failed to create IM service, error %v", err)
	}
	notifier, err := cloud.NewNotifier(conf, xl)
	if err != nil {
		log.Fatalf("failed to create notifier, error %v", err)
	}

	services := workflow.NewServices(s, workflow.Dependencies{
		SmsCode:   cloud.NewSmsCodeService(s.SMSCodes, smsSender, conf, xl),
		Messenger: cloud.SmsMessenger{Sender: smsSender},
		Storage:   storage,
		IM:        im,
	}, conf, xl)
	if err := services.Registration.EnsureAdmin(xl, conf.Admin.Username, conf.Admin.Password); err != nil {
		log.Fatalf("failed to create admin account %s, error %v", conf.Admin.Username, err)
	}
	reconciler := bulk.NewReconciler(s, services.Allocator, notifier, conf.Upload.BulkWorkers, nil)

	deps := web.Dependencies{
		Services:   services,
		Reconciler: reconciler,
		Actions:    s.Actions,
	}
	if local, ok := storage.(*cloud.LocalFileStorage); ok {
		deps.FilesDir = local.Dir()
	}
	if conf.Redis != nil && conf.Redis.URL != "" {
		window := time.Duration(conf.SMS.RateWindowSecond) * time.Second
		limiter, err := middleware.NewRedisLimiter(conf.Redis.URL, conf.SMS.RateLimit, window)
		if err != nil {
			log.Fatalf("failed to create redis rate limiter, error %v", err)
		}
		defer limiter.Close()
		deps.Limiter = limiter
	}

	// 启动定时任务
	go func() {
		slotAuditTask := task.NewSlotAuditTask(s, notifier)
		_ = gocron.Every(uint64(conf.Tasks.SlotAuditMinutes)).Minutes().Do(slotAuditTask.Start)
		<-gocron.Start()
	}()
	// 启动 gin HTTP server。
	r, err := web.NewRouter(conf, deps)
	if err != nil {
		log.Fatalf("failed to create gin HTTP server, error %v", err)
	}

	errch := make(chan error, 1)
	go func() {
		httpServerErr := r.Run(conf.ListenAddr)
		errch <- httpServerErr
	}()

	qC := make(chan os.Signal, 1)
	signal.Notify(qC, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-qC:
		log.Info(sig.String())
	case err = <-errch:
		log.Error("http server stopped, error", err.Error())
	}
}
