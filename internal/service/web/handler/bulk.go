package handler

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/joalafu15/Backend/internal/protodef/model"
	"github.com/joalafu15/Backend/internal/service/bulk"

	"github.com/gin-gonic/gin"
	"github.com/qiniu/x/xlog"
)

var sheetExtensions = map[string]bool{".xlsx": true, ".xlsm": true, ".csv": true}

// BulkApiHandler 接收表格文件，保存到上传目录后交给 Reconciler 处理。
type BulkApiHandler struct {
	Reconciler *bulk.Reconciler
	UploadDir  string
}

// Run 执行批量操作，表单字段 files 可以包含多个文件。
func (h *BulkApiHandler) Run(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	operation := c.Param("operation")
	if !bulk.ValidOperation(operation) {
		model.NewFailResponse(*model.NewResponseErrorNotFound()).WithRequestID(xl.ReqId).Send(c)
		return
	}
	multipartForm, err := c.MultipartForm()
	if err != nil || len(multipartForm.File["files"]) == 0 {
		xl.Infof("no files in bulk %s request, error %v", operation, err)
		model.NewFailResponse(*model.NewResponseErrorBadRequest()).WithRequestID(xl.ReqId).
			WithErrorMessage("files are required").Send(c)
		return
	}

	dir, err := ioutil.TempDir(h.UploadDir, "bulk-")
	if err != nil {
		xl.Errorf("failed to create upload dir, error %v", err)
		model.NewFailResponse(*model.NewResponseErrorInternal()).WithRequestID(xl.ReqId).Send(c)
		return
	}
	defer os.RemoveAll(dir)

	var paths []string
	for i, fileHeader := range multipartForm.File["files"] {
		name := filepath.Base(fileHeader.Filename)
		if !sheetExtensions[strings.ToLower(filepath.Ext(name))] {
			model.NewFailResponse(*model.NewResponseErrorBadRequest()).WithRequestID(xl.ReqId).
				WithErrorMessage(fmt.Sprintf("%s is not a spreadsheet", name)).Send(c)
			return
		}
		dst := filepath.Join(dir, name)
		if _, err := os.Stat(dst); err == nil {
			dst = filepath.Join(dir, fmt.Sprintf("%d-%s", i, name))
		}
		if err := c.SaveUploadedFile(fileHeader, dst); err != nil {
			xl.Errorf("failed to save upload %s, error %v", name, err)
			model.NewFailResponse(*model.NewResponseErrorInternal()).WithRequestID(xl.ReqId).Send(c)
			return
		}
		paths = append(paths, dst)
	}

	report, err := h.Reconciler.Run(xl, operation, paths)
	if err != nil {
		sendError(c, xl, err)
		return
	}
	sendOK(c, xl, report)
}
