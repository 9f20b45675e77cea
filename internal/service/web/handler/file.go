package handler

import (
	"github.com/joalafu15/Backend/internal/protodef/model"
	"github.com/joalafu15/Backend/internal/service/workflow"

	"github.com/gin-gonic/gin"
	"github.com/qiniu/x/xlog"
)

// FileApiHandler 候选人附件的上传、查询与删除。
type FileApiHandler struct {
	Attachments *workflow.AttachmentService
}

func attachmentType(c *gin.Context, xl *xlog.Logger) (model.AttachmentType, bool) {
	t := model.AttachmentType(c.Param("type"))
	if !t.Valid() {
		xl.Infof("unknown attachment type %q", t)
		model.NewFailResponse(*model.NewResponseErrorBadRequest()).WithRequestID(xl.ReqId).
			WithErrorMessage("unknown attachment type").Send(c)
		return "", false
	}
	return t, true
}

// Upload 上传附件，表单字段为 file。同类型的旧附件会被替换。
func (h *FileApiHandler) Upload(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	t, ok := attachmentType(c, xl)
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		xl.Infof("no file in form, error %v", err)
		model.NewFailResponse(*model.NewResponseErrorBadRequest()).WithRequestID(xl.ReqId).Send(c)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		xl.Errorf("failed to open uploaded file, error %v", err)
		model.NewFailResponse(*model.NewResponseErrorInternal()).WithRequestID(xl.ReqId).Send(c)
		return
	}
	defer file.Close()

	attachment, err := h.Attachments.Upload(xl, c.Param("id"), t, workflow.FileUpload{
		FileName: fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Size:     fileHeader.Size,
		Body:     file,
	})
	if err != nil {
		sendError(c, xl, err)
		return
	}
	sendOK(c, xl, attachment)
}

func (h *FileApiHandler) List(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	attachments, err := h.Attachments.List(xl, c.Param("id"))
	if err != nil {
		sendError(c, xl, err)
		return
	}
	sendOK(c, xl, attachments)
}

func (h *FileApiHandler) Get(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	t, ok := attachmentType(c, xl)
	if !ok {
		return
	}
	attachment, err := h.Attachments.Get(xl, c.Param("id"), t)
	if err != nil {
		sendError(c, xl, err)
		return
	}
	sendOK(c, xl, attachment)
}

func (h *FileApiHandler) Remove(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	t, ok := attachmentType(c, xl)
	if !ok {
		return
	}
	if err := h.Attachments.Remove(xl, c.Param("id"), t); err != nil {
		sendError(c, xl, err)
		return
	}
	sendOK(c, xl, nil)
}
