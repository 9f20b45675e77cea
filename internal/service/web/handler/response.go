package handler

import (
	stderrors "errors"
	"strings"

	errors2 "github.com/joalafu15/Backend/internal/protodef/errors"
	"github.com/joalafu15/Backend/internal/protodef/model"

	"github.com/gin-gonic/gin"
	"github.com/qiniu/x/xlog"
)

type validatable interface {
	Validate() error
}

// bindForm 解析请求体并校验，失败时直接返回错误响应。
func bindForm(c *gin.Context, xl *xlog.Logger, args validatable) bool {
	if err := c.ShouldBindJSON(args); err != nil {
		xl.Infof("invalid args in body, error %v", err)
		model.NewFailResponse(*model.NewResponseErrorBadRequest()).WithRequestID(xl.ReqId).Send(c)
		return false
	}
	if err := args.Validate(); err != nil {
		xl.Infof("form validation error: %v", err)
		model.NewFailResponse(*model.NewResponseErrorValidation(err)).WithRequestID(xl.ReqId).Send(c)
		return false
	}
	return true
}

func sendOK(c *gin.Context, xl *xlog.Logger, data interface{}) {
	model.NewSuccessResponse(data).WithRequestID(xl.ReqId).Send(c)
}

func sendError(c *gin.Context, xl *xlog.Logger, err error) {
	responseErr := responseErrorOf(err)
	if responseErr.Code == model.ResponseErrorInternal || responseErr.Code == model.ResponseErrorPartialFailure {
		xl.Errorf("%s %s failed, error %v", c.Request.Method, c.Request.URL.Path, err)
	} else {
		xl.Infof("%s %s rejected, error %v", c.Request.Method, c.Request.URL.Path, err)
	}
	model.NewFailResponse(*responseErr).WithRequestID(xl.ReqId).Send(c)
}

// responseErrorOf maps service errors onto response codes.
func responseErrorOf(err error) *model.ResponseError {
	var workflowErr *errors2.WorkflowError
	if stderrors.As(err, &workflowErr) {
		return workflowResponseError(workflowErr)
	}
	var serverErr *errors2.ServerError
	if stderrors.As(err, &serverErr) {
		switch {
		case serverErr.Code == errors2.ServerErrorUserNotLoggedin:
			return model.NewResponseErrorNotLoggedIn()
		case serverErr.Code == errors2.ServerErrorSMSSendTooFrequent:
			return model.NewResponseErrorSMSSendTooFrequent()
		case serverErr.Code == errors2.ServerErrorWrongSMSCode:
			return model.NewResponseErrorWrongSMSCode()
		case serverErr.Code == errors2.ServerErrorWrongPassword:
			return model.NewResponseErrorWrongPassword()
		case serverErr.Code == errors2.ServerErrorTokenExpired:
			return model.NewResponseErrorBadToken()
		case serverErr.Code == errors2.ServerErrorUserNotfound:
			return model.NewResponseErrorNotFound()
		case serverErr.Code >= 20000 && serverErr.Code < 30000:
			return model.NewResponseErrorExternalService()
		}
		return model.NewResponseErrorInternal()
	}
	return model.NewResponseErrorInternal()
}

func workflowResponseError(workflowErr *errors2.WorkflowError) *model.ResponseError {
	switch workflowErr.Kind {
	case errors2.KindNotFound:
		return model.NewResponseError(model.ResponseErrorNotFound, workflowErr.Summary)
	case errors2.KindConflict:
		return model.NewResponseError(model.ResponseErrorConflict, workflowErr.Summary)
	case errors2.KindForbidden:
		return model.NewResponseError(model.ResponseErrorForbidden, workflowErr.Summary)
	case errors2.KindValidation:
		return model.NewResponseError(model.ResponseErrorPrecondition, workflowErr.Summary)
	case errors2.KindExternalService:
		return model.NewResponseError(model.ResponseErrorExternalService, workflowErr.Summary)
	case errors2.KindPartialFailure:
		message := workflowErr.Summary
		if len(workflowErr.Completed) > 0 {
			message += " (completed: " + strings.Join(workflowErr.Completed, ", ") + ")"
		}
		return model.NewResponseError(model.ResponseErrorPartialFailure, message)
	}
	return model.NewResponseErrorInternal()
}
