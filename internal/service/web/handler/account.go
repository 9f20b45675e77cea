package handler

import (
	"github.com/joalafu15/Backend/internal/protodef/form"
	"github.com/joalafu15/Backend/internal/protodef/model"
	"github.com/joalafu15/Backend/internal/service/web/middleware"
	"github.com/joalafu15/Backend/internal/service/workflow"

	"github.com/gin-gonic/gin"
	"github.com/qiniu/x/xlog"
)

// AccountApiHandler 注册、登录与账号管理。
type AccountApiHandler struct {
	Registration *workflow.Registration
}

// VerifyNationalID 检查身份证号是否可以注册。
func (h *AccountApiHandler) VerifyNationalID(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	args := &form.NationalIDForm{}
	if !bindForm(c, xl, args) {
		return
	}
	if err := h.Registration.VerifyNationalID(xl, args.NationalIDNumber); err != nil {
		sendError(c, xl, err)
		return
	}
	sendOK(c, xl, nil)
}

// SendOtp 发送注册验证码。
func (h *AccountApiHandler) SendOtp(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	args := &form.NationalIDForm{}
	if !bindForm(c, xl, args) {
		return
	}
	resp, err := h.Registration.SendOtp(xl, args.NationalIDNumber)
	if err != nil {
		sendError(c, xl, err)
		return
	}
	sendOK(c, xl, resp)
}

func (h *AccountApiHandler) SignUp(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	args := &form.SignUpForm{}
	if !bindForm(c, xl, args) {
		return
	}
	account, err := h.Registration.SignUp(xl, args)
	if err != nil {
		sendError(c, xl, err)
		return
	}
	sendOK(c, xl, account)
}

func (h *AccountApiHandler) Login(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	args := &form.LoginForm{}
	if !bindForm(c, xl, args) {
		return
	}
	resp, err := h.Registration.Login(xl, args.Username, args.Password)
	if err != nil {
		sendError(c, xl, err)
		return
	}
	sendOK(c, xl, resp)
}

func (h *AccountApiHandler) Logout(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	if err := h.Registration.Logout(xl, c.GetString(model.UserIDContextKey)); err != nil {
		sendError(c, xl, err)
		return
	}
	sendOK(c, xl, nil)
}

// UpdatePassword 修改当前登录账号的密码。
func (h *AccountApiHandler) UpdatePassword(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	args := &form.PasswordUpdateForm{}
	if !bindForm(c, xl, args) {
		return
	}
	if err := h.Registration.UpdatePassword(xl, c.GetString(model.UserIDContextKey), args); err != nil {
		sendError(c, xl, err)
		return
	}
	sendOK(c, xl, nil)
}

// GetAccountInfo 返回当前登录的账号。
func (h *AccountApiHandler) GetAccountInfo(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	account, _ := middleware.CurrentAccount(c)
	sendOK(c, xl, account)
}

// CreateStaffAccount 管理员创建工作人员账号。
func (h *AccountApiHandler) CreateStaffAccount(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	args := &form.AccountCreateForm{}
	if !bindForm(c, xl, args) {
		return
	}
	account, err := h.Registration.CreateStaffAccount(xl, args)
	if err != nil {
		sendError(c, xl, err)
		return
	}
	sendOK(c, xl, account)
}

// VerifyInterviewStatus 公开查询面试结果。
func (h *AccountApiHandler) VerifyInterviewStatus(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	resp, err := h.Registration.VerifyInterviewStatus(xl, c.Param("nationalId"))
	if err != nil {
		sendError(c, xl, err)
		return
	}
	sendOK(c, xl, resp)
}
