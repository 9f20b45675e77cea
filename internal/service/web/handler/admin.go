package handler

import (
	"github.com/joalafu15/Backend/internal/protodef/form"
	"github.com/joalafu15/Backend/internal/protodef/model"
	"github.com/joalafu15/Backend/internal/service/web/middleware"
	"github.com/joalafu15/Backend/internal/service/workflow"

	"github.com/gin-gonic/gin"
	"github.com/qiniu/x/xlog"
)

// AdminApiHandler 管理员、运营与委员会使用的接口。
type AdminApiHandler struct {
	Lifecycle *workflow.Lifecycle
	Outcomes  *workflow.OutcomeService
	Settings  *workflow.SettingService
	Allocator *workflow.Allocator
}

// SetOutcome 录入结果。委员会只能录入面试相关的结果。
func (h *AdminApiHandler) SetOutcome(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	outcome := workflow.Outcome(c.Param("outcome"))
	account, _ := middleware.CurrentAccount(c)
	if account.Role == model.RoleCommittee && !outcome.InterviewOutcome() {
		xl.Infof("committee account %s may not set %s", account.ID, outcome)
		model.NewFailResponse(*model.NewResponseErrorForbidden()).WithRequestID(xl.ReqId).Send(c)
		return
	}
	args := &form.OutcomeForm{}
	if !bindForm(c, xl, args) {
		return
	}
	candidate, err := h.Outcomes.Set(xl, c.Param("id"), outcome, *args.Value)
	if err != nil {
		sendError(c, xl, err)
		return
	}
	sendOK(c, xl, candidate)
}

func (h *AdminApiHandler) GetSetting(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	setting, err := h.Settings.Get(xl, c.Param("name"))
	if err != nil {
		sendError(c, xl, err)
		return
	}
	sendOK(c, xl, setting)
}

func (h *AdminApiHandler) PutSetting(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	args := &form.SettingForm{}
	if !bindForm(c, xl, args) {
		return
	}
	setting, err := h.Settings.Put(xl, c.Param("name"), *args.Active, args.Value)
	if err != nil {
		sendError(c, xl, err)
		return
	}
	sendOK(c, xl, setting)
}

// CandidateReport 统计候选人进度。委员会只能看到所属管理机构的数据。
func (h *AdminApiHandler) CandidateReport(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	administrationID := c.Query("administrationId")
	if account, _ := middleware.CurrentAccount(c); account.Role == model.RoleCommittee {
		administrationID = account.AdministrationID
	}
	report, err := h.Lifecycle.Report(xl, administrationID)
	if err != nil {
		sendError(c, xl, err)
		return
	}
	sendOK(c, xl, report)
}

func (h *AdminApiHandler) ListSlots(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	slots, err := h.Allocator.ListSlots(xl)
	if err != nil {
		sendError(c, xl, err)
		return
	}
	sendOK(c, xl, slots)
}

func (h *AdminApiHandler) CreateSlot(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	args := &form.SlotCreateForm{}
	if !bindForm(c, xl, args) {
		return
	}
	slot := args.ToModel()
	if err := h.Allocator.CreateSlot(xl, slot); err != nil {
		sendError(c, xl, err)
		return
	}
	sendOK(c, xl, slot)
}

func (h *AdminApiHandler) ListSlotCandidates(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	candidates, err := h.Allocator.ListSlotCandidates(xl, c.Param("slotId"))
	if err != nil {
		sendError(c, xl, err)
		return
	}
	sendOK(c, xl, candidates)
}
