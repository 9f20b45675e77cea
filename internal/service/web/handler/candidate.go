package handler

import (
	"github.com/joalafu15/Backend/internal/protodef/form"
	"github.com/joalafu15/Backend/internal/protodef/model"
	"github.com/joalafu15/Backend/internal/service/workflow"

	"github.com/gin-gonic/gin"
	"github.com/qiniu/x/xlog"
)

// CandidateApiHandler 候选人自己推进流程的接口，路径参数 id 为候选人ID。
type CandidateApiHandler struct {
	Lifecycle *workflow.Lifecycle
	Gate      *workflow.PhaseGate
	Allocator *workflow.Allocator
}

func (h *CandidateApiHandler) GetCandidate(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	candidate, err := h.Lifecycle.GetCandidate(xl, c.Param("id"))
	if err != nil {
		sendError(c, xl, err)
		return
	}
	sendOK(c, xl, candidate)
}

// CreateCandidate 管理员单独创建候选人。
func (h *CandidateApiHandler) CreateCandidate(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	args := &form.CandidateCreateForm{}
	if !bindForm(c, xl, args) {
		return
	}
	candidate := args.ToModel()
	if err := h.Lifecycle.CreateCandidate(xl, candidate); err != nil {
		sendError(c, xl, err)
		return
	}
	sendOK(c, xl, candidate)
}

func (h *CandidateApiHandler) UpdateInformation(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	args := &form.InformationForm{}
	if !bindForm(c, xl, args) {
		return
	}
	candidate, err := h.Lifecycle.UpdateInformation(xl, c.Param("id"), args)
	if err != nil {
		sendError(c, xl, err)
		return
	}
	sendOK(c, xl, candidate)
}

func (h *CandidateApiHandler) AcceptTerms(c *gin.Context) {
	h.accept(c, h.Lifecycle.AcceptTerms)
}

func (h *CandidateApiHandler) AcceptOffer(c *gin.Context) {
	h.accept(c, h.Lifecycle.AcceptOffer)
}

func (h *CandidateApiHandler) accept(c *gin.Context, accept func(xl *xlog.Logger, candidateID string, accepted bool) (*model.CandidateDo, error)) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	args := &form.AcceptForm{}
	if !bindForm(c, xl, args) {
		return
	}
	candidate, err := accept(xl, c.Param("id"), *args.Accepted)
	if err != nil {
		sendError(c, xl, err)
		return
	}
	sendOK(c, xl, candidate)
}

func (h *CandidateApiHandler) SubmitInformation(c *gin.Context) {
	h.submit(c, h.Lifecycle.SubmitInformation)
}

func (h *CandidateApiHandler) SubmitAttachments(c *gin.Context) {
	h.submit(c, h.Lifecycle.SubmitAttachments)
}

func (h *CandidateApiHandler) submit(c *gin.Context, submit func(xl *xlog.Logger, candidateID string) (*model.CandidateDo, error)) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	candidate, err := submit(xl, c.Param("id"))
	if err != nil {
		sendError(c, xl, err)
		return
	}
	sendOK(c, xl, candidate)
}

func (h *CandidateApiHandler) SaveSectorPreferences(c *gin.Context) {
	h.savePreferences(c, h.Lifecycle.SaveSectorPreferences)
}

func (h *CandidateApiHandler) SaveSchoolPreferences(c *gin.Context) {
	h.savePreferences(c, h.Lifecycle.SaveSchoolPreferences)
}

func (h *CandidateApiHandler) savePreferences(c *gin.Context, save func(xl *xlog.Logger, candidateID string, choices []string) (*model.PreferencesResponse, error)) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	args := &form.ChoicesForm{}
	if !bindForm(c, xl, args) {
		return
	}
	resp, err := save(xl, c.Param("id"), args.Choices)
	if err != nil {
		sendError(c, xl, err)
		return
	}
	sendOK(c, xl, resp)
}

func (h *CandidateApiHandler) ListSectorPreferences(c *gin.Context) {
	h.listPreferences(c, model.PreferenceKindSector)
}

func (h *CandidateApiHandler) ListSchoolPreferences(c *gin.Context) {
	h.listPreferences(c, model.PreferenceKindSchool)
}

func (h *CandidateApiHandler) listPreferences(c *gin.Context, kind model.PreferenceKind) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	preferences, err := h.Lifecycle.ListPreferences(xl, kind, c.Param("id"))
	if err != nil {
		sendError(c, xl, err)
		return
	}
	sendOK(c, xl, preferences)
}

// ListAvailableSectors 候选人职位可以填报的 sector。
func (h *CandidateApiHandler) ListAvailableSectors(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	sectors, err := h.Lifecycle.AvailableSectors(xl, c.Param("id"))
	if err != nil {
		sendError(c, xl, err)
		return
	}
	sendOK(c, xl, sectors)
}

// ListAvailableSchools 合格 sector 中可以填报的学校。
func (h *CandidateApiHandler) ListAvailableSchools(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	schools, err := h.Lifecycle.AvailableSchools(xl, c.Param("id"))
	if err != nil {
		sendError(c, xl, err)
		return
	}
	sendOK(c, xl, schools)
}

// GetSettings 返回对该候选人生效的阶段锁。
func (h *CandidateApiHandler) GetSettings(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	settings, err := h.Gate.CandidateSettings(xl, c.Param("id"))
	if err != nil {
		sendError(c, xl, err)
		return
	}
	sendOK(c, xl, settings)
}

// ListEligibleSlots 候选人可以预约的面试时间段。
func (h *CandidateApiHandler) ListEligibleSlots(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	slots, err := h.Allocator.ListEligible(xl, c.Param("id"))
	if err != nil {
		sendError(c, xl, err)
		return
	}
	sendOK(c, xl, slots)
}

func (h *CandidateApiHandler) BookInterviewSlot(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	args := &form.SlotBookingForm{}
	if !bindForm(c, xl, args) {
		return
	}
	candidate, err := h.Allocator.BookInterviewSlot(xl, c.Param("id"), args.InterviewTimeSlotID)
	if err != nil {
		sendError(c, xl, err)
		return
	}
	sendOK(c, xl, candidate)
}

func (h *CandidateApiHandler) OnboardingInstructions(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	resp, err := h.Lifecycle.OnboardingInstructions(xl, c.Param("id"))
	if err != nil {
		sendError(c, xl, err)
		return
	}
	sendOK(c, xl, resp)
}
