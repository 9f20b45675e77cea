package workflow

import (
	"fmt"
	"time"

	"github.com/joalafu15/Backend/internal/common/utils"
	errors2 "github.com/joalafu15/Backend/internal/protodef/errors"
	"github.com/joalafu15/Backend/internal/protodef/model"
	"github.com/joalafu15/Backend/internal/service/store"

	"github.com/qiniu/x/xlog"
)

// Messenger 向手机号发送一条短信。
type Messenger interface {
	SendMessage(xl *xlog.Logger, phone string, message string) error
}

const bookingMessageLayout = "2006-01-02 15:04"

// Allocator 面试时间段的容量分配。
type Allocator struct {
	slots      store.SlotStore
	candidates store.CandidateStore
	lifecycle  *Lifecycle
	gate       *PhaseGate
	messenger  Messenger
	// overbooking is utils.OverbookingStrict or utils.OverbookingLegacy.
	overbooking string
	now         func() time.Time
	xl          *xlog.Logger
}

func NewAllocator(s *store.Store, lifecycle *Lifecycle, gate *PhaseGate, messenger Messenger, overbooking string, xl *xlog.Logger) *Allocator {
	if xl == nil {
		xl = xlog.New("hiring-slot-allocator")
	}
	if overbooking != utils.OverbookingLegacy {
		overbooking = utils.OverbookingStrict
	}
	return &Allocator{
		slots:       s.Slots,
		candidates:  s.Candidates,
		lifecycle:   lifecycle,
		gate:        gate,
		messenger:   messenger,
		overbooking: overbooking,
		now:         time.Now,
		xl:          xl,
	}
}

// Reserve validates that the slot exists, has a free seat and has not ended.
func (a *Allocator) Reserve(xl *xlog.Logger, slotID string) (*model.InterviewTimeSlotDo, error) {
	if xl == nil {
		xl = a.xl
	}
	slot, err := a.slots.GetSlot(xl, slotID)
	if err != nil {
		return nil, notFound("interview slot", err)
	}
	if !slot.Open(a.now()) {
		return nil, errors2.NewForbidden("interview slot not available")
	}
	return slot, nil
}

// Commit adds one candidate to the slot count. The caller validates availability first.
func (a *Allocator) Commit(xl *xlog.Logger, slot *model.InterviewTimeSlotDo) error {
	if xl == nil {
		xl = a.xl
	}
	if err := a.slots.AddSlotCount(xl, slot.ID, 1); err != nil {
		return notFound("interview slot", err)
	}
	slot.CurrentCandidatesCount++
	return nil
}

// ListEligible returns the chosen slot if the candidate already has one, otherwise the
// open slots of the candidate's administration.
func (a *Allocator) ListEligible(xl *xlog.Logger, candidateID string) ([]model.InterviewTimeSlotDo, error) {
	if xl == nil {
		xl = a.xl
	}
	candidate, err := a.candidates.GetCandidate(xl, candidateID)
	if err != nil {
		return nil, notFound("candidate", err)
	}
	if candidate.ChosenInterviewTimeSlotID != "" {
		slot, err := a.slots.GetSlot(xl, candidate.ChosenInterviewTimeSlotID)
		if err != nil {
			return nil, notFound("interview slot", err)
		}
		return []model.InterviewTimeSlotDo{*slot}, nil
	}
	return a.slots.ListOpenSlots(xl, candidate.AdministrationID, a.now())
}

// reserveSeat takes one seat on the slot according to the overbooking mode.
func (a *Allocator) reserveSeat(xl *xlog.Logger, slotID string) error {
	if a.overbooking == utils.OverbookingLegacy {
		slot, err := a.Reserve(xl, slotID)
		if err != nil {
			return err
		}
		return a.Commit(xl, slot)
	}
	ok, err := a.slots.TryReserveSeat(xl, slotID, a.now())
	if err != nil {
		return notFound("interview slot", err)
	}
	if !ok {
		return errors2.NewForbidden("interview slot not available")
	}
	return nil
}

// BookInterviewSlot 候选人选择面试时间段：占座、保存候选人、提交第二阶段。
// 整个过程持有候选人锁。占座之后的步骤失败时返回 PartialFailure，并列出已完成的步骤。
func (a *Allocator) BookInterviewSlot(xl *xlog.Logger, candidateID string, slotID string) (*model.CandidateDo, error) {
	if xl == nil {
		xl = a.xl
	}
	unlock := a.lifecycle.locks.Lock(candidateID)
	defer unlock()
	candidate, err := a.candidates.GetCandidate(xl, candidateID)
	if err != nil {
		return nil, notFound("candidate", err)
	}
	if candidate.SubmittedInterviewTimeSlotAt != nil {
		return nil, errors2.NewConflict("interview slot already submitted")
	}
	if err := a.gate.checkOpen(xl, candidate, model.LockPhase2); err != nil {
		return nil, err
	}
	if candidate.SubmittedPhaseOneAt == nil {
		return nil, errors2.NewValidation("phase one is not submitted")
	}

	if err := a.reserveSeat(xl, slotID); err != nil {
		return nil, err
	}
	completed := []string{"reserve-seat"}

	now := a.now()
	candidate.ChosenInterviewTimeSlotID = slotID
	candidate.SubmittedInterviewTimeSlotAt = &now
	if err := a.lifecycle.stamp(xl, candidate, model.GateSubmittedInterviewTimeSlot, "interview slot"); err != nil {
		xl.Errorf("candidate %s: seat on slot %s taken but candidate not saved, error %v", candidateID, slotID, err)
		if a.releaseSeat(xl, slotID) || errors2.Is(err, errors2.KindConflict) {
			return nil, err
		}
		return nil, errors2.NewPartialFailure("interview slot reserved but candidate not saved", completed, err)
	}
	completed = append(completed, "save-interview-slot")

	updated, err := a.lifecycle.runLocked(xl, candidateID, phaseTwoStep)
	if err != nil {
		xl.Errorf("candidate %s: interview slot saved but phase two failed, error %v", candidateID, err)
		return nil, errors2.NewPartialFailure("interview slot saved but phase two not submitted", completed, err)
	}
	a.notifyBooking(xl, updated, slotID)
	return updated, nil
}

// releaseSeat gives back a seat taken by a failed booking. Only strict mode releases.
func (a *Allocator) releaseSeat(xl *xlog.Logger, slotID string) bool {
	if a.overbooking != utils.OverbookingStrict {
		return false
	}
	if err := a.slots.AddSlotCount(xl, slotID, -1); err != nil {
		xl.Errorf("failed to release seat on slot %s, error %v", slotID, err)
		return false
	}
	return true
}

func (a *Allocator) notifyBooking(xl *xlog.Logger, candidate *model.CandidateDo, slotID string) {
	if a.messenger == nil || candidate.PhoneNumber == "" {
		return
	}
	slot, err := a.slots.GetSlot(xl, slotID)
	if err != nil {
		xl.Warnf("booking confirmation skipped, slot %s: %v", slotID, err)
		return
	}
	message := fmt.Sprintf("Your interview is booked at %s on %s.",
		slot.LocationName, slot.StartDateTime.Format(bookingMessageLayout))
	if err := a.messenger.SendMessage(xl, candidate.PhoneNumber, message); err != nil {
		xl.Warnf("failed to send booking confirmation to candidate %s, error %v", candidate.ID, err)
	}
}

// CreateSlot 创建面试时间段。
func (a *Allocator) CreateSlot(xl *xlog.Logger, slot *model.InterviewTimeSlotDo) error {
	if xl == nil {
		xl = a.xl
	}
	if slot.ID == "" {
		slot.ID = utils.GenerateID()
	}
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = a.now()
	}
	slot.CurrentCandidatesCount = 0
	return a.slots.CreateSlot(xl, slot)
}

func (a *Allocator) ListSlots(xl *xlog.Logger) ([]model.InterviewTimeSlotDo, error) {
	if xl == nil {
		xl = a.xl
	}
	return a.slots.ListSlots(xl)
}

// ListSlotCandidates 选择了该时间段的候选人。
func (a *Allocator) ListSlotCandidates(xl *xlog.Logger, slotID string) ([]model.CandidateDo, error) {
	if xl == nil {
		xl = a.xl
	}
	if _, err := a.slots.GetSlot(xl, slotID); err != nil {
		return nil, notFound("interview slot", err)
	}
	return a.candidates.ListCandidates(xl, model.CandidateQuery{ChosenInterviewTimeSlotID: slotID})
}
