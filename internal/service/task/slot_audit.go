package task

import (
	"fmt"
	"strings"

	"github.com/qiniu/x/xlog"

	"github.com/joalafu15/Backend/internal/protodef/model"
	"github.com/joalafu15/Backend/internal/service/store"
)

// Notifier 接收巡检发现的问题。
type Notifier interface {
	Notify(xl *xlog.Logger, subject string, body string) error
}

// SlotDrift 面试时间段记录的人数与实际选择该时间段的候选人数不一致。
type SlotDrift struct {
	SlotID       string
	LocationName string
	Recorded     int
	Actual       int
}

func (d SlotDrift) String() string {
	return fmt.Sprintf("slot %s (%s): recorded %d, actual %d", d.SlotID, d.LocationName, d.Recorded, d.Actual)
}

// SlotAuditTask 定时核对面试时间段人数，只报告差异，不修改数据。
type SlotAuditTask struct {
	slots      store.SlotStore
	candidates store.CandidateStore
	notifier   Notifier
	xl         *xlog.Logger
}

func NewSlotAuditTask(s *store.Store, notifier Notifier) *SlotAuditTask {
	return &SlotAuditTask{
		slots:      s.Slots,
		candidates: s.Candidates,
		notifier:   notifier,
		xl:         xlog.New("slot audit task"),
	}
}

// Audit recounts every slot from candidates' chosen slots and returns the slots that disagree.
func (t *SlotAuditTask) Audit() ([]SlotDrift, error) {
	slots, err := t.slots.ListSlots(t.xl)
	if err != nil {
		return nil, err
	}
	var drifts []SlotDrift
	for _, slot := range slots {
		actual, err := t.candidates.CountCandidates(t.xl, model.CandidateQuery{ChosenInterviewTimeSlotID: slot.ID})
		if err != nil {
			return nil, err
		}
		if actual != slot.CurrentCandidatesCount {
			drifts = append(drifts, SlotDrift{
				SlotID:       slot.ID,
				LocationName: slot.LocationName,
				Recorded:     slot.CurrentCandidatesCount,
				Actual:       actual,
			})
		}
	}
	return drifts, nil
}

func (t *SlotAuditTask) Start() {
	drifts, err := t.Audit()
	if err != nil {
		t.xl.Errorf("error audit slot counts: %v", err)
		return
	}
	if len(drifts) == 0 {
		t.xl.Debugf("slot audit found no drift")
		return
	}
	lines := make([]string, 0, len(drifts))
	for _, d := range drifts {
		t.xl.Warnf("slot count drift, %s", d)
		lines = append(lines, d.String())
	}
	if t.notifier == nil {
		return
	}
	if err := t.notifier.Notify(t.xl, "Interview slot count drift", strings.Join(lines, "\n")); err != nil {
		t.xl.Errorf("failed to report slot drift, error %v", err)
	}
}
