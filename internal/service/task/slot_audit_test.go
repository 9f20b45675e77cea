package task

import (
	"strings"
	"testing"
	"time"

	"github.com/qiniu/x/xlog"

	"github.com/joalafu15/Backend/internal/protodef/model"
	"github.com/joalafu15/Backend/internal/service/store"
)

type captureNotifier struct {
	bodies []string
}

func (n *captureNotifier) Notify(xl *xlog.Logger, subject string, body string) error {
	n.bodies = append(n.bodies, body)
	return nil
}

func TestSlotAudit(t *testing.T) {
	mem := store.NewMemory()
	start := time.Now().Add(24 * time.Hour)
	for _, slot := range []model.InterviewTimeSlotDo{
		{ID: "s1", LocationName: "Hall A", MaxCandidatesCapacity: 5, CurrentCandidatesCount: 2, StartDateTime: start, EndDateTime: start.Add(time.Hour)},
		{ID: "s2", LocationName: "Hall B", MaxCandidatesCapacity: 5, CurrentCandidatesCount: 3, StartDateTime: start, EndDateTime: start.Add(time.Hour)},
	} {
		slot := slot
		if err := mem.CreateSlot(nil, &slot); err != nil {
			t.Fatal(err)
		}
	}
	for i, slotID := range []string{"s1", "s1", "s2"} {
		c := &model.CandidateDo{ID: string(rune('a' + i)), NationalIDNumber: string(rune('a' + i)), ChosenInterviewTimeSlotID: slotID}
		if err := mem.CreateCandidate(nil, c); err != nil {
			t.Fatal(err)
		}
	}

	notifier := &captureNotifier{}
	task := NewSlotAuditTask(store.FromMemory(mem), notifier)
	drifts, err := task.Audit()
	if err != nil {
		t.Fatal(err)
	}
	if len(drifts) != 1 || drifts[0].SlotID != "s2" || drifts[0].Recorded != 3 || drifts[0].Actual != 1 {
		t.Fatalf("drifts = %+v", drifts)
	}

	task.Start()
	if len(notifier.bodies) != 1 || !strings.Contains(notifier.bodies[0], "slot s2 (Hall B): recorded 3, actual 1") {
		t.Errorf("notifications = %v", notifier.bodies)
	}
	slot, _ := mem.GetSlot(nil, "s2")
	if slot.CurrentCandidatesCount != 3 {
		t.Error("audit must not rewrite counts")
	}
}
