package workflow

import (
	"sync"
	"testing"
	"time"

	"github.com/joalafu15/Backend/internal/common/utils"
	errors2 "github.com/joalafu15/Backend/internal/protodef/errors"
	"github.com/joalafu15/Backend/internal/protodef/model"
	"github.com/joalafu15/Backend/internal/service/store"

	"github.com/qiniu/x/xlog"
)

// slowCandidates widens the window between reading a candidate and writing it back.
type slowCandidates struct {
	store.CandidateStore
}

func (s slowCandidates) GetCandidate(xl *xlog.Logger, id string) (*model.CandidateDo, error) {
	c, err := s.CandidateStore.GetCandidate(xl, id)
	time.Sleep(5 * time.Millisecond)
	return c, err
}

func newSlowEnv(t *testing.T, overbooking string) *testEnv {
	t.Helper()
	mem := store.NewMemory()
	return newTestEnvWithStore(t, mem, func(s *store.Store) {
		s.Candidates = slowCandidates{CandidateStore: mem}
	}, overbooking)
}

// race runs every fn at the same time and returns their errors in order.
func race(fns ...func() error) []error {
	errs := make([]error, len(fns))
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, fn := range fns {
		wg.Add(1)
		go func(i int, fn func() error) {
			defer wg.Done()
			<-start
			errs[i] = fn()
		}(i, fn)
	}
	close(start)
	wg.Wait()
	return errs
}

func oneConflict(t *testing.T, errs []error) {
	t.Helper()
	ok, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors2.Is(err, errors2.KindConflict):
			conflicts++
		default:
			t.Errorf("unexpected error %v", err)
		}
	}
	if ok != 1 || conflicts != len(errs)-1 {
		t.Errorf("succeeded %d, conflicted %d: %v", ok, conflicts, errs)
	}
}

func TestConcurrentBookingTakesOneSeat(t *testing.T) {
	env := newSlowEnv(t, utils.OverbookingStrict)
	env.addSlot(t, "s1", 3, 0, testNow.Add(time.Hour))
	env.addCandidate(t, "c1", phaseOneDone)

	book := func() error {
		_, err := env.svc.Allocator.BookInterviewSlot(nil, "c1", "s1")
		return err
	}
	oneConflict(t, race(book, book))
	if got := env.slotCount(t, "s1"); got != 1 {
		t.Errorf("slot count = %d, want 1", got)
	}
	if c := env.candidate(t, "c1"); c.SubmittedPhaseTwoAt == nil {
		t.Errorf("phase two not submitted: %+v", c.Gates)
	}
}

func TestConcurrentSubmitConflictsOnce(t *testing.T) {
	env := newSlowEnv(t, "")
	env.addCandidate(t, "c1", nil)

	submit := func() error {
		_, err := env.svc.Lifecycle.SubmitInformation(nil, "c1")
		return err
	}
	oneConflict(t, race(submit, submit))
	if c := env.candidate(t, "c1"); c.SubmittedInformationAt == nil {
		t.Errorf("gates = %+v", c.Gates)
	}
}

func TestConcurrentSubmissionsKeepBothGates(t *testing.T) {
	env := newSlowEnv(t, "")
	env.addCandidate(t, "c1", nil)

	errs := race(
		func() error {
			_, err := env.svc.Lifecycle.SubmitInformation(nil, "c1")
			return err
		},
		func() error {
			_, err := env.svc.Lifecycle.AcceptTerms(nil, "c1", true)
			return err
		},
	)
	for _, err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	c := env.candidate(t, "c1")
	if c.SubmittedInformationAt == nil || c.AcceptedTermsAt == nil || c.JobTermsAccepted == nil {
		t.Errorf("a concurrent write erased a gate: %+v", c.Gates)
	}
}

func TestConcurrentPreferenceSaveAndOutcomeKeepBothWrites(t *testing.T) {
	env := newSlowEnv(t, "")
	env.addCandidate(t, "c1", nil)

	errs := race(
		func() error {
			_, err := env.svc.Lifecycle.SaveSectorPreferences(nil, "c1", []string{"5"})
			return err
		},
		func() error {
			_, err := env.svc.Outcomes.Set(nil, "c1", OutcomeFilesMatched, true)
			return err
		},
	)
	for _, err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}
	c := env.candidate(t, "c1")
	if c.SubmittedSectorPreferencesAt == nil || c.FilesMatched == nil {
		t.Errorf("candidate = %+v", c)
	}
}

// Two service instances over one store stand in for two server processes: the
// in-process lock is not shared, so only the conditional write stops the second submit.
func TestConditionalStampAcrossInstances(t *testing.T) {
	env := newSlowEnv(t, "")
	env.addCandidate(t, "c1", nil)
	conf := &utils.Config{JwtKey: "test-key"}
	conf.FillDefault()
	other := NewServices(env.store, Dependencies{SmsCode: env.sms}, conf, nil)

	oneConflict(t, race(
		func() error {
			_, err := env.svc.Lifecycle.SubmitInformation(nil, "c1")
			return err
		},
		func() error {
			_, err := other.Lifecycle.SubmitInformation(nil, "c1")
			return err
		},
	))
}
