package workflow

import (
	"strings"

	errors2 "github.com/joalafu15/Backend/internal/protodef/errors"
	"github.com/joalafu15/Backend/internal/protodef/model"
	"github.com/joalafu15/Backend/internal/service/store"

	"github.com/qiniu/x/xlog"
)

// PhaseGate 判断某个阶段锁对指定候选人是否生效。
type PhaseGate struct {
	candidates store.CandidateStore
	settings   store.SettingStore
	xl         *xlog.Logger
}

func NewPhaseGate(candidates store.CandidateStore, settings store.SettingStore, xl *xlog.Logger) *PhaseGate {
	if xl == nil {
		xl = xlog.New("hiring-phase-gate")
	}
	return &PhaseGate{
		candidates: candidates,
		settings:   settings,
		xl:         xl,
	}
}

// LockApplies evaluates a lock setting for a candidate group. A missing setting never locks.
// A grouped candidate whose group is not listed in the setting value is exempt.
func LockApplies(setting *model.SettingDo, group string) bool {
	if setting == nil {
		return false
	}
	if group != "" {
		listed := false
		for _, g := range strings.Split(setting.Value, model.SettingGroupSeparator) {
			if strings.TrimSpace(g) == group {
				listed = true
				break
			}
		}
		if !listed {
			return false
		}
	}
	return setting.Active
}

// IsLocked loads the candidate and evaluates lock for it.
func (g *PhaseGate) IsLocked(xl *xlog.Logger, candidateID string, lock model.PhaseLock) (bool, error) {
	if xl == nil {
		xl = g.xl
	}
	candidate, err := g.candidates.GetCandidate(xl, candidateID)
	if err != nil {
		return false, notFound("candidate", err)
	}
	return g.LockedFor(xl, candidate, lock)
}

// LockedFor evaluates lock for an already loaded candidate.
func (g *PhaseGate) LockedFor(xl *xlog.Logger, candidate *model.CandidateDo, lock model.PhaseLock) (bool, error) {
	if xl == nil {
		xl = g.xl
	}
	setting, err := g.settings.GetSetting(xl, string(lock))
	if err != nil {
		if err == store.ErrNotFound {
			return false, nil
		}
		xl.Errorf("failed to load setting %s, error %v", lock, err)
		return false, err
	}
	return LockApplies(setting, candidate.Group), nil
}

// checkOpen fails with Forbidden when lock applies to the candidate.
func (g *PhaseGate) checkOpen(xl *xlog.Logger, candidate *model.CandidateDo, lock model.PhaseLock) error {
	locked, err := g.LockedFor(xl, candidate, lock)
	if err != nil {
		return err
	}
	if locked {
		xl.Infof("candidate %s blocked by %s", candidate.ID, lock)
		return errors2.NewForbidden(string(lock) + " is active")
	}
	return nil
}

// CandidateSettings 返回对该候选人生效的各个阶段锁。
func (g *PhaseGate) CandidateSettings(xl *xlog.Logger, candidateID string) (*model.CandidateSettings, error) {
	if xl == nil {
		xl = g.xl
	}
	candidate, err := g.candidates.GetCandidate(xl, candidateID)
	if err != nil {
		return nil, notFound("candidate", err)
	}
	locks := make(map[model.PhaseLock]bool, len(model.PhaseLocks))
	for _, lock := range model.PhaseLocks {
		locked, err := g.LockedFor(xl, candidate, lock)
		if err != nil {
			return nil, err
		}
		locks[lock] = locked
	}
	return &model.CandidateSettings{
		LockPhase1: locks[model.LockPhase1],
		LockPhase2: locks[model.LockPhase2],
		LockPhase3: locks[model.LockPhase3],
	}, nil
}

// notFound turns store.ErrNotFound into a NotFound workflow error and passes other errors through.
func notFound(what string, err error) error {
	if err == store.ErrNotFound {
		return errors2.NewNotFound(what+" not found", err)
	}
	return err
}
