package workflow

import (
	"sync"
	"time"

	"github.com/joalafu15/Backend/internal/protodef/model"
	"github.com/joalafu15/Backend/internal/service/store"

	"github.com/google/uuid"
	"github.com/qiniu/x/xlog"
)

// Ranker 按顺序保存候选人的志愿。名次相同的记录原地更新以保留ID，多余的记录删除。
type Ranker struct {
	preferences store.PreferenceStore
	locks       *keyedMutex
	now         func() time.Time
	xl          *xlog.Logger
}

func NewRanker(preferences store.PreferenceStore, xl *xlog.Logger) *Ranker {
	if xl == nil {
		xl = xlog.New("hiring-preference-ranker")
	}
	return &Ranker{
		preferences: preferences,
		locks:       newKeyedMutex(),
		now:         time.Now,
		xl:          xl,
	}
}

// SetPreferences replaces the candidate's ranked choices of kind with targets, in order.
// Calls for the same candidate are serialized.
func (r *Ranker) SetPreferences(xl *xlog.Logger, kind model.PreferenceKind, candidateID string, targets []string) ([]model.PreferenceDo, error) {
	if xl == nil {
		xl = r.xl
	}
	unlock := r.locks.Lock(candidateID)
	defer unlock()
	return r.setPreferences(xl, kind, candidateID, targets)
}

// setPreferences is SetPreferences for callers already holding the candidate lock.
func (r *Ranker) setPreferences(xl *xlog.Logger, kind model.PreferenceKind, candidateID string, targets []string) ([]model.PreferenceDo, error) {
	existing, err := r.preferences.ListPreferences(xl, kind, candidateID)
	if err != nil {
		return nil, err
	}
	byChoice := make(map[int]model.PreferenceDo, len(existing))
	for _, p := range existing {
		if _, ok := byChoice[p.Choice]; !ok {
			byChoice[p.Choice] = p
		}
	}

	now := r.now()
	reused := make(map[string]bool, len(targets))
	result := make([]model.PreferenceDo, 0, len(targets))
	for i, target := range targets {
		choice := i + 1
		if p, ok := byChoice[choice]; ok {
			p.TargetID = target
			p.UpdatedAt = now
			if err := r.preferences.UpdatePreference(xl, &p); err != nil {
				xl.Errorf("failed to update %s preference %s, error %v", kind, p.ID, err)
				return nil, err
			}
			reused[p.ID] = true
			result = append(result, p)
			continue
		}
		p := model.PreferenceDo{
			ID:          uuid.NewString(),
			Kind:        kind,
			CandidateID: candidateID,
			Choice:      choice,
			TargetID:    target,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := r.preferences.CreatePreference(xl, &p); err != nil {
			xl.Errorf("failed to create %s preference for candidate %s, error %v", kind, candidateID, err)
			return nil, err
		}
		result = append(result, p)
	}

	stale := make([]string, 0)
	for _, p := range existing {
		if !reused[p.ID] {
			stale = append(stale, p.ID)
		}
	}
	if len(stale) > 0 {
		if err := r.preferences.DeletePreferences(xl, kind, stale); err != nil {
			xl.Errorf("failed to delete stale %s preferences %v, error %v", kind, stale, err)
			return nil, err
		}
	}
	xl.Debugf("candidate %s: %d %s preferences saved, %d removed", candidateID, len(result), kind, len(stale))
	return result, nil
}

func (r *Ranker) ListPreferences(xl *xlog.Logger, kind model.PreferenceKind, candidateID string) ([]model.PreferenceDo, error) {
	if xl == nil {
		xl = r.xl
	}
	return r.preferences.ListPreferences(xl, kind, candidateID)
}

// keyedMutex hands out one mutex per key and forgets it once nobody holds it.
// Services share one instance keyed by candidate id. It is not re-entrant.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
