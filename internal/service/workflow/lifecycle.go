package workflow

import (
	"strings"
	"time"

	"github.com/joalafu15/Backend/internal/common/utils"
	errors2 "github.com/joalafu15/Backend/internal/protodef/errors"
	"github.com/joalafu15/Backend/internal/protodef/form"
	"github.com/joalafu15/Backend/internal/protodef/model"
	"github.com/joalafu15/Backend/internal/service/store"

	"github.com/qiniu/x/xlog"
)

// Lifecycle 候选人各阶段的提交。每一步都只能执行一次，已提交的时间点不会被清空。
type Lifecycle struct {
	candidates  store.CandidateStore
	preferences store.PreferenceStore
	attachments store.AttachmentStore
	settings    store.SettingStore
	catalog     store.CatalogStore
	gate        *PhaseGate
	ranker      *Ranker
	locks       *keyedMutex
	now         func() time.Time
	xl          *xlog.Logger
}

// NewLifecycle shares the ranker's candidate locks so a preference save and a submission for
// the same candidate never interleave.
func NewLifecycle(s *store.Store, gate *PhaseGate, ranker *Ranker, xl *xlog.Logger) *Lifecycle {
	if xl == nil {
		xl = xlog.New("hiring-lifecycle")
	}
	locks := newKeyedMutex()
	if ranker != nil {
		locks = ranker.locks
	}
	return &Lifecycle{
		candidates:  s.Candidates,
		preferences: s.Preferences,
		attachments: s.Attachments,
		settings:    s.Settings,
		catalog:     s.Catalog,
		gate:        gate,
		ranker:      ranker,
		locks:       locks,
		now:         time.Now,
		xl:          xl,
	}
}

// step describes one one-way submission.
type step struct {
	name string
	lock model.PhaseLock
	// gate is the model.Gate* timestamp the step stamps.
	gate  string
	check func(xl *xlog.Logger, c *model.CandidateDo) error
	apply func(c *model.CandidateDo)
}

func (l *Lifecycle) load(xl *xlog.Logger, candidateID string) (*model.CandidateDo, error) {
	candidate, err := l.candidates.GetCandidate(xl, candidateID)
	if err != nil {
		return nil, notFound("candidate", err)
	}
	return candidate, nil
}

func (l *Lifecycle) run(xl *xlog.Logger, candidateID string, s step) (*model.CandidateDo, error) {
	if xl == nil {
		xl = l.xl
	}
	unlock := l.locks.Lock(candidateID)
	defer unlock()
	return l.runLocked(xl, candidateID, s)
}

// runLocked performs s for a caller holding the candidate lock.
func (l *Lifecycle) runLocked(xl *xlog.Logger, candidateID string, s step) (*model.CandidateDo, error) {
	candidate, err := l.load(xl, candidateID)
	if err != nil {
		return nil, err
	}
	if err := l.gate.checkOpen(xl, candidate, s.lock); err != nil {
		return nil, err
	}
	field := candidate.Gates.Field(s.gate)
	if *field != nil {
		return nil, errors2.NewConflict(s.name + " already submitted")
	}
	if s.check != nil {
		if err := s.check(xl, candidate); err != nil {
			return nil, err
		}
	}
	now := l.now()
	*field = &now
	if s.apply != nil {
		s.apply(candidate)
	}
	if err := l.stamp(xl, candidate, s.gate, s.name); err != nil {
		return nil, err
	}
	xl.Infof("candidate %s: %s submitted", candidateID, s.name)
	return candidate, nil
}

// stamp saves candidate only while gate is still null in the store.
func (l *Lifecycle) stamp(xl *xlog.Logger, candidate *model.CandidateDo, gate string, name string) error {
	err := l.candidates.StampCandidate(xl, candidate, gate)
	if err == nil {
		return nil
	}
	if err == store.ErrConflict {
		return errors2.NewConflict(name + " already submitted")
	}
	xl.Errorf("failed to save %s for candidate %s, error %v", name, candidate.ID, err)
	return notFound("candidate", err)
}

// AcceptTerms 记录候选人对条款的答复。拒绝同样会被记录，之后的步骤全部关闭。
func (l *Lifecycle) AcceptTerms(xl *xlog.Logger, candidateID string, accepted bool) (*model.CandidateDo, error) {
	return l.run(xl, candidateID, step{
		name: "job terms",
		lock: model.LockPhase1,
		gate: model.GateAcceptedTerms,
		check: func(xl *xlog.Logger, c *model.CandidateDo) error {
			if c.JobTermsAccepted != nil {
				return errors2.NewConflict("job terms already answered")
			}
			return nil
		},
		apply: func(c *model.CandidateDo) { c.JobTermsAccepted = &accepted },
	})
}

func (l *Lifecycle) AcceptOffer(xl *xlog.Logger, candidateID string, accepted bool) (*model.CandidateDo, error) {
	return l.run(xl, candidateID, step{
		name: "job offer",
		lock: model.LockPhase1,
		gate: model.GateAcceptedOffer,
		check: func(xl *xlog.Logger, c *model.CandidateDo) error {
			if c.JobOfferAccepted != nil {
				return errors2.NewConflict("job offer already answered")
			}
			if c.JobTermsAccepted == nil || !*c.JobTermsAccepted {
				return errors2.NewValidation("job terms must be accepted first")
			}
			return nil
		},
		apply: func(c *model.CandidateDo) { c.JobOfferAccepted = &accepted },
	})
}

func (l *Lifecycle) SubmitInformation(xl *xlog.Logger, candidateID string) (*model.CandidateDo, error) {
	return l.run(xl, candidateID, step{
		name: "information",
		lock: model.LockPhase1,
		gate: model.GateSubmittedInformation,
		check: func(xl *xlog.Logger, c *model.CandidateDo) error {
			var missing []string
			if strings.TrimSpace(c.FullName) == "" {
				missing = append(missing, "fullName")
			}
			if strings.TrimSpace(c.NationalIDNumber) == "" {
				missing = append(missing, "nationalIdNumber")
			}
			if strings.TrimSpace(c.PhoneNumber) == "" {
				missing = append(missing, "phoneNumber")
			}
			if len(missing) > 0 {
				return errors2.NewValidation("missing required information: " + strings.Join(missing, ", "))
			}
			return nil
		},
	})
}

func (l *Lifecycle) SubmitAttachments(xl *xlog.Logger, candidateID string) (*model.CandidateDo, error) {
	return l.run(xl, candidateID, step{
		name: "attachments",
		lock: model.LockPhase1,
		gate: model.GateSubmittedAttachments,
		check: func(xl *xlog.Logger, c *model.CandidateDo) error {
			attachments, err := l.attachments.ListAttachments(xl, c.ID)
			if err != nil {
				return err
			}
			uploaded := make(map[model.AttachmentType]bool, len(attachments))
			for _, a := range attachments {
				uploaded[a.Type] = true
			}
			var missing []string
			for _, t := range model.RequiredAttachmentTypes {
				if !uploaded[t] {
					missing = append(missing, string(t))
				}
			}
			if len(missing) > 0 {
				return errors2.NewValidation("missing required attachments: " + strings.Join(missing, ", "))
			}
			return nil
		},
	})
}

func (l *Lifecycle) SubmitSectorPreferences(xl *xlog.Logger, candidateID string) (*model.CandidateDo, error) {
	return l.run(xl, candidateID, l.sectorPreferencesStep())
}

func (l *Lifecycle) sectorPreferencesStep() step {
	return step{
		name:  "sector preferences",
		lock:  model.LockPhase1,
		gate:  model.GateSubmittedSectorPreferences,
		check: l.requirePreferences(model.PreferenceKindSector),
	}
}

func (l *Lifecycle) SubmitSchoolPreferences(xl *xlog.Logger, candidateID string) (*model.CandidateDo, error) {
	return l.run(xl, candidateID, l.schoolPreferencesStep())
}

func (l *Lifecycle) schoolPreferencesStep() step {
	return step{
		name:  "school preferences",
		lock:  model.LockPhase3,
		gate:  model.GateSubmittedSchoolPreferences,
		check: l.requirePreferences(model.PreferenceKindSchool),
	}
}

func (l *Lifecycle) requirePreferences(kind model.PreferenceKind) func(xl *xlog.Logger, c *model.CandidateDo) error {
	return func(xl *xlog.Logger, c *model.CandidateDo) error {
		preferences, err := l.preferences.ListPreferences(xl, kind, c.ID)
		if err != nil {
			return err
		}
		if len(preferences) == 0 {
			return errors2.NewValidation("no " + string(kind) + " preferences saved")
		}
		return nil
	}
}

func (l *Lifecycle) SubmitPhaseOne(xl *xlog.Logger, candidateID string) (*model.CandidateDo, error) {
	return l.run(xl, candidateID, phaseOneStep)
}

var phaseOneStep = step{
	name: "phase one",
	lock: model.LockPhase1,
	gate: model.GateSubmittedPhaseOne,
	check: func(xl *xlog.Logger, c *model.CandidateDo) error {
		if !c.PhaseOneReady() {
			return errors2.NewValidation("phase one steps are not all submitted")
		}
		return nil
	},
}

func (l *Lifecycle) SubmitPhaseTwo(xl *xlog.Logger, candidateID string) (*model.CandidateDo, error) {
	return l.run(xl, candidateID, phaseTwoStep)
}

var phaseTwoStep = step{
	name: "phase two",
	lock: model.LockPhase2,
	gate: model.GateSubmittedPhaseTwo,
	check: func(xl *xlog.Logger, c *model.CandidateDo) error {
		if c.SubmittedPhaseOneAt == nil {
			return errors2.NewValidation("phase one is not submitted")
		}
		if c.ChosenInterviewTimeSlotID == "" || c.SubmittedInterviewTimeSlotAt == nil {
			return errors2.NewValidation("no interview slot chosen")
		}
		return nil
	},
}

// UpdateInformation 修改个人信息，信息提交后不能再修改。
func (l *Lifecycle) UpdateInformation(xl *xlog.Logger, candidateID string, info *form.InformationForm) (*model.CandidateDo, error) {
	if xl == nil {
		xl = l.xl
	}
	unlock := l.locks.Lock(candidateID)
	defer unlock()
	candidate, err := l.load(xl, candidateID)
	if err != nil {
		return nil, err
	}
	if err := l.gate.checkOpen(xl, candidate, model.LockPhase1); err != nil {
		return nil, err
	}
	if candidate.SubmittedInformationAt != nil {
		return nil, errors2.NewConflict("information already submitted")
	}
	info.Apply(candidate)
	// 条件写入：信息一旦提交就不能再被覆盖。
	if err := l.stamp(xl, candidate, model.GateSubmittedInformation, "information"); err != nil {
		return nil, err
	}
	return candidate, nil
}

// GetCandidate 返回候选人及其可操作属性。
func (l *Lifecycle) GetCandidate(xl *xlog.Logger, candidateID string) (*model.CandidateView, error) {
	if xl == nil {
		xl = l.xl
	}
	candidate, err := l.load(xl, candidateID)
	if err != nil {
		return nil, err
	}
	return &model.CandidateView{
		CandidateDo:         *candidate,
		CandidateProperties: ComputeProperties(candidate),
	}, nil
}

// CreateCandidate 管理员创建单个候选人，职位必须存在。
func (l *Lifecycle) CreateCandidate(xl *xlog.Logger, candidate *model.CandidateDo) error {
	if xl == nil {
		xl = l.xl
	}
	jobPosition, err := l.catalog.GetJobPosition(xl, candidate.JobPositionID)
	if err != nil {
		if err == store.ErrNotFound {
			return errors2.NewValidation("job position " + candidate.JobPositionID + " does not exist")
		}
		return err
	}
	if candidate.AdministrationID == "" {
		candidate.AdministrationID = jobPosition.AdministrationID
	}
	if candidate.ID == "" {
		candidate.ID = utils.GenerateID()
	}
	if candidate.CreatedAt.IsZero() {
		candidate.CreatedAt = l.now()
	}
	if err := l.candidates.CreateCandidate(xl, candidate); err != nil {
		if err == store.ErrDuplicate {
			return errors2.NewConflict("candidate " + candidate.NationalIDNumber + " already exists")
		}
		return err
	}
	return nil
}
