package workflow

import (
	"time"

	errors2 "github.com/joalafu15/Backend/internal/protodef/errors"
	"github.com/joalafu15/Backend/internal/protodef/model"
	"github.com/joalafu15/Backend/internal/service/store"

	"github.com/qiniu/x/xlog"
)

type Outcome string

const (
	OutcomeFilesMatched             Outcome = "files-matched"
	OutcomeConductedInterview       Outcome = "conducted-interview"
	OutcomePassedInterview          Outcome = "passed-interview"
	OutcomeContractValidated        Outcome = "contract-validated"
	OutcomeMedicalExaminationPassed Outcome = "medical-examination-passed"
)

// InterviewOutcome reports whether committee members may record this outcome.
func (o Outcome) InterviewOutcome() bool {
	return o == OutcomeConductedInterview || o == OutcomePassedInterview
}

// OutcomeService 管理员录入各项结果。
type OutcomeService struct {
	candidates  store.CandidateStore
	attachments *AttachmentService
	locks       *keyedMutex
	now         func() time.Time
	xl          *xlog.Logger
}

func NewOutcomeService(candidates store.CandidateStore, attachments *AttachmentService, xl *xlog.Logger) *OutcomeService {
	if xl == nil {
		xl = xlog.New("hiring-outcome")
	}
	return &OutcomeService{
		candidates:  candidates,
		attachments: attachments,
		locks:       newKeyedMutex(),
		now:         time.Now,
		xl:          xl,
	}
}

func (s *OutcomeService) Set(xl *xlog.Logger, candidateID string, outcome Outcome, value bool) (*model.CandidateDo, error) {
	if xl == nil {
		xl = s.xl
	}
	unlock := s.locks.Lock(candidateID)
	defer unlock()
	candidate, err := s.candidates.GetCandidate(xl, candidateID)
	if err != nil {
		return nil, notFound("candidate", err)
	}
	now := s.now()
	switch outcome {
	case OutcomeFilesMatched:
		candidate.FilesMatched, candidate.FilesMatchedAt = &value, &now
	case OutcomeConductedInterview:
		candidate.ConductedInterview, candidate.ConductedInterviewAt = &value, &now
	case OutcomePassedInterview:
		candidate.PassedInterview, candidate.PassedInterviewAt = &value, &now
		if candidate.ConductedInterview == nil {
			conducted := true
			candidate.ConductedInterview, candidate.ConductedInterviewAt = &conducted, &now
		}
	case OutcomeMedicalExaminationPassed:
		candidate.MedicalExaminationPassed, candidate.MedicalExaminationPassedAt = &value, &now
	case OutcomeContractValidated:
		if err := s.checkContract(xl, candidateID, value); err != nil {
			return nil, err
		}
		candidate.ContractValidated, candidate.ContractValidatedAt = &value, &now
	default:
		return nil, errors2.NewValidation("unknown outcome " + string(outcome))
	}
	if err := s.candidates.UpdateCandidate(xl, candidate); err != nil {
		return nil, notFound("candidate", err)
	}
	xl.Infof("candidate %s: %s set to %v", candidateID, outcome, value)
	return candidate, nil
}

// checkContract requires an uploaded contract to validate it, and discards it on rejection.
func (s *OutcomeService) checkContract(xl *xlog.Logger, candidateID string, value bool) error {
	if value {
		if _, err := s.attachments.Get(xl, candidateID, model.AttachmentContract); err != nil {
			if errors2.Is(err, errors2.KindNotFound) {
				return errors2.NewValidation("no contract uploaded")
			}
			return err
		}
		return nil
	}
	err := s.attachments.Remove(xl, candidateID, model.AttachmentContract)
	if err != nil && !errors2.Is(err, errors2.KindNotFound) {
		return err
	}
	return nil
}
