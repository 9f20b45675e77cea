package store

import (
	"errors"
	"time"

	"github.com/joalafu15/Backend/internal/protodef/model"
	"github.com/qiniu/x/xlog"
)

var (
	// ErrNotFound is returned by every store when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key (national id, username) is already taken.
	ErrDuplicate = errors.New("duplicate record")
	// ErrConflict is returned by StampCandidate when the gate is already set in the store.
	ErrConflict = errors.New("gate already set")
)

type CandidateStore interface {
	GetCandidate(xl *xlog.Logger, id string) (*model.CandidateDo, error)
	GetCandidateByNationalID(xl *xlog.Logger, nationalID string) (*model.CandidateDo, error)
	CreateCandidate(xl *xlog.Logger, candidate *model.CandidateDo) error
	// UpdateCandidate replaces the stored record with candidate.
	UpdateCandidate(xl *xlog.Logger, candidate *model.CandidateDo) error
	// StampCandidate replaces the stored record with candidate only while the stored gate timestamp
	// (one of the model.Gate* names) is still null.
	StampCandidate(xl *xlog.Logger, candidate *model.CandidateDo, gate string) error
	ListCandidates(xl *xlog.Logger, query model.CandidateQuery) ([]model.CandidateDo, error)
	CountCandidates(xl *xlog.Logger, query model.CandidateQuery) (int, error)
}

type PreferenceStore interface {
	// ListPreferences returns the candidate's records ordered by choice ascending.
	ListPreferences(xl *xlog.Logger, kind model.PreferenceKind, candidateID string) ([]model.PreferenceDo, error)
	CreatePreference(xl *xlog.Logger, preference *model.PreferenceDo) error
	UpdatePreference(xl *xlog.Logger, preference *model.PreferenceDo) error
	DeletePreferences(xl *xlog.Logger, kind model.PreferenceKind, ids []string) error
}

type SettingStore interface {
	GetSetting(xl *xlog.Logger, name string) (*model.SettingDo, error)
	PutSetting(xl *xlog.Logger, setting *model.SettingDo) error
}

type SlotStore interface {
	GetSlot(xl *xlog.Logger, id string) (*model.InterviewTimeSlotDo, error)
	CreateSlot(xl *xlog.Logger, slot *model.InterviewTimeSlotDo) error
	ListSlots(xl *xlog.Logger) ([]model.InterviewTimeSlotDo, error)
	// ListOpenSlots returns the administration's slots that end at or after now and still have room.
	ListOpenSlots(xl *xlog.Logger, administrationID string, now time.Time) ([]model.InterviewTimeSlotDo, error)
	// AddSlotCount changes currentCandidatesCount by delta without any capacity check.
	AddSlotCount(xl *xlog.Logger, id string, delta int) error
	// TryReserveSeat increments currentCandidatesCount only while the slot is open at now.
	// It returns false when the slot exists but is full or expired.
	TryReserveSeat(xl *xlog.Logger, id string, now time.Time) (bool, error)
}

type AttachmentStore interface {
	GetAttachment(xl *xlog.Logger, candidateID string, attachmentType model.AttachmentType) (*model.AttachmentDo, error)
	ListAttachments(xl *xlog.Logger, candidateID string) ([]model.AttachmentDo, error)
	// PutAttachment stores the record keyed by (candidate, type), replacing any previous one.
	PutAttachment(xl *xlog.Logger, attachment *model.AttachmentDo) error
	DeleteAttachment(xl *xlog.Logger, candidateID string, attachmentType model.AttachmentType) error
}

type CatalogStore interface {
	GetJobPosition(xl *xlog.Logger, id string) (*model.JobPositionDo, error)
	CreateJobPosition(xl *xlog.Logger, jobPosition *model.JobPositionDo) error
	GetSector(xl *xlog.Logger, id string) (*model.SectorDo, error)
	GetSchool(xl *xlog.Logger, id string) (*model.SchoolDo, error)
	// ListSectors returns the sectors open to the job position, ordered by id.
	ListSectors(xl *xlog.Logger, jobPositionID string) ([]model.SectorDo, error)
	// ListSchools returns the schools of the sector open to the job position, ordered by id.
	ListSchools(xl *xlog.Logger, jobPositionID string, sectorID string) ([]model.SchoolDo, error)
	GetAdministration(xl *xlog.Logger, id string) (*model.AdministrationDo, error)
}

type AccountStore interface {
	CreateAccount(xl *xlog.Logger, account *model.AccountDo) error
	GetAccountByID(xl *xlog.Logger, id string) (*model.AccountDo, error)
	GetAccountByUsername(xl *xlog.Logger, username string) (*model.AccountDo, error)
	TouchLogin(xl *xlog.Logger, id string, at time.Time) error
	UpdatePassword(xl *xlog.Logger, id string, passwordHash string) error
	PutToken(xl *xlog.Logger, token *model.AccountTokenDo) error
	GetToken(xl *xlog.Logger, token string) (*model.AccountTokenDo, error)
	DeleteToken(xl *xlog.Logger, accountID string) error
}

type SMSCodeStore interface {
	CountCodesSince(xl *xlog.Logger, phone string, since time.Time) (int, error)
	InsertCode(xl *xlog.Logger, code *model.SMSCodeDo) error
	RemoveCode(xl *xlog.Logger, id string) error
	FindCodeSince(xl *xlog.Logger, phone string, code string, since time.Time) (*model.SMSCodeDo, error)
}

type ActionStore interface {
	SaveAction(xl *xlog.Logger, record *model.ActionRecordDo) error
}

// Store bundles the record stores the service is built on.
type Store struct {
	Candidates  CandidateStore
	Preferences PreferenceStore
	Settings    SettingStore
	Slots       SlotStore
	Attachments AttachmentStore
	Catalog     CatalogStore
	Accounts    AccountStore
	SMSCodes    SMSCodeStore
	Actions     ActionStore
}

// FromMemory exposes one Memory instance through every store interface.
func FromMemory(m *Memory) *Store {
	return &Store{
		Candidates:  m,
		Preferences: m,
		Settings:    m,
		Slots:       m,
		Attachments: m,
		Catalog:     m,
		Accounts:    m,
		SMSCodes:    m,
		Actions:     m,
	}
}

// MatchCandidate evaluates query against a candidate; zero-valued query fields match everything.
func MatchCandidate(c *model.CandidateDo, q model.CandidateQuery) bool {
	if q.AdministrationID != "" && c.AdministrationID != q.AdministrationID {
		return false
	}
	if q.ChosenInterviewTimeSlotID != "" && c.ChosenInterviewTimeSlotID != q.ChosenInterviewTimeSlotID {
		return false
	}
	if q.HasUser && c.UserID == "" {
		return false
	}
	if q.JobTermsAccepted != nil && (c.JobTermsAccepted == nil || *c.JobTermsAccepted != *q.JobTermsAccepted) {
		return false
	}
	if q.JobOfferAccepted != nil && (c.JobOfferAccepted == nil || *c.JobOfferAccepted != *q.JobOfferAccepted) {
		return false
	}
	if q.InformationSubmitted && c.SubmittedInformationAt == nil {
		return false
	}
	if q.AttachmentsSubmitted && c.SubmittedAttachmentsAt == nil {
		return false
	}
	if q.SectorPreferencesSubmitted && c.SubmittedSectorPreferencesAt == nil {
		return false
	}
	return true
}
