package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/joalafu15/Backend/internal/protodef/model"
	"github.com/qiniu/x/xlog"
)

type attachmentKey struct {
	candidateID string
	kind        model.AttachmentType
}

// Memory keeps every record in process memory. It backs the "memory" store provider and the tests.
type Memory struct {
	mu sync.Mutex

	candidates      map[string]model.CandidateDo
	preferences     map[model.PreferenceKind]map[string]model.PreferenceDo
	settings        map[string]model.SettingDo
	slots           map[string]model.InterviewTimeSlotDo
	attachments     map[attachmentKey]model.AttachmentDo
	jobPositions    map[string]model.JobPositionDo
	sectors         map[string]model.SectorDo
	schools         map[string]model.SchoolDo
	administrations map[string]model.AdministrationDo
	accounts        map[string]model.AccountDo
	tokens          map[string]model.AccountTokenDo
	smsCodes        map[string]model.SMSCodeDo
	actions         []model.ActionRecordDo
}

func NewMemory() *Memory {
	return &Memory{
		candidates: map[string]model.CandidateDo{},
		preferences: map[model.PreferenceKind]map[string]model.PreferenceDo{
			model.PreferenceKindSector: {},
			model.PreferenceKindSchool: {},
		},
		settings:        map[string]model.SettingDo{},
		slots:           map[string]model.InterviewTimeSlotDo{},
		attachments:     map[attachmentKey]model.AttachmentDo{},
		jobPositions:    map[string]model.JobPositionDo{},
		sectors:         map[string]model.SectorDo{},
		schools:         map[string]model.SchoolDo{},
		administrations: map[string]model.AdministrationDo{},
		accounts:        map[string]model.AccountDo{},
		tokens:          map[string]model.AccountTokenDo{},
		smsCodes:        map[string]model.SMSCodeDo{},
	}
}

// candidates

func (m *Memory) GetCandidate(xl *xlog.Logger, id string) (*model.CandidateDo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.candidates[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *Memory) GetCandidateByNationalID(xl *xlog.Logger, nationalID string) (*model.CandidateDo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.candidates {
		if c.NationalIDNumber == nationalID {
			found := c
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) CreateCandidate(xl *xlog.Logger, candidate *model.CandidateDo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.candidates[candidate.ID]; ok {
		return ErrDuplicate
	}
	for _, c := range m.candidates {
		if candidate.NationalIDNumber != "" && c.NationalIDNumber == candidate.NationalIDNumber {
			return ErrDuplicate
		}
	}
	m.candidates[candidate.ID] = *candidate
	return nil
}

func (m *Memory) UpdateCandidate(xl *xlog.Logger, candidate *model.CandidateDo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.candidates[candidate.ID]; !ok {
		return ErrNotFound
	}
	m.candidates[candidate.ID] = *candidate
	return nil
}

func (m *Memory) StampCandidate(xl *xlog.Logger, candidate *model.CandidateDo, gate string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.candidates[candidate.ID]
	if !ok {
		return ErrNotFound
	}
	field := stored.Gates.Field(gate)
	if field == nil {
		return fmt.Errorf("unknown gate %s", gate)
	}
	if *field != nil {
		return ErrConflict
	}
	m.candidates[candidate.ID] = *candidate
	return nil
}

func (m *Memory) ListCandidates(xl *xlog.Logger, query model.CandidateQuery) ([]model.CandidateDo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]model.CandidateDo, 0)
	for _, c := range m.candidates {
		c := c
		if MatchCandidate(&c, query) {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) CountCandidates(xl *xlog.Logger, query model.CandidateQuery) (int, error) {
	list, err := m.ListCandidates(xl, query)
	return len(list), err
}

// preferences

func (m *Memory) ListPreferences(xl *xlog.Logger, kind model.PreferenceKind, candidateID string) ([]model.PreferenceDo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]model.PreferenceDo, 0)
	for _, p := range m.preferences[kind] {
		if p.CandidateID == candidateID {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Choice < result[j].Choice })
	return result, nil
}

func (m *Memory) CreatePreference(xl *xlog.Logger, preference *model.PreferenceDo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.preferences[preference.Kind][preference.ID]; ok {
		return ErrDuplicate
	}
	m.preferences[preference.Kind][preference.ID] = *preference
	return nil
}

func (m *Memory) UpdatePreference(xl *xlog.Logger, preference *model.PreferenceDo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.preferences[preference.Kind][preference.ID]; !ok {
		return ErrNotFound
	}
	m.preferences[preference.Kind][preference.ID] = *preference
	return nil
}

func (m *Memory) DeletePreferences(xl *xlog.Logger, kind model.PreferenceKind, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.preferences[kind], id)
	}
	return nil
}

// settings

func (m *Memory) GetSetting(xl *xlog.Logger, name string) (*model.SettingDo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settings[name]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *Memory) PutSetting(xl *xlog.Logger, setting *model.SettingDo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[setting.Name] = *setting
	return nil
}

// interview slots

func (m *Memory) GetSlot(xl *xlog.Logger, id string) (*model.InterviewTimeSlotDo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *Memory) CreateSlot(xl *xlog.Logger, slot *model.InterviewTimeSlotDo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.slots[slot.ID]; ok {
		return ErrDuplicate
	}
	m.slots[slot.ID] = *slot
	return nil
}

func (m *Memory) ListSlots(xl *xlog.Logger) ([]model.InterviewTimeSlotDo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]model.InterviewTimeSlotDo, 0, len(m.slots))
	for _, s := range m.slots {
		result = append(result, s)
	}
	sortSlots(result)
	return result, nil
}

func (m *Memory) ListOpenSlots(xl *xlog.Logger, administrationID string, now time.Time) ([]model.InterviewTimeSlotDo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]model.InterviewTimeSlotDo, 0)
	for _, s := range m.slots {
		if s.AdministrationID == administrationID && s.Open(now) {
			result = append(result, s)
		}
	}
	sortSlots(result)
	return result, nil
}

func (m *Memory) AddSlotCount(xl *xlog.Logger, id string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	if !ok {
		return ErrNotFound
	}
	s.CurrentCandidatesCount += delta
	m.slots[id] = s
	return nil
}

func (m *Memory) TryReserveSeat(xl *xlog.Logger, id string, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	if !ok {
		return false, ErrNotFound
	}
	if !s.Open(now) {
		return false, nil
	}
	s.CurrentCandidatesCount++
	m.slots[id] = s
	return true, nil
}

func sortSlots(slots []model.InterviewTimeSlotDo) {
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].StartDateTime.Equal(slots[j].StartDateTime) {
			return slots[i].ID < slots[j].ID
		}
		return slots[i].StartDateTime.Before(slots[j].StartDateTime)
	})
}

// attachments

func (m *Memory) GetAttachment(xl *xlog.Logger, candidateID string, attachmentType model.AttachmentType) (*model.AttachmentDo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attachments[attachmentKey{candidateID, attachmentType}]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (m *Memory) ListAttachments(xl *xlog.Logger, candidateID string) ([]model.AttachmentDo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]model.AttachmentDo, 0)
	for k, a := range m.attachments {
		if k.candidateID == candidateID {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Type < result[j].Type })
	return result, nil
}

func (m *Memory) PutAttachment(xl *xlog.Logger, attachment *model.AttachmentDo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attachments[attachmentKey{attachment.CandidateID, attachment.Type}] = *attachment
	return nil
}

func (m *Memory) DeleteAttachment(xl *xlog.Logger, candidateID string, attachmentType model.AttachmentType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := attachmentKey{candidateID, attachmentType}
	if _, ok := m.attachments[key]; !ok {
		return ErrNotFound
	}
	delete(m.attachments, key)
	return nil
}

// catalog

func (m *Memory) GetJobPosition(xl *xlog.Logger, id string) (*model.JobPositionDo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobPositions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &j, nil
}

func (m *Memory) CreateJobPosition(xl *xlog.Logger, jobPosition *model.JobPositionDo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobPositions[jobPosition.ID]; ok {
		return ErrDuplicate
	}
	m.jobPositions[jobPosition.ID] = *jobPosition
	return nil
}

func (m *Memory) GetSector(xl *xlog.Logger, id string) (*model.SectorDo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sectors[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *Memory) GetSchool(xl *xlog.Logger, id string) (*model.SchoolDo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schools[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *Memory) ListSectors(xl *xlog.Logger, jobPositionID string) ([]model.SectorDo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]model.SectorDo, 0)
	for _, s := range m.sectors {
		if s.OpenTo(jobPositionID) {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) ListSchools(xl *xlog.Logger, jobPositionID string, sectorID string) ([]model.SchoolDo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]model.SchoolDo, 0)
	for _, s := range m.schools {
		if s.SectorID == sectorID && s.OpenTo(jobPositionID) {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) GetAdministration(xl *xlog.Logger, id string) (*model.AdministrationDo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.administrations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

// PutSector, PutSchool and PutAdministration seed the catalog; the service has no write path for them.
func (m *Memory) PutSector(sector model.SectorDo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sectors[sector.ID] = sector
}

func (m *Memory) PutSchool(school model.SchoolDo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schools[school.ID] = school
}

func (m *Memory) PutAdministration(administration model.AdministrationDo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.administrations[administration.ID] = administration
}

// accounts

func (m *Memory) CreateAccount(xl *xlog.Logger, account *model.AccountDo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.ID == account.ID || a.Username == account.Username {
			return ErrDuplicate
		}
	}
	m.accounts[account.ID] = *account
	return nil
}

func (m *Memory) GetAccountByID(xl *xlog.Logger, id string) (*model.AccountDo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (m *Memory) GetAccountByUsername(xl *xlog.Logger, username string) (*model.AccountDo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Username == username {
			found := a
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) TouchLogin(xl *xlog.Logger, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return ErrNotFound
	}
	a.LastLoginTime = at
	m.accounts[id] = a
	return nil
}

func (m *Memory) UpdatePassword(xl *xlog.Logger, id string, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return ErrNotFound
	}
	a.PasswordHash = passwordHash
	m.accounts[id] = a
	return nil
}

func (m *Memory) PutToken(xl *xlog.Logger, token *model.AccountTokenDo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token.ID] = *token
	return nil
}

func (m *Memory) GetToken(xl *xlog.Logger, token string) (*model.AccountTokenDo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.Token == token {
			found := t
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) DeleteToken(xl *xlog.Logger, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, accountID)
	return nil
}

// sms codes

func (m *Memory) CountCodesSince(xl *xlog.Logger, phone string, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.smsCodes {
		if c.Phone == phone && c.SendTime.After(since) {
			n++
		}
	}
	return n, nil
}

func (m *Memory) InsertCode(xl *xlog.Logger, code *model.SMSCodeDo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.smsCodes[code.ID] = *code
	return nil
}

func (m *Memory) RemoveCode(xl *xlog.Logger, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.smsCodes, id)
	return nil
}

func (m *Memory) FindCodeSince(xl *xlog.Logger, phone string, code string, since time.Time) (*model.SMSCodeDo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.smsCodes {
		if c.Phone == phone && c.SMSCode == code && c.SendTime.After(since) {
			found := c
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

// actions

func (m *Memory) SaveAction(xl *xlog.Logger, record *model.ActionRecordDo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, *record)
	return nil
}

// Actions returns a copy of the recorded action log.
func (m *Memory) Actions() []model.ActionRecordDo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.ActionRecordDo(nil), m.actions...)
}
