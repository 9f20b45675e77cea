package workflow

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"sync"
	"testing"
	"time"

	"github.com/joalafu15/Backend/internal/common/utils"
	errors2 "github.com/joalafu15/Backend/internal/protodef/errors"
	"github.com/joalafu15/Backend/internal/protodef/model"
	"github.com/joalafu15/Backend/internal/service/store"

	"github.com/qiniu/x/xlog"
)

var testNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type memoryStorage struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{files: map[string][]byte{}}
}

func (s *memoryStorage) Save(xl *xlog.Logger, key string, body io.Reader, size int64, mimeType string) (string, error) {
	data, err := ioutil.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[key] = data
	return "https://files.test/" + key, nil
}

func (s *memoryStorage) Remove(xl *xlog.Logger, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, key)
	return nil
}

func (s *memoryStorage) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

type fakeSmsCode struct {
	mu      sync.Mutex
	code    string
	sent    map[string]int
	sendErr error
}

func (f *fakeSmsCode) Send(xl *xlog.Logger, phone string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[phone]++
	return nil
}

func (f *fakeSmsCode) Validate(xl *xlog.Logger, phone string, code string) error {
	if code != f.code {
		return fmt.Errorf("wrong code")
	}
	return nil
}

type recordingMessenger struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordingMessenger) SendMessage(xl *xlog.Logger, phone string, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, phone+": "+message)
	return nil
}

type testEnv struct {
	mem       *store.Memory
	store     *store.Store
	svc       *Services
	storage   *memoryStorage
	sms       *fakeSmsCode
	messenger *recordingMessenger
	seq       int
}

func newTestEnv(t *testing.T, overbooking string) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, store.NewMemory(), nil, overbooking)
}

// newTestEnvWithStore builds the services over mem; wrap may replace parts of the store.
func newTestEnvWithStore(t *testing.T, mem *store.Memory, wrap func(s *store.Store), overbooking string) *testEnv {
	t.Helper()
	s := store.FromMemory(mem)
	if wrap != nil {
		wrap(s)
	}
	conf := &utils.Config{JwtKey: "test-key"}
	conf.Slots.Overbooking = overbooking
	conf.FillDefault()
	env := &testEnv{
		mem:       mem,
		store:     s,
		storage:   newMemoryStorage(),
		sms:       &fakeSmsCode{code: "123456", sent: map[string]int{}},
		messenger: &recordingMessenger{},
	}
	env.svc = NewServices(s, Dependencies{
		SmsCode:   env.sms,
		Messenger: env.messenger,
		Storage:   env.storage,
	}, conf, xlog.New("workflow-test"))
	now := func() time.Time { return testNow }
	env.svc.Ranker.now = now
	env.svc.Lifecycle.now = now
	env.svc.Allocator.now = now
	env.svc.Attachments.now = now
	env.svc.Outcomes.now = now
	env.svc.Settings.now = now

	mem.PutAdministration(model.AdministrationDo{ID: "adm1", Name: "Riyadh"})
	_ = mem.CreateJobPosition(nil, &model.JobPositionDo{ID: "job1", Title: "Teacher", AdministrationID: "adm1"})
	for _, id := range []string{"2", "5", "9"} {
		mem.PutSector(model.SectorDo{ID: id, Name: "Sector " + id, AdministrationID: "adm1", JobPositionIDs: []string{"job1"}})
	}
	mem.PutSchool(model.SchoolDo{ID: "sch1", Name: "School One", SectorID: "5", SchoolManagerName: "Noura",
		SchoolManagerPhoneNumber: "0551112222", JobPositionIDs: []string{"job1"}})
	return env
}

func (e *testEnv) addCandidate(t *testing.T, id string, mutate func(c *model.CandidateDo)) *model.CandidateDo {
	t.Helper()
	e.seq++
	c := &model.CandidateDo{
		ID:               id,
		NationalIDNumber: fmt.Sprintf("10000000%02d", e.seq),
		FullName:         "Candidate " + id,
		PhoneNumber:      "0551234567",
		JobPositionID:    "job1",
		AdministrationID: "adm1",
	}
	if mutate != nil {
		mutate(c)
	}
	if err := e.mem.CreateCandidate(nil, c); err != nil {
		t.Fatalf("create candidate %s: %v", id, err)
	}
	return c
}

func (e *testEnv) candidate(t *testing.T, id string) *model.CandidateDo {
	t.Helper()
	c, err := e.mem.GetCandidate(nil, id)
	if err != nil {
		t.Fatalf("get candidate %s: %v", id, err)
	}
	return c
}

func (e *testEnv) setLock(lock model.PhaseLock, active bool, groups string) {
	_ = e.mem.PutSetting(nil, &model.SettingDo{Name: string(lock), Active: active, Value: groups})
}

func (e *testEnv) uploadRequired(t *testing.T, candidateID string) {
	t.Helper()
	for _, typ := range model.RequiredAttachmentTypes {
		_, err := e.svc.Attachments.Upload(nil, candidateID, typ, FileUpload{
			FileName: string(typ) + ".pdf",
			MimeType: "application/pdf",
			Size:     4,
			Body:     bytes.NewBufferString("%PDF"),
		})
		if err != nil {
			t.Fatalf("upload %s: %v", typ, err)
		}
	}
}

func stamp() *time.Time {
	at := testNow.Add(-time.Hour)
	return &at
}

func boolPtr(b bool) *bool {
	return &b
}

func phaseOneDone(c *model.CandidateDo) {
	c.JobTermsAccepted = boolPtr(true)
	c.AcceptedTermsAt = stamp()
	c.JobOfferAccepted = boolPtr(true)
	c.AcceptedOfferAt = stamp()
	c.SubmittedInformationAt = stamp()
	c.SubmittedAttachmentsAt = stamp()
	c.SubmittedSectorPreferencesAt = stamp()
	c.SubmittedPhaseOneAt = stamp()
}

func assertKind(t *testing.T, err error, want errors2.Kind) {
	t.Helper()
	if got := errors2.KindOf(err); got != want {
		t.Fatalf("error kind = %v (%v), want %v", got, err, want)
	}
}
