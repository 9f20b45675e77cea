package workflow

import (
	"bytes"
	"reflect"
	"testing"
	"time"

	errors2 "github.com/joalafu15/Backend/internal/protodef/errors"
	"github.com/joalafu15/Backend/internal/protodef/form"
	"github.com/joalafu15/Backend/internal/protodef/model"
)

func TestRepeatedSubmissionConflicts(t *testing.T) {
	env := newTestEnv(t, "")
	env.addCandidate(t, "c1", nil)
	l := env.svc.Lifecycle

	env.uploadRequired(t, "c1")
	if _, err := env.svc.Ranker.SetPreferences(nil, model.PreferenceKindSector, "c1", []string{"5"}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.svc.Ranker.SetPreferences(nil, model.PreferenceKindSchool, "c1", []string{"sch1"}); err != nil {
		t.Fatal(err)
	}

	steps := []struct {
		name   string
		submit func() (*model.CandidateDo, error)
		before func()
	}{
		{name: "terms", submit: func() (*model.CandidateDo, error) { return l.AcceptTerms(nil, "c1", true) }},
		{name: "offer", submit: func() (*model.CandidateDo, error) { return l.AcceptOffer(nil, "c1", true) }},
		{name: "information", submit: func() (*model.CandidateDo, error) { return l.SubmitInformation(nil, "c1") }},
		{name: "attachments", submit: func() (*model.CandidateDo, error) { return l.SubmitAttachments(nil, "c1") }},
		{name: "sector preferences", submit: func() (*model.CandidateDo, error) { return l.SubmitSectorPreferences(nil, "c1") }},
		{name: "phase one", submit: func() (*model.CandidateDo, error) { return l.SubmitPhaseOne(nil, "c1") }},
		{
			name:   "phase two",
			submit: func() (*model.CandidateDo, error) { return l.SubmitPhaseTwo(nil, "c1") },
			before: func() {
				c := env.candidate(t, "c1")
				c.ChosenInterviewTimeSlotID = "slot1"
				c.SubmittedInterviewTimeSlotAt = stamp()
				_ = env.mem.UpdateCandidate(nil, c)
			},
		},
		{name: "school preferences", submit: func() (*model.CandidateDo, error) { return l.SubmitSchoolPreferences(nil, "c1") }},
	}
	for _, s := range steps {
		if s.before != nil {
			s.before()
		}
		first, err := s.submit()
		if err != nil {
			t.Fatalf("%s: first submission failed: %v", s.name, err)
		}
		if _, err := s.submit(); !errors2.Is(err, errors2.KindConflict) {
			t.Fatalf("%s: repeated submission err = %v, want conflict", s.name, err)
		}
		if stored := env.candidate(t, "c1"); !reflect.DeepEqual(stored.Gates, first.Gates) {
			t.Fatalf("%s: repeated submission modified the candidate", s.name)
		}
	}
}

func TestTransitionsRespectPhaseLock(t *testing.T) {
	env := newTestEnv(t, "")
	env.addCandidate(t, "locked", nil)
	env.addCandidate(t, "exempt", func(c *model.CandidateDo) { c.Group = "B" })
	env.setLock(model.LockPhase1, true, "A")

	_, err := env.svc.Lifecycle.AcceptTerms(nil, "locked", true)
	assertKind(t, err, errors2.KindForbidden)
	if c := env.candidate(t, "locked"); c.AcceptedTermsAt != nil {
		t.Error("locked transition must not write")
	}
	if _, err := env.svc.Lifecycle.AcceptTerms(nil, "exempt", true); err != nil {
		t.Errorf("exempt group: %v", err)
	}
	_, err = env.svc.Lifecycle.AcceptTerms(nil, "missing", true)
	assertKind(t, err, errors2.KindNotFound)
}

func TestAcceptOfferRequiresAcceptedTerms(t *testing.T) {
	env := newTestEnv(t, "")
	env.addCandidate(t, "c1", nil)
	_, err := env.svc.Lifecycle.AcceptOffer(nil, "c1", true)
	assertKind(t, err, errors2.KindValidation)

	if _, err := env.svc.Lifecycle.AcceptTerms(nil, "c1", false); err != nil {
		t.Fatal(err)
	}
	_, err = env.svc.Lifecycle.AcceptOffer(nil, "c1", true)
	assertKind(t, err, errors2.KindValidation)

	c := env.candidate(t, "c1")
	if c.JobTermsAccepted == nil || *c.JobTermsAccepted || c.AcceptedTermsAt == nil {
		t.Errorf("declined terms not recorded: %+v", c.Gates)
	}
}

func TestSubmitInformationRequiresIdentity(t *testing.T) {
	env := newTestEnv(t, "")
	env.addCandidate(t, "c1", func(c *model.CandidateDo) { c.PhoneNumber = "" })
	_, err := env.svc.Lifecycle.SubmitInformation(nil, "c1")
	assertKind(t, err, errors2.KindValidation)
}

func TestSubmitAttachmentsRequiresEveryType(t *testing.T) {
	env := newTestEnv(t, "")
	env.addCandidate(t, "c1", nil)
	_, err := env.svc.Attachments.Upload(nil, "c1", model.AttachmentNationalIDCard, FileUpload{
		FileName: "id.png", MimeType: "image/png", Size: 3, Body: bytes.NewBufferString("png"),
	})
	if err != nil {
		t.Fatal(err)
	}
	_, err = env.svc.Lifecycle.SubmitAttachments(nil, "c1")
	assertKind(t, err, errors2.KindValidation)
}

func TestSubmitSectorPreferencesRequiresOne(t *testing.T) {
	env := newTestEnv(t, "")
	env.addCandidate(t, "c1", nil)
	_, err := env.svc.Lifecycle.SubmitSectorPreferences(nil, "c1")
	assertKind(t, err, errors2.KindValidation)
}

func TestSubmitPhaseOneNeedsAllPrerequisites(t *testing.T) {
	missing := []struct {
		name  string
		unset func(c *model.CandidateDo)
	}{
		{"terms", func(c *model.CandidateDo) { c.AcceptedTermsAt = nil }},
		{"offer", func(c *model.CandidateDo) { c.AcceptedOfferAt = nil }},
		{"information", func(c *model.CandidateDo) { c.SubmittedInformationAt = nil }},
		{"attachments", func(c *model.CandidateDo) { c.SubmittedAttachmentsAt = nil }},
		{"sector preferences", func(c *model.CandidateDo) { c.SubmittedSectorPreferencesAt = nil }},
	}
	for _, tc := range missing {
		env := newTestEnv(t, "")
		env.addCandidate(t, "c1", func(c *model.CandidateDo) {
			phaseOneDone(c)
			c.SubmittedPhaseOneAt = nil
			tc.unset(c)
		})
		_, err := env.svc.Lifecycle.SubmitPhaseOne(nil, "c1")
		if !errors2.Is(err, errors2.KindValidation) {
			t.Errorf("missing %s: err = %v, want validation failure", tc.name, err)
		}
	}

	env := newTestEnv(t, "")
	env.addCandidate(t, "c1", func(c *model.CandidateDo) {
		phaseOneDone(c)
		c.SubmittedPhaseOneAt = nil
	})
	c, err := env.svc.Lifecycle.SubmitPhaseOne(nil, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if c.SubmittedPhaseOneAt == nil || !c.SubmittedPhaseOneAt.Equal(testNow) {
		t.Errorf("submittedPhaseOneAt = %v", c.SubmittedPhaseOneAt)
	}
}

func TestSubmitPhaseTwoNeedsSlot(t *testing.T) {
	env := newTestEnv(t, "")
	env.addCandidate(t, "c1", phaseOneDone)
	_, err := env.svc.Lifecycle.SubmitPhaseTwo(nil, "c1")
	assertKind(t, err, errors2.KindValidation)

	env.setLock(model.LockPhase2, true, "")
	_, err = env.svc.Lifecycle.SubmitPhaseTwo(nil, "c1")
	assertKind(t, err, errors2.KindForbidden)
}

func TestUpdateInformation(t *testing.T) {
	env := newTestEnv(t, "")
	env.addCandidate(t, "c1", nil)
	gpa := 4.5
	c, err := env.svc.Lifecycle.UpdateInformation(nil, "c1", &form.InformationForm{
		Email: "c1@example.com",
		GPA:   &gpa,
	})
	if err != nil {
		t.Fatal(err)
	}
	if c.Email != "c1@example.com" || c.GPA == nil || *c.GPA != gpa || c.FullName != "Candidate c1" {
		t.Errorf("unexpected candidate after update: %+v", c)
	}

	if _, err := env.svc.Lifecycle.SubmitInformation(nil, "c1"); err != nil {
		t.Fatal(err)
	}
	_, err = env.svc.Lifecycle.UpdateInformation(nil, "c1", &form.InformationForm{Email: "other@example.com"})
	assertKind(t, err, errors2.KindConflict)
}

func TestComputeProperties(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name string
		c    model.CandidateDo
		want model.CandidateProperties
	}{
		{
			name: "fresh candidate",
			c:    model.CandidateDo{},
			want: model.CandidateProperties{CanAcceptTerms: true, CanAcceptOffer: true, CanEditInformation: true, CanUploadDocument: true},
		},
		{
			name: "offer declined",
			c: model.CandidateDo{Gates: model.Gates{
				JobTermsAccepted: boolPtr(true),
				JobOfferAccepted: boolPtr(false),
			}},
			want: model.CandidateProperties{},
		},
		{
			name: "terms declined",
			c:    model.CandidateDo{Gates: model.Gates{JobTermsAccepted: boolPtr(false)}},
			want: model.CandidateProperties{},
		},
		{
			name: "no qiyas",
			c:    model.CandidateDo{HasTakenQiyas: boolPtr(false)},
			want: model.CandidateProperties{},
		},
		{
			name: "information submitted",
			c: model.CandidateDo{Gates: model.Gates{
				JobTermsAccepted:       boolPtr(true),
				AcceptedTermsAt:        &now,
				SubmittedInformationAt: &now,
			}},
			want: model.CandidateProperties{CanAcceptOffer: true, CanUploadDocument: true},
		},
	}
	for _, tc := range cases {
		if got := ComputeProperties(&tc.c); got != tc.want {
			t.Errorf("%s: got %+v, want %+v", tc.name, got, tc.want)
		}
	}
}

func TestGetCandidateIncludesProperties(t *testing.T) {
	env := newTestEnv(t, "")
	env.addCandidate(t, "c1", nil)
	view, err := env.svc.Lifecycle.GetCandidate(nil, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if view.ID != "c1" || !view.CanAcceptTerms {
		t.Errorf("view = %+v", view)
	}
}

func TestCreateCandidate(t *testing.T) {
	env := newTestEnv(t, "")
	c := &model.CandidateDo{NationalIDNumber: "1234567890", FullName: "New", JobPositionID: "job1"}
	if err := env.svc.Lifecycle.CreateCandidate(nil, c); err != nil {
		t.Fatal(err)
	}
	if c.ID == "" || c.AdministrationID != "adm1" {
		t.Errorf("candidate = %+v", c)
	}
	dup := &model.CandidateDo{NationalIDNumber: "1234567890", JobPositionID: "job1"}
	assertKind(t, env.svc.Lifecycle.CreateCandidate(nil, dup), errors2.KindConflict)
	bad := &model.CandidateDo{NationalIDNumber: "1234567891", JobPositionID: "nope"}
	assertKind(t, env.svc.Lifecycle.CreateCandidate(nil, bad), errors2.KindValidation)
}
