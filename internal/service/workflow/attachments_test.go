package workflow

import (
	"bytes"
	"strings"
	"testing"

	errors2 "github.com/joalafu15/Backend/internal/protodef/errors"
	"github.com/joalafu15/Backend/internal/protodef/model"
)

func pdf(name string) FileUpload {
	return FileUpload{FileName: name, MimeType: "application/pdf", Size: 4, Body: bytes.NewBufferString("%PDF")}
}

func TestUploadReplacesPreviousFile(t *testing.T) {
	env := newTestEnv(t, "")
	env.addCandidate(t, "c1", nil)
	a := env.svc.Attachments

	first, err := a.Upload(nil, "c1", model.AttachmentNationalIDCard, pdf("id.PDF"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(first.StorageKey, "attachments/c1/national-id-card-") || !strings.HasSuffix(first.StorageKey, ".pdf") {
		t.Errorf("storage key = %s", first.StorageKey)
	}
	second, err := a.Upload(nil, "c1", model.AttachmentNationalIDCard, pdf("id-new.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Errorf("attachment id changed: %s -> %s", first.ID, second.ID)
	}
	if env.storage.count() != 1 {
		t.Errorf("stored files = %d, want 1", env.storage.count())
	}
	list, err := a.List(nil, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].FileName != "id-new.pdf" {
		t.Errorf("attachments = %+v", list)
	}
}

func TestUploadValidation(t *testing.T) {
	env := newTestEnv(t, "")
	env.addCandidate(t, "c1", nil)
	a := env.svc.Attachments

	cases := []struct {
		name   string
		typ    model.AttachmentType
		upload FileUpload
		want   errors2.Kind
	}{
		{"unknown type", "selfie", pdf("a.pdf"), errors2.KindValidation},
		{"empty file", model.AttachmentQiyasScore, FileUpload{FileName: "a.pdf", MimeType: "application/pdf"}, errors2.KindValidation},
		{"too large", model.AttachmentQiyasScore, FileUpload{FileName: "a.pdf", MimeType: "application/pdf", Size: 11 << 20}, errors2.KindValidation},
		{"zip as document", model.AttachmentQiyasScore, FileUpload{FileName: "a.zip", MimeType: "application/zip", Size: 4}, errors2.KindValidation},
		{"unknown candidate", model.AttachmentQiyasScore, pdf("a.pdf"), errors2.KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id := "c1"
			if tc.want == errors2.KindNotFound {
				id = "missing"
			}
			_, err := a.Upload(nil, id, tc.typ, tc.upload)
			assertKind(t, err, tc.want)
		})
	}

	zip := FileUpload{FileName: "contract.zip", MimeType: "application/zip", Size: 4, Body: bytes.NewBufferString("PK..")}
	if _, err := a.Upload(nil, "c1", model.AttachmentContract, zip); err != nil {
		t.Errorf("zip contract rejected: %v", err)
	}
}

func TestUploadAfterSubmissionConflicts(t *testing.T) {
	env := newTestEnv(t, "")
	env.addCandidate(t, "c1", func(c *model.CandidateDo) { c.SubmittedAttachmentsAt = stamp() })
	_, err := env.svc.Attachments.Upload(nil, "c1", model.AttachmentDegreeCertificate, pdf("d.pdf"))
	assertKind(t, err, errors2.KindConflict)

	if _, err := env.svc.Attachments.Upload(nil, "c1", model.AttachmentMedicalExamination, pdf("m.pdf")); err != nil {
		t.Errorf("medical examination is not a phase one document: %v", err)
	}
}

func TestContractOutcome(t *testing.T) {
	env := newTestEnv(t, "")
	env.addCandidate(t, "c1", nil)
	o := env.svc.Outcomes

	_, err := o.Set(nil, "c1", OutcomeContractValidated, true)
	assertKind(t, err, errors2.KindValidation)

	if _, err := env.svc.Attachments.Upload(nil, "c1", model.AttachmentContract, pdf("contract.pdf")); err != nil {
		t.Fatal(err)
	}
	c, err := o.Set(nil, "c1", OutcomeContractValidated, true)
	if err != nil {
		t.Fatal(err)
	}
	if c.ContractValidated == nil || !*c.ContractValidated {
		t.Errorf("contract validated = %v", c.ContractValidated)
	}

	c, err = o.Set(nil, "c1", OutcomeContractValidated, false)
	if err != nil {
		t.Fatal(err)
	}
	if *c.ContractValidated {
		t.Error("contract should be rejected")
	}
	_, err = env.svc.Attachments.Get(nil, "c1", model.AttachmentContract)
	assertKind(t, err, errors2.KindNotFound)
	if env.storage.count() != 0 {
		t.Errorf("rejected contract file still stored")
	}
}

func TestPassedInterviewImpliesConducted(t *testing.T) {
	env := newTestEnv(t, "")
	env.addCandidate(t, "c1", nil)
	c, err := env.svc.Outcomes.Set(nil, "c1", OutcomePassedInterview, false)
	if err != nil {
		t.Fatal(err)
	}
	if c.ConductedInterview == nil || !*c.ConductedInterview || *c.PassedInterview {
		t.Errorf("conducted %v passed %v", c.ConductedInterview, c.PassedInterview)
	}
	_, err = env.svc.Outcomes.Set(nil, "c1", "hired", true)
	assertKind(t, err, errors2.KindValidation)
	if !OutcomeConductedInterview.InterviewOutcome() || OutcomeFilesMatched.InterviewOutcome() {
		t.Error("interview outcomes misclassified")
	}
}

func TestOnboardingInstructions(t *testing.T) {
	env := newTestEnv(t, "")
	env.addCandidate(t, "c1", func(c *model.CandidateDo) {
		c.FullName = "Sara"
		c.ContractValidated = boolPtr(true)
		c.QualifiedSectorID = "5"
		c.QualifiedSchoolID = "sch1"
	})
	env.addCandidate(t, "c2", nil)
	l := env.svc.Lifecycle

	_, err := l.OnboardingInstructions(nil, "c1")
	assertKind(t, err, errors2.KindNotFound)

	template := "Welcome {{candidateName}}, {{jobTitle}} at {{schoolName}} ({{sectorName}}). Contact {{schoolManagerName}} {{schoolManagerPhoneNumber}}."
	if _, err := env.svc.Settings.Put(nil, model.SettingOnboardingInstructions, false, template); err != nil {
		t.Fatal(err)
	}
	_, err = l.OnboardingInstructions(nil, "c1")
	assertKind(t, err, errors2.KindValidation)

	if _, err := env.svc.Settings.Put(nil, model.SettingOnboardingInstructions, true, template); err != nil {
		t.Fatal(err)
	}
	resp, err := l.OnboardingInstructions(nil, "c1")
	if err != nil {
		t.Fatal(err)
	}
	want := "Welcome Sara, Teacher at School One (Sector 5). Contact Noura 0551112222."
	if resp.Value != want {
		t.Errorf("instructions = %q, want %q", resp.Value, want)
	}

	_, err = l.OnboardingInstructions(nil, "c2")
	assertKind(t, err, errors2.KindValidation)
}

func TestReport(t *testing.T) {
	env := newTestEnv(t, "")
	env.addCandidate(t, "done", func(c *model.CandidateDo) {
		c.UserID = "u1"
		phaseOneDone(c)
	})
	env.addCandidate(t, "started", func(c *model.CandidateDo) {
		c.UserID = "u2"
		c.JobTermsAccepted = boolPtr(true)
		c.SubmittedInformationAt = stamp()
	})
	env.addCandidate(t, "idle", nil)
	env.addCandidate(t, "elsewhere", func(c *model.CandidateDo) {
		c.UserID = "u3"
		c.AdministrationID = "adm2"
	})

	report, err := env.svc.Lifecycle.Report(nil, "adm1")
	if err != nil {
		t.Fatal(err)
	}
	want := model.CandidateReport{
		TotalRegistered:                 2,
		TotalTermsAccepted:              2,
		TotalOfferAccepted:              1,
		TotalCompletedInformation:       1,
		TotalCompletedSectorPreferences: 1,
	}
	if *report != want {
		t.Errorf("report = %+v, want %+v", *report, want)
	}

	all, err := env.svc.Lifecycle.Report(nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if all.TotalRegistered != 3 {
		t.Errorf("registered across administrations = %d, want 3", all.TotalRegistered)
	}
}

func TestSettings(t *testing.T) {
	env := newTestEnv(t, "")
	s := env.svc.Settings

	_, err := s.Get(nil, string(model.LockPhase1))
	assertKind(t, err, errors2.KindNotFound)
	_, err = s.Put(nil, "lockPhase9", true, "")
	assertKind(t, err, errors2.KindValidation)

	if _, err := s.Put(nil, string(model.LockPhase2), true, "A; B"); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(nil, string(model.LockPhase2))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Active || got.Value != "A; B" || !got.UpdatedAt.Equal(testNow) {
		t.Errorf("setting = %+v", got)
	}

	env.addCandidate(t, "b", func(c *model.CandidateDo) { c.Group = "B" })
	locked, err := env.svc.Gate.IsLocked(nil, "b", model.LockPhase2)
	if err != nil {
		t.Fatal(err)
	}
	if !locked {
		t.Error("group B should be locked")
	}
}
