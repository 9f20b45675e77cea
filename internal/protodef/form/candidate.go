package form

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joalafu15/Backend/internal/protodef/model"
)

var (
	RegNationalID = regexp.MustCompile(`^[0-9]{10}$`)
	RegPhone      = regexp.MustCompile(`^(05|\+9665|9665)[0-9]{8}$`)

	ErrDuplicateChoice = fmt.Errorf("choices must not repeat")
	ErrGPAOverMax      = fmt.Errorf("gpa must not exceed gpaMax")
)

const (
	ErrNationalIDMsg = "national id must be 10 digits"
	ErrPhoneMsg      = "phone number is not valid"
)

// CandidateCreateForm 管理员单独创建候选人。
type CandidateCreateForm struct {
	NationalIDNumber string `json:"nationalIdNumber"`
	FullName         string `json:"fullName"`
	PhoneNumber      string `json:"phoneNumber"`
	Email            string `json:"email"`
	Group            string `json:"group"`
	JobPositionID    string `json:"jobPositionId"`
	AdministrationID string `json:"administrationId"`
}

func (f *CandidateCreateForm) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.NationalIDNumber, validation.Required, validation.Match(RegNationalID).Error(ErrNationalIDMsg)),
		validation.Field(&f.FullName, validation.Required, validation.Length(0, 200)),
		validation.Field(&f.PhoneNumber, validation.Required, validation.Match(RegPhone).Error(ErrPhoneMsg)),
		validation.Field(&f.Email, is.EmailFormat),
		validation.Field(&f.JobPositionID, validation.Required),
	)
}

func (f *CandidateCreateForm) ToModel() *model.CandidateDo {
	return &model.CandidateDo{
		NationalIDNumber: strings.TrimSpace(f.NationalIDNumber),
		FullName:         strings.TrimSpace(f.FullName),
		PhoneNumber:      strings.TrimSpace(f.PhoneNumber),
		Email:            strings.TrimSpace(f.Email),
		Group:            strings.TrimSpace(f.Group),
		JobPositionID:    f.JobPositionID,
		AdministrationID: f.AdministrationID,
	}
}

// InformationForm 候选人在提交前可以修改的个人信息，为空的字段不做修改。
type InformationForm struct {
	FullName             string     `json:"fullName"`
	PhoneNumber          string     `json:"phoneNumber"`
	Email                string     `json:"email"`
	Specialization       string     `json:"specialization"`
	GraduationDate       *time.Time `json:"graduationDate"`
	QualificationClass   string     `json:"qualificationClass"`
	EducationalInstitute string     `json:"educationalInstitute"`
	GPA                  *float64   `json:"gpa"`
	GPAMax               *float64   `json:"gpaMax"`
	QiyasScore           *float64   `json:"qiyasScore"`
	QiyasSubjectScore    *float64   `json:"qiyasSubjectScore"`
	HasTakenQiyas        *bool      `json:"hasTakenQiyas"`
}

func (f *InformationForm) Validate() error {
	if f.GPA != nil && f.GPAMax != nil && *f.GPA > *f.GPAMax {
		return ErrGPAOverMax
	}
	return validation.ValidateStruct(f,
		validation.Field(&f.FullName, validation.Length(0, 200)),
		validation.Field(&f.PhoneNumber, validation.Match(RegPhone).Error(ErrPhoneMsg)),
		validation.Field(&f.Email, is.EmailFormat),
		validation.Field(&f.GPA, validation.Min(0.0)),
		validation.Field(&f.GPAMax, validation.Min(0.0)),
		validation.Field(&f.QiyasScore, validation.Min(0.0), validation.Max(100.0)),
		validation.Field(&f.QiyasSubjectScore, validation.Min(0.0), validation.Max(100.0)),
	)
}

// Apply copies the provided fields onto the candidate.
func (f *InformationForm) Apply(c *model.CandidateDo) {
	if f.FullName != "" {
		c.FullName = strings.TrimSpace(f.FullName)
	}
	if f.PhoneNumber != "" {
		c.PhoneNumber = strings.TrimSpace(f.PhoneNumber)
	}
	if f.Email != "" {
		c.Email = strings.TrimSpace(f.Email)
	}
	if f.Specialization != "" {
		c.Specialization = f.Specialization
	}
	if f.GraduationDate != nil {
		c.GraduationDate = f.GraduationDate
	}
	if f.QualificationClass != "" {
		c.QualificationClass = f.QualificationClass
	}
	if f.EducationalInstitute != "" {
		c.EducationalInstitute = f.EducationalInstitute
	}
	if f.GPA != nil {
		c.GPA = f.GPA
	}
	if f.GPAMax != nil {
		c.GPAMax = f.GPAMax
	}
	if f.QiyasScore != nil {
		c.QiyasScore = f.QiyasScore
	}
	if f.QiyasSubjectScore != nil {
		c.QiyasSubjectScore = f.QiyasSubjectScore
	}
	if f.HasTakenQiyas != nil {
		c.HasTakenQiyas = f.HasTakenQiyas
	}
}

// AcceptForm 接受或拒绝条款、录用通知。
type AcceptForm struct {
	Accepted *bool `json:"accepted"`
}

func (f *AcceptForm) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Accepted, validation.NotNil),
	)
}

// ChoicesForm 按顺序排列的志愿，第一个为第一志愿。
type ChoicesForm struct {
	Choices []string `json:"choices"`
}

func (f *ChoicesForm) Validate() error {
	err := validation.ValidateStruct(f,
		validation.Field(&f.Choices,
			validation.Required,
			validation.Length(1, model.MaxPreferenceChoices),
			validation.Each(validation.Required),
		),
	)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(f.Choices))
	for _, choice := range f.Choices {
		if seen[choice] {
			return ErrDuplicateChoice
		}
		seen[choice] = true
	}
	return nil
}

// OutcomeForm 管理员录入的结果。
type OutcomeForm struct {
	Value *bool `json:"value"`
}

func (f *OutcomeForm) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Value, validation.NotNil),
	)
}
