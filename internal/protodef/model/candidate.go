package model

import "time"

// Gates 候选人流程中的各个单向提交时间点。一旦写入就不再清空。
type Gates struct {
	JobTermsAccepted *bool      `json:"jobTermsAccepted" bson:"jobTermsAccepted"`
	AcceptedTermsAt  *time.Time `json:"acceptedTermsAt" bson:"acceptedTermsAt"`
	JobOfferAccepted *bool      `json:"jobOfferAccepted" bson:"jobOfferAccepted"`
	AcceptedOfferAt  *time.Time `json:"acceptedOfferAt" bson:"acceptedOfferAt"`

	SubmittedInformationAt       *time.Time `json:"submittedInformationAt" bson:"submittedInformationAt"`
	SubmittedAttachmentsAt       *time.Time `json:"submittedAttachmentsAt" bson:"submittedAttachmentsAt"`
	SubmittedSectorPreferencesAt *time.Time `json:"submittedSectorPreferencesAt" bson:"submittedSectorPreferencesAt"`
	SubmittedPhaseOneAt          *time.Time `json:"submittedPhaseOneAt" bson:"submittedPhaseOneAt"`
	SubmittedInterviewTimeSlotAt *time.Time `json:"submittedInterviewTimeSlotAt" bson:"submittedInterviewTimeSlotAt"`
	SubmittedPhaseTwoAt          *time.Time `json:"submittedPhaseTwoAt" bson:"submittedPhaseTwoAt"`
	SubmittedSchoolPreferencesAt *time.Time `json:"submittedSchoolPreferencesAt" bson:"submittedSchoolPreferencesAt"`
}

// 单向时间点的 bson 字段名。
const (
	GateAcceptedTerms              = "acceptedTermsAt"
	GateAcceptedOffer              = "acceptedOfferAt"
	GateSubmittedInformation       = "submittedInformationAt"
	GateSubmittedAttachments       = "submittedAttachmentsAt"
	GateSubmittedSectorPreferences = "submittedSectorPreferencesAt"
	GateSubmittedPhaseOne          = "submittedPhaseOneAt"
	GateSubmittedInterviewTimeSlot = "submittedInterviewTimeSlotAt"
	GateSubmittedPhaseTwo          = "submittedPhaseTwoAt"
	GateSubmittedSchoolPreferences = "submittedSchoolPreferencesAt"
)

// Field returns the timestamp stored under the gate name, or nil for an unknown name.
func (g *Gates) Field(gate string) **time.Time {
	switch gate {
	case GateAcceptedTerms:
		return &g.AcceptedTermsAt
	case GateAcceptedOffer:
		return &g.AcceptedOfferAt
	case GateSubmittedInformation:
		return &g.SubmittedInformationAt
	case GateSubmittedAttachments:
		return &g.SubmittedAttachmentsAt
	case GateSubmittedSectorPreferences:
		return &g.SubmittedSectorPreferencesAt
	case GateSubmittedPhaseOne:
		return &g.SubmittedPhaseOneAt
	case GateSubmittedInterviewTimeSlot:
		return &g.SubmittedInterviewTimeSlotAt
	case GateSubmittedPhaseTwo:
		return &g.SubmittedPhaseTwoAt
	case GateSubmittedSchoolPreferences:
		return &g.SubmittedSchoolPreferencesAt
	}
	return nil
}

// PhaseOneReady reports whether every phase-one step has been submitted.
func (g Gates) PhaseOneReady() bool {
	return g.AcceptedTermsAt != nil &&
		g.AcceptedOfferAt != nil &&
		g.SubmittedInformationAt != nil &&
		g.SubmittedAttachmentsAt != nil &&
		g.SubmittedSectorPreferencesAt != nil
}

// Outcomes 管理员录入的各项结果，每一项都带有自己的时间戳。
type Outcomes struct {
	FilesMatched               *bool      `json:"filesMatched" bson:"filesMatched"`
	FilesMatchedAt             *time.Time `json:"filesMatchedAt" bson:"filesMatchedAt"`
	ConductedInterview         *bool      `json:"conductedInterview" bson:"conductedInterview"`
	ConductedInterviewAt       *time.Time `json:"conductedInterviewAt" bson:"conductedInterviewAt"`
	PassedInterview            *bool      `json:"passedInterview" bson:"passedInterview"`
	PassedInterviewAt          *time.Time `json:"passedInterviewAt" bson:"passedInterviewAt"`
	ContractValidated          *bool      `json:"contractValidated" bson:"contractValidated"`
	ContractValidatedAt        *time.Time `json:"contractValidatedAt" bson:"contractValidatedAt"`
	MedicalExaminationPassed   *bool      `json:"medicalExaminationPassed" bson:"medicalExaminationPassed"`
	MedicalExaminationPassedAt *time.Time `json:"medicalExaminationPassedAt" bson:"medicalExaminationPassedAt"`
}

// CandidateDo 候选人信息。
type CandidateDo struct {
	ID               string `json:"id" bson:"_id"`
	NationalIDNumber string `json:"nationalIdNumber" bson:"nationalIdNumber"`
	FullName         string `json:"fullName" bson:"fullName"`
	PhoneNumber      string `json:"phoneNumber" bson:"phoneNumber"`
	Email            string `json:"email" bson:"email"`

	Specialization       string     `json:"specialization" bson:"specialization"`
	GraduationDate       *time.Time `json:"graduationDate,omitempty" bson:"graduationDate,omitempty"`
	QualificationClass   string     `json:"qualificationClass" bson:"qualificationClass"`
	EducationalInstitute string     `json:"educationalInstitute" bson:"educationalInstitute"`
	GPA                  *float64   `json:"gpa,omitempty" bson:"gpa,omitempty"`
	GPAMax               *float64   `json:"gpaMax,omitempty" bson:"gpaMax,omitempty"`
	QiyasScore           *float64   `json:"qiyasScore,omitempty" bson:"qiyasScore,omitempty"`
	QiyasSubjectScore    *float64   `json:"qiyasSubjectScore,omitempty" bson:"qiyasSubjectScore,omitempty"`
	HasTakenQiyas        *bool      `json:"hasTakenQiyas" bson:"hasTakenQiyas"`

	// Group 候选人分组，为空时表示不属于任何分组。
	Group string `json:"group" bson:"group"`

	JobPositionID             string     `json:"jobPositionId" bson:"jobPositionId"`
	AdministrationID          string     `json:"administrationId" bson:"administrationId"`
	UserID                    string     `json:"userId" bson:"userId"`
	ChosenInterviewTimeSlotID string     `json:"chosenInterviewTimeSlotId" bson:"chosenInterviewTimeSlotId"`
	QualifiedSectorID         string     `json:"qualifiedSectorId" bson:"qualifiedSectorId"`
	QualifiedSchoolID         string     `json:"qualifiedSchoolId" bson:"qualifiedSchoolId"`
	QualifiedAt               *time.Time `json:"qualifiedAt,omitempty" bson:"qualifiedAt,omitempty"`

	Gates    `bson:",inline"`
	Outcomes `bson:",inline"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// CandidateProperties 供前端使用的“能否操作”标记。
type CandidateProperties struct {
	CanAcceptTerms     bool `json:"canAcceptTerms"`
	CanAcceptOffer     bool `json:"canAcceptOffer"`
	CanEditInformation bool `json:"canEditInformation"`
	CanUploadDocument  bool `json:"canUploadDocument"`
	// 以下阶段尚未开放，始终为false。
	CanSelectRegion  bool `json:"canSelectRegion"`
	CanBookInterview bool `json:"canBookInterview"`
	CanSelectSchool  bool `json:"canSelectSchool"`
}

// CandidateView 候选人详情及其派生属性。
type CandidateView struct {
	CandidateDo
	CandidateProperties
}

// CandidateQuery 候选人计数与筛选条件，零值字段不参与筛选。
type CandidateQuery struct {
	AdministrationID           string
	ChosenInterviewTimeSlotID  string
	HasUser                    bool
	JobTermsAccepted           *bool
	JobOfferAccepted           *bool
	InformationSubmitted       bool
	AttachmentsSubmitted       bool
	SectorPreferencesSubmitted bool
}

// CandidateReport 候选人进度统计。
type CandidateReport struct {
	TotalRegistered                 int `json:"totalRegistered"`
	TotalTermsAccepted              int `json:"totalTermsAccepted"`
	TotalOfferAccepted              int `json:"totalOfferAccepted"`
	TotalCompletedInformation       int `json:"totalCompletedInformation"`
	TotalCompletedSectorPreferences int `json:"totalCompletedSectorPreferences"`
}
