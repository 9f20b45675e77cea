package model

import "time"

type AttachmentType string

const (
	AttachmentNationalIDCard     AttachmentType = "national-id-card"
	AttachmentDegreeCertificate  AttachmentType = "degree-certificate"
	AttachmentQiyasScore         AttachmentType = "qiyas-score"
	AttachmentContract           AttachmentType = "contract"
	AttachmentMedicalExamination AttachmentType = "medical-examination"
)

// RequiredAttachmentTypes 提交附件前必须上传的类型，同时受 lockPhase1 限制。
var RequiredAttachmentTypes = []AttachmentType{
	AttachmentNationalIDCard,
	AttachmentDegreeCertificate,
	AttachmentQiyasScore,
}

func (t AttachmentType) Valid() bool {
	switch t {
	case AttachmentNationalIDCard, AttachmentDegreeCertificate, AttachmentQiyasScore,
		AttachmentContract, AttachmentMedicalExamination:
		return true
	}
	return false
}

func (t AttachmentType) PhaseOne() bool {
	for _, r := range RequiredAttachmentTypes {
		if r == t {
			return true
		}
	}
	return false
}

// AttachmentDo 候选人上传的文件，每个候选人每种类型只保留一份。
type AttachmentDo struct {
	ID          string         `json:"id" bson:"_id"`
	CandidateID string         `json:"candidateId" bson:"candidateId"`
	Type        AttachmentType `json:"type" bson:"type"`
	FileName    string         `json:"fileName" bson:"fileName"`
	MimeType    string         `json:"mimeType" bson:"mimeType"`
	Size        int64          `json:"size" bson:"size"`
	// StorageKey 文件在存储服务中的key。
	StorageKey string    `json:"-" bson:"storageKey"`
	URL        string    `json:"url" bson:"url"`
	UploadedAt time.Time `json:"uploadedAt" bson:"uploadedAt"`
}
