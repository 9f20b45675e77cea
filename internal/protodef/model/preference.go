package model

import "time"

type PreferenceKind string

const (
	PreferenceKindSector PreferenceKind = "sector"
	PreferenceKindSchool PreferenceKind = "school"

	// MaxPreferenceChoices 单个候选人可提交的最大志愿数。
	MaxPreferenceChoices = 10
)

// PreferenceDo 候选人的一条志愿，Choice 从1开始。
type PreferenceDo struct {
	ID          string         `json:"id" bson:"_id"`
	Kind        PreferenceKind `json:"kind" bson:"kind"`
	CandidateID string         `json:"candidateId" bson:"candidateId"`
	Choice      int            `json:"choice" bson:"choice"`
	// TargetID 志愿指向的 sector 或 school。
	TargetID  string    `json:"targetId" bson:"targetId"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}
