package model

import "time"

type PhaseLock string

const (
	LockPhase1 PhaseLock = "lockPhase1"
	LockPhase2 PhaseLock = "lockPhase2"
	LockPhase3 PhaseLock = "lockPhase3"

	SettingOnboardingInstructions = "onboardingInstructions"

	// SettingGroupSeparator separates the candidate groups a lock applies to.
	SettingGroupSeparator = ";"
)

var PhaseLocks = []PhaseLock{LockPhase1, LockPhase2, LockPhase3}

// SettingDo 全局开关。对于阶段锁，Value 为分号分隔的候选人分组列表。
type SettingDo struct {
	Name      string    `json:"name" bson:"_id"`
	Active    bool      `json:"active" bson:"active"`
	Value     string    `json:"value" bson:"value"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// CandidateSettings 针对某个候选人计算后的阶段锁状态。
type CandidateSettings struct {
	LockPhase1 bool `json:"lockPhase1"`
	LockPhase2 bool `json:"lockPhase2"`
	LockPhase3 bool `json:"lockPhase3"`
}
