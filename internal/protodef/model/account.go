package model

import "time"

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleCandidate  Role = "candidate"
	RoleCommittee  Role = "committee"
	RoleOperations Role = "operations"
)

// AccountDo 用户账号信息。
type AccountDo struct {
	// 用户ID，作为数据库唯一标识。
	ID string `json:"id" bson:"_id"`
	// Username 候选人使用身份证号作为用户名。
	Username string `json:"username" bson:"username"`
	Email    string `json:"email" bson:"email"`
	// PasswordHash bcrypt 哈希。
	PasswordHash string `json:"-" bson:"passwordHash"`
	Role         Role   `json:"role" bson:"role"`
	// CandidateID 角色为 candidate 时关联的候选人。
	CandidateID string `json:"candidateId,omitempty" bson:"candidateId,omitempty"`
	// AdministrationID 角色为 committee 时所属的管理机构。
	AdministrationID string `json:"administrationId,omitempty" bson:"administrationId,omitempty"`
	// RegisterTime 用户注册时间。
	RegisterTime time.Time `json:"registerTime" bson:"registerTime"`
	// LastLoginTime 上次登录时间。
	LastLoginTime time.Time `json:"lastLoginTime" bson:"lastLoginTime"`
}

// AccountTokenDo 已登录用户的信息。
type AccountTokenDo struct {
	ID        string `json:"id" bson:"_id"`
	AccountId string `json:"accountId" bson:"accountId"`
	// Token 本次登录使用的token。
	Token    string    `json:"token" bson:"token"`
	ExpireAt time.Time `json:"expireAt" bson:"expireAt"`
}

// SMSCodeDo 已发送的短信验证码。
type SMSCodeDo struct {
	ID       string    `json:"id" bson:"_id"`
	Phone    string    `json:"phone" bson:"phone"`
	SMSCode  string    `json:"smsCode" bson:"smsCode"`
	SendTime time.Time `json:"sendTime" bson:"sendTime"`
	ExpireAt time.Time `json:"expireAt" bson:"expireAt"`
}

// ActionRecordDo 每次请求的操作流水。
type ActionRecordDo struct {
	Msg      string    `json:"msg" bson:"msg"`
	UserID   string    `json:"userId" bson:"userId"`
	Username string    `json:"username" bson:"username"`
	Time     time.Time `json:"time" bson:"time"`
	Method   string    `json:"method" bson:"method"`
	Subject  string    `json:"subject" bson:"subject"`
	Status   int       `json:"status" bson:"status"`
}

// IMUser IM 用户信息。
type IMUser struct {
	UserID           string    `json:"userId"`
	Token            string    `json:"token"`
	LastRegisterTime time.Time `json:"lastRegisterTime"`
}
