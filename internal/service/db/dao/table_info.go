package dao

const (
	// CollectionAccount 存储账号信息的表。
	CollectionAccount = "accounts"
	// CollectionAccountToken 存储已登录用户的表。
	CollectionAccountToken = "account_token"

	// CollectionSMSCode 存储已发送的短信验证码的表。
	CollectionSMSCode = "sms_code"

	// CollectionCandidate 候选人信息
	CollectionCandidate = "candidates"

	// CollectionSectorPreference 候选人志愿
	CollectionSectorPreference = "sector_preferences"
	CollectionSchoolPreference = "school_preferences"

	// CollectionSetting 阶段锁等全局开关
	CollectionSetting = "settings"

	CollectionInterviewTimeSlot = "interview_time_slots"

	CollectionAttachment = "candidate_attachments"

	// 基础数据
	CollectionJobPosition    = "job_positions"
	CollectionSector         = "sectors"
	CollectionSchool         = "schools"
	CollectionAdministration = "administrations"

	// ActionCollection 全局日志流水
	ActionCollection = "actions"
)
