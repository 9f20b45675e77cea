package workflow

import (
	"time"

	"github.com/joalafu15/Backend/internal/common/utils"
	"github.com/joalafu15/Backend/internal/service/store"

	"github.com/qiniu/x/xlog"
)

// Dependencies 外部服务。Messenger 与 IM 可以为空。
type Dependencies struct {
	SmsCode   SmsCode
	Messenger Messenger
	Storage   FileStorage
	IM        IMRegistrar
}

// Services 招聘流程的全部服务，共享同一个 store。
type Services struct {
	Gate         *PhaseGate
	Ranker       *Ranker
	Lifecycle    *Lifecycle
	Allocator    *Allocator
	Attachments  *AttachmentService
	Outcomes     *OutcomeService
	Settings     *SettingService
	Registration *Registration
}

func NewServices(s *store.Store, deps Dependencies, conf *utils.Config, xl *xlog.Logger) *Services {
	if xl == nil {
		xl = xlog.New("hiring-workflow")
	}
	gate := NewPhaseGate(s.Candidates, s.Settings, xl)
	ranker := NewRanker(s.Preferences, xl)
	lifecycle := NewLifecycle(s, gate, ranker, xl)
	attachments := NewAttachmentService(s, gate, deps.Storage, conf.Upload.MaxFileSizeMB, xl)
	// 所有修改候选人记录的服务共用一把按候选人ID划分的锁。
	outcomes := NewOutcomeService(s.Candidates, attachments, xl)
	outcomes.locks = lifecycle.locks
	registration := NewRegistration(s, gate, deps.SmsCode, deps.IM, conf.JwtKey, time.Duration(conf.TokenExpireHours)*time.Hour, xl)
	registration.locks = lifecycle.locks
	return &Services{
		Gate:         gate,
		Ranker:       ranker,
		Lifecycle:    lifecycle,
		Allocator:    NewAllocator(s, lifecycle, gate, deps.Messenger, conf.Slots.Overbooking, xl),
		Attachments:  attachments,
		Outcomes:     outcomes,
		Settings:     NewSettingService(s.Settings, xl),
		Registration: registration,
	}
}
