package workflow

import (
	"time"

	errors2 "github.com/joalafu15/Backend/internal/protodef/errors"
	"github.com/joalafu15/Backend/internal/protodef/model"
	"github.com/joalafu15/Backend/internal/service/store"

	"github.com/qiniu/x/xlog"
)

// SettingService 阶段锁与其他全局设置的管理。
type SettingService struct {
	settings store.SettingStore
	now      func() time.Time
	xl       *xlog.Logger
}

func NewSettingService(settings store.SettingStore, xl *xlog.Logger) *SettingService {
	if xl == nil {
		xl = xlog.New("hiring-setting")
	}
	return &SettingService{settings: settings, now: time.Now, xl: xl}
}

func knownSetting(name string) bool {
	if name == model.SettingOnboardingInstructions {
		return true
	}
	for _, lock := range model.PhaseLocks {
		if string(lock) == name {
			return true
		}
	}
	return false
}

func (s *SettingService) Get(xl *xlog.Logger, name string) (*model.SettingDo, error) {
	if xl == nil {
		xl = s.xl
	}
	if !knownSetting(name) {
		return nil, errors2.NewNotFound("unknown setting " + name)
	}
	setting, err := s.settings.GetSetting(xl, name)
	if err != nil {
		return nil, notFound("setting "+name, err)
	}
	return setting, nil
}

func (s *SettingService) Put(xl *xlog.Logger, name string, active bool, value string) (*model.SettingDo, error) {
	if xl == nil {
		xl = s.xl
	}
	if !knownSetting(name) {
		return nil, errors2.NewValidation("unknown setting " + name)
	}
	setting := &model.SettingDo{
		Name:      name,
		Active:    active,
		Value:     value,
		UpdatedAt: s.now(),
	}
	if err := s.settings.PutSetting(xl, setting); err != nil {
		return nil, err
	}
	xl.Infof("setting %s updated, active %v", name, active)
	return setting, nil
}
