package db

import (
	"time"

	"github.com/joalafu15/Backend/internal/protodef/model"
	"github.com/joalafu15/Backend/internal/service/db/dao"

	"github.com/qiniu/x/xlog"
	"gopkg.in/mgo.v2"
)

// SettingService 阶段锁等全局开关。
type SettingService struct {
	settingColl *mgo.Collection
	xl          *xlog.Logger
}

func NewSettingService(database *mgo.Database, xl *xlog.Logger) *SettingService {
	if xl == nil {
		xl = xlog.New("hiring-setting-db")
	}
	return &SettingService{
		settingColl: database.C(dao.CollectionSetting),
		xl:          xl,
	}
}

func (s *SettingService) GetSetting(xl *xlog.Logger, name string) (*model.SettingDo, error) {
	if xl == nil {
		xl = s.xl
	}
	setting := model.SettingDo{}
	err := s.settingColl.FindId(name).One(&setting)
	if err != nil {
		if err != mgo.ErrNotFound {
			xl.Errorf("failed to get setting %s, error %v", name, err)
		}
		return nil, mapErr(err)
	}
	return &setting, nil
}

func (s *SettingService) PutSetting(xl *xlog.Logger, setting *model.SettingDo) error {
	if xl == nil {
		xl = s.xl
	}
	setting.UpdatedAt = time.Now()
	_, err := s.settingColl.UpsertId(setting.Name, setting)
	if err != nil {
		xl.Errorf("failed to upsert setting %s, error %v", setting.Name, err)
		return err
	}
	return nil
}
