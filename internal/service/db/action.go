package db

import (
	"github.com/joalafu15/Backend/internal/protodef/model"
	"github.com/joalafu15/Backend/internal/service/db/dao"

	"github.com/qiniu/x/xlog"
	"gopkg.in/mgo.v2"
)

// ActionService 操作流水。
type ActionService struct {
	actionColl *mgo.Collection
	xl         *xlog.Logger
}

func NewActionService(database *mgo.Database, xl *xlog.Logger) *ActionService {
	if xl == nil {
		xl = xlog.New("hiring-action-db")
	}
	return &ActionService{
		actionColl: database.C(dao.ActionCollection),
		xl:         xl,
	}
}

func (a *ActionService) SaveAction(xl *xlog.Logger, record *model.ActionRecordDo) error {
	if xl == nil {
		xl = a.xl
	}
	if err := a.actionColl.Insert(record); err != nil {
		xl.Errorf("failed save action %v, error %v", record, err)
		return err
	}
	return nil
}
