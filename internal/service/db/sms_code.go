package db

import (
	"time"

	"github.com/joalafu15/Backend/internal/protodef/model"
	"github.com/joalafu15/Backend/internal/service/db/dao"

	"github.com/qiniu/x/xlog"
	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"
)

// SMSCodeService 已发送验证码的存储。
type SMSCodeService struct {
	smsCodeColl *mgo.Collection
	xl          *xlog.Logger
}

func NewSMSCodeService(database *mgo.Database, xl *xlog.Logger) *SMSCodeService {
	if xl == nil {
		xl = xlog.New("hiring-sms-code-db")
	}
	return &SMSCodeService{
		smsCodeColl: database.C(dao.CollectionSMSCode),
		xl:          xl,
	}
}

func (s *SMSCodeService) CountCodesSince(xl *xlog.Logger, phone string, since time.Time) (int, error) {
	if xl == nil {
		xl = s.xl
	}
	n, err := s.smsCodeColl.Find(bson.M{"phone": phone, "sendTime": bson.M{"$gt": since}}).Count()
	if err != nil {
		xl.Errorf("failed to count sms code records, error %v", err)
		return 0, err
	}
	return n, nil
}

func (s *SMSCodeService) InsertCode(xl *xlog.Logger, code *model.SMSCodeDo) error {
	if xl == nil {
		xl = s.xl
	}
	if err := s.smsCodeColl.Insert(code); err != nil {
		xl.Errorf("failed to insert SMS code record, error %v", err)
		return err
	}
	return nil
}

func (s *SMSCodeService) RemoveCode(xl *xlog.Logger, id string) error {
	if xl == nil {
		xl = s.xl
	}
	if err := s.smsCodeColl.RemoveId(id); err != nil {
		xl.Errorf("failed to delete sms code record %s, error %v", id, err)
		return mapErr(err)
	}
	return nil
}

func (s *SMSCodeService) FindCodeSince(xl *xlog.Logger, phone string, code string, since time.Time) (*model.SMSCodeDo, error) {
	if xl == nil {
		xl = s.xl
	}
	record := model.SMSCodeDo{}
	err := s.smsCodeColl.Find(bson.M{
		"phone":    phone,
		"smsCode":  code,
		"sendTime": bson.M{"$gt": since},
	}).One(&record)
	if err != nil {
		if err == mgo.ErrNotFound {
			xl.Infof("sms code is not found or expired")
		} else {
			xl.Errorf("failed to find sms code record, error %v", err)
		}
		return nil, mapErr(err)
	}
	return &record, nil
}
