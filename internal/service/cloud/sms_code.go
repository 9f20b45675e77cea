package cloud

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/joalafu15/Backend/internal/common/utils"
	errors2 "github.com/joalafu15/Backend/internal/protodef/errors"
	"github.com/joalafu15/Backend/internal/protodef/model"
	"github.com/joalafu15/Backend/internal/service/store"

	"github.com/qiniu/x/xlog"
	"gopkg.in/mgo.v2/bson"
)

var (
	// SMSCodeDefaultResendTimeout 重发短信验证码的过期时间。在该时间内已经发送过验证码的手机号不能重发。
	SMSCodeDefaultResendTimeout = time.Minute
	// SMSCodeDefaultValidateTimeout 短信验证码的有效时间。在短信验证码发出后该时间内，验证码有效，过期失效。
	SMSCodeDefaultValidateTimeout = 5 * time.Minute
	// SMSCodeExpireTimeout 短信验证码过期从数据库删除的时间。
	SMSCodeExpireTimeout = 10 * time.Minute
)

type SmsCodeService struct {
	codes           store.SMSCodeStore
	smsSender       SmsSender
	resendTimeout   time.Duration
	validateTimeout time.Duration
	expireTimeout   time.Duration
	randLock        sync.Mutex
	randSource      rand.Source
	// fixedCodes 固定的手机号与验证码组合，供测试用。
	fixedCodes map[string]string
	now        func() time.Time
	xl         *xlog.Logger
}

func NewSmsCodeService(codes store.SMSCodeStore, sender SmsSender, conf *utils.Config, xl *xlog.Logger) *SmsCodeService {
	if xl == nil {
		xl = xlog.New("hiring-sms-code")
	}
	return &SmsCodeService{
		codes:           codes,
		smsSender:       sender,
		resendTimeout:   SMSCodeDefaultResendTimeout,
		validateTimeout: SMSCodeDefaultValidateTimeout,
		expireTimeout:   SMSCodeExpireTimeout,
		randSource:      rand.NewSource(time.Now().UnixNano()),
		fixedCodes:      conf.SMS.FixedCodes,
		now:             time.Now,
		xl:              xl,
	}
}

func (c *SmsCodeService) newCode() string {
	c.randLock.Lock()
	defer c.randLock.Unlock()
	return fmt.Sprintf("%06d", c.randSource.Int63()%1000000)
}

// Send 对给定手机号发送验证码。
func (c *SmsCodeService) Send(xl *xlog.Logger, phone string) error {
	if xl == nil {
		xl = c.xl
	}
	// 首先查找是否有1分钟内发送给该手机号的记录。
	now := c.now()
	sendCount, err := c.codes.CountCodesSince(xl, phone, now.Add(-c.resendTimeout))
	if err != nil {
		xl.Errorf("failed to count sms code records, error %v", err)
		return err
	}
	if sendCount > 0 {
		xl.Infof("phone number %s has already been sent to in 1 minute", utils.MaskPhone(phone))
		return &errors2.ServerError{Code: errors2.ServerErrorSMSSendTooFrequent, Summary: "sms code sent too frequently"}
	}

	code := c.newCode()
	record := &model.SMSCodeDo{
		ID:       bson.NewObjectId().Hex(),
		Phone:    phone,
		SMSCode:  code,
		SendTime: now,
		ExpireAt: now.Add(c.expireTimeout),
	}
	if err := c.codes.InsertCode(xl, record); err != nil {
		xl.Errorf("failed to insert SMS code record, error %v", err)
		return err
	}
	if err := c.smsSender.SendSmsCode(xl, phone, code); err != nil {
		xl.Errorf("failed to send SMS code, error %v", err)
		// 删除已插入的发送记录，允许立即重发。
		if deleteErr := c.codes.RemoveCode(xl, record.ID); deleteErr != nil {
			xl.Errorf("failed to delete sms code record %s, error %v", record.ID, deleteErr)
		}
		return err
	}
	xl.Debugf("sent code to phone number %s", utils.MaskPhone(phone))
	return nil
}

// Validate 检验手机号与验证码是否符合。
func (c *SmsCodeService) Validate(xl *xlog.Logger, phone string, code string) error {
	if xl == nil {
		xl = c.xl
	}
	// 处理固定验证码组合。
	if fixedCode, ok := c.fixedCodes[phone]; ok && code == fixedCode {
		xl.Infof("SmsCodeService Validate By fixedCode, phone: %s", utils.MaskPhone(phone))
		return nil
	}
	_, err := c.codes.FindCodeSince(xl, phone, code, c.now().Add(-c.validateTimeout))
	if err != nil {
		if err == store.ErrNotFound {
			xl.Infof("sms code is not found or expired")
		} else {
			xl.Errorf("failed to find sms code record, error %v", err)
		}
		return err
	}
	return nil
}
