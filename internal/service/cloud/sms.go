package cloud

import (
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/joalafu15/Backend/internal/common/utils"
	errors2 "github.com/joalafu15/Backend/internal/protodef/errors"

	qiniuauth "github.com/qiniu/go-sdk/v7/auth"
	qiniusms "github.com/qiniu/go-sdk/v7/sms"
	"github.com/qiniu/x/xlog"
	"github.com/tidwall/gjson"
)

const (
	// SMSCodeParamKey 验证码的模板变量名称。
	SMSCodeParamKey = "code"
	// SMSMessageParamKey 通知短信的模板变量名称。
	SMSMessageParamKey = "message"

	smsCodeTextPattern = "%s is your verification code for Tatweer. This code is valid for 5 minutes."
)

// SmsSender 短信发送器，发送验证码及通知短信。
type SmsSender interface {
	SendSmsCode(xl *xlog.Logger, phone string, code string) error
	SendMessage(xl *xlog.Logger, phone string, message string) error
}

// NewSmsSender 按配置创建短信发送器。
func NewSmsSender(conf *utils.Config, xl *xlog.Logger) (SmsSender, error) {
	switch conf.SMS.Provider {
	// 模拟的短信发送器，仅供测试使用。
	case "test":
		return &mockSmsSender{}, nil
	case "qiniu":
		if conf.SMS.QiniuSMS == nil {
			return nil, fmt.Errorf("qiniu_sms is not configured")
		}
		return NewQiniuSmsSender(conf), nil
	case "gateway":
		if conf.SMS.Gateway == nil || conf.SMS.Gateway.URL == "" {
			return nil, fmt.Errorf("sms gateway is not configured")
		}
		return NewGatewaySmsSender(conf.SMS.Gateway), nil
	default:
		xl.Errorf("unsupported SMS provider %s", conf.SMS.Provider)
		return nil, fmt.Errorf("unsupported SMS provider")
	}
}

type mockSmsSender struct {
}

func (m *mockSmsSender) SendSmsCode(xl *xlog.Logger, phone string, code string) error {
	xl.Debugf("mock: send code %s to %s", code, phone)
	return nil
}

func (m *mockSmsSender) SendMessage(xl *xlog.Logger, phone string, message string) error {
	xl.Debugf("mock: send message %q to %s", message, phone)
	return nil
}

// QiniuSmsSender 七牛云短信发送器。
type QiniuSmsSender struct {
	conf    *utils.QiniuSMSConfig
	manager *qiniusms.Manager
}

func NewQiniuSmsSender(conf *utils.Config) *QiniuSmsSender {
	manager := qiniusms.NewManager(&qiniuauth.Credentials{
		AccessKey: conf.QiniuKeyPair.AccessKey,
		SecretKey: []byte(conf.QiniuKeyPair.SecretKey),
	})
	return &QiniuSmsSender{
		conf:    conf.SMS.QiniuSMS,
		manager: manager,
	}
}

func (s *QiniuSmsSender) send(xl *xlog.Logger, templateID string, phone string, params map[string]interface{}) error {
	_, err := s.manager.SendMessage(qiniusms.MessagesRequest{
		SignatureID: s.conf.SignatureID,
		TemplateID:  templateID,
		Mobiles:     []string{phone},
		Parameters:  params,
	})
	if err != nil {
		xl.Errorf("failed to send message, error %v", err)
		return serviceError(errors2.ServerErrorSMSSendFail, err)
	}
	return nil
}

// SendSmsCode 发送验证码为code的短信。
func (s *QiniuSmsSender) SendSmsCode(xl *xlog.Logger, phone string, code string) error {
	return s.send(xl, s.conf.TemplateID, phone, map[string]interface{}{SMSCodeParamKey: code})
}

func (s *QiniuSmsSender) SendMessage(xl *xlog.Logger, phone string, message string) error {
	if s.conf.NoticeTemplateID == "" {
		xl.Warnf("notice template is not configured, message to %s dropped", phone)
		return nil
	}
	return s.send(xl, s.conf.NoticeTemplateID, phone, map[string]interface{}{SMSMessageParamKey: message})
}

// GatewaySmsSender posts plain text messages to an HTTP SMS gateway that answers
// with {"success": bool, "errorCode": string}.
type GatewaySmsSender struct {
	conf   *utils.SMSGatewayConfig
	client *http.Client
}

func NewGatewaySmsSender(conf *utils.SMSGatewayConfig) *GatewaySmsSender {
	timeout := time.Duration(conf.TimeoutSecond) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GatewaySmsSender{
		conf:   conf,
		client: &http.Client{Timeout: timeout},
	}
}

func (s *GatewaySmsSender) SendSmsCode(xl *xlog.Logger, phone string, code string) error {
	return s.SendMessage(xl, phone, fmt.Sprintf(smsCodeTextPattern, code))
}

func (s *GatewaySmsSender) SendMessage(xl *xlog.Logger, phone string, message string) error {
	values := url.Values{}
	values.Set("appsid", s.conf.AppSid)
	values.Set("senderName", s.conf.SenderName)
	values.Set("message", message)
	values.Set("recipient", s.recipient(phone))
	res, err := s.client.PostForm(s.conf.URL, values)
	if err != nil {
		xl.Errorf("failed to call sms gateway, error %v", err)
		return serviceError(errors2.ServerErrorSMSSendFail, err)
	}
	defer res.Body.Close()
	body, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return serviceError(errors2.ServerErrorSMSSendFail, err)
	}
	result := gjson.ParseBytes(body)
	if res.StatusCode != http.StatusOK || !result.Get("success").Bool() {
		xl.Errorf("sms gateway rejected message to %s, status %d, error code %s",
			utils.MaskPhone(phone), res.StatusCode, result.Get("errorCode").String())
		return serviceError(errors2.ServerErrorSMSSendFail, fmt.Errorf("sms gateway error %s", result.Get("errorCode").String()))
	}
	return nil
}

// recipient turns a local 05xxxxxxxx number into the international form.
func (s *GatewaySmsSender) recipient(phone string) string {
	phone = strings.TrimPrefix(phone, "+")
	if s.conf.CountryCode != "" && strings.HasPrefix(phone, "0") {
		return s.conf.CountryCode + phone[1:]
	}
	return phone
}

// SmsMessenger 把 SmsSender 适配为只发送通知的接口。
type SmsMessenger struct {
	Sender SmsSender
}

func (m SmsMessenger) SendMessage(xl *xlog.Logger, phone string, message string) error {
	return m.Sender.SendMessage(xl, phone, message)
}
