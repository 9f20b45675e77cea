package cloud

import (
	"fmt"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/joalafu15/Backend/internal/common/utils"
	errors2 "github.com/joalafu15/Backend/internal/protodef/errors"
	"github.com/joalafu15/Backend/internal/service/store"

	"github.com/qiniu/x/xlog"
)

type recordingSender struct {
	codes map[string]string
	err   error
}

func (r *recordingSender) SendSmsCode(xl *xlog.Logger, phone string, code string) error {
	if r.err != nil {
		return r.err
	}
	r.codes[phone] = code
	return nil
}

func (r *recordingSender) SendMessage(xl *xlog.Logger, phone string, message string) error {
	return r.err
}

func newCodeService(sender SmsSender, fixed map[string]string) *SmsCodeService {
	conf := &utils.Config{SMS: &utils.SMSConfig{Provider: "test", FixedCodes: fixed}}
	return NewSmsCodeService(store.NewMemory(), sender, conf, xlog.New("sms-test"))
}

func TestSmsCodeSendAndValidate(t *testing.T) {
	sender := &recordingSender{codes: map[string]string{}}
	c := newCodeService(sender, nil)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Send(nil, "0551234567"); err != nil {
		t.Fatal(err)
	}
	code := sender.codes["0551234567"]
	if len(code) != 6 {
		t.Fatalf("code = %q", code)
	}

	err := c.Send(nil, "0551234567")
	serverErr, ok := err.(*errors2.ServerError)
	if !ok || serverErr.Code != errors2.ServerErrorSMSSendTooFrequent {
		t.Errorf("resend within a minute err = %v", err)
	}

	if err := c.Validate(nil, "0551234567", code); err != nil {
		t.Errorf("valid code rejected: %v", err)
	}
	if err := c.Validate(nil, "0551234567", "xxxxxx"); err == nil {
		t.Error("wrong code accepted")
	}

	now = now.Add(6 * time.Minute)
	if err := c.Validate(nil, "0551234567", code); err == nil {
		t.Error("expired code accepted")
	}
	if err := c.Send(nil, "0551234567"); err != nil {
		t.Errorf("resend after a minute: %v", err)
	}
}

func TestSmsCodeSendFailureAllowsRetry(t *testing.T) {
	sender := &recordingSender{codes: map[string]string{}, err: fmt.Errorf("down")}
	c := newCodeService(sender, nil)
	if err := c.Send(nil, "0551234567"); err == nil {
		t.Fatal("expected failure")
	}
	sender.err = nil
	if err := c.Send(nil, "0551234567"); err != nil {
		t.Errorf("retry after failed send: %v", err)
	}
}

func TestSmsCodeFixedCodes(t *testing.T) {
	c := newCodeService(&mockSmsSender{}, map[string]string{"0550000000": "111111"})
	if err := c.Validate(nil, "0550000000", "111111"); err != nil {
		t.Errorf("fixed code rejected: %v", err)
	}
}

func TestGatewaySmsSender(t *testing.T) {
	var got map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		got = map[string]string{}
		for k := range r.PostForm {
			got[k] = r.PostForm.Get(k)
		}
		if got["recipient"] == "966000000000" {
			fmt.Fprint(w, `{"success": false, "errorCode": "ER-01"}`)
			return
		}
		fmt.Fprint(w, `{"success": true, "data": {"MessageID": 1}}`)
	}))
	defer ts.Close()

	sender := NewGatewaySmsSender(&utils.SMSGatewayConfig{URL: ts.URL, AppSid: "sid", SenderName: "Tatweer", CountryCode: "966"})
	xl := xlog.New("gateway-test")
	if err := sender.SendSmsCode(xl, "0551234567", "123456"); err != nil {
		t.Fatal(err)
	}
	if got["recipient"] != "966551234567" || got["appsid"] != "sid" || !strings.HasPrefix(got["message"], "123456 is your verification code") {
		t.Errorf("form = %v", got)
	}
	err := sender.SendMessage(xl, "0000000000", "hi")
	serverErr, ok := err.(*errors2.ServerError)
	if !ok || serverErr.Code != errors2.ServerErrorSMSSendFail || !strings.Contains(serverErr.Summary, "ER-01") {
		t.Errorf("rejected message err = %v", err)
	}
}

func TestLocalFileStorage(t *testing.T) {
	dir, err := ioutil.TempDir("", "hiring-files")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	s := NewLocalFileStorage(dir)
	xl := xlog.New("storage-test")

	url, err := s.Save(xl, "attachments/c1/contract.pdf", strings.NewReader("%PDF-1.4"), 8, "application/pdf")
	if err != nil {
		t.Fatal(err)
	}
	if url != "/files/attachments/c1/contract.pdf" {
		t.Errorf("url = %s", url)
	}
	data, err := ioutil.ReadFile(filepath.Join(dir, "attachments", "c1", "contract.pdf"))
	if err != nil || string(data) != "%PDF-1.4" {
		t.Errorf("stored %q, %v", data, err)
	}
	if err := s.Remove(xl, "attachments/c1/contract.pdf"); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove(xl, "attachments/c1/contract.pdf"); err != nil {
		t.Errorf("removing a missing file: %v", err)
	}
	_, err = s.Save(xl, "../escape.pdf", strings.NewReader("x"), 1, "application/pdf")
	if serverErr, ok := err.(*errors2.ServerError); !ok || serverErr.Code != errors2.ServerErrorStorageFail {
		t.Errorf("path escape err = %v", err)
	}
}

func TestMailerSendsOnce(t *testing.T) {
	m := NewMailer(&utils.MailConfig{SMTPHost: "smtp.test", SMTPPort: 25, From: "ops@test", To: []string{"a@test"}})
	calls := 0
	var sent string
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		calls++
		sent = string(msg)
		return nil
	}
	if err := m.Notify(xlog.New("mail-test"), "Bulk import", "3 rows"); err != nil {
		t.Fatal(err)
	}
	if calls != 1 || !strings.Contains(sent, "Subject: Bulk import\r\n") || !strings.HasSuffix(sent, "3 rows") {
		t.Errorf("calls %d, message %q", calls, sent)
	}
}

func TestMailerFailureIsNotRetried(t *testing.T) {
	m := NewMailer(&utils.MailConfig{SMTPHost: "smtp.test", SMTPPort: 25, From: "ops@test", To: []string{"a@test"}})
	calls := 0
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		calls++
		return fmt.Errorf("busy")
	}
	start := time.Now()
	err := m.Notify(xlog.New("mail-test"), "Bulk import", "3 rows")
	serverErr, ok := err.(*errors2.ServerError)
	if !ok || serverErr.Code != errors2.ServerErrorMailSendFail {
		t.Errorf("err = %v", err)
	}
	if calls != 1 {
		t.Errorf("send called %d times, want 1", calls)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Notify blocked for %v", elapsed)
	}
}

type failingNotifier struct{ calls int }

func (f *failingNotifier) Notify(xl *xlog.Logger, subject string, body string) error {
	f.calls++
	return fmt.Errorf("down")
}

func TestMultiNotifierCallsEveryone(t *testing.T) {
	a, b := &failingNotifier{}, &failingNotifier{}
	if err := (MultiNotifier{a, b}).Notify(xlog.New("notify-test"), "s", "b"); err == nil {
		t.Error("expected error")
	}
	if a.calls != 1 || b.calls != 1 {
		t.Errorf("calls %d %d", a.calls, b.calls)
	}
}

func TestServiceErrorCarriesCode(t *testing.T) {
	if serviceError(errors2.ServerErrorIMRegisterFail, nil) != nil {
		t.Error("nil error tagged")
	}
	err := serviceError(errors2.ServerErrorIMRegisterFail, fmt.Errorf("rongcloud down"))
	serverErr, ok := err.(*errors2.ServerError)
	if !ok || serverErr.Code != errors2.ServerErrorIMRegisterFail || serverErr.Summary != "rongcloud down" {
		t.Errorf("err = %v", err)
	}
}
