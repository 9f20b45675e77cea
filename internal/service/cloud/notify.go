package cloud

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/joalafu15/Backend/internal/common/utils"
	errors2 "github.com/joalafu15/Backend/internal/protodef/errors"

	"github.com/bwmarrin/discordgo"
	"github.com/qiniu/x/xlog"
)

// discordMessageLimit Discord 单条消息的最大长度。
const discordMessageLimit = 2000

// Notifier 向运营人员发送通知。
type Notifier interface {
	Notify(xl *xlog.Logger, subject string, body string) error
}

// NewNotifier 按配置组合邮件与 Discord 通知，都未配置时返回 nil。
func NewNotifier(conf *utils.Config, xl *xlog.Logger) (Notifier, error) {
	var notifiers MultiNotifier
	if conf.Mail != nil && conf.Mail.Enabled {
		notifiers = append(notifiers, NewMailer(conf.Mail))
	}
	if conf.Discord != nil && conf.Discord.BotToken != "" {
		discord, err := NewDiscordNotifier(conf.Discord)
		if err != nil {
			xl.Errorf("failed to create discord session, error %v", err)
			return nil, err
		}
		notifiers = append(notifiers, discord)
	}
	if len(notifiers) == 0 {
		return nil, nil
	}
	return notifiers, nil
}

// MultiNotifier 依次调用每个通知器，返回第一个错误。
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(xl *xlog.Logger, subject string, body string) error {
	var firstErr error
	for _, n := range m {
		if err := n.Notify(xl, subject, body); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DiscordNotifier 通过机器人向频道发送消息。
type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscordNotifier(conf *utils.DiscordConfig) (*DiscordNotifier, error) {
	session, err := discordgo.New("Bot " + conf.BotToken)
	if err != nil {
		return nil, err
	}
	return &DiscordNotifier{session: session, channelID: conf.ChannelID}, nil
}

func (d *DiscordNotifier) Notify(xl *xlog.Logger, subject string, body string) error {
	content := fmt.Sprintf("**%s**\n%s", subject, body)
	if len(content) > discordMessageLimit {
		content = content[:discordMessageLimit-3] + "..."
	}
	if _, err := d.session.ChannelMessageSend(d.channelID, content); err != nil {
		xl.Errorf("failed to post to discord channel %s, error %v", d.channelID, err)
		return err
	}
	return nil
}

// Mailer 通过SMTP发送邮件。每封邮件只尝试一次，失败由调用方记录，不在内部重试。
type Mailer struct {
	conf *utils.MailConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailer(conf *utils.MailConfig) *Mailer {
	return &Mailer{conf: conf, send: smtp.SendMail}
}

func (m *Mailer) message(subject string, body string) []byte {
	b := strings.Builder{}
	b.WriteString("From: " + m.conf.From + "\r\n")
	b.WriteString("To: " + strings.Join(m.conf.To, ", ") + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

func (m *Mailer) Notify(xl *xlog.Logger, subject string, body string) error {
	if len(m.conf.To) == 0 {
		return nil
	}
	addr := fmt.Sprintf("%s:%d", m.conf.SMTPHost, m.conf.SMTPPort)
	var auth smtp.Auth
	if m.conf.Username != "" {
		auth = smtp.PlainAuth("", m.conf.Username, m.conf.Password, m.conf.SMTPHost)
	}
	if err := m.send(addr, auth, m.conf.From, m.conf.To, m.message(subject, body)); err != nil {
		xl.Warnf("failed to send mail %q, error %v", subject, err)
		return serviceError(errors2.ServerErrorMailSendFail, err)
	}
	return nil
}
