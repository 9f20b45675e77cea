package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/joalafu15/Backend/internal/protodef/model"

	"github.com/gin-gonic/gin"
	"github.com/qiniu/x/xlog"
)

// ActionSaver 保存操作流水。
type ActionSaver interface {
	SaveAction(xl *xlog.Logger, record *model.ActionRecordDo) error
}

var methodMsg = map[string]string{
	"POST":   "created",
	"GET":    "viewed",
	"DELETE": "deleted",
	"PUT":    "updated",
}

var routeMsg = map[string]string{
	"registration verify-national-id": "checked a national id",
	"registration otp":                "requested an OTP",
	"registration sign-up":            "signed up",
	"login":                           "logged in",
	"logout":                          "logged out",

	"POST candidates accept-terms":       "answered the job terms",
	"POST candidates accept-offer":       "answered the job offer",
	"PUT candidates information":         "edited candidate information",
	"POST candidates submit-information": "submitted candidate information",
	"POST candidates submit-attachments": "submitted attachments",
	"POST candidates sector-preferences": "saved sector preferences",
	"POST candidates school-preferences": "saved school preferences",
	"POST candidates interview-slot":     "booked an interview slot",
	"POST candidates attachments":        "uploaded an attachment",
	"PUT candidates outcomes":            "recorded an outcome",

	"PUT settings": "changed a setting",
	"POST bulk":    "ran a bulk operation",
}

// Action 一类请求对应的操作描述。
type Action struct {
	method   string
	subject  string
	userID   string
	username string
	msg      string
}

func NewAction(method string, subject string, msg string) Action {
	return Action{method: method, subject: subject, msg: msg}
}

type ActionManager struct {
	Actions []Action
	saver   ActionSaver
	xl      *xlog.Logger
}

func NewActionManager(saver ActionSaver) *ActionManager {
	am := &ActionManager{saver: saver, xl: xlog.New("middleware.ActionManager")}
	for k, v := range routeMsg {
		method, subject := parseMethodAndSubject(k)
		am.Actions = append(am.Actions, NewAction(method, subject, v))
	}
	return am
}

// MatchRoute returns a copy of the action registered for the route, or a default one.
func (am *ActionManager) MatchRoute(method, path string) (Action, bool) {
	subject := strings.Join(parsePath(path), " ")
	for _, action := range am.Actions {
		if (action.method == "ALL" || action.method == method) && action.subject == subject {
			return action, true
		}
	}
	return NewAction(method, subject, "default"), false
}

func (am *ActionManager) Save(xl *xlog.Logger, record *model.ActionRecordDo) {
	if am.saver == nil {
		return
	}
	if xl == nil {
		xl = am.xl
	}
	if err := am.saver.SaveAction(xl, record); err != nil {
		xl.Errorf("failed save action: %s, error %v", record.Msg, err)
	}
}

// ActionLogMiddleware 每个请求记录一条操作流水：谁在什么时候做了什么。
func ActionLogMiddleware(saver ActionSaver) gin.HandlerFunc {
	am := NewActionManager(saver)
	return func(c *gin.Context) {
		action, ok := am.MatchRoute(c.Request.Method, c.FullPath())
		c.Next()
		xl := c.MustGet(model.XLogKey).(*xlog.Logger)
		action = action.With(c)
		xl.Debugf("match: %v log: %v", ok, action)
		am.Save(xl, action.genRecord(c.Writer.Status()))
	}
}

func (a Action) String() string {
	who := "anonymous"
	if a.username != "" {
		who = "user " + a.username
	}
	if a.method == "ALL" || a.msg != "default" {
		return fmt.Sprintf("%s %s", who, a.msg)
	}
	return fmt.Sprintf("%s %s %s", who, methodMsg[a.method], a.subject)
}

func (a Action) With(c *gin.Context) Action {
	if account, ok := CurrentAccount(c); ok {
		a.userID = account.ID
		a.username = account.Username
	}
	return a
}

func (a Action) genRecord(status int) *model.ActionRecordDo {
	return &model.ActionRecordDo{
		Msg:      a.String(),
		UserID:   a.userID,
		Username: a.username,
		Time:     time.Now(),
		Method:   a.method,
		Subject:  a.subject,
		Status:   status,
	}
}

// /v1/candidates/:id/accept-terms -> candidates accept-terms
// parsePath skips the version prefix and path params, may return nil
func parsePath(path string) []string {
	fields := strings.Split(path, "/")
	if len(fields) < 3 {
		return nil
	}
	res := make([]string, 0)
	for _, part := range fields[2:] {
		if part != "" && !strings.HasPrefix(part, ":") {
			res = append(res, part)
		}
	}
	return res
}

// POST candidates accept-terms -> method="POST" subject="candidates accept-terms"
// login -> method="ALL" subject="login"
func parseMethodAndSubject(val string) (method, subject string) {
	val = strings.TrimSpace(val)
	if val == "" {
		return "", ""
	}
	for _, m := range []string{"GET", "POST", "PUT", "DELETE"} {
		if strings.HasPrefix(val, m+" ") {
			return m, strings.TrimSpace(val[len(m):])
		}
	}
	return "ALL", val
}
