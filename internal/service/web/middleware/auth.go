package middleware

import (
	"net/http"
	"strings"

	errors2 "github.com/joalafu15/Backend/internal/protodef/errors"
	"github.com/joalafu15/Backend/internal/protodef/model"

	"github.com/gin-gonic/gin"
	"github.com/qiniu/x/xlog"
)

// Authenticator 根据 token 查找已登录的账号。
type Authenticator interface {
	Authenticate(xl *xlog.Logger, token string) (*model.AccountDo, error)
}

// Authenticate 校验请求者的身份，只接受 Authorization: Bearer <token>。
func Authenticate(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		xl := c.MustGet(model.XLogKey).(*xlog.Logger)
		requestID := xl.ReqId
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			xl.Debugf("%s %s: request unauthorized, wrong auth header format", c.Request.Method, c.Request.URL.Path)
			abort(c, model.NewResponseErrorNotLoggedIn(), requestID)
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")
		account, err := auth.Authenticate(xl, token)
		if err != nil {
			xl.Debugf("%s %s: request unauthorized, error %v", c.Request.Method, c.Request.URL.Path, err)
			responseErr := model.NewResponseErrorInternal()
			if serverErr, ok := err.(*errors2.ServerError); ok {
				switch serverErr.Code {
				case errors2.ServerErrorUserNotLoggedin:
					responseErr = model.NewResponseErrorNotLoggedIn()
				case errors2.ServerErrorTokenExpired:
					responseErr = model.NewResponseErrorBadToken()
				}
			}
			abort(c, responseErr, requestID)
			return
		}
		c.Set(model.UserContextKey, *account)
		c.Set(model.UserIDContextKey, account.ID)
	}
}

// RequireRole 只允许指定角色的账号继续访问。
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := CurrentAccount(c)
		if ok {
			for _, role := range roles {
				if account.Role == role {
					return
				}
			}
		}
		xl := c.MustGet(model.XLogKey).(*xlog.Logger)
		xl.Infof("%s %s: role %q not allowed", c.Request.Method, c.Request.URL.Path, account.Role)
		abort(c, model.NewResponseErrorForbidden(), xl.ReqId)
	}
}

// RequireCandidateAccess lets staff through and limits candidates to their own record.
func RequireCandidateAccess(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := CurrentAccount(c)
		if ok && (account.Role != model.RoleCandidate || account.CandidateID == c.Param(param)) {
			return
		}
		xl := c.MustGet(model.XLogKey).(*xlog.Logger)
		xl.Infof("%s %s: account %s may not access candidate %s", c.Request.Method, c.Request.URL.Path, account.ID, c.Param(param))
		abort(c, model.NewResponseErrorForbidden(), xl.ReqId)
	}
}

// CurrentAccount 返回 Authenticate 存入 context 的账号。
func CurrentAccount(c *gin.Context) (model.AccountDo, bool) {
	val, ok := c.Get(model.UserContextKey)
	if !ok {
		return model.AccountDo{}, false
	}
	account, ok := val.(model.AccountDo)
	return account, ok
}

func abort(c *gin.Context, responseErr *model.ResponseError, requestID string) {
	resp := model.NewFailResponse(*responseErr).WithRequestID(requestID)
	c.JSON(http.StatusOK, resp)
	c.Abort()
}
