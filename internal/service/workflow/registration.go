package workflow

import (
	"time"

	"github.com/joalafu15/Backend/internal/common/utils"
	errors2 "github.com/joalafu15/Backend/internal/protodef/errors"
	"github.com/joalafu15/Backend/internal/protodef/form"
	"github.com/joalafu15/Backend/internal/protodef/model"
	"github.com/joalafu15/Backend/internal/service/store"

	"github.com/qiniu/x/xlog"
	"golang.org/x/crypto/bcrypt"
)

// SmsCode 短信验证码的发送与校验。
type SmsCode interface {
	Send(xl *xlog.Logger, phone string) error
	Validate(xl *xlog.Logger, phone string, code string) error
}

// IMRegistrar 在IM服务中注册用户。
type IMRegistrar interface {
	Register(xl *xlog.Logger, userID string, name string) (*model.IMUser, error)
}

// Registration 候选人注册、登录与登出。
type Registration struct {
	candidates store.CandidateStore
	accounts   store.AccountStore
	gate       *PhaseGate
	smsCode    SmsCode
	im         IMRegistrar
	locks      *keyedMutex
	jwtKey     string
	tokenTTL   time.Duration
	now        func() time.Time
	xl         *xlog.Logger
}

func NewRegistration(s *store.Store, gate *PhaseGate, smsCode SmsCode, im IMRegistrar, jwtKey string, tokenTTL time.Duration, xl *xlog.Logger) *Registration {
	if xl == nil {
		xl = xlog.New("hiring-registration")
	}
	return &Registration{
		candidates: s.Candidates,
		accounts:   s.Accounts,
		gate:       gate,
		smsCode:    smsCode,
		im:         im,
		locks:      newKeyedMutex(),
		jwtKey:     jwtKey,
		tokenTTL:   tokenTTL,
		now:        time.Now,
		xl:         xl,
	}
}

// registrable loads the candidate behind a national id and checks that it may still register.
func (r *Registration) registrable(xl *xlog.Logger, nationalID string) (*model.CandidateDo, error) {
	candidate, err := r.candidates.GetCandidateByNationalID(xl, nationalID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, errors2.NewForbidden("you are not allowed to register")
		}
		return nil, err
	}
	locked, err := r.gate.LockedFor(xl, candidate, model.LockPhase1)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, errors2.NewForbidden("you are not allowed to register")
	}
	if candidate.UserID != "" {
		return nil, errors2.NewConflict("an account has been created already")
	}
	return candidate, nil
}

// VerifyNationalID 检查该身份证号是否可以注册。
func (r *Registration) VerifyNationalID(xl *xlog.Logger, nationalID string) error {
	if xl == nil {
		xl = r.xl
	}
	_, err := r.registrable(xl, nationalID)
	return err
}

// SendOtp 向候选人登记的手机号发送验证码，返回脱敏后的手机号。
func (r *Registration) SendOtp(xl *xlog.Logger, nationalID string) (*model.SendOtpResponse, error) {
	if xl == nil {
		xl = r.xl
	}
	candidate, err := r.registrable(xl, nationalID)
	if err != nil {
		return nil, err
	}
	if err := r.smsCode.Send(xl, candidate.PhoneNumber); err != nil {
		if serverErr, ok := err.(*errors2.ServerError); ok && serverErr.Code == errors2.ServerErrorSMSSendTooFrequent {
			return nil, err
		}
		return nil, errors2.NewExternalService("the SMS service is unavailable", err)
	}
	return &model.SendOtpResponse{
		Success:     true,
		PhoneNumber: utils.MaskPhone(candidate.PhoneNumber),
	}, nil
}

// SignUp 校验验证码后为候选人创建账号，用户名为身份证号。
func (r *Registration) SignUp(xl *xlog.Logger, args *form.SignUpForm) (*model.AccountDo, error) {
	if xl == nil {
		xl = r.xl
	}
	candidate, err := r.registrable(xl, args.NationalIDNumber)
	if err != nil {
		return nil, err
	}
	if len(args.Password) < form.MinPasswordLength {
		return nil, errors2.NewValidation("password is too short")
	}
	if err := r.smsCode.Validate(xl, candidate.PhoneNumber, args.Code); err != nil {
		xl.Infof("SignUp: validate SMS code failed, error %v", err)
		return nil, &errors2.ServerError{Code: errors2.ServerErrorWrongSMSCode, Summary: "wrong sms code"}
	}
	account := &model.AccountDo{
		ID:          utils.GenerateID(),
		Username:    candidate.NationalIDNumber,
		Email:       candidate.Email,
		Role:        model.RoleCandidate,
		CandidateID: candidate.ID,
	}
	if err := r.createAccount(xl, account, args.Password); err != nil {
		return nil, err
	}
	if err := r.linkAccount(xl, candidate.ID, account.ID); err != nil {
		xl.Errorf("SignUp: account %s created but candidate %s not linked, error %v", account.ID, candidate.ID, err)
		return nil, errors2.NewPartialFailure("account created but candidate not linked", []string{"create-account"}, err)
	}
	xl.Infof("candidate %s registered as user %s", candidate.ID, account.ID)
	return account, nil
}

// linkAccount rereads the candidate under its lock so the link never overwrites a concurrent submission.
func (r *Registration) linkAccount(xl *xlog.Logger, candidateID string, accountID string) error {
	unlock := r.locks.Lock(candidateID)
	defer unlock()
	candidate, err := r.candidates.GetCandidate(xl, candidateID)
	if err != nil {
		return err
	}
	candidate.UserID = accountID
	return r.candidates.UpdateCandidate(xl, candidate)
}

// UpdatePassword 校验旧密码后修改密码，已有的登录不受影响。
func (r *Registration) UpdatePassword(xl *xlog.Logger, accountID string, args *form.PasswordUpdateForm) error {
	if xl == nil {
		xl = r.xl
	}
	account, err := r.accounts.GetAccountByID(xl, accountID)
	if err != nil {
		if err == store.ErrNotFound {
			return &errors2.ServerError{Code: errors2.ServerErrorUserNotfound, Summary: "account not found"}
		}
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(args.OldPassword)) != nil {
		xl.Infof("UpdatePassword: wrong old password for %s", account.Username)
		return &errors2.ServerError{Code: errors2.ServerErrorWrongPassword, Summary: "wrong password"}
	}
	if len(args.NewPassword) < form.MinPasswordLength {
		return errors2.NewValidation("password is too short")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(args.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := r.accounts.UpdatePassword(xl, accountID, string(hash)); err != nil {
		return notFound("account", err)
	}
	xl.Infof("account %s changed its password", accountID)
	return nil
}

// CreateStaffAccount 创建管理员、委员会或运营账号。
func (r *Registration) CreateStaffAccount(xl *xlog.Logger, args *form.AccountCreateForm) (*model.AccountDo, error) {
	if xl == nil {
		xl = r.xl
	}
	account := &model.AccountDo{
		ID:               utils.GenerateID(),
		Username:         args.Username,
		Email:            args.Email,
		Role:             args.Role,
		AdministrationID: args.AdministrationID,
	}
	if err := r.createAccount(xl, account, args.Password); err != nil {
		return nil, err
	}
	return account, nil
}

func (r *Registration) createAccount(xl *xlog.Logger, account *model.AccountDo, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	account.PasswordHash = string(hash)
	account.RegisterTime = r.now()
	if err := r.accounts.CreateAccount(xl, account); err != nil {
		if err == store.ErrDuplicate {
			return errors2.NewConflict("username " + account.Username + " is taken")
		}
		return err
	}
	return nil
}

// Login 校验用户名密码，签发token。同一账号只保留最新的登录。
func (r *Registration) Login(xl *xlog.Logger, username string, password string) (*model.LoginResponse, error) {
	if xl == nil {
		xl = r.xl
	}
	wrongPassword := &errors2.ServerError{Code: errors2.ServerErrorWrongPassword, Summary: "wrong username or password"}
	account, err := r.accounts.GetAccountByUsername(xl, username)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, wrongPassword
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		xl.Infof("Login: wrong password for %s", username)
		return nil, wrongPassword
	}
	now := r.now()
	expireAt := now.Add(r.tokenTTL)
	token, err := utils.JwtSign(r.jwtKey, map[string]interface{}{
		"accountId": account.ID,
		"role":      string(account.Role),
		"exp":       expireAt.Unix(),
	})
	if err != nil {
		return nil, err
	}
	if err := r.accounts.PutToken(xl, &model.AccountTokenDo{
		ID:        account.ID,
		AccountId: account.ID,
		Token:     token,
		ExpireAt:  expireAt,
	}); err != nil {
		return nil, err
	}
	if err := r.accounts.TouchLogin(xl, account.ID, now); err != nil {
		// 更新登录时间失败不影响正常返回。
		xl.Warnf("failed to update user %s login time, error %v", account.ID, err)
	}
	account.LastLoginTime = now
	resp := &model.LoginResponse{Account: account, Token: token}
	if r.im != nil {
		imUser, err := r.im.Register(xl, account.ID, account.Username)
		if err != nil {
			xl.Warnf("failed to register user %s to IM, error %v", account.ID, err)
		} else {
			resp.IMToken = imUser.Token
		}
	}
	return resp, nil
}

func (r *Registration) Logout(xl *xlog.Logger, accountID string) error {
	if xl == nil {
		xl = r.xl
	}
	return r.accounts.DeleteToken(xl, accountID)
}

// Authenticate resolves a bearer token to its account.
func (r *Registration) Authenticate(xl *xlog.Logger, token string) (*model.AccountDo, error) {
	if xl == nil {
		xl = r.xl
	}
	notLoggedIn := &errors2.ServerError{Code: errors2.ServerErrorUserNotLoggedin, Summary: "not logged in"}
	claims, err := utils.JwtDecode(r.jwtKey, token)
	if err != nil {
		xl.Debugf("Authenticate: bad token, error %v", err)
		return nil, &errors2.ServerError{Code: errors2.ServerErrorTokenExpired, Summary: "bad token"}
	}
	record, err := r.accounts.GetToken(xl, token)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, notLoggedIn
		}
		return nil, err
	}
	if accountID, _ := claims["accountId"].(string); accountID != record.AccountId {
		return nil, notLoggedIn
	}
	if r.now().After(record.ExpireAt) {
		return nil, &errors2.ServerError{Code: errors2.ServerErrorTokenExpired, Summary: "token expired"}
	}
	account, err := r.accounts.GetAccountByID(xl, record.AccountId)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, notLoggedIn
		}
		return nil, err
	}
	return account, nil
}

// EnsureAdmin 创建初始管理员账号，已存在时跳过。
func (r *Registration) EnsureAdmin(xl *xlog.Logger, username string, password string) error {
	if xl == nil {
		xl = r.xl
	}
	if username == "" || password == "" {
		return nil
	}
	_, err := r.accounts.GetAccountByUsername(xl, username)
	if err == nil {
		return nil
	}
	if err != store.ErrNotFound {
		return err
	}
	_, err = r.CreateStaffAccount(xl, &form.AccountCreateForm{
		Username: username,
		Password: password,
		Role:     model.RoleAdmin,
	})
	return err
}

// VerifyInterviewStatus 公开查询面试结果。
func (r *Registration) VerifyInterviewStatus(xl *xlog.Logger, nationalID string) (*model.InterviewStatusResponse, error) {
	if xl == nil {
		xl = r.xl
	}
	candidate, err := r.candidates.GetCandidateByNationalID(xl, nationalID)
	if err != nil {
		return nil, notFound("candidate", err)
	}
	return &model.InterviewStatusResponse{
		ConductedInterview: candidate.ConductedInterview,
		PassedInterview:    candidate.PassedInterview,
	}, nil
}
