package form

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joalafu15/Backend/internal/protodef/model"
)

const MinPasswordLength = 8

type NationalIDForm struct {
	NationalIDNumber string `json:"nationalIdNumber"`
}

func (f *NationalIDForm) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.NationalIDNumber, validation.Required, validation.Match(RegNationalID).Error(ErrNationalIDMsg)),
	)
}

// SignUpForm 候选人使用短信验证码注册。
type SignUpForm struct {
	NationalIDNumber string `json:"nationalIdNumber"`
	Code             string `json:"code"`
	Password         string `json:"password"`
}

func (f *SignUpForm) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.NationalIDNumber, validation.Required, validation.Match(RegNationalID).Error(ErrNationalIDMsg)),
		validation.Field(&f.Code, validation.Required, is.Digit, validation.Length(6, 6)),
		validation.Field(&f.Password, validation.Required, validation.Length(MinPasswordLength, 128)),
	)
}

type LoginForm struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (f *LoginForm) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Username, validation.Required),
		validation.Field(&f.Password, validation.Required),
	)
}

// PasswordUpdateForm 登录用户修改自己的密码。
type PasswordUpdateForm struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (f *PasswordUpdateForm) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.OldPassword, validation.Required),
		validation.Field(&f.NewPassword, validation.Required, validation.Length(MinPasswordLength, 128)),
	)
}

// AccountCreateForm 管理员创建工作人员账号。
type AccountCreateForm struct {
	Username         string     `json:"username"`
	Password         string     `json:"password"`
	Email            string     `json:"email"`
	Role             model.Role `json:"role"`
	AdministrationID string     `json:"administrationId"`
}

func (f *AccountCreateForm) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Username, validation.Required, validation.Length(3, 64)),
		validation.Field(&f.Password, validation.Required, validation.Length(MinPasswordLength, 128)),
		validation.Field(&f.Email, is.EmailFormat),
		validation.Field(&f.Role, validation.Required,
			validation.In(model.RoleAdmin, model.RoleCommittee, model.RoleOperations)),
		validation.Field(&f.AdministrationID,
			validation.When(f.Role == model.RoleCommittee, validation.Required)),
	)
}

type SettingForm struct {
	Active *bool  `json:"active"`
	Value  string `json:"value"`
}

func (f *SettingForm) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Active, validation.NotNil),
	)
}
