package cloud

import (
	"fmt"
	"time"

	"github.com/joalafu15/Backend/internal/common/utils"
	errors2 "github.com/joalafu15/Backend/internal/protodef/errors"
	"github.com/joalafu15/Backend/internal/protodef/model"

	"github.com/qiniu/x/xlog"
	rcsdk "github.com/rongcloud/server-sdk-go/v3/sdk"
)

// DefaultPortraitURL 默认IM头像地址。
const DefaultPortraitURL = "https://developer.rongcloud.cn/static/images/newversion-logo.png"

// IMService 在IM中注册用户并获取token。
type IMService interface {
	Register(xl *xlog.Logger, userID string, name string) (*model.IMUser, error)
}

// NewIMService 按配置创建IM服务。
func NewIMService(conf *utils.Config, xl *xlog.Logger) (IMService, error) {
	switch conf.IM.Provider {
	case "test":
		return &mockIMService{}, nil
	case "rongcloud":
		if conf.IM.RongCloud == nil {
			return nil, fmt.Errorf("rongcloud is not configured")
		}
		return NewRongCloudIMService(conf.IM.RongCloud, xl), nil
	default:
		xl.Errorf("unsupported IM provider %s", conf.IM.Provider)
		return nil, fmt.Errorf("unsupported IM provider")
	}
}

type mockIMService struct {
}

func (m *mockIMService) Register(xl *xlog.Logger, userID string, name string) (*model.IMUser, error) {
	return &model.IMUser{UserID: userID, Token: "mock-" + userID, LastRegisterTime: time.Now()}, nil
}

// RongCloudIMService 融云IM，候选人通过它与面试委员会沟通。
type RongCloudIMService struct {
	rongCloudClient *rcsdk.RongCloud
	xl              *xlog.Logger
}

func NewRongCloudIMService(conf *utils.RongCloudIMConfig, xl *xlog.Logger) *RongCloudIMService {
	if xl == nil {
		xl = xlog.New("hiring-rongcloud-im")
	}
	return &RongCloudIMService{
		rongCloudClient: rcsdk.NewRongCloud(conf.AppKey, conf.AppSecret),
		xl:              xl,
	}
}

// Register 用户注册，生成User token
func (c *RongCloudIMService) Register(xl *xlog.Logger, userID string, name string) (*model.IMUser, error) {
	if xl == nil {
		xl = c.xl
	}
	userRes, err := c.rongCloudClient.UserRegister(userID, name, DefaultPortraitURL)
	if err != nil {
		xl.Errorf("failed to get user token from rongcloud, error %v", err)
		return nil, serviceError(errors2.ServerErrorIMRegisterFail, err)
	}
	return &model.IMUser{
		UserID:           userRes.UserID,
		Token:            userRes.Token,
		LastRegisterTime: time.Now(),
	}, nil
}
