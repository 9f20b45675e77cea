package db

import (
	"time"

	"github.com/joalafu15/Backend/internal/protodef/model"
	"github.com/joalafu15/Backend/internal/service/db/dao"

	"github.com/qiniu/x/xlog"
	"gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"
)

// AccountService 用户注册、登录、退出登录等操作。
type AccountService struct {
	accountColl      *mgo.Collection
	accountTokenColl *mgo.Collection
	xl               *xlog.Logger
}

func NewAccountService(database *mgo.Database, xl *xlog.Logger) *AccountService {
	if xl == nil {
		xl = xlog.New("hiring-account-db")
	}
	return &AccountService{
		accountColl:      database.C(dao.CollectionAccount),
		accountTokenColl: database.C(dao.CollectionAccountToken),
		xl:               xl,
	}
}

// CreateAccount 创建用户账号。
func (c *AccountService) CreateAccount(xl *xlog.Logger, account *model.AccountDo) error {
	if xl == nil {
		xl = c.xl
	}
	if account.ID == "" {
		account.ID = bson.NewObjectId().Hex()
	}
	if account.RegisterTime.IsZero() {
		account.RegisterTime = time.Now()
	}
	err := c.accountColl.Insert(account)
	if err != nil {
		xl.Errorf("failed to insert user, error %v", err)
		return mapErr(err)
	}
	return nil
}

// GetAccountByID 使用ID查找账号。
func (c *AccountService) GetAccountByID(xl *xlog.Logger, id string) (*model.AccountDo, error) {
	return c.GetAccountByFields(xl, bson.M{"_id": id})
}

// GetAccountByUsername 使用用户名查找账号，候选人的用户名即身份证号。
func (c *AccountService) GetAccountByUsername(xl *xlog.Logger, username string) (*model.AccountDo, error) {
	return c.GetAccountByFields(xl, bson.M{"username": username})
}

// GetAccountByFields 根据一组key/value关系查找用户账号。
func (c *AccountService) GetAccountByFields(xl *xlog.Logger, fields bson.M) (*model.AccountDo, error) {
	if xl == nil {
		xl = c.xl
	}
	account := model.AccountDo{}
	err := c.accountColl.Find(fields).One(&account)
	if err != nil {
		if err == mgo.ErrNotFound {
			xl.Infof("no such user for fields %v", fields)
		} else {
			xl.Errorf("failed to get user %v, error %v", fields, err)
		}
		return nil, mapErr(err)
	}
	return &account, nil
}

// TouchLogin 更新最后登录时间。
func (c *AccountService) TouchLogin(xl *xlog.Logger, id string, at time.Time) error {
	if xl == nil {
		xl = c.xl
	}
	err := c.accountColl.Update(bson.M{"_id": id}, bson.M{"$set": bson.M{"lastLoginTime": at}})
	if err != nil {
		xl.Errorf("failed to update user %s login time, error %v", id, err)
		return mapErr(err)
	}
	return nil
}

func (c *AccountService) UpdatePassword(xl *xlog.Logger, id string, passwordHash string) error {
	if xl == nil {
		xl = c.xl
	}
	err := c.accountColl.Update(bson.M{"_id": id}, bson.M{"$set": bson.M{"passwordHash": passwordHash}})
	if err != nil {
		xl.Errorf("failed to update password of user %s, error %v", id, err)
		return mapErr(err)
	}
	return nil
}

// PutToken 保存登录记录，同一账号只保留最新的一个token。
func (c *AccountService) PutToken(xl *xlog.Logger, token *model.AccountTokenDo) error {
	if xl == nil {
		xl = c.xl
	}
	token.ID = token.AccountId
	_, err := c.accountTokenColl.UpsertId(token.ID, token)
	if err != nil {
		xl.Errorf("failed to update or insert user login record, error %v", err)
		return err
	}
	return nil
}

func (c *AccountService) GetToken(xl *xlog.Logger, token string) (*model.AccountTokenDo, error) {
	if xl == nil {
		xl = c.xl
	}
	record := model.AccountTokenDo{}
	err := c.accountTokenColl.Find(bson.M{"token": token}).One(&record)
	if err != nil {
		if err != mgo.ErrNotFound {
			xl.Errorf("failed to check logged in users in mongo, error %v", err)
		}
		return nil, mapErr(err)
	}
	return &record, nil
}

// DeleteToken 退出登录。
func (c *AccountService) DeleteToken(xl *xlog.Logger, accountID string) error {
	if xl == nil {
		xl = c.xl
	}
	err := c.accountTokenColl.RemoveId(accountID)
	if err != nil && err != mgo.ErrNotFound {
		xl.Errorf("failed to remove user %s from logged in users, error %v", accountID, err)
		return err
	}
	return nil
}
