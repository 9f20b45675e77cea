// Copyright 2020 Qiniu Cloud (qiniu.com)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package utils

import (
	"log"
	"os"

	qconfig "github.com/qiniu/x/config"
)

var (
	DefaultConf Config
)

func InitConf(configFilePath string) {
	err := qconfig.LoadFile(&DefaultConf, configFilePath)
	if err != nil {
		log.Fatalf("failed to load config file, error %v", err)
	}
	DefaultConf.FillDefault()
}

const (
	StoreProviderMongo  = "mongo"
	StoreProviderMemory = "memory"

	// OverbookingStrict books a seat with a single conditional increment.
	OverbookingStrict = "strict"
	// OverbookingLegacy validates the slot and increments it in two separate steps.
	OverbookingLegacy = "legacy"
)

// MongoConfig mongo 数据库配置。
type MongoConfig struct {
	URI      string `json:"uri"`
	Database string `json:"database"`
}

// RedisConfig redis 连接配置，为空时限流退化为进程内计数。
type RedisConfig struct {
	URL string `json:"url"`
}

// QiniuKeyPair 七牛APIaccess key/secret key配置。
type QiniuKeyPair struct {
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
}

// QiniuSMSConfig 七牛云短信配置。
type QiniuSMSConfig struct {
	SignatureID string `json:"signature_id"`
	TemplateID  string `json:"template_id"`
	// NoticeTemplateID 通知类短信模板，模板变量为 message。
	NoticeTemplateID string `json:"notice_template_id"`
}

// SMSGatewayConfig is an HTTP SMS gateway answering with {"success":bool,"errorCode":...}.
type SMSGatewayConfig struct {
	URL           string `json:"url"`
	AppSid        string `json:"app_sid"`
	SenderName    string `json:"sender_name"`
	TimeoutSecond int    `json:"timeout_s"`
	// CountryCode replaces the leading 0 of local numbers.
	CountryCode string `json:"country_code"`
}

// MailConfig 发送邮件的配置。
type MailConfig struct {
	Enabled  bool     `json:"enabled"`
	SMTPHost string   `json:"smtp_host"`
	SMTPPort int      `json:"smtp_port"`
	From     string   `json:"from"`
	Username string   `json:"username"`
	Password string   `json:"password"`
	To       []string `json:"to"`
}

// SMSConfig 短信服务配置。
type SMSConfig struct {
	Provider string `json:"provider"`
	// FixedCodes 固定的手机号->验证码组合，供测试用。
	FixedCodes map[string]string `json:"fixed_codes,omitempty"`
	QiniuSMS   *QiniuSMSConfig   `json:"qiniu_sms"`
	Gateway    *SMSGatewayConfig `json:"gateway"`
	// RateLimit OTP requests allowed per key within RateWindowSecond.
	RateLimit        int `json:"rate_limit"`
	RateWindowSecond int `json:"rate_window_s"`
}

// QiniuStorageConfig 七牛对象存储服务配置。
type QiniuStorageConfig struct {
	// Bucket 上传的文件所在的七牛对象存储bucket。
	Bucket string `json:"bucket"`
	// URLPrefix 上传的文件的下载URL前缀，一般为该bucket对应的默认域名。
	URLPrefix string `json:"url_prefix"`
}

// StorageConfig chooses where candidate attachments are kept.
type StorageConfig struct {
	Provider string              `json:"provider"`
	LocalDir string              `json:"local_dir"`
	Qiniu    *QiniuStorageConfig `json:"qiniu"`
}

// RongCloudIMConfig 融云IM服务配置。
type RongCloudIMConfig struct {
	AppKey    string `json:"app_key"`
	AppSecret string `json:"app_secret"`
}

// IMConfig IM服务配置。
type IMConfig struct {
	Provider  string             `json:"provider"`
	RongCloud *RongCloudIMConfig `json:"rongcloud"`
}

// DiscordConfig ops channel receiving bulk import summaries and audit drift.
type DiscordConfig struct {
	BotToken  string `json:"bot_token"`
	ChannelID string `json:"channel_id"`
}

type SlotConfig struct {
	Overbooking string `json:"overbooking"`
}

type UploadConfig struct {
	// Dir holds spreadsheets received by the bulk endpoints until they are parsed.
	Dir           string `json:"dir"`
	MaxFileSizeMB int    `json:"max_file_size_mb"`
	// BulkWorkers bounds the rows a bulk operation writes concurrently.
	BulkWorkers int `json:"bulk_workers"`
}

// AdminConfig 启动时创建的初始管理员账号，已存在时跳过。
type AdminConfig struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type TaskConfig struct {
	SlotAuditMinutes int `json:"slot_audit_minutes"`
}

// Config 后端配置。
type Config struct {
	// debug等级，为1时输出info/warn/error日志，为0除以上外还输出debug日志
	DebugLevel       int            `json:"debug_level"`
	ListenAddr       string         `json:"listen_addr"`
	StoreProvider    string         `json:"store_provider"`
	Mongo            *MongoConfig   `json:"mongo"`
	Redis            *RedisConfig   `json:"redis"`
	QiniuKeyPair     QiniuKeyPair   `json:"qiniu_key_pair"`
	SMS              *SMSConfig     `json:"sms"`
	Mail             *MailConfig    `json:"mail"`
	Storage          *StorageConfig `json:"storage"`
	IM               *IMConfig      `json:"im"`
	Discord          *DiscordConfig `json:"discord"`
	Slots            SlotConfig     `json:"slots"`
	Upload           UploadConfig   `json:"upload"`
	Tasks            TaskConfig     `json:"tasks"`
	Admin            AdminConfig    `json:"admin"`
	JwtKey           string         `json:"jwt_key"`
	TokenExpireHours int            `json:"token_expire_hours"`
}

// FillDefault completes sections that were left out of the config file.
func (c *Config) FillDefault() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.StoreProvider == "" {
		c.StoreProvider = StoreProviderMongo
	}
	if c.SMS == nil {
		c.SMS = &SMSConfig{Provider: "test"}
	}
	if c.SMS.RateLimit == 0 {
		c.SMS.RateLimit = 3
	}
	if c.SMS.RateWindowSecond == 0 {
		c.SMS.RateWindowSecond = 600
	}
	if c.Storage == nil {
		c.Storage = &StorageConfig{Provider: "local"}
	}
	if c.Storage.LocalDir == "" {
		c.Storage.LocalDir = "files"
	}
	if c.IM == nil {
		c.IM = &IMConfig{Provider: "test"}
	}
	if c.Slots.Overbooking == "" {
		c.Slots.Overbooking = OverbookingStrict
	}
	if c.Upload.Dir == "" {
		c.Upload.Dir = os.TempDir()
	}
	if c.Upload.MaxFileSizeMB == 0 {
		c.Upload.MaxFileSizeMB = 10
	}
	if c.Upload.BulkWorkers == 0 {
		c.Upload.BulkWorkers = 8
	}
	if c.Tasks.SlotAuditMinutes == 0 {
		c.Tasks.SlotAuditMinutes = 60
	}
	if c.TokenExpireHours == 0 {
		c.TokenExpireHours = 24 * 7
	}
}

// NewSample 返回样例配置。
func NewSample() *Config {
	c := &Config{
		DebugLevel:    0,
		ListenAddr:    ":8080",
		StoreProvider: StoreProviderMongo,
		Mongo: &MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "hiring_test",
		},
		Redis: &RedisConfig{URL: os.Getenv("REDIS_URL")},
		SMS: &SMSConfig{
			Provider: "test",
			QiniuSMS: &QiniuSMSConfig{
				SignatureID: os.Getenv("QINIU_SMS_SIGN_ID"),
				TemplateID:  os.Getenv("QINIU_SMS_TEMP_ID"),
			},
		},
		IM: &IMConfig{
			Provider: "test",
			RongCloud: &RongCloudIMConfig{
				AppKey:    os.Getenv("RONGCLOUD_APP_KEY"),
				AppSecret: os.Getenv("RONGCLOUD_APP_SECRET"),
			},
		},
		Discord: &DiscordConfig{
			BotToken:  os.Getenv("DISCORD_BOT_TOKEN"),
			ChannelID: os.Getenv("DISCORD_CHANNEL_ID"),
		},
		Admin: AdminConfig{
			Username: os.Getenv("ADMIN_USERNAME"),
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
		JwtKey: os.Getenv("JWT_KEY"),
	}
	c.FillDefault()
	return c
}
