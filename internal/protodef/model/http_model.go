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

package model

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

/*
	http_model.go: API 的参数与返回值定义，***Args 表示 *** 接口的参数，***Response 表示 *** 接口的返回体格式。
*/

const (
	// RequestIDHeader request ID 头部。
	RequestIDHeader = "X-Reqid"
	// XLogKey gin context中，用于获取记录请求相关日志的 xlog logger的key。
	XLogKey = "xlog-logger"

	// UserIDContextKey 存放在请求context 中的用户ID。
	UserIDContextKey = "userID"
	// UserContextKey 存放用户对象
	UserContextKey = "user"

	//ActionLogContentKey 用于存放log
	ActionLogContentKey = "action-log"

	// RequestStartKey 存放在gin context中的请求开始的时间戳，单位为纳秒。
	RequestStartKey = "request-start-timestamp-nano"

	// 状态码和状态信息
	ResponseStatusCodeSuccess    ResponseStatusCode    = 0
	ResponseStatusMessageSuccess ResponseStatusMessage = "success"
)

// 状态码和状态信息
type ResponseStatusCode int
type ResponseStatusMessage string

type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	RequestID string      `json:"requestId"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Code:    int(ResponseStatusCodeSuccess),
		Message: string(ResponseStatusMessageSuccess),
		Data:    data,
	}
}

func NewFailResponse(err ResponseError) *Response {
	return &Response{
		Code:    err.Code,
		Message: err.Message,
	}
}

func (r *Response) WithRequestID(requestID string) *Response {
	r.RequestID = requestID
	return r
}

func (r *Response) WithErrorMessage(message string) *Response {
	r.Message = message
	return r
}

func (r *Response) Send(c *gin.Context) {
	c.JSON(http.StatusOK, r)
}

// LoginArgs 登录参数。
type LoginArgs struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse 登录的返回结果。
type LoginResponse struct {
	Account *AccountDo `json:"account"`
	Token   string     `json:"token"`
	// IMToken 融云IM的用户token，IM不可用时为空。
	IMToken string `json:"imToken,omitempty"`
}

// SendOtpResponse 发送验证码的返回结果，手机号做脱敏处理。
type SendOtpResponse struct {
	Success     bool   `json:"success"`
	PhoneNumber string `json:"phoneNumber"`
}

type InterviewStatusResponse struct {
	ConductedInterview *bool `json:"conductedInterview"`
	PassedInterview    *bool `json:"passedInterview"`
}

// PreferencesResponse 保存志愿后的结果。
type PreferencesResponse struct {
	Preferences       []PreferenceDo `json:"preferences"`
	PhaseOneSubmitted bool           `json:"phaseOneSubmitted"`
}

type OnboardingInstructionsResponse struct {
	Value string `json:"value"`
}

type CountResponse struct {
	Count int `json:"count"`
}

// FailedEntry 批量导入中失败的一行。
type FailedEntry struct {
	File             string `json:"file,omitempty" yaml:"file,omitempty"`
	Row              int    `json:"row" yaml:"row"`
	NationalIDNumber string `json:"nationalIdNumber,omitempty" yaml:"nationalIdNumber,omitempty"`
	Reason           string `json:"reason" yaml:"reason"`
}

// BulkReport 批量导入、更新、分配的结果。
type BulkReport struct {
	Operation     string        `json:"operation" yaml:"operation"`
	Success       int           `json:"success" yaml:"success"`
	Skipped       int           `json:"skipped" yaml:"skipped"`
	Failures      int           `json:"failures" yaml:"failures"`
	FailedEntries []FailedEntry `json:"failedEntries" yaml:"failedEntries"`
	// IgnoredColumns 表头中不在允许列表内的列，这些列不会写入候选人。
	IgnoredColumns []string `json:"ignoredColumns,omitempty" yaml:"ignoredColumns,omitempty"`
}
