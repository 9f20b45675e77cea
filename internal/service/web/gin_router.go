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


package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/joalafu15/Backend/internal/common/utils"
	"github.com/joalafu15/Backend/internal/protodef/model"
	"github.com/joalafu15/Backend/internal/service/bulk"
	"github.com/joalafu15/Backend/internal/service/web/handler"
	"github.com/joalafu15/Backend/internal/service/web/middleware"
	"github.com/joalafu15/Backend/internal/service/workflow"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/qiniu/x/xlog"
)

// Dependencies 路由使用的服务。
type Dependencies struct {
	Services   *workflow.Services
	Reconciler *bulk.Reconciler
	Actions    middleware.ActionSaver
	// Limiter 为空时使用进程内限流。
	Limiter middleware.Limiter
	// FilesDir 本地存储附件的目录，通过 /files 提供下载。为空表示附件不在本地。
	FilesDir string
}

// NewRouter 返回gin router，分流API。
func NewRouter(config *utils.Config, deps Dependencies) (*gin.Engine, error) {
	if deps.Services == nil || deps.Reconciler == nil {
		return nil, errors.New("workflow services and bulk reconciler are required")
	}
	// 1. 初始化GIN
	router := gin.New()
	router.Use(gin.Recovery())
	// 1.1. 全局CORS配置
	router.Use(corsMiddleware())

	// 2. 声明Handler
	services := deps.Services
	accountApiHandler := &handler.AccountApiHandler{Registration: services.Registration}
	candidateApiHandler := &handler.CandidateApiHandler{
		Lifecycle: services.Lifecycle,
		Gate:      services.Gate,
		Allocator: services.Allocator,
	}
	fileApiHandler := &handler.FileApiHandler{Attachments: services.Attachments}
	adminApiHandler := &handler.AdminApiHandler{
		Lifecycle: services.Lifecycle,
		Outcomes:  services.Outcomes,
		Settings:  services.Settings,
		Allocator: services.Allocator,
	}
	bulkApiHandler := &handler.BulkApiHandler{Reconciler: deps.Reconciler, UploadDir: config.Upload.Dir}

	limiter := deps.Limiter
	if limiter == nil {
		limiter = middleware.NewMemoryLimiter(config.SMS.RateLimit, time.Duration(config.SMS.RateWindowSecond)*time.Second)
	}
	if deps.FilesDir != "" {
		router.Static("/files", deps.FilesDir)
	}

	// 3. 配置V1路径
	v1 := router.Group("/v1", addRequestID, middleware.ActionLogMiddleware(deps.Actions))
	{
		// 3.1 注册，受 lockPhase1 限制
		v1.POST("/registration/verify-national-id", accountApiHandler.VerifyNationalID)
		v1.POST("/registration/otp", middleware.RateLimit(limiter, "otp"), accountApiHandler.SendOtp)
		v1.POST("/registration/sign-up", middleware.RateLimit(limiter, "sign-up"), accountApiHandler.SignUp)
		// 3.2 登录
		v1.POST("/login", accountApiHandler.Login)
		// 3.3 公开查询面试结果
		v1.GET("/interview-status/:nationalId", accountApiHandler.VerifyInterviewStatus)
	}

	auth := v1.Group("", middleware.Authenticate(services.Registration))
	{
		auth.POST("/logout", accountApiHandler.Logout)
		auth.GET("/accountInfo", accountApiHandler.GetAccountInfo)
		auth.POST("/update-password", accountApiHandler.UpdatePassword)
	}

	// 4. 候选人接口，候选人只能访问自己的记录
	candidate := auth.Group("/candidates/:id", middleware.RequireCandidateAccess("id"))
	{
		candidate.GET("", candidateApiHandler.GetCandidate)
		candidate.PUT("/information", candidateApiHandler.UpdateInformation)
		candidate.POST("/accept-terms", candidateApiHandler.AcceptTerms)
		candidate.POST("/accept-offer", candidateApiHandler.AcceptOffer)
		candidate.POST("/submit-information", candidateApiHandler.SubmitInformation)
		candidate.POST("/submit-attachments", candidateApiHandler.SubmitAttachments)
		candidate.GET("/sector-preferences", candidateApiHandler.ListSectorPreferences)
		candidate.POST("/sector-preferences", candidateApiHandler.SaveSectorPreferences)
		candidate.GET("/school-preferences", candidateApiHandler.ListSchoolPreferences)
		candidate.GET("/available-sectors", candidateApiHandler.ListAvailableSectors)
		candidate.GET("/available-schools", candidateApiHandler.ListAvailableSchools)
		candidate.POST("/school-preferences", candidateApiHandler.SaveSchoolPreferences)
		candidate.GET("/settings", candidateApiHandler.GetSettings)
		candidate.GET("/interview-slots", candidateApiHandler.ListEligibleSlots)
		candidate.POST("/interview-slot", candidateApiHandler.BookInterviewSlot)
		candidate.GET("/onboarding-instructions", candidateApiHandler.OnboardingInstructions)
		candidate.GET("/attachments", fileApiHandler.List)
		candidate.GET("/attachments/:type", fileApiHandler.Get)
		candidate.POST("/attachments/:type", fileApiHandler.Upload)
		candidate.DELETE("/attachments/:type", middleware.RequireRole(model.RoleAdmin, model.RoleOperations), fileApiHandler.Remove)
		candidate.PUT("/outcomes/:outcome",
			middleware.RequireRole(model.RoleAdmin, model.RoleOperations, model.RoleCommittee), adminApiHandler.SetOutcome)
	}

	// 5. 工作人员接口
	staff := auth.Group("", middleware.RequireRole(model.RoleAdmin, model.RoleOperations, model.RoleCommittee))
	{
		staff.GET("/reports/candidates", adminApiHandler.CandidateReport)
		staff.GET("/interview-slots", adminApiHandler.ListSlots)
		staff.GET("/interview-slots/:slotId/candidates", adminApiHandler.ListSlotCandidates)
	}
	operations := auth.Group("", middleware.RequireRole(model.RoleAdmin, model.RoleOperations))
	{
		operations.POST("/candidates", candidateApiHandler.CreateCandidate)
		operations.POST("/interview-slots", adminApiHandler.CreateSlot)
		operations.POST("/bulk/:operation", bulkApiHandler.Run)
	}
	admin := auth.Group("", middleware.RequireRole(model.RoleAdmin))
	{
		admin.GET("/settings/:name", adminApiHandler.GetSetting)
		admin.PUT("/settings/:name", adminApiHandler.PutSetting)
		admin.POST("/accounts", accountApiHandler.CreateStaffAccount)
	}

	router.NoRoute(addRequestID, returnNotFound)
	return router, nil
}

func addRequestID(c *gin.Context) {
	requestID := ""
	if requestID = c.Request.Header.Get(model.RequestIDHeader); requestID == "" {
		requestID = utils.NewReqID()
		c.Request.Header.Set(model.RequestIDHeader, requestID)
	}
	xl := xlog.New(requestID)
	xl.Debugf("request: %s %s", c.Request.Method, c.Request.URL.Path)
	c.Set(model.XLogKey, xl)
	c.Set(model.RequestStartKey, time.Now())
}

func returnNotFound(c *gin.Context) {
	xl := c.MustGet(model.XLogKey).(*xlog.Logger)
	xl.Debugf("%s %s: not found", c.Request.Method, c.Request.URL.Path)
	responseErr := model.NewResponseErrorNotFound()
	resp := model.NewFailResponse(*responseErr).WithRequestID(xl.ReqId)
	c.JSON(http.StatusOK, resp)
}

func corsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"POST", "OPTIONS", "GET", "PUT", "DELETE", "HEAD"},
		AllowHeaders: []string{"Content-Type", "Content-Length", "Accept-Encoding", "Authorization",
			"Accept", "Origin", "Cache-Control", "X-Requested-With", model.RequestIDHeader},
		ExposeHeaders: []string{model.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	})
}
