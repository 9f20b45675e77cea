package model

type ResponseError struct {
	// 自定义错误码。
	Code int `json:"code"`
	// 请求ID。
	RequestID string `json:"requestID"`
	// Message
	Message string `json:"message"`
}

const (
	ResponseErrorBadRequest         = 400000
	ResponseErrorNotLoggedIn        = 401001
	ResponseErrorWrongSMSCode       = 401002
	ResponseErrorBadToken           = 401003
	ResponseErrorWrongPassword      = 401004
	ResponseErrorValidation         = 401005
	ResponseErrorUnauthorized       = 401000
	ResponseErrorForbidden          = 403000
	ResponseErrorNotFound           = 404000
	ResponseErrorConflict           = 409000
	ResponseErrorPrecondition       = 412000
	ResponseErrorTooManyRequests    = 429000
	ResponseErrorSMSSendTooFrequent = 429001
	ResponseErrorInternal           = 500000
	ResponseErrorPartialFailure     = 500001
	ResponseErrorExternalService    = 502001
)

// NewResponseErrorBadRequest 参数错误。
func NewResponseErrorBadRequest() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorBadRequest,
		Message: "bad request",
	}
}

// NewResponseErrorNotLoggedIn 用户未登录。
func NewResponseErrorNotLoggedIn() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorNotLoggedIn,
		Message: "not logged in",
	}
}

// NewResponseErrorWrongSMSCode 用户短信验证码错误。
func NewResponseErrorWrongSMSCode() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorWrongSMSCode,
		Message: "wrong sms code",
	}
}

// NewResponseErrorBadToken 登录token错误。
func NewResponseErrorBadToken() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorBadToken,
		Message: "bad token",
	}
}

func NewResponseErrorWrongPassword() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorWrongPassword,
		Message: "wrong username or password",
	}
}

// NewResponseErrorSMSSendTooFrequent 短信验证码已发送，短时间内不能重复发送。
func NewResponseErrorSMSSendTooFrequent() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorSMSSendTooFrequent,
		Message: "send sms code request limited",
	}
}

// NewResponseErrorInternal 其他内部服务错误。
func NewResponseErrorInternal() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorInternal,
		Message: "internal server error",
	}
}

// NewResponseErrorExternalService 调用外部服务错误。
func NewResponseErrorExternalService() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorExternalService,
		Message: "calling external service failed",
	}
}

// NewResponseErrorUnauthorized 一般的HTTP Unauthorized 错误。
func NewResponseErrorUnauthorized() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorUnauthorized,
		Message: "unauthorized",
	}
}

func NewResponseErrorForbidden() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorForbidden,
		Message: "forbidden",
	}
}

func NewResponseErrorNotFound() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorNotFound,
		Message: "not found",
	}
}

// NewResponseErrorPrecondition 前置条件不满足。
func NewResponseErrorPrecondition() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorPrecondition,
		Message: "precondition failed",
	}
}

// NewResponseErrorPartialFailure 多步操作只完成了一部分。
func NewResponseErrorPartialFailure() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorPartialFailure,
		Message: "partially completed",
	}
}

// NewResponseErrorTooManyRequests 请求过于频繁。
func NewResponseErrorTooManyRequests() *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorTooManyRequests,
		Message: "too many requests",
	}
}

func NewResponseErrorValidation(err error) *ResponseError {
	return &ResponseError{
		Code:    ResponseErrorValidation,
		Message: err.Error(),
	}
}

func NewResponseError(code int, message string) *ResponseError {
	return &ResponseError{
		Code:    code,
		Message: message,
	}
}
