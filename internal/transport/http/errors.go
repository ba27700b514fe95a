package httptransport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"marinerefuge/backend/internal/service"
	"marinerefuge/backend/internal/storage"
)

// errorMapping 业务错误 -> HTTP 状态码与对外消息
type errorMapping struct {
	status int
	msg    string
	// details 为 true 时附带底层错误信息
	details bool
}

// 错误映射表，按 errors.Is 匹配
var errorMappings = []struct {
	err error
	errorMapping
}{
	// 订阅
	{service.ErrEmailRequired, errorMapping{http.StatusBadRequest, MsgEmailRequired, false}},
	{service.ErrInvalidEmail, errorMapping{http.StatusBadRequest, MsgInvalidEmail, false}},
	{service.ErrAlreadySubscribed, errorMapping{http.StatusConflict, MsgAlreadySubscribed, false}},
	{service.ErrInvalidSubscriber, errorMapping{http.StatusBadRequest, MsgInvalidSubscriber, true}},
	{service.ErrSubscriberNotFound, errorMapping{http.StatusNotFound, MsgSubscriberNotFound, false}},

	// 联系表单
	{service.ErrMissingFields, errorMapping{http.StatusBadRequest, MsgMissingFields, false}},
	{service.ErrMessageTooShort, errorMapping{http.StatusBadRequest, MsgMessageTooShort, false}},
	{service.ErrFieldTooLong, errorMapping{http.StatusBadRequest, MsgFieldTooLong, false}},
	{service.ErrInvalidContact, errorMapping{http.StatusBadRequest, MsgInvalidContact, true}},
	{service.ErrContactNotFound, errorMapping{http.StatusNotFound, MsgContactNotFound, false}},

	{storage.ErrUnavailable, errorMapping{http.StatusServiceUnavailable, MsgServiceUnavailable, false}},
}

// 对外错误消息
const (
	MsgInvalidRequest     = "Invalid request body"
	MsgBodyTooLarge       = "Request body too large"
	MsgServiceUnavailable = "Service temporarily unavailable"

	MsgEmailRequired      = "Email is required"
	MsgInvalidEmail       = "Invalid email format"
	MsgAlreadySubscribed  = "This email is already subscribed"
	MsgInvalidSubscriber  = "Invalid email data"
	MsgSubscriberNotFound = "Subscriber not found"
	MsgSubscribeFailed    = "An error occurred while processing your subscription"
	MsgUnsubscribeFailed  = "An error occurred while processing your request"
	MsgCountFailed        = "Failed to fetch subscriber count"

	MsgMissingFields   = "All fields are required"
	MsgMessageTooShort = "Message must be at least 10 characters long"
	MsgFieldTooLong    = "One or more fields exceed the maximum length"
	MsgInvalidContact  = "Invalid contact data"
	MsgContactNotFound = "Contact not found"
	MsgContactFailed   = "Failed to process your message. Please try again later."
	MsgListFailed      = "Failed to fetch contacts"
	MsgMarkReadFailed  = "Failed to update contact"
)

// respondError 按映射表写出错误响应，未知错误记录日志并返回 500 与 fallback 消息
func respondError(c *gin.Context, log *zap.Logger, err error, fallback string) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.err) {
			continue
		}
		if m.status >= http.StatusInternalServerError {
			log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		}
		if m.details {
			FailWithDetails(c, m.status, m.msg, err.Error())
			return
		}
		Fail(c, m.status, m.msg)
		return
	}

	log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	_ = c.Error(err)
	InternalError(c, fallback)
}
