package httptransport

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"marinerefuge/backend/internal/domain"
	"marinerefuge/backend/internal/service"
)

// Subscriptions 订阅业务，*service.SubscriptionService 满足
type Subscriptions interface {
	Subscribe(ctx context.Context, email string) (*service.SubscribeResult, error)
	Unsubscribe(ctx context.Context, email string) (*domain.Subscriber, error)
	CountActive(ctx context.Context) (int64, error)
}

// SubscriptionHandler 订阅相关接口
type SubscriptionHandler struct {
	subscriptions Subscriptions
	logger        *zap.Logger
}

// NewSubscriptionHandler 创建订阅处理器
func NewSubscriptionHandler(subscriptions Subscriptions, logger *zap.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: subscriptions, logger: logger}
}

type subscribeRequest struct {
	Email string `json:"email"`
}

type subscriberData struct {
	Email        string    `json:"email"`
	SubscribedAt time.Time `json:"subscribedAt"`
}

const welcomeWarning = "Email delivery failed. Please check the email provider configuration."

// Subscribe POST /api/subscribe
//
// 新订阅返回 201；已退订地址重新激活返回 200。
// 新订阅的欢迎邮件发送失败时仍返回 201，并附带 warning。
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.subscriptions.Subscribe(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, h.logger, err, MsgSubscribeFailed)
		return
	}

	data := subscriberData{
		Email:        result.Subscriber.Email,
		SubscribedAt: result.Subscriber.SubscribedAt,
	}

	switch {
	case result.Reactivated:
		SuccessWithMsg(c, http.StatusOK, "Successfully resubscribed to the newsletter", data)
	case result.WelcomeEmailErr != nil:
		SuccessWithWarning(c, http.StatusCreated,
			"Successfully subscribed, but welcome email could not be sent", welcomeWarning, data)
	default:
		SuccessWithMsg(c, http.StatusCreated, "Successfully subscribed to the newsletter", data)
	}
}

// Unsubscribe POST /api/unsubscribe
func (h *SubscriptionHandler) Unsubscribe(c *gin.Context) {
	var req subscribeRequest
	if !bindJSON(c, &req) {
		return
	}

	sub, err := h.subscriptions.Unsubscribe(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, h.logger, err, MsgUnsubscribeFailed)
		return
	}

	SuccessWithMsg(c, http.StatusOK, "Successfully unsubscribed from the newsletter", gin.H{
		"email": sub.Email,
	})
}

// Count GET /api/subscribers/count
func (h *SubscriptionHandler) Count(c *gin.Context) {
	n, err := h.subscriptions.CountActive(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, MsgCountFailed)
		return
	}
	Success(c, gin.H{"count": n})
}
