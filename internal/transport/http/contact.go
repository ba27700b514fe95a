package httptransport

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"marinerefuge/backend/internal/domain"
	"marinerefuge/backend/internal/service"
)

// Contacts 联系表单业务，*service.ContactService 满足
type Contacts interface {
	Submit(ctx context.Context, in service.ContactInput) (*domain.ContactMessage, error)
	List(ctx context.Context, limit, offset int) (*service.ContactPage, error)
	MarkRead(ctx context.Context, id string) (*domain.ContactMessage, error)
}

// ContactHandler 联系表单接口
type ContactHandler struct {
	contacts Contacts
	logger   *zap.Logger
}

// NewContactHandler 创建联系表单处理器
func NewContactHandler(contacts Contacts, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{contacts: contacts, logger: logger}
}

type contactRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Message   string `json:"message"`
	Source    string `json:"source"`
}

type contactReceipt struct {
	ContactID string `json:"contactId"`
	Status    string `json:"status"`
	Note      string `json:"note"`
}

// Submit POST /api/contact
//
// 记录保存后立即返回，通知邮件在后台发送。
func (h *ContactHandler) Submit(c *gin.Context) {
	var req contactRequest
	if !bindJSON(c, &req) {
		return
	}

	msg, err := h.contacts.Submit(c.Request.Context(), service.ContactInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Message:   req.Message,
		Source:    req.Source,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		respondError(c, h.logger, err, MsgContactFailed)
		return
	}

	// 状态固定为 received，描述的是接收结果而不是审核结果
	SuccessWithMsg(c, http.StatusOK, "Your message has been received. We'll get back to you soon!", contactReceipt{
		ContactID: msg.ID,
		Status:    string(domain.StatusReceived),
		Note:      "Check your email for confirmation",
	})
}

// List GET /api/contacts?limit=&offset=
//
// 无法解析的分页参数按默认值处理。
func (h *ContactHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	page, err := h.contacts.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, h.logger, err, MsgListFailed)
		return
	}

	items := page.Items
	if items == nil {
		items = []domain.ContactMessage{}
	}
	List(c, items, page.Total, page.HasMore)
}

// MarkRead PATCH /api/contacts/:id/read
func (h *ContactHandler) MarkRead(c *gin.Context) {
	msg, err := h.contacts.MarkRead(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, MsgMarkReadFailed)
		return
	}
	SuccessWithMsg(c, http.StatusOK, "Contact marked as read", msg)
}
