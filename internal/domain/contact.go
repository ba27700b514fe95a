package domain

import "time"

// ContactSource 联系表单提交来源
type ContactSource string

const (
	SourceWebsiteContactForm ContactSource = "website_contact_form"
	SourceAPI                ContactSource = "api"
	SourceOther              ContactSource = "other"
)

// ParseContactSource 解析来源字段
//
// 空值使用默认来源 website_contact_form，未知值归为 other。
func ParseContactSource(value string) ContactSource {
	switch ContactSource(value) {
	case "":
		return SourceWebsiteContactForm
	case SourceWebsiteContactForm, SourceAPI, SourceOther:
		return ContactSource(value)
	default:
		return SourceOther
	}
}

// ContactStatus 联系消息处理状态
type ContactStatus string

const (
	StatusReceived  ContactStatus = "received"
	StatusRead      ContactStatus = "read"
	StatusResponded ContactStatus = "responded"
	StatusSpam      ContactStatus = "spam"
)

// Valid 判断状态是否为已知取值
func (s ContactStatus) Valid() bool {
	switch s {
	case StatusReceived, StatusRead, StatusResponded, StatusSpam:
		return true
	}
	return false
}

// ContactMessage 表示一条联系表单提交
type ContactMessage struct {
	ID          string        `json:"id"`
	FirstName   string        `json:"firstName"`
	LastName    string        `json:"lastName"`
	Email       string        `json:"email"`
	Phone       string        `json:"phone"`
	Message     string        `json:"message"`
	Source      ContactSource `json:"source"`
	Timestamp   time.Time     `json:"timestamp"`
	IPAddress   string        `json:"ipAddress,omitempty"`
	UserAgent   string        `json:"userAgent,omitempty"`
	Status      ContactStatus `json:"status"`
	Read        bool          `json:"read"`
	Notes       string        `json:"notes,omitempty"`
	RespondedAt *time.Time    `json:"respondedAt,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// FullName 返回 "名 姓"
func (m *ContactMessage) FullName() string {
	if m.LastName == "" {
		return m.FirstName
	}
	return m.FirstName + " " + m.LastName
}
