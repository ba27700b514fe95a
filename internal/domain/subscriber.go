package domain

import "time"

// Subscriber 表示一个新闻通讯订阅者
//
// Email 在存储层唯一（规范化后的小写形式）。退订后记录保留，
// 再次订阅时原地重新激活，而不是创建新记录。
type Subscriber struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	SubscribedAt time.Time `json:"subscribedAt"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewSubscriber 创建一个处于激活状态的订阅者
func NewSubscriber(email string, now time.Time) *Subscriber {
	return &Subscriber{
		Email:        email,
		SubscribedAt: now,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
