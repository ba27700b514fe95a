package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"marinerefuge/backend/internal/domain"
)

// subscriberDoc subscribers 集合中的文档
type subscriberDoc struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Email        string        `bson:"email"`
	SubscribedAt time.Time     `bson:"subscribedAt"`
	IsActive     bool          `bson:"isActive"`
	CreatedAt    time.Time     `bson:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt"`
}

func (d *subscriberDoc) toDomain() *domain.Subscriber {
	return &domain.Subscriber{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		SubscribedAt: d.SubscribedAt,
		IsActive:     d.IsActive,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func subscriberFromDomain(s *domain.Subscriber) subscriberDoc {
	return subscriberDoc{
		Email:        s.Email,
		SubscribedAt: s.SubscribedAt,
		IsActive:     s.IsActive,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// contactDoc contacts 集合中的文档
type contactDoc struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	FirstName   string        `bson:"firstName"`
	LastName    string        `bson:"lastName"`
	Email       string        `bson:"email"`
	Phone       string        `bson:"phone"`
	Message     string        `bson:"message"`
	Source      string        `bson:"source"`
	Timestamp   time.Time     `bson:"timestamp"`
	IPAddress   string        `bson:"ipAddress,omitempty"`
	UserAgent   string        `bson:"userAgent,omitempty"`
	Status      string        `bson:"status"`
	Read        bool          `bson:"read"`
	Notes       string        `bson:"notes,omitempty"`
	RespondedAt *time.Time    `bson:"respondedAt,omitempty"`
	CreatedAt   time.Time     `bson:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt"`
}

func (d *contactDoc) toDomain() domain.ContactMessage {
	return domain.ContactMessage{
		ID:          d.ID.Hex(),
		FirstName:   d.FirstName,
		LastName:    d.LastName,
		Email:       d.Email,
		Phone:       d.Phone,
		Message:     d.Message,
		Source:      domain.ContactSource(d.Source),
		Timestamp:   d.Timestamp,
		IPAddress:   d.IPAddress,
		UserAgent:   d.UserAgent,
		Status:      domain.ContactStatus(d.Status),
		Read:        d.Read,
		Notes:       d.Notes,
		RespondedAt: d.RespondedAt,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func contactFromDomain(m *domain.ContactMessage) contactDoc {
	return contactDoc{
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		Email:       m.Email,
		Phone:       m.Phone,
		Message:     m.Message,
		Source:      string(m.Source),
		Timestamp:   m.Timestamp,
		IPAddress:   m.IPAddress,
		UserAgent:   m.UserAgent,
		Status:      string(m.Status),
		Read:        m.Read,
		Notes:       m.Notes,
		RespondedAt: m.RespondedAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
