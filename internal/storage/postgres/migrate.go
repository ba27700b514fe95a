package postgres

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// subscriberRow 仅用于 gorm AutoMigrate 生成表结构，查询走 pgx
type subscriberRow struct {
	ID           string    `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"type:varchar(254);not null;uniqueIndex:idx_subscribers_email"`
	SubscribedAt time.Time `gorm:"type:timestamptz;not null"`
	IsActive     bool      `gorm:"not null;default:true;index:idx_subscribers_active"`
	CreatedAt    time.Time `gorm:"type:timestamptz;not null"`
	UpdatedAt    time.Time `gorm:"type:timestamptz;not null"`
}

func (subscriberRow) TableName() string { return "subscribers" }

type contactRow struct {
	ID          string     `gorm:"type:uuid;primaryKey"`
	FirstName   string     `gorm:"type:varchar(100);not null;check:chk_contact_first_name,first_name <> ''"`
	LastName    string     `gorm:"type:varchar(100);not null;check:chk_contact_last_name,last_name <> ''"`
	Email       string     `gorm:"type:varchar(254);not null;index:idx_contact_email"`
	Phone       string     `gorm:"type:varchar(50);not null"`
	Message     string     `gorm:"type:varchar(5000);not null;check:chk_contact_message,char_length(message) >= 10"`
	Source      string     `gorm:"type:varchar(32);not null;default:website_contact_form;check:chk_contact_source,source IN ('website_contact_form','api','other')"`
	SubmittedAt time.Time  `gorm:"type:timestamptz;not null;index:idx_contact_submitted_at,sort:desc"`
	IPAddress   string     `gorm:"type:varchar(64);not null;default:''"`
	UserAgent   string     `gorm:"type:text;not null;default:''"`
	Status      string     `gorm:"type:varchar(16);not null;default:received;index:idx_contact_status;check:chk_contact_status,status IN ('received','read','responded','spam')"`
	IsRead      bool       `gorm:"not null;default:false"`
	Notes       string     `gorm:"type:text;not null;default:''"`
	RespondedAt *time.Time `gorm:"type:timestamptz"`
	CreatedAt   time.Time  `gorm:"type:timestamptz;not null"`
	UpdatedAt   time.Time  `gorm:"type:timestamptz;not null"`
}

func (contactRow) TableName() string { return "contact_messages" }

// Migrate 使用 gorm AutoMigrate 创建或更新表结构
func Migrate(dsn string) error {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return fmt.Errorf("postgres: open for migration: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("postgres: underlying sql.DB: %w", err)
	}
	defer sqlDB.Close()

	if err := db.AutoMigrate(&subscriberRow{}, &contactRow{}); err != nil {
		return fmt.Errorf("postgres: auto migrate: %w", err)
	}
	return nil
}
