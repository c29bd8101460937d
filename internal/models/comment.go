package models

import (
	"time"

	"gorm.io/gorm"
)

type Comment struct {
	ID         string  `gorm:"type:varchar(36);primarykey"`
	ProposalID string  `gorm:"type:varchar(36);not null;index"`
	AutoreID   string  `gorm:"type:varchar(36);not null;index"`
	AutoreKind Role    `gorm:"type:varchar(20);not null"`
	Testo      string  `gorm:"type:varchar(500);not null"`
	IsReply    bool    `gorm:"not null;default:false"`
	ReplyToID  *string `gorm:"type:varchar(36);index"`
	CreatedAt  time.Time
}

func (Comment) TableName() string { return "commenti" }

func (c *Comment) BeforeCreate(*gorm.DB) error { return ensureID(&c.ID) }
