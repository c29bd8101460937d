package models

import "time"

// Follow is a directed edge follower -> followed. At most one edge per ordered pair.
type Follow struct {
	FollowerID string `gorm:"type:varchar(36);primarykey"`
	FollowedID string `gorm:"type:varchar(36);primarykey;index"`
	CreatedAt  time.Time
}

func (Follow) TableName() string { return "follows" }
