// internal/storage/models/comment.go
package models

import "time"

// Comment is a chat message on a token page. Pure append, no invariants.
type Comment struct {
	ID       uint      `gorm:"primarykey" json:"id"`
	TokenID  string    `gorm:"index;not null;type:varchar(36)" json:"tokenId"`
	Text     string    `gorm:"not null;type:varchar(200)" json:"text"`
	Author   string    `gorm:"not null;type:varchar(64)" json:"author"`
	PostedAt time.Time `gorm:"index;not null" json:"postedAt"`
}
