package models

import (
	"fmt"
	"time"
)

type Post struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	Text     string    `gorm:"type:text;not null" json:"text"`
	PubDate  time.Time `gorm:"autoCreateTime;index" json:"pub_date"`
	AuthorID uint      `gorm:"not null;index" json:"author_id"`
	Author   User      `gorm:"constraint:OnDelete:CASCADE" json:"author"`
	GroupID  *uint     `gorm:"index" json:"group_id,omitempty"`
	Group    *Group    `json:"group,omitempty"`
	// Image holds the media store object key, e.g. "posts/<uuid>.jpg".
	Image string `json:"image,omitempty"`
}

func (p *Post) DetailPath() string {
	return fmt.Sprintf("/posts/%d/", p.ID)
}
