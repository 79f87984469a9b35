package models

import "time"

type Review struct {
	ID       int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	TitleID  int64     `json:"-" gorm:"not null;uniqueIndex:idx_review_title_author"`
	AuthorID string    `json:"-" gorm:"type:uuid;not null;uniqueIndex:idx_review_title_author"`
	Text     string    `json:"text" gorm:"size:2000;not null"`
	Score    int       `json:"score" gorm:"not null;check:score >= 0 AND score <= 10"`
	PubDate  time.Time `json:"pub_date" gorm:"not null;autoCreateTime;index"`

	// Associations
	Author User  `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE;"`
	Title  Title `json:"-" gorm:"foreignKey:TitleID;constraint:OnDelete:CASCADE;"`
}

func (Review) TableName() string {
	return "reviews"
}

// AuthorUserID implements permission.Authored.
func (r *Review) AuthorUserID() string {
	return r.AuthorID
}
