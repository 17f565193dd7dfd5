package models

// Group is a topical collection posts may be assigned to. Groups are
// seeded administratively; there is no HTTP surface mutating them.
type Group struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"not null" json:"title"`
	Slug        string `gorm:"uniqueIndex;size:200;not null" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
}
