package queries

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"yatube/storage/models"
)

// CreateFollow inserts the (user, author) edge with get-or-create
// semantics. The composite unique index plus ON CONFLICT DO NOTHING
// makes concurrent duplicates safe without application-level locking.
func CreateFollow(db *gorm.DB, userID, authorID uint) error {
	follow := models.Follow{
		UserID:   userID,
		AuthorID: authorID,
	}
	return db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "author_id"}},
			DoNothing: true,
		}).
		Create(&follow).
		Error
}

// DeleteFollow removes the edge if present; deleting an absent edge is
// not an error.
func DeleteFollow(db *gorm.DB, userID, authorID uint) error {
	return db.
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Follow{}).
		Error
}

func FollowExists(db *gorm.DB, userID, authorID uint) (bool, error) {
	var count int64
	err := db.
		Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&count).
		Error
	return count > 0, err
}
