package queries

import (
	"gorm.io/gorm"
	"yatube/storage/models"
)

func CreateComment(db *gorm.DB, comment *models.Comment) error {
	return db.Create(comment).Error
}

// GetPostComments lists a post's comments in creation order.
func GetPostComments(db *gorm.DB, postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := db.
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created ASC, id ASC").
		Find(&comments).
		Error
	return comments, err
}

func CountComments(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&models.Comment{}).Count(&count).Error
	return count, err
}
