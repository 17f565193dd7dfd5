package queries

import (
	"gorm.io/gorm"
	"yatube/storage/models"
)

// postOrder keeps listings deterministic even when posts share a
// publication timestamp.
const postOrder = "pub_date DESC, id DESC"

func CreatePost(db *gorm.DB, post *models.Post) error {
	return db.Create(post).Error
}

func UpdatePost(db *gorm.DB, post *models.Post) error {
	return db.Save(post).Error
}

func GetPost(db *gorm.DB, id uint) (models.Post, error) {
	var post models.Post
	err := db.
		Preload("Author").
		Preload("Group").
		First(&post, id).
		Error
	return post, translate(err)
}

func CountPosts(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&models.Post{}).Count(&count).Error
	return count, err
}

func GetPosts(db *gorm.DB, offset, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := db.
		Preload("Author").
		Preload("Group").
		Order(postOrder).
		Offset(offset).
		Limit(limit).
		Find(&posts).
		Error
	return posts, err
}

func CountGroupPosts(db *gorm.DB, groupID uint) (int64, error) {
	var count int64
	err := db.Model(&models.Post{}).Where("group_id = ?", groupID).Count(&count).Error
	return count, err
}

func GetGroupPosts(db *gorm.DB, groupID uint, offset, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := db.
		Preload("Author").
		Preload("Group").
		Where("group_id = ?", groupID).
		Order(postOrder).
		Offset(offset).
		Limit(limit).
		Find(&posts).
		Error
	return posts, err
}

func CountAuthorPosts(db *gorm.DB, authorID uint) (int64, error) {
	var count int64
	err := db.Model(&models.Post{}).Where("author_id = ?", authorID).Count(&count).Error
	return count, err
}

func GetAuthorPosts(db *gorm.DB, authorID uint, offset, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := db.
		Preload("Author").
		Preload("Group").
		Where("author_id = ?", authorID).
		Order(postOrder).
		Offset(offset).
		Limit(limit).
		Find(&posts).
		Error
	return posts, err
}

func CountFeedPosts(db *gorm.DB, userID uint) (int64, error) {
	var count int64
	err := db.
		Model(&models.Post{}).
		Joins("JOIN follows ON follows.author_id = posts.author_id").
		Where("follows.user_id = ?", userID).
		Count(&count).
		Error
	return count, err
}

// GetFeedPosts lists posts whose author is followed by userID,
// most-recent first.
func GetFeedPosts(db *gorm.DB, userID uint, offset, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := db.
		Preload("Author").
		Preload("Group").
		Joins("JOIN follows ON follows.author_id = posts.author_id").
		Where("follows.user_id = ?", userID).
		Order(postOrder).
		Offset(offset).
		Limit(limit).
		Find(&posts).
		Error
	return posts, err
}

type AuthorPostCount struct {
	AuthorID uint
	Count    int64
}

// CountPostsByAuthor returns per-author post totals for the statistics
// refresher.
func CountPostsByAuthor(db *gorm.DB) ([]AuthorPostCount, error) {
	var counts []AuthorPostCount
	err := db.
		Model(&models.Post{}).
		Select("author_id, COUNT(*) AS count").
		Group("author_id").
		Scan(&counts).
		Error
	return counts, err
}
