package queries

import (
	"gorm.io/gorm"
	"yatube/storage/models"
)

func CreateGroup(db *gorm.DB, group *models.Group) error {
	return db.Create(group).Error
}

func GetGroup(db *gorm.DB, slug string) (models.Group, error) {
	var group models.Group
	err := db.Where("slug = ?", slug).First(&group).Error
	return group, translate(err)
}

func GroupExists(db *gorm.DB, id uint) (bool, error) {
	var count int64
	err := db.Model(&models.Group{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
