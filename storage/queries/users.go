package queries

import (
	"gorm.io/gorm"
	"yatube/storage/models"
)

func CreateUser(db *gorm.DB, user *models.User) error {
	return db.Create(user).Error
}

func GetUser(db *gorm.DB, username string) (models.User, error) {
	var user models.User
	err := db.Where("username = ?", username).First(&user).Error
	return user, translate(err)
}
