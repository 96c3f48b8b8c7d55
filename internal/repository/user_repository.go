package repository

import (
	"time"

	"github.com/VanshGarg05/WhatsappWebClone/internal/models"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

func (r *UserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", email).First(&user).Error
	return &user, err
}

func (r *UserRepository) FindByUsername(username string) (*models.User, error) {
	var user models.User
	err := r.db.Where("username = ?", username).First(&user).Error
	return &user, err
}

func (r *UserRepository) FindByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	return &user, err
}

// FindAllExcept lists every user other than selfID, for the contact sidebar.
func (r *UserRepository) FindAllExcept(selfID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.Where("id <> ?", selfID).Order("username ASC").Find(&users).Error
	return users, err
}

func (r *UserRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// SetPresence mutates the online flag and last-seen together. Only the
// presence broadcaster calls this; clients never write these fields.
func (r *UserRepository) SetPresence(userID uint, isOnline bool, lastSeen *time.Time) error {
	updates := map[string]interface{}{"is_online": isOnline}
	if lastSeen != nil {
		updates["last_seen"] = *lastSeen
	}
	return r.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error
}
