package service

import (
	"errors"
	"time"

	"github.com/VanshGarg05/WhatsappWebClone/internal/models"
	"github.com/VanshGarg05/WhatsappWebClone/internal/repository"
)

type UserService struct {
	userRepo repository.UserRepositoryInterface
}

func NewUserService(userRepo repository.UserRepositoryInterface) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) GetUserByID(userID uint) (*models.User, error) {
	return s.userRepo.FindByID(userID)
}

// ListUsers returns every user except the requester, for the contact list.
func (s *UserService) ListUsers(selfID uint) ([]models.User, error) {
	if selfID == 0 {
		return nil, errors.New("missing user id")
	}
	return s.userRepo.FindAllExcept(selfID)
}

// SetUserOnline flips the durable online flag. Called only by the presence
// broadcaster on bind.
func (s *UserService) SetUserOnline(userID uint) error {
	return s.userRepo.SetPresence(userID, true, nil)
}

// SetUserOffline flips the flag off and stamps last-seen. Called only by the
// presence broadcaster on unbind, with the same timestamp it broadcast.
func (s *UserService) SetUserOffline(userID uint, lastSeen time.Time) error {
	return s.userRepo.SetPresence(userID, false, &lastSeen)
}
