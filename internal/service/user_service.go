package service

import (
	"errors"
	"strings"
	"time"

	"github.com/chatwave/chatwave-backend/internal/models"
	"github.com/chatwave/chatwave-backend/internal/repository"
)

type UserService struct {
	userRepo repository.UserRepositoryInterface
}

func NewUserService(userRepo repository.UserRepositoryInterface) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) GetProfile(userID uint) (*models.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, errors.New("user not found")
	}
	return user, nil
}

// SearchUsers finds users by username prefix/substring, used to start chats.
func (s *UserService) SearchUsers(query string, limit int) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("search query cannot be empty")
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.userRepo.SearchUsers(query, limit)
}

// RecordLastSeen persists a user's last-seen timestamp when their final
// connection closes.
func (s *UserService) RecordLastSeen(userID uint, lastSeen time.Time) error {
	return s.userRepo.UpdateLastSeen(userID, lastSeen)
}
