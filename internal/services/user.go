package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/nutritrack-backend/internal/logger"
	"github.com/yungbote/nutritrack-backend/internal/repos"
	"github.com/yungbote/nutritrack-backend/internal/requestdata"
	"github.com/yungbote/nutritrack-backend/internal/types"
)

// UserProfile is the authenticated user shape returned to clients.
type UserProfile struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	AvatarURL string   `json:"avatar_url"`
	Notes     []string `json:"notes"`
}

type UserService interface {
	GetMe(ctx context.Context) (*UserProfile, error)
}

type userService struct {
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(log *logger.Logger, userRepo repos.UserRepo) UserService {
	serviceLog := log.With("service", "UserService")
	return &userService{log: serviceLog, userRepo: userRepo}
}

func (us *userService) GetMe(ctx context.Context) (*UserProfile, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, fmt.Errorf("no request data found in context")
	}
	users, err := us.userRepo.GetByIDs(ctx, nil, []uuid.UUID{rd.UserID})
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user not found")
	}
	return toUserProfile(users[0])
}

func toUserProfile(user *types.User) (*UserProfile, error) {
	notes, err := repos.DecodeNotes(user.Notes)
	if err != nil {
		return nil, fmt.Errorf("failed to decode user notes: %w", err)
	}
	return &UserProfile{
		ID:        user.ID.String(),
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		AvatarURL: user.AvatarURL,
		Notes:     notes,
	}, nil
}
