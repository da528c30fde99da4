package repos

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/nutritrack-backend/internal/logger"
	"github.com/yungbote/nutritrack-backend/internal/types"
)

type UserRepo interface {
	Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error)
	GetByEmails(ctx context.Context, tx *gorm.DB, userEmails []string) ([]*types.User, error)
	EmailExists(ctx context.Context, tx *gorm.DB, userEmail string) (bool, error)
	GetNotesByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]string, error)
	UpdateNotes(ctx context.Context, tx *gorm.DB, userID uuid.UUID, notes []string) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	if len(users) == 0 {
		return []*types.User{}, nil
	}

	for _, u := range users {
		if len(u.Notes) == 0 {
			u.Notes = datatypes.JSON([]byte("[]"))
		}
	}

	if err := transaction.WithContext(ctx).Create(&users).Error; err != nil {
		return nil, MapError(err)
	}

	return users, nil
}

func (ur *userRepo) GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	var results []*types.User

	if len(userIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", userIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *userRepo) GetByEmails(ctx context.Context, tx *gorm.DB, userEmails []string) ([]*types.User, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	var results []*types.User
	if len(userEmails) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("email IN ?", userEmails).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ur *userRepo) EmailExists(ctx context.Context, tx *gorm.DB, userEmail string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	var count int64

	if err := transaction.WithContext(ctx).
		Model(&types.User{}).
		Where("email = ?", userEmail).
		Count(&count).Error; err != nil {
		return false, err
	}
	exists := count > 0
	return exists, nil
}

func (ur *userRepo) GetNotesByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]string, error) {
	users, err := ur.GetByIDs(ctx, tx, []uuid.UUID{userID})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return DecodeNotes(users[0].Notes)
}

func (ur *userRepo) UpdateNotes(ctx context.Context, tx *gorm.DB, userID uuid.UUID, notes []string) error {
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	raw, err := EncodeNotes(notes)
	if err != nil {
		return err
	}

	result := transaction.WithContext(ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		Update("notes", raw)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DecodeNotes unpacks the jsonb notes column into its ordered string slice.
// A null/empty column decodes to an empty slice.
func DecodeNotes(raw datatypes.JSON) ([]string, error) {
	if len(raw) == 0 {
		return []string{}, nil
	}
	var notes []string
	if err := json.Unmarshal(raw, &notes); err != nil {
		return nil, fmt.Errorf("decode notes column: %w", err)
	}
	if notes == nil {
		notes = []string{}
	}
	return notes, nil
}

func EncodeNotes(notes []string) (datatypes.JSON, error) {
	if notes == nil {
		notes = []string{}
	}
	raw, err := json.Marshal(notes)
	if err != nil {
		return nil, fmt.Errorf("encode notes column: %w", err)
	}
	return datatypes.JSON(raw), nil
}
