package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/nutritrack-backend/internal/logger"
	"github.com/yungbote/nutritrack-backend/internal/types"
)

type ReportRepo interface {
	Create(ctx context.Context, tx *gorm.DB, reports []*types.Report) ([]*types.Report, error)
	GetByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.Report, error)
	CountByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
}

type reportRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReportRepo(db *gorm.DB, baseLog *logger.Logger) ReportRepo {
	repoLog := baseLog.With("repo", "ReportRepo")
	return &reportRepo{db: db, log: repoLog}
}

// Create inserts report rows. There is no upsert path on purpose: reports
// are an append-only log per user.
func (rr *reportRepo) Create(ctx context.Context, tx *gorm.DB, reports []*types.Report) ([]*types.Report, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	if len(reports) == 0 {
		return []*types.Report{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&reports).Error; err != nil {
		return nil, MapError(err)
	}

	return reports, nil
}

func (rr *reportRepo) GetByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.Report, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var results []*types.Report

	if len(userIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}

func (rr *reportRepo) CountByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Report{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
