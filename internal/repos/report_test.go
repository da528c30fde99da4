package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/nutritrack-backend/internal/repos/testutil"
	"github.com/yungbote/nutritrack-backend/internal/types"
)

func TestReportRepoAppendAndList(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewReportRepo(db, testutil.Logger(t))

	userID := uuid.New()
	otherID := uuid.New()

	now := time.Now().UTC()
	rows := []*types.Report{
		{ID: uuid.New(), UserID: userID, StorageKey: "reports/a_1.png", FileURL: "https://cdn/a", ExtractedText: "Calories: 250", CreatedAt: now.Add(-2 * time.Hour)},
		{ID: uuid.New(), UserID: userID, StorageKey: "reports/a_2.png", FileURL: "https://cdn/b", ExtractedText: "", CreatedAt: now.Add(-1 * time.Hour)},
		{ID: uuid.New(), UserID: otherID, StorageKey: "reports/b_1.png", FileURL: "https://cdn/c", ExtractedText: "Protein: 12g", CreatedAt: now},
	}
	if _, err := repo.Create(ctx, tx, rows); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByUserIDs(ctx, tx, []uuid.UUID{userID})
	if err != nil {
		t.Fatalf("GetByUserIDs: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(got))
	}
	// Oldest first.
	if got[0].StorageKey != "reports/a_1.png" || got[1].StorageKey != "reports/a_2.png" {
		t.Fatalf("unexpected order: %q, %q", got[0].StorageKey, got[1].StorageKey)
	}
	// Empty extraction rows survive as-is.
	if got[1].ExtractedText != "" {
		t.Fatalf("expected empty extracted text, got %q", got[1].ExtractedText)
	}

	count, err := repo.CountByUserID(ctx, tx, userID)
	if err != nil {
		t.Fatalf("CountByUserID: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected count 2, got %d", count)
	}
}
