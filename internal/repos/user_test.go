package repos

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/nutritrack-backend/internal/repos/testutil"
	"github.com/yungbote/nutritrack-backend/internal/types"
)

func TestUserRepoNotesRoundTrip(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewUserRepo(db, testutil.Logger(t))

	user := &types.User{
		ID:        uuid.New(),
		Email:     "notes@example.com",
		Password:  "hashed",
		FirstName: "nora",
		LastName:  "tester",
	}
	if _, err := repo.Create(ctx, tx, []*types.User{user}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// A fresh user starts with an empty, non-nil notes list.
	notes, err := repo.GetNotesByID(ctx, tx, user.ID)
	if err != nil {
		t.Fatalf("GetNotesByID: %v", err)
	}
	if notes == nil || len(notes) != 0 {
		t.Fatalf("expected empty notes, got %#v", notes)
	}

	want := []string{"nuts", "dairy", "low sodium"}
	if err := repo.UpdateNotes(ctx, tx, user.ID, want); err != nil {
		t.Fatalf("UpdateNotes: %v", err)
	}

	got, err := repo.GetNotesByID(ctx, tx, user.ID)
	if err != nil {
		t.Fatalf("GetNotesByID after update: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d notes, got %d (%#v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("note %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestUserRepoUpdateNotesMissingUser(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewUserRepo(db, testutil.Logger(t))

	err := repo.UpdateNotes(context.Background(), tx, uuid.New(), []string{"nuts"})
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestUserRepoEmailLookups(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewUserRepo(db, testutil.Logger(t))

	user := &types.User{
		ID:        uuid.New(),
		Email:     "lookup@example.com",
		Password:  "hashed",
		FirstName: "lou",
		LastName:  "tester",
	}
	if _, err := repo.Create(ctx, tx, []*types.User{user}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	exists, err := repo.EmailExists(ctx, tx, "lookup@example.com")
	if err != nil {
		t.Fatalf("EmailExists: %v", err)
	}
	if !exists {
		t.Fatal("expected email to exist")
	}

	exists, err = repo.EmailExists(ctx, tx, "nobody@example.com")
	if err != nil {
		t.Fatalf("EmailExists (absent): %v", err)
	}
	if exists {
		t.Fatal("expected email to be absent")
	}

	users, err := repo.GetByEmails(ctx, tx, []string{"lookup@example.com"})
	if err != nil {
		t.Fatalf("GetByEmails: %v", err)
	}
	if len(users) != 1 || users[0].ID != user.ID {
		t.Fatalf("unexpected GetByEmails result: %#v", users)
	}
}

func TestUserRepoDuplicateEmail(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewUserRepo(db, testutil.Logger(t))

	first := &types.User{ID: uuid.New(), Email: "dup@example.com", Password: "x", FirstName: "a", LastName: "b"}
	if _, err := repo.Create(ctx, tx, []*types.User{first}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	second := &types.User{ID: uuid.New(), Email: "dup@example.com", Password: "x", FirstName: "c", LastName: "d"}
	_, err := repo.Create(ctx, tx, []*types.User{second})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}
