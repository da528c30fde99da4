package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/image/font/basicfont"

	"github.com/yungbote/nutritrack-backend/internal/types"
)

func newAvatarFixture(t *testing.T, bucket *fakeBucket) *avatarService {
	t.Helper()
	return &avatarService{
		log:           testLogger(t).With("service", "AvatarService"),
		bucketService: bucket,
		bgColors:      defaultAvatarPalette,
		fontFace:      basicfont.Face7x13,
	}
}

func TestCreateAndUploadUserAvatar(t *testing.T) {
	bucket := newFakeBucket()
	svc := newAvatarFixture(t, bucket)

	user := &types.User{ID: uuid.New(), FirstName: "nora", LastName: "tester"}
	if err := svc.CreateAndUploadUserAvatar(context.Background(), nil, user); err != nil {
		t.Fatalf("CreateAndUploadUserAvatar: %v", err)
	}

	if user.AvatarBucketKey == "" {
		t.Fatal("expected avatar bucket key to be set")
	}
	if !strings.HasPrefix(user.AvatarBucketKey, "user_avatar/"+user.ID.String()+"/") {
		t.Fatalf("unexpected avatar key %q", user.AvatarBucketKey)
	}
	if user.AvatarURL != bucket.GetPublicURL(user.AvatarBucketKey) {
		t.Fatalf("avatar URL %q does not match key %q", user.AvatarURL, user.AvatarBucketKey)
	}
	if _, ok := bucket.objects[user.AvatarBucketKey]; !ok {
		t.Fatal("expected avatar object in bucket")
	}
}

func TestRegenerateAvatarDeletesPreviousObject(t *testing.T) {
	bucket := newFakeBucket()
	svc := newAvatarFixture(t, bucket)

	user := &types.User{ID: uuid.New(), FirstName: "nora", LastName: "tester"}
	if err := svc.CreateAndUploadUserAvatar(context.Background(), nil, user); err != nil {
		t.Fatalf("first avatar: %v", err)
	}
	firstKey := user.AvatarBucketKey

	if err := svc.CreateAndUploadUserAvatar(context.Background(), nil, user); err != nil {
		t.Fatalf("second avatar: %v", err)
	}
	if user.AvatarBucketKey == firstKey {
		t.Fatalf("expected a fresh key, still %q", firstKey)
	}

	if _, ok := bucket.objects[firstKey]; ok {
		t.Fatalf("expected previous object %q to be deleted", firstKey)
	}
	if len(bucket.deleted) != 1 || bucket.deleted[0] != firstKey {
		t.Fatalf("unexpected delete log: %#v", bucket.deleted)
	}
	if _, ok := bucket.objects[user.AvatarBucketKey]; !ok {
		t.Fatal("expected current avatar object in bucket")
	}
}
