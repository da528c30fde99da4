package services

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"os"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"gorm.io/gorm"

	"github.com/yungbote/nutritrack-backend/internal/logger"
	"github.com/yungbote/nutritrack-backend/internal/types"
)

// AvatarService renders an initials avatar for a new user and uploads it
// to the bucket. Purely cosmetic; registration proceeds without it only if
// the service was never constructed.
type AvatarService interface {
	CreateAndUploadUserAvatar(ctx context.Context, tx *gorm.DB, user *types.User) error
	GenerateUserAvatar(user *types.User) (bytes.Buffer, error)
}

type avatarService struct {
	log           *logger.Logger
	bucketService BucketService

	bgColors []color.NRGBA
	fontFace font.Face
}

var defaultAvatarPalette = []color.NRGBA{
	{R: 0x2E, G: 0x7D, B: 0x32, A: 0xFF}, // green
	{R: 0x15, G: 0x65, B: 0xC0, A: 0xFF}, // blue
	{R: 0xC6, G: 0x28, B: 0x28, A: 0xFF}, // red
	{R: 0x6A, G: 0x1B, B: 0x9A, A: 0xFF}, // purple
	{R: 0xEF, G: 0x6C, B: 0x00, A: 0xFF}, // orange
}

func NewAvatarService(log *logger.Logger, bucketService BucketService) (AvatarService, error) {
	serviceLog := log.With("service", "AvatarService")

	fontPath := strings.TrimSpace(os.Getenv("AVATAR_FONT"))
	if fontPath == "" {
		return nil, fmt.Errorf("env var AVATAR_FONT is empty")
	}
	serviceLog.Info("Loading avatar font", "font", fontPath)

	face, err := loadFontFace(fontPath, 206)
	if err != nil {
		return nil, fmt.Errorf("could not load avatar font: %w", err)
	}

	return &avatarService{
		log:           serviceLog,
		bucketService: bucketService,
		bgColors:      defaultAvatarPalette,
		fontFace:      face,
	}, nil
}

func (as *avatarService) CreateAndUploadUserAvatar(ctx context.Context, tx *gorm.DB, user *types.User) error {
	buf, err := as.GenerateUserAvatar(user)
	if err != nil {
		return err
	}

	// Versioned key so a CDN never serves a stale object.
	key := fmt.Sprintf("user_avatar/%s/%d.png", user.ID.String(), time.Now().UnixNano())

	if err := as.bucketService.UploadFile(ctx, key, bytes.NewReader(buf.Bytes())); err != nil {
		return fmt.Errorf("failed to upload user avatar: %w", err)
	}

	// Regeneration replaces the object; the old one is garbage after the
	// key on the row moves. Best effort only.
	if prev := user.AvatarBucketKey; prev != "" && prev != key {
		if err := as.bucketService.DeleteFile(ctx, prev); err != nil {
			as.log.Warn("Failed to delete previous avatar object", "key", prev, "error", err)
		}
	}

	user.AvatarBucketKey = key
	user.AvatarURL = as.bucketService.GetPublicURL(key)
	return nil
}

func (as *avatarService) GenerateUserAvatar(user *types.User) (bytes.Buffer, error) {
	const size = 512

	dc := gg.NewContext(size, size)

	dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
	dc.Clip()

	base := as.pickColor(user.ID.String())
	dc.SetColor(base)
	dc.DrawRectangle(0, 0, float64(size), float64(size))
	dc.Fill()

	initials := computeInitials(user.FirstName, user.LastName)

	dc.SetFontFace(as.fontFace)
	tw, th := dc.MeasureString(initials)
	cx, cy := float64(size)/2, float64(size)/2

	dc.SetColor(color.White)
	dc.DrawString(initials, cx-(tw/2)+5, cy+(th/2)-10)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf, nil
}

// pickColor maps a user id onto the palette deterministically so
// regenerating an avatar keeps its background.
func (as *avatarService) pickColor(seed string) color.NRGBA {
	var sum int
	for _, r := range seed {
		sum += int(r)
	}
	return as.bgColors[sum%len(as.bgColors)]
}

func computeInitials(firstName, lastName string) string {
	initials := ""
	if f := strings.TrimSpace(firstName); f != "" {
		initials += strings.ToUpper(f[:1])
	}
	if l := strings.TrimSpace(lastName); l != "" {
		initials += strings.ToUpper(l[:1])
	}
	if initials == "" {
		initials = "?"
	}
	return initials
}

func loadFontFace(path string, points float64) (font.Face, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font file: %w", err)
	}
	parsed, err := truetype.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face := truetype.NewFace(parsed, &truetype.Options{Size: points})
	return face, nil
}
