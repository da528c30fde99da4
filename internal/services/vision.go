package services

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"

	"github.com/yungbote/nutritrack-backend/internal/logger"
	"github.com/yungbote/nutritrack-backend/internal/normalization"
)

// VisionService recognizes text in report images through Cloud Vision.
// It satisfies the ingest pipeline's Recognizer contract.
type VisionService interface {
	Recognize(ctx context.Context, img []byte, languageHint string) (string, error)
	Close() error
}

type visionService struct {
	log          *logger.Logger
	visionClient *vision.ImageAnnotatorClient
}

func NewVisionService(log *logger.Logger) (VisionService, error) {
	serviceLog := log.With("service", "VisionService")

	ctx := context.Background()
	opts := clientOptionsFromEnv()
	vClient, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("vision client: %w", err)
	}

	return &visionService{
		log:          serviceLog,
		visionClient: vClient,
	}, nil
}

func (s *visionService) Close() error {
	if s == nil || s.visionClient == nil {
		return nil
	}
	return s.visionClient.Close()
}

// Recognize runs DOCUMENT_TEXT_DETECTION over the raw image bytes and
// returns the whitespace-collapsed primary text. An image with no
// detectable text returns "" without error.
func (s *visionService) Recognize(ctx context.Context, img []byte, languageHint string) (string, error) {
	if len(img) == 0 {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	req := &visionpb.AnnotateImageRequest{
		Image: &visionpb.Image{Content: img},
		Features: []*visionpb.Feature{
			{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
		},
	}
	if hint := strings.TrimSpace(languageHint); hint != "" {
		req.ImageContext = &visionpb.ImageContext{LanguageHints: []string{hint}}
	}

	br := &visionpb.BatchAnnotateImagesRequest{Requests: []*visionpb.AnnotateImageRequest{req}}
	resp, err := s.visionClient.BatchAnnotateImages(ctx, br)
	if err != nil {
		return "", fmt.Errorf("vision BatchAnnotateImages: %w", err)
	}
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return "", nil
	}

	r0 := resp.Responses[0]
	if r0.Error != nil && r0.Error.Message != "" {
		return "", fmt.Errorf("vision annotate error: %s", r0.Error.Message)
	}

	fta := r0.FullTextAnnotation
	if fta == nil || strings.TrimSpace(fta.Text) == "" {
		return "", nil
	}
	return normalization.CollapseWhitespace(fta.Text), nil
}

func clientOptionsFromEnv() []option.ClientOption {
	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	opts := []option.ClientOption{}
	if creds == "" {
		return opts
	}
	if strings.HasPrefix(creds, "{") {
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	} else {
		opts = append(opts, option.WithCredentialsFile(creds))
	}
	return opts
}
