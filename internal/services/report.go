package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/nutritrack-backend/internal/clients/redis"
	"github.com/yungbote/nutritrack-backend/internal/ingest"
	"github.com/yungbote/nutritrack-backend/internal/logger"
	"github.com/yungbote/nutritrack-backend/internal/repos"
	"github.com/yungbote/nutritrack-backend/internal/requestdata"
	"github.com/yungbote/nutritrack-backend/internal/sse"
	"github.com/yungbote/nutritrack-backend/internal/types"
)

// ReportEntry is one persisted extraction row as returned to clients.
type ReportEntry struct {
	ID            string    `json:"id"`
	StorageKey    string    `json:"storage_key"`
	FileURL       string    `json:"file_url"`
	ExtractedText string    `json:"extracted_text"`
	CreatedAt     time.Time `json:"created_at"`
}

// ReportFeed bundles the report history with the owning profile so the
// client renders both from one round trip.
type ReportFeed struct {
	User    *UserProfile  `json:"user"`
	Reports []ReportEntry `json:"reports"`
}

type ReportService interface {
	SubmitReport(ctx context.Context, upload ingest.Upload, rawNotes string) (*ingest.Result, error)
	ListReports(ctx context.Context) (*ReportFeed, error)
}

type reportService struct {
	log        *logger.Logger
	pipeline   *ingest.Pipeline
	userRepo   repos.UserRepo
	reportRepo repos.ReportRepo
}

func NewReportService(
	log *logger.Logger,
	bucketService BucketService,
	visionService VisionService,
	userRepo repos.UserRepo,
	reportRepo repos.ReportRepo,
	hub *sse.SSEHub,
	bus redis.SSEBus,
) ReportService {
	serviceLog := log.With("service", "ReportService")

	onProgress := func(userID uuid.UUID, stage ingest.Stage, message string) {
		msg := sse.SSEMessage{
			Channel: sse.UserChannel(userID),
			Event:   eventForStage(stage),
			Data:    map[string]string{"stage": string(stage), "message": message},
		}
		hub.Broadcast(msg)
		if bus != nil {
			if err := bus.Publish(context.Background(), msg); err != nil {
				serviceLog.Warn("Failed to publish progress to redis", "error", err)
			}
		}
	}

	pipeline := ingest.NewPipeline(
		log,
		&bucketBlobStore{bucket: bucketService},
		&bucketArtifactFetcher{bucket: bucketService},
		&profileNotesStore{userRepo: userRepo},
		visionService,
		&reportAppender{reportRepo: reportRepo},
		onProgress,
	)

	return &reportService{
		log:        serviceLog,
		pipeline:   pipeline,
		userRepo:   userRepo,
		reportRepo: reportRepo,
	}
}

func (rs *reportService) SubmitReport(ctx context.Context, upload ingest.Upload, rawNotes string) (*ingest.Result, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, fmt.Errorf("no request data found in context")
	}
	result, err := rs.pipeline.Submit(ctx, rd.UserID, upload, rawNotes)
	if err != nil {
		return nil, err
	}
	rs.log.Info("Report ingested",
		"userID", rd.UserID,
		"storageKey", result.StorageKey,
		"emptyExtraction", result.EmptyExtraction)
	return result, nil
}

func (rs *reportService) ListReports(ctx context.Context) (*ReportFeed, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, fmt.Errorf("no request data found in context")
	}

	var (
		users   []*types.User
		reports []*types.Report
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var inner error
		users, inner = rs.userRepo.GetByIDs(gctx, nil, []uuid.UUID{rd.UserID})
		return inner
	})
	g.Go(func() error {
		var inner error
		reports, inner = rs.reportRepo.GetByUserIDs(gctx, nil, []uuid.UUID{rd.UserID})
		return inner
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load report feed: %w", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user not found")
	}

	profile, err := toUserProfile(users[0])
	if err != nil {
		return nil, err
	}

	entries := make([]ReportEntry, 0, len(reports))
	for _, r := range reports {
		entries = append(entries, ReportEntry{
			ID:            r.ID.String(),
			StorageKey:    r.StorageKey,
			FileURL:       r.FileURL,
			ExtractedText: r.ExtractedText,
			CreatedAt:     r.CreatedAt,
		})
	}
	return &ReportFeed{User: profile, Reports: entries}, nil
}

// eventForStage maps a pipeline transition onto the SSE event type:
// terminal stages get their own event so clients can stop listening
// without parsing stage names.
func eventForStage(stage ingest.Stage) sse.SSEEvent {
	switch stage {
	case ingest.StageSucceeded:
		return sse.SSEEventReportUploadDone
	case ingest.StageFailed:
		return sse.SSEEventReportUploadFailed
	default:
		return sse.SSEEventReportUploadProgress
	}
}

// bucketBlobStore adapts BucketService to the pipeline's store port.
type bucketBlobStore struct {
	bucket BucketService
}

func (s *bucketBlobStore) Upload(ctx context.Context, key string, data io.Reader) error {
	return s.bucket.UploadFile(ctx, key, data)
}

func (s *bucketBlobStore) PublicURL(key string) string {
	return s.bucket.GetPublicURL(key)
}

// bucketArtifactFetcher reads the stored object back through its public URL.
type bucketArtifactFetcher struct {
	bucket BucketService
}

func (f *bucketArtifactFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f.bucket.FetchFile(ctx, url)
}

// profileNotesStore backs the notes read-modify-write with the user table.
type profileNotesStore struct {
	userRepo repos.UserRepo
}

func (p *profileNotesStore) GetNotes(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return p.userRepo.GetNotesByID(ctx, nil, userID)
}

func (p *profileNotesStore) SetNotes(ctx context.Context, userID uuid.UUID, notes []string) error {
	return p.userRepo.UpdateNotes(ctx, nil, userID, notes)
}

// reportAppender persists one row per completed run.
type reportAppender struct {
	reportRepo repos.ReportRepo
}

func (w *reportAppender) Append(ctx context.Context, userID uuid.UUID, storageKey, fileURL, extractedText string) error {
	_, err := w.reportRepo.Create(ctx, nil, []*types.Report{{
		UserID:        userID,
		StorageKey:    storageKey,
		FileURL:       fileURL,
		ExtractedText: extractedText,
	}})
	return err
}
