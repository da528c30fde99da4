package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/nutritrack-backend/internal/logger"
)

// BlobStore is the durable object store the pipeline uploads artifacts to.
type BlobStore interface {
	Upload(ctx context.Context, key string, data io.Reader) error
	PublicURL(key string) string
}

// ArtifactFetcher reads the stored artifact back through its public URL,
// proving the object is actually retrievable before extraction runs.
type ArtifactFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ProfileStore is the read and write half of the notes read-modify-write.
// There is deliberately no compare-and-swap: concurrent submits by the same
// user race last-writer-wins on the notes field.
type ProfileStore interface {
	GetNotes(ctx context.Context, userID uuid.UUID) ([]string, error)
	SetNotes(ctx context.Context, userID uuid.UUID, notes []string) error
}

// Recognizer is the opaque best-effort text recognition engine.
type Recognizer interface {
	Recognize(ctx context.Context, img []byte, languageHint string) (string, error)
}

// ReportWriter persists one extraction result per successful run.
type ReportWriter interface {
	Append(ctx context.Context, userID uuid.UUID, storageKey, fileURL, extractedText string) error
}

// Pipeline runs the report ingestion sequence: validate, upload, resolve
// profile, merge notes, fetch the artifact back, extract text, persist.
// Every collaborator gets a single attempt; the first failure is terminal
// for the run and nothing committed before it is rolled back.
type Pipeline struct {
	log        *logger.Logger
	store      BlobStore
	fetcher    ArtifactFetcher
	profiles   ProfileStore
	recognizer Recognizer
	reports    ReportWriter
	onProgress ProgressFunc

	now func() time.Time
}

func NewPipeline(
	baseLog *logger.Logger,
	store BlobStore,
	fetcher ArtifactFetcher,
	profiles ProfileStore,
	recognizer Recognizer,
	reports ReportWriter,
	onProgress ProgressFunc,
) *Pipeline {
	pipelineLog := baseLog.With("component", "IngestPipeline")
	return &Pipeline{
		log:        pipelineLog,
		store:      store,
		fetcher:    fetcher,
		profiles:   profiles,
		recognizer: recognizer,
		reports:    reports,
		onProgress: onProgress,
		now:        time.Now,
	}
}

// WithClock overrides the timestamp source used for storage key
// derivation.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Submit executes one run for the given, already-authenticated user.
// Identity is threaded through as a parameter and never re-read mid-run.
// On failure the returned error is always a *StageError naming the stage
// that died.
func (p *Pipeline) Submit(ctx context.Context, userID uuid.UUID, upload Upload, rawNotes string) (*Result, error) {
	run := &Run{
		UserID:     userID,
		Stage:      StageIdle,
		Upload:     upload,
		onProgress: p.onProgress,
	}
	log := p.log.With("user_id", userID, "filename", upload.Filename)

	run.to(StageValidating, "")
	if vErr := Validate(upload); vErr != nil {
		log.Warn("Upload rejected", "code", vErr.Code, "size", upload.Size, "mime_type", upload.MimeType)
		run.Failure = vErr
		run.to(StageFailed, vErr.Message)
		return nil, vErr
	}

	run.to(StageUploading, "Uploading...")
	key := p.storageKey(userID, upload.Filename)
	if err := p.store.Upload(ctx, key, bytes.NewReader(upload.Data)); err != nil {
		log.Error("Artifact upload failed", "error", err, "storage_key", key)
		return nil, run.fail(StageUploading, CodeStorageError, "Upload failed. Try again.", err)
	}
	run.StorageKey = key
	run.FileURL = p.store.PublicURL(key)
	log.Info("Artifact stored", "storage_key", key, "file_url", run.FileURL)

	run.to(StageResolvingUser, "")
	existingNotes, err := p.profiles.GetNotes(ctx, userID)
	if err != nil {
		log.Error("Profile fetch failed", "error", err)
		return nil, run.fail(StageResolvingUser, CodeProfileFetchError, "Failed to fetch user data.", err)
	}

	run.to(StageMergingNotes, "")
	run.Notes = MergeNotes(existingNotes, rawNotes)
	if err := p.profiles.SetNotes(ctx, userID, run.Notes); err != nil {
		log.Error("Profile notes write failed", "error", err)
		return nil, run.fail(StageMergingNotes, CodeProfileWriteError, fmt.Sprintf("Failed to update notes: %v", err), err)
	}

	run.to(StageFetchingArtifact, "")
	img, err := p.fetcher.Fetch(ctx, run.FileURL)
	if err != nil {
		log.Error("Artifact fetch-back failed", "error", err, "file_url", run.FileURL)
		return nil, run.fail(StageFetchingArtifact, CodeFetchBackError, "Failed to fetch uploaded image.", err)
	}

	run.to(StageExtracting, "Extracting text from image...")
	text, err := p.recognizer.Recognize(ctx, img, "en")
	if err != nil {
		log.Error("Text extraction failed", "error", err)
		return nil, run.fail(StageExtracting, CodeOcrError, "OCR failed. Try another image.", err)
	}
	run.ExtractedText = strings.TrimSpace(text)

	run.to(StagePersisting, "")
	if err := p.reports.Append(ctx, userID, run.StorageKey, run.FileURL, run.ExtractedText); err != nil {
		log.Error("Report insert failed", "error", err)
		return nil, run.fail(StagePersisting, CodePersistError, fmt.Sprintf("Insert failed: %v", err), err)
	}

	result := &Result{
		StorageKey:    run.StorageKey,
		FileURL:       run.FileURL,
		Notes:         run.Notes,
		ExtractedText: run.ExtractedText,
	}
	if run.ExtractedText == "" {
		// Soft-success: the row is persisted either way, only the message
		// flags that nothing was readable.
		result.EmptyExtraction = true
		result.Message = "No readable text found in the image."
	} else {
		result.Message = "File uploaded & text extracted successfully!"
	}
	run.to(StageSucceeded, result.Message)
	log.Info("Report ingested", "storage_key", run.StorageKey, "empty_extraction", result.EmptyExtraction)
	return result, nil
}

// storageKey derives reports/{userID}_{epochMillis}.{ext}. Millisecond
// granularity is the collision-avoidance mechanism; two submits by the same
// user inside one millisecond can collide and that window is accepted.
func (p *Pipeline) storageKey(userID uuid.UUID, filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		ext = "png"
	}
	return fmt.Sprintf("reports/%s_%d.%s", userID.String(), p.now().UnixMilli(), ext)
}
