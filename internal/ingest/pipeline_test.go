package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/nutritrack-backend/internal/logger"
)

type fakeStore struct {
	objects map[string][]byte
	keys    []string
	uploads int
	failPut error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (s *fakeStore) Upload(ctx context.Context, key string, data io.Reader) error {
	s.uploads++
	if s.failPut != nil {
		return s.failPut
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.objects[key] = raw
	s.keys = append(s.keys, key)
	return nil
}

func (s *fakeStore) PublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

type fakeFetcher struct {
	store *fakeStore
	fail  error
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	key := url[len("https://cdn.example.com/"):]
	raw, ok := f.store.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %q not stored", key)
	}
	return raw, nil
}

type fakeProfiles struct {
	notes     map[uuid.UUID][]string
	failRead  error
	failWrite error
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{notes: map[uuid.UUID][]string{}}
}

func (p *fakeProfiles) GetNotes(ctx context.Context, userID uuid.UUID) ([]string, error) {
	if p.failRead != nil {
		return nil, p.failRead
	}
	existing, ok := p.notes[userID]
	if !ok {
		return nil, errors.New("profile row not found")
	}
	return existing, nil
}

func (p *fakeProfiles) SetNotes(ctx context.Context, userID uuid.UUID, notes []string) error {
	if p.failWrite != nil {
		return p.failWrite
	}
	p.notes[userID] = notes
	return nil
}

type fakeRecognizer struct {
	text string
	fail error
}

func (r *fakeRecognizer) Recognize(ctx context.Context, img []byte, languageHint string) (string, error) {
	if r.fail != nil {
		return "", r.fail
	}
	return r.text, nil
}

type reportRow struct {
	userID        uuid.UUID
	storageKey    string
	extractedText string
}

type fakeReports struct {
	rows []reportRow
	fail error
}

func (w *fakeReports) Append(ctx context.Context, userID uuid.UUID, storageKey, fileURL, extractedText string) error {
	if w.fail != nil {
		return w.fail
	}
	w.rows = append(w.rows, reportRow{userID: userID, storageKey: storageKey, extractedText: extractedText})
	return nil
}

type fixture struct {
	pipeline *Pipeline
	store    *fakeStore
	profiles *fakeProfiles
	reco     *fakeRecognizer
	reports  *fakeReports
	stages   []Stage
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}

	f := &fixture{
		store:    newFakeStore(),
		profiles: newFakeProfiles(),
		reco:     &fakeRecognizer{text: "Calories: 250"},
		reports:  &fakeReports{},
	}
	onProgress := func(userID uuid.UUID, stage Stage, message string) {
		f.stages = append(f.stages, stage)
	}
	f.pipeline = NewPipeline(log, f.store, &fakeFetcher{store: f.store}, f.profiles, f.reco, f.reports, onProgress)
	return f
}

func validUpload() Upload {
	return Upload{
		Filename: "report.jpg",
		MimeType: "image/jpeg",
		Size:     2 * 1024 * 1024,
		Data:     []byte("jpeg-bytes"),
	}
}

func TestSubmitEndToEnd(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.profiles.notes[userID] = []string{"peanuts"}

	result, err := f.pipeline.Submit(context.Background(), userID, validUpload(), "peanuts, shellfish")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if got, want := result.Notes, []string{"peanuts", "shellfish"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("merged notes = %v, want %v", got, want)
	}
	if !reflect.DeepEqual(f.profiles.notes[userID], []string{"peanuts", "shellfish"}) {
		t.Fatalf("profile notes not written back: %v", f.profiles.notes[userID])
	}
	if len(f.reports.rows) != 1 {
		t.Fatalf("expected 1 report row, got %d", len(f.reports.rows))
	}
	row := f.reports.rows[0]
	if row.userID != userID || row.extractedText != "Calories: 250" {
		t.Fatalf("unexpected report row: %+v", row)
	}
	if result.EmptyExtraction {
		t.Fatalf("unexpected empty-extraction marker")
	}
	if result.Message != "File uploaded & text extracted successfully!" {
		t.Fatalf("unexpected terminal message: %q", result.Message)
	}

	wantStages := []Stage{
		StageValidating, StageUploading, StageResolvingUser, StageMergingNotes,
		StageFetchingArtifact, StageExtracting, StagePersisting, StageSucceeded,
	}
	if !reflect.DeepEqual(f.stages, wantStages) {
		t.Fatalf("stage order = %v, want %v", f.stages, wantStages)
	}
}

func TestSubmitRejectedCandidateCreatesNoArtifact(t *testing.T) {
	f := newFixture(t)
	upload := validUpload()
	upload.MimeType = "image/gif"

	_, err := f.pipeline.Submit(context.Background(), uuid.New(), upload, "")
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected StageError, got %v", err)
	}
	if stageErr.Stage != StageValidating || stageErr.Code != CodeUnsupportedType {
		t.Fatalf("unexpected failure: %+v", stageErr)
	}
	if f.store.uploads != 0 {
		t.Fatalf("rejected candidate reached the blob store")
	}
}

func TestSubmitStorageFailureAbortsBeforeProfile(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.profiles.notes[userID] = []string{"peanuts"}
	f.store.failPut = errors.New("bucket unavailable")

	_, err := f.pipeline.Submit(context.Background(), userID, validUpload(), "dairy")
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected StageError, got %v", err)
	}
	if stageErr.Stage != StageUploading || stageErr.Code != CodeStorageError {
		t.Fatalf("unexpected failure: %+v", stageErr)
	}
	if stageErr.Message != "Upload failed. Try again." {
		t.Fatalf("unexpected message: %q", stageErr.Message)
	}
	if !reflect.DeepEqual(f.profiles.notes[userID], []string{"peanuts"}) {
		t.Fatalf("profile mutated after storage failure: %v", f.profiles.notes[userID])
	}
}

func TestSubmitExtractionFailureLeavesEarlierEffectsDurable(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.profiles.notes[userID] = []string{"peanuts"}
	f.reco.fail = errors.New("engine crashed")

	_, err := f.pipeline.Submit(context.Background(), userID, validUpload(), "shellfish")
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected StageError, got %v", err)
	}
	if stageErr.Stage != StageExtracting || stageErr.Code != CodeOcrError {
		t.Fatalf("unexpected failure: %+v", stageErr)
	}
	if stageErr.Message != "OCR failed. Try another image." {
		t.Fatalf("unexpected message: %q", stageErr.Message)
	}

	// No rollback: the stored artifact and merged notes stay durable.
	if len(f.store.objects) != 1 {
		t.Fatalf("expected the artifact to remain stored, have %d objects", len(f.store.objects))
	}
	if !reflect.DeepEqual(f.profiles.notes[userID], []string{"peanuts", "shellfish"}) {
		t.Fatalf("merged notes rolled back: %v", f.profiles.notes[userID])
	}
	if len(f.reports.rows) != 0 {
		t.Fatalf("report row persisted despite extraction failure")
	}
}

func TestSubmitProfileWriteFailureKeepsArtifact(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.profiles.notes[userID] = []string{}
	f.profiles.failWrite = errors.New("write refused")

	_, err := f.pipeline.Submit(context.Background(), userID, validUpload(), "dairy")
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected StageError, got %v", err)
	}
	if stageErr.Stage != StageMergingNotes || stageErr.Code != CodeProfileWriteError {
		t.Fatalf("unexpected failure: %+v", stageErr)
	}
	if len(f.store.objects) != 1 {
		t.Fatalf("artifact should remain durable after notes write failure")
	}
}

func TestSubmitMissingProfileRowIsFatal(t *testing.T) {
	f := newFixture(t)

	_, err := f.pipeline.Submit(context.Background(), uuid.New(), validUpload(), "dairy")
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected StageError, got %v", err)
	}
	if stageErr.Stage != StageResolvingUser || stageErr.Code != CodeProfileFetchError {
		t.Fatalf("unexpected failure: %+v", stageErr)
	}
	if stageErr.Message != "Failed to fetch user data." {
		t.Fatalf("unexpected message: %q", stageErr.Message)
	}
}

func TestSubmitFetchBackFailure(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.profiles.notes[userID] = []string{}
	f.pipeline.fetcher = &fakeFetcher{store: f.store, fail: errors.New("object gone")}

	_, err := f.pipeline.Submit(context.Background(), userID, validUpload(), "")
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected StageError, got %v", err)
	}
	if stageErr.Stage != StageFetchingArtifact || stageErr.Code != CodeFetchBackError {
		t.Fatalf("unexpected failure: %+v", stageErr)
	}
}

func TestSubmitPersistFailure(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.profiles.notes[userID] = []string{}
	f.reports.fail = errors.New("insert refused")

	_, err := f.pipeline.Submit(context.Background(), userID, validUpload(), "")
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected StageError, got %v", err)
	}
	if stageErr.Stage != StagePersisting || stageErr.Code != CodePersistError {
		t.Fatalf("unexpected failure: %+v", stageErr)
	}
}

func TestSubmitEmptyExtractionIsSoftSuccess(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.profiles.notes[userID] = []string{}
	f.reco.text = "   "

	result, err := f.pipeline.Submit(context.Background(), userID, validUpload(), "")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !result.EmptyExtraction {
		t.Fatalf("expected empty-extraction marker")
	}
	if result.Message != "No readable text found in the image." {
		t.Fatalf("unexpected message: %q", result.Message)
	}
	// The row is still inserted, with empty text.
	if len(f.reports.rows) != 1 {
		t.Fatalf("expected report row for empty extraction, got %d", len(f.reports.rows))
	}
	if f.reports.rows[0].extractedText != "" {
		t.Fatalf("expected empty extracted text, got %q", f.reports.rows[0].extractedText)
	}
}

func TestStorageKeysDistinctAcrossMilliseconds(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.profiles.notes[userID] = []string{}

	base := time.UnixMilli(1700000000000)
	calls := 0
	f.pipeline.WithClock(func() time.Time {
		calls++
		return base.Add(time.Duration(calls-1) * time.Millisecond)
	})

	for i := 0; i < 2; i++ {
		if _, err := f.pipeline.Submit(context.Background(), userID, validUpload(), ""); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
	}

	if len(f.store.keys) != 2 {
		t.Fatalf("expected 2 stored objects, got %d", len(f.store.keys))
	}
	if f.store.keys[0] == f.store.keys[1] {
		t.Fatalf("storage keys collided for millisecond-distinct uploads: %q", f.store.keys[0])
	}
	want0 := "reports/" + userID.String() + "_1700000000000.jpg"
	if f.store.keys[0] != want0 {
		t.Fatalf("storage key = %q, want %q", f.store.keys[0], want0)
	}
}
