package ingest

import (
	"fmt"

	"github.com/google/uuid"
)

// Stage is one step of the ingestion pipeline's fixed sequential order.
type Stage string

const (
	StageIdle             Stage = "idle"
	StageValidating       Stage = "validating"
	StageUploading        Stage = "uploading"
	StageResolvingUser    Stage = "resolving_user"
	StageMergingNotes     Stage = "merging_notes"
	StageFetchingArtifact Stage = "fetching_artifact"
	StageExtracting       Stage = "extracting"
	StagePersisting       Stage = "persisting"
	StageSucceeded        Stage = "succeeded"
	StageFailed           Stage = "failed"
)

type Code string

const (
	CodeTooLarge          Code = "too_large"
	CodeUnsupportedType   Code = "unsupported_type"
	CodeAuthError         Code = "auth_error"
	CodeStorageError      Code = "storage_error"
	CodeProfileFetchError Code = "profile_fetch_error"
	CodeProfileWriteError Code = "profile_write_error"
	CodeFetchBackError    Code = "fetch_back_error"
	CodeOcrError          Code = "ocr_error"
	CodePersistError      Code = "persist_error"
)

// StageError is the single terminal failure of a run: the stage it died in,
// a stable code, and the short human-readable message surfaced to the
// caller verbatim.
type StageError struct {
	Stage   Stage
	Code    Code
	Message string
	Err     error
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Stage, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s (%s): %s", e.Stage, e.Code, e.Message)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Run is the transient per-invocation aggregate. It is never persisted;
// its durable residue is the stored artifact, the profile notes mutation,
// and the report row. A Run executes exactly once and is not resumable.
type Run struct {
	UserID        uuid.UUID
	Stage         Stage
	Upload        Upload
	StorageKey    string
	FileURL       string
	Notes         []string
	ExtractedText string
	Failure       *StageError

	onProgress ProgressFunc
}

// ProgressFunc observes stage transitions. Message is the user-facing
// progress text for that stage, empty when there is nothing to show.
type ProgressFunc func(userID uuid.UUID, stage Stage, message string)

func (r *Run) to(next Stage, message string) {
	r.Stage = next
	if r.onProgress != nil {
		r.onProgress(r.UserID, next, message)
	}
}

func (r *Run) fail(stage Stage, code Code, message string, err error) *StageError {
	failure := &StageError{Stage: stage, Code: code, Message: message, Err: err}
	r.Failure = failure
	r.to(StageFailed, message)
	return failure
}

// Result is the terminal outcome of a successful run.
type Result struct {
	StorageKey      string   `json:"storage_key"`
	FileURL         string   `json:"file_url"`
	Notes           []string `json:"notes"`
	ExtractedText   string   `json:"extracted_text"`
	EmptyExtraction bool     `json:"empty_extraction"`
	Message         string   `json:"message"`
}
