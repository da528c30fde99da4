package ingest

// MaxUploadBytes caps report images at 10 MiB, same limit the upload form
// advertises.
const MaxUploadBytes = 10 * 1024 * 1024

var allowedMimeTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
}

// Upload is the ephemeral candidate handed to Submit. Only declared
// metadata is validated; byte content is never sniffed.
type Upload struct {
	Filename string
	MimeType string
	Size     int64
	Data     []byte
}

// Validate checks the candidate against the size rule first, then the type
// rule; the first failing rule wins. It returns nil when accepted and has
// no side effects.
func Validate(u Upload) *StageError {
	if u.Size > MaxUploadBytes {
		return &StageError{
			Stage:   StageValidating,
			Code:    CodeTooLarge,
			Message: "File size exceeds 10MB limit.",
		}
	}
	if !allowedMimeTypes[u.MimeType] {
		return &StageError{
			Stage:   StageValidating,
			Code:    CodeUnsupportedType,
			Message: "Only PNG and JPEG images are allowed.",
		}
	}
	return nil
}
