package repos

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicate indicates a unique constraint violation (e.g. an email that
// is already registered).
var ErrDuplicate = errors.New("duplicate row")

// MapError tags Postgres constraint failures so services can branch on them
// without string-matching driver messages.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return errors.Join(ErrDuplicate, err) // unique_violation
		}
	}
	return err
}
