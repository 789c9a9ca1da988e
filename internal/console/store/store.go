// Package store defines the credential-store driver interface. The concrete
// driver (file) persists the whole record set at once; there is deliberately
// no partial-record update primitive, so every mutation is a load, an
// in-memory edit, and a versioned replace.
package store

import (
	"context"
	"errors"

	"github.com/openbridgehq/hubconsole/internal/console/domain"
)

// ErrStaleVersion reports that the record set changed between Load and
// Replace. The caller should reload and reapply its mutation.
var ErrStaleVersion = errors.New("store: stale version")

type Users interface {
	// Load returns a snapshot of all user records plus an opaque version
	// token for a later Replace. A missing backing file loads as empty.
	Load(ctx context.Context) ([]domain.User, int64, error)

	// Replace atomically rewrites the full record set. It fails with
	// ErrStaleVersion if the set has been replaced since the given version
	// was loaded (compare-and-swap).
	Replace(ctx context.Context, users []domain.User, version int64) error

	// SetupComplete reports whether first-run setup has produced an
	// administrator: false when the backing file is absent or contains no
	// admin record.
	SetupComplete(ctx context.Context) (bool, error)
}
