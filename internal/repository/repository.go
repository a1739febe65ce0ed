package repository

import "errors"

// ErrVersionConflict is returned when an optimistic-lock guarded write finds a
// stale version. Callers re-read and retry the guard against fresh state.
var ErrVersionConflict = errors.New("project version conflict")
