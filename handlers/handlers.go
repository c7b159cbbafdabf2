// Package handlers is the thin HTTP glue over the engine, store and filter.
// No business rules live here: requests are bound, passed through, and
// engine errors mapped onto status codes.
package handlers

import (
	"errors"
	"net/http"

	"go-floodline/types"
)

func statusFromError(err error) int {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrDuplicateID),
		errors.Is(err, types.ErrDuplicateVote),
		errors.Is(err, types.ErrAlreadyInProgress),
		errors.Is(err, types.ErrAlreadyVerified),
		errors.Is(err, types.ErrAwaitingDrone):
		return http.StatusConflict
	case errors.Is(err, types.ErrNoLocation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
