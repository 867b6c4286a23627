package apperr

import (
	"errors"
	"net/http"
)

// Sentinel errors shared by every layer. Wrap them with fmt.Errorf("%w: ...")
// so the handler boundary can map them with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrPermission        = errors.New("permission denied")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrNotFound          = errors.New("not found")
	ErrMixedRestaurant   = errors.New("cart holds items from another restaurant")
	ErrConflict          = errors.New("conflict")
)

// HTTPStatus maps an error to the status code returned to the caller.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrMixedRestaurant), errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// IsExpected reports whether err belongs to the taxonomy above, i.e. is a
// normal outcome for the caller rather than a server fault.
func IsExpected(err error) bool {
	return HTTPStatus(err) != http.StatusInternalServerError
}
