package v1

import (
	"errors"
	"net/http"

	"github.com/buildledger/backend/internal/models"
)

type httpError struct {
	Error string `json:"error" example:"An ID specified in the query string was not a valid UUID"`
}

// status returns the HTTP status for an error from the models package.
func status(err error) int {
	if errors.Is(err, models.ErrGeneral) {
		return http.StatusInternalServerError
	}

	if errors.Is(err, models.ErrResourceNotFound) {
		return http.StatusNotFound
	}

	if errors.Is(err, models.ErrUnauthorized) {
		return http.StatusForbidden
	}

	// State machine violations, double approvals and write collisions that
	// survived the internal retries all surface as a conflict.
	if errors.Is(err, models.ErrOrderState) || errors.Is(err, models.ErrTransactionExists) || errors.Is(err, models.ErrTransactionImmutable) || errors.Is(err, models.ErrConflict) {
		return http.StatusConflict
	}

	return http.StatusBadRequest
}

var (
	errStatusInvalid     = errors.New("the specified order status is invalid")
	errSourceTypeInvalid = errors.New("the specified transaction source type is invalid")
	errApproverRequired  = errors.New("an authenticated approver is required for this action")
)
