package v1

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ipam-rir/rir-manager/internal/api/common"
	"github.com/ipam-rir/rir-manager/internal/operations"
	"github.com/ipam-rir/rir-manager/internal/store"
)

// statusFor maps a write operation error to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, operations.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, operations.ErrNoCredential):
		return http.StatusForbidden
	case errors.Is(err, operations.ErrNetworkNotFound), errors.Is(err, operations.ErrTicketNotFound):
		return http.StatusNotFound
	case errors.Is(err, operations.ErrRegistryRejected), errors.Is(err, operations.ErrCustomerFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeOutcome writes the result of a synchronous write operation. A failed
// registry call carries the audit message of its outcome.
func writeOutcome(w http.ResponseWriter, r *http.Request, out *operations.Outcome, err error) {
	if err == nil {
		common.WriteJSONResponse(w, out, http.StatusOK)
		return
	}

	status := statusFor(err)
	msg := err.Error()
	if out != nil && out.Message != "" {
		msg = out.Message
	}
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Write operation failed", "path", r.URL.Path, "error", err)
		msg = "Internal error"
	}
	common.WriteErrorResponse(w, msg, status)
}

func writeStoreError(w http.ResponseWriter, r *http.Request, what string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		common.WriteErrorResponse(w, fmt.Sprintf("%s not found", what), http.StatusNotFound)
		return
	}
	slog.ErrorContext(r.Context(), "Store lookup failed", "object", what, "error", err)
	common.WriteErrorResponse(w, "Internal error", http.StatusInternalServerError)
}
