package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jacksonlee411/branch-crm/pkg/composables"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

const maxBodyBytes = 1 << 20

// ErrorEnvelope standardizes JSON error responses for API namespaces.
type ErrorEnvelope struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string, meta map[string]string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

// WriteServiceError maps a service error onto a status and envelope. Causes
// of internal errors are logged, never returned.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := serrors.HTTPStatus(err)
	code := serrors.CodeOf(err)
	message := err.Error()

	var svcErr *serrors.ServiceError
	if errors.As(err, &svcErr) {
		message = svcErr.Message
	}
	meta := map[string]string{}
	if id := composables.UseRequestID(r.Context()); id != "" {
		meta["request_id"] = id
	}
	if status >= http.StatusInternalServerError {
		composables.UseLogger(r.Context()).WithError(err).WithField("code", code).Error("request failed")
		if code == serrors.CodeInternal {
			message = "internal server error"
		}
	}
	var validation serrors.ValidationErrors
	if errors.As(err, &validation) {
		for field, msg := range validation {
			meta[field] = msg
		}
	}
	_ = WriteError(w, status, code, message, meta)
}

// DecodeJSON reads a bounded JSON body into dst and rejects unknown fields.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return serrors.Validation("invalid json body", err)
	}
	return nil
}
