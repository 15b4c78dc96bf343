package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

// Paging reads page (1-based) and limit query parameters.
func Paging(r *http.Request, defaultSize, maxSize int) (limit, offset int) {
	q := r.URL.Query()
	limit = defaultSize
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if maxSize > 0 && limit > maxSize {
		limit = maxSize
	}
	page := 1
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 1 {
		page = v
	}
	return limit, (page - 1) * limit
}

// PathUUID parses the named mux route variable.
func PathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := mux.Vars(r)[name]
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, serrors.Validation("invalid "+name, err)
	}
	return id, nil
}

// QueryUUID parses an optional uuid query parameter.
func QueryUUID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, serrors.Validation("invalid "+name, err)
	}
	return &id, nil
}

// QueryTime parses an optional RFC 3339 timestamp or YYYY-MM-DD date.
func QueryTime(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, serrors.Validation("invalid "+name, nil)
}
