package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jacksonlee411/branch-crm/pkg/composables"
	"github.com/jacksonlee411/branch-crm/pkg/httpapi"
	"github.com/jacksonlee411/branch-crm/pkg/repo"
)

// Provide binds the pool to every request context.
func Provide(pool *pgxpool.Pool) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(composables.WithPool(r.Context(), pool)))
		})
	}
}

type requestTx interface {
	repo.Tx
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// WithTransaction runs mutating requests in one transaction that commits
// only when the handler answered below 400, so an aborted audit write rolls
// back the change it guarded. The response is held back until the commit
// returns; a failed commit answers 500 instead.
func WithTransaction() mux.MiddlewareFunc {
	return withTransaction(func(ctx context.Context) (requestTx, error) {
		pool, err := composables.UsePool(ctx)
		if err != nil {
			return nil, err
		}
		tx, err := pool.Begin(ctx)
		if err != nil {
			return nil, err
		}
		return tx, nil
	})
}

func withTransaction(begin func(ctx context.Context) (requestTx, error)) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			tx, err := begin(r.Context())
			if err != nil {
				composables.UseLogger(r.Context()).WithError(err).Error("failed to begin transaction")
				_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL", "cannot begin transaction", nil)
				return
			}
			defer func() {
				if err := tx.Rollback(r.Context()); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
					composables.UseLogger(r.Context()).WithError(err).Error("failed to rollback transaction")
				}
			}()

			bw := newBufferedWriter()
			next.ServeHTTP(bw, r.WithContext(composables.WithTx(r.Context(), tx)))
			if bw.Status() >= http.StatusBadRequest {
				bw.flushTo(w)
				return
			}
			if err := tx.Commit(r.Context()); err != nil {
				composables.UseLogger(r.Context()).WithError(err).Error("failed to commit transaction")
				_ = httpapi.WriteError(w, http.StatusInternalServerError, "COMMIT_FAILED", "changes were not saved", nil)
				return
			}
			bw.flushTo(w)
		})
	}
}

// bufferedWriter records a response so it can be replaced before anything
// reaches the client.
type bufferedWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newBufferedWriter() *bufferedWriter {
	return &bufferedWriter{header: make(http.Header)}
}

func (b *bufferedWriter) Header() http.Header {
	return b.header
}

func (b *bufferedWriter) WriteHeader(code int) {
	if b.status == 0 {
		b.status = code
	}
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

func (b *bufferedWriter) Status() int {
	if b.status == 0 {
		return http.StatusOK
	}
	return b.status
}

func (b *bufferedWriter) flushTo(w http.ResponseWriter) {
	for k, v := range b.header {
		w.Header()[k] = v
	}
	w.WriteHeader(b.Status())
	_, _ = w.Write(b.body.Bytes())
}
