package composables

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jacksonlee411/branch-crm/pkg/constants"
)

var (
	ErrNoActor = errors.New("acting user not found in context")
)

// UseLogger returns the request-scoped logger, or a standard logger entry
// when ctx carries none.
func UseLogger(ctx context.Context) *logrus.Entry {
	if logger, ok := ctx.Value(constants.LoggerKey).(*logrus.Entry); ok && logger != nil {
		return logger
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, constants.LoggerKey, logger)
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, constants.RequestIDKey, id)
}

func UseRequestID(ctx context.Context) string {
	id, _ := ctx.Value(constants.RequestIDKey).(string)
	return id
}

func WithActorID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, constants.ActorIDKey, id)
}

func UseActorID(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(constants.ActorIDKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, ErrNoActor
	}
	return id, nil
}
