package composables

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/branch-crm/pkg/repo"
)

type nopTx struct{ repo.Tx }

func TestUseTx_NoPool(t *testing.T) {
	_, err := UseTx(context.Background())
	require.ErrorIs(t, err, ErrNoPool)
}

func TestInTx_JoinsExistingTransaction(t *testing.T) {
	tx := nopTx{}
	ctx := WithTx(context.Background(), tx)
	called := false
	err := InTx(ctx, func(ctx context.Context) error {
		called = true
		got, err := UseTx(ctx)
		require.NoError(t, err)
		require.Equal(t, tx, got)
		return nil
	})
	require.NoError(t, err)
	require.True(t, called)
}

func TestInTxResult_PropagatesError(t *testing.T) {
	_, err := InTxResult(context.Background(), func(ctx context.Context) (int, error) {
		return 1, errors.New("unreachable")
	})
	require.ErrorIs(t, err, ErrNoPool)
}

func TestActorID(t *testing.T) {
	_, err := UseActorID(context.Background())
	require.ErrorIs(t, err, ErrNoActor)

	id := uuid.New()
	got, err := UseActorID(WithActorID(context.Background(), id))
	require.NoError(t, err)
	require.Equal(t, id, got)
}

func TestUseLogger_Fallback(t *testing.T) {
	require.NotNil(t, UseLogger(context.Background()))

	entry := logrus.New().WithField("request-id", "abc")
	require.Same(t, entry, UseLogger(WithLogger(context.Background(), entry)))
	require.Equal(t, "req-1", UseRequestID(WithRequestID(context.Background(), "req-1")))
}
