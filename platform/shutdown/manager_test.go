package shutdown

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestManager_ShutdownRunsStepsInReverseOrder(t *testing.T) {
	m := New(time.Second, zap.NewNop())

	var order []string
	m.Add("first", func(ctx context.Context) error {
		order = append(order, "first")
		return nil
	})
	m.Add("second", func(ctx context.Context) error {
		order = append(order, "second")
		return errors.New("boom")
	})
	m.Add("third", func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		require.True(t, hasDeadline)
		order = append(order, "third")
		return nil
	})

	m.Shutdown()

	require.Equal(t, []string{"third", "second", "first"}, order)
}
