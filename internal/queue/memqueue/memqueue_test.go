package memqueue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Wire/internal/queue"
)

func TestSendAndFetchBatch(t *testing.T) {
	ctx := context.Background()
	q := New(16)
	defer q.Close()

	for _, msg := range []string{"a", "b", "c"} {
		require.NoError(t, q.Send(ctx, []byte(msg)))
	}

	batch, err := q.Fetch(ctx, 10)
	require.NoError(t, err)
	require.Len(t, batch, 3)
	assert.Equal(t, []byte("a"), batch[0].Data)
	assert.Equal(t, []byte("c"), batch[2].Data)
}

func TestRetryRedelivers(t *testing.T) {
	ctx := context.Background()
	q := New(16)
	defer q.Close()

	require.NoError(t, q.Send(ctx, []byte("job")))

	batch, err := q.Fetch(ctx, 1)
	require.NoError(t, err)
	require.Len(t, batch, 1)
	require.NoError(t, batch[0].Retry())

	again, err := q.Fetch(ctx, 1)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, []byte("job"), again[0].Data)
}

func TestFetchHonorsContext(t *testing.T) {
	q := New(16)
	defer q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Fetch(ctx, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSendAfterClose(t *testing.T) {
	q := New(1)
	require.NoError(t, q.Close())
	err := q.Send(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, queue.ErrClosed)
}
