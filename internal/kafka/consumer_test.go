package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
}

func (r *memReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		m := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *memReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *memReader) Close() error { return nil }

func (r *memReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func testConsumer(r reader, workers int) *Consumer {
	c := newConsumer(r, workers, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.minBackoff = time.Millisecond
	c.maxBackoff = 5 * time.Millisecond
	return c
}

func TestConsumerRetriesFailedMessageBeforeMovingOn(t *testing.T) {
	r := &memReader{queue: []kafka.Message{{Partition: 0, Offset: 5}, {Partition: 0, Offset: 6}}}
	c := testConsumer(r, 4)

	var mu sync.Mutex
	calls := map[int64]int{}
	var order []int64
	h := func(ctx context.Context, m kafka.Message) error {
		mu.Lock()
		defer mu.Unlock()
		calls[m.Offset]++
		if m.Offset == 5 && calls[5] < 3 {
			return errors.New("push failed")
		}
		order = append(order, m.Offset)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx, h) }()

	require.Eventually(t, func() bool { return len(r.commits()) == 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, []int64{5, 6}, r.commits())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, calls[5])
	assert.Equal(t, []int64{5, 6}, order)
}

func TestConsumerNeverCommitsPastUnhandledMessage(t *testing.T) {
	r := &memReader{queue: []kafka.Message{
		{Partition: 1, Offset: 5},
		{Partition: 1, Offset: 6},
		{Partition: 2, Offset: 9},
	}}
	c := testConsumer(r, 2)

	var mu sync.Mutex
	var sixSeen bool
	h := func(ctx context.Context, m kafka.Message) error {
		mu.Lock()
		defer mu.Unlock()
		switch m.Offset {
		case 5:
			return errors.New("push failed")
		case 6:
			sixSeen = true
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx, h) }()

	// the other partition keeps flowing
	require.Eventually(t, func() bool { return len(r.commits()) == 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, []int64{9}, r.commits())
	mu.Lock()
	defer mu.Unlock()
	assert.False(t, sixSeen, "offset 6 waits behind offset 5")
}
