package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"tmi-chatter/model"
)

type stubSender struct {
	mu      sync.Mutex
	batches [][]*pgx.QueuedQuery
}

type stubBatchResults struct{}

func (s *stubSender) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	s.mu.Lock()
	defer s.mu.Unlock()

	copyQueries := append([]*pgx.QueuedQuery(nil), b.QueuedQueries...)
	s.batches = append(s.batches, copyQueries)
	return &stubBatchResults{}
}

func (s *stubBatchResults) Exec() (pgconn.CommandTag, error) { return pgconn.CommandTag{}, nil }
func (s *stubBatchResults) Query() (pgx.Rows, error)         { return nil, nil }
func (s *stubBatchResults) QueryRow() pgx.Row                { return nil }
func (s *stubBatchResults) Close() error                     { return nil }

func TestBatcherFlushesOnMaxBatch(t *testing.T) {
	sender := &stubSender{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	batcher := newBatcher(ctx, sender, BatchConfig{
		MaxBatch:      2,
		FlushEvery:    time.Hour,
		ChanBuffer:    10,
		StatsLogEvery: time.Hour,
		FlushTimeout:  time.Second,
	}, zerolog.Nop())

	msg := model.ChatMessage{ID: "1", Channel: "ch", UserID: "u", Username: "name", DisplayName: "disp", Text: "hi", SentAt: time.Now()}
	batcher.Enqueue(msg)
	batcher.Enqueue(msg)

	waitForBatches(t, sender, 1)
}

func TestBatcherFlushesOnTimer(t *testing.T) {
	sender := &stubSender{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	batcher := newBatcher(ctx, sender, BatchConfig{
		MaxBatch:      10,
		FlushEvery:    50 * time.Millisecond,
		ChanBuffer:    10,
		StatsLogEvery: time.Hour,
		FlushTimeout:  time.Second,
	}, zerolog.Nop())

	msg := model.ChatMessage{ID: "2", Channel: "ch", UserID: "u", Username: "name", DisplayName: "disp", Text: "hello", SentAt: time.Now()}
	batcher.Enqueue(msg)

	waitForBatches(t, sender, 1)
}

func waitForBatches(t *testing.T, sender *stubSender, expected int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		sender.mu.Lock()
		count := len(sender.batches)
		sender.mu.Unlock()
		if count >= expected {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected at least %d batches, got %d", expected, len(sender.batches))
}

func TestBatcherFlushesOnCancel(t *testing.T) {
	sender := &stubSender{}
	ctx, cancel := context.WithCancel(context.Background())

	batcher := newBatcher(ctx, sender, BatchConfig{
		MaxBatch:      10,
		FlushEvery:    time.Hour,
		ChanBuffer:    10,
		StatsLogEvery: time.Hour,
		FlushTimeout:  time.Second,
	}, zerolog.Nop())

	batcher.Enqueue(model.ChatMessage{ID: "3", Channel: "ch", Username: "name", Text: "bye", SentAt: time.Now()})
	time.Sleep(20 * time.Millisecond)
	cancel()

	waitForBatches(t, sender, 1)

	sender.mu.Lock()
	defer sender.mu.Unlock()
	args := sender.batches[0][0].Arguments
	if args[0] != "3" || args[2] != (*string)(nil) {
		t.Fatalf("unexpected arguments: %v", args)
	}
}

func TestBatcherDropsWhenQueueFull(t *testing.T) {
	// Без фоновой горутины очередь никто не читает.
	b := &Batcher{
		input:  make(chan model.ChatMessage, 1),
		config: BatchConfig{MaxBatch: 1},
		sender: &stubSender{},
		log:    zerolog.Nop(),
	}

	if !b.Enqueue(model.ChatMessage{ID: "a"}) {
		t.Fatalf("first enqueue should succeed")
	}
	if b.Enqueue(model.ChatMessage{ID: "b"}) {
		t.Fatalf("second enqueue should be dropped")
	}
	if b.Dropped() != 1 {
		t.Fatalf("expected 1 dropped, got %d", b.Dropped())
	}
}
