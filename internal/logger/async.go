package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Closer flushes buffered log records on shutdown.
type Closer interface {
	Close()
}

type nopCloser struct{}

func (nopCloser) Close() {}

// AsyncHandler decouples CLI commands from log I/O. A single goroutine
// drains a buffered channel; when the buffer is full records are dropped
// rather than blocking the caller, and the drop count is reported on
// Close.
type AsyncHandler struct {
	inner   slog.Handler
	ch      chan asyncRecord
	done    chan struct{}
	dropped atomic.Int64

	closeOnce sync.Once
}

// asyncRecord carries the handler the record must be delivered to, so
// derived handlers (WithAttrs/WithGroup) keep their attrs while sharing
// the parent's channel.
type asyncRecord struct {
	ctx     context.Context
	record  slog.Record
	handler slog.Handler
}

// NewAsyncHandler wraps inner with a drain goroutine and the given
// channel buffer size.
func NewAsyncHandler(inner slog.Handler, buffer int) *AsyncHandler {
	h := &AsyncHandler{
		inner: inner,
		ch:    make(chan asyncRecord, buffer),
		done:  make(chan struct{}),
	}
	go h.drain()
	return h
}

func (h *AsyncHandler) drain() {
	defer close(h.done)
	for ar := range h.ch {
		_ = ar.handler.Handle(ar.ctx, ar.record)
	}
}

func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *AsyncHandler) Handle(ctx context.Context, r slog.Record) error {
	h.enqueue(ctx, r, h.inner)
	return nil
}

func (h *AsyncHandler) enqueue(ctx context.Context, r slog.Record, target slog.Handler) {
	select {
	case h.ch <- asyncRecord{ctx: ctx, record: r, handler: target}:
	default:
		h.dropped.Add(1)
	}
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &attrHandler{async: h, inner: h.inner.WithAttrs(attrs)}
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &attrHandler{async: h, inner: h.inner.WithGroup(name)}
}

// DroppedCount reports how many records were discarded because the
// buffer was full.
func (h *AsyncHandler) DroppedCount() int64 {
	return h.dropped.Load()
}

// Close drains pending records and reports drops on the inner handler.
func (h *AsyncHandler) Close() {
	h.closeOnce.Do(func() {
		close(h.ch)
		<-h.done
		if n := h.dropped.Load(); n > 0 {
			r := slog.NewRecord(time.Now(), slog.LevelWarn, "log records dropped", 0)
			r.AddAttrs(slog.Int64("count", n))
			_ = h.inner.Handle(context.Background(), r)
		}
	})
}

// attrHandler is a derived view sharing the parent's channel and drain
// goroutine.
type attrHandler struct {
	async *AsyncHandler
	inner slog.Handler
}

func (h *attrHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *attrHandler) Handle(ctx context.Context, r slog.Record) error {
	h.async.enqueue(ctx, r, h.inner)
	return nil
}

func (h *attrHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &attrHandler{async: h.async, inner: h.inner.WithAttrs(attrs)}
}

func (h *attrHandler) WithGroup(name string) slog.Handler {
	return &attrHandler{async: h.async, inner: h.inner.WithGroup(name)}
}
