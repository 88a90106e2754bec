// Package signal cancels command contexts on SIGINT and SIGTERM.
//
// It imports nothing from internal/ so every command can use it.
package signal

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Handler owns a context that is canceled by the first interrupt signal.
type Handler struct {
	ctx         context.Context //nolint:containedctx // the handler owns this context's lifecycle
	cancel      context.CancelFunc
	sigCh       chan os.Signal
	interrupted chan struct{}
	done        chan struct{}
	once        sync.Once
	stopOnce    sync.Once
}

// NewHandler starts listening for SIGINT and SIGTERM.
//
//	h := signal.NewHandler(ctx)
//	defer h.Stop()
//	return srv.ListenAndServe(h.Context(), nil)
func NewHandler(parent context.Context) *Handler {
	ctx, cancel := context.WithCancel(parent)
	h := &Handler{
		ctx:         ctx,
		cancel:      cancel,
		sigCh:       make(chan os.Signal, 1),
		interrupted: make(chan struct{}),
		done:        make(chan struct{}),
	}
	signal.Notify(h.sigCh, syscall.SIGINT, syscall.SIGTERM)
	go h.listen()
	return h
}

// Context is canceled on interrupt, on Stop, or with its parent.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// Interrupted is closed once a signal has arrived.
func (h *Handler) Interrupted() <-chan struct{} {
	return h.interrupted
}

// Stop unregisters the signal handler and cancels the context.
// It is safe to call more than once.
func (h *Handler) Stop() {
	h.stopOnce.Do(func() {
		signal.Stop(h.sigCh)
		close(h.done)
		h.cancel()
	})
}

func (h *Handler) listen() {
	select {
	case <-h.sigCh:
		h.once.Do(func() {
			close(h.interrupted)
			h.cancel()
		})
	case <-h.done:
	case <-h.ctx.Done():
	}
}
