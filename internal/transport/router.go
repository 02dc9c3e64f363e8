package transport

import (
	"log/slog"
	"sync"

	"github.com/udisondev/wowcli/internal/protocol"
)

// Handler consumes one message payload. Handlers run on the read-loop
// goroutine and must not block it for long.
type Handler func(payload []byte)

// subscriptionBuffer is the per-subscriber channel depth. A subscriber that
// falls this far behind starts losing messages (logged).
const subscriptionBuffer = 64

// Router maps opcodes to registered handlers and subscription channels.
// Messages are delivered in receipt order and fanned out to every consumer
// registered for the opcode at dispatch time.
type Router struct {
	mu       sync.RWMutex
	handlers map[protocol.Opcode][]Handler
	subs     map[protocol.Opcode][]chan []byte
	closed   bool
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{
		handlers: make(map[protocol.Opcode][]Handler),
		subs:     make(map[protocol.Opcode][]chan []byte),
	}
}

// Register adds a callback handler for op.
func (r *Router) Register(op protocol.Opcode, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[op] = append(r.handlers[op], h)
}

// Subscribe returns a channel receiving every payload for op. The channel
// is closed when the router closes.
func (r *Router) Subscribe(op protocol.Opcode) <-chan []byte {
	ch := make(chan []byte, subscriptionBuffer)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		close(ch)
		return ch
	}
	r.subs[op] = append(r.subs[op], ch)
	return ch
}

// Dispatch delivers msg to all handlers and subscribers of its opcode.
func (r *Router) Dispatch(msg protocol.Message) {
	r.mu.RLock()
	handlers := r.handlers[msg.Opcode]
	subs := r.subs[msg.Opcode]
	r.mu.RUnlock()

	for _, h := range handlers {
		h(msg.Payload)
	}
	for _, ch := range subs {
		select {
		case ch <- msg.Payload:
		default:
			slog.Warn("subscriber lagging, dropping message", "opcode", msg.Opcode)
		}
	}
}

// Close closes all subscription channels. Idempotent.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	for _, chs := range r.subs {
		for _, ch := range chs {
			close(ch)
		}
	}
	r.subs = make(map[protocol.Opcode][]chan []byte)
}
