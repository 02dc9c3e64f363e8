package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/udisondev/wowcli/internal/protocol"
)

func TestRouterDispatchOrderAndFanOut(t *testing.T) {
	r := NewRouter()

	var first, second [][]byte
	r.Register(protocol.SMSGAttackStart, func(p []byte) { first = append(first, p) })
	r.Register(protocol.SMSGAttackStart, func(p []byte) { second = append(second, p) })
	sub := r.Subscribe(protocol.SMSGAttackStart)

	r.Dispatch(protocol.Message{Opcode: protocol.SMSGAttackStart, Payload: []byte{1}})
	r.Dispatch(protocol.Message{Opcode: protocol.SMSGAttackStart, Payload: []byte{2}})
	r.Dispatch(protocol.Message{Opcode: protocol.SMSGAttackStop, Payload: []byte{9}})

	assert.Equal(t, [][]byte{{1}, {2}}, first)
	assert.Equal(t, [][]byte{{1}, {2}}, second)

	assert.Equal(t, []byte{1}, <-sub)
	assert.Equal(t, []byte{2}, <-sub)
	select {
	case p := <-sub:
		t.Fatalf("unexpected delivery %v", p)
	default:
	}
}

func TestRouterUnroutedOpcodeIgnored(t *testing.T) {
	r := NewRouter()
	// Must not panic or block.
	r.Dispatch(protocol.Message{Opcode: protocol.SMSGCharEnum, Payload: []byte{1, 2, 3}})
}

func TestRouterClose(t *testing.T) {
	r := NewRouter()
	sub := r.Subscribe(protocol.SMSGAttackStop)

	r.Close()
	r.Close() // idempotent

	_, open := <-sub
	assert.False(t, open)

	// Subscribing after close yields a closed channel rather than a leak.
	late := r.Subscribe(protocol.SMSGAttackStop)
	_, open = <-late
	assert.False(t, open)
}

func TestRouterLaggingSubscriberDoesNotBlock(t *testing.T) {
	r := NewRouter()
	_ = r.Subscribe(protocol.SMSGAttackStart)

	// Overflow the buffer; dispatch must stay non-blocking.
	for range subscriptionBuffer + 8 {
		r.Dispatch(protocol.Message{Opcode: protocol.SMSGAttackStart, Payload: []byte{0}})
	}
}
