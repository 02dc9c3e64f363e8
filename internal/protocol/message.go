package protocol

// Message is one decoded protocol message: an opcode plus its payload bytes.
// Payload never includes the opcode or any framing; its layout is
// opcode-specific and opaque to the transport layer.
type Message struct {
	Opcode  Opcode
	Payload []byte
}
