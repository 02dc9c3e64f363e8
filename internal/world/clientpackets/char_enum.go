package clientpackets

// CharEnum builds the character-enumeration request. The message carries no
// payload; the opcode alone is the request.
func CharEnum() []byte {
	return nil
}
