package clientpackets

// RealmList builds the realm-list request payload: four zero padding bytes
// (the opcode is prepended by the codec).
func RealmList() []byte {
	return []byte{0, 0, 0, 0}
}
