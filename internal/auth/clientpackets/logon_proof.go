package clientpackets

import (
	"github.com/udisondev/wowcli/internal/constants"
	"github.com/udisondev/wowcli/internal/packet"
)

// LogonProof builds the logon-proof request payload: client public key,
// client proof, CRC hash, then zero security-key and two-factor bytes.
func LogonProof(clientPublicKey, clientProof, crcHash []byte) []byte {
	w := packet.NewWriter(constants.PublicKeySize + 2*constants.ProofSize + 2)
	w.PutBytes(clientPublicKey)
	w.PutBytes(clientProof)
	w.PutBytes(crcHash)
	w.PutByte(0) // number of security keys
	w.PutByte(0) // two-factor enabled
	return w.Bytes()
}
