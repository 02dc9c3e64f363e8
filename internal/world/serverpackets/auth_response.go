package serverpackets

import "github.com/udisondev/wowcli/internal/protocol"

// ParseAuthResponse returns the result code of an auth-response payload.
// Some servers send an empty payload on internal failure; that is mapped to
// a dedicated unknown-failure code so callers always see one byte.
func ParseAuthResponse(payload []byte) byte {
	if len(payload) == 0 {
		return protocol.WorldAuthUnknownFailure
	}
	return payload[0]
}
