package clientpackets

import (
	"net"
	"strings"

	"github.com/udisondev/wowcli/internal/constants"
	"github.com/udisondev/wowcli/internal/packet"
)

// Client identity tags reported in the logon challenge. The wire carries
// platform and OS reversed with a trailing NUL, and the locale reversed
// without one (it already fills its 4 bytes).
const (
	GameName = "WoW"
	Platform = "x86"
	OS       = "Win"
	Locale   = "enGB"
)

// LogonChallenge builds the logon-challenge request payload (the opcode byte
// is prepended by the pipeline's codec). Username is uppercased for the
// protocol.
func LogonChallenge(username string, clientIP net.IP, timezoneBias uint32) []byte {
	user := strings.ToUpper(username)

	// Bytes following the u16 size field: game(4) + version(3) + build(2) +
	// platform(4) + os(4) + locale(4) + tz(4) + ip(4) + ulen(1) + username.
	size := 30 + len(user)

	w := packet.NewWriter(3 + size)
	w.PutByte(constants.AuthProtocolVersion)
	w.PutUint16(uint16(size))
	w.PutCString(GameName)
	w.PutByte(constants.VersionMajor)
	w.PutByte(constants.VersionMinor)
	w.PutByte(constants.VersionPatch)
	w.PutUint16(constants.ClientBuild)
	putReversedTag(w, Platform)
	putReversedTag(w, OS)
	putReversed(w, Locale)
	w.PutUint32(timezoneBias)
	w.PutBytes(ip4(clientIP))
	w.PutByte(byte(len(user)))
	w.PutString(user)
	return w.Bytes()
}

// putReversedTag writes s reversed followed by a NUL ("x86" → "68x\0").
func putReversedTag(w *packet.Writer, s string) {
	putReversed(w, s)
	w.PutByte(0)
}

func putReversed(w *packet.Writer, s string) {
	for i := len(s) - 1; i >= 0; i-- {
		w.PutByte(s[i])
	}
}

func ip4(ip net.IP) []byte {
	if v4 := ip.To4(); v4 != nil {
		return v4
	}
	return net.IPv4(127, 0, 0, 1).To4()
}
