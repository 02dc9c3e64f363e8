package auth

import (
	"crypto/sha1"
	"math"
	"math/big"
	"strings"
	"testing"

	"github.com/udisondev/wowcli/internal/packet"
)

// Fixed SRP6 parameters used by the legacy login servers.
const fixturePrimeHexBE = "894B645E89E1535BBDAD5B8B290650530801B18EBFBF5E8FAB3C82872A3E9BB7"

const fixtureGenerator = 7

func reverseCopy(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}

func leBytes(x *big.Int, size int) []byte {
	out := make([]byte, size)
	x.FillBytes(out)
	return reverseCopy(out)
}

func leInt(b []byte) *big.Int {
	return new(big.Int).SetBytes(reverseCopy(b))
}

func fixtureSalt() []byte {
	salt := make([]byte, 32)
	for i := range salt {
		salt[i] = byte(i*5 + 11)
	}
	return salt
}

func fixtureCRCSalt() []byte {
	crc := make([]byte, 16)
	for i := range crc {
		crc[i] = byte(0x40 + i)
	}
	return crc
}

// srpServer is a minimal server-side SRP6 implementation for driving the
// client in tests.
type srpServer struct {
	n, g, v, b, bPub *big.Int
	salt             []byte
}

func newSRPServer(t *testing.T, username, password string) *srpServer {
	t.Helper()

	n, ok := new(big.Int).SetString(fixturePrimeHexBE, 16)
	if !ok {
		t.Fatal("bad prime fixture")
	}
	g := big.NewInt(fixtureGenerator)
	salt := fixtureSalt()

	identity := strings.ToUpper(username)
	authHash := sha1.Sum([]byte(identity + ":" + strings.ToUpper(password)))
	xHash := sha1.Sum(append(append([]byte{}, salt...), authHash[:]...))
	x := leInt(xHash[:])

	v := new(big.Int).Exp(g, x, n)
	b := big.NewInt(0x5A17E9D3)
	bPub := new(big.Int).Mul(big.NewInt(3), v)
	bPub.Add(bPub, new(big.Int).Exp(g, b, n))
	bPub.Mod(bPub, n)

	return &srpServer{n: n, g: g, v: v, b: b, bPub: bPub, salt: salt}
}

// challengeSuccess builds the full 119-byte logon-challenge success message
// (opcode included).
func (s *srpServer) challengeSuccess() []byte {
	w := packet.NewWriter(119)
	w.PutByte(0x00) // opcode
	w.PutByte(0x00) // unk
	w.PutByte(0x00) // result: success
	w.PutBytes(leBytes(s.bPub, 32))
	w.PutByte(1)
	w.PutByte(fixtureGenerator)
	w.PutByte(32)
	w.PutBytes(leBytes(s.n, 32))
	w.PutBytes(s.salt)
	w.PutBytes(fixtureCRCSalt())
	w.PutByte(0) // security flags
	return w.Bytes()
}

// proofSuccess computes the session key and server proof for the client
// public key and proof taken from the proof request, and builds the 26-byte
// success message.
func (s *srpServer) proofSuccess(clientPublicKey, clientProof []byte) []byte {
	key := s.sessionKey(clientPublicKey)

	m2 := sha1.New()
	m2.Write(clientPublicKey)
	m2.Write(clientProof)
	m2.Write(key)

	w := packet.NewWriter(26)
	w.PutByte(0x01) // opcode
	w.PutByte(0x00) // result: success
	w.PutBytes(m2.Sum(nil))
	w.PutUint32(0) // account flags
	return w.Bytes()
}

func (s *srpServer) sessionKey(clientPublicKey []byte) []byte {
	a := leInt(clientPublicKey)
	uHash := sha1.Sum(append(append([]byte{}, clientPublicKey...), leBytes(s.bPub, 32)...))
	u := leInt(uHash[:])

	secret := new(big.Int).Mul(a, new(big.Int).Exp(s.v, u, s.n))
	secret.Mod(secret, s.n)
	secret.Exp(secret, s.b, s.n)

	secretLE := leBytes(secret, 32)
	even := make([]byte, 16)
	odd := make([]byte, 16)
	for i := range 16 {
		even[i] = secretLE[2*i]
		odd[i] = secretLE[2*i+1]
	}
	evenHash := sha1.Sum(even)
	oddHash := sha1.Sum(odd)

	key := make([]byte, 40)
	for i := range 20 {
		key[2*i] = evenHash[i]
		key[2*i+1] = oddHash[i]
	}
	return key
}

// realmListResponse builds a full realm-list message (opcode included).
func realmListResponse(realms []Realm) []byte {
	body := packet.NewWriter(64)
	body.PutUint32(0) // padding
	body.PutByte(byte(len(realms)))
	for _, r := range realms {
		body.PutUint32(r.Type)
		body.PutByte(r.Flags)
		body.PutCString(r.Name)
		body.PutCString(r.Addr())
		body.PutUint32(math.Float32bits(r.Population))
		body.PutByte(r.CharCount)
		body.PutByte(r.Category)
		body.PutByte(r.ID)
	}

	w := packet.NewWriter(3 + body.Len())
	w.PutByte(0x10)
	w.PutUint16(uint16(body.Len()))
	w.PutBytes(body.Bytes())
	return w.Bytes()
}
