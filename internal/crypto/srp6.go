package crypto

import (
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"

	"github.com/udisondev/wowcli/internal/constants"
)

// srpK is the SRP6 multiplier parameter fixed by the protocol.
var srpK = big.NewInt(3)

// Challenge holds the SRP6 material received in the logon-challenge response.
// All byte slices are in wire order (little-endian).
type Challenge struct {
	Generator       byte
	Prime           []byte // variable length, as declared by the length byte
	ServerPublicKey []byte // 32 bytes
	Salt            []byte // 32 bytes
}

// SRP6 is one client-side SRP6 session: constructed from the username,
// password and server challenge, it yields the client public key, the client
// proof, the 40-byte session key, and verifies the server proof.
//
// All big-number wire encodings are little-endian, matching the legacy
// protocol. The session must not be reused across login attempts.
type SRP6 struct {
	username string // uppercased

	publicKey   []byte // A, 32 bytes LE
	clientProof []byte // M1, 20 bytes
	serverProof []byte // expected M2, 20 bytes
	sessionKey  []byte // K, 40 bytes
}

// NewSRP6 derives a client session from credentials and challenge material.
// Username and password are case-normalized to uppercase, as the protocol
// requires.
func NewSRP6(username, password string, ch Challenge) (*SRP6, error) {
	a, err := randomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generating private key: %w", err)
	}
	return newSRP6(username, password, ch, a)
}

// newSRP6 performs the full derivation with a caller-supplied private
// exponent. Split out so tests can pin the exponent and assert exact values.
func newSRP6(username, password string, ch Challenge, a *big.Int) (*SRP6, error) {
	if len(ch.ServerPublicKey) != constants.PublicKeySize {
		return nil, fmt.Errorf("server public key: expected %d bytes, got %d",
			constants.PublicKeySize, len(ch.ServerPublicKey))
	}
	if len(ch.Salt) != constants.SaltSize {
		return nil, fmt.Errorf("salt: expected %d bytes, got %d", constants.SaltSize, len(ch.Salt))
	}
	if len(ch.Prime) == 0 {
		return nil, fmt.Errorf("empty prime")
	}

	identity := strings.ToUpper(username)

	n := intFromLE(ch.Prime)
	g := big.NewInt(int64(ch.Generator))
	b := intFromLE(ch.ServerPublicKey)

	if new(big.Int).Mod(b, n).Sign() == 0 {
		return nil, fmt.Errorf("invalid server public key (B mod N == 0)")
	}

	// x = H(salt ‖ H(USER:PASS))
	authHash := sha1.Sum([]byte(identity + ":" + strings.ToUpper(password)))
	xHash := sha1.Sum(append(append([]byte{}, ch.Salt...), authHash[:]...))
	x := intFromLE(xHash[:])

	// A = g^a mod N
	aPub := new(big.Int).Exp(g, a, n)
	aBytes := bytesLE(aPub, constants.PublicKeySize)

	// u = H(A ‖ B)
	uHash := sha1.Sum(append(append([]byte{}, aBytes...), ch.ServerPublicKey...))
	u := intFromLE(uHash[:])

	// S = (B - k·g^x)^(a + u·x) mod N
	kgx := new(big.Int).Mul(srpK, new(big.Int).Exp(g, x, n))
	base := new(big.Int).Sub(b, kgx)
	base.Mod(base, n)
	if base.Sign() < 0 {
		base.Add(base, n)
	}
	exp := new(big.Int).Add(a, new(big.Int).Mul(u, x))
	s := new(big.Int).Exp(base, exp, n)

	sessionKey := interleaveKey(bytesLE(s, constants.PublicKeySize))

	// M1 = H(H(N)⊕H(g) ‖ H(USER) ‖ salt ‖ A ‖ B ‖ K)
	nHash := sha1.Sum(ch.Prime)
	gHash := sha1.Sum([]byte{ch.Generator})
	var ngHash [sha1.Size]byte
	for i := range nHash {
		ngHash[i] = nHash[i] ^ gHash[i]
	}
	userHash := sha1.Sum([]byte(identity))

	m1 := sha1.New()
	m1.Write(ngHash[:])
	m1.Write(userHash[:])
	m1.Write(ch.Salt)
	m1.Write(aBytes)
	m1.Write(ch.ServerPublicKey)
	m1.Write(sessionKey)
	clientProof := m1.Sum(nil)

	// Expected M2 = H(A ‖ M1 ‖ K)
	m2 := sha1.New()
	m2.Write(aBytes)
	m2.Write(clientProof)
	m2.Write(sessionKey)
	serverProof := m2.Sum(nil)

	return &SRP6{
		username:    identity,
		publicKey:   aBytes,
		clientProof: clientProof,
		serverProof: serverProof,
		sessionKey:  sessionKey,
	}, nil
}

// Username returns the case-normalized identity used in the exchange.
func (s *SRP6) Username() string {
	return s.username
}

// PublicKey returns the 32-byte client public key A in wire order.
func (s *SRP6) PublicKey() []byte {
	return s.publicKey
}

// ClientProof returns the 20-byte proof M1.
func (s *SRP6) ClientProof() []byte {
	return s.clientProof
}

// SessionKey returns the 40-byte derived session key K.
func (s *SRP6) SessionKey() []byte {
	return s.sessionKey
}

// CRCHash computes the integrity hash sent alongside the proof:
// H(crcSalt ‖ M1).
func (s *SRP6) CRCHash(crcSalt []byte) []byte {
	h := sha1.New()
	h.Write(crcSalt)
	h.Write(s.clientProof)
	return h.Sum(nil)
}

// VerifyServerProof checks the server's M2 in constant time.
func (s *SRP6) VerifyServerProof(proof []byte) bool {
	if len(proof) != constants.ProofSize {
		return false
	}
	return subtle.ConstantTimeCompare(proof, s.serverProof) == 1
}

// WorldProof computes the world-session proof:
// H(USER ‖ u32(0) ‖ clientSeed ‖ serverSeed ‖ K).
// Seeds are 4-byte values in wire order.
func (s *SRP6) WorldProof(clientSeed, serverSeed []byte) []byte {
	return WorldSessionProof(s.username, clientSeed, serverSeed, s.sessionKey)
}

// WorldSessionProof computes the session-auth proof for an already-derived
// session key, for callers that carry the key without the SRP6 session.
func WorldSessionProof(username string, clientSeed, serverSeed, sessionKey []byte) []byte {
	h := sha1.New()
	h.Write([]byte(strings.ToUpper(username)))
	h.Write([]byte{0, 0, 0, 0})
	h.Write(clientSeed)
	h.Write(serverSeed)
	h.Write(sessionKey)
	return h.Sum(nil)
}

// randomPrivateKey generates the random client exponent a.
func randomPrivateKey() (*big.Int, error) {
	buf := make([]byte, constants.PrivateKeySize)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	a := new(big.Int).SetBytes(buf)
	if a.Sign() == 0 {
		a.SetInt64(1)
	}
	return a, nil
}

// interleaveKey builds the 40-byte session key from the 32-byte shared
// secret S: hash the even-indexed and odd-indexed halves separately, then
// interleave the two digests.
func interleaveKey(secret []byte) []byte {
	half := len(secret) / 2
	even := make([]byte, half)
	odd := make([]byte, half)
	for i := range half {
		even[i] = secret[2*i]
		odd[i] = secret[2*i+1]
	}

	evenHash := sha1.Sum(even)
	oddHash := sha1.Sum(odd)

	key := make([]byte, constants.SessionKeySize)
	for i := range sha1.Size {
		key[2*i] = evenHash[i]
		key[2*i+1] = oddHash[i]
	}
	return key
}

// bytesLE encodes x as little-endian, zero-padded to size bytes.
func bytesLE(x *big.Int, size int) []byte {
	out := make([]byte, size)
	x.FillBytes(out)
	reverseBytes(out)
	return out
}

// intFromLE interprets b as a little-endian unsigned integer.
func intFromLE(b []byte) *big.Int {
	be := make([]byte, len(b))
	copy(be, b)
	reverseBytes(be)
	return new(big.Int).SetBytes(be)
}

func reverseBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
