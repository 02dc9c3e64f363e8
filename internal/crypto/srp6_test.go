package crypto

import (
	"crypto/sha1"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Standard 32-byte safe prime and generator used by the legacy login servers.
const testPrimeHexBE = "894B645E89E1535BBDAD5B8B290650530801B18EBFBF5E8FAB3C82872A3E9BB7"

const testGenerator = 7

func testPrimeLE(t *testing.T) []byte {
	t.Helper()
	n, ok := new(big.Int).SetString(testPrimeHexBE, 16)
	require.True(t, ok)
	return bytesLE(n, 32)
}

// testServer models the server side of the exchange with independent math,
// so the client derivation is checked end-to-end rather than against itself.
type testServer struct {
	n, g, v, b, bPub *big.Int
	salt             []byte
}

func newTestServer(t *testing.T, username, password string, salt []byte) *testServer {
	t.Helper()

	n := intFromLE(testPrimeLE(t))
	g := big.NewInt(testGenerator)

	identity := strings.ToUpper(username)
	authHash := sha1.Sum([]byte(identity + ":" + strings.ToUpper(password)))
	xHash := sha1.Sum(append(append([]byte{}, salt...), authHash[:]...))
	x := intFromLE(xHash[:])

	v := new(big.Int).Exp(g, x, n)

	b := new(big.Int).SetInt64(0x1B9F2A47)
	// B = (k·v + g^b) mod N
	bPub := new(big.Int).Mul(big.NewInt(3), v)
	bPub.Add(bPub, new(big.Int).Exp(g, b, n))
	bPub.Mod(bPub, n)

	return &testServer{n: n, g: g, v: v, b: b, bPub: bPub, salt: salt}
}

func (s *testServer) challenge(t *testing.T) Challenge {
	t.Helper()
	return Challenge{
		Generator:       testGenerator,
		Prime:           testPrimeLE(t),
		ServerPublicKey: bytesLE(s.bPub, 32),
		Salt:            s.salt,
	}
}

// sessionKey derives the server-side K from the client public key A.
func (s *testServer) sessionKey(t *testing.T, clientPublicKey []byte) []byte {
	t.Helper()

	a := intFromLE(clientPublicKey)
	uHash := sha1.Sum(append(append([]byte{}, clientPublicKey...), bytesLE(s.bPub, 32)...))
	u := intFromLE(uHash[:])

	// S = (A · v^u)^b mod N
	secret := new(big.Int).Mul(a, new(big.Int).Exp(s.v, u, s.n))
	secret.Mod(secret, s.n)
	secret.Exp(secret, s.b, s.n)

	return interleaveKey(bytesLE(secret, 32))
}

func testSalt() []byte {
	salt := make([]byte, 32)
	for i := range salt {
		salt[i] = byte(i*7 + 3)
	}
	return salt
}

func TestSRP6AgreesWithServer(t *testing.T) {
	server := newTestServer(t, "Adena", "secret", testSalt())

	session, err := newSRP6("Adena", "secret", server.challenge(t), big.NewInt(0x5E11AB))
	require.NoError(t, err)

	serverKey := server.sessionKey(t, session.PublicKey())
	assert.Equal(t, serverKey, session.SessionKey(), "client and server must derive the same session key")
	assert.Len(t, session.SessionKey(), 40)
	assert.Len(t, session.PublicKey(), 32)
	assert.Len(t, session.ClientProof(), 20)
}

func TestSRP6Deterministic(t *testing.T) {
	server := newTestServer(t, "adena", "SECRET", testSalt())

	s1, err := newSRP6("adena", "SECRET", server.challenge(t), big.NewInt(12345))
	require.NoError(t, err)
	s2, err := newSRP6("ADENA", "secret", server.challenge(t), big.NewInt(12345))
	require.NoError(t, err)

	// Case-normalized credentials and a fixed exponent reproduce everything.
	assert.Equal(t, s1.PublicKey(), s2.PublicKey())
	assert.Equal(t, s1.ClientProof(), s2.ClientProof())
	assert.Equal(t, s1.SessionKey(), s2.SessionKey())
}

func TestSRP6ServerProof(t *testing.T) {
	server := newTestServer(t, "Adena", "secret", testSalt())

	session, err := NewSRP6("Adena", "secret", server.challenge(t))
	require.NoError(t, err)

	// M2 = H(A ‖ M1 ‖ K), computed here from the wire-visible values.
	h := sha1.New()
	h.Write(session.PublicKey())
	h.Write(session.ClientProof())
	h.Write(session.SessionKey())
	proof := h.Sum(nil)

	assert.True(t, session.VerifyServerProof(proof))

	flipped := append([]byte{}, proof...)
	flipped[7] ^= 0x01
	assert.False(t, session.VerifyServerProof(flipped), "a single flipped bit must be rejected")

	assert.False(t, session.VerifyServerProof(proof[:19]))
}

func TestSRP6RejectsBadChallenge(t *testing.T) {
	salt := testSalt()
	prime := testPrimeLE(t)

	_, err := NewSRP6("user", "pass", Challenge{
		Generator:       7,
		Prime:           prime,
		ServerPublicKey: make([]byte, 31),
		Salt:            salt,
	})
	require.Error(t, err)

	// B ≡ 0 mod N leaks the verifier; must be refused.
	_, err = NewSRP6("user", "pass", Challenge{
		Generator:       7,
		Prime:           prime,
		ServerPublicKey: make([]byte, 32),
		Salt:            salt,
	})
	require.Error(t, err)
}

func TestCRCHash(t *testing.T) {
	server := newTestServer(t, "Adena", "secret", testSalt())

	session, err := newSRP6("Adena", "secret", server.challenge(t), big.NewInt(99))
	require.NoError(t, err)

	crcSalt := make([]byte, 16)
	for i := range crcSalt {
		crcSalt[i] = byte(0xA0 + i)
	}

	h := sha1.New()
	h.Write(crcSalt)
	h.Write(session.ClientProof())
	assert.Equal(t, h.Sum(nil), session.CRCHash(crcSalt))
}

func TestWorldSessionProof(t *testing.T) {
	key := make([]byte, 40)
	for i := range key {
		key[i] = byte(i)
	}
	clientSeed := []byte{1, 2, 3, 4}
	serverSeed := []byte{5, 6, 7, 8}

	p1 := WorldSessionProof("adena", clientSeed, serverSeed, key)
	p2 := WorldSessionProof("ADENA", clientSeed, serverSeed, key)
	assert.Equal(t, p1, p2, "username is case-normalized")
	assert.Len(t, p1, 20)

	p3 := WorldSessionProof("ADENA", clientSeed, []byte{5, 6, 7, 9}, key)
	assert.NotEqual(t, p1, p3)
}
