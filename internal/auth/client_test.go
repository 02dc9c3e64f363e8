package auth

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/udisondev/wowcli/internal/testutil"
)

const (
	testUser = "STUDENT"
	testPass = "PASSWORD"
)

// scriptedLogin drives the server side of one handshake on conn, replying
// from srv. If rejectChallenge is non-zero the challenge is answered with
// that error code and the handshake stops there.
func scriptedLogin(t *testing.T, conn net.Conn, srv *srpServer, rejectChallenge byte) {
	t.Helper()

	a, m1 := readChallengeAndProofRequests(t, conn, srv, rejectChallenge)
	if rejectChallenge != 0 {
		return
	}

	_, err := conn.Write(srv.proofSuccess(a, m1))
	require.NoError(t, err)
}

// readChallengeAndProofRequests consumes a logon-challenge request, answers
// it, and (on success) consumes the proof request, returning the client's
// public key and proof.
func readChallengeAndProofRequests(t *testing.T, conn net.Conn, srv *srpServer, rejectChallenge byte) (a, m1 []byte) {
	t.Helper()

	head := make([]byte, 4) // opcode, protocol version, u16 size
	_, err := io.ReadFull(conn, head)
	require.NoError(t, err)
	require.EqualValues(t, 0x00, head[0])

	body := make([]byte, binary.LittleEndian.Uint16(head[2:4]))
	_, err = io.ReadFull(conn, body)
	require.NoError(t, err)

	if rejectChallenge != 0 {
		_, err = conn.Write([]byte{0x00, 0x00, rejectChallenge})
		require.NoError(t, err)
		return nil, nil
	}

	_, err = conn.Write(srv.challengeSuccess())
	require.NoError(t, err)

	proof := make([]byte, 75) // opcode + A + M1 + crc + two trailing zero bytes
	_, err = io.ReadFull(conn, proof)
	require.NoError(t, err)
	require.EqualValues(t, 0x01, proof[0])
	return proof[1:33], proof[33:53]
}

func serveRealmList(t *testing.T, conn net.Conn, realms []Realm) {
	t.Helper()

	req := make([]byte, 5)
	_, err := io.ReadFull(conn, req)
	require.NoError(t, err)
	require.EqualValues(t, 0x10, req[0])

	_, err = conn.Write(realmListResponse(realms))
	require.NoError(t, err)
}

func TestClientLoginAndRealmList(t *testing.T) {
	listener, host, port := testutil.ListenTCP(t)
	accepted := testutil.AcceptOne(t, listener)

	srv := newSRPServer(t, testUser, testPass)
	serverKey := make(chan []byte, 1)
	go func() {
		conn := <-accepted
		a, m1 := readChallengeAndProofRequests(t, conn, srv, 0)
		serverKey <- srv.sessionKey(a)
		if _, err := conn.Write(srv.proofSuccess(a, m1)); err != nil {
			return
		}
		serveRealmList(t, conn, []Realm{
			{Name: "Everlook", Host: "10.0.0.1", Port: 8085, ID: 1, Population: 1.5},
			{Name: "Kronos", Host: "10.0.0.2", Port: 8086, ID: 2, CharCount: 3},
		})
	}()

	c := NewClient(WithTimeout(2 * time.Second))
	defer c.Close()

	require.NoError(t, c.Login(context.Background(), "student", testPass, host, port))
	assert.Equal(t, StateAuthenticated, c.State())

	sess := c.Session()
	require.NotNil(t, sess)
	assert.Equal(t, testUser, sess.Username)
	assert.Equal(t, host, sess.ServerIP)
	require.Len(t, sess.Key, 40)
	assert.Equal(t, <-serverKey, sess.Key)

	realms, err := c.GetRealmList(context.Background())
	require.NoError(t, err)
	require.Len(t, realms, 2)
	assert.Equal(t, "Everlook", realms[0].Name)
	assert.Equal(t, "10.0.0.1:8085", realms[0].Addr())
	assert.EqualValues(t, 2, realms[1].ID)
	assert.EqualValues(t, 3, realms[1].CharCount)
}

func TestClientLoginRejectedThenRetry(t *testing.T) {
	listener, host, port := testutil.ListenTCP(t)
	accepted := testutil.AcceptOne(t, listener)

	srv := newSRPServer(t, testUser, testPass)
	go func() {
		conn := <-accepted
		scriptedLogin(t, conn, srv, 0x04) // unknown account
		scriptedLogin(t, conn, srv, 0)
	}()

	c := NewClient(WithTimeout(2 * time.Second))
	defer c.Close()

	err := c.Login(context.Background(), testUser, testPass, host, port)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0x04")
	assert.Equal(t, StateFailed, c.State())
	assert.Nil(t, c.Session())

	// Same client, same connection: a fresh attempt must work.
	require.NoError(t, c.Login(context.Background(), testUser, testPass, host, port))
	assert.Equal(t, StateAuthenticated, c.State())
}

func TestClientRejectsBadServerProof(t *testing.T) {
	listener, host, port := testutil.ListenTCP(t)
	accepted := testutil.AcceptOne(t, listener)

	srv := newSRPServer(t, testUser, testPass)
	go func() {
		conn := <-accepted
		a, m1 := readChallengeAndProofRequests(t, conn, srv, 0)
		forged := srv.proofSuccess(a, m1)
		forged[5] ^= 0x01 // corrupt M2
		_, _ = conn.Write(forged)
	}()

	c := NewClient(WithTimeout(2 * time.Second))
	defer c.Close()

	err := c.Login(context.Background(), testUser, testPass, host, port)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server proof")
	assert.Equal(t, StateFailed, c.State())
}

func TestClientLoginTimeout(t *testing.T) {
	listener, host, port := testutil.ListenTCP(t)
	accepted := testutil.AcceptOne(t, listener)
	go func() { <-accepted }() // accept and stay silent

	c := NewClient(WithTimeout(150 * time.Millisecond))
	defer c.Close()

	start := time.Now()
	err := c.Login(context.Background(), testUser, testPass, host, port)
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, StateFailed, c.State())
}

func TestClientRealmListRequiresLogin(t *testing.T) {
	c := NewClient()
	defer c.Close()

	_, err := c.GetRealmList(context.Background())
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestClientRetryAfterPartialChallenge(t *testing.T) {
	listener, host, port := testutil.ListenTCP(t)
	accepted := testutil.AcceptOne(t, listener)

	srv := newSRPServer(t, testUser, testPass)
	go func() {
		conn := <-accepted

		// First attempt: deliver only a prefix of the challenge response,
		// then go silent until the client gives up.
		head := make([]byte, 4)
		if _, err := io.ReadFull(conn, head); err != nil {
			return
		}
		body := make([]byte, binary.LittleEndian.Uint16(head[2:4]))
		if _, err := io.ReadFull(conn, body); err != nil {
			return
		}
		if _, err := conn.Write(srv.challengeSuccess()[:10]); err != nil {
			return
		}

		// Second attempt on the same connection runs to completion.
		scriptedLogin(t, conn, srv, 0)
	}()

	c := NewClient(WithTimeout(200 * time.Millisecond))
	defer c.Close()

	err := c.Login(context.Background(), testUser, testPass, host, port)
	require.Error(t, err)
	assert.Equal(t, StateFailed, c.State())

	// The stale prefix must not bleed into the retry's response stream.
	c.timeout = 2 * time.Second
	require.NoError(t, c.Login(context.Background(), testUser, testPass, host, port))
	assert.Equal(t, StateAuthenticated, c.State())
}
