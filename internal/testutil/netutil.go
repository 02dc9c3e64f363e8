package testutil

import (
	"net"
	"testing"
)

// ListenTCP создаёт TCP listener на случайном порту для тестов.
// Возвращает listener, host и port. Автоматически закрывает listener при
// завершении теста.
func ListenTCP(t testing.TB) (net.Listener, string, int) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create TCP listener: %v", err)
	}

	t.Cleanup(func() {
		_ = listener.Close()
	})

	addr := listener.Addr().(*net.TCPAddr)
	return listener, "127.0.0.1", addr.Port
}

// AcceptOne принимает ровно одно соединение в фоне и отдаёт его через канал.
// Соединение закрывается при завершении теста.
func AcceptOne(t testing.TB, listener net.Listener) <-chan net.Conn {
	t.Helper()

	ch := make(chan net.Conn, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			close(ch)
			return
		}
		t.Cleanup(func() { _ = conn.Close() })
		ch <- conn
	}()
	return ch
}
