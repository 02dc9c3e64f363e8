package auth

// Session is the product of a successful login: the normalized username, the
// 40-byte derived session key and the login server address. Immutable; a new
// login produces a new Session.
type Session struct {
	Username string
	Key      []byte
	ServerIP string
}
