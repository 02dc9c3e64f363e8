package auth

import "github.com/udisondev/wowcli/internal/auth/serverpackets"

// Realm is re-exported so callers work with the auth client's vocabulary
// without importing the wire-parsing subpackage.
type Realm = serverpackets.Realm
