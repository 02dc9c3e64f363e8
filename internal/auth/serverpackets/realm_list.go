package serverpackets

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/udisondev/wowcli/internal/packet"
)

// Realm is one advertised world server from the realm-list response. A value
// entity rebuilt fresh on every response; no identity beyond its fields.
type Realm struct {
	Type       uint32
	Flags      byte
	Name       string
	Host       string
	Port       int
	Population float32
	CharCount  byte
	Category   byte
	ID         byte
}

// Addr returns the "host:port" form of the realm address.
func (r Realm) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// ParseRealmList parses a realm-list response payload (opcode stripped):
// u16 body size, u32 padding, u8 realm count, then per realm: u32 type,
// u8 flags, cstring name, cstring "host:port", f32 population, u8 characters,
// u8 category, u8 id.
func ParseRealmList(payload []byte) ([]Realm, error) {
	r := packet.NewReader(payload)

	if _, err := r.ReadUint16(); err != nil { // body size, already consumed by framing
		return nil, fmt.Errorf("realm list: %w", err)
	}
	if err := r.Skip(4); err != nil {
		return nil, fmt.Errorf("realm list padding: %w", err)
	}
	count, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("realm count: %w", err)
	}

	realms := make([]Realm, 0, count)
	for i := range int(count) {
		realm, err := parseRealm(r)
		if err != nil {
			return nil, fmt.Errorf("realm %d: %w", i, err)
		}
		realms = append(realms, realm)
	}
	return realms, nil
}

func parseRealm(r *packet.Reader) (Realm, error) {
	var realm Realm
	var err error

	if realm.Type, err = r.ReadUint32(); err != nil {
		return realm, fmt.Errorf("type: %w", err)
	}
	if realm.Flags, err = r.ReadByte(); err != nil {
		return realm, fmt.Errorf("flags: %w", err)
	}
	if realm.Name, err = r.ReadCString(); err != nil {
		return realm, fmt.Errorf("name: %w", err)
	}

	addr, err := r.ReadCString()
	if err != nil {
		return realm, fmt.Errorf("address: %w", err)
	}
	if realm.Host, realm.Port, err = splitRealmAddr(addr); err != nil {
		return realm, err
	}

	if realm.Population, err = r.ReadFloat32(); err != nil {
		return realm, fmt.Errorf("population: %w", err)
	}
	if realm.CharCount, err = r.ReadByte(); err != nil {
		return realm, fmt.Errorf("character count: %w", err)
	}
	if realm.Category, err = r.ReadByte(); err != nil {
		return realm, fmt.Errorf("category: %w", err)
	}
	if realm.ID, err = r.ReadByte(); err != nil {
		return realm, fmt.Errorf("id: %w", err)
	}
	return realm, nil
}

// splitRealmAddr splits the wire "host:port" string.
func splitRealmAddr(addr string) (string, int, error) {
	host, portStr, ok := strings.Cut(addr, ":")
	if !ok {
		return "", 0, fmt.Errorf("realm address %q: missing port", addr)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("realm address %q: %w", addr, err)
	}
	return host, port, nil
}
