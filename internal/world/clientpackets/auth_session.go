package clientpackets

import (
	"bytes"
	"strings"
	"sync"

	"github.com/klauspost/compress/zlib"
	"github.com/udisondev/wowcli/internal/constants"
	"github.com/udisondev/wowcli/internal/packet"
)

// Standard client addons reported in the session-auth packet. The server
// only checks the CRC against the known public-key CRC; a bare client with
// no third-party addons sends exactly this set.
var standardAddons = []string{
	"Blizzard_AuctionUI",
	"Blizzard_BattlefieldMinimap",
	"Blizzard_BindingUI",
	"Blizzard_CombatText",
	"Blizzard_CraftUI",
	"Blizzard_GMSurveyUI",
	"Blizzard_InspectUI",
	"Blizzard_MacroUI",
	"Blizzard_RaidUI",
	"Blizzard_TalentUI",
	"Blizzard_TradeSkillUI",
	"Blizzard_TrainerUI",
}

// blizzardAddonCRC is the CRC of the official addon signing key.
const blizzardAddonCRC = 0x4C1C776D

var compressedAddonInfo = sync.OnceValues(func() ([]byte, int) {
	info := packet.NewWriter(512)
	for _, name := range standardAddons {
		info.PutCString(name)
		info.PutUint32(blizzardAddonCRC)
		info.PutUint32(0)
	}

	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(info.Bytes()); err != nil {
		panic("compressing addon info: " + err.Error())
	}
	if err := zw.Close(); err != nil {
		panic("compressing addon info: " + err.Error())
	}
	return buf.Bytes(), info.Len()
})

// AuthSession builds the session-auth request payload: build number, server
// id, uppercased username, client seed, session proof and the compressed
// addon-info block preceded by its decompressed size.
func AuthSession(username string, clientSeed, proof []byte) []byte {
	user := strings.ToUpper(username)
	compressed, rawSize := compressedAddonInfo()

	w := packet.NewWriter(4 + 4 + len(user) + 1 + 4 + len(proof) + 4 + len(compressed))
	w.PutUint32(constants.ClientBuild)
	w.PutUint32(0) // server id
	w.PutCString(user)
	w.PutBytes(clientSeed)
	w.PutBytes(proof)
	w.PutUint32(uint32(rawSize))
	w.PutBytes(compressed)
	return w.Bytes()
}
