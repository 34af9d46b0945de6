// Package playerid mints player identifiers: UUIDv7 values encoded as
// 26-character Crockford base32, so IDs sort by creation time and are
// safe to paste into URLs and logs.
package playerid

import (
	"crypto/rand"
	"fmt"
	"time"
)

const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// RandSource lets tests inject deterministic randomness.
type RandSource interface {
	Intn(n int) int
}

// Generator produces player IDs. A nil RandSource uses crypto/rand.
type Generator struct {
	rand RandSource
}

func NewGenerator(rand RandSource) *Generator {
	return &Generator{rand: rand}
}

// New returns a fresh player ID using crypto/rand.
func New() string {
	return NewGenerator(nil).Generate()
}

func (g *Generator) Generate() string {
	return encode(g.uuidv7())
}

// uuidv7 lays out a 48-bit millisecond timestamp followed by random
// bits, with the version and variant bits set per RFC 9562.
func (g *Generator) uuidv7() [16]byte {
	var id [16]byte

	now := time.Now().UnixMilli()
	for i := 0; i < 6; i++ {
		id[i] = byte(now >> (40 - 8*i))
	}

	if g.rand != nil {
		for i := 6; i < 16; i++ {
			id[i] = byte(g.rand.Intn(256))
		}
	} else if _, err := rand.Read(id[6:]); err != nil {
		panic("playerid: read random bytes: " + err.Error())
	}

	id[6] = (id[6] & 0x0f) | 0x70
	id[8] = (id[8] & 0x3f) | 0x80
	return id
}

// encode packs the 128 bits into 26 base32 characters, 5 bits at a time.
func encode(data [16]byte) string {
	out := make([]byte, 26)
	for i := range out {
		bitOffset := i * 5
		byteIndex := bitOffset / 8
		bitIndex := bitOffset % 8

		var v uint8
		if byteIndex < 16 {
			if bitIndex <= 3 {
				v = (data[byteIndex] >> (3 - bitIndex)) & 0x1f
			} else {
				v = (data[byteIndex] << (bitIndex - 3)) & 0x1f
				if byteIndex+1 < 16 {
					v |= data[byteIndex+1] >> (11 - bitIndex)
				}
			}
		}
		out[i] = alphabet[v]
	}
	return string(out)
}

// Validate reports whether id is a well-formed player ID.
func Validate(id string) error {
	if len(id) != 26 {
		return fmt.Errorf("player ID must be 26 characters, got %d", len(id))
	}
	if id[0] > '7' {
		return fmt.Errorf("player ID first character must be 0-7, got %c", id[0])
	}
	for i, c := range id {
		if !validChar(c) {
			return fmt.Errorf("invalid character %c at position %d", c, i)
		}
	}
	return nil
}

func validChar(c rune) bool {
	for _, v := range alphabet {
		if c == v {
			return true
		}
	}
	return false
}
