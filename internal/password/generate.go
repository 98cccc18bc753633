package password

import (
	"crypto/rand"
	"fmt"
)

// GeneratedLen is the length of passwords returned by Generate.
const GeneratedLen = 16

// generateChars avoids characters that are easily confused when read aloud.
var generateChars = []byte("ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789") //nolint:gochecknoglobals

// Generate returns a random password of length characters, used for
// administrative resets where the operator supplies none.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = GeneratedLen
	}

	// bytes at or above maxByte would bias the modulo
	clen := len(generateChars)
	maxByte := 256 - (256 % clen)

	out := make([]byte, 0, length)
	buf := make([]byte, length*2) //nolint:mnd

	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}

		for _, b := range buf {
			if int(b) >= maxByte {
				continue
			}

			out = append(out, generateChars[int(b)%clen])
			if len(out) == length {
				break
			}
		}
	}

	return string(out), nil
}
