// Package keygen produces human-typable license keys from a cryptographic
// random source.
package keygen

import (
	"crypto/rand"
	"regexp"
	"strings"
)

const (
	alphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	groupCount = 4
	groupLen   = 4
)

// Pattern matches the wire format of a license key.
var Pattern = regexp.MustCompile(`^[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}$`)

// Generate returns a candidate key in XXXX-XXXX-XXXX-XXXX form. Uniqueness is
// the caller's responsibility: check the store and regenerate on collision.
func Generate() (string, error) {
	var b strings.Builder
	b.Grow(groupCount*groupLen + groupCount - 1)

	for g := 0; g < groupCount; g++ {
		if g > 0 {
			b.WriteByte('-')
		}
		for i := 0; i < groupLen; i++ {
			idx, err := randomIndex(len(alphabet))
			if err != nil {
				return "", err
			}
			b.WriteByte(alphabet[idx])
		}
	}

	return b.String(), nil
}

// Valid reports whether key is well-formed.
func Valid(key string) bool {
	return Pattern.MatchString(key)
}

// randomIndex draws a uniform value in [0, n) by rejection sampling, so no
// symbol is favored by the modulo.
func randomIndex(n int) (int, error) {
	limit := 256 - 256%n
	buf := make([]byte, 1)
	for {
		if _, err := rand.Read(buf); err != nil {
			return 0, err
		}
		if int(buf[0]) < limit {
			return int(buf[0]) % n, nil
		}
	}
}
