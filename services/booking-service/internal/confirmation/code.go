package confirmation

import (
	"crypto/rand"
	"fmt"
	"io"
)

// Alphabet is upper-case letters and digits without the look-alikes I, O, L, 0 and 1.
const Alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const Length = 8

// bytes at or above rejectAbove would bias the modulo toward the first symbols.
var rejectAbove = byte(256 - 256%len(Alphabet))

type Generator struct {
	src io.Reader
}

// NewGenerator draws from src. A nil src means crypto/rand.
func NewGenerator(src io.Reader) *Generator {
	if src == nil {
		src = rand.Reader
	}
	return &Generator{src: src}
}

// Generate returns a fresh code. Errors from the random source are returned as is; there is no
// fallback source.
func (g *Generator) Generate() (string, error) {
	out := make([]byte, 0, Length)
	buf := make([]byte, Length*2)
	for len(out) < Length {
		if _, err := io.ReadFull(g.src, buf); err != nil {
			return "", fmt.Errorf("read random source: %w", err)
		}
		for _, b := range buf {
			if b >= rejectAbove {
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
			if len(out) == Length {
				break
			}
		}
	}
	return string(out), nil
}

// Valid reports whether code has the generator's shape.
func Valid(code string) bool {
	if len(code) != Length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !inAlphabet(code[i]) {
			return false
		}
	}
	return true
}

func inAlphabet(c byte) bool {
	for i := 0; i < len(Alphabet); i++ {
		if Alphabet[i] == c {
			return true
		}
	}
	return false
}
