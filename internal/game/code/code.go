// Package code generates and validates session join codes.
package code

import (
	"math/rand/v2"
	"strings"
)

// HiddenCode is the fixed quick-join code. It bypasses the numeric format
// contract so players can join a secret game without typing a code.
const HiddenCode = "yolo"

// DefaultLength is the join code width used when none is configured.
const DefaultLength = 4

// Generator produces fixed-width numeric join codes. Codes are not
// guaranteed unique; the repository's unique index and the lobby's retry
// loop enforce uniqueness among active sessions.
type Generator struct {
	length int
}

// NewGenerator creates a Generator producing codes of the given width.
func NewGenerator(length int) *Generator {
	if length <= 0 {
		length = DefaultLength
	}
	return &Generator{length: length}
}

// Length returns the configured code width.
func (g *Generator) Length() int {
	return g.length
}

// Generate returns a random numeric code of the configured width.
func (g *Generator) Generate() string {
	var b strings.Builder
	b.Grow(g.length)
	for i := 0; i < g.length; i++ {
		b.WriteByte(byte('0' + rand.IntN(10)))
	}
	return b.String()
}

// Valid reports whether code satisfies the numeric format contract:
// exactly the configured width, digits only.
func (g *Generator) Valid(code string) bool {
	if len(code) != g.length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

// Acceptable reports whether code may be used for a join: either a valid
// numeric code or the fixed hidden code. Checked before any store lookup.
func (g *Generator) Acceptable(code string) bool {
	return code == HiddenCode || g.Valid(code)
}
