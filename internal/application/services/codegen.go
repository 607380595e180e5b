package services

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	CodeAlphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	DefaultCodeLength = 6
	MinCodeLength     = 6
	MaxCodeLength     = 8
)

var alphabetSize = big.NewInt(int64(len(CodeAlphabet)))

// CodeGenerator draws codes uniformly from CodeAlphabet. It does not check uniqueness.
type CodeGenerator struct {
	length int
}

func NewCodeGenerator(length int) *CodeGenerator {
	switch {
	case length == 0:
		length = DefaultCodeLength
	case length < MinCodeLength:
		length = MinCodeLength
	case length > MaxCodeLength:
		length = MaxCodeLength
	}
	return &CodeGenerator{length: length}
}

func (g *CodeGenerator) Generate() (string, error) {
	b := make([]byte, g.length)
	for i := range b {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		b[i] = CodeAlphabet[n.Int64()]
	}
	return string(b), nil
}

func (g *CodeGenerator) Length() int { return g.length }

// NormalizeCode trims and upper-cases user input.
func NormalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// IsValidCode reports whether a normalized code could have been issued.
func IsValidCode(s string) bool {
	if len(s) == 0 || len(s) > MaxCodeLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(CodeAlphabet, s[i]) < 0 {
			return false
		}
	}
	return true
}
