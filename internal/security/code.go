package security

import (
	"crypto/rand"
	"io"
)

// CodeAlphabet excludes 0, O, I, 1 and l.
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"

const CodeLength = 8

// largest multiple of len(CodeAlphabet) that fits in a byte; bytes above it are rejected
const codeByteLimit = 256 - 256%len(CodeAlphabet)

// CodeGenerator produces room codes from a random source.
type CodeGenerator struct {
	src io.Reader
}

func NewCodeGenerator() *CodeGenerator {
	return &CodeGenerator{src: rand.Reader}
}

// NewCodeGeneratorFrom is used by tests to plug a deterministic source.
func NewCodeGeneratorFrom(src io.Reader) *CodeGenerator {
	return &CodeGenerator{src: src}
}

// Generate returns a CodeLength-character code without modulo bias.
func (g *CodeGenerator) Generate() (string, error) {
	out := make([]byte, 0, CodeLength)
	buf := make([]byte, CodeLength*2)

	for len(out) < CodeLength {
		if _, err := io.ReadFull(g.src, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= codeByteLimit {
				continue
			}
			out = append(out, CodeAlphabet[int(b)%len(CodeAlphabet)])
			if len(out) == CodeLength {
				break
			}
		}
	}

	return string(out), nil
}
