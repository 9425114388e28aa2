package request

import (
	"crypto/rand"
	"errors"
	"regexp"
	"strings"
)

// codeAlphabet is the 32-symbol set used for public tracking codes. It drops
// I, L, O and U so a code read over the phone or typed from a receipt cannot
// be confused with 1/0 or misheard.
const codeAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

const CodeLength = 5

var (
	ErrCodeGeneration = errors.New("code generation failed")
	ErrInvalidCode    = errors.New("invalid request code")

	codePattern = regexp.MustCompile(`^[A-Z0-9]+-[` + codeAlphabet + `]{5}$`)
)

// NewCode draws CodeLength random symbols from the alphabet and prefixes
// them, e.g. "RQ-7GKXW". Uniqueness is the caller's problem (insert under the
// unique constraint and retry on collision).
func NewCode(prefix string) (string, error) {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", ErrCodeGeneration
	}

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte('-')
	for _, c := range buf {
		b.WriteByte(codeAlphabet[int(c)%len(codeAlphabet)])
	}
	return b.String(), nil
}

// NormalizeCode uppercases and trims user-typed input before lookup.
func NormalizeCode(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if !codePattern.MatchString(code) {
		return "", ErrInvalidCode
	}
	return code, nil
}
