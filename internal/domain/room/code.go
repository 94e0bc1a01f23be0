package room

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	InviteCodeLength = 6
	// InviteCodeAlphabet has 32 symbols; 0, O, 1 and I are left out because
	// they are easy to misread.
	InviteCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

func GenerateInviteCode() (string, error) {
	max := big.NewInt(int64(len(InviteCodeAlphabet)))

	var builder strings.Builder
	builder.Grow(InviteCodeLength)

	for i := 0; i < InviteCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		builder.WriteByte(InviteCodeAlphabet[n.Int64()])
	}

	return builder.String(), nil
}

func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsWellFormedCode reports whether code could have been produced by
// GenerateInviteCode.
func IsWellFormedCode(code string) bool {
	if len(code) != InviteCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(InviteCodeAlphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}
