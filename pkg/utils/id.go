package utils

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

func NewID() string { return uuid.NewString() }

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// RandomSuffix 短随机后缀（slug 用）
func RandomSuffix(n int) string {
	b := make([]byte, n)
	for i := range b {
		idx, _ := rand.Int(rand.Reader, big.NewInt(int64(len(suffixAlphabet))))
		b[i] = suffixAlphabet[idx.Int64()]
	}
	return string(b)
}
