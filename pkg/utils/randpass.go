package utils

import (
	"crypto/rand"
	"math/big"
)

const (
	passLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	passDigits  = "0123456789"
	passSpecial = "!@#$%^&*"
)

// GeneratePassword 12 位：6 字母 + 3 数字 + 3 符号，乱序
func GeneratePassword() string {
	out := make([]byte, 0, 12)
	out = append(out, pick(passLetters, 6)...)
	out = append(out, pick(passDigits, 3)...)
	out = append(out, pick(passSpecial, 3)...)
	shuffle(out)
	return string(out)
}

func pick(alphabet string, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		idx, _ := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		b[i] = alphabet[idx.Int64()]
	}
	return b
}

func shuffle(b []byte) {
	for i := len(b) - 1; i > 0; i-- {
		j, _ := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		b[i], b[j.Int64()] = b[j.Int64()], b[i]
	}
}
