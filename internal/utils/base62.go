package utils

import (
	"fmt"
	"strings"
)

// EncodeBase62 converts a number to its base62 representation. Unlike the
// random generator it is injective, so codes derived from distinct sequence
// values can never collide with each other.
func EncodeBase62(num uint64) string {
	if num == 0 {
		return "0"
	}

	var sb []byte
	for num > 0 {
		sb = append(sb, alphabet[num%62])
		num /= 62
	}

	// Digits were produced least-significant first.
	for i, j := 0, len(sb)-1; i < j; i, j = i+1, j-1 {
		sb[i], sb[j] = sb[j], sb[i]
	}

	return string(sb)
}

// DecodeBase62 is the inverse of EncodeBase62.
func DecodeBase62(s string) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty base62 string")
	}

	var num uint64
	for _, c := range s {
		idx := strings.IndexRune(alphabet, c)
		if idx < 0 {
			return 0, fmt.Errorf("invalid base62 character: %c", c)
		}
		num = num*62 + uint64(idx)
	}

	return num, nil
}
