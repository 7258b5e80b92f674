package shareresolver

import (
	"fmt"
	"math/big"
	"strings"
)

const base62Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// DecodeBase62 decodes an opaque share identifier as a base-62 integer,
// most significant digit first, and returns its decimal representation.
// Share IDs routinely exceed the 64-bit range, so the arithmetic is
// arbitrary precision.
func DecodeBase62(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("empty share identifier")
	}

	base := big.NewInt(62)
	value := new(big.Int)
	digit := new(big.Int)

	for _, ch := range id {
		idx := strings.IndexRune(base62Alphabet, ch)
		if idx < 0 {
			return "", fmt.Errorf("invalid base62 character %q in identifier %q", ch, id)
		}
		value.Mul(value, base)
		value.Add(value, digit.SetInt64(int64(idx)))
	}

	return value.String(), nil
}
