package hashring

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/spaolacci/murmur3"
)

// MD5Digest is the default digest function: the hex md5 of the key.
// Hex digests all share the same length, so they order lexicographically
// and pair with the default comparator.
func MD5Digest(key string) string {
	var sum = md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Murmur3Digest is a fast non-cryptographic alternative producing the
// decimal form of the 64-bit murmur3 sum. Decimal digests vary in length,
// so rings using it must also set NumericCompare.
func Murmur3Digest(key string) string {
	return strconv.FormatUint(murmur3.Sum64([]byte(key)), 10)
}

// NumericCompare orders decimal digest strings by magnitude: shorter
// strings are smaller, equal-length strings compare lexicographically.
func NumericCompare(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
