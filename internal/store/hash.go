package store

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// ContentHash returns the change-detection hash of a file's bytes.
func ContentHash(content []byte) string {
	return strconv.FormatUint(xxhash.Sum64(content), 16)
}
