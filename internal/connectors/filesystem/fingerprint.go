package filesystem

import (
	"fmt"

	"github.com/minio/highwayhash"
)

// fingerprintKey is the fixed HighwayHash key. Fingerprints only need to be
// stable across runs, not secret.
var fingerprintKey = []byte("libsearch-watch-fingerprint-key!")

// Fingerprint returns a stable 64-bit content hash rendered as hex.
func Fingerprint(data []byte) string {
	return fmt.Sprintf("%016x", highwayhash.Sum64(data, fingerprintKey))
}
