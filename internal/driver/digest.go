package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// Digest is the SHA-256 of a module file.
type Digest [sha256.Size]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// Short returns the first 12 hex digits.
func (d Digest) Short() string { return d.String()[:12] }

// IsZero reports whether d was never computed.
func (d Digest) IsZero() bool { return d == Digest{} }

func fileDigest(path string) (Digest, error) {
	var out Digest
	f, err := os.Open(path)
	if err != nil {
		return out, err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return out, err
	}
	copy(out[:], h.Sum(nil))
	return out, nil
}
