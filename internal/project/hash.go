package project

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Digest is a SHA-256 sum.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// IsZero reports the zero digest.
func (d Digest) IsZero() bool { return d == Digest{} }

// Combine hashes content followed by deps. Callers pass deps in a fixed
// order.
func Combine(content Digest, deps ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, d := range deps {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// DigestBytes hashes b.
func DigestBytes(b []byte) Digest {
	return sha256.Sum256(b)
}

// DigestStrings hashes a list of strings, length-prefixed so that
// ["ab","c"] and ["a","bc"] differ.
func DigestStrings(ss ...string) Digest {
	h := sha256.New()
	for _, s := range ss {
		fmt.Fprintf(h, "%d:%s", len(s), s)
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// DigestFile hashes the contents of the file at path.
func DigestFile(path string) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digest{}, err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return Digest{}, fmt.Errorf("hash %s: %w", path, err)
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out, nil
}
