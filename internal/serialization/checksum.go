package serialization

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// verifyData hashes the next size bytes of r and compares them with want.
func verifyData(r io.Reader, size int64, want string) error {
	h := sha256.New()
	n, err := io.Copy(h, io.LimitReader(r, size))
	if err != nil {
		return err
	}
	if n != size {
		return fmt.Errorf("%w: data section truncated (%d of %d bytes)", ErrChecksumMismatch, n, size)
	}
	if got := hex.EncodeToString(h.Sum(nil)); got != want {
		return fmt.Errorf("%w: got %.12s, header says %.12s", ErrChecksumMismatch, got, want)
	}
	return nil
}
