// Package hashx derives content-addressable identifiers for files. The
// store deduplicates and verifies assembled artifacts by hex MD5, so the
// identifier format is fixed by the wire contract.
package hashx

import (
	"crypto/md5"
	"fmt"
	"io"
	"os"

	"github.com/akarpov/mediavault/internal/common"
)

// Result is a computed content identifier.
//
// Weak marks a degraded-mode identifier synthesized from file metadata
// instead of content. Weak identifiers may collide; they keep deduplication
// best-effort when the file cannot be streamed, and must never be treated
// as cryptographically unique.
type Result struct {
	Hash string
	Weak bool
}

// Sum streams r through MD5 in windows of windowSize bytes and returns the
// hex digest. The digest depends only on the bytes, not on the window size.
func Sum(r io.Reader, windowSize int) (string, error) {
	if windowSize <= 0 {
		windowSize = common.HashWindowSize
	}

	h := md5.New()
	buf := make([]byte, windowSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read: %w", err)
		}
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// ComputeFile produces the content identifier for the file at path, reading
// it sequentially in bounded windows so memory use is independent of file
// size. If the content cannot be streamed, it falls back to a weak
// identifier built from the file's name, size and modification time.
func ComputeFile(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return weakFallback(path)
	}
	defer f.Close()

	hash, err := Sum(f, common.HashWindowSize)
	if err != nil {
		return weakFallback(path)
	}

	return Result{Hash: hash}, nil
}

// weakFallback hashes "name|size|mtime" so the identifier still has the
// 32-char shape the store expects.
func weakFallback(path string) (Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Result{}, fmt.Errorf("stat %s: %w", path, err)
	}

	seed := fmt.Sprintf("%s|%d|%d", info.Name(), info.Size(), info.ModTime().UnixNano())
	return Result{Hash: fmt.Sprintf("%x", md5.Sum([]byte(seed))), Weak: true}, nil
}
