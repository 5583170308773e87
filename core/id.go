package core

import (
	"encoding/binary"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier derived from entry content. The embedded index
// backend keys entries by it; the remote backend uses the symbol directly.
type ID uint64

// IDFromSymbol generates a deterministic ID from a ticker symbol using BLAKE2b
// hashing, so re-ingesting a symbol overwrites its existing entry.
func IDFromSymbol(symbol string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(symbol))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}
