package util

import (
	"encoding/binary"
	"fmt"
	"hash"
	"hash/crc32"
	"math"
)

// Fingerprinter accumulates a CRC32 over a stream of numeric fields.
type Fingerprinter struct {
	h   hash.Hash32
	buf [8]byte
}

// NewFingerprinter creates an empty fingerprinter
func NewFingerprinter() *Fingerprinter {
	return &Fingerprinter{h: crc32.NewIEEE()}
}

// AddInt64 mixes an integer into the fingerprint
func (f *Fingerprinter) AddInt64(v int64) {
	binary.LittleEndian.PutUint64(f.buf[:], uint64(v))
	f.h.Write(f.buf[:])
}

// AddFloat64 mixes a float into the fingerprint by its bit pattern
func (f *Fingerprinter) AddFloat64(v float64) {
	binary.LittleEndian.PutUint64(f.buf[:], math.Float64bits(v))
	f.h.Write(f.buf[:])
}

// AddBool mixes a flag into the fingerprint
func (f *Fingerprinter) AddBool(v bool) {
	if v {
		f.h.Write([]byte{1})
		return
	}
	f.h.Write([]byte{0})
}

// Sum returns the fingerprint as eight hex digits
func (f *Fingerprinter) Sum() string {
	return fmt.Sprintf("%08x", f.h.Sum32())
}

// CalculateFingerprint returns the CRC32 fingerprint of raw bytes
func CalculateFingerprint(data []byte) string {
	return fmt.Sprintf("%08x", crc32.ChecksumIEEE(data))
}
