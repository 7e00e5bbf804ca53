// Package ghash implements GHASH per NIST SP 800-38D.
//
// GHASH and POLYVAL are the same universal hash function up to
// a change of variable: GHASH's field GF(2^128) modulo
// x^128 + x^7 + x^2 + x + 1 with big-endian conventions is
// isomorphic to POLYVAL's field under byte reversal, with
//
//    GHASH(H, X_1, ..., X_n) =
//        ByteReverse(POLYVAL(mulX_POLYVAL(ByteReverse(H)),
//            ByteReverse(X_1), ..., ByteReverse(X_n)))
//
// per RFC 8452 Appendix A. This package is that bridge: the key
// is reversed and pre-multiplied by x once at construction, and
// each block crosses the boundary through a byte reversal, so
// all arithmetic runs on package polyval's backends.
//
// [rfc8452]: https://datatracker.ietf.org/doc/html/rfc8452#appendix-A
package ghash

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/ericlagergren/uhash/polyval"
)

const (
	// Size is the size in bytes of a GHASH digest.
	Size = 16
	// BlockSize is the size in bytes of a GHASH block.
	BlockSize = 16
	// KeySize is the size in bytes of a GHASH key.
	KeySize = 16
)

// GHASH is an implementation of GHASH.
//
// It operates similar to the standard library's Hash interface,
// but only accepts full blocks. Blocks are big-endian field
// elements, per NIST SP 800-38D.
type GHASH struct {
	// Make GHASH non-comparable to prevent accidental
	// non-constant time comparisons.
	_ [0]func()
	p polyval.Polyval
}

// New creates a GHASH.
//
// The key must be exactly 16 bytes long.
//
// A zero key is invalid.
func New(key []byte) (*GHASH, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("ghash: invalid key size: %d", len(key))
	}
	var h [16]byte
	reverse(&h, key)
	p, err := polyval.New(polyval.MulX(h[:]))
	if err != nil {
		return nil, err
	}
	return &GHASH{p: *p}, nil
}

// Size returns the size of a GHASH digest.
func (g *GHASH) Size() int {
	return Size
}

// BlockSize returns the size of a GHASH block.
func (g *GHASH) BlockSize() int {
	return BlockSize
}

// Reset sets the hash to its original state.
func (g *GHASH) Reset() {
	g.p.Reset()
}

// Zeroize overwrites the hash's key and state with zeros.
//
// The hash must not be used afterward. Zeroize is a best
// effort; Go does not guarantee that the compiler has not made
// copies elsewhere.
func (g *GHASH) Zeroize() {
	g.p.Zeroize()
}

// Update writes one or more blocks to the running hash.
//
// If len(blocks) is not a multiple of BlockSize, Update will
// panic.
func (g *GHASH) Update(blocks []byte) {
	if len(blocks)%BlockSize != 0 {
		panic("ghash: invalid input length")
	}
	var buf [16]byte
	for len(blocks) > 0 {
		reverse(&buf, blocks[:16])
		g.p.Update(buf[:])
		blocks = blocks[16:]
	}
}

// Sum appends the current hash to b and returns the resulting
// slice.
//
// It does not change the underlying hash state.
func (g *GHASH) Sum(b []byte) []byte {
	var buf, out [16]byte
	g.p.Sum(buf[:0])
	reverse(&out, buf[:])
	return append(b, out[:]...)
}

// Sum returns the GHASH digest of blocks.
//
// The key must be a valid GHASH key and len(blocks) must be a
// multiple of BlockSize, otherwise Sum panics.
func Sum(key, blocks []byte) [Size]byte {
	g, err := New(key)
	if err != nil {
		panic(err)
	}
	g.Update(blocks)
	var out [Size]byte
	g.Sum(out[:0])
	return out
}

// reverse writes the 16-byte string src to dst with its bytes
// reversed.
func reverse(dst *[16]byte, src []byte) {
	lo := bits.ReverseBytes64(binary.LittleEndian.Uint64(src[0:8]))
	hi := bits.ReverseBytes64(binary.LittleEndian.Uint64(src[8:16]))
	binary.LittleEndian.PutUint64(dst[0:8], hi)
	binary.LittleEndian.PutUint64(dst[8:16], lo)
}
