// Package poly1305 implements the Poly1305 one-time
// authenticator per RFC 8439.
//
// Poly1305 evaluates a polynomial over the prime field
// GF(2^130 - 5) at the secret point r and adds the one-time pad
// s. A key must never authenticate more than one message;
// reusing a key forfeits all security claims. Key derivation is
// the caller's responsibility (see RFC 8439 section 2.6).
//
// Like package polyval, the streaming API only accepts full
// 16-byte blocks; a trailing partial block is absorbed with
// UpdateFinal.
//
// The arithmetic is branch-free and performs no secret-indexed
// memory accesses. It is constant time on CPUs whose integer
// multiplier is constant time.
//
// [rfc8439]: https://datatracker.ietf.org/doc/html/rfc8439
package poly1305

import (
	"encoding/binary"
	"fmt"
)

const (
	// Size is the size in bytes of a Poly1305 tag.
	Size = 16
	// BlockSize is the size in bytes of a Poly1305 block.
	BlockSize = 16
	// KeySize is the size in bytes of a Poly1305 one-time key.
	KeySize = 32
)

// The accumulator and key are held in radix 2^26: five limbs,
// 26 bits each. Clamping bounds r below 2^124, which keeps
// every 64-bit partial product and the single carry chain per
// block exact. See poly1305-donna.
const mask26 = 0x3ffffff

// MAC is an implementation of Poly1305.
//
// It only accepts full blocks, except for one optional trailing
// fragment passed to UpdateFinal.
type MAC struct {
	// Make MAC non-comparable to prevent accidental
	// non-constant time comparisons.
	_ [0]func()
	// r is the clamped evaluation point.
	r [5]uint32
	// pad is the one-time pad s.
	pad [4]uint32
	// h is the accumulator.
	h [5]uint32
	// pow is a pre-computed table of r^4, r^3, r^2, r for
	// absorbing groups of four blocks.
	pow [4][5]uint32
}

// New creates a Poly1305 MAC.
//
// The key must be exactly 32 bytes long: the evaluation point r
// (clamped here) followed by the one-time pad s. Unlike
// POLYVAL, a zero key is valid; it yields the zero tag, exactly
// as RFC 8439 prescribes.
func New(key []byte) (*MAC, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("poly1305: invalid key size: %d", len(key))
	}
	var m MAC
	// Load r and clamp: clear bits 28-31, 60-63, 92-95, and
	// 124-127, plus bits 32-33, 64-65, and 96-97 (RFC 8439
	// section 2.5). The masks fold the clamp into the
	// radix-2^26 loads.
	m.r[0] = binary.LittleEndian.Uint32(key[0:4]) & 0x3ffffff
	m.r[1] = (binary.LittleEndian.Uint32(key[3:7]) >> 2) & 0x3ffff03
	m.r[2] = (binary.LittleEndian.Uint32(key[6:10]) >> 4) & 0x3ffc0ff
	m.r[3] = (binary.LittleEndian.Uint32(key[9:13]) >> 6) & 0x3f03fff
	m.r[4] = (binary.LittleEndian.Uint32(key[12:16]) >> 8) & 0x00fffff

	m.pad[0] = binary.LittleEndian.Uint32(key[16:20])
	m.pad[1] = binary.LittleEndian.Uint32(key[20:24])
	m.pad[2] = binary.LittleEndian.Uint32(key[24:28])
	m.pad[3] = binary.LittleEndian.Uint32(key[28:32])

	m.pow[3] = m.r
	mul130(&m.pow[2], &m.pow[3], &m.r)
	mul130(&m.pow[1], &m.pow[2], &m.r)
	mul130(&m.pow[0], &m.pow[1], &m.r)
	return &m, nil
}

// Size returns the size of a Poly1305 tag.
func (m *MAC) Size() int {
	return Size
}

// BlockSize returns the size of a Poly1305 block.
func (m *MAC) BlockSize() int {
	return BlockSize
}

// Zeroize overwrites the MAC's key, accumulator, and power
// table with zeros.
//
// The MAC must not be used afterward. Zeroize is a best effort;
// Go does not guarantee that the compiler has not made copies
// elsewhere.
func (m *MAC) Zeroize() {
	*m = MAC{}
}

// Update writes one or more full blocks to the MAC.
//
// Each block is absorbed as a 129-bit little-endian integer
// with its high bit set. If len(blocks) is not a multiple of
// BlockSize, Update will panic.
func (m *MAC) Update(blocks []byte) {
	if len(blocks)%BlockSize != 0 {
		panic("poly1305: invalid input length")
	}
	n := len(blocks) / BlockSize
	if k := (n % 4) * BlockSize; k > 0 {
		updateBlocksGeneric(&m.h, &m.r, blocks[:k], 1<<24)
		blocks = blocks[k:]
	}
	if len(blocks) > 0 {
		updateBlocksWide(&m.h, &m.pow, blocks)
	}
}

// UpdateFinal writes the final, partial block to the MAC.
//
// The fragment is padded per RFC 8439: a 0x01 byte is appended
// and the block is extended with zeros to 16 bytes, so the
// absorbed integer's high bit is at position 8*len(fragment).
// The fragment must be between 1 and 15 bytes long or
// UpdateFinal will panic.
//
// No further blocks may be written after UpdateFinal.
func (m *MAC) UpdateFinal(fragment []byte) {
	if len(fragment) == 0 || len(fragment) >= BlockSize {
		panic("poly1305: invalid fragment length")
	}
	var buf [BlockSize]byte
	n := copy(buf[:], fragment)
	buf[n] = 1
	updateBlocksGeneric(&m.h, &m.r, buf[:], 0)
}

// Sum appends the current tag to b and returns the resulting
// slice.
//
// It does not change the underlying MAC state.
func (m *MAC) Sum(b []byte) []byte {
	h0, h1, h2, h3, h4 := m.h[0], m.h[1], m.h[2], m.h[3], m.h[4]

	// Fully reduce h.
	h1 += h0 >> 26
	h0 &= mask26
	h2 += h1 >> 26
	h1 &= mask26
	h3 += h2 >> 26
	h2 &= mask26
	h4 += h3 >> 26
	h3 &= mask26
	h0 += (h4 >> 26) * 5
	h4 &= mask26
	h1 += h0 >> 26
	h0 &= mask26

	// g = h + 5 - 2^130
	g0 := h0 + 5
	c := g0 >> 26
	g0 &= mask26
	g1 := h1 + c
	c = g1 >> 26
	g1 &= mask26
	g2 := h2 + c
	c = g2 >> 26
	g2 &= mask26
	g3 := h3 + c
	c = g3 >> 26
	g3 &= mask26
	g4 := h4 + c - (1 << 26)

	// Select h if h < p, or g otherwise. The subtraction above
	// borrowed into g4's sign bit iff h < p; stretch it into a
	// mask instead of branching.
	sel := (g4 >> 31) - 1
	h0 = h0&^sel | g0&sel
	h1 = h1&^sel | g1&sel
	h2 = h2&^sel | g2&sel
	h3 = h3&^sel | g3&sel
	h4 = h4&^sel | g4&sel

	// h %= 2^128, converted to radix 2^32.
	t0 := h0 | h1<<26
	t1 := h1>>6 | h2<<20
	t2 := h2>>12 | h3<<14
	t3 := h3>>18 | h4<<8

	// tag = h + s mod 2^128
	buf := make([]byte, Size)
	f := uint64(t0) + uint64(m.pad[0])
	binary.LittleEndian.PutUint32(buf[0:4], uint32(f))
	f = uint64(t1) + uint64(m.pad[1]) + f>>32
	binary.LittleEndian.PutUint32(buf[4:8], uint32(f))
	f = uint64(t2) + uint64(m.pad[2]) + f>>32
	binary.LittleEndian.PutUint32(buf[8:12], uint32(f))
	f = uint64(t3) + uint64(m.pad[3]) + f>>32
	binary.LittleEndian.PutUint32(buf[12:16], uint32(f))
	return append(b, buf...)
}

// Sum returns the Poly1305 tag of msg.
//
// Unlike the streaming API, msg may be any length: full blocks
// are absorbed directly and a trailing fragment is padded per
// RFC 8439. The key must be a valid Poly1305 key or Sum panics.
func Sum(key, msg []byte) [Size]byte {
	m, err := New(key)
	if err != nil {
		panic(err)
	}
	n := len(msg) &^ (BlockSize - 1)
	m.Update(msg[:n])
	if n < len(msg) {
		m.UpdateFinal(msg[n:])
	}
	var out [Size]byte
	m.Sum(out[:0])
	return out
}

// updateBlocksGeneric absorbs full blocks one at a time:
// h = (h + n) * r mod 2^130 - 5, with flag (the block's 2^128
// bit, pre-shifted into the top limb) ORed into each absorbed
// integer.
func updateBlocksGeneric(h, r *[5]uint32, blocks []byte, flag uint32) {
	h0, h1, h2, h3, h4 := h[0], h[1], h[2], h[3], h[4]
	r0, r1, r2, r3, r4 := uint64(r[0]), uint64(r[1]), uint64(r[2]), uint64(r[3]), uint64(r[4])
	// 2^130 = 5 mod p, so coefficients at limb positions >= 5
	// fold back to position-5 less with a multiplication by 5.
	s1, s2, s3, s4 := 5*r1, 5*r2, 5*r3, 5*r4

	for len(blocks) > 0 {
		// h += n
		h0 += binary.LittleEndian.Uint32(blocks[0:4]) & mask26
		h1 += (binary.LittleEndian.Uint32(blocks[3:7]) >> 2) & mask26
		h2 += (binary.LittleEndian.Uint32(blocks[6:10]) >> 4) & mask26
		h3 += (binary.LittleEndian.Uint32(blocks[9:13]) >> 6) & mask26
		h4 += (binary.LittleEndian.Uint32(blocks[12:16]) >> 8) | flag

		// h *= r
		d0 := uint64(h0)*r0 + uint64(h1)*s4 + uint64(h2)*s3 + uint64(h3)*s2 + uint64(h4)*s1
		d1 := (d0 >> 26) + uint64(h0)*r1 + uint64(h1)*r0 + uint64(h2)*s4 + uint64(h3)*s3 + uint64(h4)*s2
		d2 := (d1 >> 26) + uint64(h0)*r2 + uint64(h1)*r1 + uint64(h2)*r0 + uint64(h3)*s4 + uint64(h4)*s3
		d3 := (d2 >> 26) + uint64(h0)*r3 + uint64(h1)*r2 + uint64(h2)*r1 + uint64(h3)*r0 + uint64(h4)*s4
		d4 := (d3 >> 26) + uint64(h0)*r4 + uint64(h1)*r3 + uint64(h2)*r2 + uint64(h3)*r1 + uint64(h4)*r0

		// h %= p
		h0 = uint32(d0) & mask26
		h1 = uint32(d1) & mask26
		h2 = uint32(d2) & mask26
		h3 = uint32(d3) & mask26
		h4 = uint32(d4) & mask26

		h0 += uint32(d4>>26) * 5
		h1 += h0 >> 26
		h0 &= mask26

		blocks = blocks[BlockSize:]
	}
	h[0], h[1], h[2], h[3], h[4] = h0, h1, h2, h3, h4
}

// updateBlocksWide absorbs groups of four full blocks against
// the power table:
//
//    h = (h + n1)*r^4 + n2*r^3 + n3*r^2 + n4*r mod 2^130 - 5
//
// which is the same polynomial Horner evaluation as four serial
// steps but with a single carry chain per group. len(blocks)
// must be a non-zero multiple of 64.
func updateBlocksWide(h *[5]uint32, pow *[4][5]uint32, blocks []byte) {
	h0, h1, h2, h3, h4 := h[0], h[1], h[2], h[3], h[4]

	for len(blocks) > 0 {
		var d0, d1, d2, d3, d4 uint64
		for i := range pow {
			n0 := uint64(binary.LittleEndian.Uint32(blocks[0:4]) & mask26)
			n1 := uint64((binary.LittleEndian.Uint32(blocks[3:7]) >> 2) & mask26)
			n2 := uint64((binary.LittleEndian.Uint32(blocks[6:10]) >> 4) & mask26)
			n3 := uint64((binary.LittleEndian.Uint32(blocks[9:13]) >> 6) & mask26)
			n4 := uint64((binary.LittleEndian.Uint32(blocks[12:16]) >> 8) | 1<<24)
			if i == 0 {
				n0 += uint64(h0)
				n1 += uint64(h1)
				n2 += uint64(h2)
				n3 += uint64(h3)
				n4 += uint64(h4)
			}

			r := &pow[i]
			r0, r1, r2, r3, r4 := uint64(r[0]), uint64(r[1]), uint64(r[2]), uint64(r[3]), uint64(r[4])
			s1, s2, s3, s4 := 5*r1, 5*r2, 5*r3, 5*r4

			// Every term is below 2^56 and each d accumulates
			// twenty of them plus one carry, so the sums stay
			// clear of the uint64 limit.
			d0 += n0*r0 + n1*s4 + n2*s3 + n3*s2 + n4*s1
			d1 += n0*r1 + n1*r0 + n2*s4 + n3*s3 + n4*s2
			d2 += n0*r2 + n1*r1 + n2*r0 + n3*s4 + n4*s3
			d3 += n0*r3 + n1*r2 + n2*r1 + n3*r0 + n4*s4
			d4 += n0*r4 + n1*r3 + n2*r2 + n3*r1 + n4*r0

			blocks = blocks[BlockSize:]
		}

		d1 += d0 >> 26
		d2 += d1 >> 26
		d3 += d2 >> 26
		d4 += d3 >> 26
		t := uint64(uint32(d0)&mask26) + 5*(d4>>26)
		h0 = uint32(t) & mask26
		h1 = uint32(d1)&mask26 + uint32(t>>26)
		h2 = uint32(d2) & mask26
		h3 = uint32(d3) & mask26
		h4 = uint32(d4) & mask26
	}
	h[0], h[1], h[2], h[3], h[4] = h0, h1, h2, h3, h4
}

// mul130 sets z = a * b mod 2^130 - 5.
func mul130(z, a, b *[5]uint32) {
	a0, a1, a2, a3, a4 := uint64(a[0]), uint64(a[1]), uint64(a[2]), uint64(a[3]), uint64(a[4])
	b0, b1, b2, b3, b4 := uint64(b[0]), uint64(b[1]), uint64(b[2]), uint64(b[3]), uint64(b[4])
	s1, s2, s3, s4 := 5*b1, 5*b2, 5*b3, 5*b4

	d0 := a0*b0 + a1*s4 + a2*s3 + a3*s2 + a4*s1
	d1 := a0*b1 + a1*b0 + a2*s4 + a3*s3 + a4*s2
	d2 := a0*b2 + a1*b1 + a2*b0 + a3*s4 + a4*s3
	d3 := a0*b3 + a1*b2 + a2*b1 + a3*b0 + a4*s4
	d4 := a0*b4 + a1*b3 + a2*b2 + a3*b1 + a4*b0

	d1 += d0 >> 26
	d2 += d1 >> 26
	d3 += d2 >> 26
	d4 += d3 >> 26
	t := uint64(uint32(d0)&mask26) + 5*(d4>>26)
	z[0] = uint32(t) & mask26
	z[1] = uint32(d1)&mask26 + uint32(t>>26)
	z[2] = uint32(d2) & mask26
	z[3] = uint32(d3) & mask26
	z[4] = uint32(d4) & mask26
}
