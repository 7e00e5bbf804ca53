package polyval

import "math/bits"

// ctmul returns the 128-bit carry-less product of x and y.
//
// The low half is computed directly with bmul64. The masked
// integer multiplications inside bmul64 are only exact for the
// low 64 bits of the product, so the high half is recovered
// from the identity
//
//    rev127(x ⊗ y) = rev64(x) ⊗ rev64(y)
//
// i.e., the top bits of the product are the bottom bits of the
// product of the bit-reversed operands. This mirrors BearSSL's
// ghash_ctmul64.
//
// ctmul is constant time on CPUs whose 64-bit multiplier is
// constant time. That precondition cannot be checked at
// runtime.
func ctmul(x, y uint64) (z1, z0 uint64) {
	z0 = bmul64(x, y)
	z1 = bits.Reverse64(bmul64(bits.Reverse64(x), bits.Reverse64(y))) >> 1
	return z1, z0
}

// bmul64 returns the low 64 bits of the carry-less product of
// x and y.
//
// Each operand is masked into four interleaved lanes so that
// the products of two lanes keep their meaningful bits four
// positions apart. At most 16 elementary products accumulate
// in any one column, so the carries of the integer
// multiplications stay inside the gaps for every column of the
// low word; masking the combined products drops them.
func bmul64(x, y uint64) uint64 {
	x0 := x & 0x1111111111111111
	x1 := x & 0x2222222222222222
	x2 := x & 0x4444444444444444
	x3 := x & 0x8888888888888888

	y0 := y & 0x1111111111111111
	y1 := y & 0x2222222222222222
	y2 := y & 0x4444444444444444
	y3 := y & 0x8888888888888888

	// Bits of x_a*y_b land at positions congruent to a+b mod 4.
	z0 := (x0 * y0) ^ (x1 * y3) ^ (x2 * y2) ^ (x3 * y1)
	z1 := (x0 * y1) ^ (x1 * y0) ^ (x2 * y3) ^ (x3 * y2)
	z2 := (x0 * y2) ^ (x1 * y1) ^ (x2 * y0) ^ (x3 * y3)
	z3 := (x0 * y3) ^ (x1 * y2) ^ (x2 * y1) ^ (x3 * y0)

	z0 &= 0x1111111111111111
	z1 &= 0x2222222222222222
	z2 &= 0x4444444444444444
	z3 &= 0x8888888888888888
	return z0 | z1 | z2 | z3
}
