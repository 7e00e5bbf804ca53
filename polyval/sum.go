package polyval

// Sum returns the POLYVAL digest of blocks.
//
// The key must be a valid POLYVAL key and len(blocks) must be
// a multiple of BlockSize, otherwise Sum panics.
func Sum(key, blocks []byte) [Size]byte {
	p, err := New(key)
	if err != nil {
		panic(err)
	}
	p.Update(blocks)
	var out [Size]byte
	p.Sum(out[:0])
	return out
}
