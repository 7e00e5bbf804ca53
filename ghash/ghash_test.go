package ghash

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"golang.org/x/exp/rand"

	"github.com/ericlagergren/uhash/internal/gcm"
	"github.com/ericlagergren/uhash/polyval"
)

func unhex(s string) []byte {
	p, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return p
}

// TestRFCVectors tests GHASH using the worked example from
// RFC 8452 Appendix A, which pins GHASH and POLYVAL of the same
// inputs.
func TestRFCVectors(t *testing.T) {
	key := unhex("25629347589242761d31f826ba4b757b")
	blocks := unhex("4f4f95668c83dfb6401762bb2d01a262" +
		"d1a24ddd2721d006bbe45f20d3c9f362")
	want := unhex("bd9b3997046731fb96251b91f9c99d7a")

	g, err := New(key)
	if err != nil {
		t.Fatal(err)
	}
	g.Update(blocks)
	if got := g.Sum(nil); !bytes.Equal(got, want) {
		t.Fatalf("expected %x, got %x", want, got)
	}
	if got := Sum(key, blocks); !bytes.Equal(got[:], want) {
		t.Fatalf("expected %x, got %x", want, got[:])
	}
}

// TestZeroKey tests that New rejects zero keys.
func TestZeroKey(t *testing.T) {
	if _, err := New(make([]byte, KeySize)); err == nil {
		t.Fatal("expected an error")
	}
	if _, err := New(unhex("25629347589242761d31f826ba4b757b")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestEmptyInput tests that the digest of zero blocks is zero.
func TestEmptyInput(t *testing.T) {
	g, err := New(unhex("25629347589242761d31f826ba4b757b"))
	if err != nil {
		t.Fatal(err)
	}
	g.Update(nil)
	want := make([]byte, Size)
	if got := g.Sum(nil); !bytes.Equal(got, want) {
		t.Fatalf("expected %x, got %x", want, got)
	}
}

// TestFuzzGCM runs fuzz tests against the reference GHASH
// adapted from crypto/cipher.
func TestFuzzGCM(t *testing.T) {
	d := 2 * time.Second
	if testing.Short() {
		d = 10 * time.Millisecond
	}
	timer := time.NewTimer(d)

	seed := uint64(time.Now().UnixNano())
	rng := rand.New(rand.NewSource(seed))

	key := make([]byte, 16)
	const (
		N = 50
	)
	blocks := make([]byte, 16*N)
	for i := 0; ; i++ {
		select {
		case <-timer.C:
			t.Logf("iters: %d", i)
			return
		default:
		}

		if _, err := rand.Read(key); err != nil {
			t.Fatal(err)
		}
		blocks := blocks[:(rng.Intn(N-1)+1)*16]
		if _, err := rand.Read(blocks); err != nil {
			t.Fatal(err)
		}

		got, err := New(key)
		if err != nil {
			// The zero key is rejected; any other is valid.
			continue
		}
		got.Update(blocks)

		want := gcm.New(key)
		want.UpdateBlocks(blocks)

		wantHash := want.Sum(nil)
		gotHash := got.Sum(nil)
		if !bytes.Equal(wantHash, gotHash) {
			t.Fatalf("expected %x, got %x", wantHash, gotHash)
		}
	}
}

// TestPolyvalDuality tests the change of variable from RFC 8452
// Appendix A directly against package polyval.
func TestPolyvalDuality(t *testing.T) {
	seed := uint64(time.Now().UnixNano())
	rng := rand.New(rand.NewSource(seed))

	key := make([]byte, 16)
	blocks := make([]byte, 16*24)
	for i := 0; i < 500; i++ {
		rng.Read(key)
		rng.Read(blocks)

		g, err := New(key)
		if err != nil {
			continue
		}
		g.Update(blocks)

		var rev [16]byte
		reverse(&rev, key)
		p, err := polyval.New(polyval.MulX(rev[:]))
		if err != nil {
			t.Fatal(err)
		}
		var buf [16]byte
		for b := blocks; len(b) > 0; b = b[16:] {
			reverse(&buf, b[:16])
			p.Update(buf[:])
		}
		var want [16]byte
		p.Sum(buf[:0])
		reverse(&want, buf[:])

		if got := g.Sum(nil); !bytes.Equal(got, want[:]) {
			t.Fatalf("#%d: expected %x, got %x", i, want[:], got)
		}
	}
}

// TestStreamingEquivalence tests that splitting the input at
// any block boundary yields the same digest as a single call.
func TestStreamingEquivalence(t *testing.T) {
	seed := uint64(time.Now().UnixNano())
	rng := rand.New(rand.NewSource(seed))

	key := make([]byte, 16)
	key[0] = 1
	blocks := make([]byte, 16*37)
	rng.Read(blocks)

	want := Sum(key, blocks)
	for i := 0; i <= len(blocks); i += 16 {
		g, err := New(key)
		if err != nil {
			t.Fatal(err)
		}
		g.Update(blocks[:i])
		g.Update(blocks[i:])
		var got [Size]byte
		g.Sum(got[:0])
		if got != want {
			t.Fatalf("split at %d: expected %x, got %x", i, want[:], got[:])
		}
	}
}

var byteSink []byte

func BenchmarkGHASH(b *testing.B) {
	for _, n := range []int{1, 4, 8, 16, 64, 512} {
		b.Run(fmt.Sprintf("%d", n*16), func(b *testing.B) {
			benchmarkGHASH(b, n)
		})
	}
}

func benchmarkGHASH(b *testing.B, nblocks int) {
	b.SetBytes(int64(nblocks) * 16)
	g, _ := New(unhex("01000000000000000000000000000000"))
	x := make([]byte, nblocks*BlockSize)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		g.Update(x)
	}
	byteSink = g.Sum(nil)
}
