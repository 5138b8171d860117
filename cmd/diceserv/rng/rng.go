// Package rng provides the combined SFMT / Mother-of-all generator that
// drives every dice throw.
//
// The SFMT half follows the SIMD-oriented Fast Mersenne Twister by Saito and
// Matsumoto (parameter set 11213) and the combination with the Mother-of-all
// multiply-with-carry generator follows Agner Fog's random library.
package rng

import (
	"math"
	"sync"
	"time"
)

const (
	sfmtN   = 88 // 128-bit words in the state
	sfmtM   = 68 // intermediate feedback position
	sfmtSL1 = 14 // left shift of 32-bit lanes
	sfmtSL2 = 3  // left shift of the 128-bit word, in bytes
	sfmtSR1 = 7  // right shift of 32-bit lanes
	sfmtSR2 = 3  // right shift of the 128-bit word, in bytes

	stateWords = sfmtN * 4
)

var (
	sfmtMask   = [4]uint32{0xeffff7fb, 0xffffffef, 0xdfdfbfff, 0x7fffdbfd}
	sfmtParity = [4]uint32{1, 0, 0xe8148000, 0xd0c7afa3}
)

// ErrorValue is returned by Range when max < min.
const ErrorValue = math.MinInt32

// Generator is safe for concurrent use.
type Generator struct {
	mu sync.Mutex

	state  [stateWords]uint32
	mother [5]uint32
	ix     int

	lastInterval uint32
	rlimit       uint32
}

// New returns a generator seeded with seed.
func New(seed uint32) *Generator {
	g := &Generator{}
	g.init(seed)
	return g
}

var (
	defaultOnce sync.Once
	defaultGen  *Generator
)

// Default returns the process-wide generator, seeded from the wall clock on
// first use.
func Default() *Generator {
	defaultOnce.Do(func() {
		defaultGen = New(uint32(time.Now().Unix()))
	})
	return defaultGen
}

func (g *Generator) init(seed uint32) {
	const factor = 1812433253
	const total = stateWords + 5

	y := seed
	g.state[0] = y
	for i := uint32(1); i < total; i++ {
		y = factor*(y^(y>>30)) + i
		if i < stateWords {
			g.state[i] = y
		} else {
			g.mother[i-stateWords] = y
		}
	}

	g.certifyPeriod()
	g.generate()
}

// certifyPeriod flips one bit of the first word when the parity check
// fails, guaranteeing the full period.
func (g *Generator) certifyPeriod() {
	var inner uint32
	for i := 0; i < 4; i++ {
		inner ^= sfmtParity[i] & g.state[i]
	}
	for i := 16; i > 0; i >>= 1 {
		inner ^= inner >> i
	}
	if inner&1 == 1 {
		return
	}
	for i := 0; i < 4; i++ {
		for j := uint32(1); j != 0; j <<= 1 {
			if sfmtParity[i]&j != 0 {
				g.state[i] ^= j
				return
			}
		}
	}
}

type w128 [4]uint32

func (g *Generator) word(i int) w128 {
	return w128{g.state[4*i], g.state[4*i+1], g.state[4*i+2], g.state[4*i+3]}
}

func (g *Generator) setWord(i int, w w128) {
	copy(g.state[4*i:4*i+4], w[:])
}

func (w w128) halves() (hi, lo uint64) {
	return uint64(w[3])<<32 | uint64(w[2]), uint64(w[1])<<32 | uint64(w[0])
}

func fromHalves(hi, lo uint64) w128 {
	return w128{uint32(lo), uint32(lo >> 32), uint32(hi), uint32(hi >> 32)}
}

func lshift128(w w128, bytes uint) w128 {
	hi, lo := w.halves()
	s := bytes * 8
	return fromHalves(hi<<s|lo>>(64-s), lo<<s)
}

func rshift128(w w128, bytes uint) w128 {
	hi, lo := w.halves()
	s := bytes * 8
	return fromHalves(hi>>s, lo>>s|hi<<(64-s))
}

func recursion(a, b, c, d w128) w128 {
	x := lshift128(a, sfmtSL2)
	y := rshift128(c, sfmtSR2)
	var r w128
	for i := range r {
		r[i] = a[i] ^ x[i] ^ ((b[i] >> sfmtSR1) & sfmtMask[i]) ^ y[i] ^ (d[i] << sfmtSL1)
	}
	return r
}

// generate refills the whole state block.
func (g *Generator) generate() {
	r1, r2 := g.word(sfmtN-2), g.word(sfmtN-1)
	i := 0
	for ; i < sfmtN-sfmtM; i++ {
		r := recursion(g.word(i), g.word(i+sfmtM), r1, r2)
		g.setWord(i, r)
		r1, r2 = r2, r
	}
	for ; i < sfmtN; i++ {
		r := recursion(g.word(i), g.word(i+sfmtM-sfmtN), r1, r2)
		g.setWord(i, r)
		r1, r2 = r2, r
	}
	g.ix = 0
}

func (g *Generator) motherBits() uint32 {
	s := &g.mother
	sum := uint64(2111111111)*uint64(s[3]) +
		uint64(1492)*uint64(s[2]) +
		uint64(1776)*uint64(s[1]) +
		uint64(5115)*uint64(s[0]) +
		uint64(s[4])
	s[3], s[2], s[1] = s[2], s[1], s[0]
	s[4] = uint32(sum >> 32)
	s[0] = uint32(sum)
	return s[0]
}

func (g *Generator) bits() uint32 {
	if g.ix >= stateWords {
		g.generate()
	}
	y := g.state[g.ix]
	g.ix++
	return y + g.motherBits()
}

// Uint32 returns 32 random bits.
func (g *Generator) Uint32() uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.bits()
}

// Range returns an integer uniformly distributed on [min, max]. Both bounds
// must fit in an int32. ErrorValue is returned when max < min.
func (g *Generator) Range(min, max int) int {
	if max <= min {
		if max == min {
			return min
		}
		return ErrorValue
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	span := uint64(max-min) + 1
	if span > math.MaxUint32 {
		return min + int(g.bits())
	}
	interval := uint32(span)
	if interval != g.lastInterval {
		// wraps to MaxUint32 for powers of two, so nothing is rejected
		g.rlimit = uint32((uint64(1)<<32)/uint64(interval))*interval - 1
		g.lastInterval = interval
	}
	for {
		long := uint64(g.bits()) * uint64(interval)
		if uint32(long) <= g.rlimit {
			return int(long>>32) + min
		}
	}
}
