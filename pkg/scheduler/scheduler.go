package scheduler

import "unicode/utf16"

/*
scheduler.go produces the pixel/channel slots a message is written to.
The slots are derived from the password alone: a 33-multiplier rolling hash seeds a
32-bit linear congruential generator, and every draw picks a pixel and one of its
R, G, B channels. A slot that was already handed out in the same pass is drawn again.

Rejection sampling gets slow as a pass approaches the capacity of the buffer: when
most slots are taken almost every draw is a repeat. That is the cost of keeping the
sequence reproducible from the password; callers should keep messages well below
capacity.
*/

// ChannelsPerPixel is the number of channels (R, G, B) a slot can point at
const ChannelsPerPixel = 3

const (
	lcgMultiplier = 1664525
	lcgIncrement  = 1013904223
	lcgModulus    = 1 << 32
)

// Seed hashes a password into the generator seed.
// The hash runs over UTF-16 code units with 32-bit signed wraparound; the seed is its absolute value.
func Seed(password string) uint32 {
	var h int32
	for _, unit := range utf16.Encode([]rune(password)) {
		h = h*33 + int32(unit)
	}
	if h < 0 {
		return uint32(-int64(h))
	}
	return uint32(h)
}

// LCG is a linear congruential generator over uint32 state
type LCG struct {
	state uint32
}

// NewLCG creates a generator starting from seed
func NewLCG(seed uint32) *LCG {
	return &LCG{state: seed}
}

// Float64 steps the generator once and returns a value in [0,1)
func (g *LCG) Float64() float64 {
	g.state = g.state*lcgMultiplier + lcgIncrement
	return float64(g.state) / lcgModulus
}

// Position is a single LSB slot inside an RGBA buffer
type Position struct {
	Pixel   int
	Channel int
}

// Offset returns the index of the slot in a flat RGBA byte slice
func (p Position) Offset() int {
	return p.Pixel*4 + p.Channel
}

// Scheduler hands out unique positions for one embed or extract pass
type Scheduler struct {
	rng        *LCG
	pixelCount int
	used       map[Position]struct{}
}

// New creates a scheduler for a buffer of pixelCount pixels
func New(seed uint32, pixelCount int) *Scheduler {
	return &Scheduler{
		rng:        NewLCG(seed),
		pixelCount: pixelCount,
		used:       make(map[Position]struct{}),
	}
}

// Capacity is the number of distinct positions the scheduler can return
func (s *Scheduler) Capacity() int {
	return s.pixelCount * ChannelsPerPixel
}

// Drawn is the number of positions returned so far
func (s *Scheduler) Drawn() int {
	return len(s.used)
}

// Next returns the next unused position. It reports false once every slot has been handed out.
func (s *Scheduler) Next() (Position, bool) {
	if s.pixelCount <= 0 || len(s.used) >= s.Capacity() {
		return Position{}, false
	}

	for {
		pos := Position{
			Pixel:   int(s.rng.Float64() * float64(s.pixelCount)),
			Channel: int(s.rng.Float64() * ChannelsPerPixel),
		}
		if _, taken := s.used[pos]; taken {
			continue
		}
		s.used[pos] = struct{}{}
		return pos, true
	}
}

// Positions returns the first n positions of the sequence for seed.
// It returns fewer than n only when n exceeds the capacity.
func Positions(seed uint32, pixelCount, n int) []Position {
	s := New(seed, pixelCount)
	out := make([]Position, 0, n)
	for len(out) < n {
		pos, ok := s.Next()
		if !ok {
			break
		}
		out = append(out, pos)
	}
	return out
}
