package quantize

// NRandom is the length of the dither random table.
const NRandom = 10000

// randomTable holds NRandom uniform deviates in [0, 1) from the Park-Miller
// minimal standard generator seeded with 1. The sequence is fixed so that any
// reader can regenerate the dither offsets of a tile.
var randomTable = initRandoms()

func initRandoms() [NRandom]float32 {
	const (
		a = 16807.0
		m = 2147483647.0
	)

	var table [NRandom]float32
	seed := 1.0
	for i := range table {
		temp := a * seed
		seed = temp - m*float64(int64(temp/m))
		table[i] = float32(seed / m)
	}

	return table
}

// TileSeed returns the dither table position of a tile. zdither0 is the
// ZDITHER0 value of the image, 1..NRandom.
func TileSeed(tileIndex, zdither0 int) int {
	s := (tileIndex + zdither0 - 1) % NRandom
	if s < 0 {
		s += NRandom
	}

	return s
}

// Dither walks the random table from a tile seed. It advances once per
// pixel, null pixels included, so encoder and decoder stay aligned.
type Dither struct {
	iseed int
	next  int
}

// NewDither starts the sequence for a tile seed returned by TileSeed.
func NewDither(seed int) *Dither {
	d := &Dither{iseed: seed % NRandom}
	d.next = int(randomTable[d.iseed] * 500)

	return d
}

// Next returns the next offset in [0, 1).
func (d *Dither) Next() float64 {
	r := randomTable[d.next]
	d.next++
	if d.next == NRandom {
		d.iseed++
		if d.iseed == NRandom {
			d.iseed = 0
		}
		d.next = int(randomTable[d.iseed] * 500)
	}

	return float64(r)
}
