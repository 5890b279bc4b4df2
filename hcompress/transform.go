package hcompress

// word is the signed working type of the transform. Element kinds are widened
// to a word before the transform runs and narrowed back afterwards.
type word interface {
	~int32 | ~int64
}

// topStride returns the largest power of two below max(nx, ny).
func topStride(nx, ny int) int {
	s := 1
	for 2*s < max(nx, ny) {
		s *= 2
	}

	return s
}

// forward applies the multi-level H-transform to a in place. At stride s,
// rows and then columns of the current low band are split into a floored
// pair average, kept at the first position, and a difference, kept at the
// second. Unpaired elements at odd edges move to the next level unchanged.
// After the last level a[0] holds the tile average and every other position a
// detail coefficient.
func forward[W word](a []W, nx, ny int) {
	if nx <= 1 && ny <= 1 {
		return
	}

	for s := 1; s < nx || s < ny; s *= 2 {
		for y := 0; y < ny; y += s {
			row := a[y*nx : (y+1)*nx]
			for x := 0; x+s < nx; x += 2 * s {
				row[x], row[x+s] = split(row[x], row[x+s])
			}
		}
		for x := 0; x < nx; x += s {
			for y := 0; y+s < ny; y += 2 * s {
				i, j := y*nx+x, (y+s)*nx+x
				a[i], a[j] = split(a[i], a[j])
			}
		}
	}
}

// inverse undoes forward exactly.
func inverse[W word](a []W, nx, ny int) {
	if nx <= 1 && ny <= 1 {
		return
	}

	for s := topStride(nx, ny); s >= 1; s /= 2 {
		for x := 0; x < nx; x += s {
			for y := 0; y+s < ny; y += 2 * s {
				i, j := y*nx+x, (y+s)*nx+x
				a[i], a[j] = merge(a[i], a[j])
			}
		}
		for y := 0; y < ny; y += s {
			row := a[y*nx : (y+1)*nx]
			for x := 0; x+s < nx; x += 2 * s {
				row[x], row[x+s] = merge(row[x], row[x+s])
			}
		}
	}
}

func split[W word](a, b W) (W, W) {
	return (a + b) >> 1, a - b
}

func merge[W word](l, h W) (W, W) {
	b := l - (h >> 1)
	return b + h, b
}

// digitize divides every detail coefficient by scale, rounding half away
// from zero. The average at a[0] is kept exact.
func digitize[W word](a []W, scale W) {
	if scale <= 1 {
		return
	}

	half := scale / 2
	for i := 1; i < len(a); i++ {
		if c := a[i]; c >= 0 {
			a[i] = (c + half) / scale
		} else {
			a[i] = -((-c + half) / scale)
		}
	}
}

// undigitize multiplies the detail coefficients back.
func undigitize[W word](a []W, scale W) {
	if scale <= 1 {
		return
	}

	for i := 1; i < len(a); i++ {
		a[i] *= scale
	}
}
