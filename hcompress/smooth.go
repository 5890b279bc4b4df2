package hcompress

// smooth reduces the blocking of a lossy reconstruction. Each pixel moves
// towards the mean of its 3x3 neighbourhood by at most scale/2, so the
// result stays inside the quantization error of the coefficients it came
// from. Edge pixels use the neighbours that exist.
func smooth[W word](a []W, nx, ny int, scale W) {
	limit := scale / 2
	if limit == 0 || nx < 2 || ny < 2 {
		return
	}

	orig := make([]W, len(a))
	copy(orig, a)

	for y := range ny {
		y0, y1 := max(y-1, 0), min(y+1, ny-1)
		for x := range nx {
			x0, x1 := max(x-1, 0), min(x+1, nx-1)

			var sum, n W
			for yy := y0; yy <= y1; yy++ {
				for xx := x0; xx <= x1; xx++ {
					sum += orig[yy*nx+xx]
					n++
				}
			}

			v := orig[y*nx+x]
			a[y*nx+x] = v + clamp(sum/n-v, -limit, limit)
		}
	}
}

func clamp[W word](v, lo, hi W) W {
	return min(max(v, lo), hi)
}
