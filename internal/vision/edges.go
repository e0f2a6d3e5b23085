package vision

import "math"

// grayscale converts the frame to a row-major luma plane in [0,255].
func grayscale(f *Frame) []float64 {
	w, h := f.Width(), f.Height()
	out := make([]float64, w*h)
	pix := f.rgba.Pix
	stride := f.rgba.Stride
	for y := 0; y < h; y++ {
		row := y * stride
		for x := 0; x < w; x++ {
			o := row + x*4
			r := float64(pix[o])
			g := float64(pix[o+1])
			b := float64(pix[o+2])
			out[y*w+x] = 0.299*r + 0.587*g + 0.114*b
		}
	}
	return out
}

// gaussianBlur5 applies a separable 5-tap binomial blur ([1 4 6 4 1]/16),
// clamping at the borders.
func gaussianBlur5(px []float64, w, h int) []float64 {
	kernel := [5]float64{1.0 / 16, 4.0 / 16, 6.0 / 16, 4.0 / 16, 1.0 / 16}
	clamp := func(v, lo, hi int) int {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}

	tmp := make([]float64, len(px))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var s float64
			for k := -2; k <= 2; k++ {
				s += kernel[k+2] * px[y*w+clamp(x+k, 0, w-1)]
			}
			tmp[y*w+x] = s
		}
	}
	out := make([]float64, len(px))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var s float64
			for k := -2; k <= 2; k++ {
				s += kernel[k+2] * tmp[clamp(y+k, 0, h-1)*w+x]
			}
			out[y*w+x] = s
		}
	}
	return out
}

// sobel computes gradient magnitude and a direction quantized to four
// bins (0=horizontal edge, 1=45deg, 2=vertical, 3=135deg). Border pixels
// get zero magnitude.
func sobel(px []float64, w, h int) (mag []float64, dir []uint8) {
	mag = make([]float64, w*h)
	dir = make([]uint8, w*h)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			gx := -px[i-w-1] + px[i-w+1] +
				-2*px[i-1] + 2*px[i+1] +
				-px[i+w-1] + px[i+w+1]
			gy := -px[i-w-1] - 2*px[i-w] - px[i-w+1] +
				px[i+w-1] + 2*px[i+w] + px[i+w+1]
			mag[i] = math.Hypot(gx, gy)

			angle := math.Atan2(gy, gx) * 180 / math.Pi
			if angle < 0 {
				angle += 180
			}
			switch {
			case angle < 22.5 || angle >= 157.5:
				dir[i] = 0
			case angle < 67.5:
				dir[i] = 1
			case angle < 112.5:
				dir[i] = 2
			default:
				dir[i] = 3
			}
		}
	}
	return mag, dir
}

// nonMaxSuppress thins edges by keeping only local maxima along the
// gradient direction.
func nonMaxSuppress(mag []float64, dir []uint8, w, h int) []float64 {
	out := make([]float64, len(mag))
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			m := mag[i]
			if m == 0 {
				continue
			}
			var a, b float64
			switch dir[i] {
			case 0: // gradient horizontal, compare left/right
				a, b = mag[i-1], mag[i+1]
			case 1:
				a, b = mag[i-w+1], mag[i+w-1]
			case 2: // gradient vertical, compare up/down
				a, b = mag[i-w], mag[i+w]
			default:
				a, b = mag[i-w-1], mag[i+w+1]
			}
			if m >= a && m >= b {
				out[i] = m
			}
		}
	}
	return out
}

// hysteresis links weak edge pixels to strong ones (8-connected) and
// returns the final edge map. Pixels above high seed the walk; pixels
// between low and high survive only when connected to a seed.
func hysteresis(mag []float64, w, h int, low, high float64) []bool {
	on := make([]bool, len(mag))
	stack := make([]int, 0, 256)
	for i, m := range mag {
		if m >= high && !on[i] {
			on[i] = true
			stack = append(stack, i)
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				px, py := p%w, p/w
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						nx, ny := px+dx, py+dy
						if nx < 0 || nx >= w || ny < 0 || ny >= h {
							continue
						}
						n := ny*w + nx
						if !on[n] && mag[n] >= low {
							on[n] = true
							stack = append(stack, n)
						}
					}
				}
			}
		}
	}
	return on
}
