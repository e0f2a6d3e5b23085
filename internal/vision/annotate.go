package vision

import (
	"image/color"
	"math"
)

// crackColor marks detected cracks on the annotated copy.
var crackColor = color.RGBA{R: 255, A: 255}

// annotate draws the surviving segments onto a copy of the frame with a
// 2px red stroke. The original frame is untouched.
func annotate(f *Frame, segs []LineSegment) *Frame {
	out := f.Clone()
	for _, s := range segs {
		drawLine(out, s)
	}
	return out
}

// drawLine walks the segment with Bresenham steps, thickening each point
// by one pixel on each side.
func drawLine(f *Frame, s LineSegment) {
	x1, y1 := int(math.Round(s.X1)), int(math.Round(s.Y1))
	x2, y2 := int(math.Round(s.X2)), int(math.Round(s.Y2))

	dx := abs(x2 - x1)
	dy := -abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx + dy

	for {
		setThick(f, x1, y1)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x1 += sx
		}
		if e2 <= dx {
			err += dx
			y1 += sy
		}
	}
}

func setThick(f *Frame, x, y int) {
	for dy := 0; dy <= 1; dy++ {
		for dx := 0; dx <= 1; dx++ {
			px, py := x+dx, y+dy
			if px >= 0 && px < f.Width() && py >= 0 && py < f.Height() {
				f.rgba.SetRGBA(px, py, crackColor)
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
