package vision

import (
	"math"
	"sort"
)

// LineSegment is one straight-ish run of edge pixels, a candidate crack.
type LineSegment struct {
	X1, Y1 float64
	X2, Y2 float64
	// Elongation is the major/minor axis ratio of the pixel cloud the
	// segment was fitted to. Compact blobs score near 1, thin lines high.
	Elongation float64
}

// Length returns the segment length in pixels.
func (s LineSegment) Length() float64 {
	return math.Hypot(s.X2-s.X1, s.Y2-s.Y1)
}

// Angle returns the segment orientation in [0, pi).
func (s LineSegment) Angle() float64 {
	a := math.Atan2(s.Y2-s.Y1, s.X2-s.X1)
	if a < 0 {
		a += math.Pi
	}
	if a >= math.Pi {
		a -= math.Pi
	}
	return a
}

// minComponentPixels discards specks before any fitting happens.
const minComponentPixels = 10

// traceComponents groups edge pixels into 8-connected components, in scan
// order so the result is deterministic.
func traceComponents(on []bool, w, h int) [][]int {
	visited := make([]bool, len(on))
	var comps [][]int
	stack := make([]int, 0, 256)
	for start, set := range on {
		if !set || visited[start] {
			continue
		}
		var comp []int
		visited[start] = true
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			comp = append(comp, p)
			px, py := p%w, p/w
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := px+dx, py+dy
					if nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					n := ny*w + nx
					if on[n] && !visited[n] {
						visited[n] = true
						stack = append(stack, n)
					}
				}
			}
		}
		if len(comp) >= minComponentPixels {
			sort.Ints(comp)
			comps = append(comps, comp)
		}
	}
	return comps
}

// fitSegment fits a line segment to a pixel component by principal-axis
// decomposition: the endpoints are the extreme projections onto the major
// axis, and elongation is the axis ratio.
func fitSegment(comp []int, w int) LineSegment {
	n := float64(len(comp))
	var mx, my float64
	for _, p := range comp {
		mx += float64(p % w)
		my += float64(p / w)
	}
	mx /= n
	my /= n

	var sxx, syy, sxy float64
	for _, p := range comp {
		dx := float64(p%w) - mx
		dy := float64(p/w) - my
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	sxx /= n
	syy /= n
	sxy /= n

	// Eigenvalues of the 2x2 covariance matrix.
	tr := sxx + syy
	det := math.Sqrt((sxx-syy)*(sxx-syy) + 4*sxy*sxy)
	major := (tr + det) / 2
	minor := (tr - det) / 2
	if minor < 1e-6 {
		minor = 1e-6
	}

	theta := 0.5 * math.Atan2(2*sxy, sxx-syy)
	ux, uy := math.Cos(theta), math.Sin(theta)

	minProj, maxProj := math.Inf(1), math.Inf(-1)
	for _, p := range comp {
		proj := (float64(p%w)-mx)*ux + (float64(p/w)-my)*uy
		if proj < minProj {
			minProj = proj
		}
		if proj > maxProj {
			maxProj = proj
		}
	}

	return LineSegment{
		X1:         mx + minProj*ux,
		Y1:         my + minProj*uy,
		X2:         mx + maxProj*ux,
		Y2:         my + maxProj*uy,
		Elongation: math.Sqrt(major / minor),
	}
}

// angleDiff returns the smallest difference between two orientations in
// [0, pi/2].
func angleDiff(a, b float64) float64 {
	d := math.Abs(a - b)
	if d > math.Pi/2 {
		d = math.Pi - d
	}
	return d
}

// endpointGap returns the smallest distance between any endpoint pair of
// the two segments.
func endpointGap(a, b LineSegment) float64 {
	pts := [2][2]float64{{a.X1, a.Y1}, {a.X2, a.Y2}}
	qts := [2][2]float64{{b.X1, b.Y1}, {b.X2, b.Y2}}
	best := math.Inf(1)
	for _, p := range pts {
		for _, q := range qts {
			d := math.Hypot(p[0]-q[0], p[1]-q[1])
			if d < best {
				best = d
			}
		}
	}
	return best
}

// lateralOffset returns the perpendicular distance from b's midpoint to
// the infinite line through a.
func lateralOffset(a, b LineSegment) float64 {
	la := a.Length()
	if la == 0 {
		return math.Inf(1)
	}
	mx := (b.X1 + b.X2) / 2
	my := (b.Y1 + b.Y2) / 2
	// Cross product of a's direction with the midpoint offset.
	return math.Abs((a.X2-a.X1)*(my-a.Y1)-(a.Y2-a.Y1)*(mx-a.X1)) / la
}

// mergeColinear repeatedly joins near-colinear segments whose endpoints
// are close, so one crack broken by the edge detector becomes one segment.
func mergeColinear(segs []LineSegment, angleTol, gapTol, lateralTol float64) []LineSegment {
	if len(segs) < 2 {
		return segs
	}
	// Deterministic processing order.
	sort.Slice(segs, func(i, j int) bool {
		if segs[i].X1 != segs[j].X1 {
			return segs[i].X1 < segs[j].X1
		}
		return segs[i].Y1 < segs[j].Y1
	})

	merged := true
	for merged {
		merged = false
		for i := 0; i < len(segs) && !merged; i++ {
			for j := i + 1; j < len(segs); j++ {
				a, b := segs[i], segs[j]
				if angleDiff(a.Angle(), b.Angle()) > angleTol {
					continue
				}
				if endpointGap(a, b) > gapTol {
					continue
				}
				if lateralOffset(a, b) > lateralTol {
					continue
				}
				segs[i] = joinSegments(a, b)
				segs = append(segs[:j], segs[j+1:]...)
				merged = true
				break
			}
		}
	}
	return segs
}

// joinSegments spans the two endpoints (of the four) that are farthest
// apart, keeping the larger elongation.
func joinSegments(a, b LineSegment) LineSegment {
	pts := [4][2]float64{
		{a.X1, a.Y1}, {a.X2, a.Y2},
		{b.X1, b.Y1}, {b.X2, b.Y2},
	}
	var bi, bj int
	best := -1.0
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			d := math.Hypot(pts[i][0]-pts[j][0], pts[i][1]-pts[j][1])
			if d > best {
				best = d
				bi, bj = i, j
			}
		}
	}
	el := a.Elongation
	if b.Elongation > el {
		el = b.Elongation
	}
	return LineSegment{
		X1: pts[bi][0], Y1: pts[bi][1],
		X2: pts[bj][0], Y2: pts[bj][1],
		Elongation: el,
	}
}
