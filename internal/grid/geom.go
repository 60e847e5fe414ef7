// Package grid holds the battlefield geometry: positions, distance metrics,
// range predicates and move enumeration.
package grid

import (
	"fmt"
	"strings"
)

type Pos struct{ X, Y int }

func (p Pos) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

type Bounds struct{ Width, Height int }

func (b Bounds) Contains(p Pos) bool {
	return p.X >= 0 && p.X < b.Width && p.Y >= 0 && p.Y < b.Height
}

// Metric selects how grid distance is measured. A battle uses one metric for
// every range check, danger zone and distance score.
type Metric int

const (
	Chebyshev Metric = iota
	Manhattan
)

func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "chebyshev":
		return Chebyshev, nil
	case "manhattan":
		return Manhattan, nil
	}
	return Chebyshev, fmt.Errorf("grid: unknown metric %q", s)
}

func (m Metric) String() string {
	if m == Manhattan {
		return "manhattan"
	}
	return "chebyshev"
}

func (m Metric) Dist(a, b Pos) int {
	dx, dy := abs(a.X-b.X), abs(a.Y-b.Y)
	if m == Manhattan {
		return dx + dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// InRange reports whether target lies within rng cells of attacker. The range
// attribute is used as a cell count without conversion.
func InRange(m Metric, attacker, target Pos, rng float64) bool {
	return float64(m.Dist(attacker, target)) <= rng
}

// MoveRange converts a speed attribute into grid steps per move.
func MoveRange(speed float64) int {
	steps := int(speed / 100)
	if steps < 1 {
		steps = 1
	}
	return steps
}

// CandidateMoves lists every free in-bounds cell within steps Manhattan steps
// of from, excluding from itself. Cells come back in row-major order.
func CandidateMoves(from Pos, steps int, b Bounds, occupied map[Pos]bool) []Pos {
	var out []Pos
	for y := from.Y - steps; y <= from.Y+steps; y++ {
		for x := from.X - steps; x <= from.X+steps; x++ {
			p := Pos{X: x, Y: y}
			if p == from || !b.Contains(p) || occupied[p] {
				continue
			}
			if abs(x-from.X)+abs(y-from.Y) > steps {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}

// StepToward moves each axis at most one cell toward target.
func StepToward(cur, target Pos) Pos {
	return Pos{X: cur.X + sign(target.X-cur.X), Y: cur.Y + sign(target.Y-cur.Y)}
}

// Area returns the in-bounds cells within radius of center under m.
func Area(m Metric, center Pos, radius int, b Bounds) []Pos {
	if radius < 0 {
		return nil
	}
	minX, maxX := clamp(center.X-radius, 0, b.Width-1), clamp(center.X+radius, 0, b.Width-1)
	minY, maxY := clamp(center.Y-radius, 0, b.Height-1), clamp(center.Y+radius, 0, b.Height-1)
	var out []Pos
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			p := Pos{X: x, Y: y}
			if m.Dist(center, p) <= radius {
				out = append(out, p)
			}
		}
	}
	return out
}

// Centroid is the mean position, truncated toward zero.
func Centroid(ps []Pos) Pos {
	if len(ps) == 0 {
		return Pos{}
	}
	sx, sy := 0, 0
	for _, p := range ps {
		sx += p.X
		sy += p.Y
	}
	return Pos{X: sx / len(ps), Y: sy / len(ps)}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
