// Package geometry builds polygon masks from annotation coordinate lists
// and answers point containment queries against them.
//
// Containment is strict: a point lying exactly on an edge or a vertex is
// outside the polygon. All arithmetic is done on integers, so the rule is
// exact and identical for every pixel of an extraction.
package geometry

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// ErrDegeneratePolygon is returned for coordinate lists that do not describe an area
var ErrDegeneratePolygon = errors.New("degenerate polygon")

// MinPoints is the smallest number of vertices accepted as a region
const MinPoints = 3

// Polygon is a closed ring of integer vertices; the last vertex connects back to the first
type Polygon struct {
	points []image.Point
	bounds image.Rectangle
}

// FromFlat pairs a flat [x0,y0,x1,y1,...] list into vertices rounded to the nearest integer
func FromFlat(coords []float64) (*Polygon, error) {
	if len(coords)%2 != 0 {
		return nil, fmt.Errorf("%w: odd coordinate count %d", ErrDegeneratePolygon, len(coords))
	}
	if len(coords)/2 < MinPoints {
		return nil, fmt.Errorf("%w: %d points, need at least %d", ErrDegeneratePolygon, len(coords)/2, MinPoints)
	}

	points := make([]image.Point, 0, len(coords)/2)
	for i := 0; i < len(coords); i += 2 {
		points = append(points, image.Point{
			X: int(math.RoundToEven(coords[i])),
			Y: int(math.RoundToEven(coords[i+1])),
		})
	}
	return New(points)
}

// New builds a polygon from explicit vertices
func New(points []image.Point) (*Polygon, error) {
	if len(points) < MinPoints {
		return nil, fmt.Errorf("%w: %d points, need at least %d", ErrDegeneratePolygon, len(points), MinPoints)
	}

	lo, hi := points[0], points[0]
	for _, p := range points[1:] {
		lo.X, lo.Y = minInt(lo.X, p.X), minInt(lo.Y, p.Y)
		hi.X, hi.Y = maxInt(hi.X, p.X), maxInt(hi.Y, p.Y)
	}

	pts := make([]image.Point, len(points))
	copy(pts, points)
	return &Polygon{
		points: pts,
		bounds: image.Rectangle{Min: lo, Max: hi.Add(image.Point{1, 1})},
	}, nil
}

// Points returns a copy of the vertices
func (p *Polygon) Points() []image.Point {
	out := make([]image.Point, len(p.points))
	copy(out, p.points)
	return out
}

// Bounds returns the smallest rectangle holding every vertex
func (p *Polygon) Bounds() image.Rectangle {
	return p.bounds
}

// Contains reports whether pt lies strictly inside the polygon
func (p *Polygon) Contains(pt image.Point) bool {
	if !pt.In(p.bounds) {
		return false
	}
	if p.OnBoundary(pt) {
		return false
	}

	// even-odd ray cast towards +x
	px, py := int64(pt.X), int64(pt.Y)
	inside := false
	n := len(p.points)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		ax, ay := int64(p.points[i].X), int64(p.points[i].Y)
		bx, by := int64(p.points[j].X), int64(p.points[j].Y)
		if (ay > py) == (by > py) {
			continue
		}
		// pt.X < x-intersection, without division
		lhs := (px - ax) * (by - ay)
		rhs := (py - ay) * (bx - ax)
		if by > ay {
			if lhs < rhs {
				inside = !inside
			}
		} else if lhs > rhs {
			inside = !inside
		}
	}
	return inside
}

// OnBoundary reports whether pt lies on an edge or vertex
func (p *Polygon) OnBoundary(pt image.Point) bool {
	n := len(p.points)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		if onSegment(p.points[j], p.points[i], pt) {
			return true
		}
	}
	return false
}

func onSegment(a, b, p image.Point) bool {
	cross := int64(b.X-a.X)*int64(p.Y-a.Y) - int64(b.Y-a.Y)*int64(p.X-a.X)
	if cross != 0 {
		return false
	}
	return p.X >= minInt(a.X, b.X) && p.X <= maxInt(a.X, b.X) &&
		p.Y >= minInt(a.Y, b.Y) && p.Y <= maxInt(a.Y, b.Y)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
