package geom

// Point is a single coordinate in the source reference system
// (longitude/latitude for all shipped boundary files).
type Point struct {
	X float64
	Y float64
}

// Ring is a closed linestring. The first ring of a polygon is the
// outer shell, any further rings are holes.
type Ring []Point

type Polygon []Ring

// Geometry is a multipolygon. Single polygons are represented as a
// geometry of length one.
type Geometry []Polygon

type Bounds struct {
	Min Point
	Max Point
}

func NewBounds() Bounds {
	return Bounds{
		Min: Point{X: maxCoord, Y: maxCoord},
		Max: Point{X: -maxCoord, Y: -maxCoord},
	}
}

const maxCoord = 1e30

func (b *Bounds) Extend(p Point) {
	if p.X < b.Min.X {
		b.Min.X = p.X
	}
	if p.Y < b.Min.Y {
		b.Min.Y = p.Y
	}
	if p.X > b.Max.X {
		b.Max.X = p.X
	}
	if p.Y > b.Max.Y {
		b.Max.Y = p.Y
	}
}

// ExtendBounds grows the bounds to cover other. Empty bounds (the
// NewBounds sentinel, e.g. from a geometry without points) are
// ignored, extending by the sentinel would inflate the extent to the
// coordinate limits.
func (b *Bounds) ExtendBounds(other Bounds) {
	if other.Min.X > other.Max.X || other.Min.Y > other.Max.Y {
		return
	}
	b.Extend(other.Min)
	b.Extend(other.Max)
}

func (b Bounds) Width() float64 {
	return b.Max.X - b.Min.X
}

func (b Bounds) Height() float64 {
	return b.Max.Y - b.Min.Y
}

func (g Geometry) Bounds() Bounds {
	b := NewBounds()
	for _, poly := range g {
		for _, ring := range poly {
			for _, p := range ring {
				b.Extend(p)
			}
		}
	}
	return b
}
