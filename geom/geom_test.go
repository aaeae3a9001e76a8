package geom

import "testing"

func TestGeometryBounds(t *testing.T) {
	g := Geometry{{{
		{X: 1, Y: 2}, {X: 5, Y: 2}, {X: 5, Y: 8}, {X: 1, Y: 2},
	}}}
	b := g.Bounds()
	if b.Min.X != 1 || b.Min.Y != 2 || b.Max.X != 5 || b.Max.Y != 8 {
		t.Fatal("unexpected bounds:", b)
	}
	if b.Width() != 4 || b.Height() != 6 {
		t.Fatalf("unexpected extent: %vx%v", b.Width(), b.Height())
	}
}

func TestExtendBoundsIgnoresEmpty(t *testing.T) {
	b := NewBounds()
	b.Extend(Point{X: 1, Y: 2})
	b.Extend(Point{X: 3, Y: 4})

	// a geometry without points yields the sentinel bounds, extending
	// by them must not blow up the extent
	b.ExtendBounds(Geometry{}.Bounds())
	if b.Min.X != 1 || b.Min.Y != 2 || b.Max.X != 3 || b.Max.Y != 4 {
		t.Fatal("empty bounds changed the extent:", b)
	}
}
