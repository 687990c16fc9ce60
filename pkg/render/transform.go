package render

import "fmt"

// Transform is a view transform: translate by (X, Y) then scale by K. It
// never changes simulation coordinates.
type Transform struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	K float64 `json:"k"`
}

// Identity is the transform that leaves the view unchanged
var Identity = Transform{K: 1}

// Apply maps a layout point to view coordinates
func (t Transform) Apply(x, y float64) (float64, float64) {
	return x*t.K + t.X, y*t.K + t.Y
}

// Invert maps a view point back to layout coordinates
func (t Transform) Invert(x, y float64) (float64, float64) {
	return (x - t.X) / t.K, (y - t.Y) / t.K
}

// String formats t as an SVG transform attribute
func (t Transform) String() string {
	return fmt.Sprintf("translate(%g,%g) scale(%g)", t.X, t.Y, t.K)
}
