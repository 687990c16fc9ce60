package force

import (
	"github.com/ritzau/litgraph/pkg/model"
)

// Layout constants
const (
	ChargeStrength   = -400.0
	CollisionRadius  = 60.0
	CenterStrength   = 0.1
	LinkDistance     = 100.0
	LinkStrength     = 0.5
	DirectedStrength = 0.2 // the axis an arrangement spreads nodes along
	AxisStrength     = 0.1 // weak centering on the other axis

	YearMin = 1880
	YearMax = 1950
)

// ThemeRank orders themes into horizontal bands for the thematic arrangement
var ThemeRank = map[string]int{
	"heroic":        1,
	"romantic":      2,
	"philosophical": 3,
	"social":        4,
	"natural":       5,
}

// DefaultRank is the band of a primary theme missing from ThemeRank
const DefaultRank = 3

// bandCount is the number of band slots the height is divided into; ranks
// 1..5 land strictly inside the viewport.
const bandCount = 6

// Linear is a linear scale from a domain onto a range. Values outside the
// domain are extrapolated.
type Linear struct {
	D0, D1 float64
	R0, R1 float64
}

// At maps v through the scale
func (s Linear) At(v float64) float64 {
	if s.D1 == s.D0 {
		return (s.R0 + s.R1) / 2
	}
	t := (v - s.D0) / (s.D1 - s.D0)
	return s.R0 + t*(s.R1-s.R0)
}

// YearScale maps the historical year range onto the middle 60% of the width
func YearScale(width float64) Linear {
	return Linear{D0: YearMin, D1: YearMax, R0: width * 0.2, R1: width * 0.8}
}

// Rank returns the thematic band of a theme
func Rank(theme string) int {
	if r, ok := ThemeRank[theme]; ok {
		return r
	}
	return DefaultRank
}

// BandY returns the vertical target of a theme's band
func BandY(theme string, height float64) float64 {
	return float64(Rank(theme)) * height / bandCount
}

// Configure builds the force set for an arrangement and viewport. It is a
// pure function of its arguments; the dimension-dependent members (see
// DimensionNames) can be rebuilt on resize and swapped into a running
// simulation.
func Configure(arrangement model.Arrangement, width, height float64) Set {
	set := Set{
		NameCharge:    NewManyBody(ChargeStrength),
		NameCollision: NewCollide(CollisionRadius),
		NameCenter:    &Center{X: width / 2, Y: height / 2, Strength: CenterStrength},
		NameLink:      NewLink(LinkDistance, LinkStrength),
	}

	switch arrangement {
	case model.ArrangementChronological:
		scale := YearScale(width)
		set[NameX] = NewPositionX(func(n *model.Node) float64 {
			return scale.At(float64(n.Year))
		}, DirectedStrength)
		set[NameY] = NewPositionY(Constant(height/2), AxisStrength)

	case model.ArrangementThematic:
		set[NameX] = NewPositionX(Constant(width/2), AxisStrength)
		set[NameY] = NewPositionY(func(n *model.Node) float64 {
			return BandY(n.PrimaryTheme(), height)
		}, DirectedStrength)
	}

	return set
}
