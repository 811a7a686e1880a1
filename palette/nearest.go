package palette

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Nearest returns the color in the row perceptually closest to c, using the
// CIE L*a*b* distance. It returns false if the row is empty.
func (r *Row) Nearest(c Color) (Color, bool) {
	if len(r.colors) == 0 {
		return Color{}, false
	}

	target, _ := colorful.MakeColor(c)

	var best Color
	bestDist := math.MaxFloat64
	for _, rc := range r.colors {
		cc, _ := colorful.MakeColor(rc)
		if d := target.DistanceLab(cc); d < bestDist {
			best, bestDist = rc, d
		}
	}
	return best, true
}
