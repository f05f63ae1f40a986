package thumbnail

import (
	"math"

	"golang.org/x/image/draw"
)

// lanczos3 is a three-lobe Lanczos resampling kernel:
// sinc(t) * sinc(t/3) for |t| < 3.
var lanczos3 = &draw.Kernel{
	Support: 3.0,
	At: func(t float64) float64 {
		if t < 0 {
			t = -t
		}
		if t >= 3 {
			return 0
		}
		return sinc(t) * sinc(t/3)
	},
}

func sinc(t float64) float64 {
	if t == 0 {
		return 1
	}
	pt := math.Pi * t
	return math.Sin(pt) / pt
}
