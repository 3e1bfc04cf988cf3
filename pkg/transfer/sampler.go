package transfer

import (
	"github.com/agentstation/assetpipe/pkg/asset"
)

// Sampler maps the points of one mesh onto the points of another.
type Sampler interface {
	// Sample returns, for every point of to, the index of the point of
	// from it takes its value from. It returns nil when from is empty.
	Sample(from, to []asset.Vec3) []int
}

// NearestVertex samples the closest source point by squared Euclidean
// distance. Ties go to the lowest index.
type NearestVertex struct{}

// Sample implements Sampler.
func (NearestVertex) Sample(from, to []asset.Vec3) []int {
	if len(from) == 0 {
		return nil
	}
	out := make([]int, len(to))
	for i, p := range to {
		best, bestDist := 0, distSq(from[0], p)
		for j := 1; j < len(from); j++ {
			if d := distSq(from[j], p); d < bestDist {
				best, bestDist = j, d
			}
		}
		out[i] = best
	}
	return out
}

func distSq(a, b asset.Vec3) float64 {
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return dx*dx + dy*dy + dz*dz
}

// Resample maps per-point values of from onto the points of to. Points
// of equal count are copied by index. Indexes past the end of values
// yield the zero value.
func Resample[T any](s Sampler, from, to []asset.Vec3, values []T) []T {
	if len(from) == len(to) {
		out := make([]T, len(to))
		copy(out, values)
		return out
	}
	return pick(s.Sample(from, to), len(to), values)
}

func pick[T any](idx []int, n int, values []T) []T {
	out := make([]T, n)
	for i, j := range idx {
		if j >= 0 && j < len(values) {
			out[i] = values[j]
		}
	}
	return out
}
