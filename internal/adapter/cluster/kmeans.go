package cluster

import (
	"fmt"
	"math"
	"math/rand"
)

// KMeans is a centroid-based clusterer over embedding vectors. Features are
// standardized before clustering; centroids are seeded with a kmeans++-style
// spread from a fixed seed so runs are reproducible.
type KMeans struct {
	k       int
	maxIter int
	seed    int64
}

func NewKMeans(k, maxIter int, seed int64) *KMeans {
	if maxIter <= 0 {
		maxIter = 100
	}
	return &KMeans{k: k, maxIter: maxIter, seed: seed}
}

// Cluster returns one 0-based label per vector, in input order.
func (m *KMeans) Cluster(vectors [][]float32) ([]int, error) {
	if m.k <= 0 {
		return nil, fmt.Errorf("cluster count must be positive, got %d", m.k)
	}
	if len(vectors) < m.k {
		return nil, fmt.Errorf("cannot form %d clusters from %d vectors", m.k, len(vectors))
	}

	points, err := standardize(vectors)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(m.seed))
	centroids := m.seedCentroids(points, rng)
	labels := make([]int, len(points))

	for iter := 0; iter < m.maxIter; iter++ {
		changed := false
		for i, p := range points {
			best := nearestCentroid(p, centroids)
			if best != labels[i] {
				labels[i] = best
				changed = true
			}
		}
		if iter > 0 && !changed {
			break
		}

		// Recompute centroids; a centroid that lost all points keeps its
		// position rather than collapsing to the origin.
		sums := make([][]float64, m.k)
		counts := make([]int, m.k)
		for c := range sums {
			sums[c] = make([]float64, len(points[0]))
		}
		for i, p := range points {
			c := labels[i]
			counts[c]++
			for d, v := range p {
				sums[c][d] += v
			}
		}
		for c := 0; c < m.k; c++ {
			if counts[c] == 0 {
				continue
			}
			for d := range sums[c] {
				centroids[c][d] = sums[c][d] / float64(counts[c])
			}
		}
	}

	return labels, nil
}

// seedCentroids picks the first centroid at random, then each next centroid
// proportional to squared distance from the nearest chosen one.
func (m *KMeans) seedCentroids(points [][]float64, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, m.k)
	first := points[rng.Intn(len(points))]
	centroids = append(centroids, append([]float64(nil), first...))

	dists := make([]float64, len(points))
	for len(centroids) < m.k {
		total := 0.0
		for i, p := range points {
			d := sqDistance(p, centroids[len(centroids)-1])
			if len(centroids) == 1 || d < dists[i] {
				dists[i] = d
			}
			total += dists[i]
		}

		next := 0
		if total > 0 {
			target := rng.Float64() * total
			acc := 0.0
			for i, d := range dists {
				acc += d
				if acc >= target {
					next = i
					break
				}
			}
		} else {
			next = rng.Intn(len(points))
		}
		centroids = append(centroids, append([]float64(nil), points[next]...))
	}

	return centroids
}

func nearestCentroid(p []float64, centroids [][]float64) int {
	best := 0
	bestDist := math.MaxFloat64
	for c, centroid := range centroids {
		if d := sqDistance(p, centroid); d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

func sqDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// standardize converts vectors to float64 and scales each dimension to zero
// mean and unit variance. Constant dimensions are left centered.
func standardize(vectors [][]float32) ([][]float64, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no vectors to cluster")
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d has dimension %d, expected %d", i, len(v), dim)
		}
	}

	points := make([][]float64, len(vectors))
	for i, v := range vectors {
		points[i] = make([]float64, dim)
		for d, x := range v {
			points[i][d] = float64(x)
		}
	}

	for d := 0; d < dim; d++ {
		mean := 0.0
		for _, p := range points {
			mean += p[d]
		}
		mean /= float64(len(points))

		variance := 0.0
		for _, p := range points {
			diff := p[d] - mean
			variance += diff * diff
		}
		std := math.Sqrt(variance / float64(len(points)))

		for _, p := range points {
			p[d] -= mean
			if std > 0 {
				p[d] /= std
			}
		}
	}

	return points, nil
}
