package cluster

import (
	"fmt"
	"math"
)

// DBSCANNoise is the label for points that belong to no cluster.
const DBSCANNoise = -1

// DBSCAN is a density-based clusterer over embedding vectors. It needs no
// target cluster count; sparse points end up labeled DBSCANNoise.
type DBSCAN struct {
	eps       float64
	minPoints int
}

func NewDBSCAN(eps float64, minPoints int) *DBSCAN {
	return &DBSCAN{eps: eps, minPoints: minPoints}
}

// Cluster returns one label per vector, in input order. Labels are 0-based
// in order of cluster discovery, with DBSCANNoise for unclustered points.
func (m *DBSCAN) Cluster(vectors [][]float32) ([]int, error) {
	if m.eps <= 0 {
		return nil, fmt.Errorf("eps must be positive, got %g", m.eps)
	}
	if m.minPoints <= 0 {
		return nil, fmt.Errorf("min points must be positive, got %d", m.minPoints)
	}

	points, err := standardize(vectors)
	if err != nil {
		return nil, err
	}

	const unvisited = -2
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = unvisited
	}

	nextCluster := 0
	for i := range points {
		if labels[i] != unvisited {
			continue
		}

		neighbors := m.regionQuery(points, i)
		if len(neighbors) < m.minPoints {
			labels[i] = DBSCANNoise
			continue
		}

		labels[i] = nextCluster
		// Expand the cluster over the density-reachable frontier.
		for f := 0; f < len(neighbors); f++ {
			j := neighbors[f]
			if labels[j] == DBSCANNoise {
				labels[j] = nextCluster
			}
			if labels[j] != unvisited {
				continue
			}
			labels[j] = nextCluster

			more := m.regionQuery(points, j)
			if len(more) >= m.minPoints {
				neighbors = append(neighbors, more...)
			}
		}
		nextCluster++
	}

	return labels, nil
}

func (m *DBSCAN) regionQuery(points [][]float64, i int) []int {
	var neighbors []int
	for j := range points {
		if j == i {
			continue
		}
		if math.Sqrt(sqDistance(points[i], points[j])) <= m.eps {
			neighbors = append(neighbors, j)
		}
	}
	return neighbors
}
