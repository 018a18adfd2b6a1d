package port

// VectorClusterer groups embedding vectors into numeric cluster labels.
// Labels are 0-based; implementations may additionally use -1 for points
// that belong to no cluster (noise).
type VectorClusterer interface {
	// Cluster returns one label per input vector, in input order.
	Cluster(vectors [][]float32) ([]int, error)
}
