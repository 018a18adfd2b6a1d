package cluster

import "testing"

// twoBlobs returns six vectors forming two well-separated groups.
func twoBlobs() [][]float32 {
	return [][]float32{
		{0.0, 0.1}, {0.1, 0.0}, {0.1, 0.1},
		{5.0, 5.1}, {5.1, 5.0}, {5.1, 5.1},
	}
}

func TestKMeansSeparatesBlobs(t *testing.T) {
	labels, err := NewKMeans(2, 100, 42).Cluster(twoBlobs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(labels) != 6 {
		t.Fatalf("expected 6 labels, got %d", len(labels))
	}

	if labels[0] != labels[1] || labels[1] != labels[2] {
		t.Errorf("expected first blob in one cluster, got %v", labels)
	}
	if labels[3] != labels[4] || labels[4] != labels[5] {
		t.Errorf("expected second blob in one cluster, got %v", labels)
	}
	if labels[0] == labels[3] {
		t.Errorf("expected blobs in different clusters, got %v", labels)
	}
}

func TestKMeansDeterministic(t *testing.T) {
	first, err := NewKMeans(2, 100, 7).Cluster(twoBlobs())
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewKMeans(2, 100, 7).Cluster(twoBlobs())
	if err != nil {
		t.Fatal(err)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("expected identical labels across runs: %v vs %v", first, second)
		}
	}
}

func TestKMeansInvalidInput(t *testing.T) {
	if _, err := NewKMeans(0, 100, 42).Cluster(twoBlobs()); err == nil {
		t.Error("expected error for k=0")
	}
	if _, err := NewKMeans(10, 100, 42).Cluster(twoBlobs()); err == nil {
		t.Error("expected error for k > sample count")
	}
	if _, err := NewKMeans(2, 100, 42).Cluster(nil); err == nil {
		t.Error("expected error for empty input")
	}
	if _, err := NewKMeans(2, 100, 42).Cluster([][]float32{{1, 2}, {1, 2, 3}}); err == nil {
		t.Error("expected error for mismatched dimensions")
	}
}
