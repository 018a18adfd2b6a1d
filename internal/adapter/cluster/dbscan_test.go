package cluster

import "testing"

func TestDBSCANFindsDenseGroups(t *testing.T) {
	vectors := [][]float32{
		{0.0, 0.1}, {0.1, 0.0}, {0.1, 0.1},
		{5.0, 5.1}, {5.1, 5.0}, {5.1, 5.1},
	}

	labels, err := NewDBSCAN(0.5, 2).Cluster(vectors)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if labels[0] != 0 || labels[1] != 0 || labels[2] != 0 {
		t.Errorf("expected first group labeled 0, got %v", labels)
	}
	if labels[3] != 1 || labels[4] != 1 || labels[5] != 1 {
		t.Errorf("expected second group labeled 1, got %v", labels)
	}
}

func TestDBSCANMarksNoise(t *testing.T) {
	vectors := [][]float32{
		{0.0, 0.1}, {0.1, 0.0}, {0.1, 0.1},
		{5.0, 5.1}, {5.1, 5.0}, {5.1, 5.1},
		{-8.0, 9.0}, // far from both groups
	}

	labels, err := NewDBSCAN(0.5, 2).Cluster(vectors)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if labels[6] != DBSCANNoise {
		t.Errorf("expected outlier labeled as noise, got %d", labels[6])
	}
	for i := 0; i < 6; i++ {
		if labels[i] == DBSCANNoise {
			t.Errorf("point %d should not be noise: %v", i, labels)
		}
	}
}

func TestDBSCANInvalidParams(t *testing.T) {
	vectors := [][]float32{{0, 0}, {1, 1}}

	if _, err := NewDBSCAN(0, 2).Cluster(vectors); err == nil {
		t.Error("expected error for eps=0")
	}
	if _, err := NewDBSCAN(0.5, 0).Cluster(vectors); err == nil {
		t.Error("expected error for min points = 0")
	}
}
