package usecase

import (
	"fmt"
	"testing"

	"semcluster/internal/adapter/chat"
	"semcluster/internal/adapter/cluster"
	"semcluster/internal/adapter/embedding"
	"semcluster/internal/domain"
)

func sampleUnits() []domain.TextUnit {
	return []domain.TextUnit{
		{ID: "seq_001", Text: "invoice amount is wrong"},
		{ID: "seq_002", Text: "package arrived late"},
		{ID: "seq_003", Text: "charged twice for one order"},
		{ID: "seq_004", Text: "courier lost the parcel"},
		{ID: "seq_005", Text: "refund not yet processed"},
		{ID: "seq_006", Text: "tracking number never updated"},
	}
}

func TestLLMPipelineEndToEnd(t *testing.T) {
	stub := &chat.Stub{Responses: []string{
		`{"clusters":["Billing","Delivery"]}`,
		"0", "1", "0", "1", "0", "1",
	}}
	llm := cluster.NewLLMClusterer(stub, 20, 5)
	uc := NewLLMClusterUseCase(llm, cluster.NewTitleGenerator(stub, 5))

	units := sampleUnits()
	out, err := uc.Run(units, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Exactly one assignment per unit, in input order.
	if len(out.Assignments) != len(units) {
		t.Fatalf("expected %d assignments, got %d", len(units), len(out.Assignments))
	}
	seen := make(map[string]bool)
	for i, a := range out.Assignments {
		if a.UnitID != units[i].ID {
			t.Errorf("assignment %d out of order: %s", i, a.UnitID)
		}
		if seen[a.UnitID] {
			t.Errorf("duplicate assignment for %s", a.UnitID)
		}
		seen[a.UnitID] = true
	}

	if len(out.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(out.Results))
	}
	billing, delivery := out.Results[0], out.Results[1]
	if billing.Title != "Billing" || len(billing.Members) != 3 {
		t.Errorf("unexpected cluster 0: %+v", billing)
	}
	if delivery.Title != "Delivery" || len(delivery.Members) != 3 {
		t.Errorf("unexpected cluster 1: %+v", delivery)
	}
	if billing.Members[0] != "seq_001" || delivery.Members[0] != "seq_002" {
		t.Errorf("expected members in unit order: %v / %v", billing.Members, delivery.Members)
	}

	// Titles reuse themes, so only the 7 clustering calls happened.
	if stub.Calls != 7 {
		t.Errorf("expected 7 API calls, got %d", stub.Calls)
	}
}

func TestLLMPipelineEmptyClustersStillAppear(t *testing.T) {
	stub := &chat.Stub{Responses: []string{
		`{"clusters":["A","B","C"]}`,
		"0", "0",
	}}
	llm := cluster.NewLLMClusterer(stub, 20, 5)
	uc := NewLLMClusterUseCase(llm, cluster.NewTitleGenerator(stub, 5))

	out, err := uc.Run(sampleUnits()[:2], 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out.Results) != 3 {
		t.Fatalf("expected 3 results including empty clusters, got %d", len(out.Results))
	}
	if len(out.Results[1].Members) != 0 || len(out.Results[2].Members) != 0 {
		t.Errorf("expected empty clusters 1 and 2, got %+v", out.Results)
	}
}

// scriptedClusterer returns a fixed label slice.
type scriptedClusterer struct {
	labels []int
}

func (s *scriptedClusterer) Cluster(vectors [][]float32) ([]int, error) {
	if len(vectors) != len(s.labels) {
		return nil, fmt.Errorf("expected %d vectors, got %d", len(s.labels), len(vectors))
	}
	return s.labels, nil
}

func TestNumericPipelineTitlesAndNoise(t *testing.T) {
	stub := &chat.Stub{Responses: []string{
		`{"title": "Billing issues"}`,
		`{"title": "Delivery problems"}`,
	}}
	numeric := &scriptedClusterer{labels: []int{0, 1, 0, 1, cluster.DBSCANNoise, 1}}
	uc := NewNumericClusterUseCase(embedding.NewMockEmbedder(16), numeric, cluster.NewTitleGenerator(stub, 5))

	out, err := uc.Run(sampleUnits(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Themes != nil {
		t.Error("numeric path should not produce themes")
	}
	if len(out.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(out.Results))
	}

	// Noise sorts last and is titled without an API call.
	last := out.Results[2]
	if last.Index != cluster.DBSCANNoise || last.Title != cluster.NoiseTitle {
		t.Errorf("unexpected noise result: %+v", last)
	}
	if len(last.Members) != 1 || last.Members[0] != "seq_005" {
		t.Errorf("unexpected noise members: %v", last.Members)
	}

	if out.Results[0].Title != "Billing issues" || out.Results[1].Title != "Delivery problems" {
		t.Errorf("unexpected titles: %v", out.Titles)
	}
	if stub.Calls != 2 {
		t.Errorf("expected one naming call per regular cluster, got %d", stub.Calls)
	}
}

func TestPipelineInvalidK(t *testing.T) {
	stub := &chat.Stub{}
	llm := cluster.NewLLMClusterer(stub, 20, 5)
	uc := NewLLMClusterUseCase(llm, cluster.NewTitleGenerator(stub, 5))

	if _, err := uc.Run(sampleUnits(), 0); err == nil {
		t.Error("expected error for k=0")
	}
	if stub.Calls != 0 {
		t.Errorf("expected no API calls, got %d", stub.Calls)
	}
}
