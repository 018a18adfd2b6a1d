package usecase

import (
	"fmt"
	"sort"

	"semcluster/internal/adapter/cluster"
	"semcluster/internal/domain"
	"semcluster/internal/port"
)

// ClusterUseCase runs the full clustering pipeline over grouped text units:
// LLM theme clustering, or embed-then-cluster for the numeric strategies,
// followed by title generation.
type ClusterUseCase struct {
	llm      *cluster.LLMClusterer
	embedder port.Embedder
	numeric  port.VectorClusterer
	titles   *cluster.TitleGenerator
}

// ClusterOutput is the terminal result of one run.
type ClusterOutput struct {
	Assignments []domain.Assignment
	Themes      []domain.ClusterTheme // nil on the numeric paths
	Results     []domain.ClusterResult
	Titles      map[int]string
}

// NewLLMClusterUseCase wires the LLM clustering path. No embeddings are
// generated on this path.
func NewLLMClusterUseCase(llm *cluster.LLMClusterer, titles *cluster.TitleGenerator) *ClusterUseCase {
	return &ClusterUseCase{llm: llm, titles: titles}
}

// NewNumericClusterUseCase wires an embed-then-cluster path (kmeans/dbscan).
func NewNumericClusterUseCase(embedder port.Embedder, numeric port.VectorClusterer, titles *cluster.TitleGenerator) *ClusterUseCase {
	return &ClusterUseCase{embedder: embedder, numeric: numeric, titles: titles}
}

// Run clusters the units and titles the resulting clusters. k is the target
// cluster count for the LLM path (the numeric clusterers carry their own
// parameters).
func (u *ClusterUseCase) Run(units []domain.TextUnit, k int) (*ClusterOutput, error) {
	var (
		assignments []domain.Assignment
		themes      []domain.ClusterTheme
		err         error
	)

	switch {
	case u.llm != nil:
		assignments, themes, err = u.llm.Cluster(units, k)
		if err != nil {
			return nil, err
		}
	case u.numeric != nil:
		texts := make([]string, len(units))
		for i, unit := range units {
			texts[i] = unit.Text
		}
		vectors, embErr := u.embedder.Embed(texts)
		if embErr != nil {
			return nil, fmt.Errorf("embedding failed: %w", embErr)
		}
		labels, clErr := u.numeric.Cluster(vectors)
		if clErr != nil {
			return nil, fmt.Errorf("clustering failed: %w", clErr)
		}
		assignments = make([]domain.Assignment, len(units))
		for i, unit := range units {
			assignments[i] = domain.Assignment{
				UnitID:  unit.ID,
				Cluster: labels[i],
				Outcome: domain.OutcomeParsed,
			}
		}
	default:
		return nil, fmt.Errorf("no clustering strategy configured")
	}

	groups := groupMembers(units, assignments)
	titles := u.titles.Titles(groups, themes)
	results := buildResults(assignments, themes, titles)

	return &ClusterOutput{
		Assignments: assignments,
		Themes:      themes,
		Results:     results,
		Titles:      titles,
	}, nil
}

// groupMembers collects member texts per cluster index, ordered by first
// appearance for the numeric paths (noise last).
func groupMembers(units []domain.TextUnit, assignments []domain.Assignment) []cluster.ClusterMembers {
	textByID := make(map[string]string, len(units))
	for _, unit := range units {
		textByID[unit.ID] = unit.Text
	}

	byIndex := make(map[int][]string)
	var order []int
	for _, a := range assignments {
		if _, seen := byIndex[a.Cluster]; !seen {
			order = append(order, a.Cluster)
		}
		byIndex[a.Cluster] = append(byIndex[a.Cluster], textByID[a.UnitID])
	}

	sort.Slice(order, func(i, j int) bool {
		// Noise sorts after every regular cluster.
		if order[i] == cluster.DBSCANNoise {
			return false
		}
		if order[j] == cluster.DBSCANNoise {
			return true
		}
		return order[i] < order[j]
	})

	groups := make([]cluster.ClusterMembers, 0, len(order))
	for _, idx := range order {
		groups = append(groups, cluster.ClusterMembers{Index: idx, Texts: byIndex[idx]})
	}
	return groups
}

// buildResults aggregates assignments into ClusterResults. On the LLM path
// the themes define the index space, so clusters with zero members still
// appear; numeric paths only emit observed labels.
func buildResults(assignments []domain.Assignment, themes []domain.ClusterTheme, titles map[int]string) []domain.ClusterResult {
	members := make(map[int][]string)
	var order []int
	for _, a := range assignments {
		if _, seen := members[a.Cluster]; !seen {
			order = append(order, a.Cluster)
		}
		members[a.Cluster] = append(members[a.Cluster], a.UnitID)
	}

	var indices []int
	if len(themes) > 0 {
		for _, t := range themes {
			indices = append(indices, t.Index)
		}
	} else {
		sort.Slice(order, func(i, j int) bool {
			if order[i] == cluster.DBSCANNoise {
				return false
			}
			if order[j] == cluster.DBSCANNoise {
				return true
			}
			return order[i] < order[j]
		})
		indices = order
	}

	results := make([]domain.ClusterResult, 0, len(indices))
	for _, idx := range indices {
		results = append(results, domain.ClusterResult{
			Index:   idx,
			Title:   titles[idx],
			Members: members[idx],
		})
	}
	return results
}
