package cluster

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"semcluster/internal/domain"
	"semcluster/internal/port"
)

const (
	defaultThemeSampleSize = 20
	defaultAssignBatchSize = 5

	// FallbackCluster receives every unit whose assignment could not be
	// determined.
	FallbackCluster = 0
)

// LLMClusterer groups text units by asking a chat model for cluster themes
// and then assigning each unit to the best-fit theme. Every external-call
// failure degrades to a deterministic fallback; only invalid input aborts
// a run.
type LLMClusterer struct {
	chat       port.ChatModel
	sampleSize int
	batchSize  int

	// OnProgress, if set, is called after each batch of assignments.
	OnProgress func(done, total int)
}

// NewLLMClusterer creates a clusterer. Non-positive sizes fall back to the
// defaults (20-text theme sample, assignment batches of 5).
func NewLLMClusterer(chat port.ChatModel, sampleSize, batchSize int) *LLMClusterer {
	if sampleSize <= 0 {
		sampleSize = defaultThemeSampleSize
	}
	if batchSize <= 0 {
		batchSize = defaultAssignBatchSize
	}
	return &LLMClusterer{
		chat:       chat,
		sampleSize: sampleSize,
		batchSize:  batchSize,
	}
}

// Cluster assigns every unit to one of k themes. Assignments come back in
// input order; the theme list always has exactly k entries, with generic
// labels filling in wherever the model fell short.
func (c *LLMClusterer) Cluster(units []domain.TextUnit, k int) ([]domain.Assignment, []domain.ClusterTheme, error) {
	if k <= 0 {
		return nil, nil, fmt.Errorf("cluster count must be positive, got %d", k)
	}

	themes := c.identifyThemes(units, k)
	labels := make([]string, len(themes))
	for i, t := range themes {
		labels[i] = t.Label
	}

	assignments := make([]domain.Assignment, 0, len(units))
	for start := 0; start < len(units); start += c.batchSize {
		end := start + c.batchSize
		if end > len(units) {
			end = len(units)
		}
		for _, unit := range units[start:end] {
			idx, outcome := c.assignUnit(unit.Text, labels, k)
			assignments = append(assignments, domain.Assignment{
				UnitID:  unit.ID,
				Cluster: idx,
				Outcome: outcome,
			})
		}
		if c.OnProgress != nil {
			c.OnProgress(end, len(units))
		}
	}

	return assignments, themes, nil
}

// identifyThemes asks the model for exactly k thematic labels over a bounded
// sample of the units. Failures are non-fatal: the result is always k themes,
// generic ones when the model cannot deliver.
func (c *LLMClusterer) identifyThemes(units []domain.TextUnit, k int) []domain.ClusterTheme {
	sample := units
	if len(sample) > c.sampleSize {
		sample = sample[:c.sampleSize]
	}
	if len(sample) == 0 {
		return genericThemes(k)
	}

	var sb strings.Builder
	for i, unit := range sample {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, unit.Text)
	}

	system := "You are a text analyst who groups records into semantic clusters."
	user := fmt.Sprintf(
		"Below are %d sample records from a larger dataset:\n\n%s\n"+
			"Propose exactly %d distinct thematic labels that could partition the full dataset. "+
			"Keep each label short. Respond with JSON only, in the form "+
			`{"clusters": ["label 1", "label 2", ...]}.`,
		len(sample), sb.String(), k,
	)

	raw, err := c.chat.Complete(system, user, port.ChatOptions{Temperature: 0.3, MaxTokens: 500})
	if err != nil {
		return genericThemes(k)
	}

	labels, ok := parseThemeLabels(raw)
	if !ok {
		return genericThemes(k)
	}

	themes := make([]domain.ClusterTheme, k)
	for i := 0; i < k; i++ {
		if i < len(labels) {
			themes[i] = domain.ClusterTheme{Index: i, Label: labels[i]}
		} else {
			themes[i] = domain.ClusterTheme{Index: i, Label: genericLabel(i)}
		}
	}
	return themes
}

// assignUnit asks the model for the index of the best-fit theme. Any failure
// yields the fallback cluster; one unit can never abort the run.
func (c *LLMClusterer) assignUnit(text string, labels []string, k int) (int, domain.Outcome) {
	var sb strings.Builder
	for i, label := range labels {
		fmt.Fprintf(&sb, "%d: %s\n", i, label)
	}

	system := "You assign text records to the best matching theme. Respond with a single integer only."
	user := fmt.Sprintf(
		"Themes:\n%s\nRecord:\n%s\n\nAnswer with only the integer index of the best matching theme.",
		sb.String(), text,
	)

	raw, err := c.chat.Complete(system, user, port.ChatOptions{Temperature: 0, MaxTokens: 8})
	if err != nil {
		return FallbackCluster, domain.OutcomeFallback
	}

	idx, ok := parseClusterIndex(raw, k)
	if !ok {
		return FallbackCluster, domain.OutcomeFallback
	}
	return idx, domain.OutcomeParsed
}

type themeResponse struct {
	Clusters []string `json:"clusters"`
}

// parseThemeLabels extracts the label list from a raw theme reply.
func parseThemeLabels(raw string) ([]string, bool) {
	doc, ok := ExtractJSON(raw)
	if !ok {
		return nil, false
	}
	var resp themeResponse
	if err := json.Unmarshal([]byte(doc), &resp); err != nil {
		return nil, false
	}
	if len(resp.Clusters) == 0 {
		return nil, false
	}
	return resp.Clusters, true
}

// parseClusterIndex reads a bare integer reply and checks it against [0, k).
func parseClusterIndex(raw string, k int) (int, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, ".")
	if fields := strings.Fields(s); len(fields) > 0 {
		s = fields[0]
	}

	idx, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	if idx < 0 || idx >= k {
		return 0, false
	}
	return idx, true
}

func genericThemes(k int) []domain.ClusterTheme {
	themes := make([]domain.ClusterTheme, k)
	for i := range themes {
		themes[i] = domain.ClusterTheme{Index: i, Label: genericLabel(i)}
	}
	return themes
}

func genericLabel(i int) string {
	return fmt.Sprintf("Cluster %d", i+1)
}
