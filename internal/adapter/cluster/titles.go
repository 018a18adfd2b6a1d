package cluster

import (
	"encoding/json"
	"fmt"
	"strings"

	"semcluster/internal/domain"
	"semcluster/internal/port"
)

// NoiseTitle names the DBSCAN noise cluster; it never triggers an API call.
const NoiseTitle = "Noise"

// ClusterMembers pairs a cluster index with the member texts assigned to it.
type ClusterMembers struct {
	Index int
	Texts []string
}

// TitleGenerator produces short human-readable names per cluster. When the
// LLM clustering engine already identified themes, those labels are reused
// verbatim with no API calls; otherwise one naming call is made per cluster.
type TitleGenerator struct {
	chat       port.ChatModel
	sampleSize int
}

func NewTitleGenerator(chat port.ChatModel, sampleSize int) *TitleGenerator {
	if sampleSize <= 0 {
		sampleSize = 5
	}
	return &TitleGenerator{chat: chat, sampleSize: sampleSize}
}

// Titles returns a title per cluster index. Per-cluster failures are
// isolated: a cluster the model cannot name gets a generic title.
func (g *TitleGenerator) Titles(clusters []ClusterMembers, themes []domain.ClusterTheme) map[int]string {
	titles := make(map[int]string, len(clusters))

	if len(themes) > 0 {
		for _, t := range themes {
			titles[t.Index] = t.Label
		}
		return titles
	}

	for _, cl := range clusters {
		if cl.Index == DBSCANNoise {
			titles[cl.Index] = NoiseTitle
			continue
		}
		titles[cl.Index] = g.nameCluster(cl)
	}
	return titles
}

func (g *TitleGenerator) nameCluster(cl ClusterMembers) string {
	sample := cl.Texts
	if len(sample) > g.sampleSize {
		sample = sample[:g.sampleSize]
	}
	if len(sample) == 0 {
		return genericLabel(cl.Index)
	}

	var sb strings.Builder
	for _, text := range sample {
		fmt.Fprintf(&sb, "- %s\n", text)
	}

	system := "You name groups of related text records."
	user := fmt.Sprintf(
		"These records belong to one semantic cluster:\n\n%s\n"+
			"Give the cluster a concise title of 3 to 6 words. "+
			`Respond with JSON in the form {"title": "..."} or with the title alone.`,
		sb.String(),
	)

	raw, err := g.chat.Complete(system, user, port.ChatOptions{Temperature: 0.3, MaxTokens: 30})
	if err != nil {
		return genericLabel(cl.Index)
	}

	if title := parseTitle(raw); title != "" {
		return title
	}
	return genericLabel(cl.Index)
}

// parseTitle accepts either a {"title": ...} object or plain text.
func parseTitle(raw string) string {
	if doc, ok := ExtractJSON(raw); ok {
		var resp struct {
			Title string `json:"title"`
		}
		if err := json.Unmarshal([]byte(doc), &resp); err == nil && resp.Title != "" {
			return strings.TrimSpace(resp.Title)
		}
	}

	title := strings.TrimSpace(raw)
	title = strings.Trim(title, "`")
	title = strings.Trim(title, `"`)
	return strings.TrimSpace(title)
}
