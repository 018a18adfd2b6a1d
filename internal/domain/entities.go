package domain

// TextUnit is one semantic unit of input text, built by concatenating all
// raw rows that share a sequence identifier.
type TextUnit struct {
	ID   string
	Text string
}

// Record is one raw input row. Rows are kept verbatim so the exporter can
// reproduce the input one-to-one with cluster columns appended.
type Record struct {
	UnitID string
	Fields []string
}

// ClusterTheme is a short label for one semantic cluster. Index is 0-based
// and unique within a run; labels are not required to be unique.
type ClusterTheme struct {
	Index int
	Label string
}

// Outcome records how an assignment was determined.
type Outcome int

const (
	// OutcomeParsed means the cluster index came from a parsed model reply
	// or a numeric clusterer.
	OutcomeParsed Outcome = iota
	// OutcomeFallback means the index is the fallback (0) after a failed
	// call or an unparseable reply.
	OutcomeFallback
)

// Assignment maps a text unit to a cluster index. It is created once and
// never revised.
type Assignment struct {
	UnitID  string
	Cluster int
	Outcome Outcome
}

// ClusterResult is the terminal aggregate for one cluster: its index, a
// human-readable title and the member unit IDs in input order.
type ClusterResult struct {
	Index   int
	Title   string
	Members []string
}
