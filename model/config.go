package model

// ClusterConfig holds the tunables of the alias clustering pass
type ClusterConfig struct {
	// SimilarityThreshold is the minimum ratio for a fuzzy merge
	SimilarityThreshold float64 `json:"similarity_threshold"`

	// KindPriority orders entities in the final catalog, lower first.
	// Kinds missing from the table sort after every listed kind.
	KindPriority map[Kind]int `json:"kind_priority"`
}

// DefaultSimilarityThreshold is the merge threshold used when none is configured
const DefaultSimilarityThreshold = 0.86

// UnlistedKindPriority is the priority of kinds absent from KindPriority
const UnlistedKindPriority = 9

// DefaultClusterConfig returns the default clustering configuration
func DefaultClusterConfig() ClusterConfig {
	return ClusterConfig{
		SimilarityThreshold: DefaultSimilarityThreshold,
		KindPriority: map[Kind]int{
			KindPerson:       0,
			KindLocation:     1,
			KindOrganization: 2,
			KindUnresolved:   3,
		},
	}
}

// Priority returns the sort priority of kind k
func (c ClusterConfig) Priority(k Kind) int {
	if p, ok := c.KindPriority[k]; ok {
		return p
	}
	return UnlistedKindPriority
}
