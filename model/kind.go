package model

// Kind is the coarse category of an entity or mention
type Kind string

const (
	KindPerson       Kind = "PERSON"
	KindLocation     Kind = "LOCATION"
	KindOrganization Kind = "ORGANIZATION"
	// KindUnresolved marks pronoun-derived mentions awaiting a merge.
	KindUnresolved Kind = "UNRESOLVED"
)

// Valid reports whether k is one of the known mention kinds
func (k Kind) Valid() bool {
	switch k {
	case KindPerson, KindLocation, KindOrganization, KindUnresolved:
		return true
	}
	return false
}

// ClusterKind returns the kind a mention is clustered as.
// Pronouns only ever join or found PERSON entities.
func (k Kind) ClusterKind() Kind {
	if k == KindUnresolved {
		return KindPerson
	}
	return k
}
