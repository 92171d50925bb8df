package cluster

import (
	"log/slog"
	"sort"

	"github.com/siherrmann/manuscript/helper"
	"github.com/siherrmann/manuscript/model"
)

// cluster is an entity together with the normalized forms of its names
type cluster struct {
	entity    *model.Entity
	canonical string
	aliases   []string
}

func newCluster(e *model.Entity) *cluster {
	return &cluster{entity: e, canonical: Normalize(e.Canonical)}
}

// score is the best ratio between norm and any name of the cluster
func (c *cluster) score(norm string) float64 {
	best := Ratio(norm, c.canonical)
	for _, a := range c.aliases {
		if best == 1 {
			break
		}
		if s := Ratio(norm, a); s > best {
			best = s
		}
	}
	return best
}

// names returns the normalized canonical followed by the normalized aliases
func (c *cluster) names() []string {
	return append([]string{c.canonical}, c.aliases...)
}

func (c *cluster) hasName(norm string) bool {
	for _, n := range c.names() {
		if n == norm {
			return true
		}
	}
	return false
}

// extendsCanonical reports whether norm and the canonical name share a whole-token run
func (c *cluster) extendsCanonical(norm string) bool {
	return subsumes(c.canonical, norm)
}

func (c *cluster) addAlias(raw, norm string) {
	if norm == c.canonical {
		return
	}
	for _, a := range c.aliases {
		if a == norm {
			return
		}
	}
	c.entity.Aliases = append(c.entity.Aliases, raw)
	c.aliases = append(c.aliases, norm)
}

// Stats counts what happened to the mentions fed into an Engine
type Stats struct {
	Mentions   int `json:"mentions"`
	Merged     int `json:"merged"`
	Created    int `json:"created"`
	Skipped    int `json:"skipped"`
	Unattached int `json:"unattached"`
}

// Engine greedily folds an ordered mention stream into entities.
// It is not safe for concurrent use.
type Engine struct {
	config   model.ClusterConfig
	log      *slog.Logger
	clusters []*cluster
	byKind   map[model.Kind][]*cluster
	// antecedent is the PERSON cluster that last received a named mention
	antecedent *cluster
	stats      Stats
	finished   []*model.Entity
}

// NewEngine creates an engine. A non-positive threshold falls back to the default.
func NewEngine(config model.ClusterConfig, logger *slog.Logger) *Engine {
	if config.SimilarityThreshold <= 0 {
		config.SimilarityThreshold = model.DefaultSimilarityThreshold
	}
	if config.KindPriority == nil {
		config.KindPriority = model.DefaultClusterConfig().KindPriority
	}
	if logger == nil {
		logger = helper.DiscardLogger()
	}
	return &Engine{
		config: config,
		log:    logger,
		byKind: make(map[model.Kind][]*cluster),
	}
}

// Add assigns one mention to an existing entity or founds a new one.
// It returns false when the mention was skipped.
func (e *Engine) Add(m model.Mention) bool {
	e.stats.Mentions++
	e.finished = nil

	if err := m.Validate(); err != nil {
		e.stats.Skipped++
		e.log.Warn("Skipping mention", "text", m.Text, "chapter", m.Chapter, "kind", m.Kind, "error", err)
		return false
	}

	norm := Normalize(m.Text)
	kind := m.Kind.ClusterKind()
	pronoun := m.IsPronoun()
	if !pronoun && model.IsPronounText(norm) {
		// A recogniser labelled a pronoun as a name.
		pronoun, kind = true, model.KindPerson
	}
	if norm == "" {
		e.create(kind, m)
		return true
	}

	var best *cluster
	bestScore := 0.0
	for _, c := range e.byKind[kind] {
		if s := c.score(norm); s > bestScore {
			best, bestScore = c, s
		}
	}

	merge := best != nil && (bestScore >= e.config.SimilarityThreshold || best.hasName(norm))
	if !merge && !pronoun && kind == model.KindPerson && best != nil && best.extendsCanonical(norm) {
		// "Jinwoo" after "Sung Jinwoo". Only a person's canonical name counts.
		merge = true
	}

	if !merge && pronoun {
		if e.antecedent == nil {
			e.stats.Unattached++
			e.log.Debug("Pronoun without antecedent", "text", m.Text, "chapter", m.Chapter)
			return false
		}
		best, merge = e.antecedent, true
	}

	if merge {
		e.merge(best, m, norm, pronoun)
	} else {
		best = e.create(kind, m)
	}

	if !pronoun && kind == model.KindPerson {
		e.antecedent = best
	}
	return true
}

func (e *Engine) merge(c *cluster, m model.Mention, norm string, pronoun bool) {
	e.stats.Merged++
	ent := c.entity
	ent.Mentions = append(ent.Mentions, m)
	ent.AddChapter(m.Chapter)
	if pronoun {
		return
	}

	c.addAlias(m.Text, norm)
	if TokenCount(m.Text) > TokenCount(ent.Canonical) {
		ent.Canonical = m.Text
		c.canonical = norm
	}
}

func (e *Engine) create(kind model.Kind, m model.Mention) *cluster {
	e.stats.Created++
	c := newCluster(model.NewEntity(len(e.clusters)+1, kind, m))
	e.clusters = append(e.clusters, c)
	e.byKind[kind] = append(e.byKind[kind], c)
	return c
}

// AddAll feeds mentions in order
func (e *Engine) AddAll(mentions []model.Mention) {
	for _, m := range mentions {
		e.Add(m)
	}
}

// Stats returns the counters of the pass so far
func (e *Engine) Stats() Stats {
	return e.stats
}

// Entities runs the post-pass and returns the entities in catalog order
func (e *Engine) Entities() []*model.Entity {
	if e.finished != nil {
		return e.finished
	}

	entities := make([]*model.Entity, len(e.clusters))
	for i, c := range e.clusters {
		dedupeAliases(c)
		entities[i] = c.entity
	}
	Sort(entities, e.config)

	e.finished = entities
	return entities
}

// dedupeAliases keeps the first alias per normalized form and drops any equal to the canonical
func dedupeAliases(c *cluster) {
	seen := map[string]bool{c.canonical: true}
	aliases := make([]string, 0, len(c.entity.Aliases))
	norms := make([]string, 0, len(c.entity.Aliases))
	for _, raw := range c.entity.Aliases {
		norm := Normalize(raw)
		if seen[norm] {
			continue
		}
		seen[norm] = true
		aliases = append(aliases, raw)
		norms = append(norms, norm)
	}
	c.entity.Aliases = aliases
	c.aliases = norms
}

// Sort orders entities by kind priority, first chapter and creation order
func Sort(entities []*model.Entity, config model.ClusterConfig) {
	sort.SliceStable(entities, func(i, j int) bool {
		a, b := entities[i], entities[j]
		if pa, pb := config.Priority(a.Kind), config.Priority(b.Kind); pa != pb {
			return pa < pb
		}
		if a.FirstChapter != b.FirstChapter {
			return a.FirstChapter < b.FirstChapter
		}
		return a.Seq < b.Seq
	})
}

// Cluster folds mentions into entities with the given config
func Cluster(mentions []model.Mention, config model.ClusterConfig) []*model.Entity {
	engine := NewEngine(config, nil)
	engine.AddAll(mentions)
	return engine.Entities()
}

// BuildCatalog clusters mentions and wraps the result as a catalog
func BuildCatalog(mentions []model.Mention, config model.ClusterConfig, logger *slog.Logger) (*model.Catalog, Stats) {
	engine := NewEngine(config, logger)
	engine.AddAll(mentions)
	entities := engine.Entities()
	stats := engine.Stats()
	engine.log.Info("Catalog built", "mentions", stats.Mentions, "entities", len(entities), "skipped", stats.Skipped, "unattached", stats.Unattached)
	return model.NewCatalog(entities), stats
}
