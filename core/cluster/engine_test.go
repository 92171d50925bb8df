package cluster

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"

	"github.com/siherrmann/manuscript/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func person(chapter int, text string) model.Mention {
	return model.Mention{Chapter: chapter, Text: text, Kind: model.KindPerson}
}

func pronoun(chapter int, text string) model.Mention {
	return model.Mention{Chapter: chapter, Text: text, Kind: model.KindUnresolved}
}

func mention(chapter int, text string, kind model.Kind) model.Mention {
	return model.Mention{Chapter: chapter, Text: text, Kind: kind}
}

func TestClusterScenarios(t *testing.T) {
	t.Run("Full name, short name and pronoun form one person", func(t *testing.T) {
		entities := Cluster([]model.Mention{
			person(1, "Sung Jinwoo"),
			person(1, "Jinwoo"),
			pronoun(1, "he"),
		}, model.DefaultClusterConfig())

		require.Len(t, entities, 1)
		e := entities[0]
		assert.Equal(t, model.KindPerson, e.Kind)
		assert.Equal(t, "Sung Jinwoo", e.Canonical)
		assert.Equal(t, []string{"Jinwoo"}, e.Aliases)
		assert.Len(t, e.Mentions, 3)
	})

	t.Run("Different kinds never merge", func(t *testing.T) {
		entities := Cluster([]model.Mention{
			person(1, "Yoo Jinho"),
			mention(1, "Hunter Association", model.KindOrganization),
		}, model.DefaultClusterConfig())

		require.Len(t, entities, 2)
		assert.Equal(t, model.KindPerson, entities[0].Kind)
		assert.Equal(t, model.KindOrganization, entities[1].Kind)
	})

	t.Run("Identical names of different kinds stay apart", func(t *testing.T) {
		entities := Cluster([]model.Mention{
			mention(1, "Ahjin", model.KindOrganization),
			mention(1, "Ahjin", model.KindLocation),
		}, model.DefaultClusterConfig())

		assert.Len(t, entities, 2)
	})

	t.Run("Empty mention sequence", func(t *testing.T) {
		entities := Cluster(nil, model.DefaultClusterConfig())

		assert.NotNil(t, entities)
		assert.Empty(t, entities)
	})

	t.Run("Single mention", func(t *testing.T) {
		entities := Cluster([]model.Mention{person(3, "Cha Hae-In")}, model.DefaultClusterConfig())

		require.Len(t, entities, 1)
		assert.Equal(t, 3, entities[0].FirstChapter)
		assert.Equal(t, 3, entities[0].LastChapter)
		assert.Empty(t, entities[0].Aliases)
		assert.Equal(t, "E1", entities[0].ID)
	})
}

func TestEngineMerge(t *testing.T) {
	t.Run("Longer name replaces canonical and is not kept as alias", func(t *testing.T) {
		entities := Cluster([]model.Mention{
			person(1, "Jinwoo"),
			person(2, "Sung Jinwoo"),
		}, model.DefaultClusterConfig())

		require.Len(t, entities, 1)
		assert.Equal(t, "Sung Jinwoo", entities[0].Canonical)
		assert.Empty(t, entities[0].Aliases)
		assert.Equal(t, 1, entities[0].FirstChapter)
		assert.Equal(t, 2, entities[0].LastChapter)
	})

	t.Run("Equal token count keeps the first canonical", func(t *testing.T) {
		entities := Cluster([]model.Mention{
			person(1, "Jinwoo"),
			person(1, "Jinwoos"),
		}, model.DefaultClusterConfig())

		require.Len(t, entities, 1)
		assert.Equal(t, "Jinwoo", entities[0].Canonical)
		assert.Equal(t, []string{"Jinwoos"}, entities[0].Aliases)
	})

	t.Run("Exact normalized match adds no alias", func(t *testing.T) {
		entities := Cluster([]model.Mention{
			person(1, "Sung Jinwoo"),
			person(1, "SUNG  JINWOO"),
			person(2, "Jinwoo"),
			person(2, "JINWOO"),
		}, model.DefaultClusterConfig())

		require.Len(t, entities, 1)
		assert.Equal(t, []string{"Jinwoo"}, entities[0].Aliases)
		assert.Len(t, entities[0].Mentions, 4)
	})

	t.Run("Edge punctuation keeps short names apart", func(t *testing.T) {
		entities := Cluster([]model.Mention{
			person(1, "Ai"),
			person(1, "Ai."),
		}, model.DefaultClusterConfig())

		require.Len(t, entities, 2)
		assert.Equal(t, "Ai", entities[0].Canonical)
		assert.Equal(t, "Ai.", entities[1].Canonical)
	})

	t.Run("Edge punctuation still joins a long name as an alias", func(t *testing.T) {
		entities := Cluster([]model.Mention{
			person(1, "Sung Jinwoo"),
			person(1, "Sung Jinwoo!"),
		}, model.DefaultClusterConfig())

		require.Len(t, entities, 1)
		assert.Equal(t, []string{"Sung Jinwoo!"}, entities[0].Aliases)
	})

	t.Run("Below threshold founds a new entity", func(t *testing.T) {
		entities := Cluster([]model.Mention{
			person(1, "Yoo Jinho"),
			person(1, "Yoo Jinwoo"),
		}, model.DefaultClusterConfig())

		assert.Len(t, entities, 2)
	})

	t.Run("Lower threshold merges", func(t *testing.T) {
		config := model.DefaultClusterConfig()
		config.SimilarityThreshold = 0.8

		entities := Cluster([]model.Mention{
			person(1, "Yoo Jinho"),
			person(1, "Yoo Jinwoo"),
		}, config)

		require.Len(t, entities, 1)
		assert.Equal(t, []string{"Yoo Jinwoo"}, entities[0].Aliases)
	})

	t.Run("Score equal to the threshold merges", func(t *testing.T) {
		config := model.DefaultClusterConfig()
		config.SimilarityThreshold = Ratio("abcd", "abce")

		entities := Cluster([]model.Mention{
			person(1, "abcd"),
			person(1, "abce"),
		}, config)

		assert.Len(t, entities, 1)
	})

	t.Run("Aliases take part in scoring", func(t *testing.T) {
		entities := Cluster([]model.Mention{
			person(1, "Sung Jinwoo"),
			person(1, "Jinwoo"),
			person(2, "Jinwooo"),
		}, model.DefaultClusterConfig())

		require.Len(t, entities, 1)
		assert.Equal(t, []string{"Jinwoo", "Jinwooo"}, entities[0].Aliases)
	})

	t.Run("Ties go to the earliest entity", func(t *testing.T) {
		config := model.DefaultClusterConfig()
		config.SimilarityThreshold = 0.8

		entities := Cluster([]model.Mention{
			person(1, "abcx"),
			person(1, "abcy"),
			person(2, "abc"),
		}, config)

		require.Len(t, entities, 2)
		assert.Equal(t, []string{"abcx", "abc"}, texts(entities[0].Mentions))
		assert.Equal(t, []string{"abcy"}, texts(entities[1].Mentions))
	})

	t.Run("Non-positive threshold uses the default", func(t *testing.T) {
		entities := Cluster([]model.Mention{
			person(1, "Yoo Jinho"),
			person(1, "Yoo Jinwoo"),
		}, model.ClusterConfig{})

		assert.Len(t, entities, 2)
	})
}

func TestEnginePronouns(t *testing.T) {
	t.Run("Pronoun joins the most recent named person", func(t *testing.T) {
		entities := Cluster([]model.Mention{
			person(1, "Sung Jinwoo"),
			person(1, "Cha Hae-In"),
			pronoun(1, "she"),
			person(2, "Jinwoo"),
			pronoun(2, "his"),
		}, model.DefaultClusterConfig())

		require.Len(t, entities, 2)
		jinwoo, haein := entities[0], entities[1]
		assert.Equal(t, "Sung Jinwoo", jinwoo.Canonical)
		assert.Equal(t, []string{"Sung Jinwoo", "Jinwoo", "his"}, texts(jinwoo.Mentions))
		assert.Equal(t, []string{"Cha Hae-In", "she"}, texts(haein.Mentions))
	})

	t.Run("Pronoun extends chapter range but not names", func(t *testing.T) {
		entities := Cluster([]model.Mention{
			person(1, "Sung Jinwoo"),
			pronoun(4, "him"),
		}, model.DefaultClusterConfig())

		require.Len(t, entities, 1)
		assert.Equal(t, 4, entities[0].LastChapter)
		assert.Equal(t, "Sung Jinwoo", entities[0].Canonical)
		assert.Empty(t, entities[0].Aliases)
	})

	t.Run("Pronoun before any person is unattached", func(t *testing.T) {
		engine := NewEngine(model.DefaultClusterConfig(), nil)

		assert.False(t, engine.Add(pronoun(1, "he")))
		engine.Add(mention(1, "Seoul", model.KindLocation))
		assert.False(t, engine.Add(pronoun(1, "it")))

		entities := engine.Entities()
		require.Len(t, entities, 1)
		assert.Equal(t, model.KindLocation, entities[0].Kind)
		assert.Equal(t, 2, engine.Stats().Unattached)
	})

	t.Run("Named span that is a pronoun is treated as one", func(t *testing.T) {
		entities := Cluster([]model.Mention{
			person(1, "Sung Jinwoo"),
			person(1, "He"),
		}, model.DefaultClusterConfig())

		require.Len(t, entities, 1)
		assert.Equal(t, "Sung Jinwoo", entities[0].Canonical)
		assert.Empty(t, entities[0].Aliases)
		assert.Len(t, entities[0].Mentions, 2)
	})

	t.Run("Pronouns never become person names", func(t *testing.T) {
		entities := Cluster([]model.Mention{
			pronoun(1, "they"),
			pronoun(1, "it"),
		}, model.DefaultClusterConfig())

		assert.Empty(t, entities)
	})
}

func TestEngineMalformed(t *testing.T) {
	engine := NewEngine(model.DefaultClusterConfig(), nil)

	assert.False(t, engine.Add(person(0, "Sung Jinwoo")))
	assert.False(t, engine.Add(mention(1, "Sung Jinwoo", model.Kind("MISC"))))
	assert.True(t, engine.Add(person(1, "Sung Jinwoo")))

	entities := engine.Entities()
	require.Len(t, entities, 1)
	assert.Equal(t, "E1", entities[0].ID)
	stats := engine.Stats()
	assert.Equal(t, 3, stats.Mentions)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, 1, stats.Created)
}

func TestEngineBlankText(t *testing.T) {
	t.Run("Blank text founds its own entity", func(t *testing.T) {
		engine := NewEngine(model.DefaultClusterConfig(), nil)

		assert.True(t, engine.Add(person(1, "Sung Jinwoo")))
		assert.True(t, engine.Add(person(1, "   ")))
		assert.True(t, engine.Add(person(2, "")))

		entities := engine.Entities()
		require.Len(t, entities, 3)
		assert.Equal(t, []string{"Sung Jinwoo"}, texts(entities[0].Mentions))
		assert.Equal(t, []string{"   "}, texts(entities[1].Mentions))
		assert.Equal(t, []string{""}, texts(entities[2].Mentions))
		stats := engine.Stats()
		assert.Equal(t, 0, stats.Skipped)
		assert.Equal(t, 3, stats.Created)
	})
}

func TestEngineOnlyPunctuation(t *testing.T) {
	entities := Cluster([]model.Mention{
		person(1, "..."),
		person(1, "!!!"),
	}, model.DefaultClusterConfig())

	require.Len(t, entities, 1)
	assert.Equal(t, "...", entities[0].Canonical)
	assert.Empty(t, entities[0].Aliases)
	assert.Len(t, entities[0].Mentions, 2)
}

func TestEngineTokenRuns(t *testing.T) {
	t.Run("Given name joins the full person name", func(t *testing.T) {
		entities := Cluster([]model.Mention{
			person(1, "Sung Jinwoo"),
			person(2, "Jinwoo"),
		}, model.DefaultClusterConfig())

		require.Len(t, entities, 1)
		assert.Equal(t, []string{"Jinwoo"}, entities[0].Aliases)
	})

	t.Run("Shared surname does not chain people together", func(t *testing.T) {
		entities := Cluster([]model.Mention{
			person(1, "Kim Jun"),
			person(1, "Kim"),
			person(2, "Kim Soo"),
		}, model.DefaultClusterConfig())

		require.Len(t, entities, 2)
		assert.Equal(t, "Kim Jun", entities[0].Canonical)
		assert.Equal(t, []string{"Kim"}, entities[0].Aliases)
		assert.Equal(t, "Kim Soo", entities[1].Canonical)
		assert.Empty(t, entities[1].Aliases)
	})

	t.Run("Organizations never merge on a token run", func(t *testing.T) {
		entities := Cluster([]model.Mention{
			mention(1, "Hunter Association", model.KindOrganization),
			mention(1, "Association", model.KindOrganization),
			mention(2, "Korean Association", model.KindOrganization),
		}, model.DefaultClusterConfig())

		require.Len(t, entities, 3)
		for _, e := range entities {
			assert.Empty(t, e.Aliases, e.ID)
		}
	})

	t.Run("Locations never merge on a token run", func(t *testing.T) {
		entities := Cluster([]model.Mention{
			mention(1, "Seoul Station", model.KindLocation),
			mention(1, "Seoul", model.KindLocation),
		}, model.DefaultClusterConfig())

		require.Len(t, entities, 2)
		assert.Equal(t, "Seoul Station", entities[0].Canonical)
		assert.Equal(t, "Seoul", entities[1].Canonical)
	})
}

func TestSortOrder(t *testing.T) {
	t.Run("Kind priority then first chapter then creation order", func(t *testing.T) {
		entities := Cluster([]model.Mention{
			mention(1, "Hunter Association", model.KindOrganization),
			mention(2, "Seoul", model.KindLocation),
			person(3, "Cha Hae-In"),
			person(1, "Yoo Jinho"),
			mention(1, "Jeju Island", model.KindLocation),
		}, model.DefaultClusterConfig())

		assert.Equal(t, []string{"E4", "E3", "E5", "E2", "E1"}, ids(entities))
	})

	t.Run("Ids compare numerically", func(t *testing.T) {
		names := []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo", "Foxtrot", "Golf", "Hotel", "India", "Juliet", "Kilo"}
		var mentions []model.Mention
		for _, n := range names {
			mentions = append(mentions, person(1, n))
		}

		entities := Cluster(mentions, model.DefaultClusterConfig())

		require.Len(t, entities, 11)
		assert.Equal(t, []string{"E1", "E2", "E3", "E4", "E5", "E6", "E7", "E8", "E9", "E10", "E11"}, ids(entities))
	})

	t.Run("Custom priority table", func(t *testing.T) {
		config := model.DefaultClusterConfig()
		config.KindPriority = map[model.Kind]int{model.KindOrganization: 0}

		entities := Cluster([]model.Mention{
			person(1, "Yoo Jinho"),
			mention(2, "Hunter Association", model.KindOrganization),
			mention(1, "Seoul", model.KindLocation),
		}, config)

		assert.Equal(t, []string{"E2", "E1", "E3"}, ids(entities))
	})
}

func TestBuildCatalog(t *testing.T) {
	t.Run("Catalog JSON shape", func(t *testing.T) {
		catalog, stats := BuildCatalog([]model.Mention{
			{Chapter: 1, SentenceIndex: 0, Text: "Sung Jinwoo", Kind: model.KindPerson},
			{Chapter: 1, SentenceIndex: 2, Text: "he", Kind: model.KindUnresolved},
		}, model.DefaultClusterConfig(), nil)

		assert.Equal(t, 2, stats.Mentions)
		assert.Equal(t, 1, stats.Merged)
		b, err := catalog.Marshal()
		require.NoError(t, err)
		assert.JSONEq(t, `{"entities":[{
			"id":"E1","kind":"PERSON","canonical":"Sung Jinwoo","aliases":[],
			"first_chapter":1,"last_chapter":1,
			"mentions":[
				{"chapter":1,"sentence_index":0,"text":"Sung Jinwoo","kind":"PERSON"},
				{"chapter":1,"sentence_index":2,"text":"he","kind":"UNRESOLVED"}
			]}]}`, string(b))
	})

	t.Run("Empty input gives an empty entity list", func(t *testing.T) {
		catalog, _ := BuildCatalog(nil, model.DefaultClusterConfig(), nil)

		b, err := catalog.Marshal()
		require.NoError(t, err)
		assert.JSONEq(t, `{"entities":[]}`, string(b))
	})
}

var (
	personNames   = []string{"Sung Jinwoo", "Jinwoo", "Sung", "Yoo Jinho", "Jinho", "Cha Hae-In", "Hae-In", "Go Gunhee", "Baek Yoonho", "JINWOO!", "Sung Jin-woo"}
	locationNames = []string{"Seoul", "Seoul Station", "Jeju Island", "Jeju", "Busan"}
	orgNames      = []string{"Hunter Association", "Ahjin Guild", "White Tiger Guild", "Association", "Korean Hunter Association"}
)

// randomStream builds a chapter-major mention stream
func randomStream(seed int64, n int) []model.Mention {
	rng := rand.New(rand.NewSource(seed))
	mentions := make([]model.Mention, 0, n)
	chapter := 1
	for i := 0; i < n; i++ {
		if rng.Intn(6) == 0 {
			chapter++
		}
		var m model.Mention
		switch rng.Intn(4) {
		case 0:
			m = mention(chapter, locationNames[rng.Intn(len(locationNames))], model.KindLocation)
		case 1:
			m = mention(chapter, orgNames[rng.Intn(len(orgNames))], model.KindOrganization)
		case 2:
			m = pronoun(chapter, model.Pronouns[rng.Intn(len(model.Pronouns))])
		default:
			m = person(chapter, personNames[rng.Intn(len(personNames))])
		}
		m.SentenceIndex = rng.Intn(20)
		mentions = append(mentions, m)
	}
	return mentions
}

func TestClusterProperties(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		mentions := randomStream(seed, 200)

		t.Run(fmt.Sprintf("Seed %d", seed), func(t *testing.T) {
			engine := NewEngine(model.DefaultClusterConfig(), nil)
			engine.AddAll(mentions)
			entities := engine.Entities()
			stats := engine.Stats()

			// partition
			total := 0
			for _, e := range entities {
				total += len(e.Mentions)
			}
			assert.Equal(t, len(mentions)-stats.Skipped-stats.Unattached, total)

			for _, e := range entities {
				// range invariant
				lo, hi := e.Mentions[0].Chapter, e.Mentions[0].Chapter
				for _, m := range e.Mentions {
					lo = min(lo, m.Chapter)
					hi = max(hi, m.Chapter)
				}
				assert.Equal(t, lo, e.FirstChapter, e.ID)
				assert.Equal(t, hi, e.LastChapter, e.ID)
				assert.NotEmpty(t, e.Canonical)

				// alias uniqueness
				seen := map[string]bool{}
				for _, name := range append([]string{e.Canonical}, e.Aliases...) {
					norm := Normalize(name)
					assert.False(t, seen[norm], "%s has duplicate name %q", e.ID, name)
					seen[norm] = true

					// pronoun non-leakage
					assert.False(t, model.IsPronounText(norm), "%s leaks pronoun %q", e.ID, name)
				}
			}
		})

		t.Run(fmt.Sprintf("Seed %d is deterministic", seed), func(t *testing.T) {
			first, _ := BuildCatalog(mentions, model.DefaultClusterConfig(), nil)
			second, _ := BuildCatalog(mentions, model.DefaultClusterConfig(), nil)

			a, err := json.Marshal(first)
			require.NoError(t, err)
			b, err := json.Marshal(second)
			require.NoError(t, err)
			assert.Equal(t, string(a), string(b))
		})

		t.Run(fmt.Sprintf("Seed %d keeps canonical token count monotonic", seed), func(t *testing.T) {
			engine := NewEngine(model.DefaultClusterConfig(), nil)
			tokens := map[string]int{}
			for _, m := range mentions {
				engine.Add(m)
				for _, c := range engine.clusters {
					n := TokenCount(c.entity.Canonical)
					assert.GreaterOrEqual(t, n, tokens[c.entity.ID], c.entity.ID)
					tokens[c.entity.ID] = n
				}
			}
		})
	}
}

func texts(mentions []model.Mention) []string {
	out := make([]string, len(mentions))
	for i, m := range mentions {
		out[i] = m.Text
	}
	return out
}

func ids(entities []*model.Entity) []string {
	out := make([]string, len(entities))
	for i, e := range entities {
		out[i] = e.ID
	}
	return out
}
