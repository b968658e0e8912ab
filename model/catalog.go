package model

// Game is a title mods are built for.
type Game struct {
	ID       int64   `json:"game_id"`
	Name     string  `json:"name"`
	Genre    *string `json:"genre"`
	Engine   *string `json:"engine"`
	Platform *string `json:"platform"`
}

// Tag is a unique keyword label attached to mods.
type Tag struct {
	ID   int64  `json:"tag_id"`
	Name string `json:"name"`
}

// Mod is a catalog entry for a single game.
// Embedding is nil until the backfill computed it.
type Mod struct {
	ID          int64     `json:"mod_id"`
	GameID      int64     `json:"game_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	SourceURL   *string   `json:"source_url"`
	Version     *string   `json:"version"`
	Tags        []Tag     `json:"tags"`
	Embedding   []float32 `json:"-"`

	// Distance is the cosine distance to the query vector, only set by similarity search.
	Distance *float64 `json:"-"`
}

// HasEmbedding reports whether an embedding has been stored for the mod.
func (m *Mod) HasEmbedding() bool {
	return len(m.Embedding) > 0
}

// TagNames returns the names of the mod's tags in storage order.
func (m *Mod) TagNames() []string {
	names := make([]string, 0, len(m.Tags))
	for _, t := range m.Tags {
		names = append(names, t.Name)
	}
	return names
}

// EmbeddingText is the text embedded for a mod, "name: description".
func (m *Mod) EmbeddingText() string {
	if m.Description == nil {
		return m.Name + ": "
	}
	return m.Name + ": " + *m.Description
}

// Dependency is a directed edge, ModID requires DependsOnModID.
type Dependency struct {
	ID             int64 `json:"dependency_id"`
	ModID          int64 `json:"mod_id"`
	DependsOnModID int64 `json:"depends_on_mod_id"`
}

// Incompatibility is an unordered pair, stored with ModIDA < ModIDB.
type Incompatibility struct {
	ModIDA int64 `json:"mod_id_a"`
	ModIDB int64 `json:"mod_id_b"`
}

// ModDetail is a mod with its resolved requirement and conflict sets.
type ModDetail struct {
	*Mod
	Requires         []*Mod `json:"requires"`
	IncompatibleWith []*Mod `json:"incompatible_with"`
}
