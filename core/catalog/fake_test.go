package catalog

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/siherrmann/modmuse/helper"
	"github.com/siherrmann/modmuse/model"
)

// memStore is an in-memory implementation of the catalog stores with the
// same upsert semantics as the database handlers.
type memStore struct {
	mu                sync.Mutex
	nextID            int64
	games             []*model.Game
	mods              []*model.Mod
	tags              map[string]int64
	dependencies      []*model.Dependency
	incompatibilities []*model.Incompatibility
	embedUpdates      int
}

func newMemStore() *memStore {
	return &memStore{tags: map[string]int64{}}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) InsertGame(ctx context.Context, game *model.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.games {
		if g.Name == game.Name {
			g.Genre, g.Engine, g.Platform = game.Genre, game.Engine, game.Platform
			*game = *g
			return nil
		}
	}
	game.ID = m.id()
	stored := *game
	m.games = append(m.games, &stored)
	return nil
}

func (m *memStore) SelectGame(ctx context.Context, id int64) (*model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.games {
		if g.ID == id {
			game := *g
			return &game, nil
		}
	}
	return nil, helper.NewError("scan", sql.ErrNoRows)
}

func (m *memStore) SelectAllGames(ctx context.Context) ([]*model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	games := []*model.Game{}
	for _, g := range m.games {
		game := *g
		games = append(games, &game)
	}
	return games, nil
}

func (m *memStore) InsertMod(ctx context.Context, mod *model.Mod) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.mods {
		if existing.GameID == mod.GameID && existing.Name == mod.Name {
			existing.Description, existing.SourceURL, existing.Version = mod.Description, mod.SourceURL, mod.Version
			*mod = *existing
			return nil
		}
	}
	mod.ID = m.id()
	stored := *mod
	m.mods = append(m.mods, &stored)
	return nil
}

func (m *memStore) findMod(id int64) *model.Mod {
	for _, mod := range m.mods {
		if mod.ID == id {
			return mod
		}
	}
	return nil
}

func (m *memStore) SelectMod(ctx context.Context, id int64) (*model.Mod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mod := m.findMod(id)
	if mod == nil {
		return nil, helper.NewError("scan", sql.ErrNoRows)
	}
	copied := *mod
	return &copied, nil
}

func (m *memStore) SelectModsByGame(ctx context.Context, gameID int64) ([]*model.Mod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mods := []*model.Mod{}
	for _, mod := range m.mods {
		if mod.GameID == gameID {
			copied := *mod
			mods = append(mods, &copied)
		}
	}
	return mods, nil
}

func (m *memStore) SelectModsByIDs(ctx context.Context, ids []int64) ([]*model.Mod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mods := []*model.Mod{}
	for _, id := range ids {
		if mod := m.findMod(id); mod != nil {
			copied := *mod
			mods = append(mods, &copied)
		}
	}
	sort.Slice(mods, func(i, j int) bool { return mods[i].ID < mods[j].ID })
	return mods, nil
}

func (m *memStore) UpdateModEmbedding(ctx context.Context, id int64, embedding []float32) (*model.Mod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mod := m.findMod(id)
	if mod == nil {
		return nil, helper.NewError("scan", sql.ErrNoRows)
	}
	m.embedUpdates++
	mod.Embedding = embedding
	copied := *mod
	return &copied, nil
}

func (m *memStore) InsertTag(ctx context.Context, tag *model.Tag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.tags[tag.Name]; ok {
		tag.ID = id
		return nil
	}
	tag.ID = m.id()
	m.tags[tag.Name] = tag.ID
	return nil
}

func (m *memStore) InsertModTag(ctx context.Context, modID int64, tagID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mod := m.findMod(modID)
	if mod == nil {
		return helper.NewError("exec", sql.ErrNoRows)
	}
	for _, tag := range mod.Tags {
		if tag.ID == tagID {
			return nil
		}
	}
	for name, id := range m.tags {
		if id == tagID {
			mod.Tags = append(mod.Tags, model.Tag{ID: id, Name: name})
		}
	}
	return nil
}

func (m *memStore) InsertDependency(ctx context.Context, dependency *model.Dependency) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.dependencies {
		if d.ModID == dependency.ModID && d.DependsOnModID == dependency.DependsOnModID {
			*dependency = *d
			return nil
		}
	}
	dependency.ID = m.id()
	stored := *dependency
	m.dependencies = append(m.dependencies, &stored)
	return nil
}

func (m *memStore) SelectDependenciesFromMod(ctx context.Context, modID int64) ([]*model.Dependency, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dependencies := []*model.Dependency{}
	for _, d := range m.dependencies {
		if d.ModID == modID {
			copied := *d
			dependencies = append(dependencies, &copied)
		}
	}
	return dependencies, nil
}

func (m *memStore) InsertIncompatibility(ctx context.Context, incompatibility *model.Incompatibility) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if incompatibility.ModIDA > incompatibility.ModIDB {
		incompatibility.ModIDA, incompatibility.ModIDB = incompatibility.ModIDB, incompatibility.ModIDA
	}
	for _, i := range m.incompatibilities {
		if *i == *incompatibility {
			return nil
		}
	}
	stored := *incompatibility
	m.incompatibilities = append(m.incompatibilities, &stored)
	return nil
}

func (m *memStore) SelectIncompatibilitiesOfMod(ctx context.Context, modID int64) ([]*model.Incompatibility, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	incompatibilities := []*model.Incompatibility{}
	for _, i := range m.incompatibilities {
		if i.ModIDA == modID || i.ModIDB == modID {
			copied := *i
			incompatibilities = append(incompatibilities, &copied)
		}
	}
	return incompatibilities, nil
}

func newMemCatalog() (*Catalog, *memStore) {
	store := newMemStore()
	return NewCatalog(store, store, store, store, store, nil), store
}

// modID looks up a seeded mod by name.
func (m *memStore) modID(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mod := range m.mods {
		if mod.Name == name {
			return mod.ID
		}
	}
	return 0
}
