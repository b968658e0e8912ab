package graph

import (
	"context"
	"testing"

	"github.com/siherrmann/modmuse/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockGraphDB is a mock implementation of GraphDB for testing
type MockGraphDB struct {
	mods       map[int64]*model.Mod
	edges      map[int64][]*model.Dependency
	failEdgeOn int64
}

func NewMockGraphDB() *MockGraphDB {
	return &MockGraphDB{
		mods:  make(map[int64]*model.Mod),
		edges: make(map[int64][]*model.Dependency),
	}
}

func (m *MockGraphDB) addMod(id int64, name string) {
	m.mods[id] = &model.Mod{ID: id, GameID: 1, Name: name}
}

func (m *MockGraphDB) addDependency(from, to int64) {
	m.edges[from] = append(m.edges[from], &model.Dependency{ModID: from, DependsOnModID: to})
}

func (m *MockGraphDB) SelectMod(ctx context.Context, id int64) (*model.Mod, error) {
	mod, ok := m.mods[id]
	if !ok {
		return nil, assert.AnError
	}
	return mod, nil
}

func (m *MockGraphDB) SelectDependenciesFromMod(ctx context.Context, modID int64) ([]*model.Dependency, error) {
	if m.failEdgeOn != 0 && modID == m.failEdgeOn {
		return nil, assert.AnError
	}
	return m.edges[modID], nil
}

func modIDs(results []*TraversalResult) []int64 {
	ids := make([]int64, len(results))
	for i, r := range results {
		ids[i] = r.Mod.ID
	}
	return ids
}

func TestBFS(t *testing.T) {
	// Test graph: 1 -> 2 -> 3
	//             1 -> 4
	//             3 -> 99 (missing mod)
	mockDB := NewMockGraphDB()
	mockDB.addMod(1, "Frostfall")
	mockDB.addMod(2, "Campfire")
	mockDB.addMod(3, "SKSE")
	mockDB.addMod(4, "SkyUI")
	mockDB.addDependency(1, 2)
	mockDB.addDependency(1, 4)
	mockDB.addDependency(2, 3)
	mockDB.addDependency(3, 99)

	ctx := context.Background()

	t.Run("BFS from source with max hops 1", func(t *testing.T) {
		results, err := BFS(ctx, mockDB, 1, 1)

		require.NoError(t, err, "Expected BFS to not return an error")
		assert.Equal(t, []int64{1, 2, 4}, modIDs(results))
		assert.Equal(t, 0, results[0].Distance, "Expected source distance to be 0")
		assert.Equal(t, 1, results[1].Distance)
	})

	t.Run("BFS without hop limit follows all edges", func(t *testing.T) {
		results, err := BFS(ctx, mockDB, 1, -1)

		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2, 4, 3}, modIDs(results), "Expected breadth first order and missing mods to be skipped")
		assert.Equal(t, []int64{1, 2, 3}, results[3].Path)
		assert.Equal(t, 2, results[3].Distance)
	})

	t.Run("BFS from unknown source fails", func(t *testing.T) {
		_, err := BFS(ctx, mockDB, 42, -1)
		assert.Error(t, err)
	})

	t.Run("BFS terminates on cycles", func(t *testing.T) {
		cyclic := NewMockGraphDB()
		cyclic.addMod(1, "A")
		cyclic.addMod(2, "B")
		cyclic.addDependency(1, 2)
		cyclic.addDependency(2, 1)

		results, err := BFS(ctx, cyclic, 1, -1)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2}, modIDs(results))
	})

	t.Run("Edge load error is returned", func(t *testing.T) {
		failing := NewMockGraphDB()
		failing.addMod(1, "A")
		failing.failEdgeOn = 1

		_, err := BFS(ctx, failing, 1, -1)
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestRequirements(t *testing.T) {
	mockDB := NewMockGraphDB()
	mockDB.addMod(1, "Frostfall")
	mockDB.addMod(2, "Campfire")
	mockDB.addMod(3, "SkyUI")
	mockDB.addDependency(1, 2)
	mockDB.addDependency(2, 3)

	ctx := context.Background()

	t.Run("Transitive requirements nearest first", func(t *testing.T) {
		requirements, err := Requirements(ctx, mockDB, 1)
		require.NoError(t, err)
		require.Len(t, requirements, 2)
		assert.Equal(t, "Campfire", requirements[0].Name)
		assert.Equal(t, "SkyUI", requirements[1].Name)
	})

	t.Run("Mod without dependencies has no requirements", func(t *testing.T) {
		requirements, err := Requirements(ctx, mockDB, 3)
		require.NoError(t, err)
		assert.Empty(t, requirements)
	})
}

func TestReaches(t *testing.T) {
	mockDB := NewMockGraphDB()
	mockDB.addDependency(1, 2)
	mockDB.addDependency(2, 3)
	mockDB.addDependency(4, 1)

	ctx := context.Background()

	tests := []struct {
		name     string
		from     int64
		to       int64
		expected bool
	}{
		{"Direct edge", 1, 2, true},
		{"Transitive edge", 1, 3, true},
		{"Reverse direction is not reachable", 3, 1, false},
		{"Same mod reaches itself", 2, 2, true},
		{"Unrelated mods", 3, 4, false},
		{"Longer chain", 4, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reaches, err := Reaches(ctx, mockDB, tt.from, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, reaches)
		})
	}

	t.Run("Reaches terminates on cycles", func(t *testing.T) {
		cyclic := NewMockGraphDB()
		cyclic.addDependency(1, 2)
		cyclic.addDependency(2, 1)

		reaches, err := Reaches(ctx, cyclic, 1, 3)
		require.NoError(t, err)
		assert.False(t, reaches)
	})
}

func TestNewGraphDB(t *testing.T) {
	t.Run("Combined reader delegates to both readers", func(t *testing.T) {
		mockDB := NewMockGraphDB()
		mockDB.addMod(1, "A")
		mockDB.addMod(2, "B")
		mockDB.addDependency(1, 2)

		db := NewGraphDB(mockDB, mockDB)
		results, err := BFS(context.Background(), db, 1, -1)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2}, modIDs(results))
	})
}
