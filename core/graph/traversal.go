package graph

import (
	"context"

	"github.com/siherrmann/modmuse/model"
)

// ModReader loads single mods
type ModReader interface {
	SelectMod(ctx context.Context, id int64) (*model.Mod, error)
}

// DependencyReader loads the outgoing dependency edges of a mod
type DependencyReader interface {
	SelectDependenciesFromMod(ctx context.Context, modID int64) ([]*model.Dependency, error)
}

// GraphDB defines the interface for dependency graph operations
type GraphDB interface {
	ModReader
	DependencyReader
}

type graphDB struct {
	ModReader
	DependencyReader
}

// NewGraphDB combines a mod reader and a dependency reader, e.g. the mods and dependencies handlers.
func NewGraphDB(mods ModReader, dependencies DependencyReader) GraphDB {
	return &graphDB{ModReader: mods, DependencyReader: dependencies}
}

// TraversalResult contains a mod and its distance from the source
type TraversalResult struct {
	Mod      *model.Mod
	Distance int
	Path     []int64 // Path from source to this mod
}

// BFS performs breadth-first search along dependency edges starting at sourceID.
// A negative maxHops follows edges without limit. Each mod is visited once, so cycles terminate.
func BFS(ctx context.Context, db GraphDB, sourceID int64, maxHops int) ([]*TraversalResult, error) {
	sourceMod, err := db.SelectMod(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	visited := map[int64]bool{sourceID: true}
	queue := []TraversalResult{{
		Mod:      sourceMod,
		Distance: 0,
		Path:     []int64{sourceID},
	}}

	var results []*TraversalResult
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		results = append(results, &current)

		if maxHops >= 0 && current.Distance >= maxHops {
			continue
		}

		dependencies, err := db.SelectDependenciesFromMod(ctx, current.Mod.ID)
		if err != nil {
			return nil, err
		}

		for _, dependency := range dependencies {
			targetID := dependency.DependsOnModID
			if visited[targetID] {
				continue
			}

			targetMod, err := db.SelectMod(ctx, targetID)
			if err != nil {
				continue // Skip if mod not found
			}

			visited[targetID] = true

			newPath := make([]int64, len(current.Path), len(current.Path)+1)
			copy(newPath, current.Path)
			newPath = append(newPath, targetID)

			queue = append(queue, TraversalResult{
				Mod:      targetMod,
				Distance: current.Distance + 1,
				Path:     newPath,
			})
		}
	}

	return results, nil
}

// Requirements returns every mod the given mod needs, directly or transitively, nearest first.
func Requirements(ctx context.Context, db GraphDB, modID int64) ([]*model.Mod, error) {
	results, err := BFS(ctx, db, modID, -1)
	if err != nil {
		return nil, err
	}

	// Skip the source mod itself (first result)
	requirements := make([]*model.Mod, 0, len(results)-1)
	for i := 1; i < len(results); i++ {
		requirements = append(requirements, results[i].Mod)
	}

	return requirements, nil
}

// Reaches reports whether toID can be reached from fromID along dependency edges.
// Only edges are loaded, mods are never read.
func Reaches(ctx context.Context, db DependencyReader, fromID int64, toID int64) (bool, error) {
	if fromID == toID {
		return true, nil
	}

	visited := map[int64]bool{fromID: true}
	queue := []int64{fromID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		dependencies, err := db.SelectDependenciesFromMod(ctx, current)
		if err != nil {
			return false, err
		}

		for _, dependency := range dependencies {
			next := dependency.DependsOnModID
			if next == toID {
				return true, nil
			}
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	return false, nil
}
