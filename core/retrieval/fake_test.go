package retrieval

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/siherrmann/modmuse/helper"
	"github.com/siherrmann/modmuse/model"
)

// fakeStore is an in-memory implementation of all engine stores.
// RunInTx restores prompts and recommendations when the unit of work fails.
type fakeStore struct {
	mu sync.Mutex

	games           map[int64]*model.Game
	mods            []*model.Mod
	prompts         map[int64]*model.Prompt
	recommendations []*model.Recommendation
	nextID          int64

	failRecommendationRank int
	similarityErr          error
	similarityCalls        int
	tagCalls               int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		games:   map[int64]*model.Game{1: {ID: 1, Name: "Skyrim"}, 2: {ID: 2, Name: "Minecraft"}},
		prompts: map[int64]*model.Prompt{},
	}
}

func (f *fakeStore) addMod(mod *model.Mod) *model.Mod {
	f.mods = append(f.mods, mod)
	return mod
}

func (f *fakeStore) RunInTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	f.mu.Lock()
	prompts := make(map[int64]*model.Prompt, len(f.prompts))
	for k, v := range f.prompts {
		prompts[k] = v
	}
	recommendationCount := len(f.recommendations)
	f.mu.Unlock()

	err := fn(nil)
	if err != nil {
		f.mu.Lock()
		f.prompts = prompts
		f.recommendations = f.recommendations[:recommendationCount]
		f.mu.Unlock()
	}
	return err
}

func (f *fakeStore) SelectGame(ctx context.Context, id int64) (*model.Game, error) {
	game, ok := f.games[id]
	if !ok {
		return nil, helper.NewError("scan", sql.ErrNoRows)
	}
	return game, nil
}

func (f *fakeStore) SelectModsBySimilarity(ctx context.Context, gameID int64, embedding []float32, limit int) ([]*model.Mod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.similarityCalls++
	if f.similarityErr != nil {
		return nil, f.similarityErr
	}

	type scored struct {
		mod      *model.Mod
		distance float64
	}
	var candidates []scored
	for _, mod := range f.mods {
		if mod.GameID != gameID || !mod.HasEmbedding() {
			continue
		}
		candidates = append(candidates, scored{mod, cosineDistance(embedding, mod.Embedding)})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].distance == candidates[j].distance {
			return candidates[i].mod.ID < candidates[j].mod.ID
		}
		return candidates[i].distance < candidates[j].distance
	})

	mods := []*model.Mod{}
	for i := 0; i < len(candidates) && i < limit; i++ {
		mods = append(mods, candidates[i].mod)
	}
	return mods, nil
}

func (f *fakeStore) SelectModsByTagNames(ctx context.Context, gameID int64, tagNames []string) ([]*model.Mod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tagCalls++

	names := model.Keywords(tagNames).Set()
	mods := []*model.Mod{}
	for _, mod := range f.mods {
		if mod.GameID != gameID {
			continue
		}
		for _, tag := range mod.Tags {
			if _, ok := names[tag.Name]; ok {
				mods = append(mods, mod)
				break
			}
		}
	}
	sort.SliceStable(mods, func(i, j int) bool { return mods[i].ID < mods[j].ID })
	return mods, nil
}

func (f *fakeStore) SelectModsByIDs(ctx context.Context, ids []int64) ([]*model.Mod, error) {
	wanted := map[int64]bool{}
	for _, id := range ids {
		wanted[id] = true
	}
	mods := []*model.Mod{}
	for _, mod := range f.mods {
		if wanted[mod.ID] {
			mods = append(mods, mod)
		}
	}
	return mods, nil
}

func (f *fakeStore) InsertPrompt(ctx context.Context, q helper.Querier, prompt *model.Prompt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	prompt.ID = f.nextID
	stored := *prompt
	f.prompts[prompt.ID] = &stored
	return nil
}

func (f *fakeStore) SelectPrompt(ctx context.Context, id int64) (*model.Prompt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prompt, ok := f.prompts[id]
	if !ok {
		return nil, helper.NewError("scan", sql.ErrNoRows)
	}
	stored := *prompt
	return &stored, nil
}

func (f *fakeStore) InsertRecommendation(ctx context.Context, q helper.Querier, recommendation *model.Recommendation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRecommendationRank != 0 && recommendation.RankOrder == f.failRecommendationRank {
		return errors.New("connection lost")
	}
	f.nextID++
	recommendation.ID = f.nextID
	stored := *recommendation
	stored.Mod = nil
	f.recommendations = append(f.recommendations, &stored)
	return nil
}

func (f *fakeStore) SelectRecommendationsByPrompt(ctx context.Context, promptID int64) ([]*model.Recommendation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	recommendations := []*model.Recommendation{}
	for _, recommendation := range f.recommendations {
		if recommendation.PromptID == promptID {
			stored := *recommendation
			recommendations = append(recommendations, &stored)
		}
	}
	sort.Slice(recommendations, func(i, j int) bool { return recommendations[i].RankOrder < recommendations[j].RankOrder })
	return recommendations, nil
}

func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
