package retrieval

import "github.com/siherrmann/modmuse/model"

// mergeCandidates concatenates semantic and keyword results and removes
// duplicates by mod id, keeping the first (semantic) occurrence.
func mergeCandidates(semantic []*model.Mod, keyword []*model.Mod) []*model.Mod {
	seen := make(map[int64]bool, len(semantic)+len(keyword))
	merged := make([]*model.Mod, 0, len(semantic)+len(keyword))

	for _, branch := range [][]*model.Mod{semantic, keyword} {
		for _, mod := range branch {
			if seen[mod.ID] {
				continue
			}
			seen[mod.ID] = true
			merged = append(merged, mod)
		}
	}

	return merged
}

// relevanceScore counts the distinct tags of mod that are among the keywords.
// Tag matching is exact and case sensitive. Embedding distance is not part of the score.
func relevanceScore(keywords map[string]struct{}, mod *model.Mod) float64 {
	score := 0
	counted := make(map[string]bool, len(mod.Tags))
	for _, tag := range mod.Tags {
		if counted[tag.Name] {
			continue
		}
		counted[tag.Name] = true
		if _, ok := keywords[tag.Name]; ok {
			score++
		}
	}
	return float64(score)
}

// rankCandidates turns merged candidates into recommendations ranked 1..N in merge order.
func rankCandidates(promptID int64, keywords model.Keywords, candidates []*model.Mod) []*model.Recommendation {
	keywordSet := keywords.Set()

	recommendations := make([]*model.Recommendation, len(candidates))
	for i, mod := range candidates {
		recommendations[i] = &model.Recommendation{
			PromptID:       promptID,
			ModID:          mod.ID,
			Mod:            mod,
			RelevanceScore: relevanceScore(keywordSet, mod),
			RankOrder:      i + 1,
		}
	}
	return recommendations
}
