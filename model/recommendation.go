package model

import "time"

// Prompt is one recommendation request as it was received and understood.
// Prompts are immutable after insert.
type Prompt struct {
	ID                int64     `json:"prompt_id"`
	UserPrompt        string    `json:"user_prompt"`
	GameID            int64     `json:"game_id"`
	CreatedAt         time.Time `json:"created_at"`
	ExtractedKeywords Keywords  `json:"extracted_keywords"`
	ModelVersion      string    `json:"model_version"`
	Embedding         []float32 `json:"-"`
}

// Recommendation is one ranked mod for a prompt.
// RankOrder is 1-based and contiguous within a prompt.
type Recommendation struct {
	ID             int64   `json:"rec_id"`
	PromptID       int64   `json:"prompt_id"`
	ModID          int64   `json:"-"`
	Mod            *Mod    `json:"mod"`
	RelevanceScore float64 `json:"relevance_score"`
	RankOrder      int     `json:"rank_order"`
}

// RecommendationResult is the outcome of one recommendation request.
type RecommendationResult struct {
	Prompt          *Prompt           `json:"prompt"`
	Recommendations []*Recommendation `json:"recommendations"`
}
