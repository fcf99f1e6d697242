package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	llmdomain "github.com/lexlapax/go-llms/pkg/llm/domain"
	llmprovider "github.com/lexlapax/go-llms/pkg/llm/provider"
)

// Ranker orders search candidates best-first for a destination. Implementors
// must never fail: ranking is a relevance hint, not a correctness requirement.
type Ranker interface {
	Rank(ctx context.Context, destination string, candidates []UnsplashPhoto) []int
}

// rankModels are the generative model variants tried in order; the first one
// returning a valid non-empty ranking wins.
var rankModels = []string{"gemini-2.5-flash", "gemini-2.0-flash-exp"}

// GeminiRanker asks a generative model to rank candidates by destination
// relevance. With no provider configured it degrades to identity ordering
// without any network call.
type GeminiRanker struct {
	provider llmdomain.Provider
	models   []string
	log      *log.Logger
}

func NewGeminiRanker(cfg *Config) *GeminiRanker {
	r := &GeminiRanker{
		models: rankModels,
		log:    log.New(os.Stderr, "(ranker) ", log.LstdFlags),
	}
	if cfg.GeminiConfigured() {
		r.provider = llmprovider.NewGeminiProvider(cfg.GeminiAPIKey, rankModels[0])
	} else {
		r.log.Println("Generative ranking disabled, using original order")
	}
	return r
}

type candidateSummary struct {
	Index int    `json:"index"`
	Info  string `json:"info"`
}

type parsedRanking struct {
	RankedIndices []int `json:"ranked_indices"`
}

// Rank returns a best-first index ordering over candidates. Any failure on
// any model variant falls through to the next; exhausting the variants falls
// back to identity ordering.
func (r *GeminiRanker) Rank(ctx context.Context, destination string, candidates []UnsplashPhoto) []int {
	if r.provider == nil || len(candidates) == 0 {
		return identityOrder(len(candidates))
	}

	prompt, err := buildRankPrompt(destination, candidates)
	if err != nil {
		r.log.Println("Failed to build ranking prompt", err.Error())
		return identityOrder(len(candidates))
	}

	for _, model := range r.models {
		out, err := r.provider.Generate(ctx, prompt,
			llmdomain.WithModel(model),
			llmdomain.WithTemperature(0.3),
		)
		if err != nil {
			r.log.Printf("Image ranking with %s failed: %s", model, err.Error())
			continue
		}
		ranked, err := parseRanking(out)
		if err != nil {
			r.log.Printf("Image ranking with %s returned unusable output: %s", model, err.Error())
			continue
		}
		r.log.Printf("Ranked %d images for %s using %s", len(ranked), destination, model)
		return ranked
	}

	r.log.Println("Image ranking failed, using original order")
	return identityOrder(len(candidates))
}

func identityOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

// parseRanking extracts a strict-JSON ranked-index list from model output,
// tolerating a markdown code fence around the JSON body.
func parseRanking(out string) ([]int, error) {
	var parsed parsedRanking
	if err := json.Unmarshal([]byte(stripCodeFence(out)), &parsed); err != nil {
		return nil, err
	}
	if len(parsed.RankedIndices) == 0 {
		return nil, fmt.Errorf("empty ranking")
	}
	return parsed.RankedIndices, nil
}

func buildRankPrompt(destination string, candidates []UnsplashPhoto) (string, error) {
	summaries := make([]candidateSummary, len(candidates))
	for idx, img := range candidates {
		var parts []string
		if img.Description != "" {
			parts = append(parts, "Description: "+img.Description)
		}
		if img.AltDescription != "" {
			parts = append(parts, "Alt: "+img.AltDescription)
		}
		if len(img.Tags) > 0 {
			titles := make([]string, 0, 5)
			for _, tag := range img.Tags[:min(5, len(img.Tags))] {
				titles = append(titles, tag.Title)
			}
			parts = append(parts, "Tags: "+strings.Join(titles, ", "))
		}
		info := "No description"
		if len(parts) > 0 {
			info = strings.Join(parts, " | ")
		}
		summaries[idx] = candidateSummary{Index: idx, Info: info}
	}

	encoded, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`You are an expert in selecting the most representative and beautiful images for travel destinations.

Destination: %s

I have %d images to choose from. Analyze which images would best represent this destination for travelers looking for tourist information, attractions, and landmarks.

Images to evaluate:
%s

Consider:
1. Relevance to the destination's famous landmarks and attractions
2. Visual appeal and quality indicators from descriptions
3. Representation of the destination's character (heritage, nature, urban, etc.)
4. Avoiding generic or people-focused images

Return ONLY valid JSON with the indices ranked from best to worst:
{
  "ranked_indices": [index1, index2, index3, ...]
}`, destination, len(candidates), encoded), nil
}
