package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

type UnsplashPhoto struct {
	Id             string        `json:"id"`
	Urls           UnsplashUrls  `json:"urls"`
	User           UnsplashUser  `json:"user"`
	Tags           []UnsplashTag `json:"tags"`
	AltDescription string        `json:"alt_description"`
	Description    string        `json:"description"`
}

type UnsplashUrls struct {
	Regular string `json:"regular"`
}

type UnsplashUser struct {
	Name  string            `json:"name"`
	Links UnsplashUserLinks `json:"links"`
}

type UnsplashUserLinks struct {
	Html string `json:"html"`
}

type UnsplashTag struct {
	Title string `json:"title"`
}

type UnsplashSearchResult struct {
	Total   int             `json:"total"`
	Results []UnsplashPhoto `json:"results"`
}

// peopleKeywords mark queries and candidates as people-focused; the pipeline
// wants landmarks and scenery, not portraits.
var peopleKeywords = []string{"selfie", "portrait"}

const (
	unsplashPageSize = 20
	searchTimeout    = 10 * time.Second

	// defaultOverfetch stops query widening once filtered candidates reach
	// overfetch x the requested count. Inherited heuristic; tune via the
	// struct field, not here.
	defaultOverfetch = 2
)

type UnsplashApi struct {
	Http      http.Client
	accessKey string
	baseUrl   string
	overfetch int
	log       *log.Logger
}

func NewUnsplashApi(cfg *Config) *UnsplashApi {
	return &UnsplashApi{
		accessKey: cfg.UnsplashAccessKey,
		baseUrl:   "https://api.unsplash.com/search/photos",
		overfetch: defaultOverfetch,
		log:       log.New(os.Stderr, "(unsplash) ", log.LstdFlags),
	}
}

// sanitizeQuery lowercases the query and strips people-focus words and any
// token starting with the exclusion marker '-'.
func sanitizeQuery(query string) string {
	var kept []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		if strings.HasPrefix(word, "-") {
			continue
		}
		blocked := false
		for _, kw := range peopleKeywords {
			if word == kw {
				blocked = true
				break
			}
		}
		if !blocked {
			kept = append(kept, word)
		}
	}
	return strings.Join(kept, " ")
}

// primaryTerm is the first token of the sanitized query, used as the
// destination name in widened variations and in ranking prompts.
func primaryTerm(query string) string {
	sanitized := sanitizeQuery(query)
	if fields := strings.Fields(sanitized); len(fields) > 0 {
		return fields[0]
	}
	return query
}

// queryVariations builds the ordered widening sequence for a destination
// query. A literal destination search often returns too few usable
// non-portrait results, so each step trades specificity for recall.
// Consecutive duplicates are dropped, so the list holds up to 5 entries.
func queryVariations(query string) []string {
	sanitized := sanitizeQuery(query)
	words := strings.Fields(sanitized)
	name := query
	if len(words) > 0 {
		name = words[0]
	}

	hasIndia := false
	for _, w := range words {
		if w == "india" || w == "indian" {
			hasIndia = true
			break
		}
	}

	candidates := make([]string, 0, 5)
	candidates = append(candidates, sanitized)
	if len(words) > 1 {
		candidates = append(candidates, name+" landmark", name+" cityscape")
	} else {
		candidates = append(candidates, sanitized, sanitized+" city")
	}
	if hasIndia {
		candidates = append(candidates, "india rajasthan heritage", "india tourist attraction beautiful")
	} else {
		candidates = append(candidates, name+" architecture", sanitized+" travel destination")
	}

	var variations []string
	for _, c := range candidates {
		if len(variations) > 0 && variations[len(variations)-1] == c {
			continue
		}
		variations = append(variations, c)
	}
	return variations
}

// isPeopleFocused reports whether a candidate's tags, alt text or description
// match the people-focus block list.
func isPeopleFocused(photo *UnsplashPhoto) bool {
	var parts []string
	for _, tag := range photo.Tags {
		parts = append(parts, strings.ToLower(tag.Title))
	}
	parts = append(parts, strings.ToLower(photo.AltDescription), strings.ToLower(photo.Description))
	text := strings.Join(parts, " ")

	for _, kw := range peopleKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Search walks the query variations, accumulating raw and people-filtered
// candidates. A failed variation contributes zero results and the walk
// continues; the walk stops early once filtered candidates reach
// overfetch x target. Both accumulations are returned so the caller can fall
// back to raw results when filtering empties the set entirely.
func (unsp *UnsplashApi) Search(ctx context.Context, query string, target int) (raw, filtered []UnsplashPhoto) {
	variations := queryVariations(query)

	for attempt, current := range variations {
		photos, err := unsp.fetchPage(ctx, current)
		if err != nil {
			unsp.log.Printf("Search attempt %d/%d failed: %s", attempt+1, len(variations), err.Error())
			continue
		}

		for i := range photos {
			raw = append(raw, photos[i])
			if !isPeopleFocused(&photos[i]) {
				filtered = append(filtered, photos[i])
			}
		}
		unsp.log.Printf("Attempt %d/%d: query %q returned %d images, collected %d filtered / %d total",
			attempt+1, len(variations), current, len(photos), len(filtered), len(raw))

		if len(filtered) >= target*unsp.overfetch {
			break
		}
	}

	return raw, filtered
}

// fetchPage issues one bounded-timeout search request for a single query
// variation.
func (unsp *UnsplashApi) fetchPage(ctx context.Context, query string) ([]UnsplashPhoto, error) {
	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	qParam := url.Values{}
	qParam.Add("query", query)
	qParam.Add("per_page", fmt.Sprint(unsplashPageSize))
	qParam.Add("orientation", "landscape")
	qParam.Add("order_by", "relevant")
	qParam.Add("content_filter", "high")

	getReq, err := http.NewRequestWithContext(ctx, http.MethodGet, unsp.baseUrl+"?"+qParam.Encode(), nil)
	if err != nil {
		return nil, err
	}
	getReq.Header.Set("Accept-Version", "v1")
	getReq.Header.Set("Authorization", "Client-ID "+unsp.accessKey)

	res, err := unsp.Http.Do(getReq)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unsplash returned status %d", res.StatusCode)
	}

	data := UnsplashSearchResult{}
	if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
		return nil, err
	}
	return data.Results, nil
}
