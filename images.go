package main

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
)

// ResolvedImage is the pipeline's output unit: a normalized image URL with
// its attribution.
type ResolvedImage struct {
	URL             string `json:"url"`
	Photographer    string `json:"photographer"`
	PhotographerURL string `json:"photographer_url"`
}

// ImageSearcher is the external image-search dependency of the resolver.
// Implementations never fail; a total outage is two empty slices.
type ImageSearcher interface {
	Search(ctx context.Context, query string, target int) (raw, filtered []UnsplashPhoto)
}

// ImageResolver turns a text query into a fixed-count list of attributed
// image URLs, degrading through tiers: cached set, live search + ranking,
// static themed pools. It always terminates and never errors on external
// failures; only invalid input is a caller error.
type ImageResolver struct {
	store  *Store
	search ImageSearcher // nil when no search credential is configured
	ranker Ranker
	log    *log.Logger
}

func NewImageResolver(store *Store, search ImageSearcher, ranker Ranker) *ImageResolver {
	return &ImageResolver{
		store:  store,
		search: search,
		ranker: ranker,
		log:    log.New(os.Stderr, "(images) ", log.LstdFlags),
	}
}

// Resolve returns exactly count images for query, fewer only when the
// combined universe of cache, search and fallback pools holds fewer distinct
// URLs than count.
func (res *ImageResolver) Resolve(ctx context.Context, query string, count int) ([]ResolvedImage, error) {
	if count < 1 {
		return nil, fmt.Errorf("count must be at least 1, got %d", count)
	}
	if query == "" {
		return nil, fmt.Errorf("query must not be empty")
	}

	// Fast path: a fully cached set answers without any network call.
	cached := res.store.LookupImages(query, count)
	if len(cached) >= count {
		images := make([]ResolvedImage, count)
		for i, img := range cached[:count] {
			images[i] = ResolvedImage{
				URL:             img.URL,
				Photographer:    img.Photographer,
				PhotographerURL: img.PhotographerURL,
			}
		}
		return images, nil
	}

	if res.search == nil {
		return FallbackImages(query, count), nil
	}

	raw, filtered := res.search.Search(ctx, query, count)
	candidates := filtered
	if len(candidates) == 0 {
		// Unfiltered results still beat an outright fallback.
		candidates = raw
	}
	if len(candidates) == 0 {
		return FallbackImages(query, count), nil
	}

	ranked := res.ranker.Rank(ctx, primaryTerm(query), candidates)

	var accumulated []ResolvedImage
	usedIds := map[string]bool{}
	usedURLs := map[string]bool{}

	for _, idx := range ranked {
		if len(accumulated) >= count {
			break
		}
		// The ranking may contain invented indices; ignore them.
		if idx < 0 || idx >= len(candidates) {
			continue
		}
		photo := &candidates[idx]
		if usedIds[photo.Id] {
			continue
		}
		normalized := normalizeImageURL(photo.Urls.Regular)
		if usedURLs[normalized] {
			continue
		}
		accumulated = append(accumulated, ResolvedImage{
			URL:             normalized,
			Photographer:    photo.User.Name,
			PhotographerURL: photo.User.Links.Html,
		})
		usedIds[photo.Id] = true
		usedURLs[normalized] = true
	}

	if len(accumulated) > 0 {
		if err := res.store.ReplaceImages(query, accumulated); err != nil {
			// Previous cache generation survives; the response is unaffected.
			res.log.Println("Failed to update cache atomically, keeping previous cache intact:", err.Error())
		}
	}

	if len(accumulated) < count {
		deficit := count - len(accumulated)
		accumulated = append(accumulated, fallbackImages(query, deficit, usedURLs)...)
		res.log.Printf("Padded %d fallback images for %q", len(accumulated)-(count-deficit), query)
	}

	if len(accumulated) > count {
		accumulated = accumulated[:count]
	}
	return accumulated, nil
}

// normalizeImageURL injects the default delivery parameters (auto=format,
// q=80, w=1200) into an image URL, preserving whatever parameters are
// already present.
func normalizeImageURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	params := parsed.Query()
	if !params.Has("auto") {
		params.Set("auto", "format")
	}
	if !params.Has("q") {
		params.Set("q", "80")
	}
	if !params.Has("w") {
		params.Set("w", "1200")
	}
	parsed.RawQuery = params.Encode()
	return parsed.String()
}
