package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFallbackDeterministic(t *testing.T) {
	first := FallbackImages("manali mountain trek", 4)
	second := FallbackImages("manali mountain trek", 4)
	assert.Equal(t, first, second, "same query must yield identical images")
	assert.Equal(t, 4, len(first))
}

func TestFallbackThemeSelection(t *testing.T) {
	images := FallbackImages("desert canyon trip", 4)
	assert.Equal(t, 4, len(images))
	for _, img := range images {
		assert.Contains(t, fallbackPools[4].urls, img.URL, "desert pool should serve desert queries")
	}

	images = FallbackImages("goa beach holiday", 2)
	assert.Equal(t, fallbackPools[1].urls[0], images[0].URL, "water pool should serve beach queries")
}

func TestFallbackDefaultsToScenic(t *testing.T) {
	images := FallbackImages("xyzzy", 4)
	assert.Equal(t, 4, len(images))
	for _, img := range images {
		assert.Contains(t, fallbackPools[5].urls, img.URL, "unmatched query should fall back to scenic")
	}
}

func TestFallbackAttribution(t *testing.T) {
	for _, img := range FallbackImages("jaipur fort", 3) {
		assert.Equal(t, "Unsplash", img.Photographer)
		assert.Equal(t, "https://unsplash.com", img.PhotographerURL)
		assert.True(t, strings.HasPrefix(img.URL, "https://images.unsplash.com/"))
	}
}

func TestFallbackNoDuplicates(t *testing.T) {
	images := FallbackImages("city beach temple mountain desert view", 20)
	seen := map[string]bool{}
	for _, img := range images {
		assert.False(t, seen[img.URL], "duplicate url %s", img.URL)
		seen[img.URL] = true
	}
}

func TestFallbackCrossPoolPadding(t *testing.T) {
	// The desert pool holds 4 urls; asking for more must spill into the
	// next-best pools instead of stopping short.
	images := FallbackImages("desert dune safari", 6)
	assert.Equal(t, 6, len(images))
	assert.Contains(t, fallbackPools[4].urls, images[0].URL)
	assert.NotContains(t, fallbackPools[4].urls, images[5].URL)
}

func TestFallbackUniverseSmallerThanCount(t *testing.T) {
	images := FallbackImages("anywhere", 1000)
	assert.NotEmpty(t, images)
	assert.Less(t, len(images), 1000, "images are bounded by the distinct-URL universe")
	seen := map[string]bool{}
	for _, img := range images {
		assert.False(t, seen[img.URL])
		seen[img.URL] = true
	}
}

func TestFallbackSkipsUsedURLs(t *testing.T) {
	used := map[string]bool{fallbackPools[5].urls[0]: true}
	images := fallbackImages("scenic view", 2, used)
	assert.Equal(t, 2, len(images))
	for _, img := range images {
		assert.NotEqual(t, fallbackPools[5].urls[0], img.URL)
	}
}
