package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func cachedSet(n int) []ResolvedImage {
	images := make([]ResolvedImage, n)
	for i := range images {
		images[i] = ResolvedImage{
			URL:             "https://images.unsplash.com/photo-" + string(rune('a'+i)),
			Photographer:    "Photographer",
			PhotographerURL: "https://unsplash.com/@photographer",
		}
	}
	return images
}

func TestLookupMissIsEmpty(t *testing.T) {
	store := testStore(t)
	assert.Empty(t, store.LookupImages("never-cached", 4))
}

func TestReplaceAndLookupPreservesOrder(t *testing.T) {
	store := testStore(t)
	images := cachedSet(4)
	assert.NoError(t, store.ReplaceImages("jaipur", images))

	cached := store.LookupImages("jaipur", 4)
	assert.Len(t, cached, 4)
	for i, img := range cached {
		assert.Equal(t, i, img.Rank)
		assert.Equal(t, images[i].URL, img.URL)
		assert.Equal(t, images[i].Photographer, img.Photographer)
	}
}

func TestLookupRespectsCount(t *testing.T) {
	store := testStore(t)
	assert.NoError(t, store.ReplaceImages("jaipur", cachedSet(6)))

	cached := store.LookupImages("jaipur", 2)
	assert.Len(t, cached, 2)
	assert.Equal(t, 0, cached[0].Rank)
	assert.Equal(t, 1, cached[1].Rank)
}

func TestReplaceSwapsWholeSet(t *testing.T) {
	store := testStore(t)
	assert.NoError(t, store.ReplaceImages("jaipur", cachedSet(5)))

	smaller := []ResolvedImage{
		{URL: "https://images.unsplash.com/photo-new", Photographer: "New", PhotographerURL: "https://unsplash.com/@new"},
	}
	assert.NoError(t, store.ReplaceImages("jaipur", smaller))

	cached := store.LookupImages("jaipur", 10)
	assert.Len(t, cached, 1, "no stale ranks from the previous generation survive")
	assert.Equal(t, "https://images.unsplash.com/photo-new", cached[0].URL)
}

func TestReplaceIsolatedPerQuery(t *testing.T) {
	store := testStore(t)
	assert.NoError(t, store.ReplaceImages("jaipur", cachedSet(3)))
	assert.NoError(t, store.ReplaceImages("goa", cachedSet(2)))

	assert.Len(t, store.LookupImages("jaipur", 10), 3)
	assert.Len(t, store.LookupImages("goa", 10), 2)

	assert.NoError(t, store.ReplaceImages("goa", nil))
	assert.Empty(t, store.LookupImages("goa", 10))
	assert.Len(t, store.LookupImages("jaipur", 10), 3, "replacing one query leaves the others untouched")
}

func TestReplaceFailureKeepsPreviousGeneration(t *testing.T) {
	store := testStore(t)
	assert.NoError(t, store.ReplaceImages("jaipur", cachedSet(3)))

	// Abort the replacement partway through the insert loop.
	_, err := store.db.Exec(`CREATE TRIGGER block_second_rank BEFORE INSERT ON image_cache
		WHEN NEW.image_index = 1
		BEGIN SELECT RAISE(ABORT, 'rank blocked'); END`)
	assert.NoError(t, err)

	assert.Error(t, store.ReplaceImages("jaipur", cachedSet(2)))

	cached := store.LookupImages("jaipur", 10)
	assert.Len(t, cached, 3, "a failed replace leaves the previous generation intact")
	for i, img := range cached {
		assert.Equal(t, i, img.Rank)
		assert.Equal(t, cachedSet(3)[i].URL, img.URL)
	}
}
