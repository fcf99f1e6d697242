package main

import (
	"sort"
	"strings"
)

// fallbackPool is one themed set of static destination images. Pools are
// declared in priority order: scoring ties resolve to the earlier pool.
type fallbackPool struct {
	name     string
	keywords []string
	urls     []string
}

var fallbackPools = []fallbackPool{
	{
		name: "nature",
		keywords: []string{"mountain", "hill", "peak", "summit", "valley", "meadow", "forest", "woods", "jungle",
			"trail", "hike", "trekking", "nature", "wildlife", "national park", "reserve"},
		urls: []string{
			"https://images.unsplash.com/photo-1506905925346-21bda4d32df4?auto=format&q=80&w=1200",
			"https://images.unsplash.com/photo-1511593358241-7eea1f3c84e5?auto=format&q=80&w=1200",
			"https://images.unsplash.com/photo-1464822759023-fed622ff2c3b?auto=format&q=80&w=1200",
			"https://images.unsplash.com/photo-1501785888041-af3ef285b470?auto=format&q=80&w=1200",
		},
	},
	{
		name: "water",
		keywords: []string{"beach", "ocean", "sea", "bay", "gulf", "lake", "pond", "river", "stream", "waterfall",
			"falls", "coast", "shore", "island", "archipelago", "marina", "harbor"},
		urls: []string{
			"https://images.unsplash.com/photo-1507525428034-b723cf961d3e?auto=format&q=80&w=1200",
			"https://images.unsplash.com/photo-1505142468610-359e7d316be0?auto=format&q=80&w=1200",
			"https://images.unsplash.com/photo-1559827260-dc66d52bef19?auto=format&q=80&w=1200",
			"https://images.unsplash.com/photo-1544551763-46a013bb70d5?auto=format&q=80&w=1200",
		},
	},
	{
		name: "urban",
		keywords: []string{"city", "town", "skyline", "downtown", "metropolitan", "building", "architecture",
			"skyscraper", "tower", "plaza", "square", "street", "avenue", "boulevard", "urban"},
		urls: []string{
			"https://images.unsplash.com/photo-1480714378408-67cf0d13bc1b?auto=format&q=80&w=1200",
			"https://images.unsplash.com/photo-1514565131-fce0801e5785?auto=format&q=80&w=1200",
			"https://images.unsplash.com/photo-1477959858617-67f85cf4f1df?auto=format&q=80&w=1200",
			"https://images.unsplash.com/photo-1449824913935-59a10b8d2000?auto=format&q=80&w=1200",
		},
	},
	{
		name: "heritage",
		keywords: []string{"temple", "church", "mosque", "monastery", "shrine", "cathedral", "palace", "castle",
			"fort", "fortress", "monument", "memorial", "ruins", "heritage", "historical",
			"ancient", "archaeological", "unesco"},
		urls: []string{
			"https://images.unsplash.com/photo-1548013146-72479768bada?auto=format&q=80&w=1200",
			"https://images.unsplash.com/photo-1524492412937-b28074a5d7da?auto=format&q=80&w=1200",
			"https://images.unsplash.com/photo-1564507592333-c60657eea523?auto=format&q=80&w=1200",
			"https://images.unsplash.com/photo-1512428559087-560fa5ceab42?auto=format&q=80&w=1200",
		},
	},
	{
		name:     "desert",
		keywords: []string{"desert", "dune", "sand", "arid", "oasis", "sahara", "canyon", "badlands"},
		urls: []string{
			"https://images.unsplash.com/photo-1509316785289-025f5b846b35?auto=format&q=80&w=1200",
			"https://images.unsplash.com/photo-1473580044384-7ba9967e16a0?auto=format&q=80&w=1200",
			"https://images.unsplash.com/photo-1547036967-23d11aacaee0?auto=format&q=80&w=1200",
			"https://images.unsplash.com/photo-1682687220742-aba13b6e50ba?auto=format&q=80&w=1200",
		},
	},
	{
		name: "scenic",
		keywords: []string{"landscape", "scenic", "panorama", "view", "vista", "lookout", "viewpoint",
			"picturesque", "countryside", "rural"},
		urls: []string{
			"https://images.unsplash.com/photo-1469854523086-cc02fe5d8800?auto=format&q=80&w=1200",
			"https://images.unsplash.com/photo-1476514525535-07fb3b4ae5f1?auto=format&q=80&w=1200",
			"https://images.unsplash.com/photo-1530789253388-582c481c54b0?auto=format&q=80&w=1200",
			"https://images.unsplash.com/photo-1506905925346-21bda4d32df4?auto=format&q=80&w=1200",
		},
	},
}

const (
	fallbackPhotographer    = "Unsplash"
	fallbackPhotographerURL = "https://unsplash.com"
)

// FallbackImages maps a free-text query onto the themed pools and returns up
// to count images. Deterministic and network-free: two calls with the same
// arguments return identical output.
func FallbackImages(query string, count int) []ResolvedImage {
	return fallbackImages(query, count, map[string]bool{})
}

// fallbackImages is FallbackImages with an externally shared used-URL set, so
// the resolution pipeline can pad around URLs it already holds.
func fallbackImages(query string, count int, used map[string]bool) []ResolvedImage {
	queryLower := strings.ToLower(query)

	// Score every pool by keyword hits, then order best-first with
	// declaration order breaking ties.
	order := make([]int, len(fallbackPools))
	scores := make([]int, len(fallbackPools))
	for i, pool := range fallbackPools {
		order[i] = i
		for _, kw := range pool.keywords {
			if strings.Contains(queryLower, kw) {
				scores[i]++
			}
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	// All-zero scores default to the scenic pool, with the rest kept in
	// declaration order behind it.
	if scores[order[0]] == 0 {
		for pos, idx := range order {
			if fallbackPools[idx].name == "scenic" {
				copy(order[1:pos+1], order[:pos])
				order[0] = idx
				break
			}
		}
	}

	var result []ResolvedImage
	for _, idx := range order {
		for _, u := range fallbackPools[idx].urls {
			if used[u] {
				continue
			}
			result = append(result, ResolvedImage{
				URL:             u,
				Photographer:    fallbackPhotographer,
				PhotographerURL: fallbackPhotographerURL,
			})
			used[u] = true
			if len(result) >= count {
				return result
			}
		}
	}
	// Every pool exhausted; count exceeded the distinct-URL universe.
	return result
}
