package main

import (
	"time"
)

// CachedImage is one row of the image_cache table. (query, Rank) is unique;
// ranks for a query are always a contiguous 0..n-1 set written in one
// transaction.
type CachedImage struct {
	Query           string
	Rank            int
	URL             string
	Photographer    string
	PhotographerURL string
	CachedAt        time.Time
}

// LookupImages returns up to count cached images for query, ordered by rank.
// It never fails: any read error is logged and reported as a miss.
func (store *Store) LookupImages(query string, count int) []CachedImage {
	rows, err := store.db.Query(
		`SELECT query, image_index, image_url, photographer, photographer_url, cached_at
		 FROM image_cache WHERE query = ? ORDER BY image_index LIMIT ?`,
		query, count,
	)
	if err != nil {
		store.log.Println("Image cache lookup failed", err.Error())
		return nil
	}
	defer rows.Close()

	var cached []CachedImage
	for rows.Next() {
		var img CachedImage
		if err := rows.Scan(&img.Query, &img.Rank, &img.URL,
			&img.Photographer, &img.PhotographerURL, &img.CachedAt); err != nil {
			store.log.Println("Image cache scan failed", err.Error())
			return nil
		}
		cached = append(cached, img)
	}
	if err := rows.Err(); err != nil {
		store.log.Println("Image cache lookup failed", err.Error())
		return nil
	}
	return cached
}

// ReplaceImages swaps the whole cached set for query in a single transaction:
// delete all existing ranks, insert the new sequence as ranks 0..n-1. On any
// failure the transaction is rolled back and the previous generation survives;
// the error is returned so the caller can log it, never as a fatal fault.
func (store *Store) ReplaceImages(query string, images []ResolvedImage) error {
	tx, err := store.db.Begin()
	if err != nil {
		return err
	}

	if _, err := tx.Exec("DELETE FROM image_cache WHERE query = ?", query); err != nil {
		tx.Rollback()
		return err
	}
	for idx, img := range images {
		_, err := tx.Exec(
			`INSERT INTO image_cache (query, image_index, image_url, photographer, photographer_url)
			 VALUES (?, ?, ?, ?, ?)`,
			query, idx, img.URL, img.Photographer, img.PhotographerURL,
		)
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
