package main

import (
	"time"
)

type Note struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"-"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (store *Store) CreateNote(userID int64, title, content string) (*Note, error) {
	res, err := store.db.Exec(
		"INSERT INTO notes (user_id, title, content) VALUES (?, ?, ?)",
		userID, title, content,
	)
	if err != nil {
		return nil, err
	}
	id, _ := res.LastInsertId()
	return store.GetNote(id, userID)
}

func (store *Store) GetNote(id, userID int64) (*Note, error) {
	var note Note
	err := store.db.QueryRow(
		`SELECT id, user_id, title, content, created_at, updated_at
		 FROM notes WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(&note.ID, &note.UserID, &note.Title, &note.Content, &note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &note, nil
}

func (store *Store) ListNotes(userID int64, limit int) ([]*Note, error) {
	query := `SELECT id, user_id, title, content, created_at, updated_at
		 FROM notes WHERE user_id = ? ORDER BY updated_at DESC`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := store.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []*Note
	for rows.Next() {
		var note Note
		if err := rows.Scan(&note.ID, &note.UserID, &note.Title, &note.Content,
			&note.CreatedAt, &note.UpdatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, &note)
	}
	return notes, rows.Err()
}

func (store *Store) UpdateNote(id, userID int64, title, content string) (*Note, error) {
	_, err := store.db.Exec(
		`UPDATE notes SET title = ?, content = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ?`,
		title, content, id, userID,
	)
	if err != nil {
		return nil, err
	}
	return store.GetNote(id, userID)
}

func (store *Store) DeleteNote(id, userID int64) error {
	_, err := store.db.Exec("DELETE FROM notes WHERE id = ? AND user_id = ?", id, userID)
	return err
}
