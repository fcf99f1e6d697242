package main

import (
	"database/sql"
	"log"
	"os"
	"time"

	"github.com/apibillme/cache"
	_ "github.com/mattn/go-sqlite3"
)

type Store struct {
	db       *sql.DB
	log      *log.Logger
	sessions cache.Cache
	pwCache  cache.Cache
}

const usersTable string = `
  CREATE TABLE IF NOT EXISTS users (
      id INTEGER PRIMARY KEY AUTOINCREMENT,
      username TEXT UNIQUE NOT NULL,
      email TEXT UNIQUE NOT NULL,
      password TEXT NOT NULL,
      created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
  )
`

const budgetsTable string = `
  CREATE TABLE IF NOT EXISTS budgets (
      id INTEGER PRIMARY KEY AUTOINCREMENT,
      user_id INTEGER NOT NULL,
      income REAL NOT NULL,
      needs REAL NOT NULL,
      wants REAL NOT NULL,
      savings REAL NOT NULL,
      month TEXT NOT NULL,
      year INTEGER NOT NULL,
      ai_insights TEXT,
      needs_subcategories TEXT,
      wants_subcategories TEXT,
      created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
      FOREIGN KEY (user_id) REFERENCES users (id)
  )
`

const travelPlansTable string = `
  CREATE TABLE IF NOT EXISTS travel_plans (
      id INTEGER PRIMARY KEY AUTOINCREMENT,
      user_id INTEGER NOT NULL,
      start_city TEXT NOT NULL,
      destination TEXT NOT NULL,
      travel_days INTEGER NOT NULL,
      travel_month TEXT NOT NULL,
      total_budget REAL,
      monthly_savings REAL,
      status TEXT DEFAULT 'planning',
      created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
      FOREIGN KEY (user_id) REFERENCES users (id)
  )
`

const savingsGoalsTable string = `
  CREATE TABLE IF NOT EXISTS savings_goals (
      id INTEGER PRIMARY KEY AUTOINCREMENT,
      user_id INTEGER NOT NULL,
      month TEXT NOT NULL,
      year INTEGER NOT NULL,
      goal_amount REAL NOT NULL,
      achieved_amount REAL DEFAULT 0,
      milestones TEXT,
      created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
      FOREIGN KEY (user_id) REFERENCES users (id),
      UNIQUE(user_id, month, year)
  )
`

const notesTable string = `
  CREATE TABLE IF NOT EXISTS notes (
      id INTEGER PRIMARY KEY AUTOINCREMENT,
      user_id INTEGER NOT NULL,
      title TEXT NOT NULL,
      content TEXT NOT NULL,
      created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
      updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
      FOREIGN KEY (user_id) REFERENCES users (id)
  )
`

const imageCacheTable string = `
  CREATE TABLE IF NOT EXISTS image_cache (
      id INTEGER PRIMARY KEY AUTOINCREMENT,
      query TEXT NOT NULL,
      image_index INTEGER DEFAULT 0,
      image_url TEXT NOT NULL,
      photographer TEXT,
      photographer_url TEXT,
      cached_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
      UNIQUE(query, image_index)
  )
`

const dbFile string = "data/wanderwallet.db"

func NewStore(cfg *Config) *Store {
	logger := log.New(os.Stderr, "(store) ", log.LstdFlags)

	filename := dbFile
	if cfg.Database != "" {
		filename = cfg.Database
	}
	db, err := sql.Open("sqlite3", "file:"+filename+"?_fk=1")
	dbError(logger, err)

	for _, schema := range []string{
		usersTable, budgetsTable, travelPlansTable,
		savingsGoalsTable, notesTable, imageCacheTable,
	} {
		_, err = db.Exec(schema)
		dbError(logger, err)
	}

	return &Store{
		db:       db,
		log:      logger,
		sessions: cache.New(1024, cache.WithTTL(24*time.Hour)),
		pwCache:  cache.New(256, cache.WithTTL(1*time.Hour)),
	}
}

func (store *Store) Close() {
	if err := store.db.Close(); err != nil {
		store.log.Println("Error closing database", err.Error())
	}
}

func dbError(log *log.Logger, err error) {
	if err != nil {
		log.Panicln("DB Error", err.Error())
	}
}
