package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"restaurantfinder/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS restaurants (
  id TEXT PRIMARY KEY,
  position INTEGER NOT NULL,
  name TEXT NOT NULL,
  chef TEXT NOT NULL DEFAULT '',
  address TEXT NOT NULL DEFAULT '',
  city TEXT NOT NULL DEFAULT '',
  state TEXT NOT NULL DEFAULT '',
  stateName TEXT NOT NULL DEFAULT '',
  lat REAL,
  lng REAL,
  cuisine TEXT NOT NULL DEFAULT '',
  priceRange TEXT NOT NULL DEFAULT '',
  source TEXT NOT NULL,
  url TEXT NOT NULL DEFAULT '',
  awardsJson TEXT NOT NULL,
  hasMichelin INTEGER NOT NULL DEFAULT 0,
  hasJamesBeard INTEGER NOT NULL DEFAULT 0,
  michelinStars TEXT,
  isBibGourmand INTEGER NOT NULL DEFAULT 0,
  jamesBeardStatus TEXT
);
CREATE INDEX IF NOT EXISTS idx_restaurants_position ON restaurants(position);
CREATE INDEX IF NOT EXISTS idx_restaurants_state ON restaurants(state);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  kind TEXT NOT NULL,
  timingsJson TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS geocode_cache (
  query TEXT PRIMARY KEY,
  lat REAL NOT NULL,
  lng REAL NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// ReplaceRestaurants swaps the whole dataset in one transaction. Slice order
// is kept in the position column.
func (d *DB) ReplaceRestaurants(restaurants []internal.FinalRestaurant) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM restaurants`); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
INSERT INTO restaurants (
  id, position, name, chef, address, city, state, stateName, lat, lng,
  cuisine, priceRange, source, url, awardsJson,
  hasMichelin, hasJamesBeard, michelinStars, isBibGourmand, jamesBeardStatus
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range restaurants {
		awardsJSON, err := json.Marshal(r.Awards)
		if err != nil {
			return fmt.Errorf("encode awards for %s: %w", r.ID, err)
		}
		if _, err := stmt.Exec(
			r.ID, i, r.Name, r.Chef, r.Address, r.City, r.State, r.StateName, r.Lat, r.Lng,
			r.Cuisine, r.PriceRange, string(r.Source), r.URL, string(awardsJSON),
			r.HasMichelin, r.HasJamesBeard, r.MichelinStars, r.IsBibGourmand, r.JamesBeardStatus,
		); err != nil {
			return fmt.Errorf("insert restaurant %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

func (d *DB) ListRestaurants() ([]internal.FinalRestaurant, error) {
	rows, err := d.conn.Query(`
SELECT id, name, chef, address, city, state, stateName, lat, lng,
       cuisine, priceRange, source, url, awardsJson,
       hasMichelin, hasJamesBeard, michelinStars, isBibGourmand, jamesBeardStatus
FROM restaurants ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.FinalRestaurant
	for rows.Next() {
		var r internal.FinalRestaurant
		var source, awardsJSON string
		if err := rows.Scan(
			&r.ID, &r.Name, &r.Chef, &r.Address, &r.City, &r.State, &r.StateName, &r.Lat, &r.Lng,
			&r.Cuisine, &r.PriceRange, &source, &r.URL, &awardsJSON,
			&r.HasMichelin, &r.HasJamesBeard, &r.MichelinStars, &r.IsBibGourmand, &r.JamesBeardStatus,
		); err != nil {
			return nil, err
		}
		r.Source = internal.Source(source)
		if err := json.Unmarshal([]byte(awardsJSON), &r.Awards); err != nil {
			return nil, fmt.Errorf("decode awards for %s: %w", r.ID, err)
		}
		out = append(out, r)
	}

	return out, rows.Err()
}

func (d *DB) CountRestaurants() (int, error) {
	var n int
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM restaurants`).Scan(&n)
	return n, err
}

func (d *DB) InsertRun(traceID, kind string, timings map[string]float64, counts map[string]int) error {
	timingsJSON, _ := json.Marshal(timings)
	countsJSON, _ := json.Marshal(counts)
	_, err := d.conn.Exec(`INSERT INTO runs (traceId, kind, timingsJson, countsJson) VALUES (?, ?, ?, ?)`, traceID, kind, string(timingsJSON), string(countsJSON))
	return err
}

func (d *DB) LatestRun(kind string) (*internal.RunRow, error) {
	var row internal.RunRow
	var timingsJSON, countsJSON string
	err := d.conn.QueryRow(`
SELECT id, traceId, kind, timingsJson, countsJson, createdAt
FROM runs WHERE kind = ? ORDER BY id DESC LIMIT 1
`, kind).Scan(&row.ID, &row.TraceID, &row.Kind, &timingsJSON, &countsJSON, &row.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(timingsJSON), &row.Timings)
	_ = json.Unmarshal([]byte(countsJSON), &row.Counts)
	return &row, nil
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func (d *DB) GetGeocode(query string) (*internal.Coordinates, error) {
	var c internal.Coordinates
	err := d.conn.QueryRow(`SELECT lat, lng FROM geocode_cache WHERE query = ?`, query).Scan(&c.Lat, &c.Lng)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (d *DB) PutGeocode(query string, c internal.Coordinates) error {
	_, err := d.conn.Exec(`
INSERT INTO geocode_cache (query, lat, lng) VALUES (?, ?, ?)
ON CONFLICT(query) DO UPDATE SET lat = excluded.lat, lng = excluded.lng, createdAt = CURRENT_TIMESTAMP
`, query, c.Lat, c.Lng)
	return err
}
