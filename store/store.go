/*
Package store keeps a native tileset in an SQLite database.

The whole tileset is replaced in a single transaction on every commit so a
failed import never leaves a partially written tileset behind.
*/
package store

import (
	"crypto/sha1"
	"database/sql"
	"errors"
	"fmt"
	"image/color"

	"github.com/bodgit/dtef/chunk"
	"github.com/bodgit/dtef/rules"
	"github.com/bodgit/dtef/tileset"
	_ "github.com/mattn/go-sqlite3"
)

// ErrChecksum is returned by Load when a stored chunk no longer matches its
// recorded SHA-1.
var ErrChecksum = errors.New("store: chunk checksum mismatch")

func checksum(c chunk.Chunk) string {
	return fmt.Sprintf("%X", sha1.Sum(c[:]))
}

var schema = []string{
	"CREATE TABLE IF NOT EXISTS palette (idx INTEGER PRIMARY KEY NOT NULL, r INTEGER NOT NULL, g INTEGER NOT NULL, b INTEGER NOT NULL)",
	"CREATE TABLE IF NOT EXISTS chunk (id INTEGER PRIMARY KEY NOT NULL, sha1 TEXT NOT NULL, pixels BLOB NOT NULL)",
	"CREATE TABLE IF NOT EXISTS mapping (category INTEGER NOT NULL, mask INTEGER NOT NULL, variation INTEGER NOT NULL, chunk_id INTEGER NOT NULL, PRIMARY KEY(category, mask, variation), FOREIGN KEY(chunk_id) REFERENCES chunk(id))",
	"CREATE TABLE IF NOT EXISTS extra (kind INTEGER NOT NULL, idx INTEGER NOT NULL, chunk_id INTEGER NOT NULL, PRIMARY KEY(kind, idx), FOREIGN KEY(chunk_id) REFERENCES chunk(id))",
	"CREATE TABLE IF NOT EXISTS animation_color (slot INTEGER NOT NULL, frame INTEGER NOT NULL, color INTEGER NOT NULL, rgb INTEGER NOT NULL, PRIMARY KEY(slot, frame, color))",
	"CREATE TABLE IF NOT EXISTS animation_duration (slot INTEGER NOT NULL, color INTEGER NOT NULL, duration INTEGER NOT NULL, PRIMARY KEY(slot, color))",
}

// Store is a tileset persisted in SQLite. It implements tileset.Committer.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database in file.
func Open(file string) (*Store, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	for _, s := range schema {
		if _, err = db.Exec(s); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &Store{
		db: db,
	}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func rgb(c color.Color) int64 {
	r, g, b, _ := c.RGBA()
	return int64(r>>8)<<16 | int64(g>>8)<<8 | int64(b>>8)
}

func fromRGB(v int64) color.RGBA {
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 0xff}
}

// Load returns the stored tileset. An empty database yields tileset.New().
func (s *Store) Load() (*tileset.Tileset, error) {
	ts := tileset.New()

	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM palette").Scan(&n); err != nil {
		return nil, err
	}
	if n == 0 {
		return ts, nil
	}

	if err := s.loadPalette(ts); err != nil {
		return nil, err
	}
	if err := s.loadChunks(ts); err != nil {
		return nil, err
	}
	if err := s.loadMappings(ts); err != nil {
		return nil, err
	}
	if err := s.loadAnimations(ts); err != nil {
		return nil, err
	}

	if err := ts.Validate(); err != nil {
		return nil, err
	}

	return ts, nil
}

func (s *Store) loadPalette(ts *tileset.Tileset) error {
	rows, err := s.db.Query("SELECT idx, r, g, b FROM palette ORDER BY idx")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var i int
		var r, g, b uint8
		if err := rows.Scan(&i, &r, &g, &b); err != nil {
			return err
		}
		if i < 0 || i >= len(ts.Palette) {
			return &tileset.RangeError{Name: "palette", Value: i, Limit: len(ts.Palette)}
		}
		ts.Palette[i] = color.RGBA{r, g, b, 0xff}
	}
	return rows.Err()
}

func (s *Store) loadChunks(ts *tileset.Tileset) error {
	rows, err := s.db.Query("SELECT id, sha1, pixels FROM chunk ORDER BY id")
	if err != nil {
		return err
	}
	defer rows.Close()

	ts.Chunks = ts.Chunks[:0]
	for rows.Next() {
		var id int
		var sum string
		var pixels []byte
		if err := rows.Scan(&id, &sum, &pixels); err != nil {
			return err
		}
		if id != len(ts.Chunks) {
			return fmt.Errorf("store: chunk %d is missing", len(ts.Chunks))
		}
		if len(pixels) != chunk.Pixels {
			return fmt.Errorf("store: chunk %d has %d pixels", id, len(pixels))
		}
		var c chunk.Chunk
		copy(c[:], pixels)
		if checksum(c) != sum {
			return fmt.Errorf("%w: chunk %d", ErrChecksum, id)
		}
		ts.Chunks = append(ts.Chunks, c)
	}
	return rows.Err()
}

func (s *Store) loadMappings(ts *tileset.Tileset) error {
	rows, err := s.db.Query("SELECT category, mask, variation, chunk_id FROM mapping")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var c, m, v, i int
		if err := rows.Scan(&c, &m, &v, &i); err != nil {
			return err
		}
		if m < 0 || m >= rules.NumMasks {
			return &tileset.RangeError{Name: "mask", Value: m, Limit: rules.NumMasks}
		}
		if err := ts.SetMapping(tileset.Category(c), rules.Neighbor(m), v, i); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.db.Query("SELECT kind, idx, chunk_id FROM extra ORDER BY kind, idx")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var k, n, i int
		if err := rows.Scan(&k, &n, &i); err != nil {
			return err
		}
		if err := ts.SetExtra(tileset.ExtraKind(k), n, i); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *Store) loadAnimations(ts *tileset.Tileset) error {
	rows, err := s.db.Query("SELECT slot, frame, color, rgb FROM animation_color ORDER BY slot, frame, color")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var slot, f, c int
		var v int64
		if err := rows.Scan(&slot, &f, &c, &v); err != nil {
			return err
		}
		if slot < 0 || slot >= tileset.AnimatedPalettes || c < 0 || c >= tileset.ColorsPerPalette {
			return errors.New("store: invalid animation color")
		}
		a := &ts.Animations[slot]
		if f != len(a.Frames) && f != len(a.Frames)-1 {
			return fmt.Errorf("store: animation %d frame %d is missing", slot, len(a.Frames))
		}
		if f == len(a.Frames) {
			a.Frames = append(a.Frames, [tileset.ColorsPerPalette]color.RGBA{})
		}
		a.Frames[f][c] = fromRGB(v)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.db.Query("SELECT slot, color, duration FROM animation_duration")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var slot, c, d int
		if err := rows.Scan(&slot, &c, &d); err != nil {
			return err
		}
		if slot < 0 || slot >= tileset.AnimatedPalettes || c < 0 || c >= tileset.ColorsPerPalette {
			return errors.New("store: invalid animation duration")
		}
		ts.Animations[slot].Durations[c] = d
	}
	return rows.Err()
}

// Commit replaces the stored tileset with ts. Nothing is written unless ts
// is valid.
func (s *Store) Commit(ts *tileset.Tileset) error {
	if err := ts.Validate(); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	if err := commit(tx, ts); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

func insert(tx *sql.Tx, query string, rows int, args func(int) []interface{}) error {
	stmt, err := tx.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := 0; i < rows; i++ {
		if _, err := stmt.Exec(args(i)...); err != nil {
			return err
		}
	}
	return nil
}

func commit(tx *sql.Tx, ts *tileset.Tileset) error {
	for _, table := range []string{"mapping", "extra", "chunk", "palette", "animation_color", "animation_duration"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return err
		}
	}

	if err := insert(tx, "INSERT INTO palette (idx, r, g, b) VALUES (?, ?, ?, ?)", len(ts.Palette), func(i int) []interface{} {
		v := rgb(ts.Palette[i])
		return []interface{}{i, v >> 16 & 0xff, v >> 8 & 0xff, v & 0xff}
	}); err != nil {
		return err
	}

	if err := insert(tx, "INSERT INTO chunk (id, sha1, pixels) VALUES (?, ?, ?)", len(ts.Chunks), func(i int) []interface{} {
		return []interface{}{i, checksum(ts.Chunks[i]), ts.Chunks[i][:]}
	}); err != nil {
		return err
	}

	const perCategory = rules.NumMasks * tileset.Variations
	if err := insert(tx, "INSERT INTO mapping (category, mask, variation, chunk_id) VALUES (?, ?, ?, ?)", len(tileset.Categories)*perCategory, func(i int) []interface{} {
		c, m, v := i/perCategory, i%perCategory/tileset.Variations, i%tileset.Variations
		return []interface{}{c, m, v, ts.Mappings[c][m][v]}
	}); err != nil {
		return err
	}

	for _, k := range tileset.ExtraKinds {
		if err := insert(tx, "INSERT INTO extra (kind, idx, chunk_id) VALUES (?, ?, ?)", len(ts.Extras[k]), func(i int) []interface{} {
			return []interface{}{int(k), i, ts.Extras[k][i]}
		}); err != nil {
			return err
		}
	}

	for slot, a := range ts.Animations {
		if err := insert(tx, "INSERT INTO animation_color (slot, frame, color, rgb) VALUES (?, ?, ?, ?)", len(a.Frames)*tileset.ColorsPerPalette, func(i int) []interface{} {
			f, c := i/tileset.ColorsPerPalette, i%tileset.ColorsPerPalette
			return []interface{}{slot, f, c, rgb(a.Frames[f][c])}
		}); err != nil {
			return err
		}
		if err := insert(tx, "INSERT INTO animation_duration (slot, color, duration) VALUES (?, ?, ?)", tileset.ColorsPerPalette, func(i int) []interface{} {
			return []interface{}{slot, i, a.Durations[i]}
		}); err != nil {
			return err
		}
	}

	return nil
}
