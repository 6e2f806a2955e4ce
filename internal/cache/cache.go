// Package cache persists pairwise match counts so re-running grouping over
// a large, mostly-unchanged batch skips recomputing O(n²) feature
// comparisons. Entries are keyed by content hashes of the two images, so
// renamed or reordered files still hit.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"gocv.io/x/gocv"

	_ "github.com/mattn/go-sqlite3"
)

// Store is a SQLite-backed pair-match cache. A nil *Store is valid and
// caches nothing.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open match cache: %w", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS pair_matches (
		hash_a TEXT NOT NULL,
		hash_b TEXT NOT NULL,
		detector TEXT NOT NULL,
		good_matches INTEGER NOT NULL,
		created_at TEXT,
		PRIMARY KEY (hash_a, hash_b, detector)
	);
	CREATE INDEX IF NOT EXISTS idx_pair_hash_a ON pair_matches(hash_a);`

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init match cache schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Lookup returns a cached good-match count for the image pair.
func (s *Store) Lookup(hashA, hashB, detector string) (int, bool) {
	if s == nil || s.db == nil {
		return 0, false
	}
	hashA, hashB = orderPair(hashA, hashB)

	var count int
	err := s.db.QueryRow(
		"SELECT good_matches FROM pair_matches WHERE hash_a = ? AND hash_b = ? AND detector = ?",
		hashA, hashB, detector).Scan(&count)
	if err != nil {
		return 0, false
	}
	return count, true
}

// Insert stores a good-match count for the image pair.
func (s *Store) Insert(hashA, hashB, detector string, count int) error {
	if s == nil || s.db == nil {
		return nil
	}
	hashA, hashB = orderPair(hashA, hashB)

	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO pair_matches (hash_a, hash_b, detector, good_matches, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		hashA, hashB, detector, count, time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("cache insert: %w", err)
	}
	return nil
}

// orderPair canonicalizes the key so the cache is insensitive to pair
// evaluation order.
func orderPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

// HashMat returns a content hash of a mat's dimensions and pixel bytes.
func HashMat(mat gocv.Mat) string {
	h := sha256.New()
	var dims [12]byte
	binary.LittleEndian.PutUint32(dims[0:], uint32(mat.Rows()))
	binary.LittleEndian.PutUint32(dims[4:], uint32(mat.Cols()))
	binary.LittleEndian.PutUint32(dims[8:], uint32(mat.Channels()))
	h.Write(dims[:])
	h.Write(mat.ToBytes())
	return hex.EncodeToString(h.Sum(nil))
}
