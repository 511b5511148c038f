package vtablebuild

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/funvibe/vtablec/internal/vtable"
)

// Cache stores previously computed TableImages keyed by a fingerprint of the
// input hierarchy snapshot, so a driver that rebuilds an unchanged hierarchy
// across repeated compiler invocations can skip the walk+pack entirely. This
// is not incremental update (excluded as a Non-goal): it only short-circuits
// a byte-identical rebuild, never a partial re-pack after an edit.
type Cache struct {
	db *sql.DB
}

// OpenCache opens (creating if necessary) a sqlite-backed cache at path.
func OpenCache(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening vtable build cache %q: %w", path, err)
	}
	const schema = `CREATE TABLE IF NOT EXISTS table_images (
		fingerprint TEXT PRIMARY KEY,
		image       BLOB NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing vtable build cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying sqlite connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Fingerprint hashes the raw input snapshot bytes so the caller can look up
// (or store) the resulting TableImage without re-running the build.
func Fingerprint(snapshot []byte) string {
	sum := sha256.Sum256(snapshot)
	return hex.EncodeToString(sum[:])
}

// Lookup returns a previously stored TableImage for fingerprint, if present.
func (c *Cache) Lookup(fingerprint string) (*vtable.TableImage, bool, error) {
	var blob []byte
	err := c.db.QueryRow(`SELECT image FROM table_images WHERE fingerprint = ?`, fingerprint).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("looking up vtable build cache entry %q: %w", fingerprint, err)
	}
	img, err := vtable.DeserializeTableImage(blob)
	if err != nil {
		return nil, false, fmt.Errorf("decoding cached table image %q: %w", fingerprint, err)
	}
	return img, true, nil
}

// Store persists img under fingerprint, replacing any existing entry.
func (c *Cache) Store(fingerprint string, img *vtable.TableImage) error {
	data, err := img.Serialize()
	if err != nil {
		return fmt.Errorf("serializing table image for cache: %w", err)
	}
	_, err = c.db.Exec(
		`INSERT INTO table_images (fingerprint, image) VALUES (?, ?)
		 ON CONFLICT(fingerprint) DO UPDATE SET image = excluded.image`,
		fingerprint, data,
	)
	if err != nil {
		return fmt.Errorf("storing vtable build cache entry %q: %w", fingerprint, err)
	}
	return nil
}
