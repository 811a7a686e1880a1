package imgarray

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // Register sqlite3 driver
)

// Cache stores previously emitted output keyed on the SHA-1 of the source
// image and the options used to convert it.
type Cache struct {
	db *sql.DB
}

// NewCache opens or creates the sqlite database in file
func NewCache(file string) (*Cache, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=5000", file))
	if err != nil {
		return nil, err
	}
	// Serialise writes from the batch workers
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS conversion (sha1 TEXT NOT NULL, options TEXT NOT NULL, output BLOB NOT NULL, PRIMARY KEY (sha1, options))"); err != nil {
		db.Close()
		return nil, err
	}

	return &Cache{
		db: db,
	}, nil
}

// Get returns the cached output, or nil if there is none
func (c *Cache) Get(sha, options string) ([]byte, error) {
	var output []byte
	switch err := c.db.QueryRow("SELECT output FROM conversion WHERE sha1 = ? AND options = ?", sha, options).Scan(&output); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		if output == nil {
			output = []byte{}
		}
		return output, nil
	default:
		return nil, err
	}
}

// Put stores output, replacing any existing entry
func (c *Cache) Put(sha, options string, output []byte) error {
	if _, err := c.db.Exec("INSERT OR REPLACE INTO conversion (sha1, options, output) VALUES (?, ?, ?)", sha, options, output); err != nil {
		return err
	}
	return nil
}

// Len returns the number of cached entries
func (c *Cache) Len() (int, error) {
	var n int
	if err := c.db.QueryRow("SELECT COUNT(*) FROM conversion").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Purge removes every entry
func (c *Cache) Purge() error {
	if _, err := c.db.Exec("DELETE FROM conversion"); err != nil {
		return err
	}
	return nil
}

// Close closes the underlying database
func (c *Cache) Close() error {
	return c.db.Close()
}
