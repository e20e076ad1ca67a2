package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/stratamem/strata/internal/model"
)

// SaveItem inserts or replaces the durable record for an item. Enum fields
// are written as their string tag, timestamps as RFC3339 UTC text so the
// columns sort chronologically.
func (db *DB) SaveItem(it model.MemoryItem) error {
	content, err := json.Marshal(it.Content)
	if err != nil {
		return fmt.Errorf("%w: save %s: marshal content: %v", model.ErrPersistence, it.ID, err)
	}

	var tags sql.NullString
	if len(it.Tags) > 0 {
		b, err := json.Marshal(it.Tags)
		if err != nil {
			return fmt.Errorf("%w: save %s: marshal tags: %v", model.ErrPersistence, it.ID, err)
		}
		tags = sql.NullString{String: string(b), Valid: true}
	}

	var meta sql.NullString
	if len(it.Metadata) > 0 {
		b, err := json.Marshal(it.Metadata)
		if err != nil {
			return fmt.Errorf("%w: save %s: marshal metadata: %v", model.ErrPersistence, it.ID, err)
		}
		meta = sql.NullString{String: string(b), Valid: true}
	}

	_, err = db.Exec(`
		INSERT INTO memory_items (id, tier, category, priority, content, tags, metadata, access_count, created_at, last_accessed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tier             = excluded.tier,
			category         = excluded.category,
			priority         = excluded.priority,
			content          = excluded.content,
			tags             = excluded.tags,
			metadata         = excluded.metadata,
			access_count     = excluded.access_count,
			last_accessed_at = excluded.last_accessed_at`,
		it.ID, string(it.Tier), string(it.Category), string(it.Priority),
		string(content), tags, meta, it.AccessCount,
		it.CreatedAt.UTC().Format(time.RFC3339),
		it.LastAccessedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("%w: save %s: %v", model.ErrPersistence, it.ID, err)
	}
	return nil
}

// DeleteItem removes the durable record for an item. Deleting an absent id
// is not an error.
func (db *DB) DeleteItem(id string) error {
	if _, err := db.Exec(`DELETE FROM memory_items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("%w: delete %s: %v", model.ErrPersistence, id, err)
	}
	return nil
}

// LoadAll returns every persisted item in creation order. A malformed row
// is logged and skipped rather than failing the whole load.
func (db *DB) LoadAll() ([]model.MemoryItem, error) {
	rows, err := db.Query(`
		SELECT id, tier, category, priority, content, tags, metadata, access_count, created_at, last_accessed_at
		FROM memory_items
		ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("%w: load all: %v", model.ErrPersistence, err)
	}
	defer rows.Close()

	var items []model.MemoryItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			log.Printf("load: skipping malformed record: %v", err)
			continue
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return items, fmt.Errorf("%w: load all: %v", model.ErrPersistence, err)
	}
	return items, nil
}

// CountItems returns the number of persisted records.
func (db *DB) CountItems() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM memory_items`).Scan(&n)
	return n, err
}

func scanItem(rows *sql.Rows) (model.MemoryItem, error) {
	var it model.MemoryItem
	var tier, category, priority, content, createdAt, lastAccessedAt string
	var tags, meta sql.NullString

	err := rows.Scan(&it.ID, &tier, &category, &priority, &content,
		&tags, &meta, &it.AccessCount, &createdAt, &lastAccessedAt)
	if err != nil {
		return it, fmt.Errorf("scan: %w", err)
	}

	if it.Tier, err = model.ParseTier(tier); err != nil {
		return it, fmt.Errorf("item %s: %w", it.ID, err)
	}
	if it.Category, err = model.ParseCategory(category); err != nil {
		return it, fmt.Errorf("item %s: %w", it.ID, err)
	}
	if it.Priority, err = model.ParsePriority(priority); err != nil {
		return it, fmt.Errorf("item %s: %w", it.ID, err)
	}
	if err := json.Unmarshal([]byte(content), &it.Content); err != nil {
		return it, fmt.Errorf("item %s: content: %w", it.ID, err)
	}
	if tags.Valid {
		if err := json.Unmarshal([]byte(tags.String), &it.Tags); err != nil {
			return it, fmt.Errorf("item %s: tags: %w", it.ID, err)
		}
	}
	if meta.Valid {
		if err := json.Unmarshal([]byte(meta.String), &it.Metadata); err != nil {
			return it, fmt.Errorf("item %s: metadata: %w", it.ID, err)
		}
	}
	if it.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return it, fmt.Errorf("item %s: created_at: %w", it.ID, err)
	}
	if it.LastAccessedAt, err = time.Parse(time.RFC3339, lastAccessedAt); err != nil {
		return it, fmt.Errorf("item %s: last_accessed_at: %w", it.ID, err)
	}

	return it, nil
}
