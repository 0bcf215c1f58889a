package database

import (
	"database/sql"
	"errors"
	"fmt"
	"pagelab/models"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var slugInvalidChars = regexp.MustCompile("[^a-z0-9]+")

// slugify creates a URL-friendly slug from a string.
func slugify(s string) string {
	slug := strings.ToLower(s)
	slug = slugInvalidChars.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return uuid.New().String()[:8] // Fallback to a short UUID if slug becomes empty
	}
	return slug
}

// CreateFilter stores a filter and its ordered parts in one transaction.
func CreateFilter(f models.URLFilter) (models.URLFilter, error) {
	var existingID int64
	err := DB.QueryRow("SELECT id FROM url_filters WHERE name = ?", f.Name).Scan(&existingID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return f, fmt.Errorf("error checking for existing filter name '%s': %w", f.Name, err)
	}
	if err == nil {
		return f, fmt.Errorf("filter with name '%s' already exists", f.Name)
	}

	f.Slug = slugify(f.Name)
	err = DB.QueryRow("SELECT id FROM url_filters WHERE slug = ?", f.Slug).Scan(&existingID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return f, fmt.Errorf("error checking for existing slug '%s': %w", f.Slug, err)
	}
	if err == nil {
		f.Slug = fmt.Sprintf("%s-%s", f.Slug, uuid.New().String()[:4])
	}
	if f.Mode == "" {
		f.Mode = models.FilterModeAnd
	}

	tx, err := DB.Begin()
	if err != nil {
		return f, fmt.Errorf("beginning database transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO url_filters (name, slug, description, mode) VALUES (?, ?, ?, ?)`, f.Name, f.Slug, f.Description, f.Mode)
	if err != nil {
		return f, fmt.Errorf("inserting filter '%s': %w", f.Name, err)
	}
	f.ID, err = res.LastInsertId()
	if err != nil {
		return f, fmt.Errorf("getting last insert ID for filter: %w", err)
	}

	partStmt, err := tx.Prepare(`INSERT INTO url_filter_parts (filter_id, position, prop, filter_key, filter_path_index, filter_val) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return f, fmt.Errorf("preparing filter part insert statement: %w", err)
	}
	defer partStmt.Close()

	for i := range f.Parts {
		p := &f.Parts[i]
		p.FilterID = f.ID
		p.Position = i
		var key, idx interface{}
		if p.Key != nil {
			key = *p.Key
		}
		if p.PathIndex != nil {
			idx = *p.PathIndex
		}
		partRes, err := partStmt.Exec(f.ID, i, p.Prop, key, idx, p.Value)
		if err != nil {
			return f, fmt.Errorf("inserting filter part %d (%s): %w", i, p.Prop, err)
		}
		if p.ID, err = partRes.LastInsertId(); err != nil {
			return f, fmt.Errorf("getting last insert ID for filter part: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return f, fmt.Errorf("committing filter '%s': %w", f.Name, err)
	}
	return GetFilterBySlug(f.Slug)
}

// GetFilterBySlug returns an error wrapping sql.ErrNoRows for an unknown slug.
func GetFilterBySlug(slug string) (models.URLFilter, error) {
	var f models.URLFilter
	err := DB.QueryRow(`SELECT id, name, slug, description, mode, created_at FROM url_filters WHERE slug = ?`, slug).
		Scan(&f.ID, &f.Name, &f.Slug, &f.Description, &f.Mode, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return f, fmt.Errorf("filter '%s' not found: %w", slug, err)
		}
		return f, fmt.Errorf("querying filter '%s': %w", slug, err)
	}
	f.Parts, err = getFilterParts(f.ID)
	return f, err
}

func ListFilters() ([]models.URLFilter, error) {
	rows, err := DB.Query(`SELECT id, name, slug, description, mode, created_at FROM url_filters ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying filters: %w", err)
	}
	filters := []models.URLFilter{}
	for rows.Next() {
		var f models.URLFilter
		if err := rows.Scan(&f.ID, &f.Name, &f.Slug, &f.Description, &f.Mode, &f.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning filter row: %w", err)
		}
		filters = append(filters, f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range filters {
		if filters[i].Parts, err = getFilterParts(filters[i].ID); err != nil {
			return nil, err
		}
	}
	return filters, nil
}

func getFilterParts(filterID int64) ([]models.URLFilterPart, error) {
	rows, err := DB.Query(`SELECT id, filter_id, position, prop, filter_key, filter_path_index, filter_val
		FROM url_filter_parts WHERE filter_id = ? ORDER BY position, id`, filterID)
	if err != nil {
		return nil, fmt.Errorf("querying parts for filter %d: %w", filterID, err)
	}
	defer rows.Close()
	parts := []models.URLFilterPart{}
	for rows.Next() {
		var p models.URLFilterPart
		var key sql.NullString
		var idx sql.NullInt64
		if err := rows.Scan(&p.ID, &p.FilterID, &p.Position, &p.Prop, &key, &idx, &p.Value); err != nil {
			return nil, fmt.Errorf("scanning filter part: %w", err)
		}
		if key.Valid {
			k := key.String
			p.Key = &k
		}
		if idx.Valid {
			i := int(idx.Int64)
			p.PathIndex = &i
		}
		parts = append(parts, p)
	}
	return parts, rows.Err()
}
