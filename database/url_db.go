package database

import (
	"database/sql"
	"errors"
	"fmt"
	"pagelab/logger"
	"pagelab/models"
	"strings"
)

// URLScope restricts a URL query with a predicate over the urls table aliased as u.
// A nil scope means every URL.
type URLScope struct {
	Where string
	Args  []interface{}
}

func (s *URLScope) clause() (string, []interface{}) {
	if s == nil || strings.TrimSpace(s.Where) == "" {
		return "", nil
	}
	return " AND (" + s.Where + ")", s.Args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

const urlSelectColumns = `u.id, u.url, u.inactive, u.sequence, u.owner_id, o.name, u.created_by, u.edited_by,
	u.protocol, u.host, u.hostname, u.port, u.pathname, u.search, u.hash, u.origin,
	u.latest_run_id, u.average_id, u.created_at, u.updated_at`

const urlSelectFrom = ` FROM urls u LEFT JOIN owners o ON o.id = u.owner_id`

func scanURL(row rowScanner) (models.URL, error) {
	var u models.URL
	var ownerID, latestRunID, averageID sql.NullInt64
	var ownerName sql.NullString
	err := row.Scan(&u.ID, &u.URL, &u.Inactive, &u.Sequence, &ownerID, &ownerName, &u.CreatedBy, &u.EditedBy,
		&u.Protocol, &u.Host, &u.Hostname, &u.Port, &u.Pathname, &u.Search, &u.Hash, &u.Origin,
		&latestRunID, &averageID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return u, err
	}
	u.OwnerID = models.NullInt64Ptr(ownerID)
	u.OwnerName = ownerName.String
	u.LatestRunID = models.NullInt64Ptr(latestRunID)
	u.AverageID = models.NullInt64Ptr(averageID)
	return u, nil
}

func collectURLs(rows *sql.Rows) ([]models.URL, error) {
	defer rows.Close()
	urls := []models.URL{}
	for rows.Next() {
		u, err := scanURL(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning url row: %w", err)
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

// GetOrCreateOwner returns the id of the owner with the given name, creating it if needed.
func GetOrCreateOwner(q Queryer, name string) (int64, error) {
	if _, err := q.Exec(`INSERT INTO owners (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name); err != nil {
		return 0, fmt.Errorf("inserting owner '%s': %w", name, err)
	}
	var id int64
	if err := q.QueryRow(`SELECT id FROM owners WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("fetching owner '%s': %w", name, err)
	}
	return id, nil
}

// CreateURL inserts a URL with its already derived location parts.
func CreateURL(q Queryer, u models.URL) (int64, error) {
	var ownerID interface{}
	if u.OwnerID != nil {
		ownerID = *u.OwnerID
	}
	res, err := q.Exec(`INSERT INTO urls (url, inactive, sequence, owner_id, created_by, edited_by,
		protocol, host, hostname, port, pathname, search, hash, origin)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.URL, u.Inactive, u.Sequence, ownerID, u.CreatedBy, u.EditedBy,
		u.Protocol, u.Host, u.Hostname, u.Port, u.Pathname, u.Search, u.Hash, u.Origin)
	if err != nil {
		return 0, fmt.Errorf("inserting url '%s': %w", u.URL, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert ID for url: %w", err)
	}
	return id, nil
}

// UpdateURLLocation changes the address of a URL and rewrites every derived location field.
func UpdateURLLocation(q Queryer, id int64, address string, loc models.Location, editedBy string) error {
	res, err := q.Exec(`UPDATE urls SET url = ?, edited_by = ?, protocol = ?, host = ?, hostname = ?, port = ?,
		pathname = ?, search = ?, hash = ?, origin = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		address, editedBy, loc.Protocol, loc.Host, loc.Hostname, loc.Port, loc.Pathname, loc.Search, loc.Hash, loc.Origin, id)
	if err != nil {
		return fmt.Errorf("updating url %d: %w", id, err)
	}
	return requireAffected(res, "url", id)
}

// ReplaceURLParts drops a URL's path segments and query pairs and stores the given ones.
func ReplaceURLParts(q Queryer, urlID int64, segments []string, pairs []models.SearchKeyVal) error {
	if _, err := q.Exec(`DELETE FROM url_paths WHERE url_id = ?`, urlID); err != nil {
		return fmt.Errorf("clearing path segments for url %d: %w", urlID, err)
	}
	if _, err := q.Exec(`DELETE FROM search_key_vals WHERE url_id = ?`, urlID); err != nil {
		return fmt.Errorf("clearing search pairs for url %d: %w", urlID, err)
	}
	for i, seg := range segments {
		if _, err := q.Exec(`INSERT INTO url_paths (url_id, position, segment) VALUES (?, ?, ?)`, urlID, i, seg); err != nil {
			return fmt.Errorf("inserting path segment %d for url %d: %w", i, urlID, err)
		}
	}
	for i, kv := range pairs {
		if _, err := q.Exec(`INSERT INTO search_key_vals (url_id, position, key, val) VALUES (?, ?, ?, ?)`, urlID, i, kv.Key, kv.Val); err != nil {
			return fmt.Errorf("inserting search pair %d for url %d: %w", i, urlID, err)
		}
	}
	return nil
}

func GetURLPathSegments(urlID int64) ([]string, error) {
	rows, err := DB.Query(`SELECT segment FROM url_paths WHERE url_id = ? ORDER BY position`, urlID)
	if err != nil {
		return nil, fmt.Errorf("querying path segments for url %d: %w", urlID, err)
	}
	defer rows.Close()
	segments := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scanning path segment: %w", err)
		}
		segments = append(segments, s)
	}
	return segments, rows.Err()
}

func GetURLSearchPairs(urlID int64) ([]models.SearchKeyVal, error) {
	rows, err := DB.Query(`SELECT key, val FROM search_key_vals WHERE url_id = ? ORDER BY position`, urlID)
	if err != nil {
		return nil, fmt.Errorf("querying search pairs for url %d: %w", urlID, err)
	}
	defer rows.Close()
	pairs := []models.SearchKeyVal{}
	for rows.Next() {
		var kv models.SearchKeyVal
		if err := rows.Scan(&kv.Key, &kv.Val); err != nil {
			return nil, fmt.Errorf("scanning search pair: %w", err)
		}
		pairs = append(pairs, kv)
	}
	return pairs, rows.Err()
}

// GetURLByID returns an error wrapping sql.ErrNoRows when the id is unknown.
func GetURLByID(q Queryer, id int64) (models.URL, error) {
	u, err := scanURL(q.QueryRow(`SELECT `+urlSelectColumns+urlSelectFrom+` WHERE u.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return u, fmt.Errorf("url with ID %d not found: %w", id, err)
		}
		return u, fmt.Errorf("querying url %d: %w", id, err)
	}
	return u, nil
}

// GetURLByAddress matches the canonical address exactly.
func GetURLByAddress(q Queryer, address string) (models.URL, error) {
	u, err := scanURL(q.QueryRow(`SELECT `+urlSelectColumns+urlSelectFrom+` WHERE u.url = ?`, address))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return u, fmt.Errorf("url '%s' not found: %w", address, err)
		}
		return u, fmt.Errorf("querying url '%s': %w", address, err)
	}
	return u, nil
}

func ListURLs(includeInactive bool) ([]models.URL, error) {
	query := `SELECT ` + urlSelectColumns + urlSelectFrom
	if !includeInactive {
		query += ` WHERE u.inactive = 0`
	}
	query += ` ORDER BY u.sequence, u.id`
	rows, err := DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("querying urls: %w", err)
	}
	return collectURLs(rows)
}

// ListURLsInScope returns the URLs matching scope, each at most once, ordered by address.
func ListURLsInScope(scope *URLScope) ([]models.URL, error) {
	where, args := scope.clause()
	rows, err := DB.Query(`SELECT `+urlSelectColumns+urlSelectFrom+` WHERE 1=1`+where+` ORDER BY u.url, u.id`, args...)
	if err != nil {
		logger.Error("ListURLsInScope: query failed: %v (where: %s)", err, where)
		return nil, fmt.Errorf("querying scoped urls: %w", err)
	}
	return collectURLs(rows)
}

func ListAllURLIDs(q Queryer) ([]int64, error) {
	rows, err := q.Query(`SELECT id FROM urls ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying url ids: %w", err)
	}
	defer rows.Close()
	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning url id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListQueue returns every active URL ordered by id, as consumed by the crawler.
func ListQueue() ([]models.QueueItem, error) {
	rows, err := DB.Query(`SELECT url, id FROM urls WHERE inactive = 0 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying active urls: %w", err)
	}
	defer rows.Close()
	items := []models.QueueItem{}
	for rows.Next() {
		var item models.QueueItem
		if err := rows.Scan(&item.URL, &item.ID); err != nil {
			return nil, fmt.Errorf("scanning queue item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// SearchURLs returns up to limit URLs whose address contains substr (case-sensitive).
func SearchURLs(substr string, limit int) ([]models.URLSearchResult, error) {
	rows, err := DB.Query(`SELECT id, url FROM urls WHERE instr(url, ?) > 0 ORDER BY id LIMIT ?`, substr, limit)
	if err != nil {
		return nil, fmt.Errorf("searching urls for '%s': %w", substr, err)
	}
	defer rows.Close()
	results := []models.URLSearchResult{}
	for rows.Next() {
		var r models.URLSearchResult
		if err := rows.Scan(&r.ID, &r.URL); err != nil {
			return nil, fmt.Errorf("scanning url search result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func SetURLInactive(id int64, inactive bool, editedBy string) error {
	res, err := DB.Exec(`UPDATE urls SET inactive = ?, edited_by = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, inactive, editedBy, id)
	if err != nil {
		return fmt.Errorf("updating inactive flag for url %d: %w", id, err)
	}
	return requireAffected(res, "url", id)
}

func SetURLLatestRun(q Queryer, urlID, runID int64) error {
	res, err := q.Exec(`UPDATE urls SET latest_run_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, runID, urlID)
	if err != nil {
		return fmt.Errorf("pointing url %d at run %d: %w", urlID, runID, err)
	}
	return requireAffected(res, "url", urlID)
}

func SetURLAverage(q Queryer, urlID, averageID int64) error {
	res, err := q.Exec(`UPDATE urls SET average_id = ? WHERE id = ?`, averageID, urlID)
	if err != nil {
		return fmt.Errorf("linking url %d to average %d: %w", urlID, averageID, err)
	}
	return requireAffected(res, "url", urlID)
}

func requireAffected(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected for %s %d: %w", what, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s with ID %d not found: %w", what, id, sql.ErrNoRows)
	}
	return nil
}
