package core

import (
	"errors"
	"fmt"
	"net/url"
	"pagelab/database"
	"pagelab/logger"
	"pagelab/models"
	"strings"
)

// ErrInvalidAddress is returned for addresses that are not absolute http(s) URLs.
var ErrInvalidAddress = errors.New("invalid url address")

// DecomposeURL splits an absolute http(s) address into its location parts, its
// non-empty path segments and its query pairs in order.
func DecomposeURL(address string) (models.Location, []string, []models.SearchKeyVal, error) {
	var loc models.Location
	u, err := url.Parse(address)
	if err != nil {
		return loc, nil, nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if (scheme != "http" && scheme != "https") || u.Host == "" {
		return loc, nil, nil, fmt.Errorf("%w: '%s' is not an absolute http(s) URL", ErrInvalidAddress, address)
	}

	loc.Protocol = scheme
	loc.Host = u.Host
	loc.Hostname = u.Hostname()
	loc.Port = u.Port()
	loc.Pathname = u.EscapedPath()
	if loc.Pathname == "" {
		loc.Pathname = "/"
	}
	loc.Search = u.RawQuery
	loc.Hash = u.Fragment
	loc.Origin = scheme + "://" + u.Host

	segments := []string{}
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}

	pairs := []models.SearchKeyVal{}
	if u.RawQuery != "" {
		for _, kv := range strings.Split(u.RawQuery, "&") {
			if kv == "" {
				continue
			}
			key, val, _ := strings.Cut(kv, "=")
			pairs = append(pairs, models.SearchKeyVal{Key: unescapeQuery(key), Val: unescapeQuery(val)})
		}
	}
	return loc, segments, pairs, nil
}

func unescapeQuery(s string) string {
	if v, err := url.QueryUnescape(s); err == nil {
		return v
	}
	return s
}

// CreateURL registers a new tracked address. The owner is created on first use
// when ownerName is not empty.
func CreateURL(address, ownerName string, sequence int, createdBy string) (models.URL, error) {
	address = strings.TrimSpace(address)
	loc, segments, pairs, err := DecomposeURL(address)
	if err != nil {
		return models.URL{}, err
	}

	tx, err := database.DB.Begin()
	if err != nil {
		return models.URL{}, fmt.Errorf("beginning database transaction: %w", err)
	}
	defer tx.Rollback()

	u := models.URL{URL: address, Sequence: sequence, CreatedBy: createdBy, EditedBy: createdBy, Location: loc}
	if ownerName = strings.TrimSpace(ownerName); ownerName != "" {
		ownerID, err := database.GetOrCreateOwner(tx, ownerName)
		if err != nil {
			return models.URL{}, err
		}
		u.OwnerID = &ownerID
	}
	id, err := database.CreateURL(tx, u)
	if err != nil {
		return models.URL{}, err
	}
	if err := database.ReplaceURLParts(tx, id, segments, pairs); err != nil {
		return models.URL{}, err
	}
	created, err := database.GetURLByID(tx, id)
	if err != nil {
		return models.URL{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.URL{}, fmt.Errorf("committing url '%s': %w", address, err)
	}
	logger.Info("CreateURL: Created URL %d %s", created.ID, created.URL)
	return created, nil
}

// UpdateURLAddress changes a URL's address and re-derives its location parts,
// path segments and query pairs together.
func UpdateURLAddress(id int64, address, editedBy string) (models.URL, error) {
	address = strings.TrimSpace(address)
	loc, segments, pairs, err := DecomposeURL(address)
	if err != nil {
		return models.URL{}, err
	}

	tx, err := database.DB.Begin()
	if err != nil {
		return models.URL{}, fmt.Errorf("beginning database transaction: %w", err)
	}
	defer tx.Rollback()

	if err := database.UpdateURLLocation(tx, id, address, loc, editedBy); err != nil {
		return models.URL{}, err
	}
	if err := database.ReplaceURLParts(tx, id, segments, pairs); err != nil {
		return models.URL{}, err
	}
	updated, err := database.GetURLByID(tx, id)
	if err != nil {
		return models.URL{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.URL{}, fmt.Errorf("committing url %d: %w", id, err)
	}
	logger.Info("UpdateURLAddress: URL %d now %s", id, address)
	return updated, nil
}

// SetURLActive soft (de)activates a URL; inactive URLs leave the crawler queue.
func SetURLActive(id int64, active bool, editedBy string) error {
	if err := database.SetURLInactive(id, !active, editedBy); err != nil {
		return err
	}
	logger.Info("SetURLActive: URL %d active=%t", id, active)
	return nil
}
