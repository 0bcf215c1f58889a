package core

import (
	"database/sql"
	"errors"
	"fmt"
	"pagelab/database"
	"pagelab/logger"
	"pagelab/models"
	"strings"
)

// ErrUnsupportedFilterProp is returned for a part whose prop is not a known property.
var ErrUnsupportedFilterProp = errors.New("unsupported filter property")

// predicate is one compiled filter part. The set of implementations is closed.
type predicate interface {
	sql() (string, []interface{})
}

// fieldEquals matches a location column exactly.
type fieldEquals struct {
	column string
	value  string
}

// fieldContains matches a location column containing the value.
type fieldContains struct {
	column string
	value  string
}

// segmentAnywhere matches when any path segment equals the value.
type segmentAnywhere struct {
	value string
}

// segmentAt matches when the segment at a zero-based index equals the value.
type segmentAt struct {
	index int
	value string
}

// noPredicate is a reserved property that constrains nothing.
type noPredicate struct{}

func (p fieldEquals) sql() (string, []interface{}) {
	return "u." + p.column + " = ?", []interface{}{p.value}
}

func (p fieldContains) sql() (string, []interface{}) {
	return "instr(u." + p.column + ", ?) > 0", []interface{}{p.value}
}

func (p segmentAnywhere) sql() (string, []interface{}) {
	return "EXISTS (SELECT 1 FROM url_paths up WHERE up.url_id = u.id AND up.segment = ?)", []interface{}{p.value}
}

func (p segmentAt) sql() (string, []interface{}) {
	return "EXISTS (SELECT 1 FROM url_paths up WHERE up.url_id = u.id AND up.position = ? AND up.segment = ?)", []interface{}{p.index, p.value}
}

func (noPredicate) sql() (string, []interface{}) {
	return "", nil
}

// compilePart maps a filter part onto its predicate. Values are accepted with or
// without the delimiter the stored location field omits ("https:", "?a=b", "#top").
func compilePart(part models.URLFilterPart) (predicate, error) {
	v := part.Value
	switch part.Prop {
	case models.FilterPropProtocol:
		return fieldEquals{"protocol", strings.TrimSuffix(v, ":")}, nil
	case models.FilterPropHost:
		return fieldEquals{"host", v}, nil
	case models.FilterPropHostname:
		return fieldEquals{"hostname", v}, nil
	case models.FilterPropPort:
		return fieldEquals{"port", v}, nil
	case models.FilterPropOrigin:
		return fieldEquals{"origin", v}, nil
	case models.FilterPropHash:
		return fieldEquals{"hash", strings.TrimPrefix(v, "#")}, nil
	case models.FilterPropPathname:
		return fieldContains{"pathname", v}, nil
	case models.FilterPropSearch:
		return fieldContains{"search", strings.TrimPrefix(v, "?")}, nil
	case models.FilterPropPathSegment:
		if part.PathIndex != nil {
			return segmentAt{index: *part.PathIndex, value: v}, nil
		}
		return segmentAnywhere{value: v}, nil
	case models.FilterPropSearchKey:
		return noPredicate{}, nil
	default:
		return nil, fmt.Errorf("%w: '%s'", ErrUnsupportedFilterProp, part.Prop)
	}
}

// CompileFilter turns a filter into a URL scope. Parts are joined with AND or OR
// per the filter's mode; a filter with no constraining part matches every URL.
func CompileFilter(f models.URLFilter) (*database.URLScope, error) {
	joiner := " AND "
	if strings.EqualFold(f.Mode, models.FilterModeOr) {
		joiner = " OR "
	}
	var clauses []string
	var args []interface{}
	for _, part := range f.Parts {
		pred, err := compilePart(part)
		if err != nil {
			return nil, fmt.Errorf("compiling filter '%s': %w", f.Slug, err)
		}
		clause, partArgs := pred.sql()
		if clause == "" {
			continue
		}
		clauses = append(clauses, "("+clause+")")
		args = append(args, partArgs...)
	}
	if len(clauses) == 0 {
		return &database.URLScope{Where: "1=1"}, nil
	}
	return &database.URLScope{Where: strings.Join(clauses, joiner), Args: args}, nil
}

// GetFilterSafe returns the filter with the given slug, or nil when the slug is
// empty or unknown so callers fall back to an unscoped query.
func GetFilterSafe(slug string) *models.URLFilter {
	if slug == "" {
		return nil
	}
	f, err := database.GetFilterBySlug(slug)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Error("GetFilterSafe: Error loading filter '%s': %v", slug, err)
		}
		return nil
	}
	return &f
}

// ScopeForSlug resolves a filter slug into a URL scope; unknown slugs give a nil scope.
func ScopeForSlug(slug string) (*models.URLFilter, *database.URLScope, error) {
	f := GetFilterSafe(slug)
	if f == nil {
		return nil, nil, nil
	}
	scope, err := CompileFilter(*f)
	if err != nil {
		return f, nil, err
	}
	return f, scope, nil
}

// RunFilter returns the URLs matched by a filter, each once, ordered by address.
func RunFilter(f models.URLFilter) ([]models.URL, error) {
	scope, err := CompileFilter(f)
	if err != nil {
		return nil, err
	}
	return database.ListURLsInScope(scope)
}

// CreateFilter validates the parts of a new filter and stores it.
func CreateFilter(req models.URLFilterCreateRequest) (models.URLFilter, error) {
	f := models.URLFilter{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Mode:        strings.ToUpper(req.Mode),
	}
	if f.Mode != models.FilterModeAnd && f.Mode != models.FilterModeOr {
		return f, fmt.Errorf("invalid filter mode '%s'", req.Mode)
	}
	for _, p := range req.Parts {
		part := models.URLFilterPart{Prop: p.Prop, Key: p.Key, PathIndex: p.PathIndex, Value: p.Value}
		if _, err := compilePart(part); err != nil {
			return f, err
		}
		f.Parts = append(f.Parts, part)
	}
	created, err := database.CreateFilter(f)
	if err != nil {
		return f, err
	}
	logger.Info("CreateFilter: Created filter '%s' (%s) with %d parts", created.Name, created.Slug, len(created.Parts))
	return created, nil
}
