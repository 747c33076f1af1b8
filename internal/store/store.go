// Package store persists the emission-factor library, the GHG scope
// taxonomy, and saved analysis runs in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/oklog/ulid/v2"
	gocache "github.com/patrickmn/go-cache"
	_ "modernc.org/sqlite"

	"github.com/rshade/carbonledger/internal/engine"
	"github.com/rshade/carbonledger/internal/factors"
)

const (
	// ErrRunNotFound indicates a LoadRun id with no saved run.
	ErrRunNotFound = constError("analysis run not found")
)

type constError string

func (e constError) Error() string { return string(e) }

// Cache lifetimes for resolved factor sets.
const (
	factorCacheTTL     = 5 * time.Minute
	factorCacheCleanup = 10 * time.Minute
)

// Store wraps the SQLite database. Safe for concurrent use; resolved
// factor sets are TTL-cached and flushed on any library mutation.
type Store struct {
	db      *sql.DB
	cache   *gocache.Cache
	aliases engine.ScopeAliases
}

// Open opens (creating if needed) the database at path and applies
// migrations, including seeding the scope-category taxonomy.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:      db,
		cache:   gocache.New(factorCacheTTL, factorCacheCleanup),
		aliases: engine.DefaultScopeAliases(),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	for _, ddl := range []string{createFactorLibrary, createScopeCategories, createAnalysisRuns} {
		if _, err := s.db.Exec(ddl); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return s.seedScopeCategories()
}

func (s *Store) seedScopeCategories() error {
	now := nowISO()
	for _, c := range defaultScopeCategories {
		_, err := s.db.Exec(`
INSERT INTO scope_categories (scope, category_code, category_name, description, source, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(scope, category_code)
DO UPDATE SET category_name = excluded.category_name,
              description = excluded.description,
              source = excluded.source,
              updated_at = excluded.updated_at`,
			c.Scope, c.Code, c.Name, c.Description, seedCategorySource, now, now)
		if err != nil {
			return fmt.Errorf("seeding scope categories: %w", err)
		}
	}
	return nil
}

// UpsertFactor inserts or updates one factor and returns its id.
// A zero record id triggers natural-key matching on (activity, unit,
// scope, region, year, source, version); nothing is ever mutated
// implicitly by a mere key collision on (activity, unit) alone.
func (s *Store) UpsertFactor(ctx context.Context, record factors.Record) (int64, error) {
	activity := factors.NormalizeKey(record.Activity)
	unit := factors.NormalizeKey(record.Unit)
	if activity == "" || unit == "" {
		return 0, fmt.Errorf("activity and unit are required for factor records")
	}
	if record.EmissionFactor <= 0 {
		return 0, fmt.Errorf("emission factor must be positive for %q", record.Activity)
	}

	scope := s.aliases.Normalize(record.Scope)
	scopeCategory := normalizeCategoryCode(record.ScopeCategory)
	region := factors.NormalizeKey(record.Region)
	if region == "" {
		region = factors.GlobalRegion
	}
	source := strings.TrimSpace(record.Source)
	if source == "" {
		source = "unspecified"
	}
	version := strings.TrimSpace(record.Version)
	if version == "" {
		version = "v1"
	}
	now := nowISO()

	defer s.cache.Flush()

	id := record.ID
	if id == 0 {
		row := s.db.QueryRowContext(ctx, `
SELECT id FROM factor_library
WHERE activity = ? AND unit = ?
  AND COALESCE(scope, '') = ?
  AND COALESCE(region, 'global') = ?
  AND COALESCE(year, -1) = ?
  AND COALESCE(source, '') = ?
  AND COALESCE(version, '') = ?
LIMIT 1`,
			activity, unit, scope, region, yearOr(record.Year, -1), source, version)
		switch err := row.Scan(&id); err {
		case nil, sql.ErrNoRows:
		default:
			return 0, fmt.Errorf("matching factor natural key: %w", err)
		}
	}

	if id == 0 {
		result, err := s.db.ExecContext(ctx, `
INSERT INTO factor_library
(activity, unit, emission_factor, scope, scope_category, region, year, source, version, active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			activity, unit, record.EmissionFactor, scope, scopeCategory, region,
			nullableYear(record.Year), source, version, boolToInt(record.Active), now, now)
		if err != nil {
			return 0, fmt.Errorf("inserting factor: %w", err)
		}
		return result.LastInsertId()
	}

	_, err := s.db.ExecContext(ctx, `
UPDATE factor_library
SET activity = ?, unit = ?, emission_factor = ?, scope = ?, scope_category = ?,
    region = ?, year = ?, source = ?, version = ?, active = ?, updated_at = ?
WHERE id = ?`,
		activity, unit, record.EmissionFactor, scope, scopeCategory, region,
		nullableYear(record.Year), source, version, boolToInt(record.Active), now, id)
	if err != nil {
		return 0, fmt.Errorf("updating factor %d: %w", id, err)
	}
	return id, nil
}

// DeleteFactor permanently removes a factor by id.
func (s *Store) DeleteFactor(ctx context.Context, id int64) error {
	defer s.cache.Flush()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM factor_library WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting factor %d: %w", id, err)
	}
	return nil
}

// ListFactors returns the library ordered by activity, unit, year.
func (s *Store) ListFactors(ctx context.Context, activeOnly bool) ([]factors.Record, error) {
	query := `SELECT ` + factorColumns + ` FROM factor_library`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY activity, unit, year`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing factors: %w", err)
	}
	defer rows.Close()
	return scanFactors(rows)
}

// ListScopeCategories returns the taxonomy ordered by scope and code.
func (s *Store) ListScopeCategories(ctx context.Context) ([]ScopeCategory, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT scope, category_code, category_name, COALESCE(description, ''), COALESCE(source, '')
FROM scope_categories
ORDER BY scope, category_code`)
	if err != nil {
		return nil, fmt.Errorf("listing scope categories: %w", err)
	}
	defer rows.Close()

	var categories []ScopeCategory
	for rows.Next() {
		var c ScopeCategory
		if err := rows.Scan(&c.Scope, &c.Code, &c.Name, &c.Description, &c.Source); err != nil {
			return nil, fmt.Errorf("scanning scope category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// FactorsForCalculation returns the active factors that qualify for
// region and year, deduplicated to one record per (activity, unit).
// Results are cached until the library changes or the TTL lapses.
func (s *Store) FactorsForCalculation(ctx context.Context, region string, year *int) ([]factors.Record, error) {
	key := fmt.Sprintf("region=%s|year=%d", factors.NormalizeKey(region), yearOr(year, 0))
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]factors.Record), nil
	}

	query := `SELECT ` + factorColumns + ` FROM factor_library WHERE active = 1`
	var params []any
	if region != "" {
		query += ` AND (region = ? OR region = 'global')`
		params = append(params, factors.NormalizeKey(region))
	}
	if year != nil {
		query += ` AND (year = ? OR year IS NULL)`
		params = append(params, *year)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("querying calculation factors: %w", err)
	}
	defer rows.Close()

	records, err := scanFactors(rows)
	if err != nil {
		return nil, err
	}
	deduped := factors.Dedupe(records)
	s.cache.SetDefault(key, deduped)
	return deduped, nil
}

// Run is one saved analysis with its JSON payload.
type Run struct {
	ID        string          `json:"id"`
	Name      string          `json:"run_name"`
	Type      string          `json:"run_type"`
	Timestamp time.Time       `json:"run_timestamp"`
	TotalCO2e *float64        `json:"total_co2e"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// SaveRun persists an analysis payload and returns its ulid id. Empty
// names and types fall back to "Unnamed Run" and "general".
func (s *Store) SaveRun(ctx context.Context, name, runType string, payload, metadata any, totalCO2e *float64) (string, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding run payload: %w", err)
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("encoding run metadata: %w", err)
	}

	if name = strings.TrimSpace(name); name == "" {
		name = "Unnamed Run"
	}
	if runType = strings.TrimSpace(runType); runType == "" {
		runType = "general"
	}

	id := ulid.Make().String()
	_, err = s.db.ExecContext(ctx, `
INSERT INTO analysis_runs (id, run_name, run_type, run_timestamp, total_co2e, payload_json, metadata_json)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, name, runType, nowISO(), nullableFloat(totalCO2e), string(payloadJSON), string(metadataJSON))
	if err != nil {
		return "", fmt.Errorf("saving run: %w", err)
	}
	return id, nil
}

// ListRuns returns the most recent runs, newest first, without
// payloads.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, run_name, run_type, run_timestamp, total_co2e
FROM analysis_runs
ORDER BY id DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run   Run
			ts    string
			total sql.NullFloat64
		)
		if err := rows.Scan(&run.ID, &run.Name, &run.Type, &ts, &total); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.Timestamp, _ = time.Parse(time.RFC3339, ts)
		if total.Valid {
			run.TotalCO2e = &total.Float64
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LoadRun fetches one run with its payload and metadata.
func (s *Store) LoadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, run_name, run_type, run_timestamp, total_co2e, payload_json, COALESCE(metadata_json, '{}')
FROM analysis_runs WHERE id = ?`, id)

	var (
		run      Run
		ts       string
		total    sql.NullFloat64
		payload  string
		metadata string
	)
	err := row.Scan(&run.ID, &run.Name, &run.Type, &ts, &total, &payload, &metadata)
	if err == sql.ErrNoRows {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("loading run %s: %w", id, err)
	}
	run.Timestamp, _ = time.Parse(time.RFC3339, ts)
	if total.Valid {
		run.TotalCO2e = &total.Float64
	}
	run.Payload = json.RawMessage(payload)
	run.Metadata = json.RawMessage(metadata)
	return run, nil
}

// RunComparison is the delta between two saved runs. DeltaPct is nil
// when the baseline total is zero or absent.
type RunComparison struct {
	RunA     Run      `json:"run_a"`
	RunB     Run      `json:"run_b"`
	Delta    float64  `json:"delta"`
	DeltaPct *float64 `json:"delta_pct"`
}

// CompareRuns loads both runs and reports B relative to A.
func (s *Store) CompareRuns(ctx context.Context, idA, idB string) (RunComparison, error) {
	runA, err := s.LoadRun(ctx, idA)
	if err != nil {
		return RunComparison{}, err
	}
	runB, err := s.LoadRun(ctx, idB)
	if err != nil {
		return RunComparison{}, err
	}

	totalA := floatOr(runA.TotalCO2e, 0)
	totalB := floatOr(runB.TotalCO2e, 0)
	comparison := RunComparison{RunA: runA, RunB: runB, Delta: totalB - totalA}
	if totalA != 0 {
		pct := comparison.Delta / totalA * 100.0
		comparison.DeltaPct = &pct
	}
	return comparison, nil
}

const factorColumns = `id, activity, unit, emission_factor,
COALESCE(scope, ''), COALESCE(scope_category, ''), COALESCE(region, 'global'),
year, COALESCE(source, ''), COALESCE(version, ''), active, created_at, updated_at`

func scanFactors(rows *sql.Rows) ([]factors.Record, error) {
	var records []factors.Record
	for rows.Next() {
		var (
			r       factors.Record
			year    sql.NullInt64
			active  int
			created string
			updated string
		)
		err := rows.Scan(&r.ID, &r.Activity, &r.Unit, &r.EmissionFactor,
			&r.Scope, &r.ScopeCategory, &r.Region,
			&year, &r.Source, &r.Version, &active, &created, &updated)
		if err != nil {
			return nil, fmt.Errorf("scanning factor: %w", err)
		}
		if year.Valid {
			y := int(year.Int64)
			r.Year = &y
		}
		r.Active = active != 0
		r.CreatedAt, _ = time.Parse(time.RFC3339, created)
		r.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
		records = append(records, r)
	}
	return records, rows.Err()
}

func normalizeCategoryCode(raw string) string {
	return strings.ReplaceAll(factors.NormalizeKey(raw), " ", "_")
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func yearOr(year *int, fallback int) int {
	if year == nil {
		return fallback
	}
	return *year
}

func nullableYear(year *int) any {
	if year == nil {
		return nil
	}
	return *year
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func floatOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
