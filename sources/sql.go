package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

const schema = `CREATE TABLE IF NOT EXISTS items (
	id VARCHAR(64) PRIMARY KEY,
	title TEXT NOT NULL,
	slug VARCHAR(255) NOT NULL,
	description TEXT NOT NULL,
	category VARCHAR(64) NOT NULL,
	subcategory VARCHAR(64) NOT NULL,
	subdivision VARCHAR(64) NOT NULL,
	status VARCHAR(32) NOT NULL,
	rating DOUBLE PRECISION NOT NULL,
	updated_unix BIGINT NOT NULL,
	title_normalized TEXT NOT NULL,
	description_normalized TEXT NOT NULL,
	coverage TEXT NOT NULL,
	coverage_normalized TEXT NOT NULL
)`

const itemColumns = `id, title, slug, description, category, subcategory, subdivision, status,
	rating, updated_unix, title_normalized, description_normalized, coverage, coverage_normalized`

// itemRow is the flat database shape of an Item.
type itemRow struct {
	ID                    string  `db:"id"`
	Title                 string  `db:"title"`
	Slug                  string  `db:"slug"`
	Description           string  `db:"description"`
	Category              string  `db:"category"`
	Subcategory           string  `db:"subcategory"`
	Subdivision           string  `db:"subdivision"`
	Status                string  `db:"status"`
	Rating                float64 `db:"rating"`
	UpdatedUnix           int64   `db:"updated_unix"`
	TitleNormalized       string  `db:"title_normalized"`
	DescriptionNormalized string  `db:"description_normalized"`
	Coverage              string  `db:"coverage"`
	CoverageNormalized    string  `db:"coverage_normalized"`
}

func rowFromItem(it Item) (itemRow, error) {
	coverage, err := json.Marshal(it.Provider.Coverage)
	if err != nil {
		return itemRow{}, fmt.Errorf("encode coverage: %w", err)
	}
	return itemRow{
		ID:                    it.ID,
		Title:                 it.Title,
		Slug:                  it.Slug,
		Description:           it.Description,
		Category:              it.Category,
		Subcategory:           it.Subcategory,
		Subdivision:           it.Subdivision,
		Status:                it.Status,
		Rating:                it.Rating,
		UpdatedUnix:           it.UpdatedAt.Unix(),
		TitleNormalized:       it.TitleNormalized,
		DescriptionNormalized: it.DescriptionNormalized,
		Coverage:              string(coverage),
		CoverageNormalized:    it.Provider.CoverageNormalized,
	}, nil
}

func (r itemRow) item() (Item, error) {
	var coverage Coverage
	if r.Coverage != "" {
		if err := json.Unmarshal([]byte(r.Coverage), &coverage); err != nil {
			return Item{}, fmt.Errorf("decode coverage of %s: %w", r.ID, err)
		}
	}
	return Item{
		ID:                    r.ID,
		Title:                 r.Title,
		Slug:                  r.Slug,
		Description:           r.Description,
		Category:              r.Category,
		Subcategory:           r.Subcategory,
		Subdivision:           r.Subdivision,
		Status:                r.Status,
		Rating:                r.Rating,
		UpdatedAt:             time.Unix(r.UpdatedUnix, 0).UTC(),
		TitleNormalized:       r.TitleNormalized,
		DescriptionNormalized: r.DescriptionNormalized,
		Provider: Provider{
			Coverage:           coverage,
			CoverageNormalized: r.CoverageNormalized,
		},
	}, nil
}

// SQLStore reads items from a relational table through sqlx. It works with
// the sqlite, mysql and pgx drivers.
type SQLStore struct {
	db     *sqlx.DB
	logger *slog.Logger
	search string
}

var _ ItemStore = (*SQLStore)(nil)

// OpenSQL opens driver/dsn. The driver must already be registered.
func OpenSQL(driver, dsn string, logger *slog.Logger) (*SQLStore, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	return NewSQLStore(db, logger), nil
}

// NewSQLStore wraps an open handle.
func NewSQLStore(db *sqlx.DB, logger *slog.Logger) *SQLStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLStore{
		db:     db,
		logger: logger,
		search: db.Rebind(searchQuery(db.DriverName())),
	}
}

func searchQuery(driver string) string {
	// Postgres has no INSTR.
	find := "INSTR(%s, ?) > 0"
	if sqlx.BindType(driver) == sqlx.DOLLAR {
		find = "STRPOS(%s, ?) > 0"
	}
	return `SELECT ` + itemColumns + ` FROM items
	WHERE status = ? AND (` +
		fmt.Sprintf(find, "title_normalized") + ` OR ` +
		fmt.Sprintf(find, "description_normalized") + ` OR ` +
		fmt.Sprintf(find, "coverage_normalized") + `)
	ORDER BY rating DESC, updated_unix DESC
	LIMIT ?`
}

// DB exposes the underlying handle.
func (s *SQLStore) DB() *sqlx.DB {
	return s.db
}

// Close releases the handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the items table when missing.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create items table: %w", err)
	}
	return nil
}

// Upsert writes items, deriving their normalized columns.
func (s *SQLStore) Upsert(ctx context.Context, items ...Item) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	del := tx.Rebind(`DELETE FROM items WHERE id = ?`)
	for _, it := range items {
		row, err := rowFromItem(it.Normalized())
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, del, row.ID); err != nil {
			return fmt.Errorf("replace %s: %w", row.ID, err)
		}
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO items (`+itemColumns+`) VALUES (
			:id, :title, :slug, :description, :category, :subcategory, :subdivision, :status,
			:rating, :updated_unix, :title_normalized, :description_normalized, :coverage, :coverage_normalized)`, row); err != nil {
			return fmt.Errorf("insert %s: %w", row.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("items upserted", "count", len(items))
	return nil
}

func (s *SQLStore) SearchItems(ctx context.Context, term string, limit int) ([]Item, error) {
	if limit <= 0 {
		limit = FetchWindow
	}
	var rows []itemRow
	if err := s.db.SelectContext(ctx, &rows, s.search, StatusPublished, term, term, term, limit); err != nil {
		return nil, fmt.Errorf("%w: search items: %w", ErrStoreUnavailable, err)
	}

	items := make([]Item, 0, len(rows))
	for _, r := range rows {
		it, err := r.item()
		if err != nil {
			s.logger.Warn("skipping item with unreadable coverage", "id", r.ID, "err", err)
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

func (s *SQLStore) UsedTaxonomy(ctx context.Context) (TaxonomyRefs, error) {
	var rows []struct {
		Subcategory string `db:"subcategory"`
		Subdivision string `db:"subdivision"`
	}
	query := s.db.Rebind(`SELECT DISTINCT subcategory, subdivision FROM items WHERE status = ?`)
	if err := s.db.SelectContext(ctx, &rows, query, StatusPublished); err != nil {
		return TaxonomyRefs{}, fmt.Errorf("%w: used taxonomy: %w", ErrStoreUnavailable, err)
	}

	subs := make(map[string]struct{})
	divs := make(map[string]struct{})
	for _, r := range rows {
		if r.Subcategory != "" {
			subs[r.Subcategory] = struct{}{}
		}
		if r.Subdivision != "" {
			divs[r.Subdivision] = struct{}{}
		}
	}
	return TaxonomyRefs{
		Subcategories: sortedKeys(subs),
		Subdivisions:  sortedKeys(divs),
	}, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}
