// Package importer loads the seed CSV files into PostgreSQL in one transaction.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"reviewhub/internal/microservices/http-api/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PubDateLayout is the timestamp format of pub_date columns. Values are UTC.
const PubDateLayout = "2006-01-02T15:04:05.999999999Z"

var (
	ErrMissingColumn = errors.New("missing column")
	ErrUnknownRef    = errors.New("reference to unknown id")
)

// Querier is the subset of pgx.Tx the importer uses.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxBeginner opens the import transaction. *pgxpool.Pool satisfies it.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// FileStats counts rows seen per file.
type FileStats struct {
	File    string
	Rows    int
	Skipped bool
}

// Importer maps CSV ids to database ids while it walks the files in
// dependency order.
type Importer struct {
	logger *slog.Logger

	categories map[string]int64
	genres     map[string]int64
	users      map[string]string
	titles     map[string]int64
	reviews    map[string]int64
}

func New(logger *slog.Logger) *Importer {
	return &Importer{logger: logger}
}

type step struct {
	file string
	load func(ctx context.Context, q Querier, r record) error
}

func (im *Importer) steps() []step {
	return []step{
		{"category.csv", im.loadCategory},
		{"genre.csv", im.loadGenre},
		{"users.csv", im.loadUser},
		{"titles.csv", im.loadTitle},
		{"review.csv", im.loadReview},
		{"comments.csv", im.loadComment},
		{"genre_title.csv", im.loadGenreTitle},
	}
}

// Run imports every file found in dir inside a single transaction. Any
// failing row rolls the whole import back.
func (im *Importer) Run(ctx context.Context, db TxBeginner, dir string) ([]FileStats, error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	stats, err := im.ImportDir(ctx, tx, dir)
	if err != nil {
		return stats, err
	}
	if err := tx.Commit(ctx); err != nil {
		return stats, fmt.Errorf("commit import: %w", err)
	}
	return stats, nil
}

// ImportDir runs every step against q. Missing files are skipped.
func (im *Importer) ImportDir(ctx context.Context, q Querier, dir string) ([]FileStats, error) {
	im.categories = map[string]int64{}
	im.genres = map[string]int64{}
	im.users = map[string]string{}
	im.titles = map[string]int64{}
	im.reviews = map[string]int64{}

	stats := make([]FileStats, 0, len(im.steps()))
	for _, s := range im.steps() {
		path := filepath.Join(dir, s.file)
		f, err := os.Open(path)
		if errors.Is(err, fs.ErrNotExist) {
			im.logger.Warn("import_file_missing", "file", path)
			stats = append(stats, FileStats{File: s.file, Skipped: true})
			continue
		}
		if err != nil {
			return stats, fmt.Errorf("open %s: %w", path, err)
		}

		n, err := im.importFile(ctx, q, f, s)
		f.Close()
		if err != nil {
			return stats, fmt.Errorf("%s: %w", s.file, err)
		}
		im.logger.Info("import_file_done", "file", s.file, "rows", n)
		stats = append(stats, FileStats{File: s.file, Rows: n})
	}
	return stats, nil
}

func (im *Importer) importFile(ctx context.Context, q Querier, src io.Reader, s step) (int, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}

	n := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("line %d: %w", n+2, err)
		}
		if err := s.load(ctx, q, record{columns: columns, values: row}); err != nil {
			return n, fmt.Errorf("line %d: %w", n+2, err)
		}
		n++
	}
}

// record is one CSV row addressed by header name.
type record struct {
	columns map[string]int
	values  []string
}

func (r record) get(name string) (string, error) {
	i, ok := r.columns[name]
	if !ok || i >= len(r.values) {
		return "", fmt.Errorf("%w %q", ErrMissingColumn, name)
	}
	return r.values[i], nil
}

// optional returns "" for absent columns.
func (r record) optional(name string) string {
	v, _ := r.get(name)
	return v
}

func (r record) integer(name string) (int, error) {
	v, err := r.get(name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("column %q: %w", name, err)
	}
	return n, nil
}

func (r record) pubDate() (time.Time, error) {
	v, err := r.get("pub_date")
	if err != nil {
		return time.Time{}, err
	}
	return ParsePubDate(v)
}

// ParsePubDate parses a pub_date value as UTC.
func ParsePubDate(v string) (time.Time, error) {
	t, err := time.ParseInLocation(PubDateLayout, strings.TrimSpace(v), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("pub_date: %w", err)
	}
	return t, nil
}

func lookup[V any](m map[string]V, kind, id string) (V, error) {
	v, ok := m[strings.TrimSpace(id)]
	if !ok {
		var zero V
		return zero, fmt.Errorf("%w: %s %q", ErrUnknownRef, kind, id)
	}
	return v, nil
}

func (im *Importer) loadClassification(ctx context.Context, q Querier, r record, table string, ids map[string]int64) error {
	id, err := r.get("id")
	if err != nil {
		return err
	}
	name, err := r.get("name")
	if err != nil {
		return err
	}
	slug, err := r.get("slug")
	if err != nil {
		return err
	}

	var dbID int64
	err = q.QueryRow(ctx, `
INSERT INTO `+table+` (name, slug) VALUES ($1, $2)
ON CONFLICT (slug) DO UPDATE SET slug = EXCLUDED.slug
RETURNING id`, name, slug).Scan(&dbID)
	if err != nil {
		return fmt.Errorf("upsert %s %q: %w", table, slug, err)
	}
	ids[strings.TrimSpace(id)] = dbID
	return nil
}

func (im *Importer) loadCategory(ctx context.Context, q Querier, r record) error {
	return im.loadClassification(ctx, q, r, "categories", im.categories)
}

func (im *Importer) loadGenre(ctx context.Context, q Querier, r record) error {
	return im.loadClassification(ctx, q, r, "genres", im.genres)
}

func (im *Importer) loadUser(ctx context.Context, q Querier, r record) error {
	id, err := r.get("id")
	if err != nil {
		return err
	}
	username, err := r.get("username")
	if err != nil {
		return err
	}
	email, err := r.get("email")
	if err != nil {
		return err
	}
	role := r.optional("role")
	if role == "" {
		role = models.RoleUser
	}
	if !models.ValidRole(role) {
		return fmt.Errorf("user %q: unknown role %q", username, role)
	}
	var bio *string
	if b := r.optional("bio"); b != "" {
		bio = &b
	}

	var dbID string
	err = q.QueryRow(ctx, `
INSERT INTO users (id, username, email, first_name, last_name, bio, role, is_superuser, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, false, now(), now())
ON CONFLICT (username) DO UPDATE SET username = EXCLUDED.username
RETURNING id`,
		uuid.NewString(), username, email, r.optional("first_name"), r.optional("last_name"), bio, role,
	).Scan(&dbID)
	if err != nil {
		return fmt.Errorf("upsert user %q: %w", username, err)
	}
	im.users[strings.TrimSpace(id)] = dbID
	return nil
}

func (im *Importer) loadTitle(ctx context.Context, q Querier, r record) error {
	id, err := r.get("id")
	if err != nil {
		return err
	}
	name, err := r.get("name")
	if err != nil {
		return err
	}
	year, err := r.integer("year")
	if err != nil {
		return err
	}
	var categoryID *int64
	if ref := r.optional("category"); ref != "" {
		cid, err := lookup(im.categories, "category", ref)
		if err != nil {
			return err
		}
		categoryID = &cid
	}

	// titles have no natural key, match on every imported column
	var dbID int64
	err = q.QueryRow(ctx, `
SELECT id FROM titles
WHERE name = $1 AND year = $2 AND category_id IS NOT DISTINCT FROM $3
ORDER BY id LIMIT 1`, name, year, categoryID).Scan(&dbID)
	if errors.Is(err, pgx.ErrNoRows) {
		err = q.QueryRow(ctx, `
INSERT INTO titles (name, year, description, category_id) VALUES ($1, $2, $3, $4)
RETURNING id`, name, year, r.optional("description"), categoryID).Scan(&dbID)
	}
	if err != nil {
		return fmt.Errorf("title %q: %w", name, err)
	}
	im.titles[strings.TrimSpace(id)] = dbID
	return nil
}

func (im *Importer) loadReview(ctx context.Context, q Querier, r record) error {
	id, err := r.get("id")
	if err != nil {
		return err
	}
	titleRef, err := r.get("title_id")
	if err != nil {
		return err
	}
	titleID, err := lookup(im.titles, "title", titleRef)
	if err != nil {
		return err
	}
	authorRef, err := r.get("author")
	if err != nil {
		return err
	}
	authorID, err := lookup(im.users, "author", authorRef)
	if err != nil {
		return err
	}
	text, err := r.get("text")
	if err != nil {
		return err
	}
	score, err := r.integer("score")
	if err != nil {
		return err
	}
	pubDate, err := r.pubDate()
	if err != nil {
		return err
	}

	var dbID int64
	err = q.QueryRow(ctx, `
INSERT INTO reviews (title_id, author_id, text, score, pub_date) VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (title_id, author_id) DO UPDATE SET title_id = EXCLUDED.title_id
RETURNING id`, titleID, authorID, text, score, pubDate).Scan(&dbID)
	if err != nil {
		return fmt.Errorf("upsert review %s: %w", id, err)
	}
	im.reviews[strings.TrimSpace(id)] = dbID
	return nil
}

func (im *Importer) loadComment(ctx context.Context, q Querier, r record) error {
	reviewRef, err := r.get("review_id")
	if err != nil {
		return err
	}
	reviewID, err := lookup(im.reviews, "review", reviewRef)
	if err != nil {
		return err
	}
	authorRef, err := r.get("author")
	if err != nil {
		return err
	}
	authorID, err := lookup(im.users, "author", authorRef)
	if err != nil {
		return err
	}
	text, err := r.get("text")
	if err != nil {
		return err
	}
	pubDate, err := r.pubDate()
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx, `
INSERT INTO comments (review_id, author_id, text, pub_date)
SELECT $1::bigint, $2::uuid, $3::text, $4::timestamptz
WHERE NOT EXISTS (
  SELECT 1 FROM comments
  WHERE review_id = $1 AND author_id = $2 AND text = $3 AND pub_date = $4
)`, reviewID, authorID, text, pubDate)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (im *Importer) loadGenreTitle(ctx context.Context, q Querier, r record) error {
	titleRef, err := r.get("title_id")
	if err != nil {
		return err
	}
	titleID, err := lookup(im.titles, "title", titleRef)
	if err != nil {
		return err
	}
	genreRef, err := r.get("genre_id")
	if err != nil {
		return err
	}
	genreID, err := lookup(im.genres, "genre", genreRef)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx, `
INSERT INTO genre_titles (title_id, genre_id) VALUES ($1, $2)
ON CONFLICT (title_id, genre_id) DO NOTHING`, titleID, genreID)
	if err != nil {
		return fmt.Errorf("link title %d to genre %d: %w", titleID, genreID, err)
	}
	return nil
}
