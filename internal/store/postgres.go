package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the subset of pgx used by the postgres backend.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// PostgresStore keeps each collection in a JSONB table:
//
//	CREATE TABLE profiles (seq BIGSERIAL, id TEXT PRIMARY KEY, doc JSONB NOT NULL)
//
// Filters compile to JSONB containment (doc @> $1) so the same query shape
// serves lookups and counts.
type PostgresStore struct {
	pool         *pgxpool.Pool
	profiles     *pgCollection
	certificates *pgCollection
}

// NewPostgresStore creates the collection tables and indexes if they do not
// exist and returns a store bound to pool.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	profiles := &pgCollection{db: pool, table: ProfilesCollection, unique: ProfileUniqueFields}
	certificates := &pgCollection{db: pool, table: CertificatesCollection}

	for _, c := range []*pgCollection{profiles, certificates} {
		for _, stmt := range c.bootstrapSQL() {
			if _, err := pool.Exec(ctx, stmt); err != nil {
				return nil, fmt.Errorf("bootstrap %s: %w", c.table, err)
			}
		}
	}

	return &PostgresStore{pool: pool, profiles: profiles, certificates: certificates}, nil
}

func (s *PostgresStore) Profiles() Collection     { return s.profiles }
func (s *PostgresStore) Certificates() Collection { return s.certificates }

func (s *PostgresStore) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

type pgCollection struct {
	db     DBTX
	table  string
	unique []string
}

func (c *pgCollection) bootstrapSQL() []string {
	table := quoteIdentifier(c.table)
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	seq BIGSERIAL,
	id TEXT PRIMARY KEY,
	doc JSONB NOT NULL
)`, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING GIN (doc jsonb_path_ops)`,
			quoteIdentifier(c.table+"_doc_idx"), table),
	}
	for _, field := range c.unique {
		stmts = append(stmts, fmt.Sprintf(
			`CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s ((doc->>%s))`,
			quoteIdentifier(c.table+"_"+field+"_key"), table, quoteLiteral(field),
		))
	}
	return stmts
}

func (c *pgCollection) Get(ctx context.Context, id string) (Document, error) {
	query := fmt.Sprintf("SELECT doc FROM %s WHERE id = $1", quoteIdentifier(c.table))
	return scanDocument(c.db.QueryRow(ctx, query, id))
}

func (c *pgCollection) List(ctx context.Context) ([]Document, error) {
	query := fmt.Sprintf("SELECT doc FROM %s ORDER BY seq", quoteIdentifier(c.table))
	rows, err := c.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.table, err)
	}
	defer rows.Close()

	docs := make([]Document, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan %s: %w", c.table, err)
		}
		var doc Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", c.table, err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (c *pgCollection) FindOne(ctx context.Context, filter Filter) (Document, error) {
	where, args, err := buildContainment(filter, 1)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT doc FROM %s%s ORDER BY seq LIMIT 1", quoteIdentifier(c.table), where)
	return scanDocument(c.db.QueryRow(ctx, query, args...))
}

func (c *pgCollection) Insert(ctx context.Context, id string, doc Document) error {
	withID := make(Document, len(doc)+1)
	for k, v := range doc {
		withID[k] = v
	}
	withID["id"] = id

	raw, err := json.Marshal(withID)
	if err != nil {
		return fmt.Errorf("marshal %s document: %w", c.table, err)
	}

	query := fmt.Sprintf("INSERT INTO %s (id, doc) VALUES ($1, $2)", quoteIdentifier(c.table))
	if _, err := c.db.Exec(ctx, query, id, raw); err != nil {
		return translateError(c.table, err)
	}
	return nil
}

func (c *pgCollection) Update(ctx context.Context, id string, fields Document) error {
	set := make(Document, len(fields))
	for k, v := range fields {
		if k == "id" {
			continue
		}
		set[k] = v
	}

	raw, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshal %s update: %w", c.table, err)
	}

	query := fmt.Sprintf("UPDATE %s SET doc = doc || $2 WHERE id = $1", quoteIdentifier(c.table))
	tag, err := c.db.Exec(ctx, query, id, raw)
	if err != nil {
		return translateError(c.table, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *pgCollection) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", quoteIdentifier(c.table))
	tag, err := c.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", c.table, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *pgCollection) Count(ctx context.Context, filter Filter) (int64, error) {
	where, args, err := buildContainment(filter, 1)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf("SELECT count(*) FROM %s%s", quoteIdentifier(c.table), where)

	var n int64
	if err := c.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", c.table, err)
	}
	return n, nil
}

// buildContainment returns a WHERE clause matching every filter field via
// JSONB containment. An empty filter yields no clause.
func buildContainment(filter Filter, argIndex int) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}
	raw, err := json.Marshal(filter)
	if err != nil {
		return "", nil, fmt.Errorf("marshal filter: %w", err)
	}
	return fmt.Sprintf(" WHERE doc @> $%d", argIndex), []any{raw}, nil
}

func scanDocument(row pgx.Row) (Document, error) {
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return doc, nil
}

func translateError(table string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s %s: %w", table, pgErr.ConstraintName, ErrConflict)
	}
	return fmt.Errorf("write %s: %w", table, err)
}

// quoteIdentifier safely quotes a SQL identifier to prevent injection.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return `'` + strings.ReplaceAll(s, `'`, `''`) + `'`
}
