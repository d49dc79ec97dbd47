package storage

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"ByteReview/internal/domain"
	"ByteReview/internal/ports"
	"ByteReview/internal/predicate"
)

// DefaultTable holds one JSONB document per byte.
const DefaultTable = "extracted_wisdom_byte"

// PostgresRepository keeps bytes as JSONB documents. The _id of a document
// is its primary key; seq gives the stable natural order.
type PostgresRepository struct {
	db    *sql.DB
	table string
	qb    sq.StatementBuilderType
}

var _ ports.ByteStore = (*PostgresRepository)(nil)

// Open connects with lib/pq and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("database dsn is empty")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB, table string) *PostgresRepository {
	if table == "" {
		table = DefaultTable
	}
	return &PostgresRepository{
		db:    db,
		table: pq.QuoteIdentifier(table),
		qb:    sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// EnsureSchema creates the document table when it does not exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
              seq BIGSERIAL,
              id TEXT PRIMARY KEY,
              doc JSONB NOT NULL
          )`, r.table)

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return nil
}

// Insert stores doc, assigning an identity when it has none.
func (r *PostgresRepository) Insert(ctx context.Context, doc domain.Document) (primitive.ObjectID, error) {
	oid, ok := doc[domain.FieldID].(primitive.ObjectID)
	if !ok {
		oid = primitive.NewObjectID()
	}

	body := make(map[string]any, len(doc))
	for k, v := range doc {
		if k != domain.FieldID {
			body[k] = v
		}
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("marshal document: %w", err)
	}

	query, args, err := r.qb.Insert(r.table).Columns("id", "doc").Values(oid.Hex(), string(raw)).ToSql()
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return primitive.NilObjectID, fmt.Errorf("insert document: %w", err)
	}
	return oid, nil
}

func (r *PostgresRepository) Count(ctx context.Context, p predicate.Predicate) (int64, error) {
	query, args, err := r.qb.Select("COUNT(*)").From(r.table).Where(Lower(p)).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var n int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Find(ctx context.Context, p predicate.Predicate, opts ports.FindOptions) ([]domain.Document, error) {
	if opts.Skip < 0 || opts.Limit < 0 {
		return nil, errors.New("negative skip or limit")
	}

	b := r.qb.Select("id", "doc").From(r.table).Where(Lower(p)).OrderBy("seq")
	if opts.Skip > 0 {
		b = b.Offset(uint64(opts.Skip))
	}
	if opts.Limit > 0 {
		b = b.Limit(uint64(opts.Limit))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find documents: %w", err)
	}

	var docs []domain.Document
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc, err := decodeRow(id, raw)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		docs = append(docs, doc)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return docs, nil
}

func (r *PostgresRepository) Distinct(ctx context.Context, field string, p predicate.Predicate) ([]any, error) {
	query, args, err := r.qb.Select().
		Distinct().
		Column(sq.Expr("doc->?::text", field)).
		From(r.table).
		Where(Lower(p)).
		Where(predicateSQL(predicate.Not(predicate.Equals(field, nil)))).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build distinct: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", field, err)
	}

	var out []any
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan value: %w", err)
		}
		v, err := decodeJSON(raw)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		out = append(out, v)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return out, nil
}

// UpdateOne touches the first matching row in natural order. Rows whose value
// would not change are excluded so the affected count means "modified".
func (r *PostgresRepository) UpdateOne(ctx context.Context, p predicate.Predicate, m ports.Mutation) (bool, error) {
	query, args, err := r.updateSQL(p, m)
	if err != nil {
		return false, err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update %s: %w", m.Field, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) updateSQL(p predicate.Predicate, m ports.Mutation) (string, []any, error) {
	if m.Field == "" || m.Field == domain.FieldID {
		return "", nil, fmt.Errorf("field %q cannot be updated", m.Field)
	}

	first := sq.Select("id").From(r.table).Where(Lower(p)).OrderBy("seq").Limit(1)
	b := r.qb.Update(r.table).Where(sq.Expr("id = (?)", first))

	if m.Unset {
		b = b.Set("doc", sq.Expr("doc - ?::text", m.Field)).
			Where(sq.Expr("jsonb_exists(doc, ?)", m.Field))
	} else {
		value, err := json.Marshal(m.Value)
		if err != nil {
			return "", nil, fmt.Errorf("marshal value: %w", err)
		}
		b = b.Set("doc", sq.Expr("jsonb_set(doc, ARRAY[?::text], ?::jsonb, true)", m.Field, string(value))).
			Where(sq.Expr("doc->?::text IS DISTINCT FROM ?::jsonb", m.Field, string(value)))
	}

	query, args, err := b.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build update: %w", err)
	}
	return query, args, nil
}

// Lower translates a predicate into a squirrel condition over the doc column.
func Lower(p predicate.Predicate) sq.Sqlizer {
	return predicateSQL(p)
}

func predicateSQL(p predicate.Predicate) sq.Sqlizer {
	switch p.Op {
	case predicate.OpAll:
		return sq.Expr("TRUE")
	case predicate.OpEquals:
		return equalsSQL(p.Field, p.Value)
	case predicate.OpIn:
		if len(p.Values) == 0 {
			return sq.Expr("FALSE")
		}
		or := make(sq.Or, 0, len(p.Values))
		for _, v := range p.Values {
			or = append(or, equalsSQL(p.Field, v))
		}
		return or
	case predicate.OpExists:
		want, _ := p.Value.(bool)
		if p.Field == domain.FieldID {
			if want {
				return sq.Expr("TRUE")
			}
			return sq.Expr("FALSE")
		}
		if want {
			return sq.Expr("jsonb_exists(doc, ?)", p.Field)
		}
		return sq.Expr("NOT jsonb_exists(doc, ?)", p.Field)
	case predicate.OpContains:
		needle, _ := p.Value.(string)
		return sq.Expr("doc->>?::text ILIKE ?", p.Field, "%"+escapeLike(needle)+"%")
	case predicate.OpAnd:
		and := make(sq.And, 0, len(p.Children))
		for _, c := range p.Children {
			and = append(and, predicateSQL(c))
		}
		return and
	case predicate.OpOr:
		if len(p.Children) == 0 {
			return sq.Expr("FALSE")
		}
		or := make(sq.Or, 0, len(p.Children))
		for _, c := range p.Children {
			or = append(or, predicateSQL(c))
		}
		return or
	case predicate.OpNot:
		if len(p.Children) != 1 {
			return sq.Expr("FALSE")
		}
		return sq.Expr("NOT (?)", predicateSQL(p.Children[0]))
	default:
		return sq.Expr("FALSE")
	}
}

func equalsSQL(field string, value any) sq.Sqlizer {
	if field == domain.FieldID {
		if oid, ok := value.(primitive.ObjectID); ok {
			return sq.Eq{"id": oid.Hex()}
		}
		if s, ok := value.(string); ok {
			return sq.Eq{"id": s}
		}
		return sq.Expr("FALSE")
	}
	if value == nil {
		return sq.Expr("(doc->?::text IS NULL OR doc->?::text = 'null'::jsonb)", field, field)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return sq.Expr("FALSE")
	}
	return sq.Expr("doc->?::text = ?::jsonb", field, string(raw))
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func decodeRow(id string, raw []byte) (domain.Document, error) {
	v, err := decodeJSON(raw)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("document %s is not an object", id)
	}

	doc := domain.Document(m)
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		doc[domain.FieldID] = id
	} else {
		doc[domain.FieldID] = oid
	}
	return doc, nil
}

func decodeJSON(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return normalizeNumbers(v), nil
}

// normalizeNumbers keeps integral JSON numbers as int64 so Year and
// chunk_number decode the same way they do from a document store.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		for k, inner := range t {
			t[k] = normalizeNumbers(inner)
		}
		return t
	case []any:
		for i, inner := range t {
			t[i] = normalizeNumbers(inner)
		}
		return t
	default:
		return v
	}
}
