package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"github.com/xhad/tenders/internal/models"
	"github.com/xhad/tenders/internal/types"
	"github.com/xhad/tenders/pkg/logger"
)

const dateLayout = "2006-01-02"

// ErrNotFound is returned by Get for an unknown record id.
var ErrNotFound = errors.New("record not found")

type TenderStoreConfig struct {
	ConnString  string
	TableName   string
	VectorDim   int
	SearchLimit int
	Embedder    types.Embedder // embeds short summaries; nil stores no vectors
	Logger      *zap.Logger
}

// TenderStore persists extracted records in Postgres, with an optional
// pgvector embedding of each short summary.
type TenderStore struct {
	config   TenderStoreConfig
	pool     *pgxpool.Pool
	embedder types.Embedder
	logger   *zap.Logger
}

// StoredRecord is a record read back from the store.
type StoredRecord struct {
	ID        string                 `json:"id"`
	Source    string                 `json:"source"`
	Record    models.ExtractedRecord `json:"record"`
	CreatedAt time.Time              `json:"created_at"`
	Distance  float64                `json:"distance,omitempty"`
}

func NewWithConfig(ctx context.Context, config TenderStoreConfig) (*TenderStore, error) {
	if config.TableName == "" {
		config.TableName = "tenders"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768 // nomic-embed-text
	}
	if config.SearchLimit == 0 {
		config.SearchLimit = 5
	}

	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	ts := &TenderStore{
		config:   config,
		pool:     pool,
		embedder: config.Embedder,
		logger:   logger.OrNop(config.Logger),
	}

	if err := ts.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return ts, nil
}

func (ts *TenderStore) initialize(ctx context.Context) error {
	// Enable pgvector extension
	_, err := ts.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY,
			source TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			reference_number TEXT NOT NULL DEFAULT '',
			organization_name TEXT NOT NULL DEFAULT '',
			bid_submission_start_date DATE,
			bid_submission_end_date DATE,
			bid_opening_date DATE,
			description TEXT NOT NULL DEFAULT '',
			short_summary TEXT NOT NULL DEFAULT '',
			embedding vector(%d),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, ts.config.TableName, ts.config.VectorDim)

	if _, err := ts.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_reference_idx
		ON %s (reference_number)`,
		ts.config.TableName, ts.config.TableName)

	if _, err := ts.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

// Save inserts record and returns its new id.
func (ts *TenderStore) Save(ctx context.Context, source string, record models.ExtractedRecord) (string, error) {
	start, err := parseDate(record.BidSubmissionStartDate)
	if err != nil {
		return "", err
	}
	end, err := parseDate(record.BidSubmissionEndDate)
	if err != nil {
		return "", err
	}
	opening, err := parseDate(record.BidOpeningDate)
	if err != nil {
		return "", err
	}

	id := uuid.New()
	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, source, title, reference_number, organization_name,
			bid_submission_start_date, bid_submission_end_date, bid_opening_date,
			description, short_summary, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		ts.config.TableName)

	_, err = ts.pool.Exec(ctx, stmt,
		id,
		clean(source),
		clean(record.Title),
		clean(record.ReferenceNumber),
		clean(record.OrganizationName),
		start,
		end,
		opening,
		clean(record.Description),
		clean(record.ShortSummary),
		ts.embed(ctx, record.ShortSummary),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert record: %w", err)
	}

	ts.logger.Debug("record stored", zap.String("id", id.String()), zap.String("source", source))
	return id.String(), nil
}

// embed returns the summary's vector, or nil when it cannot be computed.
func (ts *TenderStore) embed(ctx context.Context, text string) *pgvector.Vector {
	if ts.embedder == nil || strings.TrimSpace(text) == "" {
		return nil
	}

	vectors, err := ts.embedder.CreateEmbedding(ctx, []string{clean(text)})
	if err != nil {
		ts.logger.Warn("failed to create embedding", zap.Error(err))
		return nil
	}
	if len(vectors) == 0 || len(vectors[0]) != ts.config.VectorDim {
		ts.logger.Warn("embedding dimension mismatch", zap.Int("want", ts.config.VectorDim))
		return nil
	}

	v := pgvector.NewVector(vectors[0])
	return &v
}

// Get returns the record stored under id.
func (ts *TenderStore) Get(ctx context.Context, id string) (StoredRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1`,
		selectColumns, ts.config.TableName)

	rows, err := ts.pool.Query(ctx, query, id)
	if err != nil {
		return StoredRecord{}, fmt.Errorf("failed to query record: %w", err)
	}
	records, err := scanRecords(rows, false)
	if err != nil {
		return StoredRecord{}, err
	}
	if len(records) == 0 {
		return StoredRecord{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return records[0], nil
}

// Similar returns the records whose summaries are closest to text. It needs
// an embedder.
func (ts *TenderStore) Similar(ctx context.Context, text string, limit int) ([]StoredRecord, error) {
	if ts.embedder == nil {
		return nil, errors.New("similarity search needs an embedder")
	}
	if limit <= 0 {
		limit = ts.config.SearchLimit
	}

	embedding := ts.embed(ctx, text)
	if embedding == nil {
		return nil, errors.New("failed to embed search text")
	}

	query := fmt.Sprintf(`
		SELECT %s, embedding <=> $1 AS distance
		FROM %s
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $2`,
		selectColumns, ts.config.TableName)

	rows, err := ts.pool.Query(ctx, query, embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	return scanRecords(rows, true)
}

const selectColumns = `id::text, source, title, reference_number, organization_name,
			bid_submission_start_date, bid_submission_end_date, bid_opening_date,
			description, short_summary, created_at`

func scanRecords(rows pgx.Rows, withDistance bool) ([]StoredRecord, error) {
	defer rows.Close()

	var records []StoredRecord
	for rows.Next() {
		var (
			rec                 StoredRecord
			start, end, opening *time.Time
		)
		dest := []any{
			&rec.ID,
			&rec.Source,
			&rec.Record.Title,
			&rec.Record.ReferenceNumber,
			&rec.Record.OrganizationName,
			&start,
			&end,
			&opening,
			&rec.Record.Description,
			&rec.Record.ShortSummary,
			&rec.CreatedAt,
		}
		if withDistance {
			dest = append(dest, &rec.Distance)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rec.Record.BidSubmissionStartDate = formatDate(start)
		rec.Record.BidSubmissionEndDate = formatDate(end)
		rec.Record.BidOpeningDate = formatDate(opening)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return records, nil
}

func (ts *TenderStore) Close() {
	if ts.pool != nil {
		ts.pool.Close()
	}
}

func parseDate(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil, fmt.Errorf("invalid record date %q: %w", *s, err)
	}
	return &t, nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

// clean drops invalid UTF-8, which Postgres rejects in TEXT columns.
func clean(s string) string {
	return strings.ToValidUTF8(strings.ReplaceAll(s, "\x00", ""), "")
}
