package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxPool is satisfied by *pgxpool.Pool and by pgxmock pools.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

const (
	insertRequestSQL = `INSERT INTO print_requests (phone, status, submitted_at, screenshot_link, total_price)
VALUES ($1, $2, $3, $4, $5) RETURNING id`
	insertDocumentSQL = `INSERT INTO print_documents (request_id, position, doc_link, file_name, pages, copies, is_color, layout, pages_per_sheet, page_selection, custom_pages, price)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	selectRequestsSQL = `SELECT id, phone, status, submitted_at, screenshot_link, total_price
FROM print_requests WHERE status = $1 ORDER BY submitted_at, id`
	selectDocumentsSQL = `SELECT request_id, doc_link, file_name, pages, copies, is_color, layout, pages_per_sheet, page_selection, custom_pages, price
FROM print_documents WHERE request_id = ANY($1) ORDER BY request_id, position`
	updateStatusSQL = `UPDATE print_requests SET status = $1 WHERE id = $2 AND status <> $1 AND status = 'Pending'`
	selectStatusSQL = `SELECT status FROM print_requests WHERE id = $1`
	deleteSQL       = `DELETE FROM print_requests WHERE id = $1`
)

// PostgresStore keeps orders in print_requests with documents in print_documents.
type PostgresStore struct {
	pool PgxPool
}

// NewPostgresStore connects a pool to uri and checks it.
func NewPostgresStore(ctx context.Context, uri string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresStoreWithPool wraps an existing pool.
func NewPostgresStoreWithPool(pool PgxPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Close releases the pool.
func (s *PostgresStore) Close() { s.pool.Close() }

// Insert writes the request row and its documents in one transaction.
func (s *PostgresStore) Insert(ctx context.Context, order Order) (string, error) {
	if err := order.Validate(); err != nil {
		return "", err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", wrapPgErr("begin", err)
	}

	var id int64
	err = tx.QueryRow(ctx, insertRequestSQL,
		order.Phone, string(order.Status), order.SubmittedAt, order.ScreenshotLink, order.TotalPrice,
	).Scan(&id)
	if err != nil {
		_ = tx.Rollback(ctx)
		return "", wrapPgErr("insert request", err)
	}

	for i, d := range order.Documents {
		_, err = tx.Exec(ctx, insertDocumentSQL,
			id, i, d.DocLink, d.FileName, d.Pages, d.Copies, d.IsColor,
			d.Layout, d.PagesPerSheet, d.PageSelection, d.CustomPages, d.Price,
		)
		if err != nil {
			_ = tx.Rollback(ctx)
			return "", wrapPgErr("insert document", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", wrapPgErr("commit", err)
	}
	return strconv.FormatInt(id, 10), nil
}

// ListByStatus loads the requests in status, oldest first, then their documents in one query.
func (s *PostgresStore) ListByStatus(ctx context.Context, status Status) ([]Order, error) {
	rows, err := s.pool.Query(ctx, selectRequestsSQL, string(status))
	if err != nil {
		return nil, wrapPgErr("select requests", err)
	}

	out := []Order{}
	index := map[int64]int{}
	var ids []int64
	for rows.Next() {
		var (
			id     int64
			o      Order
			status string
		)
		if err := rows.Scan(&id, &o.Phone, &status, &o.SubmittedAt, &o.ScreenshotLink, &o.TotalPrice); err != nil {
			rows.Close()
			return nil, wrapPgErr("scan request", err)
		}
		o.ID = strconv.FormatInt(id, 10)
		o.Status = Status(status)
		o.Documents = []Document{}
		index[id] = len(out)
		ids = append(ids, id)
		out = append(out, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, wrapPgErr("select requests", err)
	}
	if len(ids) == 0 {
		return out, nil
	}

	docRows, err := s.pool.Query(ctx, selectDocumentsSQL, ids)
	if err != nil {
		return nil, wrapPgErr("select documents", err)
	}
	defer docRows.Close()

	for docRows.Next() {
		var (
			requestID int64
			d         Document
		)
		err := docRows.Scan(&requestID, &d.DocLink, &d.FileName, &d.Pages, &d.Copies, &d.IsColor,
			&d.Layout, &d.PagesPerSheet, &d.PageSelection, &d.CustomPages, &d.Price)
		if err != nil {
			return nil, wrapPgErr("scan document", err)
		}
		if i, ok := index[requestID]; ok {
			out[i].Documents = append(out[i].Documents, d)
		}
	}
	if err := docRows.Err(); err != nil {
		return nil, wrapPgErr("select documents", err)
	}
	return out, nil
}

// UpdateStatus moves a Pending row in one guarded UPDATE. When nothing was
// updated the current status decides between a no-op, ErrNotFound and
// ErrInvalidTransition.
func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status Status) (bool, error) {
	key, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return false, ErrNotFound
	}

	tag, err := s.pool.Exec(ctx, updateStatusSQL, string(status), key)
	if err != nil {
		return false, wrapPgErr("update status", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	var current string
	err = s.pool.QueryRow(ctx, selectStatusSQL, key).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, wrapPgErr("check order", err)
	}
	if Status(current) == status {
		return false, nil
	}
	return false, ErrInvalidTransition
}

// Delete removes one request; its documents go with it through ON DELETE CASCADE.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	key, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return ErrNotFound
	}

	tag, err := s.pool.Exec(ctx, deleteSQL, key)
	if err != nil {
		return wrapPgErr("delete", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func wrapPgErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UndefinedTable:
			return fmt.Errorf("%s: schema not migrated: %w", op, err)
		case pgerrcode.CheckViolation:
			return fmt.Errorf("%s: record rejected by %s: %w", op, pgErr.ConstraintName, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
