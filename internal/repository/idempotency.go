package repository

import (
	"context"
)

// IdempotencyRow mirrors one row of idempotency_keys.
type IdempotencyRow struct {
	IdempotencyKey string
	RequestHash    string
	Method         string
	Path           string
	ResponseStatus int32
	ResponseBody   []byte
	ContentType    string
	InProgress     bool
}

func (r *Repository) GetIdempotencyKey(ctx context.Context, key string) (IdempotencyRow, error) {
	var row IdempotencyRow
	query := `
		SELECT idempotency_key, request_hash, method, path,
		       COALESCE(response_status, 0), COALESCE(response_body, ''::bytea),
		       COALESCE(content_type, ''), in_progress
		FROM idempotency_keys WHERE idempotency_key = $1
	`
	err := r.db.QueryRow(ctx, query, key).Scan(
		&row.IdempotencyKey, &row.RequestHash, &row.Method, &row.Path,
		&row.ResponseStatus, &row.ResponseBody, &row.ContentType, &row.InProgress,
	)
	return row, err
}

// ReserveIdempotencyKey claims a key for in-flight processing. Returns
// pgx.ErrNoRows via the RETURNING clause when another request already
// holds the key.
func (r *Repository) ReserveIdempotencyKey(ctx context.Context, key, requestHash, method, path string) (IdempotencyRow, error) {
	var row IdempotencyRow
	query := `
		INSERT INTO idempotency_keys (idempotency_key, request_hash, method, path, in_progress, created_at)
		VALUES ($1, $2, $3, $4, TRUE, NOW())
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING idempotency_key, request_hash, method, path, 0, ''::bytea, '', in_progress
	`
	err := r.db.QueryRow(ctx, query, key, requestHash, method, path).Scan(
		&row.IdempotencyKey, &row.RequestHash, &row.Method, &row.Path,
		&row.ResponseStatus, &row.ResponseBody, &row.ContentType, &row.InProgress,
	)
	return row, err
}

func (r *Repository) FinalizeIdempotencyKey(ctx context.Context, key, requestHash string, status int32, body []byte, contentType string) (IdempotencyRow, error) {
	var row IdempotencyRow
	query := `
		UPDATE idempotency_keys
		SET response_status = $3, response_body = $4, content_type = $5,
		    in_progress = FALSE, finalized_at = NOW()
		WHERE idempotency_key = $1 AND request_hash = $2
		RETURNING idempotency_key, request_hash, method, path,
		          response_status, response_body, content_type, in_progress
	`
	err := r.db.QueryRow(ctx, query, key, requestHash, status, body, contentType).Scan(
		&row.IdempotencyKey, &row.RequestHash, &row.Method, &row.Path,
		&row.ResponseStatus, &row.ResponseBody, &row.ContentType, &row.InProgress,
	)
	return row, err
}
