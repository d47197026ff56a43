package deliveries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Claim inserts a processing row, or takes over one whose lease expired.
func (r *PostgresRepository) Claim(ctx context.Context, key, reference string) (ClaimResult, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO webhook_deliveries (delivery_key, reference, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (delivery_key) DO UPDATE SET claimed_at = NOW()
		WHERE webhook_deliveries.status = $3
		  AND webhook_deliveries.claimed_at < NOW() - $4::interval
	`, key, reference, string(StatusProcessing), leaseInterval())
	if err != nil {
		return 0, fmt.Errorf("claim delivery: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("claim delivery: %w", err)
	}
	if n > 0 {
		return Claimed, nil
	}

	var status string
	err = r.db.QueryRowContext(ctx, `
		SELECT status FROM webhook_deliveries WHERE delivery_key = $1
	`, key).Scan(&status)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// Released between the insert and the read; the next delivery claims it.
		return InFlight, nil
	case err != nil:
		return 0, fmt.Errorf("claim delivery: %w", err)
	case Status(status) == StatusProcessed:
		return AlreadyProcessed, nil
	default:
		return InFlight, nil
	}
}

func leaseInterval() string {
	return fmt.Sprintf("%d seconds", int64(ClaimLease.Seconds()))
}

func (r *PostgresRepository) MarkProcessed(ctx context.Context, key, note string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE webhook_deliveries
		SET status = $2, note = $3, processed_at = NOW()
		WHERE delivery_key = $1
	`, key, string(StatusProcessed), note)
	if err != nil {
		return fmt.Errorf("mark delivery processed: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark delivery processed: %w", err)
	}
	if n == 0 {
		return ErrUnknownDelivery
	}
	return nil
}

func (r *PostgresRepository) Release(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM webhook_deliveries
		WHERE delivery_key = $1 AND status = $2
	`, key, string(StatusProcessing))
	if err != nil {
		return fmt.Errorf("release delivery: %w", err)
	}
	return nil
}
