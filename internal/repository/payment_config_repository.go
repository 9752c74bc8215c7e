package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-admin-api/internal/models"
)

const paymentConfigSelect = `SELECT late_payment_fee_percent, late_payment_grace_period, updated_at FROM payment_config WHERE id = 1`

// PaymentConfigRepository reads and writes the singleton late payment configuration.
type PaymentConfigRepository struct {
	db *sqlx.DB
}

// NewPaymentConfigRepository constructs a PaymentConfigRepository.
func NewPaymentConfigRepository(db *sqlx.DB) *PaymentConfigRepository {
	return &PaymentConfigRepository{db: db}
}

// Get returns the configuration row.
func (r *PaymentConfigRepository) Get(ctx context.Context) (*models.PaymentConfig, error) {
	var cfg models.PaymentConfig
	if err := r.db.GetContext(ctx, &cfg, paymentConfigSelect); err != nil {
		return nil, fmt.Errorf("get payment config: %w", err)
	}
	return &cfg, nil
}

// GetWithTx returns the configuration as seen by the transaction.
func (r *PaymentConfigRepository) GetWithTx(ctx context.Context, tx *sqlx.Tx) (*models.PaymentConfig, error) {
	var cfg models.PaymentConfig
	if err := tx.GetContext(ctx, &cfg, paymentConfigSelect); err != nil {
		return nil, fmt.Errorf("get payment config: %w", err)
	}
	return &cfg, nil
}

// Update overwrites the configuration.
func (r *PaymentConfigRepository) Update(ctx context.Context, cfg *models.PaymentConfig) error {
	cfg.UpdatedAt = time.Now().UTC()
	const query = `UPDATE payment_config SET late_payment_fee_percent = :late_payment_fee_percent,
        late_payment_grace_period = :late_payment_grace_period, updated_at = :updated_at WHERE id = 1`
	if _, err := r.db.NamedExecContext(ctx, query, cfg); err != nil {
		return fmt.Errorf("update payment config: %w", err)
	}
	return nil
}
