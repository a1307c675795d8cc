package repositories

import (
	"context"
	"time"

	"site_stores_backend/internal/models"
)

type transactionRepository struct {
	db SQLExecutor
}

const transactionColumns = `t.id, t.serial_number, t.site_id, t.material_id, t.quantity, t.unit_cost, t.total_value,
	t.transaction_type, t.project_code, t.approved_by, t.created_by, t.created_at, t.notes, t.supporting_document_url`

func transactionDest(t *models.Transaction) []interface{} {
	return []interface{}{
		&t.ID, &t.SerialNumber, &t.SiteID, &t.MaterialID, &t.Quantity, &t.UnitCost, &t.TotalValue,
		&t.Type, &t.ProjectCode, &t.ApprovedBy, &t.CreatedBy, &t.CreatedAt, &t.Notes, &t.SupportingDocumentURL,
	}
}

func (r *transactionRepository) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	query := `INSERT INTO transactions (serial_number, site_id, material_id, quantity, unit_cost, total_value,
	              transaction_type, project_code, approved_by, created_by, created_at, notes, supporting_document_url)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	          RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		t.SerialNumber, t.SiteID, t.MaterialID, t.Quantity, t.UnitCost, t.TotalValue,
		string(t.Type), t.ProjectCode, t.ApprovedBy, t.CreatedBy, t.CreatedAt, t.Notes, t.SupportingDocumentURL,
	).Scan(&t.ID)
	return wrapDBError(err, "creating transaction")
}

func (r *transactionRepository) GetTransactionByID(ctx context.Context, id int64) (*models.Transaction, error) {
	t := &models.Transaction{}
	err := r.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions t WHERE t.id = $1`, id).
		Scan(transactionDest(t)...)
	if err != nil {
		return nil, wrapDBError(err, "getting transaction")
	}
	return t, nil
}
