package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/rryowa/backoffice/internal/models"
	"github.com/rryowa/backoffice/internal/storage"
)

const (
	categoryColumns      = `id, cf1, cf2, cf3, cf4, cf5, ` + auditColumns
	paymentMethodColumns = `id, cf1, cf2, cf3, cf4, ` + auditColumns
	cashFlowColumns      = `id, cf1, cf2, cf3, cf4, cf5, cf6, cf7, cf8, cf9, ` + auditColumns
	recurringColumns     = `id, cf1, cf2, cf3, cf4, cf5, cf6, cf7, cf8, cf9, cf10, cf11, cf12, ` + auditColumns
)

type CategoryRepository struct {
	db storage.DBTX
}

func NewCategoryRepository(db storage.DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Add(ctx context.Context, c *models.Category) error {
	query := `INSERT INTO categories (` + categoryColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.Tenant.ApplicationID, c.Tenant.BoutiqueID, c.Name, c.Type, c.Description,
		c.CreatedAt, c.CreatedBy, c.UpdatedAt, c.UpdatedBy, c.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to insert category: %w", mapError(err))
	}
	return nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, tenant models.Tenant, id uuid.UUID) (*models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE cf1 = $1 AND cf2 = $2 AND id = $3`
	c, err := scanCategory(r.db.QueryRowContext(ctx, query, tenant.ApplicationID, tenant.BoutiqueID, id))
	if err != nil {
		return nil, fmt.Errorf("get category: %w", mapError(err))
	}
	return c, nil
}

func (r *CategoryRepository) GetByName(ctx context.Context, tenant models.Tenant, name string) (*models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE cf1 = $1 AND cf2 = $2 AND cf3 = $3`
	c, err := scanCategory(r.db.QueryRowContext(ctx, query, tenant.ApplicationID, tenant.BoutiqueID, name))
	if err != nil {
		return nil, fmt.Errorf("get category by name: %w", mapError(err))
	}
	return c, nil
}

func (r *CategoryRepository) Find(ctx context.Context, tenant models.Tenant, flowType *models.FlowType) ([]models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE cf1 = $1 AND cf2 = $2`
	args := []any{tenant.ApplicationID, tenant.BoutiqueID}
	if flowType != nil {
		query += ` AND cf4 = $3`
		args = append(args, *flowType)
	}
	query += ` ORDER BY cf3`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

func scanCategory(row scanner) (*models.Category, error) {
	var c models.Category
	err := row.Scan(
		&c.ID, &c.Tenant.ApplicationID, &c.Tenant.BoutiqueID, &c.Name, &c.Type, &c.Description,
		&c.CreatedAt, &c.CreatedBy, &c.UpdatedAt, &c.UpdatedBy, &c.Version,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

type PaymentMethodRepository struct {
	db storage.DBTX
}

func NewPaymentMethodRepository(db storage.DBTX) *PaymentMethodRepository {
	return &PaymentMethodRepository{db: db}
}

func (r *PaymentMethodRepository) Add(ctx context.Context, m *models.PaymentMethod) error {
	query := `INSERT INTO payment_methods (` + paymentMethodColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.Tenant.ApplicationID, m.Tenant.BoutiqueID, m.Name, m.IsActif,
		m.CreatedAt, m.CreatedBy, m.UpdatedAt, m.UpdatedBy, m.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment method: %w", mapError(err))
	}
	return nil
}

func (r *PaymentMethodRepository) GetByID(ctx context.Context, tenant models.Tenant, id uuid.UUID) (*models.PaymentMethod, error) {
	query := `SELECT ` + paymentMethodColumns + ` FROM payment_methods WHERE cf1 = $1 AND cf2 = $2 AND id = $3`
	m, err := scanPaymentMethod(r.db.QueryRowContext(ctx, query, tenant.ApplicationID, tenant.BoutiqueID, id))
	if err != nil {
		return nil, fmt.Errorf("get payment method: %w", mapError(err))
	}
	return m, nil
}

func (r *PaymentMethodRepository) GetByName(ctx context.Context, tenant models.Tenant, name string) (*models.PaymentMethod, error) {
	query := `SELECT ` + paymentMethodColumns + ` FROM payment_methods WHERE cf1 = $1 AND cf2 = $2 AND cf3 = $3`
	m, err := scanPaymentMethod(r.db.QueryRowContext(ctx, query, tenant.ApplicationID, tenant.BoutiqueID, name))
	if err != nil {
		return nil, fmt.Errorf("get payment method by name: %w", mapError(err))
	}
	return m, nil
}

func (r *PaymentMethodRepository) Find(ctx context.Context, tenant models.Tenant) ([]models.PaymentMethod, error) {
	query := `SELECT ` + paymentMethodColumns + ` FROM payment_methods WHERE cf1 = $1 AND cf2 = $2 ORDER BY cf3`
	rows, err := r.db.QueryContext(ctx, query, tenant.ApplicationID, tenant.BoutiqueID)
	if err != nil {
		return nil, fmt.Errorf("find payment methods: %w", err)
	}
	defer rows.Close()

	var methods []models.PaymentMethod
	for rows.Next() {
		m, err := scanPaymentMethod(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment method: %w", err)
		}
		methods = append(methods, *m)
	}
	return methods, rows.Err()
}

func scanPaymentMethod(row scanner) (*models.PaymentMethod, error) {
	var m models.PaymentMethod
	err := row.Scan(
		&m.ID, &m.Tenant.ApplicationID, &m.Tenant.BoutiqueID, &m.Name, &m.IsActif,
		&m.CreatedAt, &m.CreatedBy, &m.UpdatedAt, &m.UpdatedBy, &m.Version,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

type CashFlowRepository struct {
	db storage.DBTX
}

func NewCashFlowRepository(db storage.DBTX) *CashFlowRepository {
	return &CashFlowRepository{db: db}
}

func (r *CashFlowRepository) Add(ctx context.Context, f *models.CashFlow) error {
	query := `INSERT INTO cash_flows (` + cashFlowColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.db.ExecContext(ctx, query,
		f.ID, f.Tenant.ApplicationID, f.Tenant.BoutiqueID, f.CategoryID, f.PaymentMethodID,
		f.Type, f.Amount, f.Label, f.OccurredAt, f.RecurringID,
		f.CreatedAt, f.CreatedBy, f.UpdatedAt, f.UpdatedBy, f.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to insert cash flow: %w", mapError(err))
	}
	return nil
}

func (r *CashFlowRepository) Find(ctx context.Context, tenant models.Tenant, filter models.CashFlowFilter) ([]models.CashFlow, error) {
	query := `SELECT ` + cashFlowColumns + ` FROM cash_flows WHERE cf1 = $1 AND cf2 = $2`
	args := []any{tenant.ApplicationID, tenant.BoutiqueID}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += ` AND cf8 >= $` + strconv.Itoa(len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += ` AND cf8 < $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY cf8`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find cash flows: %w", err)
	}
	defer rows.Close()

	var flows []models.CashFlow
	for rows.Next() {
		var (
			f           models.CashFlow
			recurringID uuid.NullUUID
		)
		err := rows.Scan(
			&f.ID, &f.Tenant.ApplicationID, &f.Tenant.BoutiqueID, &f.CategoryID, &f.PaymentMethodID,
			&f.Type, &f.Amount, &f.Label, &f.OccurredAt, &recurringID,
			&f.CreatedAt, &f.CreatedBy, &f.UpdatedAt, &f.UpdatedBy, &f.Version,
		)
		if err != nil {
			return nil, fmt.Errorf("scan cash flow: %w", err)
		}
		if recurringID.Valid {
			id := recurringID.UUID
			f.RecurringID = &id
		}
		flows = append(flows, f)
	}
	return flows, rows.Err()
}

type RecurringCashFlowRepository struct {
	db storage.DBTX
}

func NewRecurringCashFlowRepository(db storage.DBTX) *RecurringCashFlowRepository {
	return &RecurringCashFlowRepository{db: db}
}

func (r *RecurringCashFlowRepository) Add(ctx context.Context, f *models.RecurringCashFlow) error {
	query := `INSERT INTO recurring_cash_flows (` + recurringColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.db.ExecContext(ctx, query,
		f.ID, f.Tenant.ApplicationID, f.Tenant.BoutiqueID, f.CategoryID, f.PaymentMethodID,
		f.Type, f.Amount, f.Label, f.Frequency, f.NextOccurrence, f.EndDate, f.IsActif, f.StartDate,
		f.CreatedAt, f.CreatedBy, f.UpdatedAt, f.UpdatedBy, f.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to insert recurring cash flow: %w", mapError(err))
	}
	return nil
}

func (r *RecurringCashFlowRepository) Update(ctx context.Context, flows ...*models.RecurringCashFlow) error {
	query := `UPDATE recurring_cash_flows SET cf9 = $2, cf11 = $3, ch3 = $4, ch4 = $5, ch5 = $6
		WHERE id = $1 AND ch5 = $6 - 1`
	for _, f := range flows {
		res, err := r.db.ExecContext(ctx, query, f.ID, f.NextOccurrence, f.IsActif, f.UpdatedAt, f.UpdatedBy, f.Version)
		if err != nil {
			return fmt.Errorf("failed to update recurring cash flow %s: %w", f.ID, err)
		}
		if err := expectOneRow(res); err != nil {
			return fmt.Errorf("update recurring cash flow %s: %w", f.ID, err)
		}
	}
	return nil
}

func (r *RecurringCashFlowRepository) Find(ctx context.Context, tenant models.Tenant) ([]models.RecurringCashFlow, error) {
	query := `SELECT ` + recurringColumns + ` FROM recurring_cash_flows WHERE cf1 = $1 AND cf2 = $2 ORDER BY cf9`
	return r.query(ctx, query, tenant.ApplicationID, tenant.BoutiqueID)
}

func (r *RecurringCashFlowRepository) FindDue(ctx context.Context, now time.Time) ([]models.RecurringCashFlow, error) {
	query := `SELECT ` + recurringColumns + ` FROM recurring_cash_flows WHERE cf11 AND cf9 <= $1 ORDER BY cf9`
	return r.query(ctx, query, now)
}

func (r *RecurringCashFlowRepository) query(ctx context.Context, query string, args ...any) ([]models.RecurringCashFlow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find recurring cash flows: %w", err)
	}
	defer rows.Close()

	var flows []models.RecurringCashFlow
	for rows.Next() {
		var (
			f       models.RecurringCashFlow
			endDate sql.NullTime
		)
		err := rows.Scan(
			&f.ID, &f.Tenant.ApplicationID, &f.Tenant.BoutiqueID, &f.CategoryID, &f.PaymentMethodID,
			&f.Type, &f.Amount, &f.Label, &f.Frequency, &f.NextOccurrence, &endDate, &f.IsActif, &f.StartDate,
			&f.CreatedAt, &f.CreatedBy, &f.UpdatedAt, &f.UpdatedBy, &f.Version,
		)
		if err != nil {
			return nil, fmt.Errorf("scan recurring cash flow: %w", err)
		}
		f.EndDate = timePtr(endDate)
		flows = append(flows, f)
	}
	return flows, rows.Err()
}
