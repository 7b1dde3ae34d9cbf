package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rryowa/backoffice/internal/models"
	"github.com/rryowa/backoffice/internal/storage"
)

type categoryRepo struct{ *repositories }

func (r categoryRepo) Add(_ context.Context, c *models.Category) error {
	defer r.lock()()
	for _, existing := range r.s.st.categories {
		if existing.Tenant == c.Tenant && existing.Name == c.Name {
			return fmt.Errorf("%w: category %s", storage.ErrConflict, c.Name)
		}
	}
	r.s.st.categories[c.ID] = *c
	return nil
}

func (r categoryRepo) GetByID(_ context.Context, tenant models.Tenant, id uuid.UUID) (*models.Category, error) {
	defer r.lock()()
	c, ok := r.s.st.categories[id]
	if !ok || c.Tenant != tenant {
		return nil, storage.ErrNotFound
	}
	return &c, nil
}

func (r categoryRepo) GetByName(_ context.Context, tenant models.Tenant, name string) (*models.Category, error) {
	defer r.lock()()
	for _, c := range r.s.st.categories {
		if c.Tenant == tenant && c.Name == name {
			return &c, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r categoryRepo) Find(_ context.Context, tenant models.Tenant, flowType *models.FlowType) ([]models.Category, error) {
	defer r.lock()()
	var categories []models.Category
	for _, c := range r.s.st.categories {
		if c.Tenant != tenant || (flowType != nil && c.Type != *flowType) {
			continue
		}
		categories = append(categories, c)
	}
	slices.SortFunc(categories, func(a, b models.Category) int { return strings.Compare(a.Name, b.Name) })
	return categories, nil
}

type paymentMethodRepo struct{ *repositories }

func (r paymentMethodRepo) Add(_ context.Context, m *models.PaymentMethod) error {
	defer r.lock()()
	for _, existing := range r.s.st.paymentMethods {
		if existing.Tenant == m.Tenant && existing.Name == m.Name {
			return fmt.Errorf("%w: payment method %s", storage.ErrConflict, m.Name)
		}
	}
	r.s.st.paymentMethods[m.ID] = *m
	return nil
}

func (r paymentMethodRepo) GetByID(_ context.Context, tenant models.Tenant, id uuid.UUID) (*models.PaymentMethod, error) {
	defer r.lock()()
	m, ok := r.s.st.paymentMethods[id]
	if !ok || m.Tenant != tenant {
		return nil, storage.ErrNotFound
	}
	return &m, nil
}

func (r paymentMethodRepo) GetByName(_ context.Context, tenant models.Tenant, name string) (*models.PaymentMethod, error) {
	defer r.lock()()
	for _, m := range r.s.st.paymentMethods {
		if m.Tenant == tenant && m.Name == name {
			return &m, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r paymentMethodRepo) Find(_ context.Context, tenant models.Tenant) ([]models.PaymentMethod, error) {
	defer r.lock()()
	var methods []models.PaymentMethod
	for _, m := range r.s.st.paymentMethods {
		if m.Tenant == tenant {
			methods = append(methods, m)
		}
	}
	slices.SortFunc(methods, func(a, b models.PaymentMethod) int { return strings.Compare(a.Name, b.Name) })
	return methods, nil
}

type cashFlowRepo struct{ *repositories }

func (r cashFlowRepo) Add(_ context.Context, f *models.CashFlow) error {
	defer r.lock()()
	r.s.st.cashFlows[f.ID] = *f
	return nil
}

func (r cashFlowRepo) Find(_ context.Context, tenant models.Tenant, filter models.CashFlowFilter) ([]models.CashFlow, error) {
	defer r.lock()()
	var flows []models.CashFlow
	for _, f := range r.s.st.cashFlows {
		if f.Tenant != tenant {
			continue
		}
		if filter.From != nil && f.OccurredAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !f.OccurredAt.Before(*filter.To) {
			continue
		}
		flows = append(flows, f)
	}
	slices.SortFunc(flows, func(a, b models.CashFlow) int { return a.OccurredAt.Compare(b.OccurredAt) })
	return flows, nil
}

type recurringCashFlowRepo struct{ *repositories }

func (r recurringCashFlowRepo) Add(_ context.Context, f *models.RecurringCashFlow) error {
	defer r.lock()()
	r.s.st.recurringCashFlows[f.ID] = *f
	return nil
}

func (r recurringCashFlowRepo) Update(_ context.Context, flows ...*models.RecurringCashFlow) error {
	defer r.lock()()
	for _, f := range flows {
		stored, ok := r.s.st.recurringCashFlows[f.ID]
		if !ok || stored.Version != f.Version-1 {
			return fmt.Errorf("update recurring cash flow %s: %w", f.ID, storage.ErrStaleRecord)
		}
		r.s.st.recurringCashFlows[f.ID] = *f
	}
	return nil
}

func (r recurringCashFlowRepo) Find(_ context.Context, tenant models.Tenant) ([]models.RecurringCashFlow, error) {
	defer r.lock()()
	return r.filter(func(f models.RecurringCashFlow) bool { return f.Tenant == tenant }), nil
}

func (r recurringCashFlowRepo) FindDue(_ context.Context, now time.Time) ([]models.RecurringCashFlow, error) {
	defer r.lock()()
	return r.filter(func(f models.RecurringCashFlow) bool {
		return f.IsActif && !f.NextOccurrence.After(now)
	}), nil
}

func (r recurringCashFlowRepo) filter(keep func(models.RecurringCashFlow) bool) []models.RecurringCashFlow {
	var flows []models.RecurringCashFlow
	for _, f := range r.s.st.recurringCashFlows {
		if keep(f) {
			flows = append(flows, f)
		}
	}
	slices.SortFunc(flows, func(a, b models.RecurringCashFlow) int {
		return a.NextOccurrence.Compare(b.NextOccurrence)
	})
	return flows
}
