package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rryowa/backoffice/internal/models"
	"github.com/rryowa/backoffice/internal/storage"
	"github.com/rryowa/backoffice/internal/util"
)

const (
	DefaultForecastDays = 30
	MaxForecastDays     = 365

	systemActor = "system"
)

type TreasuryService struct {
	storage   storage.Storage
	validator *Validator
	log       *zap.SugaredLogger
	now       func() time.Time
}

func NewTreasuryService(storage storage.Storage, validator *Validator, log *zap.SugaredLogger) *TreasuryService {
	return &TreasuryService{storage: storage, validator: validator, log: log, now: time.Now}
}

func (s *TreasuryService) CreateCategory(
	ctx context.Context,
	actor string,
	tenant models.Tenant,
	req models.CreateCategoryRequest,
) (*models.Category, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	category := &models.Category{
		ID:          uuid.New(),
		Tenant:      tenant,
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
		Audit:       models.NewAudit(actor, s.now()),
	}

	err := s.storage.Do(ctx, func(r storage.Repositories) error {
		_, err := r.Categories().GetByName(ctx, tenant, req.Name)
		if err == nil {
			return util.BadRequest("Une catégorie avec le même nom existe déjà")
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return r.Categories().Add(ctx, category)
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (s *TreasuryService) ListCategories(ctx context.Context, tenant models.Tenant, flowType *models.FlowType) ([]models.Category, error) {
	if flowType != nil && *flowType != models.FlowIncome && *flowType != models.FlowExpense {
		return nil, util.BadRequest("Type de flux inconnu: %s", *flowType)
	}
	categories, err := s.storage.Categories().Find(ctx, tenant, flowType)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *TreasuryService) CreatePaymentMethod(
	ctx context.Context,
	actor string,
	tenant models.Tenant,
	req models.CreatePaymentMethodRequest,
) (*models.PaymentMethod, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	method := &models.PaymentMethod{
		ID:      uuid.New(),
		Tenant:  tenant,
		Name:    req.Name,
		IsActif: true,
		Audit:   models.NewAudit(actor, s.now()),
	}

	err := s.storage.Do(ctx, func(r storage.Repositories) error {
		_, err := r.PaymentMethods().GetByName(ctx, tenant, req.Name)
		if err == nil {
			return util.BadRequest("Un moyen de paiement avec le même nom existe déjà")
		} else if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		return r.PaymentMethods().Add(ctx, method)
	})
	if err != nil {
		return nil, err
	}
	return method, nil
}

func (s *TreasuryService) ListPaymentMethods(ctx context.Context, tenant models.Tenant) ([]models.PaymentMethod, error) {
	methods, err := s.storage.PaymentMethods().Find(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	return methods, nil
}

func (s *TreasuryService) CreateCashFlow(
	ctx context.Context,
	actor string,
	tenant models.Tenant,
	req models.CreateCashFlowRequest,
) (*models.CashFlow, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	var flow *models.CashFlow
	err := s.storage.Do(ctx, func(r storage.Repositories) error {
		category, err := s.checkReferences(ctx, r, tenant, req.CategoryID, req.PaymentMethodID)
		if err != nil {
			return err
		}

		flow = &models.CashFlow{
			ID:              uuid.New(),
			Tenant:          tenant,
			CategoryID:      category.ID,
			PaymentMethodID: req.PaymentMethodID,
			Type:            category.Type,
			Amount:          req.Amount,
			Label:           req.Label,
			OccurredAt:      req.OccurredAt.UTC(),
			Audit:           models.NewAudit(actor, s.now()),
		}
		return r.CashFlows().Add(ctx, flow)
	})
	if err != nil {
		return nil, err
	}
	return flow, nil
}

func (s *TreasuryService) ListCashFlows(ctx context.Context, tenant models.Tenant, filter models.CashFlowFilter) ([]models.CashFlow, error) {
	if err := checkPeriod(filter); err != nil {
		return nil, err
	}
	flows, err := s.storage.CashFlows().Find(ctx, tenant, filter)
	if err != nil {
		return nil, fmt.Errorf("list cash flows: %w", err)
	}
	return flows, nil
}

func (s *TreasuryService) CreateRecurringCashFlow(
	ctx context.Context,
	actor string,
	tenant models.Tenant,
	req models.CreateRecurringCashFlowRequest,
) (*models.RecurringCashFlow, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	if req.EndDate != nil && req.EndDate.Before(req.StartDate) {
		return nil, util.Validation(map[string]string{"endDate": "endDate doit être postérieure à startDate"})
	}

	var flow *models.RecurringCashFlow
	err := s.storage.Do(ctx, func(r storage.Repositories) error {
		category, err := s.checkReferences(ctx, r, tenant, req.CategoryID, req.PaymentMethodID)
		if err != nil {
			return err
		}

		var endDate *time.Time
		if req.EndDate != nil {
			end := req.EndDate.UTC()
			endDate = &end
		}
		flow = &models.RecurringCashFlow{
			ID:              uuid.New(),
			Tenant:          tenant,
			CategoryID:      category.ID,
			PaymentMethodID: req.PaymentMethodID,
			Type:            category.Type,
			Amount:          req.Amount,
			Label:           req.Label,
			Frequency:       req.Frequency,
			StartDate:       req.StartDate.UTC(),
			NextOccurrence:  req.StartDate.UTC(),
			EndDate:         endDate,
			IsActif:         true,
			Audit:           models.NewAudit(actor, s.now()),
		}
		return r.RecurringCashFlows().Add(ctx, flow)
	})
	if err != nil {
		return nil, err
	}
	return flow, nil
}

func (s *TreasuryService) ListRecurringCashFlows(ctx context.Context, tenant models.Tenant) ([]models.RecurringCashFlow, error) {
	flows, err := s.storage.RecurringCashFlows().Find(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("list recurring cash flows: %w", err)
	}
	return flows, nil
}

func (s *TreasuryService) Dashboard(ctx context.Context, tenant models.Tenant, filter models.CashFlowFilter) (*models.Dashboard, error) {
	flows, err := s.ListCashFlows(ctx, tenant, filter)
	if err != nil {
		return nil, err
	}
	categories, err := s.storage.Categories().Find(ctx, tenant, nil)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	names := make(map[uuid.UUID]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	dashboard := &models.Dashboard{From: filter.From, To: filter.To, Categories: []models.CategoryTotal{}}
	totals := make(map[uuid.UUID]*models.CategoryTotal)
	for _, f := range flows {
		if f.Type == models.FlowExpense {
			dashboard.Expense += f.Amount
		} else {
			dashboard.Income += f.Amount
		}

		total, ok := totals[f.CategoryID]
		if !ok {
			total = &models.CategoryTotal{CategoryID: f.CategoryID, CategoryName: names[f.CategoryID], Type: f.Type}
			totals[f.CategoryID] = total
		}
		total.Total += f.Amount
	}
	dashboard.Balance = dashboard.Income - dashboard.Expense

	for _, t := range totals {
		dashboard.Categories = append(dashboard.Categories, *t)
	}
	slices.SortFunc(dashboard.Categories, func(a, b models.CategoryTotal) int {
		return strings.Compare(a.CategoryName, b.CategoryName)
	})
	return dashboard, nil
}

// Forecast projects the balance day by day from today (UTC) using the active
// recurring flows. Occurrences already due but not yet generated land on day one.
func (s *TreasuryService) Forecast(ctx context.Context, tenant models.Tenant, days int) (*models.Forecast, error) {
	if days == 0 {
		days = DefaultForecastDays
	}
	if days < 1 || days > MaxForecastDays {
		return nil, util.Validation(map[string]string{"days": fmt.Sprintf("days doit être compris entre 1 et %d", MaxForecastDays)})
	}

	flows, err := s.storage.CashFlows().Find(ctx, tenant, models.CashFlowFilter{})
	if err != nil {
		return nil, fmt.Errorf("list cash flows: %w", err)
	}
	recurring, err := s.storage.RecurringCashFlows().Find(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("list recurring cash flows: %w", err)
	}

	forecast := &models.Forecast{}
	for _, f := range flows {
		forecast.StartingBalance += f.Signed()
	}

	start := truncateToDayUTC(s.now())
	end := start.AddDate(0, 0, days)
	income := make([]int64, days)
	expense := make([]int64, days)

	for _, r := range recurring {
		if !r.IsActif {
			continue
		}
		anchor := r.StartDate
		first := r.Frequency.IndexFrom(anchor, r.NextOccurrence)
		today := r.Frequency.IndexFrom(anchor, start)
		stop := r.Frequency.IndexFrom(anchor, end)
		if r.EndDate != nil {
			stop = min(stop, r.Frequency.IndexAfter(anchor, *r.EndDate))
		}

		// Occurrences due but not generated yet all land on day one.
		overdue := int64(max(min(today, stop)-first, 0))
		for n := max(first, today); n < stop; n++ {
			day := int(r.Frequency.Occurrence(anchor, n).Sub(start) / (24 * time.Hour))
			if r.Type == models.FlowExpense {
				expense[day] += r.Amount
			} else {
				income[day] += r.Amount
			}
		}
		if r.Type == models.FlowExpense {
			expense[0] += overdue * r.Amount
		} else {
			income[0] += overdue * r.Amount
		}
	}

	balance := forecast.StartingBalance
	forecast.Points = make([]models.ForecastPoint, days)
	for i := range days {
		balance += income[i] - expense[i]
		forecast.Points[i] = models.ForecastPoint{
			Date:    start.AddDate(0, 0, i),
			Income:  income[i],
			Expense: expense[i],
			Balance: balance,
		}
	}
	return forecast, nil
}

// GenerateDue materialises every recurring occurrence due at now across all
// tenants and returns how many cash flows were written. Each recurring flow
// is processed in its own unit of work; failures are joined.
func (s *TreasuryService) GenerateDue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.storage.RecurringCashFlows().FindDue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("find due recurring cash flows: %w", err)
	}

	var (
		generated int
		errs      []error
	)
	for i := range due {
		n, err := s.generate(ctx, &due[i], now)
		if err != nil {
			errs = append(errs, fmt.Errorf("recurring cash flow %s: %w", due[i].ID, err))
			continue
		}
		generated += n
	}
	return generated, errors.Join(errs...)
}

func (s *TreasuryService) generate(ctx context.Context, flow *models.RecurringCashFlow, now time.Time) (int, error) {
	var n int
	err := s.storage.Do(ctx, func(r storage.Repositories) error {
		n = 0
		next := flow.NextOccurrence
		for !next.After(now) {
			if flow.EndDate != nil && next.After(*flow.EndDate) {
				break
			}
			recurringID := flow.ID
			err := r.CashFlows().Add(ctx, &models.CashFlow{
				ID:              uuid.New(),
				Tenant:          flow.Tenant,
				CategoryID:      flow.CategoryID,
				PaymentMethodID: flow.PaymentMethodID,
				Type:            flow.Type,
				Amount:          flow.Amount,
				Label:           flow.Label,
				OccurredAt:      next,
				RecurringID:     &recurringID,
				Audit:           models.NewAudit(systemActor, now),
			})
			if err != nil {
				return err
			}
			n++
			next = flow.OccurrenceAfter(next)
		}

		updated := *flow
		updated.NextOccurrence = next
		if updated.EndDate != nil && next.After(*updated.EndDate) {
			updated.IsActif = false
		}
		updated.Touch(systemActor, now)
		return r.RecurringCashFlows().Update(ctx, &updated)
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *TreasuryService) checkReferences(
	ctx context.Context,
	r storage.Repositories,
	tenant models.Tenant,
	categoryID, paymentMethodID uuid.UUID,
) (*models.Category, error) {
	category, err := r.Categories().GetByID(ctx, tenant, categoryID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, util.NotFound("Catégorie %s introuvable", categoryID)
	} else if err != nil {
		return nil, err
	}

	method, err := r.PaymentMethods().GetByID(ctx, tenant, paymentMethodID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, util.NotFound("Moyen de paiement %s introuvable", paymentMethodID)
	} else if err != nil {
		return nil, err
	}
	if !method.IsActif {
		return nil, util.BadRequest("Le moyen de paiement %s est inactif", method.Name)
	}
	return category, nil
}

func checkPeriod(filter models.CashFlowFilter) error {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return util.Validation(map[string]string{"to": "to doit être postérieure à from"})
	}
	return nil
}

func truncateToDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
