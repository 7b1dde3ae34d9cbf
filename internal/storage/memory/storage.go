package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"

	"github.com/rryowa/backoffice/internal/models"
	"github.com/rryowa/backoffice/internal/storage"
)

type state struct {
	refreshTokens      map[uuid.UUID]models.RefreshToken
	apiKeys            map[uuid.UUID]models.APIKey
	applications       map[uuid.UUID]models.Application
	menus              map[uuid.UUID]models.Menu
	categories         map[uuid.UUID]models.Category
	paymentMethods     map[uuid.UUID]models.PaymentMethod
	cashFlows          map[uuid.UUID]models.CashFlow
	recurringCashFlows map[uuid.UUID]models.RecurringCashFlow
	articles           map[uuid.UUID]models.Article
	stockMovements     map[uuid.UUID]models.StockMovement
}

func newState() *state {
	return &state{
		refreshTokens:      make(map[uuid.UUID]models.RefreshToken),
		apiKeys:            make(map[uuid.UUID]models.APIKey),
		applications:       make(map[uuid.UUID]models.Application),
		menus:              make(map[uuid.UUID]models.Menu),
		categories:         make(map[uuid.UUID]models.Category),
		paymentMethods:     make(map[uuid.UUID]models.PaymentMethod),
		cashFlows:          make(map[uuid.UUID]models.CashFlow),
		recurringCashFlows: make(map[uuid.UUID]models.RecurringCashFlow),
		articles:           make(map[uuid.UUID]models.Article),
		stockMovements:     make(map[uuid.UUID]models.StockMovement),
	}
}

func (s *state) clone() *state {
	return &state{
		refreshTokens:      maps.Clone(s.refreshTokens),
		apiKeys:            maps.Clone(s.apiKeys),
		applications:       maps.Clone(s.applications),
		menus:              maps.Clone(s.menus),
		categories:         maps.Clone(s.categories),
		paymentMethods:     maps.Clone(s.paymentMethods),
		cashFlows:          maps.Clone(s.cashFlows),
		recurringCashFlows: maps.Clone(s.recurringCashFlows),
		articles:           maps.Clone(s.articles),
		stockMovements:     maps.Clone(s.stockMovements),
	}
}

// Storage keeps everything in process memory. Do serialises units of work
// and restores a snapshot when fn fails.
type Storage struct {
	mu sync.Mutex
	st *state
	*repositories
}

var _ storage.Storage = (*Storage)(nil)

func NewStorage() *Storage {
	s := &Storage{st: newState()}
	s.repositories = &repositories{s: s}
	return s
}

func (s *Storage) Do(ctx context.Context, fn func(r storage.Repositories) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	defer func() {
		if p := recover(); p != nil {
			s.st = snapshot
			panic(p)
		}
		if err != nil {
			s.st = snapshot
		}
	}()

	return fn(&repositories{s: s, inTx: true})
}

func (s *Storage) Ping(context.Context) error { return nil }

// repositories inside Do run with the storage lock already held.
type repositories struct {
	s    *Storage
	inTx bool
}

func (r *repositories) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r *repositories) RefreshTokens() storage.RefreshTokenRepository { return refreshTokenRepo{r} }
func (r *repositories) APIKeys() storage.APIKeyRepository             { return apiKeyRepo{r} }
func (r *repositories) Applications() storage.ApplicationRepository   { return applicationRepo{r} }
func (r *repositories) Menus() storage.MenuRepository                 { return menuRepo{r} }
func (r *repositories) Categories() storage.CategoryRepository        { return categoryRepo{r} }
func (r *repositories) PaymentMethods() storage.PaymentMethodRepository {
	return paymentMethodRepo{r}
}
func (r *repositories) CashFlows() storage.CashFlowRepository { return cashFlowRepo{r} }
func (r *repositories) RecurringCashFlows() storage.RecurringCashFlowRepository {
	return recurringCashFlowRepo{r}
}
func (r *repositories) Articles() storage.ArticleRepository { return articleRepo{r} }
func (r *repositories) StockMovements() storage.StockMovementRepository {
	return stockMovementRepo{r}
}
