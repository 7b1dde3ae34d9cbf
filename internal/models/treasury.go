package models

import (
	"time"

	"github.com/google/uuid"
)

type FlowType string

const (
	FlowIncome  FlowType = "income"
	FlowExpense FlowType = "expense"
)

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Occurrence returns the n-th occurrence (from 0) of a schedule anchored at
// anchor. Monthly occurrences keep the anchor day, clamped to the last day of
// shorter months, so a flow started on the 31st falls on Feb 28 then Mar 31.
func (f Frequency) Occurrence(anchor time.Time, n int) time.Time {
	switch f {
	case FrequencyWeekly:
		return anchor.AddDate(0, 0, 7*n)
	case FrequencyMonthly:
		y, m, d := anchor.Date()
		h, mi, sec := anchor.Clock()
		first := time.Date(y, m+time.Month(n), 1, h, mi, sec, anchor.Nanosecond(), anchor.Location())
		if last := daysIn(first); d > last {
			d = last
		}
		return time.Date(first.Year(), first.Month(), d, h, mi, sec, anchor.Nanosecond(), anchor.Location())
	default:
		return anchor.AddDate(0, 0, n)
	}
}

// IndexFrom returns the index of the first occurrence not before t.
func (f Frequency) IndexFrom(anchor, t time.Time) int {
	return f.firstIndex(anchor, t, func(occ time.Time) bool { return occ.Before(t) })
}

// IndexAfter returns the index of the first occurrence strictly after t.
func (f Frequency) IndexAfter(anchor, t time.Time) int {
	return f.firstIndex(anchor, t, func(occ time.Time) bool { return !occ.After(t) })
}

// firstIndex jumps close to t and then steps while occurrences are still passed.
// The estimate never overshoots: the occurrence before it is always before t.
func (f Frequency) firstIndex(anchor, t time.Time, passed func(time.Time) bool) int {
	n := 0
	if t.After(anchor) {
		switch f {
		case FrequencyWeekly:
			n = int(t.Sub(anchor) / (7 * 24 * time.Hour))
		case FrequencyMonthly:
			a, b := anchor.In(t.Location()), t
			n = (b.Year()-a.Year())*12 + int(b.Month()-a.Month()) - 1
		default:
			n = int(t.Sub(anchor) / (24 * time.Hour))
		}
	}
	n = max(n, 0)
	for passed(f.Occurrence(anchor, n)) {
		n++
	}
	return n
}

func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

type Category struct {
	ID          uuid.UUID `json:"id"`
	Tenant      Tenant    `json:"-"`
	Name        string    `json:"name"`
	Type        FlowType  `json:"type"`
	Description string    `json:"description,omitempty"`
	Audit
}

type CreateCategoryRequest struct {
	Name        string   `json:"name" validate:"required,max=128"`
	Type        FlowType `json:"type" validate:"required,oneof=income expense"`
	Description string   `json:"description" validate:"max=512"`
}

type PaymentMethod struct {
	ID      uuid.UUID `json:"id"`
	Tenant  Tenant    `json:"-"`
	Name    string    `json:"name"`
	IsActif bool      `json:"isActif"`
	Audit
}

type CreatePaymentMethodRequest struct {
	Name string `json:"name" validate:"required,max=128"`
}

// CashFlow amounts are in minor currency units.
type CashFlow struct {
	ID              uuid.UUID  `json:"id"`
	Tenant          Tenant     `json:"-"`
	CategoryID      uuid.UUID  `json:"categoryId"`
	PaymentMethodID uuid.UUID  `json:"paymentMethodId"`
	Type            FlowType   `json:"type"`
	Amount          int64      `json:"amount"`
	Label           string     `json:"label"`
	OccurredAt      time.Time  `json:"occurredAt"`
	RecurringID     *uuid.UUID `json:"recurringId,omitempty"`
	Audit
}

// Signed returns the amount with expenses negative.
func (c CashFlow) Signed() int64 {
	if c.Type == FlowExpense {
		return -c.Amount
	}
	return c.Amount
}

type CreateCashFlowRequest struct {
	CategoryID      uuid.UUID `json:"categoryId" validate:"required"`
	PaymentMethodID uuid.UUID `json:"paymentMethodId" validate:"required"`
	Amount          int64     `json:"amount" validate:"required,gt=0"`
	Label           string    `json:"label" validate:"required,max=256"`
	OccurredAt      time.Time `json:"occurredAt" validate:"required"`
}

type CashFlowFilter struct {
	From *time.Time
	To   *time.Time
}

type RecurringCashFlow struct {
	ID              uuid.UUID  `json:"id"`
	Tenant          Tenant     `json:"-"`
	CategoryID      uuid.UUID  `json:"categoryId"`
	PaymentMethodID uuid.UUID  `json:"paymentMethodId"`
	Type            FlowType   `json:"type"`
	Amount          int64      `json:"amount"`
	Label           string     `json:"label"`
	Frequency       Frequency  `json:"frequency"`
	StartDate       time.Time  `json:"startDate"`
	NextOccurrence  time.Time  `json:"nextOccurrence"`
	EndDate         *time.Time `json:"endDate,omitempty"`
	IsActif         bool       `json:"isActif"`
	Audit
}

// OccurrenceAfter returns the first scheduled date strictly after t. The
// schedule is always counted from StartDate, never from a clamped date.
func (r RecurringCashFlow) OccurrenceAfter(t time.Time) time.Time {
	return r.Frequency.Occurrence(r.StartDate, r.Frequency.IndexAfter(r.StartDate, t))
}

func (r RecurringCashFlow) Signed() int64 {
	if r.Type == FlowExpense {
		return -r.Amount
	}
	return r.Amount
}

type CreateRecurringCashFlowRequest struct {
	CategoryID      uuid.UUID  `json:"categoryId" validate:"required"`
	PaymentMethodID uuid.UUID  `json:"paymentMethodId" validate:"required"`
	Amount          int64      `json:"amount" validate:"required,gt=0"`
	Label           string     `json:"label" validate:"required,max=256"`
	Frequency       Frequency  `json:"frequency" validate:"required,oneof=daily weekly monthly"`
	StartDate       time.Time  `json:"startDate" validate:"required"`
	EndDate         *time.Time `json:"endDate,omitempty"`
}

type CategoryTotal struct {
	CategoryID   uuid.UUID `json:"categoryId"`
	CategoryName string    `json:"categoryName"`
	Type         FlowType  `json:"type"`
	Total        int64     `json:"total"`
}

type Dashboard struct {
	From       *time.Time      `json:"from,omitempty"`
	To         *time.Time      `json:"to,omitempty"`
	Income     int64           `json:"income"`
	Expense    int64           `json:"expense"`
	Balance    int64           `json:"balance"`
	Categories []CategoryTotal `json:"categories"`
}

type ForecastPoint struct {
	Date    time.Time `json:"date"`
	Income  int64     `json:"income"`
	Expense int64     `json:"expense"`
	Balance int64     `json:"balance"`
}

type Forecast struct {
	StartingBalance int64           `json:"startingBalance"`
	Points          []ForecastPoint `json:"points"`
}
