package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  TxnType = "income"
	Expense TxnType = "expense"

	RegimeOld TaxRegime = "old"
	RegimeNew TaxRegime = "new"
)

type (
	TxnType   string
	TaxRegime string

	Date struct {
		time.Time
	}

	// Transaction is a single income or expense entry. Immutable once
	// created; removed by id only, never updated in place.
	Transaction struct {
		ID       int64   `json:"id"`
		Type     TxnType `json:"type"`
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
		Date     Date    `json:"date"`
		Note     string  `json:"note,omitempty"`
	}

	// Budget is a per-category monthly cap. At most one exists per
	// (category, month) pair.
	Budget struct {
		ID       int64   `json:"id"`
		Category string  `json:"category"`
		Limit    float64 `json:"limit"`
		Spent    float64 `json:"spent"`
		Month    string  `json:"month"` // YYYY-MM
	}

	// Goal is a savings target. Either TargetDate or Months carries the
	// deadline, depending on the entry path.
	Goal struct {
		ID         int64   `json:"id"`
		Name       string  `json:"name"`
		Target     float64 `json:"target"`
		Saved      float64 `json:"saved"`
		TargetDate Date    `json:"date,omitempty"`
		Months     int     `json:"months,omitempty"`
		Color      string  `json:"color,omitempty"`
		Icon       string  `json:"iconClass,omitempty"`
	}

	// TaxSnapshot is the last submitted tax estimate. Fully replaced on
	// every submission.
	TaxSnapshot struct {
		Income   float64   `json:"income"`
		Taxable  float64   `json:"taxable"`
		Regime   TaxRegime `json:"regime"`
		Estimate int64     `json:"estimate"`
	}

	// AllocationPlan is a single monthly split across essential,
	// discretionary and investment spending, distinct from per-category
	// Budget records.
	AllocationPlan struct {
		Month     string  `json:"month"`
		Total     float64 `json:"total"`
		Essential int     `json:"essential"`
		Wants     int     `json:"wants"`
		Invest    int     `json:"invest"`
	}
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrInvalidType    = errors.New("invalid transaction type")
	ErrInvalidDate    = errors.New("invalid date")
	ErrInvalidMonth   = errors.New("invalid month key")
	ErrEmptyCategory  = errors.New("empty category")
	ErrEmptyName      = errors.New("empty name")
	ErrInvalidRegime  = errors.New("invalid tax regime")
	ErrUnbalancedPlan = errors.New("allocation percentages must sum to 100")
)

const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a calendar date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// MonthKey returns the YYYY-MM bucket key used by every monthly aggregate.
// Month is 1-indexed and zero-padded.
func (d Date) MonthKey() string {
	return fmt.Sprintf("%04d-%02d", d.Year(), int(d.Time.Month()))
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// MarshalJSON encodes the date as a bare YYYY-MM-DD string, the durable
// layout shared with the exported JSON dump.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ValidMonthKey reports whether s is a well-formed YYYY-MM key.
func ValidMonthKey(s string) bool {
	_, err := time.Parse("2006-01", s)
	return err == nil
}

func (t TxnType) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidType
	}
}

func (t Transaction) Validate() error {
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.Amount <= 0 {
		return ErrInvalidAmount
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if b.Limit <= 0 {
		return ErrInvalidAmount
	}
	if b.Spent < 0 {
		return ErrInvalidAmount
	}
	if !ValidMonthKey(b.Month) {
		return ErrInvalidMonth
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if g.Target <= 0 {
		return ErrInvalidAmount
	}
	if g.Saved < 0 {
		return ErrInvalidAmount
	}
	if g.TargetDate.IsZero() && g.Months <= 0 {
		return errors.New("goal needs a target date or a month count")
	}
	return nil
}

func (r TaxRegime) Validate() error {
	switch r {
	case RegimeOld, RegimeNew:
		return nil
	default:
		return ErrInvalidRegime
	}
}

// Validate enforces the balanced-plan invariant: the three shares must sum
// to exactly 100.
func (p AllocationPlan) Validate() error {
	if !ValidMonthKey(p.Month) {
		return ErrInvalidMonth
	}
	if p.Total < 0 {
		return ErrInvalidAmount
	}
	if p.Essential < 0 || p.Wants < 0 || p.Invest < 0 {
		return ErrUnbalancedPlan
	}
	if p.Essential+p.Wants+p.Invest != 100 {
		return ErrUnbalancedPlan
	}
	return nil
}
