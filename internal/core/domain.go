package core

import (
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// Category is one of the fixed spending categories.
type Category string

const (
	CategoryFood          Category = "Food"
	CategoryTransport     Category = "Transport"
	CategoryShopping      Category = "Shopping"
	CategoryEntertainment Category = "Entertainment"
	CategoryBills         Category = "Bills"
	CategoryHealth        Category = "Health"
	CategoryOther         Category = "Other"
)

// Categories lists every recognized category in display order.
var Categories = []Category{
	CategoryFood,
	CategoryTransport,
	CategoryShopping,
	CategoryEntertainment,
	CategoryBills,
	CategoryHealth,
	CategoryOther,
}

// PaymentMethod is how an expense was paid.
type PaymentMethod string

const (
	PaymentCash       PaymentMethod = "Cash"
	PaymentCreditCard PaymentMethod = "Credit Card"
	PaymentDebitCard  PaymentMethod = "Debit Card"
	PaymentUPI        PaymentMethod = "UPI"
	PaymentOnline     PaymentMethod = "Online"
	PaymentCard       PaymentMethod = "Card"
)

var PaymentMethods = []PaymentMethod{
	PaymentCash,
	PaymentCreditCard,
	PaymentDebitCard,
	PaymentUPI,
	PaymentOnline,
	PaymentCard,
}

type (
	// Date is a calendar date. The time component is always midnight UTC.
	Date struct {
		time.Time
	}

	// Expense is a committed spending event. Once stored it is never
	// mutated; edits are a delete followed by a create.
	Expense struct {
		ID            string
		Amount        Money
		Category      Category
		Description   string
		Merchant      string
		Date          Date
		PaymentMethod PaymentMethod
	}
)

// ParseCategory matches s against the known categories, ignoring case and
// surrounding whitespace.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	return "", false
}

// NormalizeCategory returns the matching category or Other.
func NormalizeCategory(s string) Category {
	if c, ok := ParseCategory(s); ok {
		return c
	}
	return CategoryOther
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	s = strings.TrimSpace(s)
	for _, p := range PaymentMethods {
		if strings.EqualFold(s, string(p)) {
			return p, true
		}
	}
	return "", false
}

func (p PaymentMethod) Valid() bool {
	for _, known := range PaymentMethods {
		if p == known {
			return true
		}
	}
	return false
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

var dateLayouts = []string{
	DateLayout,
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
}

// ParseDate accepts ISO dates plus the day-first formats printed on most
// receipts. The result has no time component.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, ErrInvalidDate
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	if h, m, s := d.Clock(); h != 0 || m != 0 || s != 0 || d.Nanosecond() != 0 {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// SameMonth reports whether d falls in the calendar month of other.
func (d Date) SameMonth(other Date) bool {
	return d.Year() == other.Year() && d.Time.Month() == other.Time.Month()
}

func (e Expense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return NewValidationError("amount", err)
	}
	if !e.Category.Valid() {
		return NewValidationError("category", ErrInvalidCategory)
	}
	if err := e.Date.Validate(); err != nil {
		return NewValidationError("date", err)
	}
	if !e.PaymentMethod.Valid() {
		return NewValidationError("payment_method", ErrInvalidPaymentMethod)
	}
	if len(e.Description) > 200 {
		return NewValidationError("description", ErrDescriptionTooLong)
	}
	if len(e.Merchant) > 100 {
		return NewValidationError("merchant", ErrMerchantTooLong)
	}
	return nil
}
