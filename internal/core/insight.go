package core

import "github.com/shopspring/decimal"

// LargestExpense references the single biggest expense of a period.
type LargestExpense struct {
	Category string
	Amount   decimal.Decimal
}

// RawSnapshot is the aggregate payload returned by an insight service.
// Any field may be absent.
type RawSnapshot struct {
	Total              *decimal.Decimal
	TransactionCount   *int
	AverageTransaction *decimal.Decimal
	ByCategory         map[string]decimal.Decimal
	Largest            *LargestExpense
	MonthOverMonth     *decimal.Decimal
}

// RawPrediction is a spending forecast for the next month. A zero
// PredictedAmount means no forecast is available and Message explains why.
type RawPrediction struct {
	PredictedAmount decimal.Decimal
	BasedOnMonths   int
	Confidence      string
	Message         *string
}
