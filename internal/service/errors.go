package service

import "fmt"

// ErrMissingRate is returned when a currency is absent from the resolved snapshot.
// It is the only conversion failure callers are expected to handle.
type ErrMissingRate struct {
	Currency string
	Base     string
	Date     string
}

func (e ErrMissingRate) Error() string {
	return fmt.Sprintf("no rate for %s in %s snapshot of %s", e.Currency, e.Base, e.Date)
}

// ErrInvalidAmount is returned for negative conversion amounts
type ErrInvalidAmount struct {
	Amount string
}

func (e ErrInvalidAmount) Error() string {
	return "invalid amount: " + e.Amount
}
