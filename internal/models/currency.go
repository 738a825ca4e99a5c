package models

// Currency is an ISO-style currency code supported by the bank.
type Currency string

const (
	RUB Currency = "RUB"
	USD Currency = "USD"
	EUR Currency = "EUR"
	KZT Currency = "KZT"
	CNY Currency = "CNY"
)
