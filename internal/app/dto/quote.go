package dto

import domainpricing "vehiclerental/internal/domain/pricing"

type Quote struct {
	Days        int     `json:"days"`
	PricePerDay float64 `json:"pricePerDay"`
	TotalPrice  float64 `json:"totalPrice"`
	Currency    string  `json:"currency"`
}

func MapQuote(q domainpricing.Quotation) Quote {
	return Quote{
		Days:        q.Days,
		PricePerDay: q.PerDay.Major(),
		TotalPrice:  q.Total.Major(),
		Currency:    q.Total.Currency,
	}
}
