package dto

// PriceOption is one purchasable billing interval.
type PriceOption struct {
	Price    int    `json:"price"`
	Interval string `json:"interval"`
}

// PricingResponse is the static upgrade catalog.
type PricingResponse struct {
	Currency string      `json:"currency"`
	Monthly  PriceOption `json:"monthly"`
	Yearly   PriceOption `json:"yearly"`
	Provider string      `json:"provider"`
}
