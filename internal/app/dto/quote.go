package dto

import "time"

const (
	PriceSourceExternal = "external"
	PriceSourceFallback = "fallback"
)

type Quote struct {
	ListingID string             `json:"listing_id"`
	CheckIn   time.Time          `json:"check_in"`
	CheckOut  time.Time          `json:"check_out"`
	Available bool               `json:"available"`
	Conflicts []string           `json:"conflicts,omitempty"`
	Price     *PriceBreakdownDTO `json:"price,omitempty"`
	Source    string             `json:"price_source,omitempty"`
}

type CalendarDay struct {
	Date      string `json:"date"`
	Available bool   `json:"available"`
}

type Calendar struct {
	ListingID string        `json:"listing_id"`
	From      string        `json:"from"`
	To        string        `json:"to"`
	Days      []CalendarDay `json:"days"`
}
