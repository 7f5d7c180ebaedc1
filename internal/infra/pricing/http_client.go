package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"stayengine/internal/app/policies"
	domainbooking "stayengine/internal/domain/booking"
	domainpricing "stayengine/internal/domain/pricing"
	"stayengine/internal/domain/shared/daterange"
)

const dateLayout = "2006-01-02"

var (
	ErrNotConfigured = errors.New("pricing: http client not configured")
	ErrBadResponse   = errors.New("pricing: unusable pricing response")
)

// HTTPClient asks a remote pricing service for a stay's breakdown. The
// service may return a full breakdown or only discount amounts; in the
// latter case the breakdown is computed locally with those amounts.
type HTTPClient struct {
	Client   *http.Client
	Endpoint string
	Rates    domainbooking.Rates
	Logger   *slog.Logger
}

func NewHTTPClient(endpoint string, timeout time.Duration, rates domainbooking.Rates, logger *slog.Logger) *HTTPClient {
	return &HTTPClient{
		Client:   &http.Client{Timeout: timeout},
		Endpoint: endpoint,
		Rates:    rates,
		Logger:   logger,
	}
}

type quoteRequest struct {
	ListingID   string       `json:"listing_id"`
	CheckIn     string       `json:"check_in"`
	CheckOut    string       `json:"check_out"`
	Nights      int          `json:"nights"`
	NightlyRate float64      `json:"nightly_rate"`
	Currency    string       `json:"currency"`
	Guests      guestPayload `json:"guests"`
}

type guestPayload struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`
	Pets     int `json:"pets"`
}

type discountsPayload struct {
	Weekly  *float64 `json:"weekly"`
	Monthly *float64 `json:"monthly"`
	Coupon  *float64 `json:"coupon"`
}

type quoteResponse struct {
	Nights      int              `json:"nights"`
	BasePrice   float64          `json:"base_price"`
	Subtotal    float64          `json:"subtotal"`
	CleaningFee float64          `json:"cleaning_fee"`
	ServiceFee  float64          `json:"service_fee"`
	Taxes       float64          `json:"taxes"`
	Discounts   discountsPayload `json:"discounts"`
	TotalPrice  float64          `json:"total_price"`
	Currency    string           `json:"currency"`
}

func (c *HTTPClient) Quote(ctx context.Context, req policies.QuoteRequest) (domainpricing.PriceBreakdown, error) {
	var zero domainpricing.PriceBreakdown
	if c == nil || c.Client == nil || c.Endpoint == "" {
		return zero, ErrNotConfigured
	}
	if req.Listing == nil {
		return zero, errors.New("pricing: listing missing")
	}
	dr, err := daterange.New(req.CheckIn, req.CheckOut)
	if err != nil {
		return zero, err
	}

	body, err := json.Marshal(quoteRequest{
		ListingID:   string(req.Listing.ID),
		CheckIn:     dr.CheckIn.Format(dateLayout),
		CheckOut:    dr.CheckOut.Format(dateLayout),
		Nights:      dr.Nights(),
		NightlyRate: req.Listing.NightlyRate,
		Currency:    req.Listing.Currency,
		Guests:      guestPayload(req.Guests),
	})
	if err != nil {
		return zero, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return zero, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(httpReq)
	if err != nil {
		c.logError("pricing request failed", string(req.Listing.ID), err)
		return zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("pricing service returned status %d: %s", resp.StatusCode, string(snippet))
		c.logError("pricing service error", string(req.Listing.ID), err)
		return zero, err
	}

	var out quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.logError("pricing decode failed", string(req.Listing.ID), err)
		return zero, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}

	breakdown, err := c.toBreakdown(req, dr.Nights(), out)
	if err != nil {
		c.logError("pricing response rejected", string(req.Listing.ID), err)
		return zero, err
	}
	return breakdown, nil
}

func (c *HTTPClient) toBreakdown(req policies.QuoteRequest, nights int, out quoteResponse) (domainpricing.PriceBreakdown, error) {
	if out.Subtotal > 0 && out.TotalPrice >= 0 && out.Nights > 0 {
		b := domainpricing.PriceBreakdown{
			Nights:      out.Nights,
			BasePrice:   out.BasePrice,
			Subtotal:    out.Subtotal,
			CleaningFee: out.CleaningFee,
			ServiceFee:  out.ServiceFee,
			Taxes:       out.Taxes,
			Discounts: domainpricing.DiscountBreakdown{
				Weekly:  valueOr(out.Discounts.Weekly),
				Monthly: valueOr(out.Discounts.Monthly),
				Coupon:  valueOr(out.Discounts.Coupon),
			},
			TotalPrice: out.TotalPrice,
			Currency:   out.Currency,
		}
		if b.Currency == "" {
			b.Currency = req.Listing.Currency
		}
		if b.Nights != nights {
			return domainpricing.PriceBreakdown{}, fmt.Errorf("%w: %d nights priced for a %d night stay", ErrBadResponse, b.Nights, nights)
		}
		if err := b.ValidateFor(req.Listing.Currency); err != nil {
			return domainpricing.PriceBreakdown{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
		}
		return b, nil
	}

	in := domainpricing.InputFromListing(req.Listing, nights)
	serviceFee, tax := c.Rates.ServiceFee, c.Rates.Tax
	in.ServiceFeeRate = &serviceFee
	in.TaxRate = &tax
	if in.Discounts == nil {
		in.Discounts = &domainpricing.Discounts{}
	}
	in.Discounts.WeeklyAmount = out.Discounts.Weekly
	in.Discounts.MonthlyAmount = out.Discounts.Monthly
	in.Discounts.CouponAmount = out.Discounts.Coupon
	return domainpricing.Calculate(in)
}

func valueOr(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func (c *HTTPClient) logError(msg, listingID string, err error) {
	if c.Logger == nil {
		return
	}
	c.Logger.Error(msg, "listing_id", listingID, "error", err)
}

var _ policies.PricingPort = (*HTTPClient)(nil)
