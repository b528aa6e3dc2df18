package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/junaidrashid-git/storefront/cart"
)

var ErrEmptyCart = errors.New("cart is empty")

// Processor creates hosted payment sessions.
type Processor interface {
	CreateSession(ctx context.Context, req Request) (Session, error)
}

type Request struct {
	SessionID string
	Items     []cart.LineItem
}

// Session is the processor's handle for the hosted payment page.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// ProcessorError is a non-success answer from the payment processor.
type ProcessorError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
}

func (e *ProcessorError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("payment processor error (%d)", e.StatusCode)
	}
	return fmt.Sprintf("payment processor error (%d): %s", e.StatusCode, e.Message)
}

// ImageResolver turns catalog image references into public URLs.
type ImageResolver interface {
	URLs(refs []string) []string
}

type StripeConfig struct {
	SecretKey  string
	APIURL     string
	SuccessURL string
	CancelURL  string
	Currency   string
	HTTPClient *http.Client
	Images     ImageResolver
}

// Stripe creates Checkout Sessions through the Stripe REST API.
type Stripe struct {
	cfg    StripeConfig
	client *http.Client
}

func NewStripe(cfg StripeConfig) (*Stripe, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}
	if cfg.SuccessURL == "" || cfg.CancelURL == "" {
		return nil, fmt.Errorf("stripe success and cancel URLs are required")
	}
	if cfg.APIURL == "" {
		cfg.APIURL = "https://api.stripe.com"
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Stripe{cfg: cfg, client: client}, nil
}

func (s *Stripe) Currency() string { return s.cfg.Currency }

// CreateSession posts the line items to /v1/checkout/sessions.
func (s *Stripe) CreateSession(ctx context.Context, req Request) (Session, error) {
	if len(req.Items) == 0 {
		return Session{}, ErrEmptyCart
	}

	form := s.form(req)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(s.cfg.APIURL, "/")+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return Session{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.cfg.SecretKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return Session{}, fmt.Errorf("failed to reach payment processor: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Session{}, fmt.Errorf("failed to read payment processor response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var envelope struct {
			Error struct {
				Type    string `json:"type"`
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(body, &envelope)
		return Session{}, &ProcessorError{
			StatusCode: resp.StatusCode,
			Type:       envelope.Error.Type,
			Code:       envelope.Error.Code,
			Message:    envelope.Error.Message,
		}
	}

	var session Session
	if err := json.Unmarshal(body, &session); err != nil {
		return Session{}, fmt.Errorf("failed to parse payment processor response: %w", err)
	}
	if session.ID == "" {
		return Session{}, fmt.Errorf("payment processor returned no session id")
	}
	return session, nil
}

func (s *Stripe) form(req Request) url.Values {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("submit_type", "pay")
	form.Set("success_url", s.cfg.SuccessURL)
	form.Set("cancel_url", s.cfg.CancelURL)
	if req.SessionID != "" {
		form.Set("client_reference_id", req.SessionID)
	}

	for i, item := range req.Items {
		prefix := "line_items[" + strconv.Itoa(i) + "]"
		form.Set(prefix+"[price_data][currency]", s.cfg.Currency)
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
		form.Set(prefix+"[price_data][product_data][metadata][product_id]", item.ID)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(UnitAmount(item), 10))
		form.Set(prefix+"[quantity]", strconv.Itoa(item.Quantity))
		form.Set(prefix+"[adjustable_quantity][enabled]", "true")
		form.Set(prefix+"[adjustable_quantity][minimum]", "1")

		if s.cfg.Images != nil {
			for j, u := range s.cfg.Images.URLs(item.Images) {
				form.Set(prefix+"[price_data][product_data][images]["+strconv.Itoa(j)+"]", u)
			}
		}
	}
	return form
}

// UnitAmount is the item's unit price in the currency's minor unit, rounded half away from zero.
func UnitAmount(item cart.LineItem) int64 {
	return item.Price.Shift(2).Round(0).IntPart()
}
