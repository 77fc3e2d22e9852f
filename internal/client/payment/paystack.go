package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shestoi/railbook/internal/service"
)

const DefaultPaystackBaseURL = "https://api.paystack.co"

// PaystackConfig configures the Paystack REST client.
type PaystackConfig struct {
	SecretKey   string
	BaseURL     string
	FrontendURL string
	HTTPTimeout time.Duration
}

// PaystackGateway implements service.PaymentGateway against the Paystack REST API.
// Amounts cross the wire in kobo.
type PaystackGateway struct {
	logger      *zap.Logger
	secretKey   string
	baseURL     string
	frontendURL string
	client      *http.Client
	now         func() time.Time
}

func NewPaystackGateway(logger *zap.Logger, cfg PaystackConfig) *PaystackGateway {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultPaystackBaseURL
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PaystackGateway{
		logger:      logger,
		secretKey:   cfg.SecretKey,
		baseURL:     baseURL,
		frontendURL: strings.TrimRight(cfg.FrontendURL, "/"),
		client:      &http.Client{Timeout: timeout},
		now:         time.Now,
	}
}

type customField struct {
	DisplayName  string `json:"display_name"`
	VariableName string `json:"variable_name"`
	Value        string `json:"value"`
}

type initializeMetadata struct {
	BookingID    string        `json:"booking_id"`
	UserID       string        `json:"user_id"`
	CustomFields []customField `json:"custom_fields"`
}

type initializePayload struct {
	Email       string             `json:"email"`
	Amount      int64              `json:"amount"`
	Reference   string             `json:"reference"`
	CallbackURL string             `json:"callback_url"`
	Metadata    initializeMetadata `json:"metadata"`
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type verifyData struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
}

type refundData struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

// Reference builds the transaction reference for a booking.
func Reference(bookingID string, at time.Time) string {
	return fmt.Sprintf("booking_%s_%d", bookingID, at.UnixMilli())
}

func toKobo(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func fromKobo(amount int64) float64 {
	return float64(amount) / 100
}

func (g *PaystackGateway) Initialize(ctx context.Context, req service.InitializeRequest) (service.Authorization, error) {
	if req.Email == "" || req.Amount <= 0 {
		return service.Authorization{}, fmt.Errorf("initialize: email and positive amount required: %w", service.ErrProviderInvalidRequest)
	}

	reference := req.Reference
	if reference == "" {
		reference = Reference(req.BookingID, g.now())
	}
	payload := initializePayload{
		Email:       req.Email,
		Amount:      toKobo(req.Amount),
		Reference:   reference,
		CallbackURL: fmt.Sprintf("%s/bookings/%s/payment-confirmation", g.frontendURL, req.BookingID),
		Metadata: initializeMetadata{
			BookingID: req.BookingID,
			UserID:    req.UserID,
			CustomFields: []customField{
				{DisplayName: "Booking ID", VariableName: "booking_id", Value: req.BookingID},
				{DisplayName: "Train", VariableName: "train_name", Value: req.TrainName},
			},
		},
	}

	var data initializeData
	if err := g.do(ctx, http.MethodPost, "/transaction/initialize", payload, &data); err != nil {
		return service.Authorization{}, fmt.Errorf("initialize: %w", err)
	}
	if data.Reference == "" {
		data.Reference = payload.Reference
	}

	g.logger.Debug("paystack transaction initialized",
		zap.String("booking_id", req.BookingID),
		zap.String("reference", data.Reference),
	)
	return service.Authorization{Reference: data.Reference, AuthorizationURL: data.AuthorizationURL}, nil
}

func (g *PaystackGateway) Verify(ctx context.Context, reference string) (service.Verification, error) {
	var data verifyData
	if err := g.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &data); err != nil {
		return service.Verification{}, fmt.Errorf("verify: %w", err)
	}

	status := service.VerificationPending
	switch data.Status {
	case "success":
		status = service.VerificationSuccess
	case "failed", "abandoned", "reversed":
		status = service.VerificationFailed
	}
	return service.Verification{Reference: reference, Status: status, Amount: fromKobo(data.Amount)}, nil
}

func (g *PaystackGateway) Refund(ctx context.Context, reference string) (service.Refund, error) {
	payload := map[string]string{
		"transaction":   reference,
		"merchant_note": "Refund for " + reference,
	}
	var data refundData
	if err := g.do(ctx, http.MethodPost, "/refund", payload, &data); err != nil {
		return service.Refund{}, fmt.Errorf("refund: %w", err)
	}
	return service.Refund{RefundID: strconv.FormatInt(data.ID, 10)}, nil
}

// do sends one request and decodes the data field of the Paystack envelope into out.
func (g *PaystackGateway) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return errors.Join(service.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Join(service.ErrProviderUnavailable, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", service.ErrTransactionNotFound, env.Message)
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", service.ErrProviderUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		if strings.Contains(strings.ToLower(env.Message), "not found") {
			return fmt.Errorf("%w: %s", service.ErrTransactionNotFound, env.Message)
		}
		return fmt.Errorf("%w: status %d: %s", service.ErrProviderInvalidRequest, resp.StatusCode, env.Message)
	}

	if decodeErr != nil {
		return fmt.Errorf("%w: decode response: %v", service.ErrProviderUnavailable, decodeErr)
	}
	if !env.Status {
		return fmt.Errorf("%w: %s", service.ErrProviderInvalidRequest, env.Message)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%w: decode data: %v", service.ErrProviderUnavailable, err)
		}
	}
	return nil
}
