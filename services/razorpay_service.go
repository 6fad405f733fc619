package services

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ayush1910-maker/stitching-store-api/config"
)

// GatewayOrder is a payment intent registered with Razorpay.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"` // paise
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// GatewayRefund is a refund processed by Razorpay.
type GatewayRefund struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"` // paise
	Status    string `json:"status"`
}

// GatewayPayout is a RazorpayX payout to a fund account.
type GatewayPayout struct {
	ID          string `json:"id"`
	Amount      int64  `json:"amount"` // paise
	Currency    string `json:"currency"`
	Status      string `json:"status"`
	ReferenceID string `json:"reference_id"`
}

// PayoutFundAccount describes where a payout lands: either a UPI address or
// a bank account, plus contact details for the recipient.
type PayoutFundAccount struct {
	UPIID             string
	AccountHolderName string
	AccountNumber     string
	IFSCCode          string
	ContactName       string
	ContactEmail      string
	ContactPhone      string
	ContactReference  string
}

// RazorpayInterface defines the gateway operations the payment engine needs.
// All calls are bounded by the underlying HTTP client timeout; a timeout or
// 5xx surfaces as an error the caller treats as retryable.
type RazorpayInterface interface {
	CreateOrder(amountPaise int64, currency, receipt string, notes map[string]string) (*GatewayOrder, error)
	CreateRefund(gatewayPaymentID string, amountPaise int64) (*GatewayRefund, error)
	CreatePayout(sourceAccountNumber string, fund PayoutFundAccount, amountPaise int64, mode, purpose, narration, referenceID string) (*GatewayPayout, error)
}

// RazorpayService talks to the Razorpay REST API using key id/secret basic
// auth.
type RazorpayService struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
}

var razorpayServiceInstance RazorpayInterface

// InitRazorpayService initializes the Razorpay service from configuration
func InitRazorpayService(cfg *config.Config) RazorpayInterface {
	razorpayServiceInstance = &RazorpayService{
		baseURL:   "https://api.razorpay.com/v1",
		keyID:     cfg.RazorpayKeyID,
		keySecret: cfg.RazorpayKeySecret,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	return razorpayServiceInstance
}

// GetRazorpayService returns the initialized Razorpay service instance
func GetRazorpayService() RazorpayInterface {
	return razorpayServiceInstance
}

// SetRazorpayService sets the Razorpay service instance (primarily for testing)
func SetRazorpayService(service RazorpayInterface) {
	razorpayServiceInstance = service
}

// CreateOrder registers a payment intent with the gateway
func (s *RazorpayService) CreateOrder(amountPaise int64, currency, receipt string, notes map[string]string) (*GatewayOrder, error) {
	payload := map[string]interface{}{
		"amount":   amountPaise,
		"currency": currency,
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		payload["notes"] = notes
	}

	var order GatewayOrder
	if err := s.post("/orders", payload, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CreateRefund refunds (part of) a captured payment at the gateway
func (s *RazorpayService) CreateRefund(gatewayPaymentID string, amountPaise int64) (*GatewayRefund, error) {
	payload := map[string]interface{}{
		"amount": amountPaise,
	}

	var refund GatewayRefund
	path := fmt.Sprintf("/payments/%s/refund", gatewayPaymentID)
	if err := s.post(path, payload, &refund); err != nil {
		return nil, err
	}
	return &refund, nil
}

// CreatePayout sends money out to a tailor or delivery partner via RazorpayX
func (s *RazorpayService) CreatePayout(sourceAccountNumber string, fund PayoutFundAccount, amountPaise int64, mode, purpose, narration, referenceID string) (*GatewayPayout, error) {
	contact := map[string]interface{}{
		"name":         fund.ContactName,
		"email":        fund.ContactEmail,
		"contact":      fund.ContactPhone,
		"type":         "employee",
		"reference_id": fund.ContactReference,
	}

	var fundAccount map[string]interface{}
	if fund.UPIID != "" {
		fundAccount = map[string]interface{}{
			"account_type": "vpa",
			"vpa":          map[string]interface{}{"address": fund.UPIID},
			"contact":      contact,
		}
	} else {
		fundAccount = map[string]interface{}{
			"account_type": "bank_account",
			"bank_account": map[string]interface{}{
				"name":           fund.AccountHolderName,
				"ifsc":           fund.IFSCCode,
				"account_number": fund.AccountNumber,
			},
			"contact": contact,
		}
	}

	payload := map[string]interface{}{
		"account_number":       sourceAccountNumber,
		"fund_account":         fundAccount,
		"amount":               amountPaise,
		"currency":             "INR",
		"mode":                 mode,
		"purpose":              purpose,
		"queue_if_low_balance": true,
		"narration":            narration,
		"reference_id":         referenceID,
	}

	var payout GatewayPayout
	if err := s.post("/payouts", payload, &payout); err != nil {
		return nil, err
	}
	return &payout, nil
}

// post sends an authenticated JSON request and decodes the response
func (s *RazorpayService) post(path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode gateway request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create gateway request: %w", err)
	}
	req.SetBasicAuth(s.keyID, s.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway call failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			_ = closeErr
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return nil
}

// VerifyPaymentSignature checks the client-reported checkout signature: an
// HMAC-SHA256 of "<gatewayOrderID>|<gatewayPaymentID>" under the key secret.
func VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature, keySecret string) bool {
	mac := hmac.New(sha256.New, []byte(keySecret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// VerifyWebhookSignature checks the gateway webhook signature. The HMAC must
// be computed over the exact request body bytes as received; re-serializing
// the JSON first would break verification.
func VerifyWebhookSignature(rawBody []byte, signature, webhookSecret string) bool {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
