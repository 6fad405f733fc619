package services

import (
	"fmt"
	"sync"
)

// MockRazorpayService is an in-memory implementation of RazorpayInterface for
// testing. It records every call and can be told to fail.
type MockRazorpayService struct {
	mu sync.Mutex

	orderCounter  int
	refundCounter int
	payoutCounter int

	CreatedOrders  []*GatewayOrder
	CreatedRefunds []*GatewayRefund
	CreatedPayouts []*GatewayPayout

	// FailNextCall makes the next gateway call return an error, simulating a
	// network failure or gateway 5xx.
	FailNextCall bool

	// PayoutStatus is the status returned for created payouts ("processed"
	// by default).
	PayoutStatus string
}

// NewMockRazorpayService creates a new mock gateway
func NewMockRazorpayService() *MockRazorpayService {
	return &MockRazorpayService{PayoutStatus: "processed"}
}

// SetAsMockForTesting sets this mock as the global Razorpay service instance for testing
func (m *MockRazorpayService) SetAsMockForTesting() {
	SetRazorpayService(m)
}

func (m *MockRazorpayService) failIfRequested() error {
	if m.FailNextCall {
		m.FailNextCall = false
		return fmt.Errorf("gateway call failed: simulated network error")
	}
	return nil
}

// CreateOrder simulates registering a payment intent
func (m *MockRazorpayService) CreateOrder(amountPaise int64, currency, receipt string, notes map[string]string) (*GatewayOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failIfRequested(); err != nil {
		return nil, err
	}

	m.orderCounter++
	order := &GatewayOrder{
		ID:       fmt.Sprintf("order_mock%04d", m.orderCounter),
		Amount:   amountPaise,
		Currency: currency,
		Receipt:  receipt,
		Status:   "created",
	}
	m.CreatedOrders = append(m.CreatedOrders, order)
	return order, nil
}

// CreateRefund simulates a gateway refund
func (m *MockRazorpayService) CreateRefund(gatewayPaymentID string, amountPaise int64) (*GatewayRefund, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failIfRequested(); err != nil {
		return nil, err
	}

	m.refundCounter++
	refund := &GatewayRefund{
		ID:        fmt.Sprintf("rfnd_mock%04d", m.refundCounter),
		PaymentID: gatewayPaymentID,
		Amount:    amountPaise,
		Status:    "processed",
	}
	m.CreatedRefunds = append(m.CreatedRefunds, refund)
	return refund, nil
}

// CreatePayout simulates a RazorpayX payout
func (m *MockRazorpayService) CreatePayout(sourceAccountNumber string, fund PayoutFundAccount, amountPaise int64, mode, purpose, narration, referenceID string) (*GatewayPayout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failIfRequested(); err != nil {
		return nil, err
	}

	m.payoutCounter++
	payout := &GatewayPayout{
		ID:          fmt.Sprintf("pout_mock%04d", m.payoutCounter),
		Amount:      amountPaise,
		Currency:    "INR",
		Status:      m.PayoutStatus,
		ReferenceID: referenceID,
	}
	m.CreatedPayouts = append(m.CreatedPayouts, payout)
	return payout, nil
}

// OrderCount returns how many gateway orders were created (for assertions)
func (m *MockRazorpayService) OrderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.CreatedOrders)
}

// Clear resets all recorded calls
func (m *MockRazorpayService) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreatedOrders = nil
	m.CreatedRefunds = nil
	m.CreatedPayouts = nil
	m.orderCounter = 0
	m.refundCounter = 0
	m.payoutCounter = 0
}
