// Package payment simulates the checkout payment call.
package payment

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rbright/trustpay/internal/fields"
)

var (
	// ErrIncompleteOrder means a required field was missing at submission.
	ErrIncompleteOrder = errors.New("order is incomplete")
	// ErrDeclined means the simulated issuer refused the card.
	ErrDeclined = errors.New("payment declined")
)

// Kind maps err to a stable label for logs and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDeclined):
		return "declined"
	case errors.Is(err, ErrIncompleteOrder):
		return "incomplete"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}

// Order is the set of confirmed checkout values.
type Order struct {
	Values map[fields.ID]string
}

// NewOrder copies values so later dialogue changes cannot alter an order in
// flight.
func NewOrder(values map[fields.ID]string) Order {
	copied := make(map[fields.ID]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return Order{Values: copied}
}

// Missing returns the catalog fields absent from the order, in catalog order.
func (o Order) Missing(catalog *fields.Catalog) []fields.ID {
	var missing []fields.ID
	for _, spec := range catalog.Specs() {
		if strings.TrimSpace(o.Values[spec.ID]) == "" {
			missing = append(missing, spec.ID)
		}
	}
	return missing
}

// Receipt is the outcome of an approved payment.
type Receipt struct {
	TransactionID string
	ProcessedAt   time.Time
	AmountCents   int64
	Currency      string
	CardLast4     string
}

// AmountText renders the amount in pt-BR notation, e.g. "R$ 154,40".
func (r Receipt) AmountText() string {
	symbol := r.Currency
	if symbol == "BRL" || symbol == "" {
		symbol = "R$"
	}
	return fmt.Sprintf("%s %d,%02d", symbol, r.AmountCents/100, r.AmountCents%100)
}

// TimestampText renders the processing time as dd/mm/yyyy hh:mm:ss.
func (r Receipt) TimestampText() string {
	return r.ProcessedAt.Format("02/01/2006 15:04:05")
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithDelay sets the simulated processing time.
func WithDelay(d time.Duration) Option {
	return func(s *Simulator) { s.delay = d }
}

// WithAmount sets the charged amount.
func WithAmount(cents int64, currency string) Option {
	return func(s *Simulator) {
		s.amountCents = cents
		s.currency = currency
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

// WithRandom overrides the transaction number source. It must return a value
// in [0, n).
func WithRandom(intn func(n int) int) Option {
	return func(s *Simulator) { s.intn = intn }
}

// WithDeclinedSuffix declines cards whose digits end with suffix.
func WithDeclinedSuffix(suffix string) Option {
	return func(s *Simulator) { s.declinedSuffix = strings.TrimSpace(suffix) }
}

// Simulator approves complete orders after a fixed delay.
type Simulator struct {
	catalog        *fields.Catalog
	delay          time.Duration
	amountCents    int64
	currency       string
	declinedSuffix string
	now            func() time.Time
	intn           func(n int) int
}

// NewSimulator builds a simulator that checks orders against catalog.
func NewSimulator(catalog *fields.Catalog, opts ...Option) *Simulator {
	s := &Simulator{
		catalog:     catalog,
		delay:       3 * time.Second,
		amountCents: 15440,
		currency:    "BRL",
		now:         time.Now,
		intn:        rand.IntN,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process waits out the simulated delay and returns a receipt. The wait
// ends early only when ctx is cancelled.
func (s *Simulator) Process(ctx context.Context, order Order) (Receipt, error) {
	if missing := order.Missing(s.catalog); len(missing) > 0 {
		return Receipt{}, fmt.Errorf("%w: missing %v", ErrIncompleteOrder, missing)
	}

	if err := SleepOrDone(ctx, s.delay); err != nil {
		return Receipt{}, err
	}

	digits := strings.ReplaceAll(order.Values[fields.CardNumber], " ", "")
	if s.declinedSuffix != "" && strings.HasSuffix(digits, s.declinedSuffix) {
		return Receipt{}, fmt.Errorf("%w: card ending %s", ErrDeclined, s.declinedSuffix)
	}

	processedAt := s.now()
	last4 := digits
	if len(last4) > 4 {
		last4 = last4[len(last4)-4:]
	}
	return Receipt{
		TransactionID: TransactionID(processedAt, s.intn(1_000_000)),
		ProcessedAt:   processedAt,
		AmountCents:   s.amountCents,
		Currency:      s.currency,
		CardLast4:     last4,
	}, nil
}

// TransactionID formats TP-<year>-<six digit sequence>.
func TransactionID(at time.Time, seq int) string {
	return fmt.Sprintf("TP-%d-%06d", at.Year(), seq%1_000_000)
}

// SleepOrDone waits for the duration or returns early on context cancellation.
func SleepOrDone(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
