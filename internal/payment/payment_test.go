package payment

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbright/trustpay/internal/fields"
)

var fixedNow = time.Date(2026, time.October, 16, 14, 5, 9, 0, time.UTC)

func completeValues() map[fields.ID]string {
	return map[fields.ID]string{
		fields.Name:       "João Da Silva",
		fields.Email:      "joao@gmail.com",
		fields.CPF:        "111.444.777-35",
		fields.CardNumber: "4111 1111 1111 1111",
		fields.CardHolder: "JOÃO DA SILVA",
		fields.Expiry:     "12/30",
		fields.CVV:        "123",
	}
}

func newTestSimulator(opts ...Option) *Simulator {
	base := []Option{
		WithDelay(0),
		WithClock(func() time.Time { return fixedNow }),
		WithRandom(func(int) int { return 4242 }),
	}
	return NewSimulator(fields.NewCatalog(fields.Options{}), append(base, opts...)...)
}

func TestProcessApprovesCompleteOrder(t *testing.T) {
	t.Parallel()

	receipt, err := newTestSimulator().Process(context.Background(), NewOrder(completeValues()))
	require.NoError(t, err)
	require.Equal(t, "TP-2026-004242", receipt.TransactionID)
	require.Equal(t, fixedNow, receipt.ProcessedAt)
	require.Equal(t, "1111", receipt.CardLast4)
	require.Equal(t, "R$ 154,40", receipt.AmountText())
	require.Equal(t, "16/10/2026 14:05:09", receipt.TimestampText())
}

func TestProcessRejectsIncompleteOrder(t *testing.T) {
	t.Parallel()

	values := completeValues()
	delete(values, fields.CPF)
	values[fields.CVV] = "  "

	_, err := newTestSimulator().Process(context.Background(), NewOrder(values))
	require.ErrorIs(t, err, ErrIncompleteOrder)
	require.Contains(t, err.Error(), "cpf")
	require.Contains(t, err.Error(), "cvv")
	require.Equal(t, "incomplete", Kind(err))
}

func TestProcessWaitsForDelay(t *testing.T) {
	t.Parallel()

	sim := newTestSimulator(WithDelay(30 * time.Millisecond))
	start := time.Now()
	_, err := sim.Process(context.Background(), NewOrder(completeValues()))
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestProcessHonorsContextCancel(t *testing.T) {
	t.Parallel()

	sim := newTestSimulator(WithDelay(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.Process(ctx, NewOrder(completeValues()))
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, "canceled", Kind(err))
}

func TestProcessDeclinedSuffix(t *testing.T) {
	t.Parallel()

	values := completeValues()
	values[fields.CardNumber] = "4000 0000 0000 0002"

	_, err := newTestSimulator(WithDeclinedSuffix("0002")).Process(context.Background(), NewOrder(values))
	require.ErrorIs(t, err, ErrDeclined)
	require.Equal(t, "declined", Kind(err))
}

func TestNewOrderCopiesValues(t *testing.T) {
	t.Parallel()

	values := completeValues()
	order := NewOrder(values)
	values[fields.Name] = "changed"
	require.Equal(t, "João Da Silva", order.Values[fields.Name])
}

func TestTransactionIDFormat(t *testing.T) {
	t.Parallel()

	require.Equal(t, "TP-2026-000007", TransactionID(fixedNow, 7))
	require.Equal(t, "TP-2026-999999", TransactionID(fixedNow, 999999))
	require.Regexp(t, `^TP-\d{4}-\d{6}$`, TransactionID(time.Now(), 123456))
}

func TestKind(t *testing.T) {
	t.Parallel()

	require.Empty(t, Kind(nil))
	require.Equal(t, "timeout", Kind(fmt.Errorf("wrap: %w", context.DeadlineExceeded)))
	require.Equal(t, "internal", Kind(errors.New("boom")))
}

func TestAmountTextCustomCurrency(t *testing.T) {
	t.Parallel()

	require.Equal(t, "USD 10,05", Receipt{AmountCents: 1005, Currency: "USD"}.AmountText())
}
