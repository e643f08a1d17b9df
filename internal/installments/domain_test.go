package installments

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDeriveStatus(t *testing.T) {
	today := date(2024, 3, 15)

	cases := []struct {
		name    string
		current Status
		dueDate time.Time
		want    Status
	}{
		{"pending past due becomes overdue", StatusPending, date(2024, 3, 14), StatusOverdue},
		{"pending due today stays pending", StatusPending, today, StatusPending},
		{"pending due tomorrow stays pending", StatusPending, date(2024, 3, 16), StatusPending},
		{"overdue with future due date flips back", StatusOverdue, date(2024, 3, 20), StatusPending},
		{"overdue due today flips back", StatusOverdue, today, StatusPending},
		{"overdue still past due stays overdue", StatusOverdue, date(2024, 3, 1), StatusOverdue},
		{"paid is terminal", StatusPaid, date(2024, 1, 1), StatusPaid},
		{"cancelled is terminal", StatusCancelled, date(2024, 1, 1), StatusCancelled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, DeriveStatus(tc.current, tc.dueDate, today))
		})
	}
}

func TestNormalizeFillsPaidDate(t *testing.T) {
	today := date(2024, 3, 15)
	inst := Installment{Status: StatusPaid, DueDate: date(2024, 2, 1)}

	Normalize(&inst, today)

	require.NotNil(t, inst.PaidDate)
	require.Equal(t, today, *inst.PaidDate)
	require.Equal(t, StatusPaid, inst.Status)
}

func TestNormalizeKeepsExplicitPaidDate(t *testing.T) {
	today := date(2024, 3, 15)
	paid := date(2024, 3, 1)
	inst := Installment{Status: StatusPaid, DueDate: date(2024, 2, 1), PaidDate: &paid}

	Normalize(&inst, today)

	require.Equal(t, paid, *inst.PaidDate)
}

func TestNormalizeDerivesOverdue(t *testing.T) {
	today := date(2024, 3, 15)
	inst := Installment{Status: StatusPending, DueDate: date(2024, 3, 10)}

	Normalize(&inst, today)

	require.Equal(t, StatusOverdue, inst.Status)
	require.Nil(t, inst.PaidDate)
}

func TestDaysOverdue(t *testing.T) {
	today := date(2024, 3, 15)

	inst := Installment{Status: StatusPending, DueDate: date(2024, 3, 10)}
	require.True(t, inst.IsOverdue(today))
	require.Equal(t, 5, inst.DaysOverdue(today))

	paid := Installment{Status: StatusPaid, DueDate: date(2024, 3, 10)}
	require.False(t, paid.IsOverdue(today))
	require.Equal(t, 0, paid.DaysOverdue(today))
}

func TestBudgetExceededError(t *testing.T) {
	err := &BudgetExceededError{Attempted: 250, Remaining: 200}
	require.Contains(t, err.Error(), "250.00")
	require.Contains(t, err.Error(), "200.00")
}
