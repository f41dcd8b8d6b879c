package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebit_RejectsOverdraftWhole(t *testing.T) {
	e := Economy{Cash: 40}

	err := e.debit(55, "build oven")

	var econErr *EconomyError
	require.True(t, errors.As(err, &econErr))
	assert.Equal(t, "build oven", econErr.Action)
	assert.Equal(t, 55, econErr.Cost)
	assert.Equal(t, 40, econErr.Cash)
	assert.Equal(t, 40, e.Cash, "rejected debit charges nothing")
	assert.Equal(t, 0, e.Spend)
}

func TestDebit_ChargesAndTracksSpend(t *testing.T) {
	e := Economy{Cash: 100}

	require.NoError(t, e.debit(30, "build processor"))
	assert.Equal(t, 70, e.Cash)
	assert.Equal(t, 30, e.Spend)

	require.NoError(t, e.debit(0, "noop"))
	assert.Equal(t, 70, e.Cash)
}

func TestPenalize_ClampsToAvailableCash(t *testing.T) {
	e := Economy{Cash: 8}

	charged := e.penalize(25)

	assert.Equal(t, 8, charged)
	assert.Equal(t, 0, e.Cash)
	assert.Equal(t, 8, e.Spend)

	assert.Equal(t, 0, e.penalize(10), "broke stays at zero")
	assert.Equal(t, 0, e.Cash)
}

func TestCreditRevenue_IgnoresNonPositive(t *testing.T) {
	e := Economy{Cash: 10}

	e.creditRevenue(0)
	e.creditRevenue(-5)
	assert.Equal(t, 10, e.Cash)
	assert.Equal(t, 0, e.Revenue)

	e.creditRevenue(12)
	assert.Equal(t, 22, e.Cash)
	assert.Equal(t, 12, e.Revenue)
}

func TestEconomyError_Message(t *testing.T) {
	err := &EconomyError{Action: "build oven", Cost: 55, Cash: 12}
	assert.Contains(t, err.Error(), "build oven")
	assert.Contains(t, err.Error(), "55")
	assert.Contains(t, err.Error(), "12")
	assert.True(t, IsEconomyError(err))
}
