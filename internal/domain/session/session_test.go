package session_test

import (
	"errors"
	"testing"

	"github.com/Zhima-Mochi/vending-machine/internal/domain/session"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/till"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycleStates(t *testing.T) {
	t.Parallel()

	s, err := session.New("s1", 1, 15)
	require.NoError(t, err)
	assert.Equal(t, session.StateSelected, s.State())
	assert.Equal(t, session.PaymentNotEnough, s.PaymentStatus())

	require.NoError(t, s.Insert(10))
	assert.Equal(t, session.StatePaying, s.State())

	require.NoError(t, s.Insert(5))
	assert.Equal(t, session.StateReady, s.State())
	assert.Equal(t, session.PaymentEnough, s.PaymentStatus())

	require.NoError(t, s.Insert(1))
	assert.Equal(t, session.StateOverpaid, s.State())
	assert.Equal(t, session.PaymentExcess, s.PaymentStatus())
	assert.EqualValues(t, 1, s.Change())

	require.NoError(t, s.Confirm())
	assert.Equal(t, session.StateConfirmed, s.State())
}

func TestConfirmedIsTerminal(t *testing.T) {
	t.Parallel()

	s, err := session.New("s1", 1, 10)
	require.NoError(t, err)
	require.NoError(t, s.Insert(10))
	require.NoError(t, s.Confirm())

	before := *s
	assert.ErrorIs(t, s.Insert(10), session.ErrAlreadyConfirmed)
	assert.ErrorIs(t, s.Confirm(), session.ErrAlreadyConfirmed)
	assert.Equal(t, before, *s)
}

func TestInsufficientPaymentCarriesAmounts(t *testing.T) {
	t.Parallel()

	s, err := session.New("s1", 1, 20)
	require.NoError(t, err)
	require.NoError(t, s.Insert(10))

	err = s.CheckPayable()
	require.ErrorIs(t, err, session.ErrInsufficientPayment)

	var ipe *session.InsufficientPaymentError
	require.True(t, errors.As(err, &ipe))
	assert.EqualValues(t, 10, ipe.Paid)
	assert.EqualValues(t, 20, ipe.Price)
	assert.False(t, s.Confirmed)
}

func TestInsertRejectsNonPositive(t *testing.T) {
	t.Parallel()

	s, err := session.New("s1", 1, 20)
	require.NoError(t, err)
	assert.ErrorIs(t, s.Insert(0), till.ErrInvalidDenomination)
	assert.Zero(t, s.Paid)
}

func TestNewRejectsNonPositivePrice(t *testing.T) {
	t.Parallel()

	_, err := session.New("s1", 1, 0)
	assert.ErrorIs(t, err, session.ErrInvalidPrice)
}
