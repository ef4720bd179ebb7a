package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"card-terminal/pkg/apperror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmount_RoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		currency  string
		wantMinor uint64
	}{
		{"zero-decimal yen", "100", "jpy", 100},
		{"euro with cents", "10.50", "eur", 1050},
		{"one cent", "0.01", "usd", 1},
		{"won", "15000", "KRW", 15000},
		{"whole dollars", "12", "usd", 1200},
		{"zero", "0", "gbp", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value := decimal.RequireFromString(tt.value)
			a, err := NewAmount(value, tt.currency)
			require.NoError(t, err)

			assert.Equal(t, tt.wantMinor, a.MinorUnits())
			assert.True(t, a.Decimal().Equal(value), "decimal %s != %s", a.Decimal(), value)

			back, err := NewAmount(a.Decimal(), a.Currency())
			require.NoError(t, err)
			assert.Equal(t, a, back)
		})
	}
}

func TestAmount_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		currency string
	}{
		{"sub-cent euro", "10.505", "eur"},
		{"fractional yen", "1.5", "jpy"},
		{"negative", "-1.00", "usd"},
		{"bad currency length", "1.00", "us"},
		{"non-letter currency", "1.00", "u$d"},
		{"overflow", "184467440737095516.16", "usd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAmount(decimal.RequireFromString(tt.value), tt.currency)
			require.Error(t, err)
			assert.True(t, apperror.Is(err, "PAY_002"))
		})
	}
}

func TestParseAmount(t *testing.T) {
	a, err := ParseAmount(" 10.00 ", "USD")
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), a.MinorUnits())
	assert.Equal(t, "usd", a.Currency())
	assert.Equal(t, "10.00 usd", a.String())

	_, err = ParseAmount("ten", "usd")
	assert.True(t, apperror.Is(err, "PAY_002"))
}

func TestAmountFromMinorUnits(t *testing.T) {
	a, err := AmountFromMinorUnits(1050, "EUR")
	require.NoError(t, err)
	assert.Equal(t, "10.50 eur", a.String())

	yen, err := AmountFromMinorUnits(100, "jpy")
	require.NoError(t, err)
	assert.Equal(t, "100 jpy", yen.String())
	assert.False(t, yen.IsZero())

	_, err = AmountFromMinorUnits(1, "euro")
	assert.Error(t, err)
}

func TestAmount_MarshalJSON(t *testing.T) {
	a, err := AmountFromMinorUnits(1050, "eur")
	require.NoError(t, err)

	raw, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":"10.50","currency":"eur","minor_units":1050}`, string(raw))
}

func TestCurrencyExponent(t *testing.T) {
	for _, cur := range []string{"bif", "clp", "djf", "gnf", "jpy", "kmf", "krw", "mga", "pyg", "rwf", "vnd", "vuv", "xaf", "xof", "xpf"} {
		assert.Equal(t, int32(0), CurrencyExponent(cur), cur)
	}
	assert.Equal(t, int32(0), CurrencyExponent("JPY"))
	assert.Equal(t, int32(2), CurrencyExponent("usd"))
	assert.Equal(t, int32(2), CurrencyExponent("eur"))
}

func TestDevice_RequiresImmediateUpdate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		update *SoftwareUpdate
		want   bool
	}{
		{"no update", nil, false},
		{"due in the future", &SoftwareUpdate{Version: "2.1", RequiredAt: now.Add(time.Hour)}, false},
		{"overdue", &SoftwareUpdate{Version: "2.1", RequiredAt: now.Add(-time.Hour)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Device{SerialNumber: "WPC-1", AvailableUpdate: tt.update}
			assert.Equal(t, tt.want, d.RequiresImmediateUpdate(now))
		})
	}
}

func TestDeviceType_UsesBluetooth(t *testing.T) {
	assert.True(t, DeviceTypeWisePad3.UsesBluetooth())
	assert.True(t, DeviceTypeChipper2X.UsesBluetooth())
	assert.True(t, DeviceTypeStripeM2.UsesBluetooth())
	assert.False(t, DeviceTypeVerifoneP400.UsesBluetooth())
	assert.False(t, DeviceTypeWisePosE.UsesBluetooth())
}

func TestPaymentIntent_SettledCharges(t *testing.T) {
	pi := &PaymentIntent{
		ID: "pi_1",
		Charges: []Charge{
			{ID: "ch_1", Status: ChargeFailed},
			{ID: "ch_2", Status: ChargeSucceeded},
			{ID: "ch_3", Status: ChargePending},
		},
	}

	settled := pi.SettledCharges()
	require.Len(t, settled, 1)
	assert.Equal(t, "ch_2", settled[0].ID)

	assert.Empty(t, (&PaymentIntent{}).SettledCharges())
}

func TestConfirmationError(t *testing.T) {
	cause := errors.New("card declined")
	err := error(&ConfirmationError{Err: cause, Intent: &PaymentIntent{ID: "pi_1", Status: IntentRequiresPaymentMethod}})

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "requires_payment_method")

	var ce *ConfirmationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "pi_1", ce.Intent.ID)

	assert.Contains(t, (&ConfirmationError{Err: cause}).Error(), "card declined")
}

func TestPaymentResult_String(t *testing.T) {
	assert.Equal(t, "success(pi_1)", PaymentSucceeded(Receipt{PaymentIntentID: "pi_1"}).String())
	assert.Equal(t, "cancellation", PaymentCanceled().String())
	assert.Equal(t, "failure(boom)", PaymentFailed(errors.New("boom")).String())
}

func TestInitialState(t *testing.T) {
	assert.Equal(t, NoDevice(), InitialState(""))
	assert.Equal(t, Disconnected("WPC-1"), InitialState("WPC-1"))
}
