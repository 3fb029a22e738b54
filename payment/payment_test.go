package payment

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var octNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func validForm() Form {
	return Form{Name: "Ana Torres", CardNumber: "4242424242424242", Expiry: "12/27", CVV: "123"}
}

func TestValidateAt(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(*Form)
		field string
	}{
		{"valid", func(*Form) {}, ""},
		{"card with spaces", func(f *Form) { f.CardNumber = "4242 4242 4242 4242" }, ""},
		{"expires this month", func(f *Form) { f.Expiry = "10/26" }, ""},
		{"missing name", func(f *Form) { f.Name = "  " }, "name"},
		{"missing cvv", func(f *Form) { f.CVV = "" }, "cvv"},
		{"short card", func(f *Form) { f.CardNumber = "424242" }, "card_number"},
		{"letters in card", func(f *Form) { f.CardNumber = "42424242424242ab" }, "card_number"},
		{"expiry format", func(f *Form) { f.Expiry = "1227" }, "expiry"},
		{"expiry month", func(f *Form) { f.Expiry = "13/27" }, "expiry"},
		{"expired", func(f *Form) { f.Expiry = "09/26" }, "expiry"},
		{"cvv length", func(f *Form) { f.CVV = "12" }, "cvv"},
		{"cvv letters", func(f *Form) { f.CVV = "12a" }, "cvv"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			form := validForm()
			tc.edit(&form)
			err := form.ValidateAt(octNow)
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}
			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, tc.field, validationErr.Field)
			assert.NotEmpty(t, validationErr.Message)
		})
	}
}

func TestValidateAt_ChecksPresenceFirst(t *testing.T) {
	form := Form{Name: "Ana", CardNumber: "12", Expiry: "", CVV: "1"}
	err := form.ValidateAt(octNow)
	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "expiry", validationErr.Field)
	assert.Equal(t, "Please fill in every field of the payment form.", validationErr.Message)
}

func TestAuthorize(t *testing.T) {
	receipt, err := authorizeAt(validForm(), 20, octNow)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, receipt.Reference)
	assert.Equal(t, "**** **** **** 4242", receipt.MaskedCard)
	assert.Equal(t, 20.0, receipt.Amount)
	assert.Equal(t, octNow, receipt.AuthorizedAt)

	other, err := authorizeAt(validForm(), 20, octNow)
	require.NoError(t, err)
	assert.NotEqual(t, receipt.Reference, other.Reference)
}

func TestAuthorize_FreeBooking(t *testing.T) {
	receipt, err := authorizeAt(validForm(), 0, octNow)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, receipt.Reference)
	assert.Zero(t, receipt.Amount)
}

func TestAuthorize_Rejects(t *testing.T) {
	_, err := authorizeAt(validForm(), -5, octNow)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	bad := validForm()
	bad.CVV = "9"
	_, err = authorizeAt(bad, 10, octNow)
	var validationErr *ValidationError
	assert.True(t, errors.As(err, &validationErr))
}

func TestMaskCard(t *testing.T) {
	assert.Equal(t, "**** **** **** 1111", MaskCard("4111-1111-1111-1111"))
	assert.Equal(t, "***", MaskCard("123"))
}
