package confirm

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinema-booking-cli/booking"
	"cinema-booking-cli/model"
	"cinema-booking-cli/payment"
)

func sampleConfirmation() booking.Confirmation {
	return booking.Confirmation{
		Room:       model.Room{Id: 1, Name: "Sala 1", MovieName: "Alien", Hour: "19:30:00", Price: 10},
		Date:       time.Date(2026, 10, 19, 0, 0, 0, 0, time.Local),
		Seats:      []string{"1-2", "3-3"},
		TotalPrice: 20,
	}
}

func TestFormatShowTime(t *testing.T) {
	cases := map[string]string{
		"19:30:00": "7:30 PM",
		"19:30":    "7:30 PM",
		"00:15":    "12:15 AM",
		"12:00:00": "12:00 PM",
		"09:05":    "9:05 AM",
		"":         "Not specified",
		"evening":  "evening",
		"25:00":    "25:00",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatShowTime(in), in)
	}
}

func TestNew(t *testing.T) {
	ref := uuid.New()
	s := New(sampleConfirmation(), payment.Receipt{Reference: ref, MaskedCard: "**** **** **** 4242", Amount: 20})

	assert.Equal(t, "Alien", s.Movie)
	assert.Equal(t, "19 October 2026", s.Date)
	assert.Equal(t, "7:30 PM", s.ShowTime)
	assert.Equal(t, "$20.00", s.TotalText())
	assert.Equal(t, ref.String(), s.Reference)

	rows := s.Lines()
	assert.Equal(t, [2]string{"Seats", "1-2, 3-3"}, rows[4])
	assert.Equal(t, [2]string{"Card", "**** **** **** 4242"}, rows[6])
}

func TestNew_WithoutReceipt(t *testing.T) {
	s := New(sampleConfirmation(), payment.Receipt{})
	assert.Empty(t, s.Reference)
	assert.Len(t, s.Lines(), 6)
}

func TestQRText_MatchesSummary(t *testing.T) {
	s := New(sampleConfirmation(), payment.Receipt{})
	text, err := s.QRText()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "{\n  \"pelicula\": \"Alien\""))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &decoded))
	assert.Equal(t, "Sala 1", decoded["sala"])
	assert.Equal(t, "19 October 2026", decoded["fecha"])
	assert.Equal(t, "7:30 PM", decoded["horario"])
	assert.Equal(t, []any{"1-2", "3-3"}, decoded["asientos"])
	assert.Equal(t, "$20.00", decoded["total"])
	assert.NotContains(t, decoded, "referencia")
}

func TestRenderQR(t *testing.T) {
	s := New(sampleConfirmation(), payment.Receipt{})
	block, err := s.RenderQR()
	require.NoError(t, err)
	assert.Greater(t, strings.Count(block, "\n"), 10)
}
