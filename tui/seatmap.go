package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"cinema-booking-cli/booking"
	"cinema-booking-cli/model"
)

var (
	seatStyleAvailable = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	seatStyleReserved  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	seatStyleSelected  = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	seatStyleUnknown   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func (m appModel) seatMapView() string {
	if m.session == nil {
		return "No room selected."
	}
	var b strings.Builder
	b.WriteString(m.availabilityLine())
	b.WriteString("\n\n")
	b.WriteString(m.renderSeatMap())
	if notice := m.session.Notice(); notice != "" {
		b.WriteString("\n")
		b.WriteString(noticeStyle.Render(notice))
	}
	if m.flash != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.flash))
	}
	return b.String()
}

func (m appModel) availabilityLine() string {
	switch m.session.Availability() {
	case booking.AvailabilityNoDate:
		return hint("Press d to pick a date and see which seats are free.")
	case booking.AvailabilityLoading:
		return fmt.Sprintf("%s Loading availability for %s", m.spinner.View(), model.FormatDate(m.session.Date()))
	case booking.AvailabilityFailed:
		message := "Seat availability could not be loaded."
		if err := m.session.Err(); err != nil {
			message = err.Message
		}
		return errorStyle.Render(message) + " " + hint("Press r to retry.")
	default:
		return hint(fmt.Sprintf("Availability for %s", model.FormatDate(m.session.Date())))
	}
}

func (m appModel) renderSeatMap() string {
	room := m.session.Room()
	if room.TotalSeats() == 0 {
		return "No seat map data."
	}

	rowWidth := len(strconv.Itoa(room.NumRows))
	cellWidth := max(2, len(strconv.Itoa(room.NumColumns)))
	known := m.session.Availability() == booking.AvailabilityLoaded

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", rowWidth+1))
	for c := 1; c <= room.NumColumns; c++ {
		b.WriteString(hint(padCell(strconv.Itoa(c), cellWidth)))
		if c < room.NumColumns {
			b.WriteString(" ")
		}
	}
	b.WriteString("\n")

	for r := 1; r <= room.NumRows; r++ {
		b.WriteString(fmt.Sprintf("%*d ", rowWidth, r))
		for c := 1; c <= room.NumColumns; c++ {
			seat := model.Seat{Row: r, Column: c}
			token, style := seatToken(m.session.SeatState(seat), known)
			if seat == m.cursor {
				style = style.Reverse(true)
			}
			b.WriteString(style.Render(padCell(token, cellWidth)))
			if c < room.NumColumns {
				b.WriteString(" ")
			}
		}
		b.WriteString(fmt.Sprintf(" %-*d\n", rowWidth, r))
	}

	gridWidth := room.NumColumns*(cellWidth+1) - 1
	screenStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("214"))
	screenBorderStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")).
		Background(lipgloss.Color("236"))

	screenBar := screenBarBlock(gridWidth, "SCREEN")
	pad := strings.Repeat(" ", rowWidth+1)
	b.WriteString("\n")
	b.WriteString(pad + screenBorderStyle.Render(screenBar.top) + "\n")
	b.WriteString(pad + screenStyle.Render(screenBar.mid) + "\n")
	b.WriteString(pad + screenBorderStyle.Render(screenBar.bot) + "\n\n")

	selected := m.session.SelectedSeats()
	legend := "Legend: [] available • XX reserved • ** selected • cursor is highlighted"
	counts := fmt.Sprintf("Available: %d • Reserved: %d • Selected: %d • Total: %d",
		m.session.AvailableSeats(), len(m.session.ReservedSeats()), len(selected), m.session.TotalSeats())
	summary := "No seats selected."
	if len(selected) > 0 {
		summary = fmt.Sprintf("Seats: %s • Total: %s", strings.Join(model.SeatLabels(selected), ", "), formatPrice(m.session.TotalPrice()))
	}
	return b.String() + hint(legend) + "\n" + hint(counts) + "\n" + summary
}

// seatToken renders a seat. Until availability is loaded, free seats are
// drawn as unknown.
func seatToken(state booking.SeatState, known bool) (string, lipgloss.Style) {
	switch state {
	case booking.SeatReserved:
		return "XX", seatStyleReserved
	case booking.SeatSelected:
		return "**", seatStyleSelected
	default:
		if !known {
			return "··", seatStyleUnknown
		}
		return "[]", seatStyleAvailable
	}
}

func padCell(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if text == "" {
		return strings.Repeat(" ", width)
	}
	n := lipgloss.Width(text)
	if n >= width {
		return text
	}
	padding := width - n
	left := padding / 2
	right := padding - left
	return strings.Repeat(" ", left) + text + strings.Repeat(" ", right)
}

type screenBlock struct {
	top string
	mid string
	bot string
}

func screenBarBlock(width int, label string) screenBlock {
	if width < len(label)+4 {
		width = len(label) + 4
	}
	if width < 10 {
		width = 10
	}

	border := "╭" + strings.Repeat("─", width-2) + "╮"
	bottom := "╰" + strings.Repeat("─", width-2) + "╯"

	labelText := " " + label + " "
	padding := width - len(labelText) - 2
	left := padding / 2
	right := padding - left
	mid := "│" + strings.Repeat(" ", left) + labelText + strings.Repeat(" ", right) + "│"
	return screenBlock{top: border, mid: mid, bot: bottom}
}
