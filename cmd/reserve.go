package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"cinema-booking-cli/booking"
	"cinema-booking-cli/confirm"
	"cinema-booking-cli/model"
	"cinema-booking-cli/payment"
)

type reserveOptions struct {
	roomID int
	date   string
	seats  []string
	card   payment.Form
	showQR bool
}

func newReserveCmd(a *app) *cobra.Command {
	opts := reserveOptions{}
	reserveCmd := &cobra.Command{
		Use:   "reserve [room-id]",
		Short: "Book seats in a room",
		Long: `Book one or more seats for a show date and pay for them.
Seats are given as row-column, e.g. --seat 1-2 --seat 3-3. Either all seats are booked or none.`,
		Example: "  cinema reserve 1 --date 2026-10-16 --seat 1-2,3-3 --name \"Ana Torres\" --card 4242424242424242 --expiry 12/29 --cvv 123",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := requireLogin(a); err != nil {
				return err
			}
			roomID, err := roomArg(ctx, a, args)
			if err != nil {
				return err
			}
			opts.roomID = roomID
			if err := promptMissingPayment(&opts.card); err != nil {
				return err
			}
			return runReserve(ctx, a, opts, cmd.OutOrStdout())
		},
	}
	flags := reserveCmd.Flags()
	flags.StringVar(&opts.date, "date", "", "show date (YYYY-MM-DD)")
	flags.StringSliceVar(&opts.seats, "seat", nil, "seat to book as row-column; repeat or separate with commas")
	flags.StringVar(&opts.card.Name, "name", "", "cardholder name")
	flags.StringVar(&opts.card.CardNumber, "card", "", "card number (16 digits)")
	flags.StringVar(&opts.card.Expiry, "expiry", "", "card expiry (MM/YY)")
	flags.StringVar(&opts.card.CVV, "cvv", "", "card CVV (3 digits)")
	flags.BoolVar(&opts.showQR, "qr", false, "print the ticket QR code")
	_ = reserveCmd.MarkFlagRequired("seat")
	return reserveCmd
}

// runReserve books opts.seats with the same session rules the interactive
// screen uses. Nothing is written unless every local check passes.
func runReserve(ctx context.Context, a *app, opts reserveOptions, out io.Writer) error {
	user, err := requireLogin(a)
	if err != nil {
		return err
	}
	seats, err := parseSeats(opts.seats)
	if err != nil {
		return err
	}
	if err := opts.card.Validate(); err != nil {
		return err
	}

	session, err := openSession(ctx, a, opts.roomID, opts.date)
	if err != nil {
		return err
	}
	for _, seat := range seats {
		if !session.Room().Contains(seat) {
			return fmt.Errorf("seat %s is outside the room (%d rows, %d columns)", seat.Label(), session.Room().NumRows, session.Room().NumColumns)
		}
		if !session.Toggle(seat) {
			return fmt.Errorf("seat %s is already reserved", seat.Label())
		}
	}

	// nothing may fail once the seats are booked
	receipt, err := payment.Authorize(opts.card, session.TotalPrice())
	if err != nil {
		return err
	}
	req, err := session.BeginSubmit(user.Id)
	if err != nil {
		return err
	}
	session.ApplySubmit(booking.Submit(ctx, a.client, req, a.logger))
	if session.Phase() != booking.PhaseSucceeded {
		return submitFailure(session.Err())
	}

	conf, _ := session.Confirmation()
	summary := confirm.New(conf, receipt)
	renderSummary(out, summary)
	if opts.showQR {
		qr, err := summary.RenderQR()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, qr)
	}
	return nil
}

func requireLogin(a *app) (model.User, error) {
	user, err := a.auth.RequireUser()
	if err != nil {
		return model.User{}, fmt.Errorf("%w: run \"cinema login\" first", err)
	}
	return user, nil
}

// parseSeats reads seat labels in order, rejecting duplicates.
func parseSeats(labels []string) ([]model.Seat, error) {
	seen := make(map[model.Seat]bool, len(labels))
	seats := make([]model.Seat, 0, len(labels))
	for _, label := range labels {
		if strings.TrimSpace(label) == "" {
			continue
		}
		seat, err := model.ParseSeat(label)
		if err != nil {
			return nil, err
		}
		if seen[seat] {
			return nil, fmt.Errorf("seat %s is listed twice", seat.Label())
		}
		seen[seat] = true
		seats = append(seats, seat)
	}
	if len(seats) == 0 {
		return nil, errors.New("please select at least one seat")
	}
	return seats, nil
}

func submitFailure(failure *booking.Error) error {
	if failure == nil {
		return errors.New("reservation failed")
	}
	if len(failure.Unreverted) > 0 {
		return fmt.Errorf("%s Seats %s stayed reserved and could not be released: %w",
			failure.Message, strings.Join(model.SeatLabels(failure.Unreverted), ", "), failure)
	}
	return failure
}

func renderSummary(out io.Writer, summary confirm.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetTitle("Reservation confirmed")
	for _, line := range summary.Lines() {
		t.AppendRow(table.Row{line[0], line[1]})
	}
	t.Render()
}

func promptMissingPayment(form *payment.Form) error {
	fields := []struct {
		label string
		value *string
		mask  rune
	}{
		{"Cardholder name", &form.Name, 0},
		{"Card number", &form.CardNumber, 0},
		{"Expiry (MM/YY)", &form.Expiry, 0},
		{"CVV", &form.CVV, '*'},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) != "" {
			continue
		}
		prompt := promptui.Prompt{Label: field.label, Mask: field.mask}
		value, err := prompt.Run()
		if err != nil {
			return err
		}
		*field.value = value
	}
	return nil
}
