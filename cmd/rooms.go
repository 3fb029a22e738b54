package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"

	"cinema-booking-cli/booking"
	"cinema-booking-cli/confirm"
	"cinema-booking-cli/model"
)

func newRoomsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rooms",
		Short: "List showrooms",
		Long:  `List every showroom with its movie, show time, price and capacity`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rooms, err := a.client.GetRooms(cmd.Context())
			if err != nil {
				return fmt.Errorf("could not load rooms: %w", err)
			}
			renderRooms(cmd.OutOrStdout(), rooms)
			return nil
		},
	}
}

func renderRooms(out io.Writer, rooms []model.Room) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"ID", "Room", "Movie", "Genre", "Time", "Price", "Seats"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, WidthMax: 30},
	})
	for _, room := range rooms {
		t.AppendRow(table.Row{
			room.Id,
			room.Name,
			room.MovieName,
			room.Genre,
			confirm.FormatShowTime(room.Hour),
			fmt.Sprintf("$%.2f", room.Price),
			fmt.Sprintf("%dx%d", room.NumRows, room.NumColumns),
		})
	}
	t.Render()
}

func newSeatsCmd(a *app) *cobra.Command {
	var date string
	seatsCmd := &cobra.Command{
		Use:   "seats [room-id]",
		Short: "Show the seat map of a room",
		Long:  `Show which seats of a room are free or reserved on a date. Without arguments you are asked to pick the room and the date.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			roomID, err := roomArg(ctx, a, args)
			if err != nil {
				return err
			}
			session, err := openSession(ctx, a, roomID, date)
			if err != nil {
				return err
			}
			renderSeatGrid(cmd.OutOrStdout(), session)
			return nil
		},
	}
	seatsCmd.Flags().StringVar(&date, "date", "", "show date (YYYY-MM-DD)")
	return seatsCmd
}

func roomArg(ctx context.Context, a *app, args []string) (int, error) {
	if len(args) == 1 {
		id, err := strconv.Atoi(args[0])
		if err != nil || id <= 0 {
			return 0, fmt.Errorf("invalid room id %q", args[0])
		}
		return id, nil
	}
	rooms, err := a.client.GetRooms(ctx)
	if err != nil {
		return 0, fmt.Errorf("could not load rooms: %w", err)
	}
	return promptSelectRoom(rooms)
}

func promptSelectRoom(rooms []model.Room) (int, error) {
	if len(rooms) == 0 {
		return 0, errors.New("no rooms available")
	}
	labels, roomIdByLabel := roomChoices(rooms)

	searcher := func(input string, index int) bool {
		return strings.Contains(strings.ToLower(labels[index]), strings.ToLower(input))
	}
	selectRoom := promptui.Select{
		Label:    "Select Room",
		Items:    labels,
		Size:     10,
		Searcher: searcher,
	}
	_, label, err := selectRoom.Run()
	if err != nil {
		return 0, err
	}
	id, ok := roomIdByLabel[label]
	if !ok {
		return 0, errors.New("invalid room")
	}
	return id, nil
}

// roomChoices labels every room for the picker. The id keeps labels unique
// when two rooms share a name and movie.
func roomChoices(rooms []model.Room) ([]string, map[string]int) {
	roomIdByLabel := make(map[string]int, len(rooms))
	for _, room := range rooms {
		roomIdByLabel[fmt.Sprintf("%s • %s (#%d)", room.Name, room.MovieName, room.Id)] = room.Id
	}
	labels := maps.Keys(roomIdByLabel)
	sort.Strings(labels)
	return labels, roomIdByLabel
}

func promptSelectDate(session *booking.Session) (time.Time, error) {
	dates := session.BookableDates()
	labels := make([]string, len(dates))
	for i, d := range dates {
		labels[i] = fmt.Sprintf("%s • %s", d.Format("Mon"), model.FormatDate(d))
	}
	selectDate := promptui.Select{
		Label: "Select Date",
		Items: labels,
		Size:  len(labels),
	}
	i, _, err := selectDate.Run()
	if err != nil {
		return time.Time{}, err
	}
	return dates[i], nil
}

// openSession loads the room and the availability of date, prompting for a
// date when none is given.
func openSession(ctx context.Context, a *app, roomID int, date string) (*booking.Session, error) {
	session := booking.NewSession(roomID, booking.WithLogger(a.logger))
	if err := session.Load(ctx, a.client); err != nil {
		return nil, err
	}

	var day time.Time
	var err error
	if date == "" {
		day, err = promptSelectDate(session)
	} else {
		day, err = model.ParseDate(date)
	}
	if err != nil {
		return nil, err
	}

	req, err := session.SelectDate(day)
	if err != nil {
		return nil, err
	}
	reservations, err := booking.FetchAvailability(ctx, a.client, req)
	session.ApplyAvailability(req, reservations, err)
	if session.Availability() == booking.AvailabilityFailed {
		return nil, session.Err()
	}
	return session, nil
}

// renderSeatGrid prints the seat map: [] free, XX reserved, ** selected.
func renderSeatGrid(out io.Writer, session *booking.Session) {
	room := session.Room()
	fmt.Fprintf(out, "%s • %s • %s • %s\n\n", room.Name, room.MovieName, model.FormatDate(session.Date()), confirm.FormatShowTime(room.Hour))

	var b strings.Builder
	b.WriteString("    ")
	for c := 1; c <= room.NumColumns; c++ {
		fmt.Fprintf(&b, "%-3d", c)
	}
	b.WriteString("\n")
	for r := 1; r <= room.NumRows; r++ {
		fmt.Fprintf(&b, "%3d ", r)
		for c := 1; c <= room.NumColumns; c++ {
			token := "[]"
			switch session.SeatState(model.Seat{Row: r, Column: c}) {
			case booking.SeatReserved:
				token = "XX"
			case booking.SeatSelected:
				token = "**"
			}
			b.WriteString(token + " ")
		}
		b.WriteString("\n")
	}
	fmt.Fprint(out, b.String())
	fmt.Fprintf(out, "\n[] free  XX reserved  ** selected\nAvailable: %d of %d\n", session.AvailableSeats(), session.TotalSeats())
}
