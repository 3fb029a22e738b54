package mockapi

import "cinema-booking-cli/model"

var seedRooms = []model.Room{
	{Name: "Sala 1", MovieName: "Alien: Romulus", Duration: 119, Genre: "Sci-Fi", Hour: "19:30:00", Price: 10.00, NumRows: 5, NumColumns: 5},
	{Name: "Sala 2", MovieName: "Inside Out 2", Duration: 96, Genre: "Animation", Hour: "16:00:00", Price: 7.50, NumRows: 6, NumColumns: 8},
	{Name: "Sala 3", MovieName: "Dune: Part Two", Duration: 166, Genre: "Sci-Fi", Hour: "21:15:00", Price: 12.00, NumRows: 8, NumColumns: 10},
}

// Seeded accounts, for local development only.
var seedUsers = []struct {
	username, email, password, role string
}{
	{"admin", "admin@cinema.local", "admin123", "admin"},
	{"demo", "demo@cinema.local", "demo123", "user"},
}

// seed loads rooms, or the default rooms when none are given, and the
// seeded accounts.
func seed(d *data, rooms []model.Room) error {
	if len(rooms) == 0 {
		rooms = seedRooms
	}
	for _, room := range rooms {
		d.addRoom(room)
	}
	for _, u := range seedUsers {
		if _, err := d.register(u.username, u.email, u.password, u.role); err != nil {
			return err
		}
	}
	return nil
}
