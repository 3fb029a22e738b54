package model

type Room struct {
	Id             int     `json:"id"`
	Name           string  `json:"name"`
	MovieName      string  `json:"movie_name"`
	MoviePosterUrl string  `json:"movie_poster_url"`
	Duration       int     `json:"duration"`
	Genre          string  `json:"genre"`
	Hour           string  `json:"hour"`
	Price          float64 `json:"price"`
	NumRows        int     `json:"num_rows"`
	NumColumns     int     `json:"num_columns"`
}

// TotalSeats is the size of the room's seat grid.
func (r Room) TotalSeats() int {
	if r.NumRows <= 0 || r.NumColumns <= 0 {
		return 0
	}
	return r.NumRows * r.NumColumns
}

// Contains reports whether seat lies inside the room's grid.
func (r Room) Contains(seat Seat) bool {
	return seat.Row >= 1 && seat.Row <= r.NumRows && seat.Column >= 1 && seat.Column <= r.NumColumns
}
