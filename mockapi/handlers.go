package mockapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"cinema-booking-cli/model"
)

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func message(c echo.Context, code int, msg string) error {
	return c.JSON(code, echo.Map{"message": msg})
}

func (s *Server) login(c echo.Context) error {
	var req credentials
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "invalid body")
	}
	user, err := s.data.authenticate(req.Username, req.Password)
	if err != nil {
		return message(c, http.StatusUnauthorized, err.Error())
	}
	token, err := s.issueToken(user)
	if err != nil {
		s.logger.Error("issue token failed", "err", err)
		return message(c, http.StatusInternalServerError, "could not issue token")
	}
	return c.JSON(http.StatusOK, echo.Map{"token": token})
}

func (s *Server) register(c echo.Context) error {
	var req credentials
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "invalid body")
	}
	user, err := s.data.register(req.Username, req.Email, req.Password, "user")
	switch {
	case errors.Is(err, errMissingFields), errors.Is(err, errUserExists):
		return message(c, http.StatusBadRequest, err.Error())
	case err != nil:
		s.logger.Error("register failed", "err", err)
		return message(c, http.StatusInternalServerError, "could not create user")
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "user registered", "id": user.Id})
}

func (s *Server) listRooms(c echo.Context) error {
	return c.JSON(http.StatusOK, s.data.listRooms())
}

func (s *Server) getRoom(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return message(c, http.StatusBadRequest, "invalid room id")
	}
	room, err := s.data.room(id)
	if err != nil {
		return message(c, http.StatusNotFound, "Room not found")
	}
	return c.JSON(http.StatusOK, room)
}

func (s *Server) listReservations(c echo.Context) error {
	roomID := 0
	if raw := c.QueryParam("room_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return message(c, http.StatusBadRequest, "invalid room_id")
		}
		roomID = id
	}
	date := ""
	if raw := c.QueryParam("date"); raw != "" {
		d, err := model.ParseDate(raw)
		if err != nil {
			return message(c, http.StatusBadRequest, err.Error())
		}
		date = model.FormatDate(d)
	}
	return c.JSON(http.StatusOK, s.data.listReservations(roomID, date))
}

func (s *Server) createReservation(c echo.Context) error {
	caller := callerOf(c)
	var req model.NewReservation
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "invalid body")
	}
	if req.UserId == 0 {
		req.UserId = caller.Id
	}
	if req.UserId != caller.Id && !caller.IsAdmin() {
		return message(c, http.StatusForbidden, "cannot reserve for another user")
	}
	date, err := model.ParseDate(req.ReservationDate)
	if err != nil {
		return message(c, http.StatusBadRequest, err.Error())
	}
	req.ReservationDate = model.FormatDate(date)

	reservation, err := s.data.reserve(req)
	switch {
	case errors.Is(err, errRoomNotFound), errors.Is(err, errSeatOutside), errors.Is(err, errSeatTaken):
		s.logger.Debug("reservation refused", "room_id", req.RoomId, "row", req.SeatRow, "column", req.SeatColumn, "err", err)
		return message(c, http.StatusBadRequest, err.Error())
	case err != nil:
		return message(c, http.StatusInternalServerError, "could not create reservation")
	}
	return c.JSON(http.StatusCreated, reservation)
}

func (s *Server) deleteReservation(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return message(c, http.StatusBadRequest, "invalid reservation id")
	}
	switch err := s.data.cancel(id, callerOf(c)); {
	case errors.Is(err, errNotFound):
		return message(c, http.StatusNotFound, err.Error())
	case errors.Is(err, errNotOwner):
		return message(c, http.StatusForbidden, err.Error())
	case err != nil:
		return message(c, http.StatusInternalServerError, "could not delete reservation")
	}
	return message(c, http.StatusOK, "reservation deleted")
}
