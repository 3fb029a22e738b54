package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cinema-booking-cli/model"
)

const (
	appDir         = "cinema-booking-cli"
	maxRecentRooms = 8
)

type savedToken struct {
	Token   string    `json:"token"`
	SavedAt time.Time `json:"saved_at"`
}

type RecentRoom struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	MovieName string `json:"movie_name"`
}

type roomHistory struct {
	Rooms []RecentRoom `json:"rooms"`
}

// LoadToken returns the persisted bearer token, or "" when none is stored.
func LoadToken() (string, error) {
	path, err := configPath("token.json")
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	var saved savedToken
	if err := json.Unmarshal(data, &saved); err != nil {
		return "", errors.New("invalid token file format")
	}
	return strings.TrimSpace(saved.Token), nil
}

func SaveToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token is required")
	}
	path, err := configPath("token.json")
	if err != nil {
		return err
	}
	return writeJSON(path, savedToken{Token: token, SavedAt: time.Now()}, 0o600)
}

func ClearToken() error {
	path, err := configPath("token.json")
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func LoadRecentRooms() ([]RecentRoom, error) {
	path, err := configPath("rooms.json")
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var history roomHistory
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, errors.New("invalid room history format")
	}
	return history.Rooms, nil
}

func RememberRoom(room model.Room) error {
	if room.Id <= 0 {
		return errors.New("room id is required")
	}
	history, _ := LoadRecentRooms()
	next := []RecentRoom{{ID: room.Id, Name: room.Name, MovieName: room.MovieName}}

	for _, existing := range history {
		if existing.ID == room.Id {
			continue
		}
		next = append(next, existing)
		if len(next) >= maxRecentRooms {
			break
		}
	}

	path, err := configPath("rooms.json")
	if err != nil {
		return err
	}
	return writeJSON(path, roomHistory{Rooms: next}, 0o644)
}

// LogPath is where the interactive front end writes its log.
func LogPath() (string, error) {
	return cachePath("cinema.log")
}

func writeJSON(path string, value any, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, perm)
}

func configPath(name string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDir, name), nil
}

func cachePath(name string) (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDir, name), nil
}
