package memoryengine

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/shelfwise/circulation-go/circulation"
)

var marshaler = jsoniter.ConfigCompatibleWithStandardLibrary

type persistentState struct {
	Titles       map[uuid.UUID]circulation.Title       `json:"titles"`
	Copies       map[uuid.UUID]circulation.Copy        `json:"copies"`
	Loans        map[uuid.UUID]circulation.Loan        `json:"loans"`
	Reservations map[uuid.UUID]circulation.Reservation `json:"reservations"`
	Fines        map[uuid.UUID]circulation.Fine        `json:"fines"`
}

func (s *Store) loadLocked() error {
	if s.dbPath == "" {
		return nil
	}

	data, err := os.ReadFile(s.dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return err
	}

	var state persistentState
	if err := marshaler.Unmarshal(data, &state); err != nil {
		return err
	}

	if state.Titles != nil {
		s.titles = state.Titles
	}
	if state.Copies != nil {
		s.copies = state.Copies
	}
	if state.Loans != nil {
		s.loans = state.Loans
	}
	if state.Reservations != nil {
		s.reservations = state.Reservations
	}
	if state.Fines != nil {
		s.fines = state.Fines
	}

	return nil
}

func (s *Store) persistLocked() error {
	if s.dbPath == "" {
		return nil
	}

	state := persistentState{
		Titles:       s.titles,
		Copies:       s.copies,
		Loans:        s.loans,
		Reservations: s.reservations,
		Fines:        s.fines,
	}

	data, err := marshaler.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.dbPath)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	return os.WriteFile(s.dbPath, data, 0o600)
}
