package memoryengine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shelfwise/circulation-go/circulation"
)

// Store is an in-memory LedgerStore. The zero value is not usable; create
// instances with NewStore.
type Store struct {
	mu     sync.Mutex
	dbPath string
	logger circulation.Logger

	titles       map[uuid.UUID]circulation.Title
	copies       map[uuid.UUID]circulation.Copy
	loans        map[uuid.UUID]circulation.Loan
	reservations map[uuid.UUID]circulation.Reservation
	fines        map[uuid.UUID]circulation.Fine
}

// Option configures a Store.
type Option func(*Store)

// WithSnapshotPath enables JSON snapshot persistence to the given file.
// The snapshot is rewritten after every committed transaction and loaded
// on startup when the file exists.
func WithSnapshotPath(path string) Option {
	return func(s *Store) {
		s.dbPath = path
	}
}

// WithLogger sets the logger for the Store.
func WithLogger(logger circulation.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates an empty in-memory store, loading a snapshot from disk
// when one is configured and present.
func NewStore(options ...Option) (*Store, error) {
	s := &Store{
		logger:       circulation.NoopLogger{},
		titles:       make(map[uuid.UUID]circulation.Title),
		copies:       make(map[uuid.UUID]circulation.Copy),
		loans:        make(map[uuid.UUID]circulation.Loan),
		reservations: make(map[uuid.UUID]circulation.Reservation),
		fines:        make(map[uuid.UUID]circulation.Fine),
	}

	for _, option := range options {
		option(s)
	}

	if err := s.loadLocked(); err != nil {
		return nil, err
	}

	return s, nil
}

// WithinTx runs fn atomically against the store. The mutex serializes all
// transactions; a failed fn restores the state captured at transaction start.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx circulation.Ledger) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	backup := s.cloneState()

	if err := fn(ctx, (*session)(s)); err != nil {
		s.restoreState(backup)
		return err
	}

	if err := s.persistLocked(); err != nil {
		s.restoreState(backup)
		return err
	}

	return nil
}

type storeState struct {
	titles       map[uuid.UUID]circulation.Title
	copies       map[uuid.UUID]circulation.Copy
	loans        map[uuid.UUID]circulation.Loan
	reservations map[uuid.UUID]circulation.Reservation
	fines        map[uuid.UUID]circulation.Fine
}

func (s *Store) cloneState() storeState {
	backup := storeState{
		titles:       make(map[uuid.UUID]circulation.Title, len(s.titles)),
		copies:       make(map[uuid.UUID]circulation.Copy, len(s.copies)),
		loans:        make(map[uuid.UUID]circulation.Loan, len(s.loans)),
		reservations: make(map[uuid.UUID]circulation.Reservation, len(s.reservations)),
		fines:        make(map[uuid.UUID]circulation.Fine, len(s.fines)),
	}

	for k, v := range s.titles {
		backup.titles[k] = v
	}
	for k, v := range s.copies {
		backup.copies[k] = v
	}
	for k, v := range s.loans {
		backup.loans[k] = v
	}
	for k, v := range s.reservations {
		backup.reservations[k] = v
	}
	for k, v := range s.fines {
		backup.fines[k] = v
	}

	return backup
}

func (s *Store) restoreState(backup storeState) {
	s.titles = backup.titles
	s.copies = backup.copies
	s.loans = backup.loans
	s.reservations = backup.reservations
	s.fines = backup.fines
}

// session is the transactional view handed to WithinTx callbacks. It is the
// store itself under the held mutex; the alias type keeps Ledger methods off
// the public Store API.
type session Store

var _ circulation.Ledger = (*session)(nil)

// TitleByID returns the title or circulation.ErrNotFound.
func (s *session) TitleByID(_ context.Context, id uuid.UUID) (circulation.Title, error) {
	title, ok := s.titles[id]
	if !ok {
		return circulation.Title{}, circulation.ErrNotFound
	}

	return title, nil
}

func (s *session) InsertTitle(_ context.Context, title circulation.Title) error {
	s.titles[title.ID] = title
	return nil
}

func (s *session) InsertCopy(_ context.Context, copy circulation.Copy) error {
	title, ok := s.titles[copy.TitleID]
	if !ok {
		return circulation.ErrNotFound
	}

	s.copies[copy.ID] = copy

	title.TotalCopies++
	if copy.Status == circulation.CopyAvailable {
		title.AvailableCopies++
	}
	s.titles[title.ID] = title

	return title.CheckCounters()
}

func (s *session) ReserveAvailableCopy(_ context.Context, titleID uuid.UUID) (circulation.Copy, error) {
	title, ok := s.titles[titleID]
	if !ok {
		return circulation.Copy{}, circulation.ErrNotFound
	}

	var candidate *circulation.Copy

	for id := range s.copies {
		c := s.copies[id]
		if c.TitleID != titleID || c.Status != circulation.CopyAvailable {
			continue
		}

		if candidate == nil || c.CopyNumber < candidate.CopyNumber {
			picked := c
			candidate = &picked
		}
	}

	if candidate == nil {
		return circulation.Copy{}, circulation.ErrNoCopyAvailable
	}

	candidate.Status = circulation.CopyOnLoan
	s.copies[candidate.ID] = *candidate

	title.AvailableCopies--
	s.titles[titleID] = title

	if err := title.CheckCounters(); err != nil {
		return circulation.Copy{}, err
	}

	return *candidate, nil
}

func (s *session) ReleaseCopy(_ context.Context, copyID uuid.UUID) error {
	c, ok := s.copies[copyID]
	if !ok {
		return circulation.ErrNotFound
	}

	if c.Status == circulation.CopyAvailable {
		return circulation.NewIntegrityError("copy_released_once",
			"copy %s is already available", copyID)
	}

	c.Status = circulation.CopyAvailable
	s.copies[copyID] = c

	title := s.titles[c.TitleID]
	title.AvailableCopies++
	s.titles[title.ID] = title

	return title.CheckCounters()
}

// LoanByID returns the loan or circulation.ErrNotFound.
func (s *session) LoanByID(_ context.Context, id uuid.UUID) (circulation.Loan, error) {
	loan, ok := s.loans[id]
	if !ok {
		return circulation.Loan{}, circulation.ErrNotFound
	}

	return loan, nil
}

func (s *session) InsertLoan(_ context.Context, loan circulation.Loan) error {
	for id := range s.loans {
		existing := s.loans[id]
		if existing.CopyID == loan.CopyID && existing.IsOpen() {
			return circulation.NewIntegrityError("one_open_loan_per_copy",
				"copy %s already has open loan %s", loan.CopyID, existing.ID)
		}
	}

	s.loans[loan.ID] = loan

	return nil
}

func (s *session) UpdateLoan(_ context.Context, loan circulation.Loan) error {
	if _, ok := s.loans[loan.ID]; !ok {
		return circulation.ErrNotFound
	}

	s.loans[loan.ID] = loan

	return nil
}

func (s *session) OpenLoanCount(_ context.Context, userID uuid.UUID) (int, error) {
	count := 0

	for id := range s.loans {
		loan := s.loans[id]
		if loan.UserID == userID && loan.IsOpen() {
			count++
		}
	}

	return count, nil
}

func (s *session) HasOverdueLoan(_ context.Context, userID uuid.UUID) (bool, error) {
	for id := range s.loans {
		loan := s.loans[id]
		if loan.UserID == userID && loan.Status == circulation.LoanOverdue && loan.IsOpen() {
			return true, nil
		}
	}

	return false, nil
}

func (s *session) HoldsOpenLoan(_ context.Context, userID uuid.UUID, titleID uuid.UUID) (bool, error) {
	for id := range s.loans {
		loan := s.loans[id]
		if loan.UserID == userID && loan.TitleID == titleID && loan.IsOpen() {
			return true, nil
		}
	}

	return false, nil
}

func (s *session) OpenLoansByUser(_ context.Context, userID uuid.UUID) ([]circulation.Loan, error) {
	var loans []circulation.Loan

	for id := range s.loans {
		loan := s.loans[id]
		if loan.UserID == userID && loan.IsOpen() {
			loans = append(loans, loan)
		}
	}

	sort.Slice(loans, func(i, j int) bool {
		return loans[i].IssuedAt.After(loans[j].IssuedAt)
	})

	return loans, nil
}

func (s *session) ActiveLoansPastDue(_ context.Context, now time.Time) ([]circulation.Loan, error) {
	var loans []circulation.Loan

	for id := range s.loans {
		loan := s.loans[id]
		if loan.Status == circulation.LoanActive && loan.IsOpen() && now.After(loan.DueAt) {
			loans = append(loans, loan)
		}
	}

	sort.Slice(loans, func(i, j int) bool {
		return loans[i].DueAt.Before(loans[j].DueAt)
	})

	return loans, nil
}

func (s *session) OpenLoansDueBetween(_ context.Context, from time.Time, until time.Time) ([]circulation.Loan, error) {
	var loans []circulation.Loan

	for id := range s.loans {
		loan := s.loans[id]
		if loan.IsOpen() && loan.Status == circulation.LoanActive &&
			!loan.DueAt.Before(from) && loan.DueAt.Before(until) {
			loans = append(loans, loan)
		}
	}

	sort.Slice(loans, func(i, j int) bool {
		return loans[i].DueAt.Before(loans[j].DueAt)
	})

	return loans, nil
}

// ReservationByID returns the reservation or circulation.ErrNotFound.
func (s *session) ReservationByID(_ context.Context, id uuid.UUID) (circulation.Reservation, error) {
	reservation, ok := s.reservations[id]
	if !ok {
		return circulation.Reservation{}, circulation.ErrNotFound
	}

	return reservation, nil
}

func (s *session) InsertReservation(_ context.Context, reservation circulation.Reservation) error {
	for id := range s.reservations {
		existing := s.reservations[id]
		if existing.UserID == reservation.UserID &&
			existing.TitleID == reservation.TitleID &&
			existing.Status == circulation.ReservationPending {
			return circulation.NewIntegrityError("one_pending_reservation_per_user_title",
				"user %s already has pending reservation %s for title %s",
				reservation.UserID, existing.ID, reservation.TitleID)
		}
	}

	s.reservations[reservation.ID] = reservation

	return nil
}

func (s *session) UpdateReservation(_ context.Context, reservation circulation.Reservation) error {
	if _, ok := s.reservations[reservation.ID]; !ok {
		return circulation.ErrNotFound
	}

	s.reservations[reservation.ID] = reservation

	return nil
}

func (s *session) HasPendingReservation(_ context.Context, userID uuid.UUID, titleID uuid.UUID) (bool, error) {
	for id := range s.reservations {
		r := s.reservations[id]
		if r.UserID == userID && r.TitleID == titleID && r.Status == circulation.ReservationPending {
			return true, nil
		}
	}

	return false, nil
}

func (s *session) OldestPendingReservation(_ context.Context, titleID uuid.UUID) (circulation.Reservation, error) {
	var pending []circulation.Reservation

	for id := range s.reservations {
		r := s.reservations[id]
		if r.TitleID == titleID && r.Status == circulation.ReservationPending {
			pending = append(pending, r)
		}
	}

	if len(pending) == 0 {
		return circulation.Reservation{}, circulation.ErrNotFound
	}

	sort.Slice(pending, func(i, j int) bool {
		if pending[i].RequestedAt.Equal(pending[j].RequestedAt) {
			return pending[i].ID.String() < pending[j].ID.String()
		}

		return pending[i].RequestedAt.Before(pending[j].RequestedAt)
	})

	return pending[0], nil
}

func (s *session) NotifiedPendingReservations(_ context.Context, cutoff time.Time) ([]circulation.Reservation, error) {
	var stale []circulation.Reservation

	for id := range s.reservations {
		r := s.reservations[id]
		if r.Status == circulation.ReservationPending && r.Notified &&
			r.NotifiedAt != nil && r.NotifiedAt.Before(cutoff) {
			stale = append(stale, r)
		}
	}

	sort.Slice(stale, func(i, j int) bool {
		return stale[i].RequestedAt.Before(stale[j].RequestedAt)
	})

	return stale, nil
}

func (s *session) TitlesWithPendingReservations(_ context.Context) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool)

	var titleIDs []uuid.UUID

	for id := range s.reservations {
		r := s.reservations[id]
		if r.Status != circulation.ReservationPending || r.Notified || seen[r.TitleID] {
			continue
		}

		title, ok := s.titles[r.TitleID]
		if !ok || title.AvailableCopies == 0 {
			continue
		}

		seen[r.TitleID] = true
		titleIDs = append(titleIDs, r.TitleID)
	}

	sort.Slice(titleIDs, func(i, j int) bool {
		return titleIDs[i].String() < titleIDs[j].String()
	})

	return titleIDs, nil
}

// FineByID returns the fine or circulation.ErrNotFound.
func (s *session) FineByID(_ context.Context, id uuid.UUID) (circulation.Fine, error) {
	fine, ok := s.fines[id]
	if !ok {
		return circulation.Fine{}, circulation.ErrNotFound
	}

	return fine, nil
}

func (s *session) InsertFine(_ context.Context, fine circulation.Fine) error {
	for id := range s.fines {
		existing := s.fines[id]
		if existing.LoanID == fine.LoanID {
			return circulation.NewIntegrityError("one_fine_per_loan",
				"loan %s already has fine %s", fine.LoanID, existing.ID)
		}
	}

	s.fines[fine.ID] = fine

	return nil
}

func (s *session) UpdateFine(_ context.Context, fine circulation.Fine) error {
	if _, ok := s.fines[fine.ID]; !ok {
		return circulation.ErrNotFound
	}

	s.fines[fine.ID] = fine

	return nil
}

func (s *session) FineExistsForLoan(_ context.Context, loanID uuid.UUID) (bool, error) {
	for id := range s.fines {
		if s.fines[id].LoanID == loanID {
			return true, nil
		}
	}

	return false, nil
}

func (s *session) FinesByUser(_ context.Context, userID uuid.UUID) ([]circulation.Fine, error) {
	var fines []circulation.Fine

	for id := range s.fines {
		fine := s.fines[id]
		if fine.UserID == userID {
			fines = append(fines, fine)
		}
	}

	sort.Slice(fines, func(i, j int) bool {
		return fines[i].AssessedAt.After(fines[j].AssessedAt)
	})

	return fines, nil
}
