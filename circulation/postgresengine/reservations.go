package postgresengine

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"

	"github.com/shelfwise/circulation-go/circulation"
)

var reservationColumns = []any{
	"id", "user_id", "title_id", "requested_at", "status", "notified", "notified_at", "fulfilled_at",
}

// ReservationByID returns the reservation locked for update.
func (s *session) ReservationByID(ctx context.Context, id uuid.UUID) (circulation.Reservation, error) {
	ds := dialect.From(s.table(tableReservations)).
		Select(reservationColumns...).
		Where(goqu.C("id").Eq(id.String())).
		ForUpdate(exp.Wait)

	reservations, err := s.queryReservations(ctx, ds)
	if err != nil {
		return circulation.Reservation{}, err
	}

	if len(reservations) == 0 {
		return circulation.Reservation{}, circulation.ErrNotFound
	}

	return reservations[0], nil
}

func (s *session) InsertReservation(ctx context.Context, reservation circulation.Reservation) error {
	ds := dialect.Insert(s.table(tableReservations)).Rows(goqu.Record{
		"id":           reservation.ID.String(),
		"user_id":      reservation.UserID.String(),
		"title_id":     reservation.TitleID.String(),
		"requested_at": reservation.RequestedAt,
		"status":       string(reservation.Status),
		"notified":     reservation.Notified,
		"notified_at":  nullableTime(reservation.NotifiedAt),
		"fulfilled_at": nullableTime(reservation.FulfilledAt),
	})

	sqlQuery, _, err := ds.ToSQL()
	if err != nil {
		s.store.logger.Error(logMsgBuildQueryFailed, logAttrError, err.Error())
		return err
	}

	_, err = s.execSQL(ctx, sqlQuery)

	return err
}

func (s *session) UpdateReservation(ctx context.Context, reservation circulation.Reservation) error {
	ds := dialect.Update(s.table(tableReservations)).
		Set(goqu.Record{
			"status":       string(reservation.Status),
			"notified":     reservation.Notified,
			"notified_at":  nullableTime(reservation.NotifiedAt),
			"fulfilled_at": nullableTime(reservation.FulfilledAt),
		}).
		Where(goqu.C("id").Eq(reservation.ID.String()))

	sqlQuery, _, err := ds.ToSQL()
	if err != nil {
		s.store.logger.Error(logMsgBuildQueryFailed, logAttrError, err.Error())
		return err
	}

	rowsAffected, err := s.execSQL(ctx, sqlQuery)
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return circulation.ErrNotFound
	}

	return nil
}

func (s *session) HasPendingReservation(ctx context.Context, userID uuid.UUID, titleID uuid.UUID) (bool, error) {
	ds := dialect.From(s.table(tableReservations)).
		Select(goqu.COUNT(goqu.Star())).
		Where(
			goqu.C("user_id").Eq(userID.String()),
			goqu.C("title_id").Eq(titleID.String()),
			goqu.C("status").Eq(string(circulation.ReservationPending)),
		)

	count, err := s.countQuery(ctx, ds)

	return count > 0, err
}

// OldestPendingReservation returns the head of the title's queue, locked for
// update. Ordering is by request time, then by id for same-instant requests.
func (s *session) OldestPendingReservation(ctx context.Context, titleID uuid.UUID) (circulation.Reservation, error) {
	ds := dialect.From(s.table(tableReservations)).
		Select(reservationColumns...).
		Where(
			goqu.C("title_id").Eq(titleID.String()),
			goqu.C("status").Eq(string(circulation.ReservationPending)),
		).
		Order(goqu.C("requested_at").Asc(), goqu.C("id").Asc()).
		Limit(1).
		ForUpdate(exp.Wait)

	reservations, err := s.queryReservations(ctx, ds)
	if err != nil {
		return circulation.Reservation{}, err
	}

	if len(reservations) == 0 {
		return circulation.Reservation{}, circulation.ErrNotFound
	}

	return reservations[0], nil
}

// NotifiedPendingReservations returns reservations whose pickup notification
// went out before the cutoff and that are still waiting to be collected.
func (s *session) NotifiedPendingReservations(ctx context.Context, cutoff time.Time) ([]circulation.Reservation, error) {
	ds := dialect.From(s.table(tableReservations)).
		Select(reservationColumns...).
		Where(
			goqu.C("status").Eq(string(circulation.ReservationPending)),
			goqu.C("notified").IsTrue(),
			goqu.C("notified_at").Lt(cutoff),
		).
		Order(goqu.C("requested_at").Asc(), goqu.C("id").Asc())

	return s.queryReservations(ctx, ds)
}

// TitlesWithPendingReservations lists titles that have copies on the shelf
// and at least one pending reservation nobody has been notified about yet.
func (s *session) TitlesWithPendingReservations(ctx context.Context) ([]uuid.UUID, error) {
	ds := dialect.From(goqu.T(s.table(tableReservations)).As("r")).
		Join(
			goqu.T(s.table(tableTitles)).As("t"),
			goqu.On(goqu.I("r.title_id").Eq(goqu.I("t.id"))),
		).
		Select(goqu.I("r.title_id")).
		Where(
			goqu.I("r.status").Eq(string(circulation.ReservationPending)),
			goqu.I("r.notified").IsFalse(),
			goqu.I("t.available_copies").Gt(0),
		).
		GroupBy(goqu.I("r.title_id")).
		Order(goqu.I("r.title_id").Asc())

	rows, err := s.queryRows(ctx, ds)
	if err != nil {
		return nil, err
	}
	defer s.closeRows(rows)

	var titleIDs []uuid.UUID

	for rows.Next() {
		var titleID uuid.UUID

		if err := rows.Scan(&titleID); err != nil {
			s.store.logger.Error(logMsgScanRowFailed, logAttrError, err.Error())
			return nil, err
		}

		titleIDs = append(titleIDs, titleID)
	}

	return titleIDs, nil
}

func (s *session) queryReservations(ctx context.Context, ds *goqu.SelectDataset) ([]circulation.Reservation, error) {
	rows, err := s.queryRows(ctx, ds)
	if err != nil {
		return nil, err
	}
	defer s.closeRows(rows)

	var reservations []circulation.Reservation

	for rows.Next() {
		var (
			reservation circulation.Reservation
			notifiedAt  sql.NullTime
			fulfilledAt sql.NullTime
		)

		if err := rows.Scan(
			&reservation.ID, &reservation.UserID, &reservation.TitleID,
			&reservation.RequestedAt, &reservation.Status,
			&reservation.Notified, &notifiedAt, &fulfilledAt,
		); err != nil {
			s.store.logger.Error(logMsgScanRowFailed, logAttrError, err.Error())
			return nil, err
		}

		if notifiedAt.Valid {
			ts := notifiedAt.Time
			reservation.NotifiedAt = &ts
		}

		if fulfilledAt.Valid {
			ts := fulfilledAt.Time
			reservation.FulfilledAt = &ts
		}

		reservations = append(reservations, reservation)
	}

	return reservations, nil
}
