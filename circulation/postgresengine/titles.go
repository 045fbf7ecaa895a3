package postgresengine

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"

	"github.com/shelfwise/circulation-go/circulation"
	"github.com/shelfwise/circulation-go/circulation/postgresengine/internal/adapters"
)

// TitleByID returns the title or circulation.ErrNotFound.
func (s *session) TitleByID(ctx context.Context, id uuid.UUID) (circulation.Title, error) {
	ds := dialect.From(s.table(tableTitles)).
		Select("id", "isbn", "name", "authors", "total_copies", "available_copies", "created_at").
		Where(goqu.C("id").Eq(id.String()))

	rows, err := s.queryRows(ctx, ds)
	if err != nil {
		return circulation.Title{}, err
	}
	defer s.closeRows(rows)

	if !rows.Next() {
		return circulation.Title{}, circulation.ErrNotFound
	}

	var title circulation.Title

	if err := rows.Scan(
		&title.ID, &title.ISBN, &title.Name, &title.Authors,
		&title.TotalCopies, &title.AvailableCopies, &title.CreatedAt,
	); err != nil {
		s.store.logger.Error(logMsgScanRowFailed, logAttrError, err.Error())
		return circulation.Title{}, err
	}

	return title, nil
}

// InsertTitle adds a catalog record with its counters.
func (s *session) InsertTitle(ctx context.Context, title circulation.Title) error {
	ds := dialect.Insert(s.table(tableTitles)).Rows(goqu.Record{
		"id":               title.ID.String(),
		"isbn":             title.ISBN,
		"name":             title.Name,
		"authors":          title.Authors,
		"total_copies":     title.TotalCopies,
		"available_copies": title.AvailableCopies,
		"created_at":       title.CreatedAt,
	})

	sqlQuery, _, err := ds.ToSQL()
	if err != nil {
		s.store.logger.Error(logMsgBuildQueryFailed, logAttrError, err.Error())
		return err
	}

	_, err = s.execSQL(ctx, sqlQuery)

	return err
}

// InsertCopy adds a physical copy and bumps the title counters in the same
// transaction.
func (s *session) InsertCopy(ctx context.Context, copy circulation.Copy) error {
	insert := dialect.Insert(s.table(tableCopies)).Rows(goqu.Record{
		"id":          copy.ID.String(),
		"title_id":    copy.TitleID.String(),
		"copy_number": copy.CopyNumber,
		"condition":   string(copy.Condition),
		"status":      string(copy.Status),
		"acquired_at": copy.AcquiredAt,
	})

	sqlQuery, _, err := insert.ToSQL()
	if err != nil {
		s.store.logger.Error(logMsgBuildQueryFailed, logAttrError, err.Error())
		return err
	}

	if _, err := s.execSQL(ctx, sqlQuery); err != nil {
		return err
	}

	record := goqu.Record{"total_copies": goqu.L("total_copies + 1")}
	if copy.Status == circulation.CopyAvailable {
		record["available_copies"] = goqu.L("available_copies + 1")
	}

	return s.adjustTitleCounters(ctx, copy.TitleID, record)
}

// ReserveAvailableCopy locks and flips the title's first AVAILABLE copy.
// The row lock makes concurrent borrows of the last copy serialize; the
// loser sees no available row and gets circulation.ErrNoCopyAvailable.
func (s *session) ReserveAvailableCopy(ctx context.Context, titleID uuid.UUID) (circulation.Copy, error) {
	ds := dialect.From(s.table(tableCopies)).
		Select("id", "title_id", "copy_number", "condition", "status", "acquired_at").
		Where(
			goqu.C("title_id").Eq(titleID.String()),
			goqu.C("status").Eq(string(circulation.CopyAvailable)),
		).
		Order(goqu.C("copy_number").Asc()).
		Limit(1).
		ForUpdate(exp.Wait)

	rows, err := s.queryRows(ctx, ds)
	if err != nil {
		return circulation.Copy{}, err
	}

	copyRow, found, err := s.scanCopy(rows)
	if err != nil {
		return circulation.Copy{}, err
	}

	if !found {
		return circulation.Copy{}, circulation.ErrNoCopyAvailable
	}

	update := dialect.Update(s.table(tableCopies)).
		Set(goqu.Record{"status": string(circulation.CopyOnLoan)}).
		Where(goqu.C("id").Eq(copyRow.ID.String()))

	sqlQuery, _, err := update.ToSQL()
	if err != nil {
		s.store.logger.Error(logMsgBuildQueryFailed, logAttrError, err.Error())
		return circulation.Copy{}, err
	}

	if _, err := s.execSQL(ctx, sqlQuery); err != nil {
		return circulation.Copy{}, err
	}

	decrement := goqu.Record{"available_copies": goqu.L("available_copies - 1")}
	if err := s.adjustTitleCounters(ctx, titleID, decrement); err != nil {
		return circulation.Copy{}, err
	}

	copyRow.Status = circulation.CopyOnLoan

	return copyRow, nil
}

// ReleaseCopy flips a copy back to AVAILABLE and bumps the availability
// counter. Releasing an already-available copy is an integrity violation.
func (s *session) ReleaseCopy(ctx context.Context, copyID uuid.UUID) error {
	ds := dialect.From(s.table(tableCopies)).
		Select("id", "title_id", "copy_number", "condition", "status", "acquired_at").
		Where(goqu.C("id").Eq(copyID.String())).
		ForUpdate(exp.Wait)

	rows, err := s.queryRows(ctx, ds)
	if err != nil {
		return err
	}

	copyRow, found, err := s.scanCopy(rows)
	if err != nil {
		return err
	}

	if !found {
		return circulation.ErrNotFound
	}

	if copyRow.Status == circulation.CopyAvailable {
		return circulation.NewIntegrityError("copy_released_once",
			"copy %s is already available", copyID)
	}

	update := dialect.Update(s.table(tableCopies)).
		Set(goqu.Record{"status": string(circulation.CopyAvailable)}).
		Where(goqu.C("id").Eq(copyID.String()))

	sqlQuery, _, err := update.ToSQL()
	if err != nil {
		s.store.logger.Error(logMsgBuildQueryFailed, logAttrError, err.Error())
		return err
	}

	if _, err := s.execSQL(ctx, sqlQuery); err != nil {
		return err
	}

	increment := goqu.Record{"available_copies": goqu.L("available_copies + 1")}

	return s.adjustTitleCounters(ctx, copyRow.TitleID, increment)
}

// adjustTitleCounters applies a counter update; the CHECK constraints on the
// titles table turn an out-of-bounds counter into an integrity error.
func (s *session) adjustTitleCounters(ctx context.Context, titleID uuid.UUID, record goqu.Record) error {
	update := dialect.Update(s.table(tableTitles)).
		Set(record).
		Where(goqu.C("id").Eq(titleID.String()))

	sqlQuery, _, err := update.ToSQL()
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

func (s *session) scanCopy(rows adapters.DBRows) (circulation.Copy, bool, error) {
	defer s.closeRows(rows)

	if !rows.Next() {
		return circulation.Copy{}, false, nil
	}

	var copyRow circulation.Copy

	if err := rows.Scan(
		&copyRow.ID, &copyRow.TitleID, &copyRow.CopyNumber,
		&copyRow.Condition, &copyRow.Status, &copyRow.AcquiredAt,
	); err != nil {
		s.store.logger.Error(logMsgScanRowFailed, logAttrError, err.Error())
		return circulation.Copy{}, false, err
	}

	return copyRow, true, nil
}
