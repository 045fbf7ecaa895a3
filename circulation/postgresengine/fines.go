package postgresengine

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shelfwise/circulation-go/circulation"
)

// The amount column is NUMERIC; it is selected as text and parsed through
// shopspring/decimal so no float conversion ever touches the money value.
var fineColumns = []any{
	"id", "user_id", "loan_id", goqu.L("amount::text"), "reason", "status", "assessed_at", "due_at", "paid_at",
}

// FineByID returns the fine locked for update.
func (s *session) FineByID(ctx context.Context, id uuid.UUID) (circulation.Fine, error) {
	ds := dialect.From(s.table(tableFines)).
		Select(fineColumns...).
		Where(goqu.C("id").Eq(id.String())).
		ForUpdate(exp.Wait)

	fines, err := s.queryFines(ctx, ds)
	if err != nil {
		return circulation.Fine{}, err
	}

	if len(fines) == 0 {
		return circulation.Fine{}, circulation.ErrNotFound
	}

	return fines[0], nil
}

func (s *session) InsertFine(ctx context.Context, fine circulation.Fine) error {
	ds := dialect.Insert(s.table(tableFines)).Rows(goqu.Record{
		"id":          fine.ID.String(),
		"user_id":     fine.UserID.String(),
		"loan_id":     fine.LoanID.String(),
		"amount":      fine.Amount.StringFixed(2),
		"reason":      fine.Reason,
		"status":      string(fine.Status),
		"assessed_at": fine.AssessedAt,
		"due_at":      fine.DueAt,
		"paid_at":     nullableTime(fine.PaidAt),
	})

	sqlQuery, _, err := ds.ToSQL()
	if err != nil {
		s.store.logger.Error(logMsgBuildQueryFailed, logAttrError, err.Error())
		return err
	}

	_, err = s.execSQL(ctx, sqlQuery)

	return err
}

func (s *session) UpdateFine(ctx context.Context, fine circulation.Fine) error {
	ds := dialect.Update(s.table(tableFines)).
		Set(goqu.Record{
			"amount":  fine.Amount.StringFixed(2),
			"status":  string(fine.Status),
			"due_at":  fine.DueAt,
			"paid_at": nullableTime(fine.PaidAt),
		}).
		Where(goqu.C("id").Eq(fine.ID.String()))

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

// FineExistsForLoan backs the one-fine-per-loan idempotence check.
// The unique index on loan_id is the hard guarantee underneath it.
func (s *session) FineExistsForLoan(ctx context.Context, loanID uuid.UUID) (bool, error) {
	ds := dialect.From(s.table(tableFines)).
		Select(goqu.COUNT(goqu.Star())).
		Where(goqu.C("loan_id").Eq(loanID.String()))

	count, err := s.countQuery(ctx, ds)

	return count > 0, err
}

func (s *session) FinesByUser(ctx context.Context, userID uuid.UUID) ([]circulation.Fine, error) {
	ds := dialect.From(s.table(tableFines)).
		Select(fineColumns...).
		Where(goqu.C("user_id").Eq(userID.String())).
		Order(goqu.C("assessed_at").Asc(), goqu.C("id").Asc())

	return s.queryFines(ctx, ds)
}

func (s *session) queryFines(ctx context.Context, ds *goqu.SelectDataset) ([]circulation.Fine, error) {
	rows, err := s.queryRows(ctx, ds)
	if err != nil {
		return nil, err
	}
	defer s.closeRows(rows)

	var fines []circulation.Fine

	for rows.Next() {
		var (
			fine   circulation.Fine
			amount string
			paidAt sql.NullTime
		)

		if err := rows.Scan(
			&fine.ID, &fine.UserID, &fine.LoanID, &amount,
			&fine.Reason, &fine.Status, &fine.AssessedAt, &fine.DueAt, &paidAt,
		); err != nil {
			s.store.logger.Error(logMsgScanRowFailed, logAttrError, err.Error())
			return nil, err
		}

		parsed, err := decimal.NewFromString(amount)
		if err != nil {
			s.store.logger.Error(logMsgScanRowFailed, logAttrError, err.Error())
			return nil, err
		}

		fine.Amount = parsed

		if paidAt.Valid {
			ts := paidAt.Time
			fine.PaidAt = &ts
		}

		fines = append(fines, fine)
	}

	return fines, nil
}
