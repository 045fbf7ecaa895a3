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

var loanColumns = []any{"id", "user_id", "title_id", "copy_id", "issued_at", "due_at", "returned_at", "status"}

// LoanByID returns the loan locked for update, so state transitions within
// the enclosing transaction are serialized per loan.
func (s *session) LoanByID(ctx context.Context, id uuid.UUID) (circulation.Loan, error) {
	ds := dialect.From(s.table(tableLoans)).
		Select(loanColumns...).
		Where(goqu.C("id").Eq(id.String())).
		ForUpdate(exp.Wait)

	loans, err := s.queryLoans(ctx, ds)
	if err != nil {
		return circulation.Loan{}, err
	}

	if len(loans) == 0 {
		return circulation.Loan{}, circulation.ErrNotFound
	}

	return loans[0], nil
}

func (s *session) InsertLoan(ctx context.Context, loan circulation.Loan) error {
	ds := dialect.Insert(s.table(tableLoans)).Rows(goqu.Record{
		"id":          loan.ID.String(),
		"user_id":     loan.UserID.String(),
		"title_id":    loan.TitleID.String(),
		"copy_id":     loan.CopyID.String(),
		"issued_at":   loan.IssuedAt,
		"due_at":      loan.DueAt,
		"returned_at": nullableTime(loan.ReturnedAt),
		"status":      string(loan.Status),
	})

	sqlQuery, _, err := ds.ToSQL()
	if err != nil {
		s.store.logger.Error(logMsgBuildQueryFailed, logAttrError, err.Error())
		return err
	}

	_, err = s.execSQL(ctx, sqlQuery)

	return err
}

func (s *session) UpdateLoan(ctx context.Context, loan circulation.Loan) error {
	ds := dialect.Update(s.table(tableLoans)).
		Set(goqu.Record{
			"due_at":      loan.DueAt,
			"returned_at": nullableTime(loan.ReturnedAt),
			"status":      string(loan.Status),
		}).
		Where(goqu.C("id").Eq(loan.ID.String()))

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

// OpenLoanCount counts a user's unreturned loans.
func (s *session) OpenLoanCount(ctx context.Context, userID uuid.UUID) (int, error) {
	ds := dialect.From(s.table(tableLoans)).
		Select(goqu.COUNT(goqu.Star())).
		Where(
			goqu.C("user_id").Eq(userID.String()),
			goqu.C("returned_at").IsNull(),
		)

	return s.countQuery(ctx, ds)
}

// HasOverdueLoan reports whether the user holds an open loan the sweep has
// flagged OVERDUE.
func (s *session) HasOverdueLoan(ctx context.Context, userID uuid.UUID) (bool, error) {
	ds := dialect.From(s.table(tableLoans)).
		Select(goqu.COUNT(goqu.Star())).
		Where(
			goqu.C("user_id").Eq(userID.String()),
			goqu.C("returned_at").IsNull(),
			goqu.C("status").Eq(string(circulation.LoanOverdue)),
		)

	count, err := s.countQuery(ctx, ds)

	return count > 0, err
}

func (s *session) HoldsOpenLoan(ctx context.Context, userID uuid.UUID, titleID uuid.UUID) (bool, error) {
	ds := dialect.From(s.table(tableLoans)).
		Select(goqu.COUNT(goqu.Star())).
		Where(
			goqu.C("user_id").Eq(userID.String()),
			goqu.C("title_id").Eq(titleID.String()),
			goqu.C("returned_at").IsNull(),
		)

	count, err := s.countQuery(ctx, ds)

	return count > 0, err
}

func (s *session) OpenLoansByUser(ctx context.Context, userID uuid.UUID) ([]circulation.Loan, error) {
	ds := dialect.From(s.table(tableLoans)).
		Select(loanColumns...).
		Where(
			goqu.C("user_id").Eq(userID.String()),
			goqu.C("returned_at").IsNull(),
		).
		Order(goqu.C("due_at").Asc(), goqu.C("id").Asc())

	return s.queryLoans(ctx, ds)
}

// ActiveLoansPastDue returns loans still marked ACTIVE whose due time has
// passed, the candidates for the overdue sweep.
func (s *session) ActiveLoansPastDue(ctx context.Context, now time.Time) ([]circulation.Loan, error) {
	ds := dialect.From(s.table(tableLoans)).
		Select(loanColumns...).
		Where(
			goqu.C("status").Eq(string(circulation.LoanActive)),
			goqu.C("returned_at").IsNull(),
			goqu.C("due_at").Lt(now),
		).
		Order(goqu.C("due_at").Asc(), goqu.C("id").Asc())

	return s.queryLoans(ctx, ds)
}

func (s *session) OpenLoansDueBetween(ctx context.Context, from time.Time, until time.Time) ([]circulation.Loan, error) {
	ds := dialect.From(s.table(tableLoans)).
		Select(loanColumns...).
		Where(
			goqu.C("returned_at").IsNull(),
			goqu.C("due_at").Gte(from),
			goqu.C("due_at").Lt(until),
		).
		Order(goqu.C("due_at").Asc(), goqu.C("id").Asc())

	return s.queryLoans(ctx, ds)
}

func (s *session) queryLoans(ctx context.Context, ds *goqu.SelectDataset) ([]circulation.Loan, error) {
	rows, err := s.queryRows(ctx, ds)
	if err != nil {
		return nil, err
	}
	defer s.closeRows(rows)

	var loans []circulation.Loan

	for rows.Next() {
		var (
			loan       circulation.Loan
			returnedAt sql.NullTime
		)

		if err := rows.Scan(
			&loan.ID, &loan.UserID, &loan.TitleID, &loan.CopyID,
			&loan.IssuedAt, &loan.DueAt, &returnedAt, &loan.Status,
		); err != nil {
			s.store.logger.Error(logMsgScanRowFailed, logAttrError, err.Error())
			return nil, err
		}

		if returnedAt.Valid {
			ts := returnedAt.Time
			loan.ReturnedAt = &ts
		}

		loans = append(loans, loan)
	}

	return loans, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}

	return *t
}
