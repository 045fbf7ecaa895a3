package postgresengine

import (
	"context"
	"strings"
)

// schemaDDL creates the circulation tables with the data invariants enforced
// at the storage boundary: non-negative bounded availability counters, one
// open loan per copy, one pending reservation per (user, title), one fine
// per loan.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS %[1]stitles (
	id               UUID PRIMARY KEY,
	isbn             TEXT NOT NULL UNIQUE,
	name             TEXT NOT NULL,
	authors          TEXT NOT NULL DEFAULT '',
	total_copies     INTEGER NOT NULL DEFAULT 0 CHECK (total_copies >= 0),
	available_copies INTEGER NOT NULL DEFAULT 0
		CHECK (available_copies >= 0 AND available_copies <= total_copies),
	created_at       TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS %[1]scopies (
	id          UUID PRIMARY KEY,
	title_id    UUID NOT NULL REFERENCES %[1]stitles (id),
	copy_number INTEGER NOT NULL,
	condition   TEXT NOT NULL DEFAULT 'NEW',
	status      TEXT NOT NULL DEFAULT 'AVAILABLE',
	acquired_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	UNIQUE (title_id, copy_number)
);

CREATE TABLE IF NOT EXISTS %[1]sloans (
	id          UUID PRIMARY KEY,
	user_id     UUID NOT NULL,
	title_id    UUID NOT NULL REFERENCES %[1]stitles (id),
	copy_id     UUID NOT NULL REFERENCES %[1]scopies (id),
	issued_at   TIMESTAMP WITH TIME ZONE NOT NULL,
	due_at      TIMESTAMP WITH TIME ZONE NOT NULL,
	returned_at TIMESTAMP WITH TIME ZONE,
	status      TEXT NOT NULL DEFAULT 'ACTIVE'
);

CREATE UNIQUE INDEX IF NOT EXISTS %[1]sloans_one_open_per_copy
	ON %[1]sloans (copy_id) WHERE returned_at IS NULL;

CREATE INDEX IF NOT EXISTS %[1]sloans_user_open
	ON %[1]sloans (user_id) WHERE returned_at IS NULL;

CREATE TABLE IF NOT EXISTS %[1]sreservations (
	id           UUID PRIMARY KEY,
	user_id      UUID NOT NULL,
	title_id     UUID NOT NULL REFERENCES %[1]stitles (id),
	requested_at TIMESTAMP WITH TIME ZONE NOT NULL,
	status       TEXT NOT NULL DEFAULT 'PENDING',
	notified     BOOLEAN NOT NULL DEFAULT FALSE,
	notified_at  TIMESTAMP WITH TIME ZONE,
	fulfilled_at TIMESTAMP WITH TIME ZONE
);

CREATE UNIQUE INDEX IF NOT EXISTS %[1]sreservations_one_pending
	ON %[1]sreservations (user_id, title_id) WHERE status = 'PENDING';

CREATE INDEX IF NOT EXISTS %[1]sreservations_title_pending
	ON %[1]sreservations (title_id, requested_at) WHERE status = 'PENDING';

CREATE TABLE IF NOT EXISTS %[1]sfines (
	id          UUID PRIMARY KEY,
	user_id     UUID NOT NULL,
	loan_id     UUID NOT NULL UNIQUE REFERENCES %[1]sloans (id),
	amount      NUMERIC(10, 2) NOT NULL CHECK (amount >= 0),
	reason      TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'PENDING',
	assessed_at TIMESTAMP WITH TIME ZONE NOT NULL,
	due_at      TIMESTAMP WITH TIME ZONE NOT NULL,
	paid_at     TIMESTAMP WITH TIME ZONE
);
`

// CreateSchema creates all circulation tables and indexes if they do not
// exist yet. Intended for tests and first-run provisioning; production
// deployments typically run migrations instead.
func (s *Store) CreateSchema(ctx context.Context) error {
	ddl := strings.ReplaceAll(schemaDDL, "%[1]s", s.tablePrefix)

	dbTx, err := s.db.BeginTx(ctx)
	if err != nil {
		return s.mapError(err)
	}

	if _, err := dbTx.Exec(ctx, ddl); err != nil {
		if rbErr := dbTx.Rollback(ctx); rbErr != nil {
			s.logger.Warn(logMsgTxRollbackFailed, logAttrError, rbErr.Error())
		}

		return s.mapError(err)
	}

	return s.mapError(dbTx.Commit(ctx))
}
