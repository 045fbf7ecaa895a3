package helper

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/shelfwise/circulation-go/circulation"
)

func GivenUniqueID(t testing.TB) uuid.UUID {
	id, err := uuid.NewV7()
	assert.NoError(t, err, "error in arranging test data")

	return id
}

func GivenTime(t testing.TB, value string) time.Time {
	ts, err := time.Parse(time.RFC3339, value)
	assert.NoError(t, err, "error in arranging test data")

	return circulation.ToTimestamp(ts)
}
