package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shelfwise/circulation-go/identity"
)

func Test_Role_CanWaiveFines(t *testing.T) {
	testCases := []struct {
		name     string
		role     identity.Role
		expected bool
	}{
		{"student may not waive", identity.RoleStudent, false},
		{"librarian may waive", identity.RoleLibrarian, true},
		{"admin may waive", identity.RoleAdmin, true},
		{"unknown role may not waive", identity.Role("JANITOR"), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.role.CanWaiveFines())
		})
	}
}

func Test_Role_CanViewAll(t *testing.T) {
	testCases := []struct {
		name     string
		role     identity.Role
		expected bool
	}{
		{"student sees own records only", identity.RoleStudent, false},
		{"librarian sees all records", identity.RoleLibrarian, true},
		{"admin sees all records", identity.RoleAdmin, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.role.CanViewAll())
		})
	}
}

func Test_HashPassword_VerifiesWithOriginalPassword(t *testing.T) {
	// arrange
	password := "correct horse battery staple"

	// act
	hash, err := identity.HashPassword(password)

	// assert
	assert.NoError(t, err)
	assert.NotEqual(t, password, hash)
	assert.True(t, identity.VerifyPassword(hash, password))
}

func Test_VerifyPassword_RejectsWrongPassword(t *testing.T) {
	// arrange
	hash, err := identity.HashPassword("correct horse battery staple")
	assert.NoError(t, err, "error in arranging test data")

	// act
	ok := identity.VerifyPassword(hash, "Tr0ub4dor&3")

	// assert
	assert.False(t, ok)
}

func Test_VerifyPassword_RejectsMalformedHash(t *testing.T) {
	// act
	ok := identity.VerifyPassword("not-a-bcrypt-hash", "anything")

	// assert
	assert.False(t, ok)
}

func Test_HashPassword_ProducesDistinctHashesPerCall(t *testing.T) {
	// arrange
	password := "same password twice"

	// act
	first, err1 := identity.HashPassword(password)
	second, err2 := identity.HashPassword(password)

	// assert: bcrypt salts each hash
	assert.NoError(t, err1)
	assert.NoError(t, err2)
	assert.NotEqual(t, first, second)
}
