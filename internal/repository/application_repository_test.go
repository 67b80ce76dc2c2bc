package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortColumnAllowList(t *testing.T) {
	assert.Equal(t, "a.created_at", sortColumn("submittedAt"))
	assert.Equal(t, "a.status", sortColumn("status"))
	assert.Equal(t, "a.first_name", sortColumn("firstName"))
	assert.Equal(t, "a.last_name", sortColumn("lastName"))
	assert.Equal(t, "u.email", sortColumn("email"))
}

// Unknown keys must never reach ORDER BY; they fall back to submission time.
func TestSortColumnRejectsUnknownKeys(t *testing.T) {
	for _, key := range []string{"", "id; DROP TABLE users", "passport_number", "createdAt"} {
		assert.Equal(t, "a.created_at", sortColumn(key), "key %q", key)
	}
}
