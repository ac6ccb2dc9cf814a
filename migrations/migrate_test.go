package migrations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	names, err := Names()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "0001_init.sql", names[0])
	assert.IsNonDecreasing(t, names)
}

func TestInitMigrationDefinesSeatRange(t *testing.T) {
	data, err := migrationFiles.ReadFile("0001_init.sql")
	require.NoError(t, err)

	sql := string(data)
	assert.True(t, strings.Contains(sql, "flight_number TEXT NOT NULL UNIQUE"))
	assert.True(t, strings.Contains(sql, "CHECK (available_seats BETWEEN 0 AND total_seats)"))
	assert.True(t, strings.Contains(sql, "REFERENCES flights(id)"))
}
