package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedVersions(t *testing.T) {
	versions, err := embeddedVersions()
	require.NoError(t, err)
	require.NotEmpty(t, versions)
	assert.Equal(t, "0001_eligibility_tables", versions[0])
	assert.IsNonDecreasing(t, versions)
}

func TestEmbeddedMigrationsCreateDestinationTables(t *testing.T) {
	body, err := migrationsFS.ReadFile("migrations/0001_eligibility_tables.sql")
	require.NoError(t, err)
	for _, table := range []string{"intake_primary", "intake_secondary", "eligibility_responses", "eligibility_dotcare"} {
		assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS "+table)
	}
}
