package migration

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMigrations(t *testing.T) {
	migrations, err := ListMigrations()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"000001_create_tenants",
		"000002_create_contacts",
		"000003_create_audit_records",
	}, migrations)
}

func TestEmbeddedMigrations_HaveDownFiles(t *testing.T) {
	migrations, err := ListMigrations()
	require.NoError(t, err)

	for _, name := range migrations {
		_, err := fs.Stat(migrationsFS, migrationsDir+"/"+name+".down.sql")
		assert.NoError(t, err, "missing down migration for %s", name)
	}
}

func TestContactsMigration_DeclaresConditionalUpdateColumns(t *testing.T) {
	content, err := fs.ReadFile(migrationsFS, migrationsDir+"/000002_create_contacts.up.sql")
	require.NoError(t, err)

	sql := string(content)
	for _, column := range []string{"version", "status_updated_at", "external_customer_id"} {
		assert.True(t, strings.Contains(sql, column), "contacts table should declare %s", column)
	}
	assert.Contains(t, sql, "CREATE UNIQUE INDEX IF NOT EXISTS idx_contacts_tenant_external")
}
