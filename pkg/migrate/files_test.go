package migrate

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"
)

func TestListFilesSortsAndRejectsDuplicates(t *testing.T) {
	fsys := fstest.MapFS{
		"m/20250301090100_create_orders.sql":           {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		"m/20250301090000_create_customers_admins.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		"m/README.md":                                  {Data: []byte("notes")},
	}
	files, err := ListFiles(fsys, "m")
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Equal(t, "create_customers_admins", files[0].Name)
	require.Equal(t, int64(20250301090100), files[1].Version)

	fsys["m/20250301090100_other.sql"] = &fstest.MapFile{Data: []byte("-- +goose Up\n-- +goose Down\n")}
	_, err = ListFiles(fsys, "m")
	require.ErrorContains(t, err, "share version")
}

func TestValidateRequiresBothSections(t *testing.T) {
	fsys := fstest.MapFS{
		"20250301090000_create_budgets.sql": {Data: []byte("-- +goose Up\nCREATE TABLE budgets ();\n")},
	}
	require.ErrorContains(t, validateFS(fsys, "."), "-- +goose Down")
}

func TestEmbeddedMigrationsValidate(t *testing.T) {
	require.NoError(t, validateFS(Migrations, embeddedDir))
}

func TestCreateSQLMigrationBumpsPastNewestVersion(t *testing.T) {
	dir := t.TempDir()
	future := time.Now().UTC().Add(24 * time.Hour).Format(versionLayout)
	require.NoError(t, os.WriteFile(filepath.Join(dir, future+"_seed.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))

	path, err := CreateSQLMigration(dir, "Add budget Invoice URL!")
	require.NoError(t, err)
	require.Contains(t, filepath.Base(path), "_add_budget_invoice_url.sql")

	files, err := ListFiles(os.DirFS(dir), ".")
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Equal(t, files[0].Version+1, files[1].Version)
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "  !!  ")
	require.Error(t, err)
}

func TestEmbeddedSourceIsRooted(t *testing.T) {
	fsys, err := source("")
	require.NoError(t, err)
	files, err := ListFiles(fsys, ".")
	require.NoError(t, err)
	require.NotEmpty(t, files)
}

func TestAppliedSkipsEmptyResults(t *testing.T) {
	require.Empty(t, applied(nil))
	_, err := NewMigrator(nil, "")
	require.Error(t, err)
}
