package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mod-hub/mod-hub/internal/catalog"
	"github.com/mod-hub/mod-hub/internal/config"
)

const testSchema = `
CREATE TABLE info (name VARCHAR(64), author VARCHAR(48), icon_src TEXT, short_desc VARCHAR(128), long_desc TEXT);
CREATE TABLE versions (id INTEGER PRIMARY KEY, name VARCHAR(64), link TEXT, version VARCHAR(32), changelog TEXT);
`

// seedDatabase 写入 Alpha(1,2) 与 Beta(1)，Alpha 的 2 版本最新。
func seedDatabase(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "mods.db")
	db, err := sql.Open(driverSQLite, path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	info := []struct{ name, author, icon, short, long string }{
		{"Alpha", "ann", "alpha.png", "first mod", "alpha long"},
		{"Beta", "bob", "", "second mod", "beta long"},
	}
	for _, row := range info {
		_, err := db.Exec(`INSERT INTO info VALUES (?, ?, ?, ?, ?)`, row.name, row.author, row.icon, row.short, row.long)
		require.NoError(t, err)
	}
	_, err = db.Exec(`INSERT INTO info (name, author) VALUES (?, ?)`, "Orphan", "nobody")
	require.NoError(t, err)

	versions := []struct {
		id                   int
		name, link, ver, log string
	}{
		{1, "Alpha", "https://cdn/alpha-1.zip", "1", "init"},
		{2, "Beta", "https://cdn/beta-1.zip", "1", ""},
		{3, "Alpha", "https://cdn/alpha-2.zip", "2", "fixes"},
	}
	for _, row := range versions {
		_, err := db.Exec(`INSERT INTO versions VALUES (?, ?, ?, ?, ?)`, row.id, row.name, row.link, row.ver, row.log)
		require.NoError(t, err)
	}
	_, err = db.Exec(`INSERT INTO versions (id, name, link, version) VALUES (?, ?, ?, ?)`, 4, "Ghost", "https://cdn/ghost.zip", "0.1")
	require.NoError(t, err)

	return path
}

func openTestStore(t *testing.T, path string) *SQLStore {
	t.Helper()
	s, err := Open(context.Background(), config.StoreConfig{
		DatabaseURL:  path,
		QueryTimeout: config.Duration(5 * time.Second),
		MaxOpenConns: 2,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestListCatalogOrdersByLatestVersion(t *testing.T) {
	s := openTestStore(t, seedDatabase(t))

	entries, err := s.ListCatalog(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2, "没有版本的 mod 与没有 info 的版本都不应出现在列表中")

	assert.Equal(t, "Alpha", entries[0].Name)
	assert.Equal(t, "Beta", entries[1].Name)
	assert.Equal(t, "alpha.png", entries[0].IconSrc)
	assert.Equal(t, "first mod", entries[0].ShortDesc)
	assert.Equal(t, "", entries[1].IconSrc)
}

func TestListDetailsAndVersionsScanWholeTables(t *testing.T) {
	s := openTestStore(t, seedDatabase(t))
	ctx := context.Background()

	details, err := s.ListDetails(ctx)
	require.NoError(t, err)
	assert.Len(t, details, 3)

	versions, err := s.ListVersions(ctx)
	require.NoError(t, err)
	require.Len(t, versions, 4)

	var alpha2 catalog.VersionEntry
	for _, v := range versions {
		if v.Name == "Alpha" && v.Version == "2" {
			alpha2 = v
		}
	}
	assert.Equal(t, int64(3), alpha2.Sequence)
	assert.Equal(t, "fixes", alpha2.Changelog)
	assert.Equal(t, "https://cdn/alpha-2.zip", alpha2.Link)
}

func TestStoreIsQueryOnly(t *testing.T) {
	s := openTestStore(t, seedDatabase(t))

	_, err := s.db.Exec(`DELETE FROM info`)
	require.Error(t, err, "本地库应以 query_only 打开")
}

func TestQueryFailureIsStoreQueryError(t *testing.T) {
	s := openTestStore(t, seedDatabase(t))
	require.NoError(t, s.Close())

	_, err := s.ListCatalog(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrStoreQuery))

	var sqe *catalog.StoreQueryError
	require.True(t, errors.As(err, &sqe))
	assert.Equal(t, "list_catalog", sqe.Op)
}

func TestMissingSchemaSurfacesStoreQueryError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	db, err := sql.Open(driverSQLite, path)
	require.NoError(t, err)
	require.NoError(t, db.Ping())
	require.NoError(t, db.Close())

	s := openTestStore(t, path)
	_, err = s.ListDetails(context.Background())
	assert.True(t, errors.Is(err, catalog.ErrStoreQuery))
}

func TestBuildDSN(t *testing.T) {
	driver, dsn, err := buildDSN(config.StoreConfig{DatabaseURL: "libsql://mods.turso.io", AuthToken: "tok en"})
	require.NoError(t, err)
	assert.Equal(t, driverLibSQL, driver)
	assert.Equal(t, "libsql://mods.turso.io?authToken=tok+en", dsn)

	driver, dsn, err = buildDSN(config.StoreConfig{DatabaseURL: "./data/mods.db"})
	require.NoError(t, err)
	assert.Equal(t, driverSQLite, driver)
	assert.True(t, strings.HasPrefix(dsn, "file:./data/mods.db?"))
	assert.Contains(t, dsn, "query_only(1)")

	_, dsn, err = buildDSN(config.StoreConfig{DatabaseURL: "file:mods.db?cache=shared"})
	require.NoError(t, err)
	assert.Contains(t, dsn, "cache=shared&_pragma=")

	_, _, err = buildDSN(config.StoreConfig{})
	assert.Error(t, err)
}
