package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"

	"github.com/mod-hub/mod-hub/internal/catalog"
	"github.com/mod-hub/mod-hub/internal/config"
)

const (
	driverLibSQL = "libsql"
	driverSQLite = "sqlite"
)

// SQLStore 通过 database/sql 执行只读查询，实现 catalog.Source。
type SQLStore struct {
	db     *sql.DB
	driver string
}

var _ catalog.Source = (*SQLStore)(nil)

// Open 根据 StoreConfig 选择驱动并建立连接池，启动阶段调用一次并 Ping 验证。
func Open(ctx context.Context, cfg config.StoreConfig) (*SQLStore, error) {
	driver, dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	pingCtx := ctx
	if timeout := cfg.QueryTimeout.DurationValue(); timeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, catalog.NewStoreQueryError("ping", err)
	}

	return &SQLStore{db: db, driver: driver}, nil
}

// New 包装一个已打开的 *sql.DB，调用方负责其生命周期之外的配置。
func New(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, driver: driverSQLite}
}

// Driver 返回实际使用的驱动名，供启动日志使用。
func (s *SQLStore) Driver() string {
	return s.driver
}

// Close 释放连接池。
func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ListCatalog 按最新版本 id 倒序返回每个 mod 的摘要。
func (s *SQLStore) ListCatalog(ctx context.Context) ([]catalog.CatalogEntry, error) {
	rows, err := s.db.QueryContext(ctx, queryCatalog)
	if err != nil {
		return nil, catalog.NewStoreQueryError("list_catalog", err)
	}
	defer rows.Close()

	entries := []catalog.CatalogEntry{}
	for rows.Next() {
		var e catalog.CatalogEntry
		if err := rows.Scan(&e.Name, &e.Author, &e.IconSrc, &e.ShortDesc); err != nil {
			return nil, catalog.NewStoreQueryError("list_catalog", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, catalog.NewStoreQueryError("list_catalog", err)
	}
	return entries, nil
}

// ListDetails 全量读取 info 表的详情字段。
func (s *SQLStore) ListDetails(ctx context.Context) ([]catalog.DetailInfo, error) {
	rows, err := s.db.QueryContext(ctx, queryDetails)
	if err != nil {
		return nil, catalog.NewStoreQueryError("list_details", err)
	}
	defer rows.Close()

	var details []catalog.DetailInfo
	for rows.Next() {
		var d catalog.DetailInfo
		if err := rows.Scan(&d.Name, &d.Author, &d.IconSrc, &d.LongDesc); err != nil {
			return nil, catalog.NewStoreQueryError("list_details", err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, catalog.NewStoreQueryError("list_details", err)
	}
	return details, nil
}

// ListVersions 全量读取 versions 表。
func (s *SQLStore) ListVersions(ctx context.Context) ([]catalog.VersionEntry, error) {
	rows, err := s.db.QueryContext(ctx, queryVersions)
	if err != nil {
		return nil, catalog.NewStoreQueryError("list_versions", err)
	}
	defer rows.Close()

	var versions []catalog.VersionEntry
	for rows.Next() {
		var v catalog.VersionEntry
		if err := rows.Scan(&v.Sequence, &v.Name, &v.Link, &v.Version, &v.Changelog); err != nil {
			return nil, catalog.NewStoreQueryError("list_versions", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, catalog.NewStoreQueryError("list_versions", err)
	}
	return versions, nil
}

// buildDSN 远程地址附加 authToken 参数；本地文件以只读模式打开并设置 busy_timeout。
func buildDSN(cfg config.StoreConfig) (string, string, error) {
	raw := strings.TrimSpace(cfg.DatabaseURL)
	if raw == "" {
		return "", "", errors.New("database url is required")
	}

	if cfg.IsRemote() {
		parsed, err := url.Parse(raw)
		if err != nil {
			return "", "", fmt.Errorf("invalid database url: %w", err)
		}
		if cfg.AuthToken != "" {
			query := parsed.Query()
			query.Set("authToken", cfg.AuthToken)
			parsed.RawQuery = query.Encode()
		}
		return driverLibSQL, parsed.String(), nil
	}

	dsn := raw
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn += sep + "_pragma=busy_timeout(5000)&_pragma=query_only(1)"
	return driverSQLite, dsn, nil
}
