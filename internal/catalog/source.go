package catalog

import "context"

// Source 描述缓存刷新所需的只读查询。实现必须使用参数化语句，
// 并在失败时返回 *StoreQueryError 或可被包装的底层错误。
type Source interface {
	// ListCatalog 返回每个 mod 一行摘要，按最新版本的 Sequence 倒序排列。
	ListCatalog(ctx context.Context) ([]CatalogEntry, error)

	// ListDetails 全量扫描详情表。
	ListDetails(ctx context.Context) ([]DetailInfo, error)

	// ListVersions 全量扫描版本表，顺序不作要求。
	ListVersions(ctx context.Context) ([]VersionEntry, error)
}
