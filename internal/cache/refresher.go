package cache

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/hashicorp/go-version"
	"golang.org/x/sync/errgroup"

	"github.com/mod-hub/mod-hub/internal/catalog"
)

// VersionOrder 决定详情记录中版本列表的排序方式。
type VersionOrder string

const (
	// VersionOrderSequence 按存储端自增 id 倒序，即发布时间新到旧。
	VersionOrderSequence VersionOrder = "sequence"
	// VersionOrderLabel 按版本号语义倒序，无法解析时退回字典序。
	VersionOrderLabel VersionOrder = "label"
)

// Refresher 从 Source 拉取全量数据并组装成新的快照，不触碰 State。
type Refresher struct {
	source catalog.Source
	order  VersionOrder
}

// NewRefresher 构造 Refresher；未知的 order 按 VersionOrderSequence 处理。
func NewRefresher(source catalog.Source, order VersionOrder) *Refresher {
	if order != VersionOrderLabel {
		order = VersionOrderSequence
	}
	return &Refresher{source: source, order: order}
}

// RefreshCatalog 执行一次聚合查询，返回按最近更新倒序的列表。
func (r *Refresher) RefreshCatalog(ctx context.Context) ([]catalog.CatalogEntry, error) {
	if r.source == nil {
		return nil, catalog.NewStoreQueryError("list_catalog", errors.New("source not configured"))
	}
	entries, err := r.source.ListCatalog(ctx)
	if err != nil {
		return nil, catalog.NewStoreQueryError("list_catalog", err)
	}
	return entries, nil
}

// DetailResult 是一次详情刷新的产物。Dropped 统计列表中存在但详情表缺失的条目。
type DetailResult struct {
	Records map[string]catalog.ItemRecord
	Dropped []string
}

// RefreshDetails 并发扫描详情表与版本表（固定两次查询），然后在内存中按名称精确匹配。
// 任一查询失败即放弃本次结果。
func (r *Refresher) RefreshDetails(ctx context.Context, entries []catalog.CatalogEntry) (DetailResult, error) {
	if r.source == nil {
		return DetailResult{}, catalog.NewStoreQueryError("list_details", errors.New("source not configured"))
	}

	var (
		details  []catalog.DetailInfo
		versions []catalog.VersionEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := r.source.ListDetails(gctx)
		if err != nil {
			return catalog.NewStoreQueryError("list_details", err)
		}
		details = rows
		return nil
	})
	g.Go(func() error {
		rows, err := r.source.ListVersions(gctx)
		if err != nil {
			return catalog.NewStoreQueryError("list_versions", err)
		}
		versions = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return DetailResult{}, err
	}

	return r.join(entries, details, versions), nil
}

func (r *Refresher) join(entries []catalog.CatalogEntry, details []catalog.DetailInfo, versions []catalog.VersionEntry) DetailResult {
	infoByName := make(map[string]catalog.DetailInfo, len(details))
	for _, info := range details {
		if _, exists := infoByName[info.Name]; !exists {
			infoByName[info.Name] = info
		}
	}
	versionsByName := make(map[string][]catalog.VersionEntry, len(entries))
	for _, v := range versions {
		versionsByName[v.Name] = append(versionsByName[v.Name], v)
	}

	result := DetailResult{Records: make(map[string]catalog.ItemRecord, len(entries))}
	for _, entry := range entries {
		info, ok := infoByName[entry.Name]
		if !ok {
			result.Dropped = append(result.Dropped, entry.Name)
			continue
		}
		list := versionsByName[entry.Name]
		if list == nil {
			list = []catalog.VersionEntry{}
		}
		r.sortVersions(list)
		result.Records[catalog.NormalizeName(entry.Name)] = catalog.ItemRecord{
			Info:     info,
			Versions: list,
		}
	}
	return result
}

func (r *Refresher) sortVersions(list []catalog.VersionEntry) {
	if r.order == VersionOrderLabel {
		sort.SliceStable(list, func(i, j int) bool {
			if c := compareLabels(list[i].Version, list[j].Version); c != 0 {
				return c > 0
			}
			return list[i].Sequence > list[j].Sequence
		})
		return
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Sequence > list[j].Sequence
	})
}

// compareLabels 优先按语义版本比较，任一方无法解析时按字符串比较。
func compareLabels(a, b string) int {
	va, errA := version.NewVersion(a)
	vb, errB := version.NewVersion(b)
	if errA == nil && errB == nil {
		return va.Compare(vb)
	}
	return strings.Compare(a, b)
}
