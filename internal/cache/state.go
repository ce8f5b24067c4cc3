package cache

import (
	"sync/atomic"
	"time"

	"github.com/mod-hub/mod-hub/internal/catalog"
)

// catalogSnapshot 一旦发布便不可修改，替换时整体换指针。
type catalogSnapshot struct {
	entries     []catalog.CatalogEntry
	refreshedAt time.Time
}

// detailSnapshot 以小写 mod 名为键；Dropped 记录因缺少详情行被跳过的条目数。
type detailSnapshot struct {
	records     map[string]catalog.ItemRecord
	dropped     int
	refreshedAt time.Time
}

// State 持有当前生效的列表与详情快照。读取方只能拿到副本，
// 刷新过程中也不会观察到写了一半的结构。
type State struct {
	catalog atomic.Pointer[catalogSnapshot]
	detail  atomic.Pointer[detailSnapshot]
}

// NewState 返回空的冷缓存。
func NewState() *State {
	return &State{}
}

// Catalog 返回当前列表的副本；冷缓存返回空切片而非 nil，便于输出 []。
func (s *State) Catalog() []catalog.CatalogEntry {
	snap := s.catalog.Load()
	if snap == nil {
		return []catalog.CatalogEntry{}
	}
	return append(make([]catalog.CatalogEntry, 0, len(snap.entries)), snap.entries...)
}

// Item 按已归一化的键查找详情记录。
func (s *State) Item(key string) (catalog.ItemRecord, bool) {
	snap := s.detail.Load()
	if snap == nil {
		return catalog.ItemRecord{}, false
	}
	record, ok := snap.records[key]
	if !ok {
		return catalog.ItemRecord{}, false
	}
	return record.Clone(), true
}

// SwapCatalog 整体替换列表快照。entries 的所有权转移给 State。
func (s *State) SwapCatalog(entries []catalog.CatalogEntry, at time.Time) {
	if entries == nil {
		entries = []catalog.CatalogEntry{}
	}
	s.catalog.Store(&catalogSnapshot{entries: entries, refreshedAt: at})
}

// SwapDetails 整体替换详情快照。records 的所有权转移给 State。
func (s *State) SwapDetails(records map[string]catalog.ItemRecord, dropped int, at time.Time) {
	if records == nil {
		records = map[string]catalog.ItemRecord{}
	}
	s.detail.Store(&detailSnapshot{records: records, dropped: dropped, refreshedAt: at})
}

// RegionStats 描述单个区域的快照统计，供诊断接口输出。
type RegionStats struct {
	Entries     int       `json:"entries"`
	Dropped     int       `json:"dropped,omitempty"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

// Stats 返回两个区域的当前统计。
func (s *State) Stats() (RegionStats, RegionStats) {
	var cat, det RegionStats
	if snap := s.catalog.Load(); snap != nil {
		cat = RegionStats{Entries: len(snap.entries), RefreshedAt: snap.refreshedAt}
	}
	if snap := s.detail.Load(); snap != nil {
		det = RegionStats{Entries: len(snap.records), Dropped: snap.dropped, RefreshedAt: snap.refreshedAt}
	}
	return cat, det
}
