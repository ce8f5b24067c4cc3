package catalog

import "strings"

// CatalogEntry 是列表页的一行摘要，每个 mod 仅出现一次。
type CatalogEntry struct {
	Name      string `json:"name"`
	Author    string `json:"author"`
	IconSrc   string `json:"icon_src"`
	ShortDesc string `json:"short_desc"`
}

// DetailInfo 保存详情页需要的长描述等较大字段。
type DetailInfo struct {
	Name     string `json:"name"`
	Author   string `json:"author"`
	IconSrc  string `json:"icon_src"`
	LongDesc string `json:"long_desc"`
}

// VersionEntry 对应 versions 表的一行。Sequence 是存储端单调递增的 id，
// 用于判断“最新版本”，不对外输出。
type VersionEntry struct {
	Name      string `json:"-"`
	Link      string `json:"link"`
	Version   string `json:"version"`
	Changelog string `json:"changelog"`
	Sequence  int64  `json:"-"`
}

// ItemRecord 是 /mod/:name 的响应结构，Versions 按新到旧排列。
type ItemRecord struct {
	Info     DetailInfo     `json:"mod_info"`
	Versions []VersionEntry `json:"versions"`
}

// Clone 返回不与缓存共享底层数组的副本，调用方可随意修改。
func (r ItemRecord) Clone() ItemRecord {
	out := r
	if r.Versions != nil {
		out.Versions = make([]VersionEntry, len(r.Versions))
		copy(out.Versions, r.Versions)
	}
	return out
}

// NormalizeName 将 mod 名称转换为缓存键。大小写归一只发生在缓存键与请求键这一层，
// 存储端的 join 仍然按原样匹配。
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
