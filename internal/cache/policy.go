package cache

import (
	"sync"
	"time"
)

// DefaultRefreshInterval 与线上部署保持一致：三分钟后缓存视为过期。
const DefaultRefreshInterval = 180 * time.Second

// Region 标识缓存中的两块独立区域。
type Region string

const (
	RegionCatalog Region = "catalog"
	RegionDetail  Region = "detail"
)

// Ticket 在刷新开始时领取，刷新成功后交回 Mark*Fresh。若期间发生过失效，
// 旧 Ticket 不能把区域标记为新鲜。
type Ticket struct {
	region  Region
	epoch   uint64
	started time.Time
}

// regionState 记录单个区域的新鲜度。freshAt 为零值表示从未成功刷新。
type regionState struct {
	freshAt time.Time
	epoch   uint64
}

// Policy 通过时间戳比较判断缓存是否过期，而不是依赖后台定时器，
// 测试可以通过 now 注入可控时钟。
type Policy struct {
	mu            sync.Mutex
	interval      time.Duration
	now           func() time.Time
	catalog       regionState
	detail        regionState
	invalidatedAt time.Time
}

// NewPolicy 构造失效策略，interval <= 0 时回退到 DefaultRefreshInterval。
// 两个区域初始均为过期状态（冷缓存）。
func NewPolicy(interval time.Duration, now func() time.Time) *Policy {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	if now == nil {
		now = time.Now
	}
	return &Policy{interval: interval, now: now}
}

// Interval 返回当前生效的刷新间隔。
func (p *Policy) Interval() time.Duration {
	return p.interval
}

// ShouldRefreshCatalog 报告列表区域是否需要在读取前刷新。
func (p *Policy) ShouldRefreshCatalog() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.staleLocked(&p.catalog)
}

// ShouldRefreshDetail 报告详情区域是否需要在读取前刷新。
func (p *Policy) ShouldRefreshDetail() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.staleLocked(&p.detail)
}

// Begin 为区域领取刷新凭证。
func (p *Policy) Begin(region Region) Ticket {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Ticket{region: region, epoch: p.regionLocked(region).epoch, started: p.now()}
}

// MarkCatalogFresh 在列表刷新成功后调用。新鲜窗口从刷新开始时计算，
// 保证数据年龄不超过 interval。列表变化后详情必须随之重建，
// 因此这里同时让详情区域失效。
func (p *Policy) MarkCatalogFresh(t Ticket) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.markLocked(&p.catalog, t) {
		return false
	}
	p.invalidateLocked(&p.detail)
	return true
}

// MarkDetailFresh 在详情刷新成功后调用。
func (p *Policy) MarkDetailFresh(t Ticket) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.markLocked(&p.detail, t)
}

// Invalidate 将两个区域同时标记为过期，并记录失效时间。
func (p *Policy) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.invalidateLocked(&p.catalog)
	p.invalidateLocked(&p.detail)
	now := p.now()
	if now.After(p.invalidatedAt) {
		p.invalidatedAt = now
	}
}

// LastInvalidated 返回最近一次手动失效的时间，从未失效时为零值。
func (p *Policy) LastInvalidated() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.invalidatedAt
}

// FreshUntil 返回区域的过期时刻；区域已过期时返回零值。
func (p *Policy) FreshUntil(region Region) time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	state := p.regionLocked(region)
	if p.staleLocked(state) {
		return time.Time{}
	}
	return state.freshAt.Add(p.interval)
}

func (p *Policy) regionLocked(region Region) *regionState {
	if region == RegionDetail {
		return &p.detail
	}
	return &p.catalog
}

func (p *Policy) staleLocked(state *regionState) bool {
	if state.freshAt.IsZero() {
		return true
	}
	return !p.now().Before(state.freshAt.Add(p.interval))
}

func (p *Policy) markLocked(state *regionState, t Ticket) bool {
	if t.epoch != state.epoch {
		return false
	}
	state.freshAt = t.started
	return true
}

func (p *Policy) invalidateLocked(state *regionState) {
	state.freshAt = time.Time{}
	state.epoch++
}
