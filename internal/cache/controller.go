package cache

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/mod-hub/mod-hub/internal/catalog"
	"github.com/mod-hub/mod-hub/internal/logging"
)

// DefaultQueryTimeout 限制单次刷新的存储调用时长，避免挂起的存储拖住所有请求。
const DefaultQueryTimeout = 10 * time.Second

// Observer 接收刷新与查找事件，metrics 包提供 Prometheus 实现。
type Observer interface {
	ObserveRefresh(region Region, elapsed time.Duration, err error)
	ObserveShared(region Region)
	ObserveLookup(hit bool)
}

type nopObserver struct{}

func (nopObserver) ObserveRefresh(Region, time.Duration, error) {}
func (nopObserver) ObserveShared(Region)                        {}
func (nopObserver) ObserveLookup(bool)                          {}

// Options 汇总 Controller 的依赖，Policy/State 为空时自动创建。
type Options struct {
	Source       catalog.Source
	Logger       *logrus.Logger
	Policy       *Policy
	State        *State
	Observer     Observer
	QueryTimeout time.Duration
	VersionOrder VersionOrder
}

// Controller 是缓存的唯一入口：读取前询问 Policy，必要时经 singleflight
// 合并并发刷新，再从 State 返回只读副本。
type Controller struct {
	logger    *logrus.Logger
	policy    *Policy
	state     *State
	refresher *Refresher
	observer  Observer
	timeout   time.Duration
	group     singleflight.Group
}

// NewController 校验依赖并构造 Controller。
func NewController(opts Options) (*Controller, error) {
	if opts.Source == nil {
		return nil, errors.New("catalog source is required")
	}
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Policy == nil {
		opts.Policy = NewPolicy(DefaultRefreshInterval, nil)
	}
	if opts.State == nil {
		opts.State = NewState()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = DefaultQueryTimeout
	}

	return &Controller{
		logger:    opts.Logger,
		policy:    opts.Policy,
		state:     opts.State,
		refresher: NewRefresher(opts.Source, opts.VersionOrder),
		observer:  opts.Observer,
		timeout:   opts.QueryTimeout,
	}, nil
}

// Catalog 返回按最近更新排序的 mod 列表，过期时先刷新。
// 刷新失败时返回 StoreQueryError，State 与新鲜度均保持不变。
func (c *Controller) Catalog(ctx context.Context) ([]catalog.CatalogEntry, error) {
	if c.policy.ShouldRefreshCatalog() {
		if err := c.refreshCatalog(ctx); err != nil {
			return nil, err
		}
	}
	return c.state.Catalog(), nil
}

// Item 按名称（大小写不敏感）返回详情记录。名称不存在时返回 catalog.ErrNotFound。
func (c *Controller) Item(ctx context.Context, name string) (catalog.ItemRecord, error) {
	key := catalog.NormalizeName(name)

	// 列表过期时详情刷新没有意义，必须先刷新列表。
	if c.policy.ShouldRefreshCatalog() {
		if err := c.refreshCatalog(ctx); err != nil {
			return catalog.ItemRecord{}, err
		}
	}
	if c.policy.ShouldRefreshDetail() {
		if err := c.refreshDetails(ctx); err != nil {
			return catalog.ItemRecord{}, err
		}
	}

	record, ok := c.state.Item(key)
	c.observer.ObserveLookup(ok)
	if !ok {
		return catalog.ItemRecord{}, catalog.ErrNotFound
	}
	return record, nil
}

// Invalidate 让两个区域立即过期，下一次请求会触发刷新。
func (c *Controller) Invalidate() {
	c.policy.Invalidate()
	c.logger.WithFields(logrus.Fields{"action": "cache_invalidate"}).Info("cache invalidated")
}

func (c *Controller) refreshCatalog(ctx context.Context) error {
	return c.flight(ctx, RegionCatalog, func(qctx context.Context) error {
		if !c.policy.ShouldRefreshCatalog() {
			return nil
		}
		ticket := c.policy.Begin(RegionCatalog)
		started := time.Now()

		entries, err := c.refresher.RefreshCatalog(qctx)
		c.observer.ObserveRefresh(RegionCatalog, time.Since(started), err)
		if err != nil {
			c.logger.WithError(err).
				WithFields(logging.RefreshFields(string(RegionCatalog), time.Since(started))).
				Warn("cache_refresh_failed")
			return err
		}

		c.state.SwapCatalog(entries, ticket.started)
		applied := c.policy.MarkCatalogFresh(ticket)

		fields := logging.RefreshFields(string(RegionCatalog), time.Since(started))
		fields["entries"] = len(entries)
		fields["marked_fresh"] = applied
		c.logger.WithFields(fields).Debug("cache_refreshed")
		return nil
	})
}

func (c *Controller) refreshDetails(ctx context.Context) error {
	return c.flight(ctx, RegionDetail, func(qctx context.Context) error {
		if !c.policy.ShouldRefreshDetail() {
			return nil
		}
		// 先领取凭证再读列表：若列表在此之后被替换，凭证随之作废。
		ticket := c.policy.Begin(RegionDetail)
		entries := c.state.Catalog()
		started := time.Now()

		result, err := c.refresher.RefreshDetails(qctx, entries)
		c.observer.ObserveRefresh(RegionDetail, time.Since(started), err)
		if err != nil {
			c.logger.WithError(err).
				WithFields(logging.RefreshFields(string(RegionDetail), time.Since(started))).
				Warn("cache_refresh_failed")
			return err
		}

		c.state.SwapDetails(result.Records, len(result.Dropped), ticket.started)
		applied := c.policy.MarkDetailFresh(ticket)

		fields := logging.RefreshFields(string(RegionDetail), time.Since(started))
		fields["entries"] = len(result.Records)
		fields["marked_fresh"] = applied
		c.logger.WithFields(fields).Debug("cache_refreshed")
		if len(result.Dropped) > 0 {
			c.logger.WithFields(logrus.Fields{
				"action":  "cache_detail_drift",
				"region":  string(RegionDetail),
				"dropped": result.Dropped,
			}).Warn("catalog entries without detail rows omitted")
		}
		return nil
	})
}

// flight 用 singleflight 合并同一区域的并发刷新。刷新本身脱离调用方的取消信号
// 并受 timeout 限制，调用方取消时只是不再等待结果。
func (c *Controller) flight(ctx context.Context, region Region, fn func(context.Context) error) error {
	ch := c.group.DoChan(string(region), func() (interface{}, error) {
		qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return nil, fn(qctx)
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.observer.ObserveShared(region)
		}
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RegionStatus 描述一个区域的新鲜度与快照统计。
type RegionStatus struct {
	RegionStats
	Stale      bool      `json:"stale"`
	FreshUntil time.Time `json:"fresh_until,omitempty"`
}

// Status 是 /-/status 的输出结构。
type Status struct {
	RefreshInterval string       `json:"refresh_interval"`
	LastInvalidated time.Time    `json:"last_invalidated,omitempty"`
	Catalog         RegionStatus `json:"catalog"`
	Detail          RegionStatus `json:"detail"`
}

// Status 汇总当前缓存状态，不触发刷新。
func (c *Controller) Status() Status {
	cat, det := c.state.Stats()
	return Status{
		RefreshInterval: c.policy.Interval().String(),
		LastInvalidated: c.policy.LastInvalidated(),
		Catalog: RegionStatus{
			RegionStats: cat,
			Stale:       c.policy.ShouldRefreshCatalog(),
			FreshUntil:  c.policy.FreshUntil(RegionCatalog),
		},
		Detail: RegionStatus{
			RegionStats: det,
			Stale:       c.policy.ShouldRefreshDetail(),
			FreshUntil:  c.policy.FreshUntil(RegionDetail),
		},
	}
}
