package catalog

import (
	"context"
	"errors"
	"testing"
)

func TestStoreQueryErrorMatching(t *testing.T) {
	base := context.DeadlineExceeded
	err := NewStoreQueryError("list_catalog", base)

	if !errors.Is(err, ErrStoreQuery) {
		t.Fatalf("StoreQueryError 应匹配 ErrStoreQuery")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("应保留底层错误链")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("存储错误不应被识别为 NotFound")
	}

	var sqe *StoreQueryError
	if !errors.As(err, &sqe) || sqe.Op != "list_catalog" {
		t.Fatalf("errors.As 应得到原始 Op，得到 %+v", sqe)
	}
}

func TestNewStoreQueryErrorKeepsExisting(t *testing.T) {
	inner := NewStoreQueryError("list_versions", errors.New("boom"))
	outer := NewStoreQueryError("refresh_details", inner)

	var sqe *StoreQueryError
	if !errors.As(outer, &sqe) || sqe.Op != "list_versions" {
		t.Fatalf("已包装的错误不应再次包装，得到 %v", outer)
	}
	if NewStoreQueryError("noop", nil) != nil {
		t.Fatalf("nil 错误应保持 nil")
	}
}

func TestNormalizeNameAndClone(t *testing.T) {
	if got := NormalizeName("  Alpha "); got != "alpha" {
		t.Fatalf("期望 alpha，得到 %q", got)
	}

	rec := ItemRecord{Versions: []VersionEntry{{Version: "2"}, {Version: "1"}}}
	clone := rec.Clone()
	clone.Versions[0].Version = "mutated"
	if rec.Versions[0].Version != "2" {
		t.Fatalf("Clone 不应共享底层数组")
	}
}
