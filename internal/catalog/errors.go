package catalog

import (
	"errors"
	"fmt"
)

// ErrNotFound 表示请求的 mod 不在当前详情缓存中。它不是存储错误，
// HTTP 层据此返回 404。
var ErrNotFound = errors.New("mod not found")

// ErrStoreQuery 供 errors.Is 判断任意 StoreQueryError。
var ErrStoreQuery = errors.New("store query failed")

// StoreQueryError 包装一次失败的存储查询，Op 记录出错的查询名称。
type StoreQueryError struct {
	Op  string
	Err error
}

func (e *StoreQueryError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, ErrStoreQuery)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrStoreQuery, e.Err)
}

func (e *StoreQueryError) Unwrap() error {
	return e.Err
}

// Is 让 errors.Is(err, ErrStoreQuery) 对所有 StoreQueryError 成立。
func (e *StoreQueryError) Is(target error) bool {
	return target == ErrStoreQuery
}

// NewStoreQueryError 包装 err；若 err 已是 StoreQueryError 则原样返回。
func NewStoreQueryError(op string, err error) error {
	if err == nil {
		return nil
	}
	var sqe *StoreQueryError
	if errors.As(err, &sqe) {
		return err
	}
	return &StoreQueryError{Op: op, Err: err}
}
