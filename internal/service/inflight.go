package service

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded 同一节点有更新的请求，旧请求被取消
var ErrSuperseded = errors.New("superseded by a newer request")

// Inflight 按节点记录进行中的请求
// 同一 key 的新请求会取消旧请求，旧请求的迟到结果不会被返回
type Inflight struct {
	mu      sync.Mutex
	seq     uint64
	entries map[string]inflightEntry
}

type inflightEntry struct {
	seq    uint64
	cancel context.CancelCauseFunc
}

// NewInflight 创建进行中请求登记表
func NewInflight() *Inflight {
	return &Inflight{entries: make(map[string]inflightEntry)}
}

// Acquire 登记 key 对应的请求，返回可被后续请求取消的 context
// 调用方结束时必须调用 release
func (r *Inflight) Acquire(ctx context.Context, key string) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(ctx)

	r.mu.Lock()
	if prev, ok := r.entries[key]; ok {
		prev.cancel(ErrSuperseded)
	}
	r.seq++
	mine := r.seq
	r.entries[key] = inflightEntry{seq: mine, cancel: cancel}
	r.mu.Unlock()

	release := func() {
		r.mu.Lock()
		if cur, ok := r.entries[key]; ok && cur.seq == mine {
			delete(r.entries, key)
		}
		r.mu.Unlock()
		cancel(nil)
	}
	return ctx, release
}

// Len 当前登记的请求数
func (r *Inflight) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
