package storage

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// MemoryStore はメモリ上のキーバリューストア。
// テストおよび永続化不要の用途に使用する。
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryStore は空のMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string][]byte),
	}
}

// Read はkeyの値をvにJSONデコードする。
// 値が存在しない、または復元に失敗した場合はfalseを返す。
func (s *MemoryStore) Read(key string, v any) bool {
	s.mu.RLock()
	raw, ok := s.values[key]
	s.mu.RUnlock()

	if !ok {
		return false
	}

	if err := json.Unmarshal(raw, v); err != nil {
		slog.Warn("memory store value corrupted, treating as absent",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return false
	}

	return true
}

// Write はvをJSONエンコードしてkeyに保存する。
func (s *MemoryStore) Write(key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		slog.Warn("memory store marshal failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return
	}

	s.mu.Lock()
	s.values[key] = raw
	s.mu.Unlock()
}

// Delete はkeyの値を削除する。
func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
}

// SetRaw は生バイト列を直接保存する。壊れた保存値のテスト用。
func (s *MemoryStore) SetRaw(key string, raw []byte) {
	s.mu.Lock()
	s.values[key] = raw
	s.mu.Unlock()
}

// compile-time interface check
var _ Client = (*MemoryStore)(nil)
