package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore はBadgerを使用した永続ローカルキーバリューストア。
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger は指定パスにBadgerデータベースを開く。
func OpenBadger(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Badger内部ログは抑止する
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	return &BadgerStore{db: db}, nil
}

// Close はデータベースを閉じる。
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Read はkeyの値をvにJSONデコードする。
// 値が存在しない、または復元に失敗した場合はfalseを返す。
// 壊れた保存値は「存在しない」として扱い、警告ログのみ記録する。
func (s *BadgerStore) Read(key string, v any) bool {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false
	}
	if err != nil {
		slog.Warn("local store read failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return false
	}

	if err := json.Unmarshal(raw, v); err != nil {
		slog.Warn("local store value corrupted, treating as absent",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return false
	}

	return true
}

// Write はvをJSONエンコードしてkeyに保存する。
// 失敗はログに記録し、呼び出し元には伝播しない。
func (s *BadgerStore) Write(key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		slog.Warn("local store marshal failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), raw)
	})
	if err != nil {
		slog.Warn("local store write failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

// Delete はkeyの値を削除する。存在しないキーの削除は何もしない。
func (s *BadgerStore) Delete(key string) {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		slog.Warn("local store delete failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

// compile-time interface check
var _ Client = (*BadgerStore)(nil)
