package cache

import (
	"context"
	"sync"
	"time"
)

// defaultJanitorInterval は期限切れエントリの掃除間隔。
const defaultJanitorInterval = 5 * time.Minute

// entry は値と有効期限の組。expiresAtがゼロ値の場合は無期限。
type entry struct {
	value     []byte
	expiresAt time.Time
}

// expired はエントリが指定時刻の時点で期限切れかを返す。
func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Memory はプロセス内のTTL付きキー値キャッシュ。
// 複数リクエストゴルーチンからの並行アクセスに対して安全。
// 読み取り時の遅延削除に加え、バックグラウンドのジャニターが
// 期限切れエントリを定期的に回収する。
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry

	now    func() time.Time // テスト用に差し替え可能
	stopCh chan struct{}
}

// NewMemory はMemoryの新しいインスタンスを生成し、ジャニターを起動する。
func NewMemory() *Memory {
	m := &Memory{
		entries: make(map[string]entry),
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}

	go m.janitorLoop(defaultJanitorInterval)

	return m
}

// Stop はジャニターのバックグラウンドゴルーチンを停止する。
func (m *Memory) Stop() {
	close(m.stopCh)
}

// Get はキーに対応する値を返す。期限切れのエントリはミスとして扱い削除する。
func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool) {
	now := m.now()

	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if e.expired(now) {
		m.mu.Lock()
		// 再確認: 他のゴルーチンが同じキーを上書きしている可能性がある
		if cur, ok := m.entries[key]; ok && cur.expired(now) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false
	}

	return e.value, true
}

// Set は値をTTL付きで登録する。ttl <= 0 の場合は無期限。
func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
}

// Delete はキーを削除する。
func (m *Memory) Delete(ctx context.Context, key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

// Len は現在のエントリ数を返す。テストおよびメトリクス用。
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// janitorLoop はバックグラウンドで期限切れエントリを定期的に回収する。
func (m *Memory) janitorLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.sweep()
		case <-m.stopCh:
			return
		}
	}
}

// sweep は期限切れエントリを全走査で削除する。
func (m *Memory) sweep() {
	now := m.now()

	m.mu.Lock()
	for key, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, key)
		}
	}
	m.mu.Unlock()
}

// compile-time interface check
var _ Cache = (*Memory)(nil)
