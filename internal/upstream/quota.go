package upstream

import (
	"log/slog"
	"sync"
	"time"
)

// QuotaStatus はクォータ使用状況のスナップショット。
type QuotaStatus struct {
	Used      int    `json:"used"`
	Max       int    `json:"max"`
	Remaining int    `json:"remaining"`
	Warning   bool   `json:"warning"`
	ResetsAt  string `json:"resets_at"`
}

// QuotaCounter は外部APIの日次呼び出し数をプロセス内で追跡する。
// プロバイダ側の日次無料枠を超過する前に呼び出しを遮断するための
// 保守的なカウンタであり、日付はUTCで判定する。
// プロセス再起動でカウントは失われるが、過少計上は枠超過よりも
// プロバイダ側の429で検出されるため許容する。
type QuotaCounter struct {
	mu        sync.Mutex
	used      int
	day       string // "2006-01-02" UTC
	maxPerDay int
	warnAt    int
	logger    *slog.Logger
	warned    bool

	// テストで時刻を固定するために差し替え可能にする
	now func() time.Time
}

// NewQuotaCounter はQuotaCounterの新しいインスタンスを生成する。
func NewQuotaCounter(maxPerDay, warnAt int, logger *slog.Logger) *QuotaCounter {
	return &QuotaCounter{
		maxPerDay: maxPerDay,
		warnAt:    warnAt,
		logger:    logger,
		now:       time.Now,
	}
}

// MaxPerDay は日次上限を返す。
func (q *QuotaCounter) MaxPerDay() int {
	return q.maxPerDay
}

// Allow は当日の残枠があるかを返す。カウントは消費しない。
func (q *QuotaCounter) Allow() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollover()
	return q.used < q.maxPerDay
}

// Increment は使用数を1消費する。警告閾値への初回到達時にログを出す。
func (q *QuotaCounter) Increment() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollover()
	q.used++

	if q.used >= q.warnAt && !q.warned {
		q.warned = true
		q.logger.Warn("APIクォータが警告閾値に達しました",
			slog.Int("used", q.used),
			slog.Int("max", q.maxPerDay),
		)
	}
}

// Status は現在の使用状況スナップショットを返す。
func (q *QuotaCounter) Status() QuotaStatus {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.rollover()

	remaining := q.maxPerDay - q.used
	if remaining < 0 {
		remaining = 0
	}

	nextReset := q.now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)

	return QuotaStatus{
		Used:      q.used,
		Max:       q.maxPerDay,
		Remaining: remaining,
		Warning:   q.used >= q.warnAt,
		ResetsAt:  nextReset.Format(time.RFC3339),
	}
}

// Reset は使用数を手動でゼロに戻す。運用時の緊急復旧用。
func (q *QuotaCounter) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.used = 0
	q.warned = false
	q.day = q.currentDay()
}

// rollover はUTC日付が変わっていればカウントをリセットする。
// 呼び出し側でmuを保持していること。
func (q *QuotaCounter) rollover() {
	today := q.currentDay()
	if q.day != today {
		if q.day != "" && q.used > 0 {
			q.logger.Info("日次クォータをリセットします",
				slog.String("previous_day", q.day),
				slog.Int("used", q.used),
			)
		}
		q.day = today
		q.used = 0
		q.warned = false
	}
}

func (q *QuotaCounter) currentDay() string {
	return q.now().UTC().Format("2006-01-02")
}
