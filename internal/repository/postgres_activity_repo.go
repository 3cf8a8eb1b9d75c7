package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/newsaura/newsaura/internal/model"
)

// PostgresActivityRepo はPostgreSQLを使用した行動ログリポジトリ。
// テーブルは追記専用で、UPDATE文を発行することはない。
type PostgresActivityRepo struct {
	db *sql.DB
}

// NewPostgresActivityRepo はPostgresActivityRepoを生成する。
func NewPostgresActivityRepo(db *sql.DB) *PostgresActivityRepo {
	return &PostgresActivityRepo{db: db}
}

// Append は行動レコードを追記する。
func (r *PostgresActivityRepo) Append(ctx context.Context, record *model.ActivityRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO activity_records (id, user_id, kind, article_id, category, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		record.ID, record.UserID, record.Kind, record.ArticleID, record.Category, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("行動レコードの追記に失敗しました: %w", err)
	}
	return nil
}

// CountByUserAndKind はユーザーの種別ごとの行動数を返す。
func (r *PostgresActivityRepo) CountByUserAndKind(ctx context.Context, userID string, kind model.ActivityKind) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM activity_records WHERE user_id = $1 AND kind = $2`,
		userID, kind,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("行動数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// LastCreatedAt はユーザーの最新の行動日時を返す。行動がない場合はnilを返す。
func (r *PostgresActivityRepo) LastCreatedAt(ctx context.Context, userID string) (*time.Time, error) {
	var last time.Time
	err := r.db.QueryRowContext(ctx,
		`SELECT created_at FROM activity_records WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT 1`,
		userID,
	).Scan(&last)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("最終行動日時の取得に失敗しました: %w", err)
	}
	return &last, nil
}

// CreatedAtsSince は指定日時以降のユーザー行動の発生日時一覧を返す。
func (r *PostgresActivityRepo) CreatedAtsSince(ctx context.Context, userID string, since time.Time) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT created_at FROM activity_records
		 WHERE user_id = $1 AND created_at >= $2
		 ORDER BY created_at ASC`,
		userID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("行動日時一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var timestamps []time.Time
	for rows.Next() {
		var ts time.Time
		if err := rows.Scan(&ts); err != nil {
			return nil, fmt.Errorf("行動日時行の読み取りに失敗しました: %w", err)
		}
		timestamps = append(timestamps, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("行動日時一覧の走査に失敗しました: %w", err)
	}
	return timestamps, nil
}

// DeleteOlderThan は指定日時より古いレコードを全ユーザー分削除し、削除件数を返す。
func (r *PostgresActivityRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM activity_records WHERE created_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("古い行動レコードの削除に失敗しました: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除行数の取得に失敗しました: %w", err)
	}
	return affected, nil
}

var _ ActivityRepository = (*PostgresActivityRepo)(nil)
