package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/newsaura/newsaura/internal/model"
)

// ErrDuplicateSavedItem は同一 (user_id, article_id, kind) の保存アイテムが
// 既に存在する場合に返される。
var ErrDuplicateSavedItem = errors.New("保存アイテムが既に存在します")

// PostgresSavedItemRepo はPostgreSQLを使用した保存アイテムリポジトリ。
type PostgresSavedItemRepo struct {
	db *sql.DB
}

// NewPostgresSavedItemRepo はPostgresSavedItemRepoを生成する。
func NewPostgresSavedItemRepo(db *sql.DB) *PostgresSavedItemRepo {
	return &PostgresSavedItemRepo{db: db}
}

// Create は保存アイテムを作成する。
// 一意制約違反はErrDuplicateSavedItemに変換する。
func (r *PostgresSavedItemRepo) Create(ctx context.Context, item *model.SavedItem) error {
	var sentiment sql.NullString
	if item.SentimentLabel != nil {
		sentiment = sql.NullString{String: string(*item.SentimentLabel), Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO saved_items (id, user_id, article_id, kind, title, source, url, image_url, category, sentiment_label, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		item.ID, item.UserID, item.ArticleID, item.Kind, item.Title, item.Source,
		item.URL, item.ImageURL, item.Category, sentiment, item.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrDuplicateSavedItem
		}
		return fmt.Errorf("保存アイテムの作成に失敗しました: %w", err)
	}
	return nil
}

// FindByUserArticleKind はユーザー/記事/種別で保存アイテムを検索する。見つからない場合はnilを返す。
func (r *PostgresSavedItemRepo) FindByUserArticleKind(ctx context.Context, userID, articleID string, kind model.SavedKind) (*model.SavedItem, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, article_id, kind, title, source, url, image_url, category, sentiment_label, created_at
		 FROM saved_items WHERE user_id = $1 AND article_id = $2 AND kind = $3`,
		userID, articleID, kind,
	)

	item, err := scanSavedItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("保存アイテムの検索に失敗しました: %w", err)
	}
	return item, nil
}

// FindByIDAndUser は指定IDの保存アイテムを所有者確認付きで取得する。見つからない場合はnilを返す。
func (r *PostgresSavedItemRepo) FindByIDAndUser(ctx context.Context, id, userID string) (*model.SavedItem, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, article_id, kind, title, source, url, image_url, category, sentiment_label, created_at
		 FROM saved_items WHERE id = $1 AND user_id = $2`,
		id, userID,
	)

	item, err := scanSavedItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("保存アイテムの取得に失敗しました: %w", err)
	}
	return item, nil
}

// ListByUser はユーザーの保存アイテム一覧を作成日時降順で返す。
// kindがnilの場合は全種別を返す。
func (r *PostgresSavedItemRepo) ListByUser(ctx context.Context, userID string, kind *model.SavedKind) ([]*model.SavedItem, error) {
	query := `SELECT id, user_id, article_id, kind, title, source, url, image_url, category, sentiment_label, created_at
		 FROM saved_items WHERE user_id = $1`
	args := []any{userID}

	if kind != nil {
		query += ` AND kind = $2`
		args = append(args, *kind)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("保存アイテム一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var items []*model.SavedItem
	for rows.Next() {
		item, err := scanSavedItem(rows)
		if err != nil {
			return nil, fmt.Errorf("保存アイテム行の読み取りに失敗しました: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("保存アイテム一覧の走査に失敗しました: %w", err)
	}
	return items, nil
}

// DeleteByIDAndUser は指定IDの保存アイテムを所有者確認付きで削除する。
func (r *PostgresSavedItemRepo) DeleteByIDAndUser(ctx context.Context, id, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM saved_items WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("保存アイテムの削除に失敗しました: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除行数の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// CountByUserAndKind はユーザーの種別ごとの保存数を返す。
func (r *PostgresSavedItemRepo) CountByUserAndKind(ctx context.Context, userID string, kind model.SavedKind) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM saved_items WHERE user_id = $1 AND kind = $2`,
		userID, kind,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("保存数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// CategoryStats はユーザーの保存アイテムをカテゴリ別に集計する。
// 件数降順、同数カテゴリは最古保存日時の昇順で返す。
func (r *PostgresSavedItemRepo) CategoryStats(ctx context.Context, userID string) ([]CategoryStat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, COUNT(*) AS cnt, MIN(created_at) AS first_saved_at
		 FROM saved_items WHERE user_id = $1
		 GROUP BY category
		 ORDER BY cnt DESC, first_saved_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("カテゴリ集計の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var stats []CategoryStat
	for rows.Next() {
		var s CategoryStat
		if err := rows.Scan(&s.Category, &s.Count, &s.FirstSavedAt); err != nil {
			return nil, fmt.Errorf("カテゴリ集計行の読み取りに失敗しました: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("カテゴリ集計の走査に失敗しました: %w", err)
	}
	return stats, nil
}

// SentimentCounts はユーザーの保存アイテムのセンチメントラベル別件数を返す。
// ラベル未設定の行はNeutralに計上する。
func (r *PostgresSavedItemRepo) SentimentCounts(ctx context.Context, userID string) (*model.SentimentBreakdown, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT COALESCE(sentiment_label, 'Neutral'), COUNT(*)
		 FROM saved_items WHERE user_id = $1
		 GROUP BY COALESCE(sentiment_label, 'Neutral')`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("センチメント集計の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	breakdown := &model.SentimentBreakdown{}
	for rows.Next() {
		var label string
		var count int
		if err := rows.Scan(&label, &count); err != nil {
			return nil, fmt.Errorf("センチメント集計行の読み取りに失敗しました: %w", err)
		}
		switch model.SentimentLabel(label) {
		case model.SentimentPositive:
			breakdown.Positive += count
		case model.SentimentNegative:
			breakdown.Negative += count
		default:
			breakdown.Neutral += count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("センチメント集計の走査に失敗しました: %w", err)
	}
	return breakdown, nil
}

// scanSavedItem は1行を*model.SavedItemへ読み取る。
func scanSavedItem(row interface{ Scan(dest ...any) error }) (*model.SavedItem, error) {
	item := &model.SavedItem{}
	var sentiment sql.NullString

	err := row.Scan(&item.ID, &item.UserID, &item.ArticleID, &item.Kind, &item.Title,
		&item.Source, &item.URL, &item.ImageURL, &item.Category, &sentiment, &item.CreatedAt)
	if err != nil {
		return nil, err
	}

	if sentiment.Valid {
		label := model.SentimentLabel(sentiment.String)
		item.SentimentLabel = &label
	}
	return item, nil
}

var _ SavedItemRepository = (*PostgresSavedItemRepo)(nil)
