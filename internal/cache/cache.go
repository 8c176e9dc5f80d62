package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// defaultTTL はTTLが指定されなかった場合のキャッシュ有効期間。
const defaultTTL = 5 * time.Minute

// Store はタグ付きコンテンツキャッシュのSQLiteストア。
// sql.DBは並行アクセスに対して安全であり、ストア自体は
// リクエスト間で共有される唯一の書き込み可能リソースとなる。
type Store struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
	// ttl はエントリの有効期間。
	ttl time.Duration
}

// New は新しいキャッシュストアを生成する。
// pathにはSQLiteデータベースファイルのパスを指定する。
// ttlが0の場合はデフォルト値（5分）を使用する。
func New(path string, ttl time.Duration) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("キャッシュデータベース接続に失敗: %w", err)
	}

	if err := initSchema(db); err != nil {
		return nil, fmt.Errorf("キャッシュスキーマ初期化に失敗: %w", err)
	}

	if ttl == 0 {
		ttl = defaultTTL
	}
	return &Store{db: db, ttl: ttl}, nil
}

// Get はキーに対応するキャッシュ済みボディを返す。
// エントリが存在しない、または失効している場合は2番目の戻り値がfalseになる。
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM cache_entries WHERE cache_key = ? AND expires_at > ?`,
		key, time.Now().Unix(),
	).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("キャッシュの読み取りに失敗: %w", err)
	}
	return body, true, nil
}

// Set はボディをタグ付きでキャッシュに保存する。
// 同一キーのエントリが存在する場合は上書きする。
func (s *Store) Set(ctx context.Context, key, tag string, body []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cache_entries (cache_key, tag, body, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET tag = excluded.tag, body = excluded.body, expires_at = excluded.expires_at`,
		key, tag, body, time.Now().Add(s.ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("キャッシュの書き込みに失敗: %w", err)
	}
	return nil
}

// InvalidateTag は指定タグのエントリをすべて削除し、削除件数を返す。
func (s *Store) InvalidateTag(ctx context.Context, tag string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE tag = ?`, tag)
	if err != nil {
		return 0, fmt.Errorf("キャッシュの無効化に失敗: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除件数の取得に失敗: %w", err)
	}
	return n, nil
}

// Close はデータベース接続を閉じる。
func (s *Store) Close() error {
	return s.db.Close()
}
