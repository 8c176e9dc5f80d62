package cache

import (
	"database/sql"
	"fmt"
)

// スキーマ定義。
const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
    -- キャッシュキー（リソース名と正規化済みクエリから構成）
    cache_key TEXT PRIMARY KEY,
    -- キャッシュパーティションを表すタグ
    tag TEXT NOT NULL,
    -- キャッシュされたレスポンスボディ
    body BLOB NOT NULL,
    -- 失効時刻（Unix秒）
    expires_at INTEGER NOT NULL
);

-- タグ単位の無効化を高速化するインデックス。
CREATE INDEX IF NOT EXISTS idx_cache_entries_tag
    ON cache_entries(tag);
`

// initSchema はSQLiteデータベースにスキーマを適用する。
func initSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("スキーマの適用に失敗: %w", err)
	}
	return nil
}
