// Package cache は配信層のコンテンツキャッシュを提供する。
//
// アップストリームから取得した成功レスポンスをタグ（パーティション名）
// 付きでSQLiteに保存し、TTL経過まで再利用する。タグ単位の無効化を
// サポートし、再検証エンドポイントから外部トリガーで特定パーティション
// だけを破棄できる。セッションや認証の仕組みとは無関係であり、
// 純粋にレスポンスボディの保存と破棄のみを行う。
package cache
