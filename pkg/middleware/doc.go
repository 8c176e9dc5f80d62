// Package middleware はGinベースのHTTPサーバーで使用する共通ミドルウェアを提供する。
//
// ナビゲーションリクエストに対するセッションゲート（ルートポリシーに
// 基づくリダイレクト）、リクエストID付与、パニックリカバリ、
// CORS設定を含む。セッションゲートはアップストリームへの問い合わせを
// 行わず、Cookieに保持された認証情報の有無のみで判定する。
package middleware
