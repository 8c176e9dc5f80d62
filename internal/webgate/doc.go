// Package webgate はサイトゲートウェイのHTTPサーバーを提供する。
//
// 外部からアクセス可能な唯一のコンポーネントであり、3つの責務を持つ。
// ナビゲーションリクエストへのセッションゲート適用（ルートポリシーに
// 基づくリダイレクト）、認証付きリクエストのアップストリームAPIへの
// 転送とエラーの正規化、そして共有シークレットで保護された
// キャッシュ再検証エンドポイントの提供である。
//
// ゲートウェイ自体はリクエスト間で共有する可変状態を持たない。
// セッションは各リクエストのCookieのみから読み取り、唯一の共有リソース
// であるキャッシュストアは並行アクセスに対して安全である。
package webgate
