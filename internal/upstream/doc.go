// Package upstream はバックエンドAPIへのHTTPクライアントを提供する。
//
// ゲートウェイから転送するすべてのリクエストはこのクライアントを経由する。
// セッショントークンの付与、タイムアウト制御、エラーレスポンスの正規化を
// 一箇所に集約し、ハンドラ側が5段階の転送プロトコルを資源ごとに
// 重複実装しなくて済むようにする。
//
// アップストリームは認可エラーを汎用の500として報告することがあるため、
// エラーメッセージが「unauthorized」系のパターンに一致する500は401に
// 読み替える。このパターン一致は本質的に脆い振る舞いであり、
// 述語として差し替え可能にしてある。
package upstream
