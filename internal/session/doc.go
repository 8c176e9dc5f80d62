// Package session はトランスポート層（Cookie）に格納されたセッション情報への
// アクセサを提供する。
//
// セッションは不透明なベアラートークンと軽量なユーザー情報レコードの
// 2つのCookieで構成され、両方が揃って初めて「認証済み」として扱う
// （どちらか片方だけの状態は未認証と同一視する）。トークンの真正性検証は
// 行わない。検証はアップストリームAPIの責務であり、本パッケージは
// 読み書きと削除のみを担当する。
package session
