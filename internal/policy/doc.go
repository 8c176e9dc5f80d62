// Package policy はパスベースのアクセスポリシー評価を提供する。
//
// 受信リクエストのパスを Protected（要認証）、GuestOnly（未認証専用）、
// Public（制約なし）の3クラスに分類し、認証状態と組み合わせて
// 「通過」または「リダイレクト」の判定を行う。判定は純粋関数であり、
// I/Oや状態変更を伴わない。ポリシーはプロセス起動時に一度構築される
// 不変の設定値として扱う。
package policy
