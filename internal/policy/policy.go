package policy

import (
	"net/url"
	"strings"
)

// Class はパスのアクセスクラスを表す。
type Class int

const (
	// Public は認証状態に関わらずアクセス可能なパス。
	Public Class = iota
	// Protected は認証済みユーザーのみアクセス可能なパス。
	Protected
	// GuestOnly は未認証ユーザーのみアクセス可能なパス（ログインページ等）。
	GuestOnly
)

// String はクラス名を返す。
func (c Class) String() string {
	switch c {
	case Protected:
		return "protected"
	case GuestOnly:
		return "guest-only"
	default:
		return "public"
	}
}

// Policy はルートアクセスポリシーの不変設定。
// プロセス起動時に一度構築し、評価側に明示的に渡して使用する。
type Policy struct {
	// protected は認証必須パスのプレフィックスリスト。
	protected []string
	// guestOnly は未認証専用パスのプレフィックスリスト。
	guestOnly []string
	// loginPath は未認証時のリダイレクト先（ログインページ）。
	loginPath string
	// homePath は認証済みユーザーのリダイレクト先（アプリホーム）。
	homePath string
}

// redirectParam はログインリダイレクト時に元のパスを引き継ぐクエリパラメータ名。
const redirectParam = "redirect"

// New は指定されたプレフィックスリストからポリシーを構築する。
// protectedとguestOnlyは同一パスを含まないことを前提とするが、
// 重複した場合はProtectedを優先して解決する。
func New(protected, guestOnly []string, loginPath, homePath string) *Policy {
	return &Policy{
		protected: protected,
		guestOnly: guestOnly,
		loginPath: loginPath,
		homePath:  homePath,
	}
}

// Default はサイト標準のポリシーを返す。
// /app配下は認証必須、/loginと/signupは未認証専用、それ以外はPublic。
func Default() *Policy {
	return New(
		[]string{"/app"},
		[]string{"/login", "/signup"},
		"/login",
		"/app",
	)
}

// Classify はパスをアクセスクラスに分類する。
// 各リストに対して最長のセグメント境界プレフィックス一致を取り、
// 一致長が同じ場合はProtectedを優先する。どちらにも一致しなければPublic。
func (p *Policy) Classify(path string) Class {
	protectedLen := longestMatch(p.protected, path)
	guestLen := longestMatch(p.guestOnly, path)

	switch {
	case protectedLen == 0 && guestLen == 0:
		return Public
	case protectedLen >= guestLen:
		return Protected
	default:
		return GuestOnly
	}
}

// Decision はポリシー評価の結果を表す。
// Allowがtrueの場合はリクエストを通過させる。falseの場合はRedirectToへ
// リダイレクトする。
type Decision struct {
	// Allow はリクエストを通過させるかどうか。
	Allow bool
	// RedirectTo はAllowがfalseの場合のリダイレクト先URL。
	RedirectTo string
}

// Decide はパスと認証状態からアクセス判定を行う。
// 認証状態の算出（トークンとユーザー情報の両方が揃っているか）は
// 呼び出し側の責務であり、ここでは与えられた真偽値のみを使用する。
func (p *Policy) Decide(path string, authenticated bool) Decision {
	switch p.Classify(path) {
	case Protected:
		if !authenticated {
			// ログイン後に元のパスへ戻れるよう、リダイレクトパラメータを付与する
			return Decision{RedirectTo: p.loginPath + "?" + redirectParam + "=" + url.QueryEscape(path)}
		}
	case GuestOnly:
		if authenticated {
			return Decision{RedirectTo: p.homePath}
		}
	}
	return Decision{Allow: true}
}

// longestMatch はパスに一致する最長プレフィックスの長さを返す。
// 一致はセグメント境界で判定する（/app は /app/settings に一致するが
// /application には一致しない）。一致なしの場合は0を返す。
func longestMatch(prefixes []string, path string) int {
	longest := 0
	for _, prefix := range prefixes {
		if !matchesSegment(prefix, path) {
			continue
		}
		if len(prefix) > longest {
			longest = len(prefix)
		}
	}
	return longest
}

// matchesSegment はprefixがpathのセグメント境界プレフィックスかどうかを返す。
func matchesSegment(prefix, path string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}
