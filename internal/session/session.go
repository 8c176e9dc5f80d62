package session

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/gin-gonic/gin"
)

const (
	// tokenCookie はセッショントークンを格納するCookie名。
	tokenCookie = "session_token"
	// userInfoCookie はユーザー情報レコードを格納するCookie名。
	userInfoCookie = "user_info"
	// cookieMaxAge はCookieの有効期間（秒）。7日間。
	cookieMaxAge = 7 * 24 * 60 * 60
)

// UserInfo はセッションに紐づく軽量なユーザー情報レコード。
type UserInfo struct {
	// ID はユーザーの一意識別子。
	ID string `json:"id"`
	// Email はユーザーのメールアドレス。
	Email string `json:"email"`
	// Name は表示名。未設定の場合は省略される。
	Name string `json:"name,omitempty"`
}

// Token はリクエストからセッショントークンを取得する。
// Cookieが存在しないか空の場合はfalseを返す。
func Token(c *gin.Context) (string, bool) {
	token, err := c.Cookie(tokenCookie)
	if err != nil || token == "" {
		return "", false
	}
	return token, true
}

// User はリクエストからユーザー情報レコードを取得する。
// Cookieが存在しない、またはデコードできない場合はfalseを返す。
func User(c *gin.Context) (UserInfo, bool) {
	raw, err := c.Cookie(userInfoCookie)
	if err != nil || raw == "" {
		return UserInfo{}, false
	}

	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return UserInfo{}, false
	}

	var info UserInfo
	if err := json.Unmarshal(decoded, &info); err != nil {
		return UserInfo{}, false
	}
	if info.ID == "" {
		return UserInfo{}, false
	}
	return info, true
}

// IsAuthenticated はリクエストが認証済みかどうかを返す。
// トークンとユーザー情報の両方が揃っている場合のみtrueを返す。
// 片方だけが存在する状態は未認証として扱う。
func IsAuthenticated(c *gin.Context) bool {
	if _, ok := Token(c); !ok {
		return false
	}
	if _, ok := User(c); !ok {
		return false
	}
	return true
}

// Set はセッショントークンとユーザー情報を両方のCookieに書き込む。
// ログイン成功時に呼び出す。ユーザー情報はJSONをbase64urlで
// エンコードして格納する。
func Set(c *gin.Context, token string, info UserInfo) error {
	encoded, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("ユーザー情報のシリアライズに失敗: %w", err)
	}

	c.SetCookie(tokenCookie, token, cookieMaxAge, "/", "", false, true)
	// ユーザー情報はフロントエンドの表示用途でも参照するためHttpOnlyにしない
	c.SetCookie(userInfoCookie, base64.RawURLEncoding.EncodeToString(encoded), cookieMaxAge, "/", "", false, false)
	return nil
}

// Clear はセッションに関わる両方のCookieを削除する。
// ログアウトまたはトークン失効時に呼び出す。
func Clear(c *gin.Context) {
	c.SetCookie(tokenCookie, "", -1, "/", "", false, true)
	c.SetCookie(userInfoCookie, "", -1, "/", "", false, false)
}
