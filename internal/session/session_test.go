package session

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestContext はCookie付きのテスト用ginコンテキストを生成する。
func newTestContext(t *testing.T, cookies ...*http.Cookie) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	c.Request = req
	return c, w
}

// encodeUserInfo はテスト用にユーザー情報Cookie値を生成する。
func encodeUserInfo(t *testing.T, payload string) string {
	t.Helper()
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// TestToken はセッショントークン取得のテスト。
func TestToken(t *testing.T) {
	t.Parallel()

	t.Run("Cookieが存在する場合にトークンを返す", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestContext(t, &http.Cookie{Name: "session_token", Value: "tok-123"})
		token, ok := Token(c)
		if !ok {
			t.Fatal("トークンが取得できない")
		}
		if token != "tok-123" {
			t.Errorf("token: got %q, want %q", token, "tok-123")
		}
	})

	t.Run("Cookieが存在しない場合はfalseを返す", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestContext(t)
		if _, ok := Token(c); ok {
			t.Error("存在しないCookieからトークンが取得された")
		}
	})
}

// TestUser はユーザー情報取得のテスト。
func TestUser(t *testing.T) {
	t.Parallel()

	t.Run("正常なCookieからユーザー情報を復元する", func(t *testing.T) {
		t.Parallel()

		value := encodeUserInfo(t, `{"id":"user-1","email":"taro@example.com","name":"太郎"}`)
		c, _ := newTestContext(t, &http.Cookie{Name: "user_info", Value: value})

		info, ok := User(c)
		if !ok {
			t.Fatal("ユーザー情報が取得できない")
		}
		if info.ID != "user-1" {
			t.Errorf("ID: got %q, want %q", info.ID, "user-1")
		}
		if info.Email != "taro@example.com" {
			t.Errorf("Email: got %q, want %q", info.Email, "taro@example.com")
		}
		if info.Name != "太郎" {
			t.Errorf("Name: got %q, want %q", info.Name, "太郎")
		}
	})

	t.Run("base64として不正なCookieは未認証として扱う", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestContext(t, &http.Cookie{Name: "user_info", Value: "%%%invalid%%%"})
		if _, ok := User(c); ok {
			t.Error("不正なCookieからユーザー情報が取得された")
		}
	})

	t.Run("JSONとして不正なCookieは未認証として扱う", func(t *testing.T) {
		t.Parallel()

		value := encodeUserInfo(t, `{"id":`)
		c, _ := newTestContext(t, &http.Cookie{Name: "user_info", Value: value})
		if _, ok := User(c); ok {
			t.Error("不正なJSONからユーザー情報が取得された")
		}
	})

	t.Run("IDが空のレコードは未認証として扱う", func(t *testing.T) {
		t.Parallel()

		value := encodeUserInfo(t, `{"email":"noid@example.com"}`)
		c, _ := newTestContext(t, &http.Cookie{Name: "user_info", Value: value})
		if _, ok := User(c); ok {
			t.Error("IDなしレコードからユーザー情報が取得された")
		}
	})
}

// TestIsAuthenticated は認証状態判定のテスト。
// トークンとユーザー情報は両方揃って初めて認証済みとなる。
func TestIsAuthenticated(t *testing.T) {
	t.Parallel()

	tokenCookie := &http.Cookie{Name: "session_token", Value: "tok-abc"}
	userCookie := &http.Cookie{Name: "user_info", Value: base64.RawURLEncoding.EncodeToString([]byte(`{"id":"u1","email":"u1@example.com"}`))}

	tests := []struct {
		name    string
		cookies []*http.Cookie
		want    bool
	}{
		{name: "両方揃っている場合は認証済み", cookies: []*http.Cookie{tokenCookie, userCookie}, want: true},
		{name: "トークンのみの場合は未認証", cookies: []*http.Cookie{tokenCookie}, want: false},
		{name: "ユーザー情報のみの場合は未認証", cookies: []*http.Cookie{userCookie}, want: false},
		{name: "どちらもない場合は未認証", cookies: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, _ := newTestContext(t, tt.cookies...)
			if got := IsAuthenticated(c); got != tt.want {
				t.Errorf("IsAuthenticated: got %v, want %v", got, tt.want)
			}
		})
	}
}

// TestSetAndClear はセッションの書き込みと削除のテスト。
func TestSetAndClear(t *testing.T) {
	t.Parallel()

	t.Run("Setは両方のCookieを書き込む", func(t *testing.T) {
		t.Parallel()

		c, w := newTestContext(t)
		if err := Set(c, "tok-new", UserInfo{ID: "u9", Email: "u9@example.com", Name: "花子"}); err != nil {
			t.Fatalf("Setに失敗: %v", err)
		}

		cookies := w.Result().Cookies()
		var gotToken, gotUser bool
		for _, cookie := range cookies {
			switch cookie.Name {
			case "session_token":
				gotToken = true
				if cookie.Value != "tok-new" {
					t.Errorf("session_token: got %q, want %q", cookie.Value, "tok-new")
				}
				if !cookie.HttpOnly {
					t.Error("session_tokenがHttpOnlyではない")
				}
			case "user_info":
				gotUser = true
				decoded, err := base64.RawURLEncoding.DecodeString(cookie.Value)
				if err != nil {
					t.Fatalf("user_infoのデコードに失敗: %v", err)
				}
				if string(decoded) != `{"id":"u9","email":"u9@example.com","name":"花子"}` {
					t.Errorf("user_info: got %s", decoded)
				}
			}
		}
		if !gotToken || !gotUser {
			t.Errorf("Cookieが揃っていない: token=%v, user=%v", gotToken, gotUser)
		}
	})

	t.Run("Clearは両方のCookieを無効化する", func(t *testing.T) {
		t.Parallel()

		c, w := newTestContext(t)
		Clear(c)

		cookies := w.Result().Cookies()
		cleared := map[string]bool{}
		for _, cookie := range cookies {
			if cookie.MaxAge < 0 && cookie.Value == "" {
				cleared[cookie.Name] = true
			}
		}
		if !cleared["session_token"] || !cleared["user_info"] {
			t.Errorf("Cookieが削除されていない: %+v", cleared)
		}
	})
}

// TestSetThenReadRoundTrip は書き込んだセッションを読み戻すテスト。
func TestSetThenReadRoundTrip(t *testing.T) {
	t.Parallel()

	c, w := newTestContext(t)
	if err := Set(c, "roundtrip-token", UserInfo{ID: "u100", Email: "rt@example.com"}); err != nil {
		t.Fatalf("Setに失敗: %v", err)
	}

	// レスポンスのCookieを次のリクエストに載せて読み戻す
	c2, _ := newTestContext(t, w.Result().Cookies()...)

	token, ok := Token(c2)
	if !ok || token != "roundtrip-token" {
		t.Errorf("token: got %q (ok=%v), want %q", token, ok, "roundtrip-token")
	}
	info, ok := User(c2)
	if !ok {
		t.Fatal("ユーザー情報が読み戻せない")
	}
	if info.ID != "u100" || info.Email != "rt@example.com" {
		t.Errorf("info: got %+v", info)
	}
	if !IsAuthenticated(c2) {
		t.Error("書き戻したセッションが認証済みと判定されない")
	}
}
