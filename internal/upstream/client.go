package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// defaultTimeout はアップストリーム呼び出しの上限時間。
// タイムアウトはトランスポート障害と同一に扱う。
const defaultTimeout = 10 * time.Second

// Client はバックエンドAPIへのHTTPクライアント。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// baseURL は接続先APIのベースURL。
	baseURL string
	// unauthorizedText は500レスポンスのメッセージが認可エラーを
	// 表しているかどうかを判定する述語。
	unauthorizedText func(message string) bool
}

// Option はClientの構築オプション。
type Option func(*Client)

// WithTimeout はアップストリーム呼び出しのタイムアウトを変更する。
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithUnauthorizedText は500→401読み替えに使う述語を差し替える。
func WithUnauthorizedText(pred func(message string) bool) Option {
	return func(c *Client) {
		c.unauthorizedText = pred
	}
}

// New は新しいアップストリームクライアントを生成する。
// baseURLには接続先APIのベースURL（例: "https://api.example.com/v1"）を指定する。
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL:          strings.TrimSuffix(baseURL, "/"),
		unauthorizedText: DefaultUnauthorizedText,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultUnauthorizedText は標準の認可エラーメッセージ判定。
// 大文字小文字を無視して "unauthorized" を含むかどうかで判定する。
// アップストリームの実際のメッセージ文言に依存する既知の脆さがある。
func DefaultUnauthorizedText(message string) bool {
	return strings.Contains(strings.ToLower(message), "unauthorized")
}

// Request はアップストリームへ転送する1リクエスト。
type Request struct {
	// Method はHTTPメソッド。
	Method string
	// Path はベースURLからの相対パス（例: "/exercises/123"）。
	Path string
	// Query は転送するクエリパラメータ。nilの場合は付与しない。
	Query url.Values
	// Body はリクエストボディ。nilの場合はボディなし。
	Body []byte
	// Token はAuthorizationヘッダーに付与するセッショントークン。
	Token string
}

// Response はアップストリームからの応答。
// トランスポート層で成功した呼び出しは、ステータスに関わらず
// Responseとして返る。
type Response struct {
	// StatusCode はアップストリームが返したHTTPステータスコード。
	StatusCode int
	// Body はレスポンスボディ。
	Body []byte
}

// OK はアップストリームが成功ステータス（2xx）を返したかどうか。
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// errorPayload はアップストリームのエラーレスポンスの想定形。
// message と error のどちらのキーで返るかはエンドポイントにより異なる。
type errorPayload struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// ErrorMessage はエラーレスポンスからメッセージを抽出する。
// パースできない場合は空文字を返す（呼び出し側でデフォルト文言を補う）。
func (r *Response) ErrorMessage() string {
	var payload errorPayload
	if err := json.Unmarshal(r.Body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

// Do はアップストリームへリクエストを送信する。
// ネットワーク障害・タイムアウト時はerrorを返す。それ以外は
// ステータスコードに関わらずResponseを返す。
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var bodyReader io.Reader
	if req.Body != nil {
		bodyReader = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("アップストリームリクエストの作成に失敗: %w", err)
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("アップストリームへの送信に失敗: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("アップストリーム応答の読み取りに失敗: %w", err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// ClientStatus はクライアントへ露出するステータスコードを決定する。
// 認可エラーを示すメッセージを伴う500は401に読み替える。
// 400未満の異常なステータス（予期しないリダイレクト等）は500へ丸め、
// 失敗時のステータスが常に400以上になることを保証する。
func (c *Client) ClientStatus(r *Response) int {
	if r.StatusCode == http.StatusInternalServerError && c.unauthorizedText(r.ErrorMessage()) {
		return http.StatusUnauthorized
	}
	if !r.OK() && r.StatusCode < http.StatusBadRequest {
		return http.StatusInternalServerError
	}
	return r.StatusCode
}
