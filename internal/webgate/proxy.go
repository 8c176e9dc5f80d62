package webgate

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/fitgate/internal/session"
	"github.com/nao1215/fitgate/internal/upstream"
	"github.com/nao1215/fitgate/pkg/middleware"
)

// maxListLimit は一覧取得の1ページあたり最大件数。
const maxListLimit = 100

// defaultListLimit は一覧取得のデフォルト件数。
const defaultListLimit = 20

// handleProxyResource はパスパラメータ付きリソースをアップストリームへ
// 転送するハンドラを返す。全リソースで同一の転送プロトコルを共有し、
// リソースごとの差分はパスの組み立てのみとする。
func (s *Server) handleProxyResource(pathPrefix, paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.proxyResource(c, c.Request.Method, pathPrefix+c.Param(paramName), nil, nil)
	}
}

// proxyResource はアップストリーム転送の共通処理。
//
//  1. セッショントークンが無ければアップストリームを呼ばずに401を返す。
//  2. トークンを認証ヘッダーに付与して転送する。
//  3. トランスポート障害（タイムアウト含む）は障害種別をログに残し、
//     内部情報を漏らさず固定の500を返す。
//  4. 非成功ステータスはエラーメッセージを抽出し、500→401読み替えを
//     適用した上でステータスとメッセージを透過する。
//  5. 成功レスポンスはボディを無変換で透過する。
func (s *Server) proxyResource(c *gin.Context, method, path string, query url.Values, body []byte) {
	token, ok := session.Token(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	resp, err := s.upstream.Do(c.Request.Context(), upstream.Request{
		Method: method,
		Path:   path,
		Query:  query,
		Body:   body,
		Token:  token,
	})
	if err != nil {
		log.Printf("アップストリーム呼び出しに失敗: request_id=%s, path=%s, err=%v",
			middleware.GetRequestID(c), path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !resp.OK() {
		s.respondUpstreamError(c, resp)
		return
	}

	c.Data(resp.StatusCode, "application/json", resp.Body)
}

// respondUpstreamError はアップストリームのエラーレスポンスを正規化して返す。
func (s *Server) respondUpstreamError(c *gin.Context, resp *upstream.Response) {
	status := s.upstream.ClientStatus(resp)
	message := resp.ErrorMessage()
	if message == "" {
		message = http.StatusText(status)
	}
	c.JSON(status, gin.H{"error": message})
}

// handleListExercises はエクササイズ一覧をアップストリームから取得する
// ハンドラを返す。ページネーション入力の検証、タグ付きキャッシュ、
// 想定外の失敗時の空コレクションへの縮退を行う。
func (s *Server) handleListExercises() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := session.Token(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pagination parameters"})
			return
		}
		limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pagination parameters"})
			return
		}
		if page < 1 || limit < 1 || limit > maxListLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pagination parameters"})
			return
		}

		query := url.Values{
			"page":  {strconv.Itoa(page)},
			"limit": {strconv.Itoa(limit)},
		}
		if search := c.Query("search"); search != "" {
			query.Set("search", search)
		}
		if muscle := c.Query("muscle"); muscle != "" {
			query.Set("muscle", muscle)
		}

		// Encodeはキーを辞書順に並べるためキャッシュキーは正規形になる
		cacheKey := "exercises:" + query.Encode()

		if body, hit, err := s.cache.Get(c.Request.Context(), cacheKey); err != nil {
			log.Printf("キャッシュの読み取りに失敗: key=%s, err=%v", cacheKey, err)
		} else if hit {
			c.Data(http.StatusOK, "application/json", body)
			return
		}

		resp, err := s.upstream.Do(c.Request.Context(), upstream.Request{
			Method: http.MethodGet,
			Path:   "/exercises",
			Query:  query,
			Token:  token,
		})
		if err != nil {
			log.Printf("エクササイズ一覧の取得に失敗: request_id=%s, err=%v",
				middleware.GetRequestID(c), err)
			s.respondDegradedList(c, page, limit)
			return
		}

		if !resp.OK() {
			s.respondUpstreamError(c, resp)
			return
		}

		// 成功ステータスでもボディが壊れている場合はパースエラーを
		// 伝播せず空コレクションに縮退する
		if !json.Valid(resp.Body) {
			log.Printf("エクササイズ一覧のボディが不正: request_id=%s", middleware.GetRequestID(c))
			s.respondDegradedList(c, page, limit)
			return
		}

		if err := s.cache.Set(c.Request.Context(), cacheKey, revalidateTagExercises, resp.Body); err != nil {
			log.Printf("キャッシュの書き込みに失敗: key=%s, err=%v", cacheKey, err)
		}

		c.Data(http.StatusOK, "application/json", resp.Body)
	}
}

// respondDegradedList は一覧取得が想定外に失敗した場合の縮退応答を返す。
// 一覧の構造（items/total/page/limit）を保ったまま空コレクションを返す。
func (s *Server) respondDegradedList(c *gin.Context, page, limit int) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"items": []any{},
		"total": 0,
		"page":  page,
		"limit": limit,
	})
}
