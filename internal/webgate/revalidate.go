package webgate

import (
	"crypto/subtle"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// revalidateTagExercises はエクササイズ一覧キャッシュのタグ名。
// タグ未指定の再検証リクエストはこのパーティションを対象とする。
const revalidateTagExercises = "exercises"

// revalidateRequest はキャッシュ再検証リクエストのボディ。
type revalidateRequest struct {
	// Secret は再検証の共有シークレット。
	Secret string `json:"secret"`
	// Tag は無効化するキャッシュパーティション。省略時はexercises。
	Tag string `json:"tag"`
}

// handleRevalidate はキャッシュパーティションの無効化を行うハンドラを返す。
// このエンドポイントはセッション認証とは無関係で、より粗い共有シークレット
// による信頼境界を使う。CMS側のWebhook等、外部トリガーから帯域外で呼ばれる。
func (s *Server) handleRevalidate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.revalidateSecret == "" {
			// シークレット未設定はオペレーター側の設定不備でありクライアントの誤りではない
			log.Printf("再検証シークレットが設定されていない")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Revalidation secret is not configured"})
			return
		}

		var req revalidateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		if subtle.ConstantTimeCompare([]byte(req.Secret), []byte(s.revalidateSecret)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid secret"})
			return
		}

		tag := req.Tag
		if tag == "" {
			tag = revalidateTagExercises
		}

		n, err := s.cache.InvalidateTag(c.Request.Context(), tag)
		if err != nil {
			log.Printf("キャッシュ無効化エラー: tag=%s, err=%v", tag, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		log.Printf("キャッシュを無効化: tag=%s, entries=%d", tag, n)

		c.JSON(http.StatusOK, gin.H{
			"revalidated": true,
			"tag":         tag,
			"timestamp":   time.Now().UnixMilli(),
		})
	}
}
