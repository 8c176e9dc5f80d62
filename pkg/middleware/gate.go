package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/fitgate/internal/policy"
	"github.com/nao1215/fitgate/internal/session"
)

// Gate はナビゲーションリクエストにルートアクセスポリシーを適用する
// Ginミドルウェアを返す。excludeに含まれるプレフィックス配下のパス
// （データAPI、静的アセット等）はゲートの対象外として素通しする。
//
// 認証状態はCookieに保持されたトークンとユーザー情報の有無のみから
// 導出し、アップストリームへの問い合わせは行わない。ナビゲーション
// ごとのブロッキングな往復を避けるための意図的なトレードオフであり、
// トークンの有効性検証はページが後続で行うAPI呼び出しに委ねる。
func Gate(p *policy.Policy, exclude []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, prefix := range exclude {
			if hasPrefixSegment(path, prefix) {
				c.Next()
				return
			}
		}

		decision := p.Decide(path, session.IsAuthenticated(c))
		if !decision.Allow {
			c.Redirect(http.StatusTemporaryRedirect, decision.RedirectTo)
			c.Abort()
			return
		}
		c.Next()
	}
}

// hasPrefixSegment はpathがprefixのセグメント境界プレフィックスを持つかどうかを返す。
func hasPrefixSegment(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}
