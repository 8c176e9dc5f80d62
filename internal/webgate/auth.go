package webgate

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/nao1215/fitgate/internal/session"
	"github.com/nao1215/fitgate/internal/upstream"
	"github.com/nao1215/fitgate/pkg/middleware"
)

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	// Email はユーザーのメールアドレス。
	Email string `json:"email"`
	// Password はパスワード。
	Password string `json:"password"`
}

// loginUpstreamResponse はアップストリームのログイン成功応答の想定形。
type loginUpstreamResponse struct {
	// Token はセッショントークン。ゲートウェイは中身を解釈しない。
	Token string `json:"token"`
	// User はセッションに紐づくユーザー情報。
	User session.UserInfo `json:"user"`
}

// handleLogin は認証情報をアップストリームへ転送し、成功時に
// セッションCookieを発行するハンドラを返す。セッションの生成は
// このハンドラだけが行う。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
			return
		}

		body, err := json.Marshal(req)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		resp, err := s.upstream.Do(c.Request.Context(), upstream.Request{
			Method: http.MethodPost,
			Path:   "/auth/login",
			Body:   body,
		})
		if err != nil {
			log.Printf("ログイン転送に失敗: request_id=%s, err=%v", middleware.GetRequestID(c), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		if !resp.OK() {
			s.respondUpstreamError(c, resp)
			return
		}

		var result loginUpstreamResponse
		if err := json.Unmarshal(resp.Body, &result); err != nil || result.Token == "" || result.User.ID == "" {
			// トークンとユーザー情報は揃って初めてセッションとして成立する
			log.Printf("ログイン応答が不正: request_id=%s", middleware.GetRequestID(c))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		if err := session.Set(c, result.Token, result.User); err != nil {
			log.Printf("セッションの発行に失敗: request_id=%s, err=%v", middleware.GetRequestID(c), err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"user": result.User})
	}
}

// handleLogout はセッションCookieを削除するハンドラを返す。
// トークンとユーザー情報は常に両方同時に削除する。
func (s *Server) handleLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		session.Clear(c)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// handleMe はセッションに紐づくユーザー情報を返すハンドラを返す。
// トークンまたはユーザー情報のどちらかが欠けている状態は未認証として扱う。
func (s *Server) handleMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !session.IsAuthenticated(c) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		info, _ := session.User(c)
		c.JSON(http.StatusOK, gin.H{"user": info})
	}
}

// devClaims は開発用トークンのクレーム。
type devClaims struct {
	jwt.RegisteredClaims
	// UserID は合成した開発ユーザーのID。
	UserID string `json:"user_id"`
	// Email は開発ユーザーのメールアドレス。
	Email string `json:"email"`
}

// generateDevToken は開発用の署名付きトークンを生成する。
func generateDevToken(secret, userID, email string) (string, error) {
	claims := devClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "fitgate",
		},
		UserID: userID,
		Email:  email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("開発用トークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// handleDevToken はアップストリームなしでローカル開発するための
// セッションを発行するハンドラを返す。合成ユーザーと署名付きトークンを
// 生成し、通常のログインと同じ形でCookieを設定する。
// 本番環境では無効化すべき。
func (s *Server) handleDevToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := uuid.New().String()
		info := session.UserInfo{
			ID:    userID,
			Email: "dev@localhost",
			Name:  "開発ユーザー",
		}

		token, err := generateDevToken(s.jwtSecret, userID, info.Email)
		if err != nil {
			log.Printf("開発用トークン生成エラー: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		if err := session.Set(c, token, info); err != nil {
			log.Printf("開発用セッション発行エラー: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token": token,
			"user":  info,
		})
	}
}
