package webgate

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/fitgate/internal/cache"
	"github.com/nao1215/fitgate/internal/policy"
	"github.com/nao1215/fitgate/internal/upstream"
	"github.com/nao1215/fitgate/pkg/middleware"
)

// Server はサイトゲートウェイのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// upstream はバックエンドAPIへのクライアント。
	upstream *upstream.Client
	// cache は配信層のコンテンツキャッシュ。
	cache *cache.Store
	// revalidateSecret はキャッシュ再検証エンドポイントの共有シークレット。
	// 未設定の場合、再検証リクエストは設定不備として500を返す。
	revalidateSecret string
	// jwtSecret は開発用トークン署名の秘密鍵。
	jwtSecret string
}

// gateExclusions はセッションゲートの対象外とするパスプレフィックス。
// データAPI・静的アセット・監視系はナビゲーションではないため除外する。
var gateExclusions = []string{"/api", "/static", "/health", "/favicon.ico"}

// NewServer は新しいゲートウェイサーバーを生成する。
func NewServer(port string) (*Server, error) {
	cacheStore, err := cache.New(getEnvOr("CACHE_DB_PATH", "/data/fitgate-cache.db"), 0)
	if err != nil {
		return nil, fmt.Errorf("キャッシュストアの初期化に失敗: %w", err)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "dev-secret-key"
	}

	frontendURL := getEnvOr("FRONTEND_URL", "http://localhost:3000")

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(gin.Logger())
	router.Use(middleware.CORS([]string{frontendURL}))
	router.Use(middleware.Gate(policy.Default(), gateExclusions))

	s := &Server{
		router:           router,
		port:             port,
		upstream:         upstream.New(getEnvOr("UPSTREAM_API_URL", "http://localhost:4000")),
		cache:            cacheStore,
		revalidateSecret: os.Getenv("REVALIDATE_SECRET"),
		jwtSecret:        jwtSecret,
	}
	s.setupRoutes()

	return s, nil
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// Shutdown はサーバーの保持するリソースを解放する。
func (s *Server) Shutdown() {
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			log.Printf("キャッシュストアのクローズに失敗: %v", err)
		}
	}
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// ナビゲーションページ（セッションゲートの対象）
	s.router.GET("/", s.handlePage("home"))
	s.router.GET("/login", s.handlePage("login"))
	s.router.GET("/signup", s.handlePage("signup"))
	s.router.GET("/app", s.handlePage("app"))
	s.router.NoRoute(s.handleNoRoute())

	api := s.router.Group("/api")
	{
		// 認証フロー
		auth := api.Group("/auth")
		{
			auth.POST("/login", s.handleLogin())
			auth.POST("/logout", s.handleLogout())
			// 開発用トークン発行。本番環境では無効化すべき。
			auth.POST("/dev-token", s.handleDevToken())
		}

		// ユーザー情報
		api.GET("/me", s.handleMe())

		// リソースプロキシ
		api.GET("/exercises", s.handleListExercises())
		api.GET("/exercises/:id", s.handleProxyResource("/exercises/", "id"))
		api.GET("/workouts/:id", s.handleProxyResource("/workouts/", "id"))

		// キャッシュ再検証（外部トリガーから呼ばれる帯域外エンドポイント）
		api.POST("/revalidate", s.handleRevalidate())
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "fitgate"})
	})
}

// handlePage は最小限のページ応答を返すハンドラを返す。
// 画面の描画はフロントエンドの責務であり、ゲートウェイはゲート判定を
// 通過したことを示すアプリシェルのみを返す。
func (s *Server) handlePage(name string) gin.HandlerFunc {
	shell := []byte(`<!DOCTYPE html><html><head><title>fitgate</title></head><body><div id="root" data-page="` + name + `"></div></body></html>`)
	return func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", shell)
	}
}

// handleNoRoute は未登録パスへのフォールバックハンドラを返す。
// /app 配下のナビゲーションはアプリシェルを返し（ゲートは適用済み）、
// それ以外はJSONの404を返す。
func (s *Server) handleNoRoute() gin.HandlerFunc {
	appShell := s.handlePage("app")
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/app/") {
			appShell(c)
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	}
}

// getEnvOr は環境変数を取得し、設定されていない場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
