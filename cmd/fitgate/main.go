// サイトゲートウェイのエントリポイント。
// ナビゲーションへのセッションゲート適用、認証付きリクエストの
// アップストリームAPIへの転送、キャッシュ再検証を担当する。
// 外部からアクセス可能な唯一のコンポーネントであり、セキュリティの
// 境界線となる。
package main

import (
	"log"
	"os"

	"github.com/nao1215/fitgate/internal/webgate"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server, err := webgate.NewServer(port)
	if err != nil {
		log.Fatalf("ゲートウェイサーバーの初期化に失敗: %v", err)
	}
	defer server.Shutdown()

	log.Printf("ゲートウェイを起動します: :%s", port)
	if err := server.Run(); err != nil {
		log.Fatalf("ゲートウェイの起動に失敗: %v", err)
	}
}
