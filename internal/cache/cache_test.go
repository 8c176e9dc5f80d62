package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// newTestStore はテスト用のキャッシュストアを生成する。
func newTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()

	store, err := New(filepath.Join(t.TempDir(), "cache.db"), ttl)
	if err != nil {
		t.Fatalf("キャッシュストア生成に失敗: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// TestGetSet はキャッシュの読み書きのテスト。
func TestGetSet(t *testing.T) {
	t.Parallel()

	t.Run("保存したボディをキーで取得できる", func(t *testing.T) {
		t.Parallel()

		store := newTestStore(t, time.Minute)
		ctx := context.Background()

		if err := store.Set(ctx, "exercises:page=1", "exercises", []byte(`{"items":[1,2]}`)); err != nil {
			t.Fatalf("Setに失敗: %v", err)
		}

		body, ok, err := store.Get(ctx, "exercises:page=1")
		if err != nil {
			t.Fatalf("Getに失敗: %v", err)
		}
		if !ok {
			t.Fatal("キャッシュヒットしない")
		}
		if string(body) != `{"items":[1,2]}` {
			t.Errorf("body: got %s", body)
		}
	})

	t.Run("存在しないキーはミスになる", func(t *testing.T) {
		t.Parallel()

		store := newTestStore(t, time.Minute)
		_, ok, err := store.Get(context.Background(), "no-such-key")
		if err != nil {
			t.Fatalf("Getに失敗: %v", err)
		}
		if ok {
			t.Error("存在しないキーでヒットした")
		}
	})

	t.Run("同一キーへのSetは上書きする", func(t *testing.T) {
		t.Parallel()

		store := newTestStore(t, time.Minute)
		ctx := context.Background()

		if err := store.Set(ctx, "k", "exercises", []byte("old")); err != nil {
			t.Fatalf("Setに失敗: %v", err)
		}
		if err := store.Set(ctx, "k", "workouts", []byte("new")); err != nil {
			t.Fatalf("上書きSetに失敗: %v", err)
		}

		body, ok, err := store.Get(ctx, "k")
		if err != nil || !ok {
			t.Fatalf("Getに失敗: ok=%v, err=%v", ok, err)
		}
		if string(body) != "new" {
			t.Errorf("body: got %s, want new", body)
		}
	})
}

// TestTTL はTTL失効のテスト。
func TestTTL(t *testing.T) {
	t.Parallel()

	// TTLは秒精度で保存されるため、確実に過去となる負のTTLで失効を再現する
	store := newTestStore(t, -time.Second)
	ctx := context.Background()

	if err := store.Set(ctx, "expired-key", "exercises", []byte("stale")); err != nil {
		t.Fatalf("Setに失敗: %v", err)
	}

	_, ok, err := store.Get(ctx, "expired-key")
	if err != nil {
		t.Fatalf("Getに失敗: %v", err)
	}
	if ok {
		t.Error("失効済みエントリがヒットした")
	}
}

// TestInvalidateTag はタグ単位の無効化のテスト。
func TestInvalidateTag(t *testing.T) {
	t.Parallel()

	t.Run("指定タグのエントリのみ削除する", func(t *testing.T) {
		t.Parallel()

		store := newTestStore(t, time.Minute)
		ctx := context.Background()

		entries := map[string]string{
			"exercises:p1": "exercises",
			"exercises:p2": "exercises",
			"workouts:w1":  "workouts",
		}
		for key, tag := range entries {
			if err := store.Set(ctx, key, tag, []byte("body")); err != nil {
				t.Fatalf("Setに失敗: %v", err)
			}
		}

		n, err := store.InvalidateTag(ctx, "exercises")
		if err != nil {
			t.Fatalf("InvalidateTagに失敗: %v", err)
		}
		if n != 2 {
			t.Errorf("削除件数: got %d, want 2", n)
		}

		if _, ok, _ := store.Get(ctx, "exercises:p1"); ok {
			t.Error("無効化したタグのエントリが残っている")
		}
		if _, ok, _ := store.Get(ctx, "workouts:w1"); !ok {
			t.Error("無関係なタグのエントリまで削除された")
		}
	})

	t.Run("該当エントリがないタグでは0件を返す", func(t *testing.T) {
		t.Parallel()

		store := newTestStore(t, time.Minute)
		n, err := store.InvalidateTag(context.Background(), "empty-tag")
		if err != nil {
			t.Fatalf("InvalidateTagに失敗: %v", err)
		}
		if n != 0 {
			t.Errorf("削除件数: got %d, want 0", n)
		}
	})
}
