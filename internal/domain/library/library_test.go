package library

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"letternest/internal/domain/lesson"
)

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type stubSource struct {
	topics []lesson.Topic
	err    error
	calls  int
}

func (s *stubSource) ListTopics(ctx context.Context) ([]lesson.Topic, error) {
	s.calls++
	return s.topics, s.err
}

func TestFilter(t *testing.T) {
	lib := Samples()
	lib.Topics = append(lib.Topics, lesson.Topic{ID: 9, Title: "Hidden", Letter: "F", Theme: "forest"})

	ocean := lib.Filter("", "Ocean")
	if len(ocean) != 2 || ocean[0].Letter != "C" || ocean[1].Letter != "D" {
		t.Fatalf("unexpected ocean topics %+v", ocean)
	}
	f := lib.Filter("f", "")
	if len(f) != 1 || f[0].ID != 6 {
		t.Fatalf("expected only the active F topic, got %+v", f)
	}
	if got := len(lib.Filter("", "")); got != 6 {
		t.Fatalf("expected 6 active topics, got %d", got)
	}
}

func TestFind(t *testing.T) {
	lib := Samples()
	if topic, ok := lib.Find(3); !ok || topic.Letter != "C" {
		t.Fatalf("unexpected lookup %+v %v", topic, ok)
	}
	if _, ok := lib.Find(42); ok {
		t.Fatal("expected missing topic")
	}
}

func TestThemes(t *testing.T) {
	got := Samples().Themes()
	want := []string{"forest", "jungle", "ocean", "savanna"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestCacheServesFreshCopy(t *testing.T) {
	src := &stubSource{topics: Samples().Topics}
	cache := NewCache(t.TempDir(), time.Hour, src, "http://backend/api", testLog())

	if _, err := cache.Library(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lib, err := cache.Library(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.calls != 1 {
		t.Fatalf("expected one backend fetch, got %d", src.calls)
	}
	if len(lib.Topics) != 6 || lib.URL != "http://backend/api" {
		t.Fatalf("unexpected library %+v", lib)
	}
	if info := cache.Info(); !info.Exists || !info.Fresh || info.Size == 0 {
		t.Fatalf("unexpected cache info %+v", info)
	}
}

func TestCacheFallsBackToStaleCopy(t *testing.T) {
	dir := t.TempDir()
	src := &stubSource{topics: Samples().Topics}
	cache := NewCache(dir, time.Hour, src, "", testLog())
	if _, err := cache.Library(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(filepath.Join(dir, cacheFileName), old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if cache.Info().Fresh {
		t.Fatal("expected an expired cache")
	}

	src.err = errors.New("connection refused")
	lib, err := cache.Library(context.Background())
	if err != nil {
		t.Fatalf("expected the stale cache, got %v", err)
	}
	if src.calls != 2 || len(lib.Topics) != 6 {
		t.Fatalf("unexpected fallback: %d calls, %d topics", src.calls, len(lib.Topics))
	}
}

func TestCacheWithoutBackendOrFile(t *testing.T) {
	src := &stubSource{err: errors.New("connection refused")}
	cache := NewCache(t.TempDir(), time.Hour, src, "", testLog())

	if _, err := cache.Library(context.Background()); err == nil {
		t.Fatal("expected an error with no backend and no cache")
	}
}

func TestClearCache(t *testing.T) {
	src := &stubSource{topics: Samples().Topics}
	cache := NewCache(t.TempDir(), time.Hour, src, "", testLog())

	if err := cache.ClearCache(); err != nil {
		t.Fatalf("clearing a missing cache should succeed: %v", err)
	}
	if _, err := cache.Library(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cache.ClearCache(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.Info().Exists {
		t.Fatal("expected the cache file to be gone")
	}
}
