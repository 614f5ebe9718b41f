package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"letternest/internal/domain/lesson"
)

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type memTokens struct {
	mu      sync.Mutex
	tokens  Tokens
	saves   int
	cleared bool
}

func (m *memTokens) LoadTokens(ctx context.Context) (Tokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens, nil
}

func (m *memTokens) SaveTokens(ctx context.Context, t Tokens) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = t
	m.saves++
	return nil
}

func (m *memTokens) ClearTokens(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = Tokens{}
	m.cleared = true
	return nil
}

func newTestClient(t *testing.T, r *mux.Router, store *memTokens) *Client {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	session, err := NewSession(context.Background(), store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return New(srv.URL+"/api/", 5*time.Second, session, testLog())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestLoginStoresTokens(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/token/", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]string
		json.NewDecoder(req.Body).Decode(&body)
		if body["username"] != "admin" || body["password"] != "apple" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "bad credentials"})
			return
		}
		writeJSON(w, http.StatusOK, Tokens{Access: "a1", Refresh: "r1"})
	}).Methods(http.MethodPost)

	store := &memTokens{}
	c := newTestClient(t, r, store)

	err := c.Login(context.Background(), "admin", "pear")
	if !IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("expected 401 status error, got %v", err)
	}
	if c.Session().LoggedIn() {
		t.Fatal("expected failed login to leave the session empty")
	}

	if err := c.Login(context.Background(), "admin", "apple"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.tokens != (Tokens{Access: "a1", Refresh: "r1"}) {
		t.Fatalf("unexpected stored tokens %+v", store.tokens)
	}

	if err := c.Logout(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Session().LoggedIn() || !store.cleared {
		t.Fatal("expected logout to clear both copies")
	}
}

func TestRefreshAndRetryOnce(t *testing.T) {
	var mu sync.Mutex
	var seen []string

	r := mux.NewRouter()
	r.HandleFunc("/api/topics/", func(w http.ResponseWriter, req *http.Request) {
		mu.Lock()
		seen = append(seen, req.Header.Get("Authorization"))
		mu.Unlock()
		if req.Header.Get("Authorization") != "Bearer fresh" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "token expired"})
			return
		}
		writeJSON(w, http.StatusOK, []lesson.Topic{{ID: 1, Title: "A is for Apple", Letter: "A"}})
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/token/refresh/", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]string
		json.NewDecoder(req.Body).Decode(&body)
		if body["refresh"] != "r1" {
			t.Errorf("unexpected refresh token %q", body["refresh"])
		}
		writeJSON(w, http.StatusOK, map[string]string{"access": "fresh"})
	}).Methods(http.MethodPost)

	store := &memTokens{tokens: Tokens{Access: "stale", Refresh: "r1"}}
	c := newTestClient(t, r, store)

	topics, err := c.ListTopics(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(topics) != 1 || topics[0].Letter != "A" {
		t.Fatalf("unexpected topics %+v", topics)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || seen[0] != "Bearer stale" || seen[1] != "Bearer fresh" {
		t.Fatalf("expected one retry with the new token, got %v", seen)
	}
	if store.tokens.Access != "fresh" || store.tokens.Refresh != "r1" {
		t.Fatalf("expected refreshed access token to be stored, got %+v", store.tokens)
	}
}

func TestRetryHappensOnlyOnce(t *testing.T) {
	var calls atomic.Int32
	r := mux.NewRouter()
	r.HandleFunc("/api/topics/3/", func(w http.ResponseWriter, req *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/token/refresh/", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"access": "fresh"})
	}).Methods(http.MethodPost)

	c := newTestClient(t, r, &memTokens{tokens: Tokens{Access: "stale", Refresh: "r1"}})

	_, err := c.GetTopic(context.Background(), 3)
	if !IsStatus(err, http.StatusUnauthorized) {
		t.Fatalf("expected 401 after the retry, got %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected exactly 2 attempts, got %d", got)
	}
}

func TestRejectedRefreshExpiresSession(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/topics/", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/token/refresh/", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "refresh expired"})
	}).Methods(http.MethodPost)

	store := &memTokens{tokens: Tokens{Access: "stale", Refresh: "old"}}
	c := newTestClient(t, r, store)
	expired := false
	c.Session().OnExpired(func() { expired = true })

	if _, err := c.ListTopics(context.Background()); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if !expired {
		t.Fatal("expected the expiry hook to fire")
	}
	if c.Session().Tokens() != (Tokens{}) || !store.cleared {
		t.Fatal("expected both tokens to be cleared")
	}
}

func TestUnauthorizedWithoutRefreshToken(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/topics/9/", func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("Authorization") != "" {
			t.Errorf("expected no bearer header, got %q", req.Header.Get("Authorization"))
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "login required"})
	}).Methods(http.MethodDelete)

	c := newTestClient(t, r, &memTokens{})

	err := c.DeleteTopic(context.Background(), 9)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected a status error, got %v", err)
	}
	if se.Op != "delete topic" || se.Status != http.StatusUnauthorized || !strings.Contains(se.Body, "login required") {
		t.Fatalf("unexpected status error %+v", se)
	}
}

func TestListTopicsPaginated(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/topics/", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"count":2,"results":[{"id":1,"title":"Apple","letter":"A"},{"id":2,"title":"Bee","letter":"B"}]}`))
	}).Methods(http.MethodGet)

	c := newTestClient(t, r, &memTokens{})
	topics, err := c.ListTopics(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(topics) != 2 || topics[1].Title != "Bee" {
		t.Fatalf("unexpected topics %+v", topics)
	}
}

func TestCreateTopicMultipart(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/topics/", func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("Authorization") != "Bearer a1" {
			t.Errorf("expected bearer token, got %q", req.Header.Get("Authorization"))
		}
		if err := req.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
			return
		}
		if got := req.FormValue("title"); got != "C is for Cat" {
			t.Errorf("unexpected title %q", got)
		}
		if got := req.FormValue("is_active"); got != "true" {
			t.Errorf("unexpected is_active %q", got)
		}
		if _, ok := req.MultipartForm.Value["theme"]; ok {
			t.Error("expected unset fields to be omitted")
		}
		file, header, err := req.FormFile("thumbnail")
		if err != nil {
			t.Errorf("missing thumbnail: %v", err)
			return
		}
		data, _ := io.ReadAll(file)
		if header.Filename != "cat.png" || string(data) != "png" {
			t.Errorf("unexpected upload %s %q", header.Filename, data)
		}
		writeJSON(w, http.StatusCreated, lesson.Topic{ID: 7, Title: "C is for Cat", Letter: "C", IsActive: true})
	}).Methods(http.MethodPost)

	c := newTestClient(t, r, &memTokens{tokens: Tokens{Access: "a1", Refresh: "r1"}})
	topic, err := c.CreateTopic(context.Background(), TopicInput{
		Title:     String("C is for Cat"),
		Letter:    String("C"),
		IsActive:  Bool(true),
		Thumbnail: &Upload{Filename: "cat.png", Data: []byte("png")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if topic.ID != 7 {
		t.Fatalf("unexpected topic %+v", topic)
	}
}

func TestMultipartBodySurvivesRetry(t *testing.T) {
	var attempts atomic.Int32
	r := mux.NewRouter()
	r.HandleFunc("/api/media/4/", func(w http.ResponseWriter, req *http.Request) {
		attempts.Add(1)
		if req.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := req.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
			return
		}
		if got := req.FormValue("media_url"); got != "https://youtu.be/abcdefghijk" {
			t.Errorf("unexpected media_url %q", got)
		}
		if got := req.FormValue("media_type"); got != "youtube" {
			t.Errorf("unexpected media_type %q", got)
		}
		writeJSON(w, http.StatusOK, lesson.Media{ID: 4, Kind: lesson.MediaYouTube, URL: req.FormValue("media_url")})
	}).Methods(http.MethodPatch)
	r.HandleFunc("/api/token/refresh/", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"access": "fresh"})
	}).Methods(http.MethodPost)

	c := newTestClient(t, r, &memTokens{tokens: Tokens{Access: "stale", Refresh: "r1"}})
	m, err := c.UpdateMedia(context.Background(), 4, MediaInput{
		Kind: Kind(lesson.MediaYouTube),
		URL:  String("https://youtu.be/abcdefghijk"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := attempts.Load(); got != 2 || m.ID != 4 {
		t.Fatalf("expected the retried request to succeed, got %d attempts and %+v", got, m)
	}
}

func TestUpdateProgress(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/progress/update-progress/", func(w http.ResponseWriter, req *http.Request) {
		var u ProgressUpdate
		if err := json.NewDecoder(req.Body).Decode(&u); err != nil {
			t.Errorf("decode: %v", err)
		}
		if u.TopicID != 2 || u.StarsEarned != 3 || !u.Completed {
			t.Errorf("unexpected update %+v", u)
		}
		writeJSON(w, http.StatusOK, lesson.Progress{ID: 11, Topic: lesson.Topic{ID: 2}, StarsEarned: 3, Completed: true})
	}).Methods(http.MethodPost)

	c := newTestClient(t, r, &memTokens{tokens: Tokens{Access: "a1"}})
	p, err := c.UpdateProgress(context.Background(), ProgressUpdate{TopicID: 2, StarsEarned: 3, Completed: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Topic.ID != 2 || p.StarsEarned != 3 {
		t.Fatalf("unexpected progress %+v", p)
	}
}
