package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"bookbazaar/internal/config"
	"bookbazaar/internal/domain"
	"bookbazaar/internal/events"
	"bookbazaar/internal/http/handlers"
	"bookbazaar/internal/likes"
	"bookbazaar/internal/marketapi"
	"bookbazaar/internal/repos"
	"bookbazaar/internal/services"
)

// market is a fake marketplace API: 37 books alternating between two
// regions, a small comment thread on every book, and one user. is_liked is
// only reported to requests carrying that user's token.
type market struct {
	mu        sync.Mutex
	liked     map[string]bool
	likeCalls int
	failLike  bool
	failList  bool
}

var marketCategories = []domain.Category{
	{ID: 1, Name: "Fiction", Subcategories: []domain.Category{{ID: 11, Name: "Fantasy"}}},
	{ID: 2, Name: "Science"},
}

var marketRegions = []domain.Region{
	{ID: 1, Name: "Tashkent", Districts: []domain.District{{ID: 1, Name: "Chilonzor"}}},
	{ID: 2, Name: "Samarqand", Districts: []domain.District{{ID: 2, Name: "Urgut"}}},
}

func signedIn(r *http.Request) bool {
	return r.Header.Get("Authorization") == "Bearer tok"
}

func (m *market) book(id int, authed bool) domain.Book {
	region := "Tashkent"
	if id%2 == 0 {
		region = "Samarqand"
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.Book{
		ID: id, Title: "Book " + strconv.Itoa(id), Author: "Author", Price: 10000,
		CoverType: "soft", Type: "seller", CategoryID: 1, Region: region, ShopID: 1,
		IsLiked: authed && m.liked["b"+strconv.Itoa(id)], LikeCount: 3,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (m *market) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /books/{$}", func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		fail := m.failList
		m.mu.Unlock()
		if fail {
			http.Error(w, "upstream down", http.StatusServiceUnavailable)
			return
		}
		q := r.URL.Query()
		var all []domain.Book
		for id := 1; id <= 37; id++ {
			b := m.book(id, signedIn(r))
			if reg := q.Get("region"); reg != "" && reg != b.Region {
				continue
			}
			if shop := q.Get("shop"); shop != "" && shop != strconv.Itoa(b.ShopID) {
				continue
			}
			all = append(all, b)
		}
		limit, _ := strconv.Atoi(q.Get("limit"))
		offset, _ := strconv.Atoi(q.Get("offset"))
		page := all
		if limit > 0 {
			page = []domain.Book{}
			for i := offset; i < len(all) && i < offset+limit; i++ {
				page = append(page, all[i])
			}
		}
		writeJSON(w, map[string]any{"results": page, "count": len(all)})
	})
	mux.HandleFunc("GET /books/{id}/{$}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(r.PathValue("id"))
		if id < 1 || id > 37 {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, m.book(id, signedIn(r)))
	})
	mux.HandleFunc("GET /books/{id}/comments/{$}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"comments": []domain.Comment{
			{ID: 10, Author: "dilnoza", Text: "Loved it", LikeCount: 2, Replies: []domain.Comment{
				{ID: 11, Author: "bek", Text: "Same"},
				{ID: 12, Author: "olim", Text: "Not for me", LikeCount: 1},
			}},
		}})
	})
	toggle := func(prefix string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !signedIn(r) {
				http.Error(w, "no token", http.StatusUnauthorized)
				return
			}
			m.mu.Lock()
			defer m.mu.Unlock()
			m.likeCalls++
			if m.failLike {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			if m.liked == nil {
				m.liked = map[string]bool{}
			}
			k := prefix + r.PathValue("id")
			m.liked[k] = !m.liked[k]
			writeJSON(w, marketapi.ToggleResult{Success: true, IsLiked: m.liked[k]})
		}
	}
	mux.HandleFunc("POST /books/{id}/like/{$}", toggle("b"))
	mux.HandleFunc("POST /comments/{id}/like/{$}", toggle("c"))
	mux.HandleFunc("GET /categories/{$}", func(w http.ResponseWriter, r *http.Request) { writeJSON(w, marketCategories) })
	mux.HandleFunc("GET /regions/{$}", func(w http.ResponseWriter, r *http.Request) { writeJSON(w, marketRegions) })
	mux.HandleFunc("GET /shops/{$}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []domain.Shop{{ID: 1, Name: "Kitob Olami", Region: "Tashkent"}, {ID: 2, Name: "Asaxiy", Region: "Samarqand"}})
	})
	mux.HandleFunc("GET /shops/{id}/{$}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "1" {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, domain.Shop{ID: 1, Name: "Kitob Olami", Region: "Tashkent"})
	})
	mux.HandleFunc("POST /auth/login/{$}", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Username, Password string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Username != "aziz" || body.Password != "secret1" {
			http.Error(w, `{"detail":"bad credentials"}`, http.StatusUnauthorized)
			return
		}
		writeJSON(w, map[string]any{"access": "tok", "refresh": "r", "user": map[string]any{"id": 7, "username": "aziz"}})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected upstream call %s %s", r.Method, r.URL.Path)
		http.NotFound(w, r)
	})
	return mux
}

type env struct {
	app      *fiber.App
	market   *market
	sessions *repos.SessionRepo
	broker   *events.Broker
}

func newEnv(t *testing.T) *env {
	t.Helper()
	m := &market{}
	srv := httptest.NewServer(m.handler(t))
	t.Cleanup(srv.Close)

	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	api := marketapi.New(config.APIConfig{BaseURL: srv.URL}, nil)
	broker := events.NewBroker()
	syncer := likes.NewSyncer(services.MarketToggler(api), broker, nil, nil)
	likeSvc := services.NewLikeService(syncer, repos.NewLikeCacheRepo(db), nil)
	catalogSvc := services.NewCatalogService(api, 12, nil, nil)
	sessions := repos.NewSessionRepo(db)
	authSvc := services.NewAuthService(api, sessions, nil)

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine, ErrorHandler: handlers.ErrorHandler})
	app.Use(requestid.New())
	app.Use(handlers.AttachUser(authSvc))
	app.Use(csrf.New(csrf.Config{KeyLookup: "form:csrf", CookieName: "csrf_", CookieSameSite: "Lax"}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})
	handlers.Register(app, handlers.NewDeps(catalogSvc, likeSvc, authSvc, services.NewWishlistService(api, likeSvc, nil), broker), authSvc)
	return &env{app: app, market: m, sessions: sessions, broker: broker}
}

func extractCookie(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func (e *env) csrfToken(t *testing.T) string {
	t.Helper()
	resp, err := e.app.Test(httptest.NewRequest("GET", "/login", nil))
	if err != nil {
		t.Fatal(err)
	}
	tok := extractCookie(resp, "csrf_")
	if tok == "" {
		t.Fatal("csrf token missing")
	}
	return tok
}

// signIn binds sid to a user holding the token the fake market accepts.
func (e *env) signIn(t *testing.T, sid string) {
	t.Helper()
	if err := e.sessions.Bind(sid, domain.User{ID: "7", Name: "aziz", AccessToken: "tok"}); err != nil {
		t.Fatal(err)
	}
}

func (e *env) get(t *testing.T, target, sid string) *http.Response {
	t.Helper()
	req := httptest.NewRequest("GET", target, nil)
	if sid != "" {
		req.AddCookie(sidCookie(sid))
	}
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func (e *env) post(t *testing.T, target, sid string, form url.Values, asJSON bool) *http.Response {
	t.Helper()
	tok := e.csrfToken(t)
	form.Set("csrf", tok)
	req := newFormRequest(target, form)
	if asJSON {
		req.Header.Set("Accept", "application/json")
	}
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: tok})
	if sid != "" {
		req.AddCookie(sidCookie(sid))
	}
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func location(resp *http.Response) string {
	return resp.Header.Get("Location")
}


func newFormRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest("POST", target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func sidCookie(sid string) *http.Cookie {
	return &http.Cookie{Name: "sid", Value: sid}
}

// likedUpstream marks a book as liked by the user on the marketplace itself,
// as if from another device.
func (m *market) likedUpstream(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.liked == nil {
		m.liked = map[string]bool{}
	}
	m.liked["b"+strconv.Itoa(id)] = true
}

func (m *market) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.likeCalls
}

func (m *market) fail(like, list bool) {
	m.mu.Lock()
	m.failLike, m.failList = like, list
	m.mu.Unlock()
}
