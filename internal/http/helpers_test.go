package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"megastore/internal/auth"
	"megastore/internal/blob"
	"megastore/internal/config"
	"megastore/internal/http/handlers"
	"megastore/internal/notify"
	"megastore/internal/repos"
)

const (
	adminEmail = "admin@megastore.test"
	password   = "Passw0rd!"
)

type testApp struct {
	app    *fiber.App
	db     *sqlx.DB
	users  *repos.UserRepo
	mail   *notify.LogNotifier
	hasher auth.Hasher
}

func testConfig(t *testing.T) config.Config {
	return config.Config{
		MediaDir:         t.TempDir(),
		PublicBaseURL:    "http://shop.test",
		AccessExpiry:     15 * time.Minute,
		RefreshExpiry:    24 * time.Hour,
		CookieSecure:     true,
		CookieSameSite:   "Lax",
		RegistrationMode: config.RegistrationActivation,
		BlobBackend:      config.BlobLocal,
	}
}

func newTestApp(t *testing.T, cfg config.Config, lim handlers.Limits) *testApp {
	t.Helper()
	ctx := context.Background()
	db, err := repos.OpenDB(ctx, repos.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := repos.SeedCatalog(ctx, db); err != nil {
		t.Fatalf("seed: %v", err)
	}

	hasher := auth.NewBcryptHasher(4)
	users := repos.NewUserRepo(db)
	hash, err := hasher.Hash(password)
	if err != nil {
		t.Fatal(err)
	}
	if err := repos.SeedAdmin(ctx, users, adminEmail, "Admin", hash); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	store, err := blob.NewLocalStore(cfg.MediaDir, cfg.PublicBaseURL+"/media")
	if err != nil {
		t.Fatal(err)
	}
	stager, err := blob.NewStager(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	renderer, err := notify.NewRenderer()
	if err != nil {
		t.Fatal(err)
	}
	mail := &notify.LogNotifier{}

	deps := handlers.NewDeps(db, cfg, handlers.Infra{
		Hasher: hasher,
		Tokens: auth.NewIssuer(auth.IssuerConfig{
			Access:     auth.KeyConfig{Secret: "access-secret", TTL: cfg.AccessExpiry},
			Refresh:    auth.KeyConfig{Secret: "refresh-secret", TTL: cfg.RefreshExpiry},
			Activation: auth.KeyConfig{Secret: "activation-secret"},
		}),
		Store:    store,
		Stager:   stager,
		Notifier: mail,
		Renderer: renderer,
	})
	return &testApp{
		app:    handlers.NewApp(deps, cfg, lim),
		db:     db,
		users:  users,
		mail:   mail,
		hasher: hasher,
	}
}

var relaxed = handlers.Limits{LoginMax: 100, LoginWindow: time.Minute, AvailabilityMax: 100}

type reply struct {
	status  int
	cookies []*http.Cookie
	body    map[string]any
	raw     string
}

func (r reply) str(key string) string {
	s, _ := r.body[key].(string)
	return s
}

func (r reply) cookie(name string) *http.Cookie {
	for _, c := range r.cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// call sends a JSON request; token, when set, goes in the Authorization header.
func (ta *testApp) call(t *testing.T, method, path, token string, body any) reply {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return ta.do(t, req)
}

func (ta *testApp) do(t *testing.T, req *http.Request) reply {
	t.Helper()
	resp, err := ta.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	r := reply{status: resp.StatusCode, cookies: resp.Cookies(), raw: string(raw)}
	_ = json.Unmarshal(raw, &r.body)
	return r
}

func (ta *testApp) login(t *testing.T, email, pw string) reply {
	t.Helper()
	r := ta.call(t, "POST", "/api/v1/users/login", "", map[string]string{"email": email, "password": pw})
	if r.status != http.StatusOK {
		t.Fatalf("login %s: %d %s", email, r.status, r.raw)
	}
	return r
}

var linkRe = regexp.MustCompile(`/(activation|reset-password)/([^"]+)"`)

func (ta *testApp) lastLinkToken(t *testing.T) string {
	t.Helper()
	msg, ok := ta.mail.Last()
	if !ok {
		t.Fatal("no mail sent")
	}
	m := linkRe.FindStringSubmatch(msg.HTML)
	if len(m) != 3 {
		t.Fatalf("no link in mail: %s", msg.HTML)
	}
	return m[2]
}

// signUp registers and activates an account through the HTTP API.
func (ta *testApp) signUp(t *testing.T, name, email string) {
	t.Helper()
	r := ta.call(t, "POST", "/api/v1/users/register", "", map[string]string{
		"fullName": name, "email": email, "password": password,
	})
	if r.status != http.StatusOK {
		t.Fatalf("register: %d %s", r.status, r.raw)
	}
	r = ta.call(t, "POST", "/api/v1/users/activation/"+ta.lastLinkToken(t), "", nil)
	if r.status != http.StatusCreated {
		t.Fatalf("activate: %d %s", r.status, r.raw)
	}
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	UserID string         `json:"user_id"`
	Fields map[string]any `json:"fields"`
}

// captureLogs swaps the standard logger output for the duration of fn.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedWriter{w: &buf, mu: &mu})
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &e); err == nil && e.Action != "" {
			entries = append(entries, e)
		}
	}
	return entries
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

func findLog(entries []logEntry, action string) *logEntry {
	for i := range entries {
		if entries[i].Action == action {
			return &entries[i]
		}
	}
	return nil
}
