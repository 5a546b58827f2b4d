package services_test

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"megastore/internal/apperr"
	"megastore/internal/auth"
	"megastore/internal/blob"
	"megastore/internal/notify"
	"megastore/internal/repos"
	"megastore/internal/services"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (f *fakeNotifier) Send(_ context.Context, m notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m)
	return nil
}

func (f *fakeNotifier) last(t *testing.T) notify.Message {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent, "no message sent")
	return f.sent[len(f.sent)-1]
}

type env struct {
	db       *sqlx.DB
	users    *repos.UserRepo
	hasher   auth.Hasher
	tokens   *auth.Issuer
	mail     *fakeNotifier
	store    *blob.LocalStore
	stager   *blob.Stager
	sessions *services.SessionService
	reg      *services.RegistrationService
	pw       *services.PasswordService
	accounts *services.AccountService
}

const baseURL = "https://shop.test/api/v1/users"

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	db, err := repos.OpenDB(ctx, repos.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repos.SeedCatalog(ctx, db))

	store, err := blob.NewLocalStore(t.TempDir(), "/media")
	require.NoError(t, err)
	stager, err := blob.NewStager(t.TempDir())
	require.NoError(t, err)
	renderer, err := notify.NewRenderer()
	require.NoError(t, err)

	e := &env{
		db:     db,
		users:  repos.NewUserRepo(db),
		hasher: auth.NewBcryptHasher(4),
		tokens: auth.NewIssuer(auth.IssuerConfig{
			Access:     auth.KeyConfig{Secret: "access", TTL: 15 * time.Minute},
			Refresh:    auth.KeyConfig{Secret: "refresh", TTL: 7 * 24 * time.Hour},
			Activation: auth.KeyConfig{Secret: "activation"},
		}),
		mail:   &fakeNotifier{},
		store:  store,
		stager: stager,
	}
	e.sessions = services.NewSessionService(e.users, e.hasher, e.tokens)
	e.reg = &services.RegistrationService{
		Users: e.users, Hasher: e.hasher, Tokens: e.tokens,
		Stager: stager, Store: store, Notifier: e.mail, Renderer: renderer,
	}
	e.pw = &services.PasswordService{
		Users: e.users, Hasher: e.hasher, Tokens: e.tokens,
		Notifier: e.mail, Renderer: renderer,
	}
	e.accounts = services.NewAccountService(e.users, store)
	return e
}

// register creates an account through the direct path.
func (e *env) register(t *testing.T, email, password string) string {
	t.Helper()
	u, err := e.reg.Register(context.Background(), services.RegistrationInput{
		FullName: "Test User", Email: email, Password: password,
	})
	require.NoError(t, err)
	return u.ID
}

var linkRe = regexp.MustCompile(`/(activation|reset-password)/([^"]+)"`)

func linkToken(t *testing.T, m notify.Message) string {
	t.Helper()
	match := linkRe.FindStringSubmatch(m.HTML)
	require.Len(t, match, 3, "no link in %q", m.HTML)
	return match[2]
}

func requireKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, apperr.KindOf(err), "err: %v", err)
}
