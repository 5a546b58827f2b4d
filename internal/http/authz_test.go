package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAdminRoutesRequireAdmin(t *testing.T) {
	ta := newTestApp(t, testConfig(t), relaxed)
	ta.signUp(t, "Ann", "ann@example.com")
	user := ta.login(t, "ann@example.com", password).str("accessToken")
	admin := ta.login(t, adminEmail, password).str("accessToken")

	paths := []string{
		"/api/v1/users/admin/all-users",
		"/api/v1/orders/admin/all-orders",
		"/api/v1/products/admin/inventory",
		"/api/v1/products/admin/product/all",
	}
	for _, p := range paths {
		if r := ta.call(t, "GET", p, "", nil); r.status != http.StatusUnauthorized {
			t.Fatalf("%s anonymous: expected 401, got %d", p, r.status)
		}
		if r := ta.call(t, "GET", p, user, nil); r.status != http.StatusForbidden {
			t.Fatalf("%s user: expected 403, got %d", p, r.status)
		}
		if r := ta.call(t, "GET", p, admin, nil); r.status != http.StatusOK {
			t.Fatalf("%s admin: expected 200, got %d %s", p, r.status, r.raw)
		}
	}
}

func TestGarbageTokenRejected(t *testing.T) {
	ta := newTestApp(t, testConfig(t), relaxed)
	r := ta.call(t, "GET", "/api/v1/users/current-user", "not.a.jwt", nil)
	if r.status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", r.status)
	}
	if r.body["success"] != false {
		t.Fatalf("unexpected body: %s", r.raw)
	}
}

func TestDeletedUserTokenRejected(t *testing.T) {
	ta := newTestApp(t, testConfig(t), relaxed)
	ta.signUp(t, "Ann", "ann@example.com")
	user := ta.login(t, "ann@example.com", password)
	admin := ta.login(t, adminEmail, password).str("accessToken")

	me := ta.call(t, "GET", "/api/v1/users/current-user", user.str("accessToken"), nil)
	id, _ := me.body["user"].(map[string]any)["_id"].(string)
	if id == "" {
		t.Fatalf("no id in %s", me.raw)
	}

	if r := ta.call(t, "DELETE", "/api/v1/users/admin/user/"+id, admin, nil); r.status != http.StatusOK {
		t.Fatalf("delete: %d %s", r.status, r.raw)
	}
	if r := ta.call(t, "GET", "/api/v1/users/current-user", user.str("accessToken"), nil); r.status != http.StatusUnauthorized {
		t.Fatalf("deleted user: expected 401, got %d", r.status)
	}
	if r := ta.call(t, "GET", "/api/v1/users/admin/user/"+id, admin, nil); r.status != http.StatusNotFound {
		t.Fatalf("deleted user lookup: expected 404, got %d", r.status)
	}
}

func TestAdminRoleChange(t *testing.T) {
	ta := newTestApp(t, testConfig(t), relaxed)
	ta.signUp(t, "Ann", "ann@example.com")
	admin := ta.login(t, adminEmail, password).str("accessToken")
	u, err := ta.users.ByEmail(context.Background(), "ann@example.com")
	if err != nil {
		t.Fatal(err)
	}

	if r := ta.call(t, "PATCH", "/api/v1/users/admin/user/"+u.ID, admin, map[string]string{"role": "root"}); r.status != http.StatusBadRequest {
		t.Fatalf("bad role: expected 400, got %d", r.status)
	}
	if r := ta.call(t, "PATCH", "/api/v1/users/admin/user/"+u.ID, admin, map[string]string{"role": "admin"}); r.status != http.StatusOK {
		t.Fatalf("role change: %d %s", r.status, r.raw)
	}
	promoted := ta.login(t, "ann@example.com", password).str("accessToken")
	if r := ta.call(t, "GET", "/api/v1/users/admin/all-users", promoted, nil); r.status != http.StatusOK {
		t.Fatalf("promoted user: expected 200, got %d", r.status)
	}
}

func TestCookieTakesPrecedenceOverBearer(t *testing.T) {
	ta := newTestApp(t, testConfig(t), relaxed)
	ta.signUp(t, "Ann", "ann@example.com")
	valid := ta.login(t, "ann@example.com", password).str("accessToken")

	send := func(cookie, bearer string) int {
		req := httptest.NewRequest("GET", "/api/v1/users/current-user", nil)
		req.AddCookie(&http.Cookie{Name: "accessToken", Value: cookie})
		req.Header.Set("Authorization", "Bearer "+bearer)
		return ta.do(t, req).status
	}
	if got := send(valid, "not.a.jwt"); got != http.StatusOK {
		t.Fatalf("valid cookie, garbage bearer: expected 200, got %d", got)
	}
	if got := send("not.a.jwt", valid); got != http.StatusUnauthorized {
		t.Fatalf("garbage cookie, valid bearer: expected 401, got %d", got)
	}
}
