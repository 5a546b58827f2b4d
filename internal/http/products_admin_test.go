package handlers_test

import (
	"context"
	"net/http"
	"testing"
)

func adminProduct(t *testing.T, r reply, id string) map[string]any {
	t.Helper()
	list, _ := r.body["products"].([]any)
	for _, p := range list {
		m := p.(map[string]any)
		if m["_id"] == id {
			return m
		}
	}
	t.Fatalf("product %s not in admin list: %s", id, r.raw)
	return nil
}

func TestAdminProductListShowsCreator(t *testing.T) {
	ta := newTestApp(t, testConfig(t), relaxed)
	admin := ta.login(t, adminEmail, password).str("accessToken")
	boss, err := ta.users.ByEmail(context.Background(), adminEmail)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ta.db.Exec(`UPDATE products SET created_by = ? WHERE id = 'lap-001'`, boss.ID); err != nil {
		t.Fatal(err)
	}

	r := ta.call(t, "GET", "/api/v1/products/admin/product/all", admin, nil)
	if r.status != http.StatusOK {
		t.Fatalf("admin list: %d %s", r.status, r.raw)
	}
	creator, ok := adminProduct(t, r, "lap-001")["productCreatedByWhom"].(map[string]any)
	if !ok {
		t.Fatalf("lap-001 has no creator: %s", r.raw)
	}
	if creator["email"] != adminEmail || creator["fullName"] != "Admin" {
		t.Fatalf("unexpected creator: %v", creator)
	}
	if _, leaked := creator["passwordHash"]; leaked {
		t.Fatalf("creator leaks credentials: %v", creator)
	}
	if c := adminProduct(t, r, "phn-001")["productCreatedByWhom"]; c != nil {
		t.Fatalf("seeded product should have no creator, got %v", c)
	}
}

func TestHiddenProductLeavesPublicCatalog(t *testing.T) {
	ta := newTestApp(t, testConfig(t), relaxed)
	ta.signUp(t, "Ann", "ann@example.com")
	user := ta.login(t, "ann@example.com", password).str("accessToken")
	admin := ta.login(t, adminEmail, password).str("accessToken")
	visibility := "/api/v1/products/admin/product/lap-001/visibility"

	if r := ta.call(t, "PATCH", visibility, user, map[string]bool{"active": false}); r.status != http.StatusForbidden {
		t.Fatalf("user hide: expected 403, got %d", r.status)
	}
	if r := ta.call(t, "PATCH", visibility, admin, map[string]string{}); r.status != http.StatusBadRequest {
		t.Fatalf("missing flag: expected 400, got %d", r.status)
	}
	if r := ta.call(t, "PATCH", visibility, admin, map[string]bool{"active": false}); r.status != http.StatusOK {
		t.Fatalf("hide: %d %s", r.status, r.raw)
	}

	if r := ta.call(t, "GET", "/api/v1/products/product/lap-001", "", nil); r.status != http.StatusNotFound {
		t.Fatalf("hidden product get: expected 404, got %d", r.status)
	}
	if r := ta.call(t, "GET", "/api/v1/products/all-products?q=ultrabook", "", nil); r.body["productsCount"] != 0.0 {
		t.Fatalf("hidden product still listed: %s", r.raw)
	}
	if r := ta.call(t, "POST", "/api/v1/orders/cart", user, map[string]any{"productId": "lap-001", "qty": 1}); r.status != http.StatusNotFound {
		t.Fatalf("hidden product cart add: expected 404, got %d", r.status)
	}
	r := ta.call(t, "GET", "/api/v1/products/admin/product/all", admin, nil)
	if adminProduct(t, r, "lap-001")["active"] != false {
		t.Fatalf("admin list should show lap-001 hidden: %s", r.raw)
	}

	if r := ta.call(t, "PATCH", visibility, admin, map[string]bool{"active": true}); r.status != http.StatusOK {
		t.Fatalf("show: %d %s", r.status, r.raw)
	}
	if r := ta.call(t, "GET", "/api/v1/products/product/lap-001", "", nil); r.status != http.StatusOK {
		t.Fatalf("visible product get: expected 200, got %d", r.status)
	}
}
