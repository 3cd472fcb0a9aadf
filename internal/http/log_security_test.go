package handlers_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"secondhand/internal/webhook"
)

// rejected webhooks and csrf failures are logged as security events
func TestSecurityEventsLogged(t *testing.T) {
	env := newEnv(t)
	logs := captureLogs(t)

	body := []byte(`{"id":"evt_1","type":"charge:confirmed","data":{"id":"chg_1"}}`)
	req := httptest.NewRequest("POST", "/api/commerce-webhook", bytes.NewReader(body))
	req.Header.Set(webhook.SignatureHeader, webhook.Sign(body, "wrong-secret"))
	resp, err := env.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	expectStatus(t, resp, fiber.StatusUnauthorized)
	if !hasAction(logs, "webhook.auth.fail") {
		t.Fatal("expected webhook.auth.fail log")
	}

	// write without the csrf header
	req = httptest.NewRequest("POST", "/api/cart/items", bytes.NewReader([]byte(`{"product_id":"bottle-002"}`)))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	resp, err = env.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	expectStatus(t, resp, fiber.StatusForbidden)
	if !hasAction(logs, "csrf.fail") {
		t.Fatal("expected csrf.fail log")
	}
}

func TestAuditTrail(t *testing.T) {
	env := newEnv(t)
	c := env.client(t)
	logs := captureLogs(t)

	resp := c.sendJSON(http.MethodPatch, "/api/listings/bottle-002/status", map[string]any{"status": "draft"})
	expectStatus(t, resp, fiber.StatusOK)
	resp = c.sendJSON(http.MethodPost, "/api/listings/bottle-002/copy", nil)
	expectStatus(t, resp, fiber.StatusCreated)

	for _, action := range []string{"listing.status", "listing.copy"} {
		entries := logs.FilterMessage(action).All()
		if len(entries) != 1 {
			t.Fatalf("expected one %s entry, got %d", action, len(entries))
		}
		if entries[0].ContextMap()["kind"] != "audit" {
			t.Fatalf("%s should be an audit entry", action)
		}
		if entries[0].ContextMap()["product_id"] != "bottle-002" {
			t.Fatalf("%s missing product_id: %v", action, entries[0].ContextMap())
		}
	}
}
