package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"secondhand/internal/cart"
	"secondhand/internal/config"
	"secondhand/internal/http/handlers"
	applog "secondhand/internal/log"
	"secondhand/internal/repos"
	"secondhand/internal/storage"
)

const (
	testAPIKey = "test-key"
	testSecret = "whsec_test"
)

// fakeProvider stands in for the commerce API and records what it was sent.
type fakeProvider struct {
	mu       sync.Mutex
	hits     int
	apiKey   string
	body     []byte
	status   int
	response string
}

func (p *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hits++
	p.apiKey = r.Header.Get("X-CC-Api-Key")
	p.body = raw
	if p.status != 0 {
		w.WriteHeader(p.status)
	}
	resp := p.response
	if resp == "" {
		resp = `{"data":{"id":"chg_test","code":"TEST","hosted_url":"https://pay.example/TEST"}}`
	}
	_, _ = w.Write([]byte(resp))
}

func (p *fakeProvider) Hits() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hits
}

func (p *fakeProvider) APIKey() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.apiKey
}

func (p *fakeProvider) Body() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return string(p.body)
}

// Respond changes what later calls get back. status 0 means 200.
func (p *fakeProvider) Respond(status int, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status, p.response = status, body
}

func (p *fakeProvider) LastRequest() map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out map[string]any
	_ = json.Unmarshal(p.body, &out)
	return out
}

type testEnv struct {
	app      *fiber.App
	cfg      config.Config
	products *repos.ProductRepo
	charges  *repos.ChargeRepo
	carts    *cart.Registry
	provider *fakeProvider
	mediaDir string
}

func newEnv(t *testing.T, tweak ...func(*config.Config)) *testEnv {
	t.Helper()
	provider := &fakeProvider{}
	srv := httptest.NewServer(provider)
	t.Cleanup(srv.Close)

	mediaDir := t.TempDir()
	cfg := config.Config{
		Env:            "test",
		DBDSN:          ":memory:",
		PublicURL:      "http://shop.test",
		AppName:        "Secondhand Store",
		CommerceAPIURL: srv.URL,
		CommerceAPIKey: testAPIKey,
		WebhookSecret:  testSecret,
		HTTPTimeout:    2 * time.Second,
		MediaDir:       mediaDir,
	}
	for _, f := range tweak {
		f(&cfg)
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	products := repos.NewProductRepo(db)
	charges := repos.NewChargeRepo(db)
	carts := cart.NewRegistry(products)
	deps := handlers.NewDeps(cfg, handlers.Backends{
		Products: products,
		Charges:  charges,
		Carts:    carts,
		Media:    storage.NewLocal(mediaDir),
	})
	return &testEnv{
		app:      handlers.NewApp(cfg, deps),
		cfg:      cfg,
		products: products,
		charges:  charges,
		carts:    carts,
		provider: provider,
		mediaDir: mediaDir,
	}
}

// client is one browser: it keeps cookies and sends the CSRF header on writes.
type client struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]string
}

func (e *testEnv) client(t *testing.T) *client {
	return &client{t: t, app: e.app, cookies: map[string]string{}}
}

func isSafe(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func (c *client) do(method, path string, body io.Reader, contentType string, header ...string) *http.Response {
	c.t.Helper()
	if !isSafe(method) && c.cookies["csrf_"] == "" {
		c.do(http.MethodGet, "/healthz", nil, "")
		if c.cookies["csrf_"] == "" {
			c.t.Fatal("csrf cookie not issued")
		}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	if !isSafe(method) {
		req.Header.Set("X-CSRF-Token", c.cookies["csrf_"])
	}
	for k, v := range c.cookies {
		req.AddCookie(&http.Cookie{Name: k, Value: v})
	}
	resp, err := c.app.Test(req, -1)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	for _, ck := range resp.Cookies() {
		if ck.MaxAge < 0 || ck.Value == "" {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck.Value
	}
	return resp
}

func (c *client) get(path string) *http.Response {
	c.t.Helper()
	return c.do(http.MethodGet, path, nil, "")
}

func (c *client) sendJSON(method, path string, v any) *http.Response {
	c.t.Helper()
	var body io.Reader
	if v != nil {
		raw, err := json.Marshal(v)
		if err != nil {
			c.t.Fatal(err)
		}
		body = bytes.NewReader(raw)
	}
	return c.do(method, path, body, fiber.MIMEApplicationJSON)
}

// postForm sends a multipart form; a non-empty image name attaches a file part.
func (c *client) postForm(path string, fields map[string]string, imageName, imageType string, image []byte) *http.Response {
	c.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	if imageName != "" {
		h := make(map[string][]string)
		h["Content-Disposition"] = []string{`form-data; name="image"; filename="` + imageName + `"`}
		h["Content-Type"] = []string{imageType}
		part, err := w.CreatePart(h)
		if err != nil {
			c.t.Fatal(err)
		}
		_, _ = part.Write(image)
	}
	_ = w.Close()
	return c.do(http.MethodPost, path, &buf, w.FormDataContentType())
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode %q: %v", string(raw), err)
	}
	return out
}

func bodyString(resp *http.Response) string {
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	return string(raw)
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("expected %d, got %d body=%s", want, resp.StatusCode, bodyString(resp))
	}
}

// captureLogs swaps in an observer for the duration of the test.
func captureLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	t.Cleanup(applog.Use(zap.New(core)))
	return logs
}

func hasAction(logs *observer.ObservedLogs, action string) bool {
	return logs.FilterMessage(action).Len() > 0
}

func lineStatuses(t *testing.T, cart map[string]any) map[string]string {
	t.Helper()
	out := map[string]string{}
	items, _ := cart["items"].([]any)
	for _, it := range items {
		m, _ := it.(map[string]any)
		id, _ := m["id"].(string)
		status, _ := m["status"].(string)
		out[id] = status
	}
	return out
}
