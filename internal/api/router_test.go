package api

import (
	"bytes"
	"context"
	"location-tracker-service/internal/adapters/repositories"
	"location-tracker-service/internal/coordinate"
	"location-tracker-service/internal/ports"
	"location-tracker-service/internal/realtime"
	"location-tracker-service/internal/services"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"
)

type okProber struct{}

func (okProber) Probe(_ context.Context, src coordinate.TileSource) ports.ProbeResult {
	return ports.ProbeResult{Source: src.Key, Name: src.Name, URL: src.TileURL(512, 512, 10), Success: src.Key != coordinate.Tianditu}
}

type testAPI struct {
	handler  http.Handler
	accounts *services.AccountService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	return newTestAPIWith(t, nil)
}

// newTestAPIWith lets a test adjust the router dependencies before wiring.
func newTestAPIWith(t *testing.T, adjust func(*Dependencies)) *testAPI {
	t.Helper()

	store := repositories.NewMemoryStore()
	accounts := services.NewAccountService(store, services.AccountOptions{
		JWTSecret:  "test",
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
	})

	static := t.TempDir()
	pages := map[string]string{
		"login.html":              "<h1>login</h1>",
		"index.html":              "<h1>tracker</h1>",
		"coordinate-converter.js": "const converter = {};",
	}
	for name, content := range pages {
		if err := os.WriteFile(filepath.Join(static, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	d := Dependencies{
		Accounts:  accounts,
		Locations: services.NewLocationService(store, store, nil, nil),
		Tiles:     services.NewTileService(okProber{}, 2, nil),
		Backend:   store.Backend(),
		StaticDir: static,
	}
	if adjust != nil {
		adjust(&d)
	}
	return &testAPI{handler: NewRouter(d), accounts: accounts}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	return a.doAuth(t, method, path, "", body)
}

// doAuth sends the request with a bearer token when token is non-empty.
func (a *testAPI) doAuth(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode %s %s response %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec, out
}

func TestHealth(t *testing.T) {
	a := newTestAPI(t)

	rec, body := a.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK || body["status"] != "ok" || body["backend"] != "memory" {
		t.Fatalf("GET /health = %d %v", rec.Code, body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing X-Request-ID header")
	}
}

func TestRegisterLoginFlow(t *testing.T) {
	a := newTestAPI(t)
	creds := map[string]string{"phone": "13800138000", "password": "secret"}

	rec, body := a.do(t, http.MethodPost, "/api/register", creds)
	if rec.Code != http.StatusOK || body["success"] != true || body["userId"] == nil {
		t.Fatalf("register = %d %v", rec.Code, body)
	}

	rec, body = a.do(t, http.MethodPost, "/api/register", creds)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register = %d %v, want 409", rec.Code, body)
	}

	rec, body = a.do(t, http.MethodPost, "/api/login", creds)
	if rec.Code != http.StatusOK || body["phone"] != "13800138000" {
		t.Fatalf("login = %d %v", rec.Code, body)
	}
	token, _ := body["token"].(string)
	if _, err := a.accounts.ParseToken(token); err != nil {
		t.Fatalf("login token invalid: %v", err)
	}

	rec, _ = a.do(t, http.MethodPost, "/api/login", map[string]string{"phone": "13800138000", "password": "nope"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password login = %d, want 401", rec.Code)
	}

	rec, _ = a.do(t, http.MethodPost, "/api/login", map[string]string{"phone": "13900139000", "password": "x"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown user login = %d, want 404", rec.Code)
	}
}

func TestRequestValidation(t *testing.T) {
	a := newTestAPI(t)

	cases := []struct {
		path    string
		body    any
		wantErr string
	}{
		{"/api/register", map[string]string{"phone": "13800138000"}, "password is required"},
		{"/api/register", map[string]string{"phone": "123", "password": "x"}, "invalid phone number"},
		{"/api/check-user", map[string]string{}, "phone is required"},
		{"/api/location", "{not json", "invalid json body"},
		{"/api/save-location", map[string]any{"userId": 1, "phone": "13800138000", "latitude": 39.9}, "longitude is required"},
		{"/api/convert", map[string]any{"longitude": 116.4, "latitude": 39.9, "mapSource": "amap", "direction": "sideways"}, "direction must be one of: to from"},
	}
	for _, tc := range cases {
		rec, body := a.do(t, http.MethodPost, tc.path, tc.body)
		if rec.Code != http.StatusBadRequest || body["error"] != tc.wantErr {
			t.Errorf("POST %s = %d %v, want 400 %q", tc.path, rec.Code, body, tc.wantErr)
		}
	}
}

func registerUser(t *testing.T, a *testAPI, phone string) float64 {
	t.Helper()

	rec, body := a.do(t, http.MethodPost, "/api/register", map[string]string{"phone": phone, "password": "secret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("register = %d %v", rec.Code, body)
	}
	return body["userId"].(float64)
}

func loginUser(t *testing.T, a *testAPI, phone string) string {
	t.Helper()

	rec, body := a.do(t, http.MethodPost, "/api/login", map[string]string{"phone": phone, "password": "secret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login = %d %v", rec.Code, body)
	}
	return body["token"].(string)
}

func TestSaveAndQueryLocation(t *testing.T) {
	a := newTestAPI(t)
	uid := registerUser(t, a, "13800138000")

	rec, body := a.do(t, http.MethodPost, "/api/location", map[string]string{"phone": "13800138000"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("location before save = %d %v, want 404", rec.Code, body)
	}

	rec, body = a.do(t, http.MethodPost, "/api/save-location", map[string]any{
		"userId": uid, "phone": "13800138000", "latitude": 39.9093, "longitude": 116.3974, "accuracy": 15,
	})
	if rec.Code != http.StatusOK || body["locationId"] == nil {
		t.Fatalf("save-location = %d %v", rec.Code, body)
	}

	rec, body = a.do(t, http.MethodPost, "/api/location", map[string]string{"phone": "13800138000", "mapSource": "baidu"})
	if rec.Code != http.StatusOK {
		t.Fatalf("location = %d %v", rec.Code, body)
	}
	loc := body["location"].(map[string]any)
	if loc["latitude"] != 39.9093 || loc["accuracy"] != 15.0 {
		t.Fatalf("location = %v", loc)
	}
	display := body["display"].(map[string]any)
	want := coordinate.ConvertForMapSource(116.3974, 39.9093, coordinate.Baidu)
	if display["system"] != "BD-09" || math.Abs(display["longitude"].(float64)-want.Lng) > 1e-12 {
		t.Fatalf("display = %v, want %v", display, want)
	}

	token := loginUser(t, a, "13800138000")

	rec, body = a.doAuth(t, http.MethodGet, "/api/debug/locations", token, nil)
	if rec.Code != http.StatusOK || body["count"] != 1.0 {
		t.Fatalf("debug locations = %d %v", rec.Code, body)
	}

	rec, body = a.doAuth(t, http.MethodGet, "/api/debug/users", token, nil)
	if rec.Code != http.StatusOK || body["count"] != 1.0 || strings.Contains(rec.Body.String(), "$2") {
		t.Fatalf("debug users = %d %s", rec.Code, rec.Body.String())
	}
}

func TestTrack(t *testing.T) {
	a := newTestAPI(t)
	uid := registerUser(t, a, "13800138000")

	for _, lat := range []float64{30.0, 30.01} {
		rec, body := a.do(t, http.MethodPost, "/api/save-location", map[string]any{
			"userId": uid, "phone": "13800138000", "latitude": lat, "longitude": 110.0,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("save-location = %d %v", rec.Code, body)
		}
	}

	rec, body := a.do(t, http.MethodGet, "/api/locations/13800138000/track?limit=10&mapSource=amap", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("track = %d %v", rec.Code, body)
	}
	if body["points"] != 2.0 || body["system"] != "GCJ-02" {
		t.Fatalf("track = %v", body)
	}
	track := body["track"].(map[string]any)
	if track["type"] != "FeatureCollection" || len(track["features"].([]any)) != 3 {
		t.Fatalf("track geojson = %v", track)
	}

	rec, _ = a.do(t, http.MethodGet, "/api/locations/13800138000/track?limit=abc", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("track with bad limit = %d, want 400", rec.Code)
	}
}

func TestConvertAndDistance(t *testing.T) {
	a := newTestAPI(t)

	rec, body := a.do(t, http.MethodPost, "/api/convert", map[string]any{
		"longitude": 116.3974, "latitude": 39.9093, "from": "WGS-84", "to": "GCJ-02",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("convert = %d %v", rec.Code, body)
	}
	want := coordinate.WGS84ToGCJ02(116.3974, 39.9093)
	if math.Abs(body["longitude"].(float64)-want.Lng) > 1e-12 || body["to"] != "GCJ-02" {
		t.Fatalf("convert = %v, want %v", body, want)
	}

	rec, body = a.do(t, http.MethodPost, "/api/convert", map[string]any{
		"longitude": 116.4100160125939, "latitude": 39.91704293004639, "mapSource": "baidu", "direction": "from",
	})
	if rec.Code != http.StatusOK || body["from"] != "BD-09" || body["to"] != "WGS-84" {
		t.Fatalf("convert from baidu = %d %v", rec.Code, body)
	}

	rec, _ = a.do(t, http.MethodPost, "/api/convert", map[string]any{"longitude": 1, "latitude": 1, "from": "utm", "to": "wgs84"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("convert with unknown system = %d, want 400", rec.Code)
	}

	rec, body = a.do(t, http.MethodPost, "/api/distance", map[string]any{
		"from": map[string]float64{"lng": 0, "lat": 0},
		"to":   map[string]float64{"lng": 0, "lat": 1},
	})
	if rec.Code != http.StatusOK || math.Abs(body["meters"].(float64)-111194.93) > 0.5 {
		t.Fatalf("distance = %d %v", rec.Code, body)
	}
}

func TestMapSources(t *testing.T) {
	a := newTestAPI(t)

	rec, body := a.do(t, http.MethodGet, "/api/map-sources", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("map-sources = %d", rec.Code)
	}
	srcs := body["sources"].([]any)
	if len(srcs) != 5 || srcs[1].(map[string]any)["system"] != "BD-09" {
		t.Fatalf("map-sources = %v", srcs)
	}

	rec, body = a.do(t, http.MethodGet, "/api/map-sources/probe", nil)
	if rec.Code != http.StatusOK || body["available"] != 4.0 {
		t.Fatalf("probe = %d %v", rec.Code, body)
	}
}

func TestStaticIndex(t *testing.T) {
	a := newTestAPI(t)

	cases := []struct {
		path string
		want string
	}{
		{"/", "<h1>login</h1>"},
		{"/login.html", "<h1>login</h1>"},
		{"/index.html", "<h1>tracker</h1>"},
		{"/coordinate-converter.js", "const converter"},
		{"/static/coordinate-converter.js", "const converter"},
	}
	for _, tc := range cases {
		rec, _ := a.do(t, http.MethodGet, tc.path, nil)
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), tc.want) {
			t.Errorf("GET %s = %d %q, want 200 containing %q", tc.path, rec.Code, rec.Body.String(), tc.want)
		}
	}

	rec, _ := a.do(t, http.MethodGet, "/missing.js", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("GET /missing.js = %d, want 404", rec.Code)
	}
}

func TestDebugEndpointsRequireToken(t *testing.T) {
	a := newTestAPI(t)
	registerUser(t, a, "13800138000")
	token := loginUser(t, a, "13800138000")

	for _, path := range []string{"/api/debug/users", "/api/debug/locations"} {
		rec, body := a.do(t, http.MethodGet, path, nil)
		if rec.Code != http.StatusUnauthorized || body["error"] != services.ErrMissingToken.Error() {
			t.Errorf("GET %s without token = %d %v, want 401", path, rec.Code, body)
		}

		rec, _ = a.doAuth(t, http.MethodGet, path, "not-a-jwt", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s with bad token = %d, want 401", path, rec.Code)
		}

		rec, _ = a.doAuth(t, http.MethodGet, path, token, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s with token = %d, want 200", path, rec.Code)
		}
	}
}

func TestSaveLocationChecksSessionUser(t *testing.T) {
	a := newTestAPI(t)
	alice := registerUser(t, a, "13800138000")
	bob := registerUser(t, a, "13900139000")
	token := loginUser(t, a, "13800138000")

	fix := func(uid float64, phone string) map[string]any {
		return map[string]any{"userId": uid, "phone": phone, "latitude": 39.9, "longitude": 116.4}
	}

	rec, body := a.doAuth(t, http.MethodPost, "/api/save-location", token, fix(bob, "13900139000"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("save for another user = %d %v, want 403", rec.Code, body)
	}

	rec, body = a.doAuth(t, http.MethodPost, "/api/save-location", token, fix(alice, "13800138000"))
	if rec.Code != http.StatusOK {
		t.Fatalf("save for own user = %d %v, want 200", rec.Code, body)
	}

	rec, _ = a.doAuth(t, http.MethodPost, "/api/save-location", "garbage", fix(alice, "13800138000"))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("save with bad token = %d, want 401", rec.Code)
	}

	rec, body = a.do(t, http.MethodPost, "/api/save-location", fix(bob, "13900139000"))
	if rec.Code != http.StatusOK {
		t.Fatalf("anonymous save = %d %v, want 200", rec.Code, body)
	}
}

func TestAuthRateLimit(t *testing.T) {
	a := newTestAPIWith(t, func(d *Dependencies) { d.AuthRateLimit = 3 })
	registerUser(t, a, "13800138000")
	creds := map[string]string{"phone": "13800138000", "password": "secret"}

	// Registration above used one slot of the shared per-IP window.
	for i := 0; i < 2; i++ {
		if rec, body := a.do(t, http.MethodPost, "/api/login", creds); rec.Code != http.StatusOK {
			t.Fatalf("login %d = %d %v", i, rec.Code, body)
		}
	}
	rec, _ := a.do(t, http.MethodPost, "/api/login", creds)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("login over limit = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}

	rec, _ = a.do(t, http.MethodPost, "/api/check-user", map[string]string{"phone": "13800138000"})
	if rec.Code != http.StatusOK {
		t.Fatalf("check-user after limit = %d, want 200", rec.Code)
	}
}

func TestWebSocketReceivesSavedLocation(t *testing.T) {
	hub := realtime.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	a := newTestAPIWith(t, func(d *Dependencies) {
		d.Hub = hub
		store := repositories.NewMemoryStore()
		d.Accounts = services.NewAccountService(store, services.AccountOptions{
			JWTSecret: "test", TokenTTL: time.Hour, BcryptCost: bcrypt.MinCost,
		})
		d.Locations = services.NewLocationService(store, store, nil, hub)
	})
	srv := httptest.NewServer(a.handler)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial /ws: %v", err)
	}
	defer conn.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("upgrade status = %d, want 101", resp.StatusCode)
	}
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("hub has %d clients, want 1", hub.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}

	uid := registerUser(t, a, "13800138000")
	rec, body := a.do(t, http.MethodPost, "/api/save-location", map[string]any{
		"userId": uid, "phone": "13800138000", "latitude": 39.9093, "longitude": 116.3974,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("save-location = %d %v", rec.Code, body)
	}

	var msg struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if msg.Type != realtime.MessageTypeLocationUpdated {
		t.Fatalf("event type = %v, want %v", msg.Type, realtime.MessageTypeLocationUpdated)
	}
	if msg.Data["phone"] != "13800138000" || msg.Data["locationId"] != body["locationId"] {
		t.Fatalf("event data = %v, want location %v", msg.Data, body["locationId"])
	}
}
