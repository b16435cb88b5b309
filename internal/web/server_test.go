package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"

	"github.com/yusukeinoue-jpg/lime-tool/internal/auth"
	"github.com/yusukeinoue-jpg/lime-tool/internal/geo"
	"github.com/yusukeinoue-jpg/lime-tool/internal/mapview"
	"github.com/yusukeinoue-jpg/lime-tool/internal/models"
	"github.com/yusukeinoue-jpg/lime-tool/internal/retrieval"
)

const testSecret = "open-sesame"

var testPorts = []models.ReferencePort{
	{Seq: 0, Name: "Shibuya Port", Latitude: 35.658, Longitude: 139.7016},
	{Seq: 1, Name: "Tokyo Station Port", Latitude: 35.68, Longitude: 139.77},
}

const flaggedCSV = `id,plate number,operational state,last ride,latitude,longitude
v1,P1,needs_retrieval,2024-05-01 10:00:00,35.68,139.76
v2,P2,available,2024-05-01 10:00:00,35.66,139.70
`

const quietCSV = `id,plate number,operational state,last ride,latitude,longitude
v1,P1,available,2024-05-01 10:00:00,35.68,139.76
`

const noStateCSV = `id,plate number,last ride,latitude,longitude
v1,P1,2024-05-01 10:00:00,35.68,139.76
`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	key, err := auth.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	loader := func(ctx context.Context) ([]models.ReferencePort, error) { return testPorts, nil }
	sessions := auth.NewManager(auth.NewGate(testSecret), auth.NewMemoryStore(time.Hour), key, time.Hour, loader)

	clock := func() time.Time { return time.Date(2024, 5, 1, 15, 0, 0, 0, time.UTC) }
	srv, err := NewServer(Options{
		Sessions: sessions,
		Pipeline: retrieval.NewService("", time.UTC, retrieval.WithClock(clock)),
		Builder:  mapview.NewBuilder(mapview.Links{}, geo.Point{Lat: 35.681, Lon: 139.767}),
		Language: language.Japanese,
		PortCount: func(ctx context.Context) (int, error) {
			return len(testPorts), nil
		},
	})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return ts
}

// newClient keeps cookies and does not follow redirects
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New() error = %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return string(b)
}

func login(t *testing.T, ts *httptest.Server, client *http.Client, password string) *http.Response {
	t.Helper()
	resp, err := client.PostForm(ts.URL+"/login", url.Values{"password": {password}})
	if err != nil {
		t.Fatalf("POST /login error = %v", err)
	}
	return resp
}

func loggedInClient(t *testing.T, ts *httptest.Server) *http.Client {
	t.Helper()
	client := newClient(t)
	resp := login(t, ts, client, testSecret)
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("login status = %d, want 303", resp.StatusCode)
	}
	return client
}

func upload(t *testing.T, ts *httptest.Server, client *http.Client, path, csv string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "fleet.csv")
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	fw.Write([]byte(csv))
	mw.Close()

	resp, err := client.Post(ts.URL+path, mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("POST %s error = %v", path, err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	var body map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK || body["status"] != "ok" || body["ports"] != float64(2) {
		t.Errorf("GET /healthz = %d %v", resp.StatusCode, body)
	}
	if resp.Header.Get("X-Correlation-ID") == "" {
		t.Error("response has no correlation ID")
	}
}

func TestIndex_RequiresLogin(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/", "/qr?u=x"} {
		resp, err := newClient(t).Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s error = %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login" {
			t.Errorf("GET %s = %d -> %q, want redirect to /login", path, resp.StatusCode, resp.Header.Get("Location"))
		}
	}
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t)
	client := newClient(t)

	// Wrong entries can be repeated and never unlock the page
	for i := 0; i < 2; i++ {
		resp := login(t, ts, client, "guess")
		body := readBody(t, resp)
		if resp.StatusCode != http.StatusUnauthorized || !strings.Contains(body, "incorrect password") {
			t.Fatalf("wrong login = %d, body missing message", resp.StatusCode)
		}
		index, _ := client.Get(ts.URL + "/")
		index.Body.Close()
		if index.StatusCode != http.StatusSeeOther {
			t.Fatalf("GET / after wrong login = %d, want redirect", index.StatusCode)
		}
	}

	resp := login(t, ts, client, testSecret)
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/" {
		t.Fatalf("correct login = %d -> %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	index, err := client.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET / error = %v", err)
	}
	body := readBody(t, index)
	if index.StatusCode != http.StatusOK || !strings.Contains(body, `name="file"`) {
		t.Errorf("GET / = %d, want upload form", index.StatusCode)
	}
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t)
	client := loggedInClient(t, ts)

	resp, err := client.Post(ts.URL+"/logout", "", nil)
	if err != nil {
		t.Fatalf("POST /logout error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("POST /logout = %d, want 303", resp.StatusCode)
	}

	index, _ := client.Get(ts.URL + "/")
	index.Body.Close()
	if index.StatusCode != http.StatusSeeOther {
		t.Errorf("GET / after logout = %d, want redirect", index.StatusCode)
	}
}

func TestUpload(t *testing.T) {
	ts := newTestServer(t)
	client := loggedInClient(t, ts)

	tests := []struct {
		name    string
		path    string
		csv     string
		want    []string
		notWant []string
	}{
		{
			name: "one candidate",
			path: "/upload",
			csv:  flaggedCSV,
			want: []string{
				"🚨 1台 の回収対象が見つかりました",
				"P1 (5時間前)",
				"Tokyo Station Port",
				"https://admintool.lime.bike/vehicle/v1?region=MDH3CPXCIE5F3",
				`id="map"`,
			},
			notWant: []string{"P2 ("},
		},
		{
			name: "english",
			path: "/upload?lang=en",
			csv:  flaggedCSV,
			want: []string{"P1 (5h ago)", "Nearest: Tokyo Station Port (distance: 903m)"},
		},
		{
			name:    "nothing flagged",
			path:    "/upload",
			csv:     quietCSV,
			want:    []string{"✅ 回収対象はありません！"},
			notWant: []string{`id="map"`},
		},
		{
			name:    "schema error",
			path:    "/upload",
			csv:     noStateCSV,
			want:    []string{"operational state", `class="error"`},
			notWant: []string{`id="map"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := upload(t, ts, client, tt.path, tt.csv)
			body := readBody(t, resp)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want 200", resp.StatusCode)
			}
			for _, s := range tt.want {
				if !strings.Contains(body, s) {
					t.Errorf("body missing %q", s)
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(body, s) {
					t.Errorf("body unexpectedly contains %q", s)
				}
			}
		})
	}
}

func TestUpload_MissingFile(t *testing.T) {
	ts := newTestServer(t)
	client := loggedInClient(t, ts)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("other", "x")
	mw.Close()

	resp, err := client.Post(ts.URL+"/upload", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("POST /upload error = %v", err)
	}
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(body, "no file selected") {
		t.Errorf("POST /upload without file = %d", resp.StatusCode)
	}
}

func TestAPIRetrievals(t *testing.T) {
	ts := newTestServer(t)
	client := loggedInClient(t, ts)

	resp, err := client.Post(ts.URL+"/api/retrievals?lang=en", "text/csv", strings.NewReader(flaggedCSV))
	if err != nil {
		t.Fatalf("POST /api/retrievals error = %v", err)
	}
	var got apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK || got.Status != retrieval.StatusOK || got.Count != 1 {
		t.Fatalf("response = %d %+v", resp.StatusCode, got)
	}
	entry := got.Page.Entries[0]
	if entry.PortName != "Tokyo Station Port" || entry.DistanceMeters != 903 || entry.Hours != 5 {
		t.Errorf("entry = %+v", entry)
	}
	if got.Page.View.Zoom != 14 {
		t.Errorf("zoom = %d, want 14", got.Page.View.Zoom)
	}

	// Multipart works too
	mp := upload(t, ts, client, "/api/retrievals", quietCSV)
	var empty apiResponse
	json.NewDecoder(mp.Body).Decode(&empty)
	mp.Body.Close()
	if empty.Status != retrieval.StatusEmpty {
		t.Errorf("empty upload status = %q", empty.Status)
	}
}

func TestAPIRetrievals_Errors(t *testing.T) {
	ts := newTestServer(t)

	resp, err := newClient(t).Post(ts.URL+"/api/retrievals", "text/csv", strings.NewReader(flaggedCSV))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated API call = %d, want 401", resp.StatusCode)
	}

	client := loggedInClient(t, ts)
	resp, err = client.Post(ts.URL+"/api/retrievals", "text/csv", strings.NewReader(noStateCSV))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	var body ErrorResponse
	json.NewDecoder(resp.Body).Decode(&body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity || body.Kind != "schema" {
		t.Errorf("schema error = %d %+v", resp.StatusCode, body)
	}
}

func TestQR(t *testing.T) {
	ts := newTestServer(t)
	client := loggedInClient(t, ts)

	route := mapview.Links{}.RouteURL(geo.Point{Lat: 35.68, Lon: 139.76}, geo.Point{Lat: 35.68, Lon: 139.77})
	resp, err := client.Get(ts.URL + "/qr?u=" + url.QueryEscape(route))
	if err != nil {
		t.Fatalf("GET /qr error = %v", err)
	}
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("GET /qr = %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	if !strings.HasPrefix(body, "\x89PNG") {
		t.Error("body is not a PNG")
	}

	resp, err = client.Get(ts.URL + "/qr?u=" + url.QueryEscape("https://example.com/"))
	if err != nil {
		t.Fatalf("GET /qr error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("foreign URL = %d, want 400", resp.StatusCode)
	}
}

func TestRecovery(t *testing.T) {
	h := AddCorrelationID(Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.CorrelationID == "" {
		t.Errorf("body = %s, want JSON error with correlation ID", rec.Body.String())
	}
}

func TestAddCorrelationID_ReusesHeader(t *testing.T) {
	var seen string
	h := AddCorrelationID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CorrelationID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "abc")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "abc" {
		t.Errorf("CorrelationID = %q, want abc", seen)
	}
}
