package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/dipsw/internal/config"
	"github.com/JonMunkholm/dipsw/internal/dipsw"
	"github.com/JonMunkholm/dipsw/internal/store"
	"github.com/a-h/templ"
)

// fakeStore records what the handlers asked for.
type fakeStore struct {
	pingErr     error
	replaceErr  error
	records     []dipsw.Record
	models      []string
	lastModel   string
	lastRecords []dipsw.Record
	lastQuery   store.SwitchQuery
}

func (f *fakeStore) ReplaceModel(_ context.Context, model string, records []dipsw.Record) (int64, error) {
	if f.replaceErr != nil {
		return 0, f.replaceErr
	}
	f.lastModel = model
	f.lastRecords = records
	return int64(len(records)), nil
}

func (f *fakeStore) ListSwitches(_ context.Context, q store.SwitchQuery) ([]dipsw.Record, error) {
	f.lastQuery = q
	return f.records, nil
}

func (f *fakeStore) ListModels(context.Context) ([]string, error) {
	return f.models, nil
}

func (f *fakeStore) Ping(context.Context) error {
	return f.pingErr
}

func testServer(st Store, mutate func(*config.ServerConfig, *config.SecurityConfig)) *Server {
	cfg := config.ServerConfig{MaxBodySize: 1 << 20, RequestTimeout: 5 * time.Second}
	sec := config.SecurityConfig{EnableCSP: true}
	if mutate != nil {
		mutate(&cfg, &sec)
	}
	assembler := dipsw.NewAssembler(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewServer(st, assembler, cfg, sec)
}

func do(t *testing.T, s *Server, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error body is not JSON: %v\n%s", err, rec.Body.String())
	}
	return resp.Code
}

func TestHealth(t *testing.T) {
	s := testServer(&fakeStore{}, nil)
	rec := do(t, s, http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("health = %d %q, want 200 OK", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}

	s = testServer(&fakeStore{pingErr: errors.New("dial tcp: connection refused")}, nil)
	rec = do(t, s, http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if code := errorCode(t, rec); code != "DB001" {
		t.Errorf("code = %s, want DB001", code)
	}
}

func TestImport(t *testing.T) {
	st := &fakeStore{}
	s := testServer(st, nil)

	body := `[
		{"model_name":"Konica Minolta C4080","switch_number":1,"bit_number":0,"function_name":"Tray","setting_0":"Off","setting_1":"On","default_val":"0"},
		{"model_name":"C4080","switch_number":1,"bit_number":1,"function_name":null,"setting_0":null,"setting_1":null,"default_val":null}
	]`
	rec := do(t, s, http.MethodPost, "/api/import-dipsw", body, map[string]string{"Content-Type": "application/json"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp ImportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.Model != "C4080" || resp.Inserted != 2 {
		t.Errorf("response = %+v", resp)
	}
	if st.lastModel != "C4080" || len(st.lastRecords) != 2 {
		t.Errorf("store got model %q with %d records", st.lastModel, len(st.lastRecords))
	}
	if st.lastRecords[1].FunctionName != nil {
		t.Error("null function_name should stay nil")
	}
}

func TestImport_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		status   int
		wantCode string
	}{
		{"empty array", `[]`, http.StatusBadRequest, "IMP001"},
		{"missing model", `[{"model_name":"  ","switch_number":1,"bit_number":0}]`, http.StatusBadRequest, "IMP002"},
		{"mixed models", `[{"model_name":"C4080","switch_number":1,"bit_number":0},{"model_name":"C7100","switch_number":1,"bit_number":1}]`, http.StatusBadRequest, "IMP003"},
		{"negative bit", `[{"model_name":"C4080","switch_number":1,"bit_number":-1}]`, http.StatusBadRequest, "IMP004"},
		{"not json", `model=C4080`, http.StatusBadRequest, "IMP006"},
		{"object not array", `{"model_name":"C4080"}`, http.StatusBadRequest, "IMP006"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &fakeStore{}
			rec := do(t, testServer(st, nil), http.MethodPost, "/api/import-dipsw", tt.body, nil)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if code := errorCode(t, rec); code != tt.wantCode {
				t.Errorf("code = %s, want %s", code, tt.wantCode)
			}
			if st.lastRecords != nil {
				t.Error("store should not be called")
			}
		})
	}
}

func TestImport_BodyTooLarge(t *testing.T) {
	s := testServer(&fakeStore{}, func(c *config.ServerConfig, _ *config.SecurityConfig) {
		c.MaxBodySize = 16
	})
	body := `[{"model_name":"C4080","switch_number":1,"bit_number":0}]`
	rec := do(t, s, http.MethodPost, "/api/import-dipsw", body, nil)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
	if code := errorCode(t, rec); code != "IMP005" {
		t.Errorf("code = %s, want IMP005", code)
	}
}

func TestImport_StoreError(t *testing.T) {
	s := testServer(&fakeStore{replaceErr: errors.New("commit: deadlock detected")}, nil)
	rec := do(t, s, http.MethodPost, "/api/import-dipsw", `[{"model_name":"C4080","switch_number":1,"bit_number":0}]`, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if code := errorCode(t, rec); code != "DB004" {
		t.Errorf("code = %s, want DB004", code)
	}
}

func TestImport_APIKey(t *testing.T) {
	s := testServer(&fakeStore{}, func(_ *config.ServerConfig, sec *config.SecurityConfig) {
		sec.RequireAPIKey = true
		sec.APIKeys = []string{"k1", "k2"}
	})
	body := `[{"model_name":"C4080","switch_number":1,"bit_number":0}]`

	if rec := do(t, s, http.MethodPost, "/api/import-dipsw", body, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("no key: status = %d, want 401", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/api/import-dipsw", body, map[string]string{"X-API-Key": "nope"}); rec.Code != http.StatusForbidden {
		t.Errorf("bad key: status = %d, want 403", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/api/import-dipsw", body, map[string]string{"X-API-Key": "k2"}); rec.Code != http.StatusOK {
		t.Errorf("good key: status = %d, want 200", rec.Code)
	}
	// Reads stay open
	if rec := do(t, s, http.MethodGet, "/api/models", "", nil); rec.Code != http.StatusOK {
		t.Errorf("models: status = %d, want 200", rec.Code)
	}
}

func TestListSwitches(t *testing.T) {
	st := &fakeStore{records: []dipsw.Record{{ModelName: "C4080", SwitchNumber: 2, BitNumber: 3}}}
	s := testServer(st, nil)

	rec := do(t, s, http.MethodGet, "/api/dipswitches?model=Konica%20Minolta%20C4070&switch=2&bit=3", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if st.lastQuery.Model != "C4080" {
		t.Errorf("query model = %q, want alias C4080", st.lastQuery.Model)
	}
	if st.lastQuery.Switch == nil || *st.lastQuery.Switch != 2 || st.lastQuery.Bit == nil || *st.lastQuery.Bit != 3 {
		t.Errorf("query = %+v", st.lastQuery)
	}

	var got []dipsw.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].BitNumber != 3 {
		t.Errorf("records = %+v", got)
	}
}

func TestListSwitches_BadQuery(t *testing.T) {
	tests := map[string]string{
		"missing model":  "/api/dipswitches",
		"switch not int": "/api/dipswitches?model=C4080&switch=x",
		"negative bit":   "/api/dipswitches?model=C4080&bit=-2",
	}
	for name, target := range tests {
		t.Run(name, func(t *testing.T) {
			rec := do(t, testServer(&fakeStore{}, nil), http.MethodGet, target, "", nil)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestListSwitches_EmptyIsArray(t *testing.T) {
	rec := do(t, testServer(&fakeStore{}, nil), http.MethodGet, "/api/dipswitches?model=C7100", "", nil)
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("body = %q, want []", rec.Body.String())
	}
}

func TestListModels(t *testing.T) {
	rec := do(t, testServer(&fakeStore{models: []string{"C4080", "C7100"}}, nil), http.MethodGet, "/api/models", "", nil)
	var got []string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []string{"C4080", "C7100"}) {
		t.Errorf("models = %v", got)
	}
}

func TestParse(t *testing.T) {
	dump := `[{"page":1,"tables":[[
		["1","4","Tray select","• 0: Off • 1: On","","","0"],
		["","5","Tray depth","• 0: Short • 1: Long","","","1"]
	]]}]`

	rec := do(t, testServer(&fakeStore{}, nil), http.MethodPost, "/api/parse?model=C4080", dump, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp ParseResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Model != "C4080" || len(resp.Records) != 2 || resp.Stats.Primary != 2 {
		t.Fatalf("response = %+v", resp)
	}
	if got := dipsw.Deref(resp.Records[1].Setting1); got != "Long" {
		t.Errorf("setting_1 = %q, want Long", got)
	}

	rec = do(t, testServer(&fakeStore{}, nil), http.MethodPost, "/api/parse", dump, nil)
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "IMP007" {
		t.Errorf("missing model: %d %s", rec.Code, rec.Body.String())
	}
}

func TestViewer(t *testing.T) {
	st := &fakeStore{records: []dipsw.Record{
		{ModelName: "C4080", SwitchNumber: 1, BitNumber: 0, FunctionName: dipsw.Text("Function")},
		{ModelName: "C4080", SwitchNumber: 1, BitNumber: 1, FunctionName: dipsw.Text("Tray <A>"), Setting0: dipsw.Text("Off"), Setting1: dipsw.Text("On"), DefaultVal: dipsw.Text("0")},
		{ModelName: "C4080", SwitchNumber: 3, BitNumber: 0, FunctionName: dipsw.Text("Air blow"), Setting1: dipsw.Text("Display")},
	}}
	s := testServer(st, nil)

	rec := do(t, s, http.MethodGet, "/dipswitches?model=C4080", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(rec.Header().Get("Content-Type"), "text/html") {
		t.Errorf("content type = %q", rec.Header().Get("Content-Type"))
	}
	for _, want := range []string{"<h2>SW 1</h2>", "<h2>SW 3</h2>", "Tray &lt;A&gt;", "Air blow"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if strings.Contains(body, "<td>Function</td>") {
		t.Error("placeholder row should be hidden while browsing")
	}

	rec = do(t, s, http.MethodGet, "/dipswitches?model=C4080&q=display", "", nil)
	body = rec.Body.String()
	if !strings.Contains(body, "Air blow") || strings.Contains(body, "Tray &lt;A&gt;") {
		t.Errorf("search did not filter: %s", body)
	}
}

func TestIndex(t *testing.T) {
	rec := do(t, testServer(&fakeStore{models: []string{"C7100"}}, nil), http.MethodGet, "/", "", nil)
	if !strings.Contains(rec.Body.String(), `href="/dipswitches?model=C7100"`) {
		t.Errorf("index missing model link: %s", rec.Body.String())
	}
}

func TestGroupBySwitch(t *testing.T) {
	groups := groupBySwitch([]dipsw.Record{
		{SwitchNumber: 1, BitNumber: 0},
		{SwitchNumber: 1, BitNumber: 1},
		{SwitchNumber: 4, BitNumber: 0},
	})
	if len(groups) != 2 || len(groups[0].Records) != 2 || groups[1].Switch != 4 {
		t.Errorf("groups = %+v", groups)
	}
}

func TestExport(t *testing.T) {
	st := &fakeStore{records: []dipsw.Record{
		{ModelName: "C6100", SwitchNumber: 1, BitNumber: 0, FunctionName: dipsw.Text("Tray"), DefaultVal: dipsw.Text("0")},
	}}
	s := testServer(st, nil)

	tests := []struct {
		name        string
		target      string
		contentType string
		wantBody    string
	}{
		{name: "csv by default", target: "/api/models/C6085/export", contentType: "text/csv", wantBody: "C6100,1,0,Tray,,,0"},
		{name: "json", target: "/api/models/C6100/export?format=json", contentType: "application/json", wantBody: `"function_name":"Tray"`},
		{name: "sql", target: "/api/models/C6100/export?format=sql", contentType: "text/plain; charset=utf-8", wantBody: "INSERT INTO dip_switches"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, tt.target, "", nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			if got := rec.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", got, tt.contentType)
			}
			if !strings.Contains(rec.Header().Get("Content-Disposition"), `filename="C6100_`) {
				t.Errorf("Content-Disposition = %q", rec.Header().Get("Content-Disposition"))
			}
			if !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body missing %q:\n%s", tt.wantBody, rec.Body.String())
			}
			if st.lastQuery.Model != "C6100" {
				t.Errorf("queried model %q, want alias target C6100", st.lastQuery.Model)
			}
		})
	}
}

func TestExport_Errors(t *testing.T) {
	tests := []struct {
		name     string
		st       *fakeStore
		target   string
		status   int
		wantCode string
	}{
		{name: "bad format", st: &fakeStore{}, target: "/api/models/C4080/export?format=xml", status: http.StatusBadRequest, wantCode: "EXP001"},
		{name: "nothing stored", st: &fakeStore{}, target: "/api/models/C4080/export", status: http.StatusNotFound, wantCode: "EXP002"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, testServer(tt.st, nil), http.MethodGet, tt.target, "", map[string]string{"Accept": "application/json"})
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if code := errorCode(t, rec); code != tt.wantCode {
				t.Errorf("code = %s, want %s", code, tt.wantCode)
			}
		})
	}
}

func TestRender_FailureWritesNoPartialPage(t *testing.T) {
	failing := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		io.WriteString(w, "<html><body>half")
		return errors.New("component failed")
	})

	req := httptest.NewRequest(http.MethodGet, "/dipswitches", nil)
	rec := httptest.NewRecorder()
	render(rec, req, failing)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "half") {
		t.Errorf("partial page leaked into response: %q", rec.Body.String())
	}
}

func TestViewerPage_Escapes(t *testing.T) {
	groups := []switchGroup{{Switch: 2, Records: []dipsw.Record{
		{SwitchNumber: 2, BitNumber: 1, FunctionName: dipsw.Text(`<script>x</script>`), DefaultVal: dipsw.Text("1")},
	}}}

	var b strings.Builder
	if err := viewerPage(`a"b`, "", groups).Render(context.Background(), &b); err != nil {
		t.Fatal(err)
	}
	body := b.String()
	for _, want := range []string{
		"<h2>SW 2</h2>",
		"&lt;script&gt;x&lt;/script&gt;",
		`value="a&#34;b"`,
		`href="/api/models/a%22b/export"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q:\n%s", want, body)
		}
	}
}
