package crm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.String() != defaultBaseURL+"/" {
		t.Fatalf("default base = %q, want %q", u.String(), defaultBaseURL+"/")
	}

	u, err = parseBaseURL("crm.example.com:8443/api/v2?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "https" || u.Path != "/api/v2/" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	if _, err := parseBaseURL("http://"); err == nil {
		t.Fatalf("parseBaseURL accepted a url without host")
	}
}

func TestClient_ListLeadsPostsFilter(t *testing.T) {
	t.Parallel()

	var (
		gotMethod string
		gotPath   string
		gotPage   string
		gotAuth   string
		gotReqID  string
		gotCT     string
		gotBody   map[string]any
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotPage = r.URL.Query().Get("page")
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-ID")
		gotCT = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"results":{"accounts":[
			{"id": 11, "name": "Acme", "status": "new", "score": 4.5},
			{"id": "12", "first_name": "Ada", "last_name": "Lovelace", "email": "ada@example.com"}
		]}}`)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(Options{BaseURL: server.URL + "/api/v1", Token: "secret"})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	leads, err := c.ListLeads(ctx, Filter{CanAllocate: true, UserID: 92, Company: 2})
	if err != nil {
		t.Fatalf("ListLeads returned error: %v", err)
	}

	if gotMethod != http.MethodPost || gotPath != "/api/v1/leads/user/accounts" || gotPage != "1" {
		t.Fatalf("request = %s %s?page=%s, want POST /api/v1/leads/user/accounts?page=1", gotMethod, gotPath, gotPage)
	}
	if gotAuth != "Token secret" {
		t.Fatalf("Authorization = %q, want %q", gotAuth, "Token secret")
	}
	if gotReqID == "" {
		t.Fatalf("X-Request-ID missing")
	}
	if gotCT != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", gotCT)
	}
	if gotBody["can_allocate"] != true || gotBody["user_id"] != float64(92) || gotBody["company"] != float64(2) {
		t.Fatalf("body = %#v, want can_allocate/user_id/company", gotBody)
	}

	if len(leads) != 2 {
		t.Fatalf("len(leads) = %d, want 2", len(leads))
	}
	if leads[0].ID() != 11 || leads[0].Name() != "Acme" || leads[0].Status() != "new" {
		t.Fatalf("first lead = %#v", leads[0].Fields)
	}
	if leads[0].Fields["score"] != 4.5 {
		t.Fatalf("score = %#v, want 4.5", leads[0].Fields["score"])
	}
	if leads[1].ID() != 12 || leads[1].Name() != "Ada Lovelace" || leads[1].Email() != "ada@example.com" {
		t.Fatalf("second lead = %#v", leads[1].Fields)
	}
}

func TestClient_ListLeadsEmptyAccounts(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"results":{}}`)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(Options{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	leads, err := c.ListLeads(context.Background(), Filter{Page: 3})
	if err != nil {
		t.Fatalf("ListLeads returned error: %v", err)
	}
	if leads == nil || len(leads) != 0 {
		t.Fatalf("leads = %#v, want empty non-nil slice", leads)
	}
}

func TestClient_LeadDetails(t *testing.T) {
	t.Parallel()

	var gotPath, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if r.Method != http.MethodGet {
			http.Error(w, "method", http.StatusMethodNotAllowed)
			return
		}
		_, _ = io.WriteString(w, `{"id": 7, "name": "Globex", "notes": [{"text": "call back"}]}`)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(Options{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	lead, err := c.LeadDetails(context.Background(), 7)
	if err != nil {
		t.Fatalf("LeadDetails returned error: %v", err)
	}
	if gotPath != "/leads/lead/view/7" {
		t.Fatalf("path = %q, want /leads/lead/view/7", gotPath)
	}
	if gotAuth != "" {
		t.Fatalf("Authorization = %q, want none without token", gotAuth)
	}
	if lead.ID() != 7 || lead.Name() != "Globex" {
		t.Fatalf("lead = %#v", lead.Fields)
	}
	if got := lead.String("notes"); got != `[{"text":"call back"}]` {
		t.Fatalf("notes = %q", got)
	}
}

func TestClient_LeadDetailsRequiresID(t *testing.T) {
	c, err := NewClient(Options{BaseURL: "127.0.0.1:1"})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := c.LeadDetails(context.Background(), 0); err == nil {
		t.Fatalf("LeadDetails returned nil error, want error")
	}
}

func TestClient_HTTPErrorAndDecodeError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/view/1"):
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{not-json"))
		case strings.HasSuffix(r.URL.Path, "/view/404"):
			http.Error(w, `{"detail":"Not found."}`, http.StatusNotFound)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(Options{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	_, err = c.LeadDetails(context.Background(), 1)
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("LeadDetails error = %v, want decode response error", err)
	}

	_, err = c.LeadDetails(context.Background(), 404)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("LeadDetails error = %v, want *StatusError", err)
	}
	if statusErr.HTTPStatus() != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", statusErr.HTTPStatus())
	}
	if !strings.Contains(string(statusErr.HTTPBody()), "Not found.") {
		t.Fatalf("body = %q, want it to carry the server detail", statusErr.HTTPBody())
	}
	if !strings.Contains(err.Error(), "returned status 404") {
		t.Fatalf("error = %q, want status 404 text", err.Error())
	}
}

func TestClient_TimeoutSurfacesAsError(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	c, err := NewClient(Options{BaseURL: server.URL, Timeout: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = c.LeadDetails(context.Background(), 5)
	if err == nil || !strings.Contains(err.Error(), "execute request") {
		t.Fatalf("LeadDetails error = %v, want execute request error", err)
	}
}

func TestNilClientGuards(t *testing.T) {
	var c *Client
	if _, err := c.ListLeads(context.Background(), Filter{}); err == nil {
		t.Fatalf("ListLeads on nil client returned nil error")
	}
	if _, err := c.LeadDetails(context.Background(), 1); err == nil {
		t.Fatalf("LeadDetails on nil client returned nil error")
	}
}
