package lrkservice

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func doJSON(t *testing.T, method, url, token string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

// There is no HTTP registration endpoint by design (see cmd/lrkserver's
// --register flag); tests register through the backend directly before
// exercising the HTTP surface, same as an operator bootstrapping the first
// account.
func TestAPIEndToEnd(t *testing.T) {
	svc := newTestService(t)
	api := API{Backend: svc, UnauthDelay: time.Millisecond}
	srv := httptest.NewServer(api.Routes())
	defer srv.Close()

	if _, err := svc.Register(context.Background(), "frank", "hunter2hunter2"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	loginResp := doJSON(t, http.MethodPost, srv.URL+PathPrefix+"/login", "", LoginRequest{Username: "frank", Password: "hunter2hunter2"})
	defer loginResp.Body.Close()
	if loginResp.StatusCode != http.StatusCreated {
		t.Fatalf("login: got status %d", loginResp.StatusCode)
	}
	var login LoginResponse
	if err := json.NewDecoder(loginResp.Body).Decode(&login); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if login.Token == "" {
		t.Fatal("expected a non-empty token")
	}

	buildResp := doJSON(t, http.MethodPost, srv.URL+PathPrefix+"/builds", login.Token, BuildRequest{Grammar: baseGrammarText})
	defer buildResp.Body.Close()
	if buildResp.StatusCode != http.StatusCreated {
		t.Fatalf("create build: got status %d", buildResp.StatusCode)
	}
	var build BuildResponse
	if err := json.NewDecoder(buildResp.Body).Decode(&build); err != nil {
		t.Fatalf("decode build response: %v", err)
	}
	if !build.Success {
		t.Fatalf("expected a successful build, got error %q", build.Error)
	}

	parseResp := doJSON(t, http.MethodPost, srv.URL+PathPrefix+"/builds/"+build.ID+"/parse", login.Token, ParseRequest{Text: "a a b a b a a b b b a b"})
	defer parseResp.Body.Close()
	if parseResp.StatusCode != http.StatusOK {
		t.Fatalf("parse: got status %d", parseResp.StatusCode)
	}
	var parse ParseResponse
	if err := json.NewDecoder(parseResp.Body).Decode(&parse); err != nil {
		t.Fatalf("decode parse response: %v", err)
	}
	want := []int{1, 1, 1, 1, 0, 1, 0, 0, 0, 1, 1, 0, 0}
	if len(parse.Derivation) != len(want) {
		t.Fatalf("derivation: got %v, want %v", parse.Derivation, want)
	}
}

func TestAPIRejectsMissingToken(t *testing.T) {
	svc := newTestService(t)
	api := API{Backend: svc, UnauthDelay: time.Millisecond}
	srv := httptest.NewServer(api.Routes())
	defer srv.Close()

	resp := doJSON(t, http.MethodGet, srv.URL+PathPrefix+"/builds", "", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("got status %d, want 401", resp.StatusCode)
	}
}

func TestAPILogoutInvalidatesPriorToken(t *testing.T) {
	svc := newTestService(t)
	api := API{Backend: svc, UnauthDelay: time.Millisecond}
	srv := httptest.NewServer(api.Routes())
	defer srv.Close()

	if _, err := svc.Register(context.Background(), "hank", "hunter2hunter2"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	loginResp := doJSON(t, http.MethodPost, srv.URL+PathPrefix+"/login", "", LoginRequest{Username: "hank", Password: "hunter2hunter2"})
	defer loginResp.Body.Close()
	var login LoginResponse
	if err := json.NewDecoder(loginResp.Body).Decode(&login); err != nil {
		t.Fatalf("decode login response: %v", err)
	}

	logoutResp := doJSON(t, http.MethodPost, srv.URL+PathPrefix+"/logout", login.Token, nil)
	defer logoutResp.Body.Close()
	if logoutResp.StatusCode != http.StatusOK {
		t.Fatalf("logout: got status %d", logoutResp.StatusCode)
	}

	resp := doJSON(t, http.MethodGet, srv.URL+PathPrefix+"/builds", login.Token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("got status %d, want 401 for a token issued before logout", resp.StatusCode)
	}
}

func TestAPIRejectsBadLogin(t *testing.T) {
	svc := newTestService(t)
	api := API{Backend: svc, UnauthDelay: time.Millisecond}
	srv := httptest.NewServer(api.Routes())
	defer srv.Close()

	if _, err := svc.Register(context.Background(), "grace", "hunter2hunter2"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	resp := doJSON(t, http.MethodPost, srv.URL+PathPrefix+"/login", "", LoginRequest{Username: "grace", Password: "wrong"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("got status %d, want 401", resp.StatusCode)
	}
}
