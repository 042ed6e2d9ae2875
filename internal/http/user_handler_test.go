package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"duochat/internal/service"
)

func postJSON(t *testing.T, env *testEnv, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func TestUserHandler_RegisterLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	rec := postJSON(t, env, "/v1/users", map[string]string{
		"username":   "alice",
		"password":   "supersecret",
		"first_name": "Alice",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("supersecret")) {
		t.Fatalf("response leaks password material: %s", rec.Body.String())
	}

	rec = postJSON(t, env, "/v1/auth/token", map[string]string{
		"username": "alice",
		"password": "supersecret",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var loginResp struct {
		Tokens service.TokenPair `json:"tokens"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if loginResp.Tokens.AccessToken == "" || loginResp.Tokens.RefreshToken == "" {
		t.Fatalf("expected token pair, got %+v", loginResp.Tokens)
	}

	if _, err := env.jwtServ.ParseAccessToken(loginResp.Tokens.AccessToken); err != nil {
		t.Fatalf("issued access token does not validate: %v", err)
	}
}

func TestUserHandler_RegisterRejectsDuplicate(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "alice")

	rec := postJSON(t, env, "/v1/users", map[string]string{
		"username": "alice",
		"password": "othersecret",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUserHandler_LoginRejectsBadPassword(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "alice")

	rec := postJSON(t, env, "/v1/auth/token", map[string]string{
		"username": "alice",
		"password": "wrongpass",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestUserHandler_RefreshRotatesTokens(t *testing.T) {
	env := newTestEnv(t)
	alice := env.registerUser(t, "alice")

	pair, err := env.jwtServ.GeneratePair(alice)
	if err != nil {
		t.Fatalf("generate tokens: %v", err)
	}

	rec := postJSON(t, env, "/v1/auth/refresh", map[string]string{
		"refresh_token": pair.RefreshToken,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// El refresh anterior quedo revocado.
	rec = postJSON(t, env, "/v1/auth/refresh", map[string]string{
		"refresh_token": pair.RefreshToken,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 on reused refresh token, got %d", rec.Code)
	}
}

func TestUserHandler_ListUsersExcludesRequester(t *testing.T) {
	env := newTestEnv(t)
	alice := env.registerUser(t, "alice")
	env.registerUser(t, "bob")
	token := env.accessToken(t, alice)

	req := httptest.NewRequest(http.MethodGet, "/v1/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Users []struct {
			Username string `json:"username"`
		} `json:"users"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Users) != 1 || resp.Users[0].Username != "bob" {
		t.Fatalf("expected only bob, got %+v", resp.Users)
	}
}
