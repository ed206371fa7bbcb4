package rbac

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/meridian-hq/meridian/internal/shared"
)

func decodeRejection(t *testing.T, res *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(res.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
	return body
}

func guardedRequest(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	if userID != "" {
		req = req.WithContext(shared.ContextWithUserID(req.Context(), userID))
	}
	return req
}

func TestGuardForbiddenSkipsHandler(t *testing.T) {
	repo := newStubRepo()
	repo.roles["u1"] = []string{"backoffice"}
	// backoffice has no grants attached.
	mw := Middleware{Service: NewService(repo, nil, nil)}

	calls := 0
	handler := mw.RequireGrants("users:list")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, guardedRequest("u1"))

	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", res.Code)
	}
	body := decodeRejection(t, res)
	if body["error"] != "Forbidden" || body["message"] != "Access denied" {
		t.Fatalf("unexpected body: %v", body)
	}
	if calls != 0 {
		t.Fatalf("wrapped handler ran %d times, want 0", calls)
	}
}

func TestGuardGrantedDelegates(t *testing.T) {
	repo := newStubRepo()
	repo.roles["u1"] = []string{"backoffice"}
	repo.grants["backoffice"] = []string{"users:list"}
	mw := Middleware{Service: NewService(repo, nil, nil)}

	calls := 0
	handler := mw.RequireGrants("users:list")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTeapot)
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, guardedRequest("u1"))

	if calls != 1 {
		t.Fatalf("wrapped handler ran %d times, want 1", calls)
	}
	if res.Code != http.StatusTeapot {
		t.Fatalf("handler response not passed through, got %d", res.Code)
	}
}

func TestGuardUnauthenticated(t *testing.T) {
	mw := Middleware{Service: NewService(newStubRepo(), nil, nil)}

	handler := mw.RequireGrants("users:list")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, guardedRequest(""))

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
	body := decodeRejection(t, res)
	if body["error"] != "Unauthorized" || body["message"] != "Authentication required" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestGuardUngatedRoutePassesAnonymous(t *testing.T) {
	mw := Middleware{Service: NewService(newStubRepo(), nil, nil)}

	calls := 0
	handler := mw.Require(Requirement{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, guardedRequest(""))

	if calls != 1 {
		t.Fatalf("wrapped handler ran %d times, want 1", calls)
	}
}

func TestGuardStoreFailureIsServerError(t *testing.T) {
	repo := newStubRepo()
	repo.failWith = errors.New("store down")
	mw := Middleware{Service: NewService(repo, nil, nil)}

	calls := 0
	handler := mw.RequireGrants("users:list")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, guardedRequest("u1"))

	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
	body := decodeRejection(t, res)
	if body["error"] != "Internal Server Error" {
		t.Fatalf("unexpected body: %v", body)
	}
	if calls != 0 {
		t.Fatalf("wrapped handler ran %d times, want 0", calls)
	}
}

func TestGuardSessionIdentity(t *testing.T) {
	repo := newStubRepo()
	repo.roles["u1"] = []string{"backoffice"}
	repo.grants["backoffice"] = []string{"users:list"}
	mw := Middleware{Service: NewService(repo, nil, nil)}

	calls := 0
	handler := mw.RequireGrants("users:list")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	sess := &shared.Session{ID: "s1"}
	sess.SetUser("u1")
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if calls != 1 {
		t.Fatalf("wrapped handler ran %d times, want 1", calls)
	}
}
