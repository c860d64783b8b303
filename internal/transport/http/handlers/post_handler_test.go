package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dkovacic/quill/internal/domain"
	"github.com/dkovacic/quill/internal/service"
	"github.com/dkovacic/quill/internal/testutil"
	"github.com/dkovacic/quill/internal/transport/http/handlers"
	"github.com/dkovacic/quill/internal/transport/http/middleware"
)

const testJWTSecret = "test-secret"

func newTestServer(t *testing.T) (*httptest.Server, *testutil.Store) {
	t.Helper()

	store := testutil.NewStore()
	authService := service.NewAuthService(store.UserRepo(), testJWTSecret)
	postService := service.NewPostService(store.PostRepo(), service.RealClock{})
	userService := service.NewUserService(store.UserRepo(), store.PostRepo())

	authHandler := handlers.NewAuthHandler(authService)
	postHandler := handlers.NewPostHandler(postService)
	userHandler := handlers.NewUserHandler(userService)

	identify := middleware.Identify(testJWTSecret)
	authed := func(h http.HandlerFunc) http.Handler {
		return identify(middleware.RequireUser(h))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/v1/posts", postHandler.List)
	mux.HandleFunc("GET /api/v1/posts/{id}", postHandler.Get)
	mux.Handle("POST /api/v1/posts", authed(postHandler.Create))
	mux.Handle("PUT /api/v1/posts/{id}", authed(postHandler.Update))
	mux.Handle("DELETE /api/v1/posts/{id}", authed(postHandler.Delete))
	mux.HandleFunc("GET /api/v1/users", userHandler.List)
	mux.HandleFunc("GET /api/v1/users/{id}", userHandler.Get)
	mux.Handle("POST /api/v1/users/me/deactivate", authed(userHandler.Deactivate))
	mux.Handle("DELETE /api/v1/users/me", authed(userHandler.Delete))

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, store
}

func registerUser(t *testing.T, ts *httptest.Server, username string) string {
	t.Helper()
	resp := doJSON(t, ts, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"password": "Password1",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: status = %d, want 201", username, resp.StatusCode)
	}

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding register response: %v", err)
	}
	return body.AccessToken
}

func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, payload any) *http.Response {
	t.Helper()

	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshaling payload: %v", err)
		}
		body = bytes.NewBuffer(data)
	} else {
		body = &bytes.Buffer{}
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func decodePost(t *testing.T, resp *http.Response) domain.Post {
	t.Helper()
	defer resp.Body.Close()
	var post domain.Post
	if err := json.NewDecoder(resp.Body).Decode(&post); err != nil {
		t.Fatalf("decoding post: %v", err)
	}
	return post
}

func TestPostEndpoints_AnonymousAccess(t *testing.T) {
	ts, _ := newTestServer(t)

	t.Run("can list", func(t *testing.T) {
		resp := doJSON(t, ts, http.MethodGet, "/api/v1/posts", "", nil)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET /posts status = %d, want 200", resp.StatusCode)
		}
	})

	t.Run("cannot create", func(t *testing.T) {
		resp := doJSON(t, ts, http.MethodPost, "/api/v1/posts", "", map[string]string{
			"title": "Test Post", "content": "This is a test post.",
		})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("anonymous POST /posts status = %d, want 403", resp.StatusCode)
		}
	})

	t.Run("cannot update", func(t *testing.T) {
		token := registerUser(t, ts, "writer")
		created := decodePost(t, doJSON(t, ts, http.MethodPost, "/api/v1/posts", token, map[string]string{"title": "Hi"}))

		resp := doJSON(t, ts, http.MethodPut, "/api/v1/posts/"+created.ID.String(), "", map[string]string{"title": "Hijack"})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("anonymous PUT status = %d, want 403", resp.StatusCode)
		}
	})
}

func TestPostEndpoints_Create(t *testing.T) {
	t.Run("authenticated create", func(t *testing.T) {
		ts, _ := newTestServer(t)
		token := registerUser(t, ts, "alice")

		resp := doJSON(t, ts, http.MethodPost, "/api/v1/posts", token, map[string]any{
			"title": "Hi", "content": "body",
		})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status = %d, want 201", resp.StatusCode)
		}
		post := decodePost(t, resp)

		if post.AuthorUsername != "alice" {
			t.Errorf("author = %q, want %q", post.AuthorUsername, "alice")
		}
		if post.IsPublished {
			t.Error("is_published = true, want false")
		}
		if post.PublishedAt != nil {
			t.Errorf("published_at = %v, want null", post.PublishedAt)
		}
	})

	t.Run("over-length title is rejected before persisting", func(t *testing.T) {
		ts, _ := newTestServer(t)
		token := registerUser(t, ts, "alice")

		resp := doJSON(t, ts, http.MethodPost, "/api/v1/posts", token, map[string]string{
			"title": strings.Repeat("A", 201),
		})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}

		listResp := doJSON(t, ts, http.MethodGet, "/api/v1/posts", "", nil)
		defer listResp.Body.Close()
		var posts []domain.Post
		if err := json.NewDecoder(listResp.Body).Decode(&posts); err != nil {
			t.Fatalf("decoding posts: %v", err)
		}
		if len(posts) != 0 {
			t.Errorf("got %d persisted posts, want 0", len(posts))
		}
	})
}

func TestPostEndpoints_Get(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := doJSON(t, ts, http.MethodGet, "/api/v1/posts/3edc4be3-33e3-4d61-b8b1-6a296f63de67", "", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET missing post status = %d, want 404", resp.StatusCode)
	}
}

func TestPostEndpoints_Ownership(t *testing.T) {
	ts, _ := newTestServer(t)
	aliceToken := registerUser(t, ts, "alice")
	bobToken := registerUser(t, ts, "bob")

	created := decodePost(t, doJSON(t, ts, http.MethodPost, "/api/v1/posts", aliceToken, map[string]string{
		"title": "Hi", "content": "body",
	}))

	t.Run("other user cannot update", func(t *testing.T) {
		resp := doJSON(t, ts, http.MethodPut, "/api/v1/posts/"+created.ID.String(), bobToken, map[string]string{"title": "Hijack"})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("status = %d, want 403", resp.StatusCode)
		}
	})

	t.Run("other user cannot delete", func(t *testing.T) {
		resp := doJSON(t, ts, http.MethodDelete, "/api/v1/posts/"+created.ID.String(), bobToken, nil)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("status = %d, want 403", resp.StatusCode)
		}
	})

	t.Run("author can update", func(t *testing.T) {
		resp := doJSON(t, ts, http.MethodPut, "/api/v1/posts/"+created.ID.String(), aliceToken, map[string]string{
			"title": "Edited", "content": "body",
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		post := decodePost(t, resp)
		if post.Title != "Edited" {
			t.Errorf("title = %q, want %q", post.Title, "Edited")
		}
	})
}

func TestPostEndpoints_PublishFlow(t *testing.T) {
	ts, _ := newTestServer(t)
	token := registerUser(t, ts, "alice")

	created := decodePost(t, doJSON(t, ts, http.MethodPost, "/api/v1/posts", token, map[string]string{
		"title": "Hi", "content": "body",
	}))
	if created.PublishedAt != nil {
		t.Fatalf("published_at = %v on create, want null", created.PublishedAt)
	}

	publish := func() domain.Post {
		resp := doJSON(t, ts, http.MethodPut, "/api/v1/posts/"+created.ID.String(), token, map[string]any{
			"title": "Hi", "content": "body", "is_published": true,
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("publish status = %d, want 200", resp.StatusCode)
		}
		return decodePost(t, resp)
	}

	published := publish()
	if published.PublishedAt == nil {
		t.Fatal("published_at = null after publish, want stamped")
	}
	if published.PublishedAt.Before(created.CreatedAt) {
		t.Errorf("published_at %v is before created_at %v", published.PublishedAt, created.CreatedAt)
	}

	again := publish()
	if again.PublishedAt == nil || !again.PublishedAt.Equal(*published.PublishedAt) {
		t.Errorf("published_at changed on re-publish: %v, want %v", again.PublishedAt, published.PublishedAt)
	}
}

func TestUserEndpoints(t *testing.T) {
	t.Run("profile lists authored post ids", func(t *testing.T) {
		ts, _ := newTestServer(t)
		token := registerUser(t, ts, "alice")
		created := decodePost(t, doJSON(t, ts, http.MethodPost, "/api/v1/posts", token, map[string]string{"title": "Hi"}))

		resp := doJSON(t, ts, http.MethodGet, "/api/v1/users", "", nil)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET /users status = %d, want 200", resp.StatusCode)
		}

		var profiles []service.UserProfile
		if err := json.NewDecoder(resp.Body).Decode(&profiles); err != nil {
			t.Fatalf("decoding users: %v", err)
		}
		if len(profiles) != 1 {
			t.Fatalf("got %d users, want 1", len(profiles))
		}
		if profiles[0].Username != "alice" {
			t.Errorf("username = %q, want %q", profiles[0].Username, "alice")
		}
		if len(profiles[0].Posts) != 1 || profiles[0].Posts[0] != created.ID {
			t.Errorf("posts = %v, want [%s]", profiles[0].Posts, created.ID)
		}
	})

	t.Run("missing user is 404", func(t *testing.T) {
		ts, _ := newTestServer(t)
		resp := doJSON(t, ts, http.MethodGet, "/api/v1/users/3edc4be3-33e3-4d61-b8b1-6a296f63de67", "", nil)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
	})

	t.Run("deleting the account removes its posts", func(t *testing.T) {
		ts, _ := newTestServer(t)
		token := registerUser(t, ts, "alice")
		created := decodePost(t, doJSON(t, ts, http.MethodPost, "/api/v1/posts", token, map[string]string{"title": "Hi"}))

		delResp := doJSON(t, ts, http.MethodDelete, "/api/v1/users/me", token, nil)
		defer delResp.Body.Close()
		if delResp.StatusCode != http.StatusNoContent {
			t.Fatalf("DELETE /users/me status = %d, want 204", delResp.StatusCode)
		}

		getResp := doJSON(t, ts, http.MethodGet, fmt.Sprintf("/api/v1/posts/%s", created.ID), "", nil)
		defer getResp.Body.Close()
		if getResp.StatusCode != http.StatusNotFound {
			t.Errorf("post survived account deletion: status = %d, want 404", getResp.StatusCode)
		}
	})

	t.Run("deactivation blocks login", func(t *testing.T) {
		ts, _ := newTestServer(t)
		token := registerUser(t, ts, "alice")

		resp := doJSON(t, ts, http.MethodPost, "/api/v1/users/me/deactivate", token, nil)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("deactivate status = %d, want 204", resp.StatusCode)
		}

		loginResp := doJSON(t, ts, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"username": "alice", "password": "Password1",
		})
		defer loginResp.Body.Close()
		if loginResp.StatusCode != http.StatusUnauthorized {
			t.Errorf("login after deactivation status = %d, want 401", loginResp.StatusCode)
		}
	})
}

func TestAuthEndpoints(t *testing.T) {
	t.Run("duplicate username is a conflict", func(t *testing.T) {
		ts, _ := newTestServer(t)
		registerUser(t, ts, "alice")

		resp := doJSON(t, ts, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
			"username": "alice", "password": "Password1",
		})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("status = %d, want 409", resp.StatusCode)
		}
	})

	t.Run("empty username is a validation error", func(t *testing.T) {
		ts, _ := newTestServer(t)

		resp := doJSON(t, ts, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
			"username": "", "password": "Password1",
		})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("garbage token is unauthorized", func(t *testing.T) {
		ts, _ := newTestServer(t)

		resp := doJSON(t, ts, http.MethodPost, "/api/v1/posts", "not-a-token", map[string]string{"title": "Hi"})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", resp.StatusCode)
		}
	})
}
