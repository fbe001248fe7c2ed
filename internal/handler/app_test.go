package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/subnets-api/internal/config"
	"github.com/noah-isme/subnets-api/internal/handler"
	"github.com/noah-isme/subnets-api/internal/middleware"
	"github.com/noah-isme/subnets-api/internal/repository"
	"github.com/noah-isme/subnets-api/internal/router"
	"github.com/noah-isme/subnets-api/internal/service"
	"github.com/noah-isme/subnets-api/internal/store"
)

const apiPrefix = "/make-server-85349416"

type apiHarness struct {
	app *fiber.App
}

type apiResponse struct {
	status int
	raw    []byte
	body   map[string]interface{}
}

func (r apiResponse) data() map[string]interface{} {
	data, _ := r.body["data"].(map[string]interface{})
	return data
}

func (r apiResponse) meta() map[string]interface{} {
	meta, _ := r.body["meta"].(map[string]interface{})
	return meta
}

func newAPI(t *testing.T, opts ...func(*config.Config)) *apiHarness {
	t.Helper()

	cfg := config.Config{
		AppName:         "SubNets API",
		AppEnv:          "test",
		APIPrefix:       apiPrefix,
		StoreDriver:     config.StoreMemory,
		JWTSecret:       "handler-secret",
		JWTIssuer:       "subnets-test",
		JWTTTL:          time.Hour,
		CommentMaxDepth: 64,
		UploadMaxMB:     1,
		RateLimitMax:    1000,
		RateLimitWindow: time.Minute,
		SeedEnabled:     true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := zerolog.Nop()
	validate := validator.New(validator.WithRequiredStructEnabled())
	kv := store.NewMemoryStore()

	users := repository.NewUserRepository(kv)
	posts := repository.NewPostRepository(kv)
	comments := repository.NewCommentRepository(kv)
	identity := service.NewJWTIdentityProvider(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL, repository.NewTokenRepository(kv))

	notifications := service.NewNotificationService(repository.NewNotificationRepository(kv), nil, "", nil, logger)
	badges := service.NewBadgeService(posts)
	auth := service.NewAuthService(users, identity, validate, logger)

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger, RoutePrefix: cfg.APIPrefix})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:         handler.NewAuthHandler(auth, logger),
		PostHandler:         handler.NewPostHandler(service.NewPostService(posts, users, badges, notifications, validate, logger), logger),
		CommentHandler:      handler.NewCommentHandler(service.NewCommentService(comments, posts, users, notifications, cfg.CommentMaxDepth, validate, logger), logger),
		UserHandler:         handler.NewUserHandler(service.NewUserService(users, badges, validate, logger), logger),
		SearchHandler:       handler.NewSearchHandler(service.NewSearchService(posts, users), logger),
		NotificationHandler: handler.NewNotificationHandler(notifications, logger, time.Second),
		UploadHandler:       handler.NewUploadHandler(service.NewUploadService(nil, cfg.UploadMaxMB, logger), logger),
		SeedHandler:         handler.NewSeedHandler(service.NewSeedService(auth, users, posts, comments, cfg.SeedEnabled, cfg.SeedToken, logger), logger),
		AuthMiddleware:      middleware.Authenticate(identity),
		RateLimiter:         middleware.RateLimit("auth", cfg.RateLimitMax, cfg.RateLimitWindow),
	})

	return &apiHarness{app: app}
}

func (h *apiHarness) do(t *testing.T, method, path, token string, payload interface{}, headers ...string) apiResponse {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, apiPrefix+path, body)
	if payload != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := apiResponse{status: resp.StatusCode, raw: raw}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out.body), string(raw))
	}
	return out
}

// signUp registers a user and returns its id and access token.
func (h *apiHarness) signUp(t *testing.T, username string) (string, string) {
	t.Helper()

	email := username + "@subnets.test"
	resp := h.do(t, http.MethodPost, "/auth/signup", "", map[string]string{
		"email": email, "password": "password", "username": username,
	})
	require.Equal(t, http.StatusOK, resp.status, string(resp.raw))
	user := resp.data()["user"].(map[string]interface{})

	resp = h.do(t, http.MethodPost, "/auth/signin", "", map[string]string{"email": email, "password": "password"})
	require.Equal(t, http.StatusOK, resp.status, string(resp.raw))

	return user["id"].(string), resp.data()["accessToken"].(string)
}

func (h *apiHarness) createPost(t *testing.T, token, show, content string) string {
	t.Helper()

	resp := h.do(t, http.MethodPost, "/posts", token, map[string]interface{}{
		"show": show, "content": content, "tags": []map[string]string{{"text": "Theory", "color": "purple"}},
	})
	require.Equal(t, http.StatusCreated, resp.status, string(resp.raw))
	return resp.data()["id"].(string)
}

func compileContract(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()

	path, err := filepath.Abs(filepath.Join("testdata", "contracts", name))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	schema, err := compiler.Compile("file://" + filepath.ToSlash(path))
	require.NoError(t, err)
	return schema
}

func requireContract(t *testing.T, name string, resp apiResponse) {
	t.Helper()

	var payload interface{}
	require.NoError(t, json.Unmarshal(resp.raw, &payload))
	require.NoError(t, compileContract(t, name).Validate(payload), string(resp.raw))
}

func requireFailure(t *testing.T, resp apiResponse, status int, message string) {
	t.Helper()

	require.Equal(t, status, resp.status, string(resp.raw))
	require.Equal(t, message, resp.body["message"])
	requireContract(t, "envelope.schema.json", resp)
}
