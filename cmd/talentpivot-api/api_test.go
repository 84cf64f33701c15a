package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talentpivot/talentpivot/pkg/artifacts"
	"github.com/talentpivot/talentpivot/pkg/authz"
	"github.com/talentpivot/talentpivot/pkg/identity"
	"github.com/talentpivot/talentpivot/pkg/persistence/file"
	"github.com/talentpivot/talentpivot/pkg/services"
	"github.com/talentpivot/talentpivot/pkg/web"
	"github.com/talentpivot/talentpivot/pkg/workflow"
	"golang.org/x/crypto/bcrypt"
)

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	persistence := file.NewPersistence(t.TempDir())

	signer, err := artifacts.NewURLSigner("secret", "http://localhost:9091/api/v1")
	require.NoError(t, err)

	store, err := artifacts.NewFileStore(t.TempDir(), signer)
	require.NoError(t, err)

	authorizer, err := authz.NewDefault()
	require.NoError(t, err)

	issuer, err := identity.NewTokenIssuer("secret", time.Hour)
	require.NoError(t, err)

	validate := validator.New(validator.WithRequiredStructEnabled())
	engine := workflow.NewEngine(persistence, authorizer, store, logger)
	accounts := services.NewAccounts(persistence.UserRepository(), &identity.Hasher{Cost: bcrypt.MinCost}, issuer, validate, logger)

	api := NewAPI(logger, engine, accounts, store, issuer, web.NewMemoryLimiter(logger), validate, Config{
		Port:         defaultPort,
		SignedURLTTL: artifacts.DefaultURLTTL,
	})

	return api.App()
}

func closeBody(t *testing.T, resp *http.Response) {
	t.Helper()

	if err := resp.Body.Close(); err != nil {
		t.Logf("Failed to close response body: %v", err)
	}
}

func TestAPI_RootEndpoint(t *testing.T) {
	app := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	defer closeBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "TalentPivot API", string(body))
}

func TestAPI_Probes(t *testing.T) {
	app := setupTestApp(t)

	for _, path := range []string{"/livez", "/readyz"} {
		t.Run(path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
			require.NoError(t, err)

			defer closeBody(t, resp)

			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})
	}
}

func TestAPI_Health(t *testing.T) {
	app := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)

	defer closeBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestAPI_CampaignsRequireToken(t *testing.T) {
	app := setupTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/campaign", nil))
	require.NoError(t, err)

	defer closeBody(t, resp)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_RegisterLoginAndList(t *testing.T) {
	app := setupTestApp(t)

	register := `{"full_name":"Hannah Reyes","email":"hr@example.com","phone":"5551234567","password":"supersecret","role":"HR"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/register", strings.NewReader(register))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	require.NoError(t, err)
	closeBody(t, resp)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/login",
		strings.NewReader(`{"email":"HR@example.com","password":"supersecret"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err = app.Test(req)
	require.NoError(t, err)

	var login services.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	closeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, login.Token)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/campaign", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+login.Token)

	resp, err = app.Test(req)
	require.NoError(t, err)

	defer closeBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var list web.CampaignListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Empty(t, list.Campaigns)
}
