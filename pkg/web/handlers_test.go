package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talentpivot/talentpivot/pkg/artifacts"
	"github.com/talentpivot/talentpivot/pkg/authz"
	"github.com/talentpivot/talentpivot/pkg/identity"
	"github.com/talentpivot/talentpivot/pkg/models"
	"github.com/talentpivot/talentpivot/pkg/persistence/file"
	"github.com/talentpivot/talentpivot/pkg/services"
	"github.com/talentpivot/talentpivot/pkg/web"
	"github.com/talentpivot/talentpivot/pkg/workflow"
	"golang.org/x/crypto/bcrypt"
)

const publicURL = "http://talentpivot.test/api/v1"

var pdf = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n")

type testServer struct {
	app    *fiber.App
	issuer *identity.TokenIssuer
}

func setupTestApp(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := file.NewPersistence(t.TempDir())

	signer, err := artifacts.NewURLSigner("artifact-secret", publicURL)
	require.NoError(t, err)

	store, err := artifacts.NewFileStore(t.TempDir(), signer)
	require.NoError(t, err)

	authorizer, err := authz.NewDefault()
	require.NoError(t, err)

	issuer, err := identity.NewTokenIssuer("token-secret", 0)
	require.NoError(t, err)

	validate := validator.New(validator.WithRequiredStructEnabled())
	engine := workflow.NewEngine(p, authorizer, store, logger)
	accounts := services.NewAccounts(p.UserRepository(), &identity.Hasher{Cost: bcrypt.MinCost}, issuer, validate, logger)

	handlers := web.NewAPIHandlers(engine, accounts, store, validate, web.NewMemoryLimiter(logger), logger, 0)

	app := fiber.New()
	app.Get("/health", handlers.HealthCheck)
	handlers.Mount(app.Group("/api/v1"), web.RequireIdentity(issuer))

	return &testServer{app: app, issuer: issuer}
}

func (s *testServer) token(t *testing.T, email string, role models.Role) string {
	t.Helper()

	token, _, err := s.issuer.Issue(identity.Identity{Email: email, Role: role})
	require.NoError(t, err)

	return token
}

func (s *testServer) do(t *testing.T, req *http.Request, token string) (*http.Response, []byte) {
	t.Helper()

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, body
}

func jsonRequest(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	return req
}

type upload struct {
	field string
	name  string
	data  []byte
}

func multipartRequest(t *testing.T, target string, fields map[string]string, files ...upload) *http.Request {
	t.Helper()

	var body bytes.Buffer

	writer := multipart.NewWriter(&body)

	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}

	for _, f := range files {
		part, err := writer.CreateFormFile(f.field, f.name)
		require.NoError(t, err)

		_, err = part.Write(f.data)
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return req
}

func campaignFields() map[string]string {
	return map[string]string{
		"campaignName": "Data Platform",
		"note":         "Q2 hiring",
		"startDate":    "2026-01-01",
		"endDate":      "2026-06-30",
		"l1s":          `["l1@example.com"]`,
		"l2":           `[{"email": "l2@example.com"}]`,
		"l3":           `["l3@example.com"]`,
		"hrs":          `[]`,
	}
}

func problemType(t *testing.T, body []byte) string {
	t.Helper()

	var problem map[string]any
	require.NoError(t, json.Unmarshal(body, &problem))

	problemType, _ := problem["type"].(string)

	return problemType
}

func (s *testServer) createCampaign(t *testing.T, hrToken string) models.Campaign {
	t.Helper()

	req := multipartRequest(t, "/api/v1/campaign", campaignFields(), upload{"jdFiles", "jd.pdf", pdf})
	resp, body := s.do(t, req, hrToken)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var campaign models.Campaign
	require.NoError(t, json.Unmarshal(body, &campaign))

	return campaign
}

func (s *testServer) addCandidate(t *testing.T, token, campaignID string) models.Candidate {
	t.Helper()

	req := multipartRequest(t, "/api/v1/campaign/"+campaignID+"/add-candidate", map[string]string{
		"full_name": "Alan Turing",
		"email_id":  "alan@example.com",
		"phone":     "0123456789",
	}, upload{"resume", "alan.pdf", pdf})

	resp, body := s.do(t, req, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var candidate models.Candidate
	require.NoError(t, json.Unmarshal(body, &candidate))

	return candidate
}

func TestAPI_RegisterAndLogin(t *testing.T) {
	t.Parallel()

	s := setupTestApp(t)

	register := services.RegisterRequest{
		FullName: "Hedy Lamarr",
		Email:    "hedy@example.com",
		Phone:    "5551234567",
		Password: "frequency-hop",
		Role:     "hr",
	}

	resp, body := s.do(t, jsonRequest(t, http.MethodPost, "/api/v1/register", register), "")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.NotContains(t, string(body), "frequency-hop")

	resp, _ = s.do(t, jsonRequest(t, http.MethodPost, "/api/v1/register", register), "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = s.do(t, jsonRequest(t, http.MethodPost, "/api/v1/login", services.LoginRequest{
		Email: "hedy@example.com", Password: "frequency-hop",
	}), "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var login services.LoginResponse
	require.NoError(t, json.Unmarshal(body, &login))
	assert.NotEmpty(t, login.Token)

	resp, body = s.do(t, jsonRequest(t, http.MethodPost, "/api/v1/password", services.ChangePasswordRequest{
		NewPassword: "spread-spectrum",
	}), login.Token)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode, string(body))

	resp, _ = s.do(t, jsonRequest(t, http.MethodPost, "/api/v1/login", services.LoginRequest{
		Email: "hedy@example.com", Password: "frequency-hop",
	}), "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_LoginRateLimit(t *testing.T) {
	t.Parallel()

	s := setupTestApp(t)

	for range web.LoginAttempts {
		resp, _ := s.do(t, jsonRequest(t, http.MethodPost, "/api/v1/login", services.LoginRequest{
			Email: "nobody@example.com", Password: "wrong-password",
		}), "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	resp, body := s.do(t, jsonRequest(t, http.MethodPost, "/api/v1/login", services.LoginRequest{
		Email: "nobody@example.com", Password: "wrong-password",
	}), "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "rate_limited", problemType(t, body))
}

func TestAPI_RequiresToken(t *testing.T) {
	t.Parallel()

	s := setupTestApp(t)

	resp, _ := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/campaign", nil), "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/campaign", nil), "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_CreateCampaign(t *testing.T) {
	t.Parallel()

	s := setupTestApp(t)
	hr := s.token(t, "hr@example.com", models.RoleHR)

	campaign := s.createCampaign(t, hr)
	assert.Equal(t, "Data Platform", campaign.Name)
	assert.Equal(t, models.CampaignStatusActive, campaign.Status)
	assert.Equal(t, []string{"l2@example.com"}, campaign.Reviewers[models.RoleL2])
	assert.Equal(t, []string{"hr@example.com"}, campaign.Reviewers[models.RoleHR])

	tests := []struct {
		name       string
		token      string
		mutate     func(map[string]string)
		files      []upload
		wantStatus int
		wantType   string
	}{
		{
			name:       "reviewer cannot create",
			token:      s.token(t, "l1@example.com", models.RoleL1),
			mutate:     func(map[string]string) {},
			files:      []upload{{"jdFiles", "jd.pdf", pdf}},
			wantStatus: http.StatusForbidden,
			wantType:   workflow.CodeForbidden,
		},
		{
			name:       "no L3",
			token:      hr,
			mutate:     func(f map[string]string) { delete(f, "l3") },
			files:      []upload{{"jdFiles", "jd.pdf", pdf}},
			wantStatus: http.StatusBadRequest,
			wantType:   workflow.CodeMissingReviewer,
		},
		{
			name:       "end before start",
			token:      hr,
			mutate:     func(f map[string]string) { f["endDate"] = "2025-12-01" },
			files:      []upload{{"jdFiles", "jd.pdf", pdf}},
			wantStatus: http.StatusBadRequest,
			wantType:   workflow.CodeInvalidDates,
		},
		{
			name:       "reviewers not JSON",
			token:      hr,
			mutate:     func(f map[string]string) { f["l2"] = "l2@example.com" },
			files:      []upload{{"jdFiles", "jd.pdf", pdf}},
			wantStatus: http.StatusBadRequest,
			wantType:   "validation_error",
		},
		{
			name:       "svg job description",
			token:      hr,
			mutate:     func(map[string]string) {},
			files:      []upload{{"jdFiles", "jd.svg", []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`)}},
			wantStatus: http.StatusBadRequest,
			wantType:   workflow.CodeInvalidDocument,
		},
		{
			name:       "missing job description",
			token:      hr,
			mutate:     func(map[string]string) {},
			wantStatus: http.StatusBadRequest,
			wantType:   workflow.CodeInvalidDocument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := campaignFields()
			tt.mutate(fields)

			resp, body := s.do(t, multipartRequest(t, "/api/v1/campaign", fields, tt.files...), tt.token)
			assert.Equal(t, tt.wantStatus, resp.StatusCode, string(body))
			assert.Equal(t, tt.wantType, problemType(t, body))
		})
	}
}

func TestAPI_CampaignQueries(t *testing.T) {
	t.Parallel()

	s := setupTestApp(t)
	hr := s.token(t, "hr@example.com", models.RoleHR)
	campaign := s.createCampaign(t, hr)

	resp, body := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/campaign", nil), s.token(t, "l3@example.com", models.RoleL3))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list web.CampaignListResponse
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.Campaigns, 1)
	assert.Equal(t, campaign.ID, list.Campaigns[0].ID)

	resp, body = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/campaign", nil), s.token(t, "other@example.com", models.RoleL3))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Empty(t, list.Campaigns)

	resp, body = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/campaign/"+campaign.ID+"/status", nil), hr)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"campaign_id":"`+campaign.ID+`","status":"Active"}`, string(body))

	resp, body = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/campaign/missing", nil), hr)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, workflow.CodeCampaignNotFound, problemType(t, body))

	resp, body = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/campaign/"+campaign.ID+"/jds", nil), hr)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), publicURL+"/artifacts/job-descriptions/")
}

func TestAPI_CampaignReadsRequireAssignment(t *testing.T) {
	t.Parallel()

	s := setupTestApp(t)
	hr := s.token(t, "hr@example.com", models.RoleHR)
	campaign := s.createCampaign(t, hr)
	candidate := s.addCandidate(t, hr, campaign.ID)
	stranger := s.token(t, "other@example.com", models.RoleL1)

	base := "/api/v1/campaign/" + campaign.ID
	tests := []struct {
		name   string
		target string
	}{
		{"campaign", base},
		{"status", base + "/status"},
		{"summary", base + "/summary"},
		{"job descriptions", base + "/jds"},
		{"candidates", base + "/candidates"},
		{"resume", base + "/candidate/" + candidate.ID + "/resume"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := s.do(t, httptest.NewRequest(http.MethodGet, tt.target, nil), stranger)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode, string(body))
			assert.Equal(t, workflow.CodeForbidden, problemType(t, body))

			resp, body = s.do(t, httptest.NewRequest(http.MethodGet, tt.target, nil), hr)
			assert.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		})
	}
}

func TestAPI_CandidateWorkflow(t *testing.T) {
	t.Parallel()

	s := setupTestApp(t)
	hr := s.token(t, "hr@example.com", models.RoleHR)
	l1 := s.token(t, "l1@example.com", models.RoleL1)
	l2 := s.token(t, "l2@example.com", models.RoleL2)

	campaign := s.createCampaign(t, hr)
	candidate := s.addCandidate(t, l1, campaign.ID)
	assert.Equal(t, models.AppStatusInProgress, candidate.AppStatus)

	badPhone := multipartRequest(t, "/api/v1/campaign/"+campaign.ID+"/add-candidate", map[string]string{
		"full_name": "Bad Phone",
		"email_id":  "bad@example.com",
		"phone":     "12345",
	}, upload{"resume", "bad.pdf", pdf})
	resp, body := s.do(t, badPhone, hr)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, workflow.CodeInvalidPhone, problemType(t, body))

	statusURL := "/api/v1/campaign/" + campaign.ID + "/candidate/" + candidate.ID + "/status"

	resp, _ = s.do(t, jsonRequest(t, http.MethodPost, statusURL, map[string]any{
		"updates": map[string]string{"l1_status": "Completed"},
	}), l2)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = s.do(t, jsonRequest(t, http.MethodPost, statusURL, map[string]any{
		"updates": map[string]string{"l1_status": "Completed", "l1_feedback": "strong fundamentals"},
	}), l1)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var updated models.Candidate
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, models.StageRecord{Status: models.StageStatusCompleted, Feedback: "strong fundamentals"}, updated.Stages.L1)

	resp, _ = s.do(t, jsonRequest(t, http.MethodPost, statusURL, map[string]any{
		"updates": map[string]string{"l9_status": "Completed"},
	}), hr)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/campaign/"+campaign.ID+"/complete", nil), hr)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = s.do(t, jsonRequest(t, http.MethodPost, statusURL, map[string]any{
		"stage": "hr", "status": "Completed",
	}), hr)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, workflow.CodeCampaignClosed, problemType(t, body))

	resp, _ = s.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/campaign/"+campaign.ID+"/reopen", nil), hr)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = s.do(t, jsonRequest(t, http.MethodPost, statusURL, map[string]any{
		"stage": "hr", "status": "Completed",
	}), hr)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, models.AppStatusCompleted, updated.AppStatus)

	resp, body = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/campaign/"+campaign.ID+"/candidates?status=completed&limit=5", nil), l2)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var page struct {
		Candidates []models.Candidate `json:"candidates"`
		TotalCount int64              `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(body, &page))
	assert.EqualValues(t, 1, page.TotalCount)

	resp, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/campaign/"+campaign.ID+"/candidates?limit=abc", nil), l2)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/campaign/"+campaign.ID+"/summary", nil), hr)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary workflow.Summary
	require.NoError(t, json.Unmarshal(body, &summary))
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Completed)
}

func TestAPI_AddCandidateResumeUploads(t *testing.T) {
	t.Parallel()

	s := setupTestApp(t)
	hr := s.token(t, "hr@example.com", models.RoleHR)
	campaign := s.createCampaign(t, hr)
	target := "/api/v1/campaign/" + campaign.ID + "/add-candidate"

	fields := func() map[string]string {
		return map[string]string{
			"full_name": "Grace Hopper",
			"email_id":  "grace@example.com",
			"phone":     "0123456789",
		}
	}

	tests := []struct {
		name     string
		files    []upload
		wantType string
	}{
		{
			name:     "html resume",
			files:    []upload{{"resume", "grace.html", []byte("<!DOCTYPE html><html><body><script>alert(1)</script></body></html>")}},
			wantType: workflow.CodeInvalidDocument,
		},
		{
			name:     "two resumes",
			files:    []upload{{"resume", "grace.pdf", pdf}, {"resume", "other.pdf", pdf}},
			wantType: "validation_error",
		},
		{
			name:     "no resume",
			wantType: workflow.CodeInvalidDocument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := s.do(t, multipartRequest(t, target, fields(), tt.files...), hr)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))
			assert.Equal(t, tt.wantType, problemType(t, body))
		})
	}

	resp, body := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/campaign/"+campaign.ID+"/candidates", nil), hr)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"total_count":0`)
}

func TestAPI_AssignRole(t *testing.T) {
	t.Parallel()

	s := setupTestApp(t)
	hr := s.token(t, "hr@example.com", models.RoleHR)
	campaign := s.createCampaign(t, hr)

	target := "/api/v1/campaign/" + campaign.ID + "/assign-role"

	resp, body := s.do(t, jsonRequest(t, http.MethodPost, target, web.AssignRoleRequest{Role: "l2", Email: "new@example.com"}), hr)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var updated models.Campaign
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Contains(t, updated.Reviewers[models.RoleL2], "new@example.com")

	resp, _ = s.do(t, jsonRequest(t, http.MethodPost, target, web.AssignRoleRequest{Role: "boss", Email: "new@example.com"}), hr)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(t, jsonRequest(t, http.MethodPost, target, web.AssignRoleRequest{Role: "l2"}), hr)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(t, jsonRequest(t, http.MethodPost, target, web.AssignRoleRequest{Role: "l2", Email: "x@example.com"}),
		s.token(t, "l3@example.com", models.RoleL3))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAPI_ResumeDownload(t *testing.T) {
	t.Parallel()

	s := setupTestApp(t)
	hr := s.token(t, "hr@example.com", models.RoleHR)
	campaign := s.createCampaign(t, hr)
	candidate := s.addCandidate(t, hr, campaign.ID)

	resp, body := s.do(t, httptest.NewRequest(http.MethodGet,
		"/api/v1/campaign/"+campaign.ID+"/candidate/"+candidate.ID+"/resume", nil), hr)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var link workflow.SignedLink
	require.NoError(t, json.Unmarshal(body, &link))
	assert.Equal(t, "alan.pdf", link.FileName)

	signed, err := url.Parse(link.URL)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link.URL, publicURL+"/artifacts/"))

	resp, body = s.do(t, httptest.NewRequest(http.MethodGet, signed.RequestURI(), nil), "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, pdf, body)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	resp, _ = s.do(t, httptest.NewRequest(http.MethodGet, signed.Path+"?token=forged", nil), "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.do(t, httptest.NewRequest(http.MethodGet,
		"/api/v1/campaign/"+campaign.ID+"/candidate/missing/resume", nil), hr)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_HealthCheck(t *testing.T) {
	t.Parallel()

	s := setupTestApp(t)

	resp, body := s.do(t, httptest.NewRequest(http.MethodGet, "/health", nil), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"healthy"`)
}
