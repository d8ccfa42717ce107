package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bla-nqo/fundiconnect-builder/internal/config"
	"github.com/Bla-nqo/fundiconnect-builder/internal/realtime"
	"github.com/Bla-nqo/fundiconnect-builder/internal/repository/memstore"
)

type harness struct {
	t   *testing.T
	app *fiber.App
	svc *Services
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := config.Config{
		AppEnv:         "test",
		JWTSecret:      "routes-test-secret",
		JWTExpiresMin:  60,
		CORSOrigins:    "http://localhost:3000",
		FeedRatePerSec: 5,
		FeedBurst:      20,
	}
	hub := realtime.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	svc := NewServices(memstore.New(), hub, cfg.JWTSecret, cfg.JWTExpiresMin)
	require.NoError(t, svc.Catalog.Seed(ctx))
	return &harness{t: t, app: NewApp(cfg, svc, hub), svc: svc}
}

type reply struct {
	Status int
	Body   map[string]interface{}
}

func (r reply) data() map[string]interface{} {
	d, _ := r.Body["data"].(map[string]interface{})
	return d
}

func (r reply) list() []interface{} {
	l, _ := r.Body["data"].([]interface{})
	return l
}

func (h *harness) do(method, path, token string, body interface{}) reply {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(h.t, err)
	defer resp.Body.Close()

	out := reply{Status: resp.StatusCode, Body: map[string]interface{}{}}
	_ = json.NewDecoder(resp.Body).Decode(&out.Body)
	return out
}

// register signs up and returns the token and user id.
func (h *harness) register(name, email string) (string, string) {
	h.t.Helper()
	r := h.do("POST", "/api/auth/register", "", fiber.Map{
		"full_name": name, "email": email, "password": "secret123",
	})
	require.Equal(h.t, fiber.StatusCreated, r.Status, r.Body)
	user := r.data()["user"].(map[string]interface{})
	return r.data()["token"].(string), user["id"].(string)
}

func (h *harness) admin() string {
	h.t.Helper()
	token, _ := h.register("Ops Desk", "ops@example.com")
	_, err := h.svc.Auth.GrantAdmins(context.Background(), []string{"ops@example.com"})
	require.NoError(h.t, err)
	// reissue so the token carries the new grant
	r := h.do("POST", "/api/auth/login", "", fiber.Map{"email": "ops@example.com", "password": "secret123"})
	require.Equal(h.t, fiber.StatusOK, r.Status)
	_ = token
	return r.data()["token"].(string)
}

func TestPublicRoutes(t *testing.T) {
	h := newHarness(t)

	r := h.do("GET", "/api/health", "", nil)
	assert.Equal(t, fiber.StatusOK, r.Status)
	assert.Equal(t, "ok", r.Body["db"])

	r = h.do("GET", "/api/categories", "", nil)
	assert.Equal(t, fiber.StatusOK, r.Status)
	assert.Len(t, r.list(), 6)

	r = h.do("GET", "/api/stats", "", nil)
	assert.Equal(t, fiber.StatusOK, r.Status)
	assert.EqualValues(t, 0, r.data()["approved_fundis"])
}

func TestAuthFlow(t *testing.T) {
	h := newHarness(t)

	r := h.do("POST", "/api/auth/register", "", fiber.Map{"full_name": "", "email": "nope", "password": "1"})
	assert.Equal(t, fiber.StatusUnprocessableEntity, r.Status)
	errs := r.Body["errors"].(map[string]interface{})
	assert.Contains(t, errs, "full_name")
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")

	token, uid := h.register("Grace Akinyi", "grace@example.com")

	r = h.do("POST", "/api/auth/register", "", fiber.Map{"full_name": "Again", "email": "grace@example.com", "password": "secret123"})
	assert.Equal(t, fiber.StatusConflict, r.Status)
	assert.Equal(t, "email_taken", r.Body["code"])

	r = h.do("POST", "/api/auth/login", "", fiber.Map{"email": "grace@example.com", "password": "wrong-pass"})
	assert.Equal(t, fiber.StatusUnauthorized, r.Status)
	assert.Equal(t, "invalid_credentials", r.Body["code"])

	r = h.do("GET", "/api/me", token, nil)
	require.Equal(t, fiber.StatusOK, r.Status)
	assert.Equal(t, uid, r.data()["id"])
	assert.Equal(t, "client", r.data()["acting_as"])

	r = h.do("GET", "/api/me/roles/fundi", token, nil)
	assert.Equal(t, false, r.data()["has_role"])
	r = h.do("GET", "/api/me/roles/wizard", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, r.Status)

	r = h.do("POST", "/api/me/role", token, fiber.Map{"role": "fundi"})
	assert.Equal(t, fiber.StatusForbidden, r.Status)
	assert.Equal(t, "role_not_granted", r.Body["code"])

	r = h.do("GET", "/api/me", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, r.Status)
	assert.Equal(t, "/auth", r.Body["redirect"])
}

func TestJobLifecycleOverHTTP(t *testing.T) {
	h := newHarness(t)
	adminToken := h.admin()
	clientToken, _ := h.register("Wanjiru Kamau", "wanjiru@example.com")
	fundiToken, fundiID := h.register("Otieno Fundi", "otieno@example.com")

	// fundi applies, role switches, admin approves
	r := h.do("POST", "/api/fundi/apply", fundiToken, fiber.Map{
		"mobile_number": "0712 345-678", "location": "Nairobi", "skills": []string{"Plumbing, Tiling"},
	})
	require.Equal(t, fiber.StatusCreated, r.Status, r.Body)
	assert.Equal(t, "fundi", r.data()["role"])
	fundiToken = r.data()["token"].(string)
	profile := r.data()["profile"].(map[string]interface{})
	assert.Equal(t, "0712345678", profile["mobile_number"])

	r = h.do("GET", "/api/jobs/opportunities", fundiToken, nil)
	assert.Equal(t, fiber.StatusForbidden, r.Status)
	assert.Equal(t, "not_approved", r.Body["code"])

	r = h.do("GET", "/api/admin/fundis/pending", adminToken, nil)
	require.Equal(t, fiber.StatusOK, r.Status)
	require.Len(t, r.list(), 1)
	profileID := r.list()[0].(map[string]interface{})["id"].(string)

	r = h.do("POST", "/api/admin/fundis/"+profileID+"/approve", adminToken, nil)
	require.Equal(t, fiber.StatusOK, r.Status)
	assert.Equal(t, "approved", r.data()["approval_status"])

	// client posts, fundi takes it
	r = h.do("POST", "/api/jobs", clientToken, fiber.Map{
		"title": "Fix kitchen sink", "budget": 45000, "skills": []string{"Plumbing"}, "start_date": "2026-01-03",
	})
	require.Equal(t, fiber.StatusCreated, r.Status, r.Body)
	jobID := r.data()["id"].(string)

	r = h.do("GET", "/api/jobs/opportunities", fundiToken, nil)
	require.Equal(t, fiber.StatusOK, r.Status)
	assert.Len(t, r.list(), 1)

	r = h.do("POST", "/api/jobs/"+jobID+"/apply", fundiToken, nil)
	require.Equal(t, fiber.StatusOK, r.Status)
	assert.Equal(t, fundiID, r.data()["fundi_id"])

	r = h.do("POST", "/api/jobs/"+jobID+"/apply", fundiToken, nil)
	assert.Equal(t, fiber.StatusConflict, r.Status)

	r = h.do("GET", "/api/jobs/opportunities", fundiToken, nil)
	assert.Empty(t, r.list())

	require.Equal(t, fiber.StatusOK, h.do("POST", "/api/jobs/"+jobID+"/start", fundiToken, nil).Status)

	// only the owner completes
	r = h.do("POST", "/api/jobs/"+jobID+"/complete", fundiToken, nil)
	assert.Equal(t, fiber.StatusForbidden, r.Status)
	r = h.do("POST", "/api/jobs/"+jobID+"/complete", clientToken, nil)
	require.Equal(t, fiber.StatusOK, r.Status)
	assert.Equal(t, "completed", r.data()["status"])

	r = h.do("GET", "/api/fundi/wallet", fundiToken, nil)
	require.Equal(t, fiber.StatusOK, r.Status)
	assert.EqualValues(t, 45000, r.data()["balance"])

	r = h.do("GET", "/api/jobs/"+jobID, clientToken, nil)
	require.Equal(t, fiber.StatusOK, r.Status)
	assert.EqualValues(t, 100, r.data()["progress"])

	// ratings
	r = h.do("POST", "/api/ratings", clientToken, fiber.Map{"job_id": jobID, "rating": 9})
	assert.Equal(t, fiber.StatusUnprocessableEntity, r.Status)
	assert.Contains(t, r.Body["errors"], "rating")

	r = h.do("POST", "/api/ratings", clientToken, fiber.Map{"job_id": jobID, "rating": 5, "review": "Quick and tidy"})
	require.Equal(t, fiber.StatusCreated, r.Status, r.Body)
	assert.Equal(t, "Thank you for your feedback!", r.Body["message"])

	r = h.do("POST", "/api/ratings", clientToken, fiber.Map{"job_id": jobID, "rating": 4})
	assert.Equal(t, fiber.StatusConflict, r.Status)
	assert.Equal(t, "already_rated", r.Body["code"])

	r = h.do("GET", "/api/fundis/"+fundiID+"/ratings", clientToken, nil)
	require.Equal(t, fiber.StatusOK, r.Status)
	assert.EqualValues(t, 5, r.data()["mean"])

	r = h.do("GET", "/api/fundi/stats", fundiToken, nil)
	require.Equal(t, fiber.StatusOK, r.Status)
	assert.EqualValues(t, 1, r.data()["completed_jobs"])
	assert.EqualValues(t, 45000, r.data()["earnings"])

	r = h.do("GET", "/api/stats", "", nil)
	assert.EqualValues(t, 1, r.data()["approved_fundis"])
	assert.EqualValues(t, 1, r.data()["completed_jobs"])
}

func TestMessagesOverHTTP(t *testing.T) {
	h := newHarness(t)
	aToken, aID := h.register("Amina", "amina@example.com")
	bToken, bID := h.register("Baraka", "baraka@example.com")

	msgID := "5b0f8f3e-3c1a-4c39-9a8e-1d2f6a7b8c9d"
	body := fiber.Map{"id": msgID, "recipient_id": bID, "content": "Habari, are you free tomorrow?"}
	r := h.do("POST", "/api/messages", aToken, body)
	require.Equal(t, fiber.StatusCreated, r.Status, r.Body)
	assert.Equal(t, msgID, r.data()["id"])

	// resend of the optimistic copy is idempotent
	r = h.do("POST", "/api/messages", aToken, body)
	require.Equal(t, fiber.StatusCreated, r.Status)

	r = h.do("POST", "/api/messages", bToken, fiber.Map{"recipient_id": aID, "content": "Yes, after 10."})
	require.Equal(t, fiber.StatusCreated, r.Status)

	r = h.do("GET", "/api/messages/"+aID, bToken, nil)
	require.Equal(t, fiber.StatusOK, r.Status)
	require.Len(t, r.list(), 2)
	assert.Equal(t, msgID, r.list()[0].(map[string]interface{})["id"])

	r = h.do("POST", "/api/messages", aToken, fiber.Map{"recipient_id": aID, "content": "me"})
	assert.Equal(t, fiber.StatusUnprocessableEntity, r.Status)
	assert.Equal(t, "self_message", r.Body["code"])

	r = h.do("GET", "/api/messages/not-a-uuid", aToken, nil)
	assert.Equal(t, fiber.StatusBadRequest, r.Status)
}

func TestRestrictionAndAppealOverHTTP(t *testing.T) {
	h := newHarness(t)
	adminToken := h.admin()
	userToken, userID := h.register("Kamau", "kamau@example.com")

	r := h.do("GET", "/api/admin/appeals", userToken, nil)
	assert.Equal(t, fiber.StatusForbidden, r.Status)
	assert.Equal(t, "Access Denied", r.Body["message"])
	assert.Equal(t, "/", r.Body["redirect"])

	r = h.do("POST", "/api/admin/restrictions", adminToken, fiber.Map{"user_id": userID, "reason": "Spam listings"})
	require.Equal(t, fiber.StatusCreated, r.Status, r.Body)
	restrictionID := r.data()["id"].(string)

	// restricted users only reach the appeal surface
	r = h.do("GET", "/api/jobs/mine", userToken, nil)
	assert.Equal(t, fiber.StatusForbidden, r.Status)
	assert.Equal(t, "restricted", r.Body["code"])

	r = h.do("GET", "/api/dashboard", userToken, nil)
	require.Equal(t, fiber.StatusOK, r.Status)
	assert.Equal(t, "appeal", r.data()["surface"])

	r = h.do("GET", "/api/me/restriction", userToken, nil)
	require.Equal(t, fiber.StatusOK, r.Status)
	assert.Equal(t, true, r.data()["can_appeal"])

	r = h.do("POST", "/api/me/restriction/appeals", userToken, fiber.Map{"message": "It was a mistake, please review."})
	require.Equal(t, fiber.StatusCreated, r.Status, r.Body)
	assert.Equal(t, "Appeal Submitted", r.Body["message"])
	appealID := r.data()["id"].(string)

	r = h.do("POST", "/api/me/restriction/appeals", userToken, fiber.Map{"message": "again"})
	assert.Equal(t, fiber.StatusConflict, r.Status)
	assert.Equal(t, "appeal_pending", r.Body["code"])

	r = h.do("GET", "/api/admin/appeals", adminToken, nil)
	require.Equal(t, fiber.StatusOK, r.Status)
	assert.Len(t, r.list(), 1)

	r = h.do("POST", fmt.Sprintf("/api/admin/appeals/%s/resolve", appealID), adminToken, fiber.Map{"approve": true, "response": "Lifted"})
	require.Equal(t, fiber.StatusOK, r.Status, r.Body)
	assert.Equal(t, "approved", r.data()["status"])

	r = h.do("POST", "/api/admin/restrictions/"+restrictionID+"/lift", adminToken, nil)
	assert.Equal(t, fiber.StatusConflict, r.Status)

	r = h.do("GET", "/api/jobs/mine", userToken, nil)
	assert.Equal(t, fiber.StatusOK, r.Status)

	r = h.do("GET", "/api/dashboard", userToken, nil)
	assert.Equal(t, "client", r.data()["surface"])
}

func TestAdminCategories(t *testing.T) {
	h := newHarness(t)
	adminToken := h.admin()

	r := h.do("POST", "/api/admin/categories", adminToken, fiber.Map{"name": "Welders"})
	require.Equal(t, fiber.StatusCreated, r.Status, r.Body)
	id := r.data()["id"].(string)

	r = h.do("POST", "/api/admin/categories", adminToken, fiber.Map{"name": "Welders"})
	assert.Equal(t, fiber.StatusConflict, r.Status)

	r = h.do("PUT", "/api/admin/categories/"+id, adminToken, fiber.Map{"name": "Welders & Fabricators"})
	require.Equal(t, fiber.StatusOK, r.Status)
	assert.Equal(t, "Welders & Fabricators", r.data()["name"])

	r = h.do("DELETE", "/api/admin/categories/"+id, adminToken, nil)
	assert.Equal(t, fiber.StatusOK, r.Status)

	r = h.do("GET", "/api/categories", "", nil)
	assert.Len(t, r.list(), 6)
}

func TestFeedRequiresUpgrade(t *testing.T) {
	h := newHarness(t)
	token, _ := h.register("Feed User", "feed@example.com")

	r := h.do("GET", "/ws/feed", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, r.Status)

	r = h.do("GET", "/ws/feed", token, nil)
	assert.Equal(t, fiber.StatusUpgradeRequired, r.Status)
}
