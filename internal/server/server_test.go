package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	"github.com/khanghh/kcentral/internal/auth"
	"github.com/khanghh/kcentral/internal/logs"
	"github.com/khanghh/kcentral/internal/mail"
	"github.com/khanghh/kcentral/internal/store"
	"github.com/khanghh/kcentral/internal/testutil"
	"github.com/khanghh/kcentral/internal/users"
	"github.com/khanghh/kcentral/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testPassword = "Str0ng-Passw0rd!"

type recordingSender struct {
	mu       sync.Mutex
	messages []*mail.Message
}

func (s *recordingSender) Send(message *mail.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, message)
	return nil
}

func (s *recordingSender) sent() []*mail.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*mail.Message(nil), s.messages...)
}

type testEnv struct {
	t      *testing.T
	app    *fiber.App
	db     *gorm.DB
	users  *users.UserService
	tokens *auth.TokenService
	mails  *recordingSender
}

func newTestEnv(t *testing.T, opts ...func(*Config)) *testEnv {
	db := testutil.NewDB(t)
	userService := users.NewUserService(users.NewUserRepository(db), users.NewGroupRepository(db), users.NewPermissionRepository(db))
	tokenService := auth.NewTokenService("test-master-key", store.NewMemoryStorage(memory.New()), auth.TokenConfig{})
	mails := &recordingSender{}

	config := Config{BaseURL: "http://kcentral.test"}
	for _, opt := range opts {
		opt(&config)
	}
	app := New(config, Services{
		Users:       userService,
		Groups:      users.NewGroupService(users.NewGroupRepository(db), users.NewPermissionRepository(db)),
		Permissions: users.NewPermissionService(users.NewPermissionRepository(db)),
		Agents:      logs.NewAgentService(db, logs.NewAgentRepository(db)),
		Events:      logs.NewEventService(db, logs.NewEventRepository(db)),
		Tokens:      tokenService,
		MailSender:  mails,
	})
	return &testEnv{t: t, app: app, db: db, users: userService, tokens: tokenService, mails: mails}
}

func (e *testEnv) createUser(username string, superuser bool, perms ...string) *model.User {
	e.t.Helper()
	email := username + "@example.com"
	password := testPassword
	in := users.UserInput{
		Username:    &username,
		Email:       &email,
		Password:    &password,
		IsSuperuser: &superuser,
	}
	if len(perms) > 0 {
		in.PermissionIDs, in.SetPerms = testutil.PermissionIDs(e.t, e.db, perms...), true
	}
	user, err := e.users.CreateUser(e.t.Context(), in)
	require.NoError(e.t, err)
	return user
}

func (e *testEnv) accessToken(user *model.User) string {
	e.t.Helper()
	pair, err := e.tokens.IssueTokenPair(user)
	require.NoError(e.t, err)
	return pair.Access
}

// do sends a JSON request and returns the status and raw body.
func (e *testEnv) do(method string, path string, body any, token string) (int, []byte) {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		if raw, ok := body.(string); ok {
			reader = bytes.NewBufferString(raw)
		} else {
			data, err := json.Marshal(body)
			require.NoError(e.t, err)
			reader = bytes.NewReader(data)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var out T
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&out), string(data))
	return out
}

func detail(t *testing.T, data []byte) string {
	t.Helper()
	return decode[map[string]string](t, data)["detail"]
}

func TestLoginAndRefresh(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("alice", false)

	status, body := env.do(http.MethodPost, "/api/login/", map[string]any{"username": "alice", "password": testPassword}, "")
	require.Equal(t, http.StatusOK, status, string(body))
	pair := decode[map[string]string](t, body)
	assert.NotEmpty(t, pair["access"])
	assert.NotEmpty(t, pair["refresh"])

	status, body = env.do(http.MethodPost, "/api/login", map[string]any{"username": "alice@example.com", "password": testPassword}, "")
	assert.Equal(t, http.StatusOK, status, string(body))

	status, body = env.do(http.MethodPost, "/api/login/", map[string]any{"username": "alice", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "No active account found with the given credentials", detail(t, body))

	status, body = env.do(http.MethodPost, "/api/login/", map[string]any{}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	errs := decode[map[string][]string](t, body)
	assert.Equal(t, []string{"This field is required."}, errs["username"])
	assert.Equal(t, []string{"This field is required."}, errs["password"])

	status, body = env.do(http.MethodPost, "/api/refresh/", map[string]any{"refresh": pair["refresh"]}, "")
	require.Equal(t, http.StatusOK, status, string(body))
	assert.NotEmpty(t, decode[map[string]string](t, body)["access"])

	status, body = env.do(http.MethodPost, "/api/refresh/", map[string]any{"refresh": pair["access"]}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Token is invalid or expired", detail(t, body))

	var user model.User
	require.NoError(t, env.db.Where("username = ?", "alice").First(&user).Error)
	assert.NotNil(t, user.LastLogin)
}

func TestLoginInactiveUser(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser("bob", false)
	inactive := false
	_, err := env.users.UpdateUser(t.Context(), user, users.UserInput{IsActive: &inactive})
	require.NoError(t, err)

	status, body := env.do(http.MethodPost, "/api/login/", map[string]any{"username": "bob", "password": testPassword}, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "No active account found with the given credentials", detail(t, body))

	status, body = env.do(http.MethodGet, "/api/events/", nil, env.accessToken(user))
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "User is inactive", detail(t, body))
}

func TestAuthentication(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser("admin", true)

	status, body := env.do(http.MethodGet, "/api/events/", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Authentication credentials were not provided.", detail(t, body))

	status, body = env.do(http.MethodGet, "/api/events/", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Given token not valid for any token type", detail(t, body))

	pair, err := env.tokens.IssueTokenPair(admin)
	require.NoError(t, err)
	status, _ = env.do(http.MethodGet, "/api/events/", nil, pair.Refresh)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = env.do(http.MethodGet, "/api/events/?token="+pair.Access, nil, "")
	assert.Equal(t, http.StatusOK, status, string(body))

	require.NoError(t, env.users.DeleteUser(t.Context(), admin.ID))
	status, body = env.do(http.MethodGet, "/api/events/", nil, pair.Access)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "User not found", detail(t, body))
}

func TestPermissionChecks(t *testing.T) {
	env := newTestEnv(t)
	viewer := env.createUser("viewer", false, "view_event")
	token := env.accessToken(viewer)

	status, _ := env.do(http.MethodGet, "/api/events/", nil, token)
	assert.Equal(t, http.StatusOK, status)

	status, body := env.do(http.MethodPost, "/api/events/", map[string]any{"level": "INFO"}, token)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "You do not have permission to perform this action.", detail(t, body))

	status, _ = env.do(http.MethodGet, "/api/agents/", nil, token)
	assert.Equal(t, http.StatusForbidden, status)

	// permissions granted through a group count as well
	groupName := "agent-viewers"
	group, err := users.NewGroupService(users.NewGroupRepository(env.db), users.NewPermissionRepository(env.db)).
		CreateGroup(t.Context(), users.GroupInput{
			Name:          &groupName,
			PermissionIDs: testutil.PermissionIDs(t, env.db, "view_agent"),
			SetPerms:      true,
		})
	require.NoError(t, err)
	_, err = env.users.UpdateUser(t.Context(), viewer, users.UserInput{GroupIDs: []uint{group.ID}, SetGroups: true})
	require.NoError(t, err)

	status, _ = env.do(http.MethodGet, "/api/agents/", nil, token)
	assert.Equal(t, http.StatusOK, status)
}

func TestMethodNotAllowedBeforeAuthentication(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(http.MethodDelete, "/api/permissions/1/", nil, "")
	assert.Equal(t, http.StatusMethodNotAllowed, status)
	assert.Equal(t, `Method "DELETE" not allowed.`, detail(t, body))

	status, body = env.do(http.MethodPost, "/api/permissions/", map[string]any{}, "")
	assert.Equal(t, http.StatusMethodNotAllowed, status)
	assert.Equal(t, `Method "POST" not allowed.`, detail(t, body))

	status, body = env.do(http.MethodGet, "/api/recover/", nil, "")
	assert.Equal(t, http.StatusMethodNotAllowed, status)
	assert.Equal(t, `Method "GET" not allowed.`, detail(t, body))
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(http.MethodPost, "/api/recover/2/", map[string]any{}, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Not Found (404)", decode[map[string]string](t, body)["error"])
}

func TestMalformedJSON(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(http.MethodPost, "/api/login/", `{"username": "alice",`, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "JSON parse error", detail(t, body))
}

func TestPermissionList(t *testing.T) {
	env := newTestEnv(t)
	token := env.accessToken(env.createUser("admin", true))

	status, body := env.do(http.MethodGet, "/api/permissions/", nil, token)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]map[string]any](t, body), len(model.Resources)*len(model.Actions))

	status, body = env.do(http.MethodGet, "/api/permissions/?search=view+event", nil, token)
	require.Equal(t, http.StatusOK, status)
	perms := decode[[]map[string]any](t, body)
	require.Len(t, perms, 1)
	assert.Equal(t, "view_event", perms[0]["codename"])
	assert.Equal(t, "Can view event", perms[0]["name"])

	status, _ = env.do(http.MethodGet, "/api/permissions/9999/", nil, token)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestUserCRUD(t *testing.T) {
	env := newTestEnv(t)
	token := env.accessToken(env.createUser("admin", true))

	status, body := env.do(http.MethodPost, "/api/users/", map[string]any{
		"username":         "carol",
		"email":            "carol@example.com",
		"password":         testPassword,
		"first_name":       "Carol",
		"is_staff":         true,
		"user_permissions": testutil.PermissionIDs(t, env.db, "view_agent"),
	}, token)
	require.Equal(t, http.StatusCreated, status, string(body))
	created := decode[map[string]any](t, body)
	assert.NotContains(t, created, "password")
	assert.Equal(t, "carol", created["username"])
	assert.Equal(t, true, created["is_staff"])
	assert.Equal(t, true, created["is_active"])
	assert.Nil(t, created["last_login"])
	userPath := "/api/users/" + string(created["id"].(json.Number)) + "/"

	status, body = env.do(http.MethodPost, "/api/users/", map[string]any{
		"username": "carol",
		"email":    "not-an-email",
		"password": "123",
		"groups":   []int{42},
	}, token)
	assert.Equal(t, http.StatusBadRequest, status)
	errs := decode[map[string][]string](t, body)
	assert.Equal(t, []string{"A user with that username already exists."}, errs["username"])
	assert.Equal(t, []string{"Enter a valid email address."}, errs["email"])
	assert.Contains(t, errs["password"], "This password is entirely numeric.")
	assert.Equal(t, []string{`Invalid pk "42" - object does not exist.`}, errs["groups"])

	status, body = env.do(http.MethodGet, userPath, nil, token)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Carol", decode[map[string]any](t, body)["first_name"])

	status, body = env.do(http.MethodPatch, userPath, map[string]any{"last_name": "Jones"}, token)
	require.Equal(t, http.StatusOK, status, string(body))
	patched := decode[map[string]any](t, body)
	assert.Equal(t, "Jones", patched["last_name"])
	assert.Equal(t, "Carol", patched["first_name"])

	status, body = env.do(http.MethodPut, userPath, map[string]any{"username": "carol", "email": "carol@example.com"}, token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []string{"This field is required."}, decode[map[string][]string](t, body)["password"])

	status, body = env.do(http.MethodGet, "/api/users/?search=jones", nil, token)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]map[string]any](t, body), 1)

	status, body = env.do(http.MethodGet, "/api/users/?is_staff=true", nil, token)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]map[string]any](t, body), 1)

	status, body = env.do(http.MethodGet, "/api/users/?is_staff=maybe", nil, token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []string{"Enter a valid boolean."}, decode[map[string][]string](t, body)["is_staff"])

	status, _ = env.do(http.MethodDelete, userPath, nil, token)
	assert.Equal(t, http.StatusNoContent, status)

	status, body = env.do(http.MethodGet, userPath, nil, token)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Not found.", detail(t, body))

	status, _ = env.do(http.MethodGet, "/api/users/abc/", nil, token)
	assert.Equal(t, http.StatusNotFound, status)
}

func countUsers(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&model.User{}).Count(&count).Error)
	return count
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	require.Zero(t, countUsers(t, env.db))

	status, body := env.do(http.MethodPost, "/api/register/", map[string]any{
		"username":     "dave",
		"email":        "dave@example.com",
		"password":     testPassword,
		"is_superuser": true,
		"is_staff":     true,
	}, "")
	require.Equal(t, http.StatusCreated, status, string(body))
	user := decode[map[string]any](t, body)
	assert.NotContains(t, user, "password")
	assert.Equal(t, false, user["is_superuser"])
	assert.Equal(t, false, user["is_staff"])
	assert.Equal(t, true, user["is_active"])
	assert.EqualValues(t, 1, countUsers(t, env.db))

	status, body = env.do(http.MethodPost, "/api/register/", map[string]any{
		"username": "dave2",
		"email":    "dave@example.com",
		"password": "dave2pass",
	}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	errs := decode[map[string][]string](t, body)
	assert.Equal(t, []string{"user with this email already exists."}, errs["email"])
	assert.Contains(t, errs["password"], "The password is too similar to the username.")
	assert.EqualValues(t, 1, countUsers(t, env.db))
}

func TestRegisterMultibytePasswordTooLong(t *testing.T) {
	env := newTestEnv(t)

	// 44 characters, 84 bytes
	status, body := env.do(http.MethodPost, "/api/register/", map[string]any{
		"username": "frank",
		"email":    "frank@example.com",
		"password": strings.Repeat("é", 40) + "Xy1!",
	}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []string{"This password is too long. It must contain at most 72 bytes."},
		decode[map[string][]string](t, body)["password"])
	assert.Zero(t, countUsers(t, env.db))
}

func TestLastLoginIsReadOnly(t *testing.T) {
	env := newTestEnv(t)
	token := env.accessToken(env.createUser("admin", true))
	erin := env.createUser("erin", false)

	status, _ := env.do(http.MethodPost, "/api/login/", map[string]any{"username": "erin", "password": testPassword}, "")
	require.Equal(t, http.StatusOK, status)

	userPath := fmt.Sprintf("/api/users/%d/", erin.ID)
	status, body := env.do(http.MethodGet, userPath, nil, token)
	require.Equal(t, http.StatusOK, status)
	lastLogin := decode[map[string]any](t, body)["last_login"]
	require.NotNil(t, lastLogin)

	status, body = env.do(http.MethodPatch, userPath, map[string]any{"last_login": "2001-01-01T00:00:00Z"}, token)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, lastLogin, decode[map[string]any](t, body)["last_login"])

	status, body = env.do(http.MethodPut, userPath, map[string]any{
		"username":   "erin",
		"email":      "erin@example.com",
		"password":   testPassword,
		"last_login": nil,
	}, token)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, lastLogin, decode[map[string]any](t, body)["last_login"])
}

func TestAgentsAndEvents(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser("admin", true)
	token := env.accessToken(admin)

	status, body := env.do(http.MethodPost, "/api/agents/", map[string]any{"name": "web-1", "environment": "staging", "address": "999.1.1.1"}, token)
	assert.Equal(t, http.StatusBadRequest, status)
	errs := decode[map[string][]string](t, body)
	assert.Equal(t, []string{`"staging" is not a valid choice.`}, errs["environment"])
	assert.Equal(t, []string{"Enter a valid IPv4 or IPv6 address."}, errs["address"])

	status, body = env.do(http.MethodPost, "/api/agents/", map[string]any{"name": "web-1", "environment": "production", "address": "10.0.0.1", "user": admin.ID}, token)
	require.Equal(t, http.StatusCreated, status, string(body))
	prodAgent := decode[map[string]any](t, body)
	status, body = env.do(http.MethodPost, "/api/agents/", map[string]any{"name": "ci-runner", "environment": "testing"}, token)
	require.Equal(t, http.StatusCreated, status, string(body))
	testAgent := decode[map[string]any](t, body)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	newEvent := func(level string, description string, agent any, at time.Time) map[string]any {
		status, body := env.do(http.MethodPost, "/api/events/", map[string]any{
			"level":       level,
			"description": description,
			"details":     "details of " + description,
			"datetime":    at.Format(time.RFC3339),
			"agent":       agent,
			"user":        admin.ID,
		}, token)
		require.Equal(t, http.StatusCreated, status, string(body))
		return decode[map[string]any](t, body)
	}
	diskFull := newEvent("ERROR", "Disk full on /var", prodAgent["id"], base)
	newEvent("INFO", "Deploy finished", prodAgent["id"], base.Add(time.Hour))
	newEvent("WARNING", "Slow test suite", testAgent["id"], base.Add(2*time.Hour))

	assert.Equal(t, "web-1", diskFull["source"])
	assert.Equal(t, "admin", diskFull["collected_by"])
	assert.Equal(t, false, diskFull["archived"])

	list := func(query string) []map[string]any {
		status, body := env.do(http.MethodGet, "/api/events/"+query, nil, token)
		require.Equal(t, http.StatusOK, status, string(body))
		return decode[[]map[string]any](t, body)
	}
	descriptions := func(events []map[string]any) []any {
		out := make([]any, 0, len(events))
		for _, event := range events {
			out = append(out, event["description"])
		}
		return out
	}

	assert.Equal(t, []any{"Slow test suite", "Deploy finished", "Disk full on /var"}, descriptions(list("")))
	assert.Equal(t, []any{"Disk full on /var", "Deploy finished", "Slow test suite"}, descriptions(list("?ordering=datetime")))
	assert.Equal(t, []any{"Deploy finished", "Disk full on /var"}, descriptions(list("?environment=production")))
	assert.Equal(t, []any{"Disk full on /var"}, descriptions(list("?level=ERROR")))
	assert.Equal(t, []any{"Disk full on /var"}, descriptions(list("?search=DISK")))
	assert.Equal(t, []any{"Slow test suite"}, descriptions(list("?search=runner&search_by=source")))
	assert.Empty(t, list("?search=runner&search_by=description"))
	assert.Len(t, list("?archived=false"), 3)

	status, body = env.do(http.MethodGet, "/api/events/?environment=staging", nil, token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []string{"Select a valid choice. staging is not one of the available choices."},
		decode[map[string][]string](t, body)["environment"])

	status, body = env.do(http.MethodGet, "/api/events/?archived=perhaps", nil, token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []string{"Enter a valid boolean."}, decode[map[string][]string](t, body)["archived"])

	eventPath := "/api/events/" + string(diskFull["id"].(json.Number)) + "/"
	status, first := env.do(http.MethodGet, eventPath, nil, token)
	require.Equal(t, http.StatusOK, status)
	status, second := env.do(http.MethodGet, eventPath, nil, token)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, string(first), string(second))

	status, body = env.do(http.MethodPatch, eventPath, map[string]any{"archived": true, "agent": 424242}, token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []string{`Invalid pk "424242" - object does not exist.`}, decode[map[string][]string](t, body)["agent"])

	status, body = env.do(http.MethodPatch, eventPath, map[string]any{"archived": true}, token)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, true, decode[map[string]any](t, body)["archived"])
	assert.Len(t, list("?archived=true"), 1)

	// deleting the agent keeps its events without a source
	agentPath := "/api/agents/" + string(prodAgent["id"].(json.Number)) + "/"
	status, _ = env.do(http.MethodDelete, agentPath, nil, token)
	assert.Equal(t, http.StatusNoContent, status)
	status, body = env.do(http.MethodGet, eventPath, nil, token)
	require.Equal(t, http.StatusOK, status)
	event := decode[map[string]any](t, body)
	assert.Nil(t, event["agent"])
	assert.Nil(t, event["source"])

	status, _ = env.do(http.MethodDelete, eventPath, nil, token)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = env.do(http.MethodDelete, eventPath, nil, token)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestGroupCRUD(t *testing.T) {
	env := newTestEnv(t)
	token := env.accessToken(env.createUser("admin", true))

	status, body := env.do(http.MethodPost, "/api/groups/", map[string]any{
		"name":        "operators",
		"permissions": testutil.PermissionIDs(t, env.db, "view_event", "change_event"),
	}, token)
	require.Equal(t, http.StatusCreated, status, string(body))
	group := decode[map[string]any](t, body)
	assert.Len(t, group["permissions"], 2)
	groupPath := "/api/groups/" + string(group["id"].(json.Number)) + "/"

	status, body = env.do(http.MethodPost, "/api/groups/", map[string]any{"name": "operators"}, token)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []string{"group with this name already exists."}, decode[map[string][]string](t, body)["name"])

	status, body = env.do(http.MethodPut, groupPath, map[string]any{"name": "ops", "permissions": []int{}}, token)
	require.Equal(t, http.StatusOK, status, string(body))
	group = decode[map[string]any](t, body)
	assert.Equal(t, "ops", group["name"])
	assert.Empty(t, group["permissions"])

	status, _ = env.do(http.MethodDelete, groupPath, nil, token)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = env.do(http.MethodGet, groupPath, nil, token)
	assert.Equal(t, http.StatusNotFound, status)
}

var tokenPattern = regexp.MustCompile(`token=([A-Za-z0-9_\-.]+)`)

func TestRecoverAndReset(t *testing.T) {
	env := newTestEnv(t)
	env.createUser("erin", false)

	status, body := env.do(http.MethodPost, "/api/recover/", map[string]any{"email": "nobody@example.com"}, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "An email will be sent if the address is valid", detail(t, body))
	assert.Empty(t, env.mails.sent())

	status, body = env.do(http.MethodPost, "/api/recover/", map[string]any{"email": "erin@example.com", "link": "javascript:alert(1)"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []string{"Enter a valid URL."}, decode[map[string][]string](t, body)["link"])
	assert.Empty(t, env.mails.sent())

	status, body = env.do(http.MethodPost, "/api/recover/", map[string]any{"email": "not-an-email"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []string{"Enter a valid email address."}, decode[map[string][]string](t, body)["email"])

	status, _ = env.do(http.MethodPost, "/api/recover/", map[string]any{"email": "erin@example.com"}, "")
	assert.Equal(t, http.StatusOK, status)
	sent := env.mails.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"erin@example.com"}, sent[0].To)
	assert.Equal(t, mail.SubjectRecoverPassword, sent[0].Subject)
	assert.Contains(t, sent[0].Body, "http://kcentral.test/api/reset/?token=")
	assert.Contains(t, sent[0].Body, "1 hour")
	match := tokenPattern.FindStringSubmatch(sent[0].Body)
	require.Len(t, match, 2)
	resetPath := "/api/reset/?token=" + match[1]

	status, body = env.do(http.MethodPost, resetPath, map[string]any{"username": "mallory", "password": "N3w-Secret-Pass!"}, "")
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "You do not have permission to perform this action.", detail(t, body))

	status, body = env.do(http.MethodPost, resetPath, map[string]any{"username": "erin", "password": "12345678"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, decode[map[string][]string](t, body)["password"], "This password is entirely numeric.")

	status, body = env.do(http.MethodPost, resetPath, map[string]any{"username": "erin", "password": "N3w-Secret-Pass!"}, "")
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, "Password changed successfully", detail(t, body))

	status, _ = env.do(http.MethodPost, resetPath, map[string]any{"username": "erin", "password": "An0ther-Secret!"}, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.do(http.MethodPost, "/api/login/", map[string]any{"username": "erin", "password": "N3w-Secret-Pass!"}, "")
	assert.Equal(t, http.StatusOK, status)

	// a recovery token is not an access token
	status, _ = env.do(http.MethodPost, "/api/recover/", map[string]any{"email": "erin@example.com", "link": "http://app.test/reset?lang=en"}, "")
	require.Equal(t, http.StatusOK, status)
	sent = env.mails.sent()
	require.Len(t, sent, 2)
	assert.Contains(t, sent[1].Body, "http://app.test/reset?lang=en&token=")
	match = tokenPattern.FindStringSubmatch(sent[1].Body)
	require.Len(t, match, 2)
	status, _ = env.do(http.MethodGet, "/api/events/?token="+match[1], nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.RateLimitMax = 2
		c.RateLimitWindow = time.Minute
	})
	credentials := map[string]any{"username": "nobody", "password": "wrong"}

	for i := 0; i < 2; i++ {
		status, _ := env.do(http.MethodPost, "/api/login/", credentials, "")
		assert.Equal(t, http.StatusUnauthorized, status)
	}
	status, body := env.do(http.MethodPost, "/api/login/", credentials, "")
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "Request was throttled.", detail(t, body))
}
