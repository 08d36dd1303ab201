package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/party-planner-api/internal/constants"
	"github.com/yukikurage/party-planner-api/internal/dto"
	apierrors "github.com/yukikurage/party-planner-api/internal/errors"
	"github.com/yukikurage/party-planner-api/internal/logging"
	"github.com/yukikurage/party-planner-api/internal/middleware"
	"github.com/yukikurage/party-planner-api/internal/repository"
	"github.com/yukikurage/party-planner-api/internal/services"
	"github.com/yukikurage/party-planner-api/internal/testutil"
	"gorm.io/gorm"
)

type authTestEnv struct {
	db          *gorm.DB
	handler     *AuthHandler
	authService *services.AuthService
	dispatcher  *testutil.RecordingDispatcher
}

func setupAuthTestEnv(t *testing.T) authTestEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	repos := repository.New(db)
	dispatcher := testutil.NewRecordingDispatcher()
	notifications := services.NewNotificationService(repos.Notifications, dispatcher, logging.Nop())
	authService := services.NewAuthService(repos, notifications, nil, services.DefaultSettings(), logging.Nop())
	handler := NewAuthHandler(authService)

	return authTestEnv{
		db:          db,
		handler:     handler,
		authService: authService,
		dispatcher:  dispatcher,
	}
}

func newSessionRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	store := cookie.NewStore([]byte("secret"))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))
	return r
}

func postJSON(r http.Handler, url string, payload interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_Signup(t *testing.T) {
	env := setupAuthTestEnv(t)

	r := newSessionRouter()
	r.POST("/api/auth/signup", env.handler.Signup)

	payload := map[string]string{
		"first_name": "Olivia",
		"email":      "Olivia@Example.com",
		"password":   "supersecret",
	}
	w := postJSON(r, "/api/auth/signup", payload)
	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.PersonDetailDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "Olivia", response.FirstName)
	require.NotNil(t, response.Email)
	require.Equal(t, "olivia@example.com", *response.Email)
	require.True(t, response.HasPassword)

	w = postJSON(r, "/api/auth/signup", payload)
	require.Equal(t, http.StatusConflict, w.Code)

	w = postJSON(r, "/api/auth/signup", map[string]string{"first_name": "X", "email": "x@example.com", "password": "short"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Login(t *testing.T) {
	env := setupAuthTestEnv(t)

	_, err := env.authService.Signup(services.SignupInput{
		FirstName: "Existing",
		Email:     "existing@example.com",
		Password:  "supersecret",
	})
	require.NoError(t, err)

	r := newSessionRouter()
	r.POST("/api/auth/login", env.handler.Login)

	w := postJSON(r, "/api/auth/login", map[string]string{
		"email":    "existing@example.com",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var response dto.PersonDetailDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "Existing", response.FirstName)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies, "expected session cookie to be set")

	w = postJSON(r, "/api/auth/login", map[string]string{
		"email":    "existing@example.com",
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var apiErr apierrors.APIError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &apiErr))
	require.Equal(t, apierrors.ErrCodeInvalidCredentials, apiErr.Code)
}

func TestAuthHandler_GetCurrentPerson(t *testing.T) {
	env := setupAuthTestEnv(t)

	person, err := env.authService.Signup(services.SignupInput{
		FirstName: "Current",
		Email:     "current@example.com",
		Password:  "supersecret",
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(constants.ContextKeyPersonID, person.ID)

	env.handler.GetCurrentPerson(c)

	require.Equal(t, http.StatusOK, w.Code)

	var response dto.PersonDetailDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, person.ID, response.ID)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	env.handler.GetCurrentPerson(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_MagicLinkLogsIn(t *testing.T) {
	env := setupAuthTestEnv(t)

	_, err := env.authService.Signup(services.SignupInput{
		FirstName: "Magic",
		Email:     "magic@example.com",
		Password:  "supersecret",
	})
	require.NoError(t, err)

	r := newSessionRouter()
	r.POST("/api/auth/magic-link", env.handler.RequestMagicLink)
	r.GET("/auth/magic/:token", env.handler.VerifyMagicLink)
	r.GET("/api/auth/me", middleware.RequireAuth(), env.handler.GetCurrentPerson)

	// Unknown addresses get the same answer and nothing is sent.
	w := postJSON(r, "/api/auth/magic-link", map[string]string{"email": "nobody@example.com"})
	require.Equal(t, http.StatusAccepted, w.Code)
	require.Zero(t, env.dispatcher.Count())

	token, err := env.authService.RequestMagicLink(context.Background(), "magic@example.com")
	require.NoError(t, err)
	require.NotNil(t, token)

	req := httptest.NewRequest(http.MethodGet, "/auth/magic/"+token.Token, nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// Magic links are single use.
	req = httptest.NewRequest(http.MethodGet, "/auth/magic/"+token.Token, nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusGone, w.Code)
}
