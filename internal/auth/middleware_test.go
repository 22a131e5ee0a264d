package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(m *Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	api := router.Group("/", Middleware(m))
	api.GET("/me", func(c *gin.Context) {
		id, ok := CurrentUserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": id, "ok": ok})
	})
	api.GET("/moderation", RequireModerator(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func doRequest(router *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestMiddleware(t *testing.T) {
	m := newTestManager()
	router := newTestRouter(m)
	token, err := m.IssueToken(7, "bob", false)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"lowercase scheme", "bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.token", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, "/me", tt.header)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.JSONEq(t, `{"user_id":7,"ok":true}`, w.Body.String())
			}
		})
	}
}

func TestRequireModerator(t *testing.T) {
	m := newTestManager()
	router := newTestRouter(m)

	member, err := m.IssueToken(7, "bob", false)
	require.NoError(t, err)
	moderator, err := m.IssueToken(8, "carol", true)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, doRequest(router, "/moderation", "Bearer "+member).Code)
	assert.Equal(t, http.StatusNoContent, doRequest(router, "/moderation", "Bearer "+moderator).Code)
}

func TestCurrentUserIDWithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := CurrentUserID(c)
	assert.False(t, ok)
	assert.Nil(t, CurrentClaims(c))
}
