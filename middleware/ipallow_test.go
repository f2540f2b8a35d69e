package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAllowRouter(t *testing.T, entries []string) *gin.Engine {
	t.Helper()
	mw, err := IPAllow(entries)
	require.NoError(t, err)
	r := gin.New()
	r.Use(mw)
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func pingFrom(r *gin.Engine, ip string) int {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Real-IP", ip)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestIPAllow_EmptyAllowsAll(t *testing.T) {
	r := newAllowRouter(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "1.2.3.4:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIPAllow(t *testing.T) {
	r := newAllowRouter(t, []string{"192.168.1.1", "10.0.0.0/8", " ", "::1"})

	tests := []struct {
		ip   string
		want int
	}{
		{"192.168.1.1", http.StatusOK},
		{"192.168.1.2", http.StatusForbidden},
		{"10.20.30.40", http.StatusOK},
		{"11.0.0.1", http.StatusForbidden},
		{"::1", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			assert.Equal(t, tt.want, pingFrom(r, tt.ip))
		})
	}
}

func TestIPAllow_InvalidEntry(t *testing.T) {
	_, err := IPAllow([]string{"not-an-ip"})
	assert.Error(t, err)
	_, err = IPAllow([]string{"10.0.0.0/99"})
	assert.Error(t, err)
}
