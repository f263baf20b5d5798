package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestBasicAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(basicAuthMiddleware("alice", "secret"))
	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/api/v1/stats", func(c *gin.Context) { c.String(http.StatusOK, "stats") })

	cases := []struct {
		name       string
		path       string
		user, pass string
		want       int
	}{
		{"health skips auth", "/health", "", "", http.StatusOK},
		{"missing credentials", "/api/v1/stats", "", "", http.StatusUnauthorized},
		{"wrong password", "/api/v1/stats", "alice", "nope", http.StatusUnauthorized},
		{"valid", "/api/v1/stats", "alice", "secret", http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.user != "" {
			req.SetBasicAuth(tc.user, tc.pass)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Fatalf("%s: status = %d, want %d", tc.name, w.Code, tc.want)
		}
	}
}
