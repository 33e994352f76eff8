package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danmuck/edgemux/internal/testutil/testlog"
	"github.com/gin-gonic/gin"
)

func TestStaticTokenValidate(t *testing.T) {
	testlog.Start(t)
	tests := []struct {
		name    string
		stored  string
		input   string
		wantErr error
	}{
		{name: "empty token denied", stored: "", input: "abc", wantErr: ErrUnauthorized},
		{name: "mismatched token denied", stored: "abc", input: "xyz", wantErr: ErrUnauthorized},
		{name: "matching token accepted", stored: "abc", input: "abc", wantErr: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := (StaticToken{Token: tc.stored}).Validate(tc.input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected err %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	testlog.Start(t)
	if tok, ok := BearerToken("Bearer abc"); !ok || tok != "abc" {
		t.Fatalf("unexpected token=%q ok=%v", tok, ok)
	}
	if tok, ok := BearerToken("bearer  xyz "); !ok || tok != "xyz" {
		t.Fatalf("unexpected token=%q ok=%v", tok, ok)
	}
	for _, header := range []string{"", "Basic abc", "Bearer", "Bearer   "} {
		if _, ok := BearerToken(header); ok {
			t.Fatalf("expected %q to be rejected", header)
		}
	}
}

func TestRequireToken(t *testing.T) {
	testlog.Start(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/guarded", RequireToken(StaticToken{Token: "s3cret"}), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.POST("/open", RequireToken(nil), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	cases := []struct {
		path   string
		header string
		want   int
	}{
		{path: "/guarded", header: "", want: http.StatusUnauthorized},
		{path: "/guarded", header: "Bearer nope", want: http.StatusUnauthorized},
		{path: "/guarded", header: "Bearer s3cret", want: http.StatusNoContent},
		{path: "/open", header: "", want: http.StatusNoContent},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, tc.path, nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		if rr.Code != tc.want {
			t.Fatalf("%s %q: got %d want %d", tc.path, tc.header, rr.Code, tc.want)
		}
	}
}
