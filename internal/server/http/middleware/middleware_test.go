package middleware

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	pkgAuth "github.com/polkiloo/archstore/internal/pkg/auth"
	testhelpers "github.com/polkiloo/archstore/internal/test"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestAdminRequired(t *testing.T) {
	newRouter := func(v pkgAuth.TokenVerifier) *gin.Engine {
		router := gin.New()
		router.Use(AdminRequired(v))
		router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
		return router
	}

	router := newRouter(testhelpers.TokenVerifierStub{Token: "secret"})
	if resp := serve(router, httptest.NewRequest(http.MethodGet, "/", nil)); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	if resp := serve(router, req); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong token, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer secret")
	if resp := serve(router, req); resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	router = newRouter(testhelpers.TokenVerifierStub{Err: context.DeadlineExceeded})
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer secret")
	if resp := serve(router, req); resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}

	router = newRouter(pkgAuth.OpenVerifier{})
	if resp := serve(router, httptest.NewRequest(http.MethodGet, "/", nil)); resp.Code != http.StatusOK {
		t.Fatalf("expected open access without configured hash, got %d", resp.Code)
	}
}

func TestAdminRequiredWithBcrypt(t *testing.T) {
	hash, err := pkgAuth.HashToken("operator-token", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	verifier, err := pkgAuth.NewBcryptVerifier(hash)
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}

	router := gin.New()
	router.Use(AdminRequired(verifier))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer operator-token")
	if resp := serve(router, req); resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestExtractToken(t *testing.T) {
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request, _ = http.NewRequest(http.MethodGet, "/", nil)
	if token := extractToken(c); token != "" {
		t.Fatalf("expected empty token, got %q", token)
	}

	c.Request.Header.Set("Authorization", "Bearer abc")
	if token := extractToken(c); token != "abc" {
		t.Fatalf("expected token from header, got %q", token)
	}

	c.Request.Header.Set("Authorization", "Basic abc")
	if token := extractToken(c); token != "" {
		t.Fatalf("expected basic auth to be ignored, got %q", token)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) {
		seen = CurrentRequestID(c)
		c.Status(http.StatusOK)
	})

	resp := serve(router, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := resp.Header().Get(RequestIDHeader)
	if generated == "" || generated != seen {
		t.Fatalf("expected generated id to be echoed, got %q and %q", generated, seen)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp = serve(router, req)
	if resp.Header().Get(RequestIDHeader) != "abc-123" || seen != "abc-123" {
		t.Fatalf("expected incoming id to be reused, got %q", resp.Header().Get(RequestIDHeader))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 200))
	resp = serve(router, req)
	if got := resp.Header().Get(RequestIDHeader); len(got) > 128 {
		t.Fatalf("expected oversized id to be replaced, got %d bytes", len(got))
	}
}

func TestDecompressRequest(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, _ = gz.Write([]byte("payload"))
	_ = gz.Close()

	router := gin.New()
	router.Use(DecompressRequest(1024))
	var body string
	router.POST("/", func(c *gin.Context) {
		data, _ := io.ReadAll(c.Request.Body)
		body = string(data)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(buf.Bytes()))
	req.Header.Set("Content-Encoding", "gzip")
	serve(router, req)
	if body != "payload" {
		t.Fatalf("expected decompressed payload, got %q", body)
	}

	body = ""
	serve(router, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("plain"))))
	if body != "plain" {
		t.Fatalf("expected plain body, got %q", body)
	}

	req = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("not gzip")))
	req.Header.Set("Content-Encoding", "gzip")
	if resp := serve(router, req); resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed gzip, got %d", resp.Code)
	}
}

func TestDecompressRequestLimit(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, _ = gz.Write(bytes.Repeat([]byte("a"), 4096))
	_ = gz.Close()

	router := gin.New()
	router.Use(DecompressRequest(16))
	var readErr error
	router.POST("/", func(c *gin.Context) {
		_, readErr = io.ReadAll(c.Request.Body)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(buf.Bytes()))
	req.Header.Set("Content-Encoding", "gzip")
	serve(router, req)

	var maxErr *http.MaxBytesError
	if !errors.As(readErr, &maxErr) {
		t.Fatalf("expected max bytes error, got %v", readErr)
	}
}

func TestBodyLimit(t *testing.T) {
	router := gin.New()
	router.Use(BodyLimit(4))
	router.POST("/", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	if resp := serve(router, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("abc"))); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 under limit, got %d", resp.Code)
	}
	if resp := serve(router, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("abcdef"))); resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 over limit, got %d", resp.Code)
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	router := gin.New()
	router.Use(RequestID(), RequestLogger(logger))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/fail", func(c *gin.Context) {
		_ = c.Error(errors.New("db down"))
		c.Status(http.StatusInternalServerError)
	})

	serve(router, httptest.NewRequest(http.MethodGet, "/ok", nil))
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log: %v", err)
	}
	if entry["level"] != "INFO" || entry["path"] != "/ok" || entry["request_id"] == "" {
		t.Fatalf("unexpected log entry %v", entry)
	}

	buf.Reset()
	serve(router, httptest.NewRequest(http.MethodGet, "/fail", nil))
	entry = nil
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log: %v", err)
	}
	if entry["level"] != "ERROR" || !strings.Contains(entry["error"].(string), "db down") {
		t.Fatalf("unexpected log entry %v", entry)
	}
}
