package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// testKeyID — идентификатор ключа для тестов.
const testKeyID = "test-key"

// generateTestKey генерирует RSA ключ для тестов.
func generateTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("генерация RSA ключа: %v", err)
	}
	return key
}

// generateTestToken генерирует подписанный JWT для тестов.
func generateTestToken(t *testing.T, key *rsa.PrivateKey, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	s, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("подпись токена: %v", err)
	}
	return s
}

// buildJWKSetJSON строит JWKS JSON из RSA публичного ключа.
func buildJWKSetJSON(pub *rsa.PublicKey, kid string) json.RawMessage {
	nB64 := base64.RawURLEncoding.EncodeToString(pub.N.Bytes())
	eB64 := base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes())

	jwks := map[string]any{
		"keys": []map[string]any{
			{
				"kty": "RSA",
				"kid": kid,
				"use": "sig",
				"alg": "RS256",
				"n":   nB64,
				"e":   eB64,
			},
		},
	}

	data, _ := json.Marshal(jwks)
	return data
}

// newTestJWTAuth создаёт JWTAuth с RSA ключом для тестов.
func newTestJWTAuth(t *testing.T, key *rsa.PrivateKey) *JWTAuth {
	t.Helper()
	kf, err := keyfunc.NewJWKSetJSON(buildJWKSetJSON(&key.PublicKey, testKeyID))
	if err != nil {
		t.Fatalf("создание keyfunc из JWKS JSON: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewJWTAuthWithKeyfunc(kf, time.Minute, logger)
}

// validClaims возвращает валидные claims с указанными scopes.
func validClaims(scopes ...string) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "test-user",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			NotBefore: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		ScopeArray: scopes,
	}
}

// TestJWTAuth_ValidToken проверяет пропуск запроса с валидным JWT
// и наличие sub/scopes в контексте.
func TestJWTAuth_ValidToken(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sub := SubjectFromContext(r.Context()); sub != "test-user" {
			t.Errorf("sub = %q, ожидался test-user", sub)
		}
		scopes := ScopesFromContext(r.Context())
		if len(scopes) != 2 || scopes[0] != "structures:read" {
			t.Errorf("неожиданные scopes: %v", scopes)
		}
		w.WriteHeader(http.StatusOK)
	}))

	tokenString := generateTestToken(t, key, validClaims("structures:read", "structures:write"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/structures", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("статус = %d, ожидался 200, тело: %s", rec.Code, rec.Body.String())
	}
}

// TestJWTAuth_MissingHeader проверяет 401 без заголовка Authorization.
func TestJWTAuth_MissingHeader(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	handler := auth.Middleware()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler не должен быть вызван без токена")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/structures", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("статус = %d, ожидался 401", rec.Code)
	}
}

// TestJWTAuth_MalformedHeader проверяет 401 при неверном формате заголовка.
func TestJWTAuth_MalformedHeader(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	handler := auth.Middleware()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler не должен быть вызван")
	}))

	for _, header := range []string{"Basic abc123", "Bearer", "Bearer "} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/structures", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("заголовок %q: статус = %d, ожидался 401", header, rec.Code)
		}
	}
}

// TestJWTAuth_ExpiredToken проверяет 401 для просроченного токена.
func TestJWTAuth_ExpiredToken(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	handler := auth.Middleware()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler не должен быть вызван для просроченного токена")
	}))

	claims := validClaims("structures:read")
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-2 * time.Hour))
	tokenString := generateTestToken(t, key, claims)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/structures", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("статус = %d, ожидался 401", rec.Code)
	}
}

// TestJWTAuth_WrongKey проверяет 401 для токена, подписанного чужим ключом.
func TestJWTAuth_WrongKey(t *testing.T) {
	key := generateTestKey(t)
	otherKey := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	handler := auth.Middleware()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler не должен быть вызван для токена с чужой подписью")
	}))

	tokenString := generateTestToken(t, otherKey, validClaims("structures:read"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/structures", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("статус = %d, ожидался 401", rec.Code)
	}
}

// TestRequireScope проверяет проверку scope после аутентификации.
func TestRequireScope(t *testing.T) {
	key := generateTestKey(t)
	auth := newTestJWTAuth(t, key)

	called := false
	handler := auth.Middleware()(
		RequireScope("structures:write")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			called = true
			w.WriteHeader(http.StatusOK)
		})),
	)

	// Токен без требуемого scope → 403
	tokenString := generateTestToken(t, key, validClaims("structures:read"))
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/structures", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("статус = %d, ожидался 403", rec.Code)
	}
	if called {
		t.Error("handler не должен быть вызван без требуемого scope")
	}

	// Токен с требуемым scope → 200
	tokenString = generateTestToken(t, key, validClaims("structures:read", "structures:write"))
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/structures", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	rec = httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || !called {
		t.Errorf("статус = %d, ожидался 200 с вызовом handler", rec.Code)
	}
}

// TestClaims_Scopes проверяет объединение двух форматов scope claims.
func TestClaims_Scopes(t *testing.T) {
	c := &Claims{
		ScopeString: "structures:read structures:write",
		ScopeArray:  []string{"admin"},
	}

	scopes := c.Scopes()
	if len(scopes) != 3 {
		t.Fatalf("len(scopes) = %d, ожидалось 3: %v", len(scopes), scopes)
	}
	if scopes[0] != "structures:read" || scopes[2] != "admin" {
		t.Errorf("неожиданный порядок scopes: %v", scopes)
	}
}
