package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetops/internal/domain"
)

var secret = []byte("secret")

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestParseToken(t *testing.T) {
	testCases := []struct {
		name    string
		token   func(t *testing.T) string
		want    domain.Actor
		wantErr bool
	}{
		{
			name: "user_id claim",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"user_id": "u1", "role": "admin"})
			},
			want: domain.Actor{ID: "u1", Role: domain.RoleAdmin},
		},
		{
			name: "id fallback",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"id": "d1", "role": "driver"})
			},
			want: domain.Actor{ID: "d1", Role: domain.RoleDriver},
		},
		{
			name: "missing role",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"user_id": "u1"})
			},
			wantErr: true,
		},
		{
			name: "wrong key",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"user_id": "u1", "role": "admin"})
			},
			wantErr: true,
		},
		{
			name: "unsigned",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, jwt.MapClaims{"user_id": "u1", "role": "admin"})
			},
			wantErr: true,
		},
		{
			name:    "garbage",
			token:   func(*testing.T) string { return "not-a-token" },
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseToken(tc.token(t), secret)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAuthenticateAndRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/admin", Authenticate(string(secret)), RequireRole(domain.RoleAdmin, domain.RoleSuperAdmin), func(c *gin.Context) {
		a, ok := ActorFromContext(c)
		require.True(t, ok)
		c.String(http.StatusOK, a.ID)
	})

	do := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := do("")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do("Token " + sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"user_id": "a1", "role": "admin"}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do("Bearer " + sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"user_id": "d1", "role": "driver"}))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do("Bearer " + sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"user_id": "a1", "role": "super-admin"}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a1", rec.Body.String())
}
