package Token

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gurunathasmb/Major-project/Config"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(header, query string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req := httptest.NewRequest(http.MethodGet, "/x"+query, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	c.Request = req
	return c
}

func TestGenerateAndExtract(t *testing.T) {
	Config.C = Config.Default()
	token, err := GenerateToken(42, "doctor")
	require.NoError(t, err)

	c := newContext("Bearer "+token, "")
	id, err := ExtractTokenID(c)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	role, err := ExtractTokenRole(c)
	require.NoError(t, err)
	assert.Equal(t, "doctor", role)
}

func TestExtractFromQuery(t *testing.T) {
	Config.C = Config.Default()
	token, err := GenerateToken(7, "admin")
	require.NoError(t, err)

	c := newContext("", "?token="+token)
	id, err := ExtractTokenID(c)
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)
}

func TestMissingToken(t *testing.T) {
	c := newContext("", "")
	assert.ErrorIs(t, TokenValid(c), ErrMissingToken)
}

func TestRejectsForeignSecret(t *testing.T) {
	Config.C = Config.Default()
	claims := jwt.MapClaims{"user_id": 1, "exp": time.Now().Add(time.Hour).Unix()}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other"))
	require.NoError(t, err)

	_, err = Parse(raw)
	assert.Error(t, err)
}

func TestRejectsExpired(t *testing.T) {
	Config.C = Config.Default()
	claims := jwt.MapClaims{"user_id": 1, "exp": time.Now().Add(-time.Hour).Unix()}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(Config.C.APISecret))
	require.NoError(t, err)

	_, err = Parse(raw)
	assert.Error(t, err)
}
