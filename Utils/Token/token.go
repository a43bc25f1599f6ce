package Token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gurunathasmb/Major-project/Config"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
)

var ErrMissingToken = errors.New("token missing")

func GenerateToken(userID uint, role string) (string, error) {
	claims := jwt.MapClaims{}
	claims["authorized"] = true
	claims["user_id"] = userID
	claims["role"] = role
	claims["exp"] = time.Now().Add(Config.C.TokenLifespan()).Unix()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(Config.C.APISecret))
}

func TokenValid(c *gin.Context) error {
	_, err := ExtractJWT(c)
	return err
}

// ExtractToken reads the bearer token from the Authorization header, falling
// back to the "token" query parameter used by EventSource and download links.
func ExtractToken(c *gin.Context) string {
	bearer := c.Request.Header.Get("Authorization")
	if parts := strings.Split(bearer, " "); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return c.Query("token")
}

func ExtractJWT(c *gin.Context) (*jwt.Token, error) {
	raw := ExtractToken(c)
	if raw == "" {
		return nil, ErrMissingToken
	}
	return Parse(raw)
}

func Parse(raw string) (*jwt.Token, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(Config.C.APISecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return token, nil
}

func ExtractTokenID(c *gin.Context) (uint, error) {
	token, err := ExtractJWT(c)
	if err != nil {
		return 0, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("invalid claims")
	}
	uid, ok := claims["user_id"].(float64)
	if !ok {
		return 0, errors.New("user_id claim missing")
	}
	return uint(uid), nil
}

func ExtractTokenRole(c *gin.Context) (string, error) {
	token, err := ExtractJWT(c)
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}
	role, _ := claims["role"].(string)
	return role, nil
}
