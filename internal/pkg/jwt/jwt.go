package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/ops-portal/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	TokenTypeAccess = "access"
	TokenTypePhoto  = "photo"
)

var ErrPathMismatch = errors.New("token was not issued for this file")

type Service interface {
	GenerateAccessToken(userID string, email string, role user.Role) (token string, expiresAt int64, err error)
	GeneratePhotoToken(path string, expiry time.Duration) (token string, expiresAt int64, err error)
	ValidatePhotoToken(tokenString string, path string) error
	SignPath(path string, expiry time.Duration) (string, error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	secretKey                 string
	accessTokenExpirationTime string
	tokenAuth                 *jwtauth.JWTAuth
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) Service {
	return &JWTService{
		secretKey:                 secretKey,
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

// GenerateAccessToken issues a bearer token in the shape the identity
// provider uses. The portal itself only verifies these.
func (j *JWTService) GenerateAccessToken(userID string, email string, role user.Role) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = time.Now().Add(expDuration).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id": userID,
		"email":   email,
		"role":    string(role),
		"type":    TokenTypeAccess,
		"exp":     expiresAt,
	})
	return tokenString, expiresAt, err
}

// GeneratePhotoToken issues a short-lived token bound to one stored file.
func (j *JWTService) GeneratePhotoToken(path string, expiry time.Duration) (token string, expiresAt int64, err error) {
	if expiry <= 0 {
		return "", 0, fmt.Errorf("photo token expiry must be positive")
	}
	expiresAt = time.Now().Add(expiry).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"path": path,
		"type": TokenTypePhoto,
		"exp":  expiresAt,
	})
	if err != nil {
		return "", 0, err
	}

	return tokenString, expiresAt, nil
}

// SignPath implements storage.URLSigner.
func (j *JWTService) SignPath(path string, expiry time.Duration) (string, error) {
	token, _, err := j.GeneratePhotoToken(path, expiry)
	return token, err
}

// ValidatePhotoToken checks signature, expiry and that the token was issued
// for path.
func (j *JWTService) ValidatePhotoToken(tokenString string, path string) error {
	token, err := j.tokenAuth.Decode(tokenString)
	if err != nil {
		return err
	}

	if err := jwt.Validate(token, jwt.WithAcceptableSkew(30*time.Second)); err != nil {
		return err
	}

	// Check token type
	tokenType, ok := token.Get("type")
	if !ok || tokenType != TokenTypePhoto {
		return jwt.ErrInvalidJWT()
	}

	tokenPath, ok := token.Get("path")
	if !ok {
		return jwt.ErrInvalidJWT()
	}

	if p, ok := tokenPath.(string); !ok || p != path {
		return ErrPathMismatch
	}

	return nil
}
