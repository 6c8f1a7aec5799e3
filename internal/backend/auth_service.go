package backend

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "wolfquant/internal/errors"
	"wolfquant/internal/gateway"
	"wolfquant/internal/models"
	"wolfquant/internal/validator"
)

type sessionClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (b *Backend) register(ctx context.Context, req *gateway.RegisterRequest) (*models.User, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	if len(req.Password) < b.cfg.MinPasswordLen {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidPassword, "Password must be at least 8 characters long")
	}

	var count int64
	if err := b.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ? OR email = ?", req.Username, req.Email).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateUser
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashed),
	}
	if err := b.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	b.log.Infow("user registered", "user_id", user.ID, "username", user.Username)
	return &user, nil
}

func (b *Backend) login(ctx context.Context, req *gateway.LoginRequest) (*gateway.LoginResponse, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	var user models.User
	err := b.db.WithContext(ctx).
		Where("username = ? OR email = ?", req.UsernameOrEmail, req.UsernameOrEmail).
		First(&user).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(b.cfg.JWTExpirationDur)
	claims := sessionClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(b.cfg.JWTSecret))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	session := models.Session{
		UserID:    user.ID,
		TokenHash: hashToken(token),
		ExpiresAt: expiresAt,
	}
	if err := b.db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	b.log.Infow("user logged in", "user_id", user.ID)
	return &gateway.LoginResponse{User: user, Token: token}, nil
}

// verifySession checks both the JWT signature/expiry and that a session
// record still exists, so a logged-out token fails even before its expiry.
func (b *Backend) verifySession(ctx context.Context, req *gateway.VerifySessionRequest) (*gateway.VerifySessionResponse, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	parsed, err := jwt.ParseWithClaims(req.Token, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(b.cfg.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, apperrors.ErrInvalidSession
	}
	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok {
		return nil, apperrors.ErrInvalidSession
	}

	var session models.Session
	err = b.db.WithContext(ctx).
		Where("token_hash = ? AND expires_at > ?", hashToken(req.Token), time.Now()).
		First(&session).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperrors.ErrInvalidSession
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &gateway.VerifySessionResponse{Valid: true, UserID: claims.UserID}, nil
}

func (b *Backend) logout(ctx context.Context, req *gateway.LogoutRequest) (*gateway.MessageResponse, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}

	if err := b.db.WithContext(ctx).
		Where("token_hash = ?", hashToken(req.Token)).
		Delete(&models.Session{}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &gateway.MessageResponse{Message: "Logged out"}, nil
}
