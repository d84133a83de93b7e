package services

import (
	"context"
	"strconv"
	"time"

	"foodgram/models"
	"foodgram/repositories"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.UserProfile, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.TokenResponse, error)
	Me(ctx context.Context, caller models.Identity) (*models.UserProfile, error)
	GetUser(ctx context.Context, caller models.Identity, id uint) (*models.UserProfile, error)
	SetPassword(ctx context.Context, caller models.Identity, req models.SetPasswordRequest) error
	ParseToken(token string) (models.Identity, error)
}

type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type authService struct {
	store      repositories.Store
	secret     []byte
	expiration time.Duration
}

func NewAuthService(store repositories.Store, secret string, expiration time.Duration) AuthService {
	return &authService{store: store, secret: []byte(secret), expiration: expiration}
}

func (s *authService) Register(ctx context.Context, req models.RegisterRequest) (*models.UserProfile, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  string(hashed),
		Role:      models.RoleUser,
	}

	err = s.store.WithTx(ctx, func(tx repositories.Store) error {
		exists, err := tx.Users().ExistsByEmailOrUsername(ctx, req.Email, req.Username)
		if err != nil {
			return err
		}
		if exists {
			return models.ErrUserExists
		}
		if err := tx.Users().Create(ctx, user); err != nil {
			if repositories.IsDuplicateKey(err) {
				return models.ErrUserExists.Wrap(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	profile := models.NewUserProfile(user, false)
	return &profile, nil
}

func (s *authService) Login(ctx context.Context, req models.LoginRequest) (*models.TokenResponse, error) {
	user, err := s.store.Users().GetByEmail(ctx, req.Email)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}
	return &models.TokenResponse{AuthToken: token}, nil
}

func (s *authService) Me(ctx context.Context, caller models.Identity) (*models.UserProfile, error) {
	if caller.IsAnonymous() {
		return nil, models.ErrUnauthorized
	}
	return s.GetUser(ctx, caller, caller.UserID)
}

func (s *authService) GetUser(ctx context.Context, caller models.Identity, id uint) (*models.UserProfile, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}

	subscribed := false
	if !caller.IsAnonymous() && caller.UserID != id {
		subscribed, err = s.store.Subscriptions().Exists(ctx, caller.UserID, id)
		if err != nil {
			return nil, err
		}
	}
	profile := models.NewUserProfile(user, subscribed)
	return &profile, nil
}

func (s *authService) SetPassword(ctx context.Context, caller models.Identity, req models.SetPasswordRequest) error {
	if caller.IsAnonymous() {
		return models.ErrUnauthorized
	}
	user, err := s.store.Users().GetByID(ctx, caller.UserID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return models.ErrUnauthorized
		}
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		return models.ErrInvalidPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.store.Users().UpdatePassword(ctx, user.ID, string(hashed))
}

func (s *authService) generateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseToken validates an HS256 token and returns the identity it carries.
func (s *authService) ParseToken(tokenString string) (models.Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		return models.Identity{}, models.ErrUnauthorized.WithField("", "Invalid token.").Wrap(err)
	}
	if !token.Valid || claims.UserID == 0 {
		return models.Identity{}, models.ErrUnauthorized.WithField("", "Invalid token.")
	}
	return models.Identity{UserID: claims.UserID, Role: models.UserRole(claims.Role)}, nil
}
