package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/naormeit/ParkHub-Vision-Robotics/internal/domain"
	"github.com/naormeit/ParkHub-Vision-Robotics/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid username or password")
var ErrAccountAlreadyExists = errors.New("username already exists")
var ErrTokenInvalid = errors.New("token invalid or expired")

type AuthService struct {
	accountRepo   repository.AccountRepository
	jwtSecret     string
	jwtExpiration time.Duration
}

func NewAuthService(accountRepo repository.AccountRepository, jwtSecret string, jwtExpiration time.Duration) *AuthService {
	return &AuthService{
		accountRepo:   accountRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

func (s *AuthService) Register(ctx context.Context, dto domain.RegisterAccountDTO) (*domain.Account, error) {
	existing, err := s.accountRepo.FindByUsername(ctx, dto.Username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("checking account: %w", err)
	}
	if existing != nil {
		return nil, ErrAccountAlreadyExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	role := dto.Role
	if role == "" {
		role = "operator"
	}

	account := &domain.Account{
		Username: dto.Username,
		Password: string(hashed),
		Role:     role,
	}
	created, err := s.accountRepo.Create(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("creating account: %w", err)
	}
	created.Password = ""
	return created, nil
}

func (s *AuthService) Login(ctx context.Context, dto domain.LoginAccountDTO) (*domain.AuthResponseDTO, error) {
	account, err := s.accountRepo.FindByUsername(ctx, dto.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("finding account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(dto.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	expiration := time.Now().Add(s.jwtExpiration)
	claims := jwt.MapClaims{
		"sub":      fmt.Sprintf("%d", account.ID),
		"exp":      expiration.Unix(),
		"iat":      time.Now().Unix(),
		"role":     account.Role,
		"username": account.Username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, fmt.Errorf("signing token: %w", err)
	}

	return &domain.AuthResponseDTO{
		Token:    tokenString,
		UserID:   account.ID,
		Username: account.Username,
		Role:     account.Role,
	}, nil
}

// ValidateToken is used by the auth middleware.
func (s *AuthService) ValidateToken(tokenString string) (*jwt.Token, jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, nil, fmt.Errorf("%w: malformed token", ErrTokenInvalid)
		} else if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, nil, fmt.Errorf("%w: token expired", ErrTokenInvalid)
		} else if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, nil, fmt.Errorf("%w: token not valid yet", ErrTokenInvalid)
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, nil, ErrTokenInvalid
	}
	return token, claims, nil
}
