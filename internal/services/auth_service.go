package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"shuttle/internal/domain"
	"shuttle/internal/domain/models"
	"shuttle/internal/repositories"
	"shuttle/internal/utils"
)

const (
	authModule     = "auth"
	minPasswordLen = 8
)

type AuthService struct {
	Users      UserStore
	Secret     []byte
	TTL        time.Duration
	BcryptCost int
	Now        func() time.Time
}

type RegisterInput struct {
	FullName    string
	Email       string
	StudentID   string
	Password    string
	PhoneNumber string
	Department  string
	Level       string
}

type AuthResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      models.User `json:"user"`
}

type tokenClaims struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

var errBadCredentials = domain.UnauthorizedError{Msg: "invalid email or password"}

func strongPassword(p string) bool {
	var upper, lower, digit bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}

func (s AuthService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return 24 * time.Hour
}

func (s AuthService) cost() int {
	if s.BcryptCost >= bcrypt.MinCost && s.BcryptCost <= bcrypt.MaxCost {
		return s.BcryptCost
	}
	return bcrypt.DefaultCost
}

func (s AuthService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	in.FullName = utils.SanitizeText(in.FullName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.StudentID = strings.ToUpper(strings.TrimSpace(in.StudentID))
	if in.FullName == "" {
		return AuthResult{}, domain.ValidationError{Field: "fullName", Msg: "is required"}
	}
	if in.Email == "" {
		return AuthResult{}, domain.ValidationError{Field: "email", Msg: "is required"}
	}
	if in.StudentID == "" {
		return AuthResult{}, domain.ValidationError{Field: "studentId", Msg: "is required"}
	}
	if len(in.Password) < minPasswordLen {
		return AuthResult{}, domain.ValidationError{Field: "password", Msg: "must be at least 8 characters long"}
	}
	if !strongPassword(in.Password) {
		return AuthResult{}, domain.ValidationError{
			Field: "password",
			Msg:   "must contain at least one uppercase letter, one lowercase letter, and one number",
		}
	}

	exists, err := s.Users.UserExists(ctx, in.Email, in.StudentID)
	if err != nil {
		return AuthResult{}, domain.PersistenceError{Op: "check user", Err: err}
	}
	if exists {
		return AuthResult{}, domain.ConflictError{Resource: "user", Msg: "email or student ID already registered"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost())
	if err != nil {
		return AuthResult{}, domain.InternalError{Msg: "failed to hash password", Err: err}
	}
	user := models.User{
		FullName:     in.FullName,
		Email:        in.Email,
		StudentID:    in.StudentID,
		PasswordHash: string(hash),
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		Department:   utils.SanitizeText(in.Department),
		Level:        strings.TrimSpace(in.Level),
		CreatedAt:    clock(s.Now).now(),
	}
	if err := s.Users.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return AuthResult{}, domain.ConflictError{Resource: "user", Msg: "email or student ID already registered", Err: err}
		}
		return AuthResult{}, domain.PersistenceError{Op: "create user", Err: err}
	}
	utils.LogEvent(ctx, authModule, "register", "user registered", zap.Int64("user_id", user.ID))
	return s.issue(user)
}

func (s AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	user, err := s.Users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return AuthResult{}, errBadCredentials
		}
		return AuthResult{}, domain.PersistenceError{Op: "load user", Err: err}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return AuthResult{}, errBadCredentials
	}
	if !user.IsActive {
		return AuthResult{}, domain.UnauthorizedError{Msg: "account is disabled"}
	}
	utils.LogEvent(ctx, authModule, "login", "user logged in", zap.Int64("user_id", user.ID))
	return s.issue(user)
}

func (s AuthService) issue(user models.User) (AuthResult, error) {
	now := clock(s.Now).now()
	exp := now.Add(s.ttl())
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := token.SignedString(s.Secret)
	if err != nil {
		return AuthResult{}, domain.InternalError{Msg: "failed to sign token", Err: err}
	}
	return AuthResult{Token: signed, ExpiresAt: exp, User: user}, nil
}

// ParseToken validates a bearer token and returns the caller identity.
func (s AuthService) ParseToken(raw string) (domain.RequestContext, error) {
	var claims tokenClaims
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.Now != nil {
		opts = append(opts, jwt.WithTimeFunc(s.Now))
	}
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) { return s.Secret, nil }, opts...)
	if err != nil {
		return domain.RequestContext{}, domain.UnauthorizedError{Msg: "invalid or expired token", Err: err}
	}
	if claims.UserID <= 0 {
		return domain.RequestContext{}, domain.UnauthorizedError{Msg: "invalid token subject"}
	}
	return domain.RequestContext{UserID: claims.UserID, Email: claims.Email}, nil
}
