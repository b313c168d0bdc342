package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prog-nayeem/appointment-scheduler/config"
	"github.com/prog-nayeem/appointment-scheduler/internal/delivery/dto"
	"github.com/prog-nayeem/appointment-scheduler/internal/domain/entity"
	"github.com/prog-nayeem/appointment-scheduler/pkg/jwt"
)

type authEnv struct {
	users  *fakeUserRepo
	tokens *fakeTokenStore
	audit  *fakeAuditService
	jwt    *jwt.JWTService
	auth   AuthUsecase
}

func newAuthEnv() *authEnv {
	env := &authEnv{
		users:  newFakeUserRepo(),
		tokens: newFakeTokenStore(),
		audit:  &fakeAuditService{},
		jwt: jwt.NewJWTService(config.JWTConfig{
			Secret:        "test-secret",
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: time.Hour,
		}),
	}
	env.auth = NewAuthUsecase(quietLogger(), env.users, env.jwt, env.tokens, env.audit)
	return env
}

func TestRegisterAndLogin(t *testing.T) {
	env := newAuthEnv()
	ctx := context.Background()

	user, err := env.auth.Register(ctx, &dto.RegisterRequest{
		Email:    "Dr.House@Example.test",
		Password: "s3cret-pass",
		FullName: "Gregory House",
		Role:     "doctor",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "dr.house@example.test" || user.Role != "doctor" || !user.IsActive {
		t.Errorf("unexpected user %+v", user)
	}

	_, err = env.auth.Register(ctx, &dto.RegisterRequest{
		Email:    "dr.house@example.test",
		Password: "another-pass",
		FullName: "Impostor",
		Role:     "patient",
	})
	if !errors.Is(err, ErrEmailAlreadyExists) {
		t.Errorf("duplicate register: err = %v, want ErrEmailAlreadyExists", err)
	}

	tokens, err := env.auth.Login(ctx, &dto.LoginRequest{Email: "dr.house@example.test", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if tokens.TokenType != "Bearer" || tokens.ExpiresIn != int64((15*time.Minute).Seconds()) {
		t.Errorf("unexpected token response %+v", tokens)
	}

	claims, err := env.jwt.ValidateToken(tokens.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.Role != entity.RoleDoctor.String() {
		t.Errorf("role claim = %q, want doctor", claims.Role)
	}
	if env.tokens.count() != 2 {
		t.Errorf("stored tokens = %d, want 2", env.tokens.count())
	}

	if _, err := env.auth.Login(ctx, &dto.LoginRequest{Email: "dr.house@example.test", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := env.auth.Login(ctx, &dto.LoginRequest{Email: "nobody@example.test", Password: "s3cret-pass"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	env := newAuthEnv()
	_, err := env.auth.Register(context.Background(), &dto.RegisterRequest{
		Email:    "admin@example.test",
		Password: "s3cret-pass",
		FullName: "Admin",
		Role:     "admin",
	})
	if !errors.Is(err, entity.ErrInvalidRole) {
		t.Errorf("err = %v, want ErrInvalidRole", err)
	}
}

func TestLoginInactiveUser(t *testing.T) {
	env := newAuthEnv()
	ctx := context.Background()
	if _, err := env.auth.Register(ctx, &dto.RegisterRequest{
		Email: "p@example.test", Password: "s3cret-pass", FullName: "P", Role: "patient",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	u, _ := env.users.FindByEmail(ctx, "p@example.test")
	env.users.users[u.ID].IsActive = false

	if _, err := env.auth.Login(ctx, &dto.LoginRequest{Email: "p@example.test", Password: "s3cret-pass"}); !errors.Is(err, ErrInactiveUser) {
		t.Errorf("err = %v, want ErrInactiveUser", err)
	}
}

func TestRefreshTokenIsSingleUse(t *testing.T) {
	env := newAuthEnv()
	ctx := context.Background()
	if _, err := env.auth.Register(ctx, &dto.RegisterRequest{
		Email: "p@example.test", Password: "s3cret-pass", FullName: "P", Role: "patient",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	tokens, err := env.auth.Login(ctx, &dto.LoginRequest{Email: "p@example.test", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if _, err := env.auth.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: tokens.AccessToken}); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("access token as refresh: err = %v, want ErrInvalidToken", err)
	}

	refreshed, err := env.auth.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if refreshed.AccessToken == "" {
		t.Error("refresh returned no access token")
	}

	if _, err := env.auth.RefreshToken(ctx, &dto.RefreshTokenRequest{RefreshToken: tokens.RefreshToken}); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("reused refresh token: err = %v, want ErrTokenRevoked", err)
	}
}

func TestLogoutAll(t *testing.T) {
	env := newAuthEnv()
	ctx := context.Background()
	user, err := env.auth.Register(ctx, &dto.RegisterRequest{
		Email: "d@example.test", Password: "s3cret-pass", FullName: "D", Role: "doctor",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := env.auth.Login(ctx, &dto.LoginRequest{Email: "d@example.test", Password: "s3cret-pass"}); err != nil {
			t.Fatalf("Login: %v", err)
		}
	}
	if env.tokens.count() != 4 {
		t.Fatalf("stored tokens = %d, want 4", env.tokens.count())
	}

	if err := env.auth.LogoutAll(ctx, user.ID); err != nil {
		t.Fatalf("LogoutAll: %v", err)
	}
	if env.tokens.count() != 0 {
		t.Errorf("stored tokens after LogoutAll = %d, want 0", env.tokens.count())
	}
}

func TestLogoutRevokesBothTokens(t *testing.T) {
	env := newAuthEnv()
	ctx := context.Background()
	user, err := env.auth.Register(ctx, &dto.RegisterRequest{
		Email: "d@example.test", Password: "s3cret-pass", FullName: "D", Role: "doctor",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	tokens, err := env.auth.Login(ctx, &dto.LoginRequest{Email: "d@example.test", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	access, _ := env.jwt.ValidateToken(tokens.AccessToken)

	if err := env.auth.Logout(ctx, user.ID, access.TokenID, tokens.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if env.tokens.count() != 0 {
		t.Errorf("stored tokens after Logout = %d, want 0", env.tokens.count())
	}
}
