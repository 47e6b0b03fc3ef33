package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"prehab/prehab-app/internal/domain"
)

func newAuthFixture() (AuthService, *mockUserRepo) {
	users := newMockUserRepo()
	return NewAuthService(users, "test-secret", time.Hour), users
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthFixture()

	user, err := svc.Register(context.Background(), "Dr. Silva", "silva@example.com", "s3cret", domain.RoleDoctor)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.PasswordHash != "" {
		t.Error("password hash leaked in response")
	}

	token, logged, err := svc.Login(context.Background(), "silva@example.com", "s3cret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if token == "" {
		t.Error("no token issued")
	}
	if logged.ID != user.ID {
		t.Error("login returned a different user")
	}

	if _, _, err := svc.Login(context.Background(), "silva@example.com", "wrong"); !errors.Is(err, ErrAuthenticationFailed) {
		t.Errorf("wrong password error = %v, want ErrAuthenticationFailed", err)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newAuthFixture()

	if _, err := svc.Register(context.Background(), "a", "dup@example.com", "pw", domain.RoleDoctor); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	_, err := svc.Register(context.Background(), "b", "dup@example.com", "pw", domain.RoleDoctor)
	if !errors.Is(err, ErrUserAlreadyExists) {
		t.Fatalf("error = %v, want ErrUserAlreadyExists", err)
	}
}

func TestRegisterRejectsPatientRole(t *testing.T) {
	svc, _ := newAuthFixture()

	_, err := svc.Register(context.Background(), "p", "p@example.com", "pw", domain.RolePatient)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
}

func TestActivateIsOneTime(t *testing.T) {
	svc, users := newAuthFixture()

	patient := &domain.User{
		Name:           "patient",
		Email:          "patient@example.com",
		Role:           domain.RolePatient,
		ActivationCode: "ab12cd34",
		IsActive:       false,
	}
	id, _ := users.Create(context.Background(), patient)

	activated, err := svc.Activate(context.Background(), "ab12cd34", "chosen-pw")
	if err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if activated.ID != id {
		t.Error("activated a different account")
	}

	stored, _ := users.GetByID(context.Background(), id)
	if !stored.IsActive {
		t.Error("account not flipped active")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("chosen-pw")); err != nil {
		t.Error("stored hash does not match the chosen password")
	}

	_, err = svc.Activate(context.Background(), "ab12cd34", "second-pw")
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("second activation error = %v, want ErrInvalidState", err)
	}
}

func TestActivateUnknownCode(t *testing.T) {
	svc, _ := newAuthFixture()

	_, err := svc.Activate(context.Background(), "nope", "pw")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestInactiveAccountCannotLogin(t *testing.T) {
	svc, users := newAuthFixture()

	hash, _ := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	users.Create(context.Background(), &domain.User{
		Name:         "dormant",
		Email:        "dormant@example.com",
		PasswordHash: string(hash),
		Role:         domain.RolePatient,
		IsActive:     false,
	})

	_, _, err := svc.Login(context.Background(), "dormant@example.com", "pw")
	if !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("error = %v, want ErrAuthenticationFailed", err)
	}
}
