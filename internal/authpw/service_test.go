package authpw

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"feeflow/api/internal/store"
)

type fakeUserStore struct {
	users map[string]store.User // by email
	byID  map[string]store.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]store.User{}, byID: map[string]store.User{}}
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	u, ok := f.users[email]
	if !ok {
		return store.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id string) (store.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return store.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeUserStore) CreateUser(_ context.Context, u store.User) error {
	f.users[u.Email] = u
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUserStore) UpdateUserPassword(_ context.Context, userID, hash string) error {
	u, ok := f.byID[userID]
	if !ok {
		return sql.ErrNoRows
	}
	u.PasswordHash = hash
	f.byID[userID] = u
	f.users[u.Email] = u
	return nil
}

func TestSignUpAndSignIn(t *testing.T) {
	svc := NewService(newFakeUserStore())
	ctx := context.Background()

	user, err := svc.SignUp(ctx, SignUpRequest{
		Email: "martin@emittiv.com", Password: "correct-horse", DisplayName: "Martin Robert",
	})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if user.Role != "editor" {
		t.Fatalf("role = %q, want editor", user.Role)
	}
	if user.PasswordHash == "correct-horse" {
		t.Fatal("password stored in the clear")
	}

	got, err := svc.SignIn(ctx, "martin@emittiv.com", "correct-horse")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("SignIn user = %+v", got)
	}
}

func TestSignInWrongPassword(t *testing.T) {
	fs := newFakeUserStore()
	svc := NewService(fs)
	ctx := context.Background()
	if _, err := svc.SignUp(ctx, SignUpRequest{Email: "a@b.c", Password: "password-1", DisplayName: "A"}); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	if _, err := svc.SignIn(ctx, "a@b.c", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.SignIn(ctx, "nobody@b.c", "password-1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestSignUpValidation(t *testing.T) {
	svc := NewService(newFakeUserStore())
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, SignUpRequest{Email: "a@b.c", Password: "short", DisplayName: "A"}); err == nil {
		t.Fatal("accepted a short password")
	}
	if _, err := svc.SignUp(ctx, SignUpRequest{Password: "long-enough", DisplayName: "A"}); err == nil {
		t.Fatal("accepted a missing email")
	}

	if _, err := svc.SignUp(ctx, SignUpRequest{Email: "a@b.c", Password: "password-1", DisplayName: "A"}); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if _, err := svc.SignUp(ctx, SignUpRequest{Email: "a@b.c", Password: "password-2", DisplayName: "B"}); err == nil {
		t.Fatal("accepted a duplicate email")
	}
}

func TestChangePassword(t *testing.T) {
	svc := NewService(newFakeUserStore())
	ctx := context.Background()
	user, err := svc.SignUp(ctx, SignUpRequest{Email: "a@b.c", Password: "password-1", DisplayName: "A"})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	if err := svc.ChangePassword(ctx, user.ID, "wrong", "password-2"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if err := svc.ChangePassword(ctx, user.ID, "password-1", "password-2"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := svc.SignIn(ctx, "a@b.c", "password-2"); err != nil {
		t.Fatalf("SignIn with new password: %v", err)
	}
	if _, err := svc.SignIn(ctx, "a@b.c", "password-1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still works: %v", err)
	}
}
