package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/99minutos/identity-service/internal/core/domain"
)

func TestUserService_Create_Success(t *testing.T) {
	f := newFixture(t)

	user := f.mustCreate(t, "a@x.com", "alice", "pw1-secret")

	if user.ID == "" {
		t.Fatalf("expected generated id")
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("expected default role USER, got %s", user.Role)
	}
	if user.PasswordHash == "" || user.PasswordHash == "pw1-secret" {
		t.Fatalf("expected password to be hashed")
	}
	raw, err := f.cipher.Decrypt(user.APIKeySecret)
	if err != nil {
		t.Fatalf("stored api key not decryptable: %v", err)
	}
	if !strings.HasPrefix(raw, "dev_") || len(raw) != 36 {
		t.Fatalf("unexpected api key format: %q", raw)
	}
}

func TestUserService_Create_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.mustCreate(t, "a@x.com", "alice", "pw1-secret")

	_, err := f.users.Create(context.Background(), domain.NewUser{Email: "a@x.com", Username: "bob", Password: "pw"})

	var ce *domain.ConflictError
	if !errors.As(err, &ce) || ce.Field != domain.FieldEmail {
		t.Fatalf("expected email conflict, got %v", err)
	}
}

func TestUserService_Create_DuplicateUsername(t *testing.T) {
	f := newFixture(t)
	f.mustCreate(t, "a@x.com", "alice", "pw1-secret")

	_, err := f.users.Create(context.Background(), domain.NewUser{Email: "b@x.com", Username: "alice", Password: "pw"})

	var ce *domain.ConflictError
	if !errors.As(err, &ce) || ce.Field != domain.FieldUsername {
		t.Fatalf("expected username conflict, got %v", err)
	}
	if ce.Value != "alice" {
		t.Fatalf("expected conflicting value alice, got %q", ce.Value)
	}
}

func TestUserService_Create_EmailWinsWhenBothCollide(t *testing.T) {
	f := newFixture(t)
	f.mustCreate(t, "a@x.com", "alice", "pw1-secret")
	f.mustCreate(t, "b@x.com", "bob", "pw1-secret")

	_, err := f.users.Create(context.Background(), domain.NewUser{Email: "b@x.com", Username: "alice", Password: "pw"})

	var ce *domain.ConflictError
	if !errors.As(err, &ce) || ce.Field != domain.FieldEmail {
		t.Fatalf("expected email conflict, got %v", err)
	}
}

func TestUserService_Create_CasePolicy(t *testing.T) {
	f := newFixture(t)
	created := f.mustCreate(t, "  Alice@X.com ", "Alice", "pw1-secret")

	if created.Email != "alice@x.com" {
		t.Fatalf("expected normalized email, got %q", created.Email)
	}

	// email is case-insensitive
	_, err := f.users.Create(context.Background(), domain.NewUser{Email: "ALICE@x.com", Username: "other", Password: "pw"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict for email differing only in case, got %v", err)
	}

	// username is case-sensitive
	if _, err := f.users.Create(context.Background(), domain.NewUser{Email: "lower@x.com", Username: "alice", Password: "pw"}); err != nil {
		t.Fatalf("expected distinct-case username to be accepted, got %v", err)
	}
}

func TestUserService_Create_InvalidRole(t *testing.T) {
	f := newFixture(t)

	_, err := f.users.Create(context.Background(), domain.NewUser{Email: "a@x.com", Username: "alice", Password: "pw", Role: "ROOT"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUserService_Create_SuppliedAPIKey(t *testing.T) {
	f := newFixture(t)

	user, err := f.users.Create(context.Background(), domain.NewUser{
		Email: "admin@x.com", Username: "admin", Password: "pw", Role: domain.RoleAdmin, APIKey: "dev_seeded",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	found, err := f.users.FindByAPIKey(context.Background(), "dev_seeded")
	if err != nil || found.ID != user.ID {
		t.Fatalf("expected lookup by seeded key, got %v %v", found, err)
	}
}

func TestUserService_FindByID(t *testing.T) {
	f := newFixture(t)
	user := f.mustCreate(t, "a@x.com", "alice", "pw1-secret")

	view, err := f.users.FindByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if view.Email != "a@x.com" || view.Username != "alice" {
		t.Fatalf("unexpected view: %+v", view)
	}

	if _, err := f.users.FindByID(context.Background(), "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUserService_FindByEmailSafe(t *testing.T) {
	f := newFixture(t)
	f.mustCreate(t, "a@x.com", "alice", "pw1-secret")

	user, err := f.users.FindByEmailSafe(context.Background(), "A@x.com")
	if err != nil || user == nil || user.PasswordHash == "" {
		t.Fatalf("expected full user, got %+v %v", user, err)
	}

	user, err = f.users.FindByEmailSafe(context.Background(), "ghost@x.com")
	if err != nil || user != nil {
		t.Fatalf("expected (nil, nil), got %+v %v", user, err)
	}

	if _, err := f.users.FindByEmail(context.Background(), "ghost@x.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected not found from throwing variant, got %v", err)
	}
}

func TestUserService_FindByAPIKey(t *testing.T) {
	f := newFixture(t)
	user := f.mustCreate(t, "a@x.com", "alice", "pw1-secret")
	raw, _ := f.cipher.Decrypt(user.APIKeySecret)

	found, err := f.users.FindByAPIKey(context.Background(), raw)
	if err != nil || found.ID != user.ID {
		t.Fatalf("expected user by api key, got %+v %v", found, err)
	}

	if _, err := f.users.FindByAPIKey(context.Background(), "dev_unknown"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUserService_Update(t *testing.T) {
	f := newFixture(t)
	user := f.mustCreate(t, "a@x.com", "alice", "pw1-secret")

	name := "Alice Liddell"
	email := "ALICE@wonder.land"
	updated, err := f.users.Update(context.Background(), user.ID, domain.UserPatch{Name: &name, Email: &email})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != name || updated.Email != "alice@wonder.land" || updated.Username != "alice" {
		t.Fatalf("unexpected merge result: %+v", updated)
	}
	if updated.PasswordHash != user.PasswordHash || updated.APIKeySecret != user.APIKeySecret {
		t.Fatalf("update must not touch secrets")
	}

	if _, err := f.users.Update(context.Background(), "missing", domain.UserPatch{Name: &name}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := f.users.Update(context.Background(), "missing", domain.UserPatch{}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected not found for empty patch, got %v", err)
	}
}

func TestUserService_Update_Conflict(t *testing.T) {
	f := newFixture(t)
	f.mustCreate(t, "a@x.com", "alice", "pw1-secret")
	bob := f.mustCreate(t, "b@x.com", "bob", "pw1-secret")

	username := "alice"
	if _, err := f.users.Update(context.Background(), bob.ID, domain.UserPatch{Username: &username}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUserService_ChangeRole(t *testing.T) {
	f := newFixture(t)
	user := f.mustCreate(t, "a@x.com", "alice", "pw1-secret")

	updated, err := f.users.ChangeRole(context.Background(), user.ID, domain.RoleAdmin)
	if err != nil || updated.Role != domain.RoleAdmin {
		t.Fatalf("expected ADMIN, got %+v %v", updated, err)
	}
	if _, err := f.users.ChangeRole(context.Background(), user.ID, "OWNER"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUserService_Remove(t *testing.T) {
	f := newFixture(t)
	user := f.mustCreate(t, "a@x.com", "alice", "pw1-secret")

	if err := f.users.Remove(context.Background(), user.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := f.users.Remove(context.Background(), user.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected not found on second remove, got %v", err)
	}
	if err := f.users.Remove(context.Background(), "never-existed"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUserService_ChangePassword(t *testing.T) {
	f := newFixture(t)
	user := f.mustCreate(t, "a@x.com", "alice", "pw1-secret")
	ctx := context.Background()

	if err := f.users.ChangePassword(ctx, user.ID, "wrong", "pw2-secret"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict for wrong current password, got %v", err)
	}
	if v, _ := f.auth.ValidateUser(ctx, "a@x.com", "pw1-secret"); v == nil {
		t.Fatalf("old password must still work after a failed change")
	}

	if err := f.users.ChangePassword(ctx, user.ID, "pw1-secret", "pw2-secret"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if v, _ := f.auth.ValidateUser(ctx, "a@x.com", "pw1-secret"); v != nil {
		t.Fatalf("old password must stop working after a successful change")
	}
	if v, _ := f.auth.ValidateUser(ctx, "a@x.com", "pw2-secret"); v == nil {
		t.Fatalf("new password must work")
	}

	if err := f.users.ChangePassword(ctx, "missing", "a", "b"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUserService_ListPage(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"alice", "bobby", "carol"} {
		f.mustCreate(t, name+"@x.com", name, "pw1-secret")
	}

	page, err := f.users.ListPage(context.Background(), domain.PageRequest{Page: 1, PerPage: 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Meta.PerPage != 2 {
		t.Fatalf("expected perPage clamped to 2, got %d", page.Meta.PerPage)
	}
	if len(page.Data) != 2 || page.Meta.Total != 3 || page.Meta.LastPage != 2 {
		t.Fatalf("unexpected page: %+v", page.Meta)
	}
}

func TestUserService_ListPage_HugePageIsEmpty(t *testing.T) {
	f := newFixture(t)
	f.mustCreate(t, "a@x.com", "alice", "pw1-secret")

	page, err := f.users.ListPage(context.Background(), domain.PageRequest{Page: math.MaxInt64, PerPage: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Data) != 0 || page.Meta.Total != 1 {
		t.Fatalf("expected an empty page past the end, got %+v", page.Meta)
	}
}

func TestUserService_RevealAndRotateAPIKey(t *testing.T) {
	f := newFixture(t)
	user := f.mustCreate(t, "a@x.com", "alice", "pw1-secret")
	ctx := context.Background()

	original, err := f.users.RevealAPIKey(ctx, user.ID)
	if err != nil {
		t.Fatalf("reveal: %v", err)
	}

	rotated, err := f.users.RotateAPIKey(ctx, user.ID)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if rotated == original {
		t.Fatalf("expected a new key")
	}
	if _, err := f.users.FindByAPIKey(ctx, original); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("old key must stop resolving, got %v", err)
	}
	if revealed, _ := f.users.RevealAPIKey(ctx, user.ID); revealed != rotated {
		t.Fatalf("reveal should return rotated key")
	}
}
