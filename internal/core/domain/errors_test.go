package domain

import (
	"errors"
	"testing"
)

func TestErrors_Categories(t *testing.T) {
	cases := map[error]error{
		ErrUserNotFound:       ErrNotFound,
		ErrInvalidCredentials: ErrUnauthorized,
		ErrWrongPassword:      ErrConflict,
		ErrInvalidToken:       ErrUnauthorized,
		ErrInvalidAPIKey:      ErrUnauthorized,
		ErrInvalidRole:        ErrValidation,
	}
	for err, category := range cases {
		if !errors.Is(err, category) {
			t.Fatalf("%v should wrap %v", err, category)
		}
	}
}

func TestConflictError(t *testing.T) {
	var err error = &ConflictError{Field: FieldEmail, Value: "a@x.com"}

	if !errors.Is(err, ErrConflict) {
		t.Fatalf("conflict error should wrap ErrConflict")
	}
	var ce *ConflictError
	if !errors.As(err, &ce) || ce.Field != FieldEmail {
		t.Fatalf("expected field email, got %+v", ce)
	}
	if err.Error() != "user with email 'a@x.com' already exists" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}
