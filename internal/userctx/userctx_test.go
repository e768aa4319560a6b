package userctx

import (
	"context"
	"testing"
)

func TestOwnerIDDefaultsWithoutIdentity(t *testing.T) {
	if got := OwnerID(context.Background()); got != DefaultOwnerID {
		t.Fatalf("expected %s, got %s", DefaultOwnerID, got)
	}
	if got := OwnerID(WithUserID(context.Background(), "")); got != DefaultOwnerID {
		t.Fatalf("expected empty user id to map to %s, got %s", DefaultOwnerID, got)
	}
}

func TestOwnerIDUsesAuthenticatedUser(t *testing.T) {
	ctx := WithUserID(context.Background(), "trainer-7")
	if got := OwnerID(ctx); got != "trainer-7" {
		t.Fatalf("expected trainer-7, got %s", got)
	}
	if id, ok := GetUserID(ctx); !ok || id != "trainer-7" {
		t.Fatalf("expected GetUserID to return trainer-7, got %q ok=%v", id, ok)
	}
}
