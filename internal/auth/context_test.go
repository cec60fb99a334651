package auth

import (
	"context"
	"testing"
)

func TestWithActorAndFromContext(t *testing.T) {
	ctx := WithActor(context.Background(), Parent(7))
	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected Actor in context")
	}
	if got.ID != 7 {
		t.Errorf("ID = %d, want 7", got.ID)
	}
	if !got.IsParent() || got.IsChild() {
		t.Errorf("Role = %q, want %q", got.Role, RoleParent)
	}
}

func TestFromContextMissing(t *testing.T) {
	_, ok := FromContext(context.Background())
	if ok {
		t.Error("expected false for missing Actor")
	}
}

func TestParseActor(t *testing.T) {
	tests := []struct {
		id, role string
		want     Actor
		wantErr  bool
	}{
		{"3", "parent", Parent(3), false},
		{"12", "child", Child(12), false},
		{"0", "parent", Actor{}, true},
		{"abc", "child", Actor{}, true},
		{"5", "admin", Actor{}, true},
		{"5", "", Actor{}, true},
	}
	for _, tt := range tests {
		got, err := ParseActor(tt.id, tt.role)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseActor(%q, %q) err = %v, wantErr %v", tt.id, tt.role, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseActor(%q, %q) = %+v, want %+v", tt.id, tt.role, got, tt.want)
		}
	}
}

func TestActorString(t *testing.T) {
	if s := Child(4).String(); s != "child:4" {
		t.Errorf("String() = %q, want %q", s, "child:4")
	}
}
