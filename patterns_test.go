package lifeback

import (
	"context"
	"errors"
	"testing"

	"github.com/suyash-sneo/lifeback/internal/fakestore"
	"github.com/suyash-sneo/lifeback/life"
)

func TestStaticPatternProvider(t *testing.T) {
	provider := NewStaticPatternProvider()
	p, err := provider.Get(context.Background(), " Glider ")
	if err != nil {
		t.Fatalf("get err: %v", err)
	}
	if p.Name != "glider" {
		t.Fatalf("unexpected pattern %q", p.Name)
	}
	list, err := provider.List(context.Background())
	if err != nil || len(list) != len(life.Builtins()) {
		t.Fatalf("expected all builtins, got %d err=%v", len(list), err)
	}
}

func TestPatternNotFoundSuggests(t *testing.T) {
	provider := NewStaticPatternProvider()
	_, err := provider.Get(context.Background(), "glidr")
	if !errors.Is(err, ErrPatternNotFound) {
		t.Fatalf("expected ErrPatternNotFound, got %v", err)
	}
	var nf *PatternNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected *PatternNotFoundError, got %T", err)
	}
	found := false
	for _, s := range nf.Suggestions {
		if s == "glider" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected glider among suggestions, got %v", nf.Suggestions)
	}
	if len(nf.Suggestions) > 3 {
		t.Fatalf("expected at most 3 suggestions, got %v", nf.Suggestions)
	}
}

func TestStorePatternProviderSaveShadowsBuiltin(t *testing.T) {
	st := fakestore.New()
	ctx := context.Background()
	provider := NewStorePatternProvider(st, nil, "s-1")

	custom := life.Pattern{Name: "Glider", Rows: []string{"OOO"}}
	if err := provider.Save(ctx, custom); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := provider.Get(ctx, "glider")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Rows) != 1 || got.Rows[0] != "OOO" {
		t.Fatalf("stored pattern should shadow builtin, got %+v", got)
	}

	list, err := provider.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != len(life.Builtins()) {
		t.Fatalf("shadowing must not duplicate names, got %d", len(list))
	}

	if err := provider.Delete(ctx, "glider"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err = provider.Get(ctx, "glider")
	if err != nil || len(got.Rows) != 3 {
		t.Fatalf("expected builtin glider after delete, got %+v err=%v", got, err)
	}
	if err := provider.Delete(ctx, "glider"); !errors.Is(err, ErrPatternNotFound) {
		t.Fatalf("deleting a builtin should report not found, got %v", err)
	}
}

func TestStorePatternProviderRejectsInvalid(t *testing.T) {
	provider := NewStorePatternProvider(fakestore.New(), nil, "")
	if err := provider.Save(context.Background(), life.Pattern{Name: "empty"}); err == nil {
		t.Fatalf("expected validation error for empty pattern")
	}
}

func TestStorePatternProviderStoreError(t *testing.T) {
	st := fakestore.New()
	provider := NewStorePatternProvider(st, nil, "")
	boom := errors.New("boom")
	st.FailNext = boom
	if _, err := provider.Get(context.Background(), "block"); !errors.Is(err, boom) {
		t.Fatalf("expected store error to surface, got %v", err)
	}
}
