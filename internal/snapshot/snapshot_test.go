package snapshot

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/lumadb/graphql-engine/internal/metadata"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.snapshot")
	s := NewStore(path, zap.NewNop())

	md := metadata.Metadata{
		ObjectTypes: []metadata.ObjectType{
			{Name: metadata.QualifiedName{Subgraph: "app", Name: "User"}, GraphQLTypeName: "User"},
		},
	}

	if err := s.Save(md); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, ok, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true after a successful Save")
	}
	if len(loaded.ObjectTypes) != 1 || loaded.ObjectTypes[0].GraphQLTypeName != "User" {
		t.Fatalf("unexpected round-tripped metadata: %+v", loaded)
	}
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.snapshot")
	s := NewStore(path, zap.NewNop())

	_, ok, err := s.Load()
	if err != nil {
		t.Fatalf("expected no error for a missing snapshot, got %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false for a missing snapshot")
	}
}
