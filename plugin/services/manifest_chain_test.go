package services

import (
	"context"
	"errors"
	"testing"

	"github.com/reglet-dev/plugin-checksum/plugin/entities"
)

// mockSource implements ManifestSource for testing
type mockSource struct {
	BaseFetcher
	found  *entities.Manifest
	err    error
	called bool
}

func (m *mockSource) Fetch(ctx context.Context, req entities.ManifestRequest) (*entities.Manifest, error) {
	m.called = true
	if m.err != nil {
		return nil, m.err
	}
	if m.found != nil {
		return m.found, nil
	}
	return m.FetchNext(ctx, req)
}

func TestBaseFetcher_Chain(t *testing.T) {
	req := entities.ManifestRequest{Name: "akismet", Version: "5.3"}

	t.Run("NextSourceCalled", func(t *testing.T) {
		s1 := &mockSource{}
		s2 := &mockSource{found: entities.NewManifest(nil)}

		head := Chain(s1, s2)

		got, err := head.Fetch(context.Background(), req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got == nil {
			t.Error("expected manifest, got nil")
		}
		if !s1.called || !s2.called {
			t.Error("both sources should be called")
		}
	})

	t.Run("ChainEndsWithNotFoundError", func(t *testing.T) {
		s1 := &mockSource{}

		_, err := s1.Fetch(context.Background(), req)
		var notFound *entities.ManifestNotFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("expected ManifestNotFoundError, got %T: %v", err, err)
		}
		if notFound.Request != req {
			t.Errorf("request = %v, want %v", notFound.Request, req)
		}
	})

	t.Run("ChainStopsOnFirstSuccess", func(t *testing.T) {
		s1 := &mockSource{found: entities.NewManifest(nil)}
		s2 := &mockSource{found: entities.NewManifest(nil)}

		Chain(s1, s2)

		if _, err := s1.Fetch(context.Background(), req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s2.called {
			t.Error("s2 should not be called")
		}
	})

	t.Run("ErrorStopsChain", func(t *testing.T) {
		boom := errors.New("boom")
		s1 := &mockSource{err: boom}
		s2 := &mockSource{found: entities.NewManifest(nil)}

		Chain(s1, s2)

		_, err := s1.Fetch(context.Background(), req)
		if !errors.Is(err, boom) {
			t.Errorf("expected boom, got %v", err)
		}
		if s2.called {
			t.Error("s2 should not be called")
		}
	})

	t.Run("EmptyChain", func(t *testing.T) {
		if Chain() != nil {
			t.Error("expected nil head for empty chain")
		}
	})
}
