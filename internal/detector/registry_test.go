package detector

import (
	"context"
	"errors"
	"testing"

	"github.com/alanyoungcy/dexmon/internal/domain"
)

type namedStrategy struct{ name string }

func (s *namedStrategy) Name() string { return s.name }

func (s *namedStrategy) Scan(ctx context.Context, pair string) (Result, error) {
	return Result{}, nil
}

func TestRegistryGet(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&namedStrategy{name: "spatial"})

	s, err := reg.Get("spatial")
	if err != nil {
		t.Fatal(err)
	}
	if s.Name() != "spatial" {
		t.Errorf("name = %q", s.Name())
	}

	_, err = reg.Get("missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRegistryAllSorted(t *testing.T) {
	reg := NewRegistry()
	for _, n := range []string{"triangular", "spatial", "statistical"} {
		reg.Register(&namedStrategy{name: n})
	}

	all := reg.All()
	want := []string{"spatial", "statistical", "triangular"}
	if len(all) != len(want) {
		t.Fatalf("len = %d, want %d", len(all), len(want))
	}
	for i, s := range all {
		if s.Name() != want[i] {
			t.Errorf("all[%d] = %q, want %q", i, s.Name(), want[i])
		}
	}
}

func TestRegistryReplaces(t *testing.T) {
	reg := NewRegistry()
	first := &namedStrategy{name: "spatial"}
	second := &namedStrategy{name: "spatial"}
	reg.Register(first)
	reg.Register(second)

	s, err := reg.Get("spatial")
	if err != nil {
		t.Fatal(err)
	}
	if s != Strategy(second) {
		t.Error("re-registration must replace the previous strategy")
	}
	if len(reg.All()) != 1 {
		t.Errorf("len = %d, want 1", len(reg.All()))
	}
}
