package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func dropStage(drop string) Stage[string, string] {
	return FilterStage(func(_ context.Context, s string) (bool, error) {
		return s != drop, nil
	})
}

func splitStage() Stage[string, string] {
	return FlatMapStage(func(_ context.Context, s string) ([]string, error) {
		return strings.Split(s, ""), nil
	})
}

func run[T any](t *testing.T, stage Stage[T, T], in ...T) []T {
	t.Helper()
	ctx := context.Background()
	var got []T
	for _, v := range in {
		it, err := stage.Process(ctx, v)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out, err := Pull(ctx, it)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, out...)
	}
	return got
}

func TestPipeline_EmptyIsIdentity(t *testing.T) {
	p := New[string]()
	if p.Len() != 0 {
		t.Fatalf("expected 0 stages, got %d", p.Len())
	}
	got := run[string](t, p, "a", "b")
	if diff := cmp.Diff([]string{"a", "b"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestPipeline_FilterPreservesOrder(t *testing.T) {
	p := New(dropStage("B"), dropStage("D"))
	got := run[string](t, p, "A", "B", "C", "D", "E")
	if diff := cmp.Diff([]string{"A", "C", "E"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestPipeline_FanOutThenFilter(t *testing.T) {
	p := New(splitStage(), dropStage("b"))
	got := run[string](t, p, "ab", "cb")
	if diff := cmp.Diff([]string{"a", "c"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestPipeline_DepthFirst(t *testing.T) {
	var trace []string
	record := func(name string) Stage[string, string] {
		return TapStage(func(_ context.Context, s string) error {
			trace = append(trace, name+":"+s)
			return nil
		})
	}
	p := New(splitStage(), record("s2"), record("s3"))
	it, err := p.Process(context.Background(), "xy")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Pull(context.Background(), it); err != nil {
		t.Fatal(err)
	}
	want := []string{"s2:x", "s3:x", "s2:y", "s3:y"}
	if diff := cmp.Diff(want, trace); diff != "" {
		t.Errorf("traversal order mismatch (-want +got):\n%s", diff)
	}
}

func TestPipeline_ThenDoesNotMutate(t *testing.T) {
	base := New(dropStage("a"))
	extended := base.Then(dropStage("b"))
	if base.Len() != 1 || extended.Len() != 2 {
		t.Errorf("unexpected lengths %d/%d", base.Len(), extended.Len())
	}
}

func TestPipeline_StageErrorSurfaces(t *testing.T) {
	boom := errors.New("boom")
	failing := MapStage(func(_ context.Context, s string) (string, error) {
		if s == "bad" {
			return "", boom
		}
		return strings.ToUpper(s), nil
	})
	p := New(Identity[string](), failing)

	it, err := p.Process(context.Background(), "ok")
	if err != nil {
		t.Fatal(err)
	}
	got, err := Pull(context.Background(), it)
	if err != nil || len(got) != 1 || got[0] != "OK" {
		t.Fatalf("expected [OK], got %v, %v", got, err)
	}

	it, err = p.Process(context.Background(), "bad")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Pull(context.Background(), it); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}

func TestPipeline_FirstStageError(t *testing.T) {
	boom := errors.New("boom")
	p := New[int](StageFunc[int, int](func(context.Context, int) (Iterator[int], error) {
		return nil, boom
	}))
	if _, err := p.Process(context.Background(), 1); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}

type closeCounter struct {
	Iterator[string]
	closed *int
}

func (c closeCounter) Close() error {
	*c.closed++
	return c.Iterator.Close()
}

func TestPipeline_CloseReleasesLevels(t *testing.T) {
	closed := 0
	tracking := StageFunc[string, string](func(_ context.Context, s string) (Iterator[string], error) {
		return closeCounter{Iterator: Of(s, s), closed: &closed}, nil
	})
	p := New(tracking, tracking)
	it, _ := p.Process(context.Background(), "x")
	if _, _, err := it.Next(context.Background()); err != nil {
		t.Fatal(err)
	}
	_ = it.Close()
	if closed != 2 {
		t.Errorf("expected both live levels closed, got %d", closed)
	}
}

func TestCompose_ChangesType(t *testing.T) {
	length := MapStage(func(_ context.Context, s string) (int, error) { return len(s), nil })
	double := MapStage(func(_ context.Context, n int) (int, error) { return n * 2, nil })
	stage := Compose(Compose[string, string, int](New(dropStage("")), length), double)

	var got []int
	for _, in := range []string{"ab", "", "abc"} {
		it, err := stage.Process(context.Background(), in)
		if err != nil {
			t.Fatal(err)
		}
		out, err := Pull(context.Background(), it)
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, out...)
	}
	if diff := cmp.Diff([]int{4, 6}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
