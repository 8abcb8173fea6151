package runner

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGroupCancelsOnError(t *testing.T) {
	g, ctx := WithContext(context.Background())
	boom := errors.New("boom")

	stopped := g.Go(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})
	failed := g.Go(ctx, func(ctx context.Context) error { return boom })

	if err := <-failed; !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	select {
	case err := <-stopped:
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("sibling worker was not cancelled")
	}
	if err := g.Wait(); !errors.Is(err, boom) {
		t.Fatalf("Wait should report boom, got %v", err)
	}
}

func TestZeroGroup(t *testing.T) {
	var g Group
	ch := g.Go(context.Background(), func(ctx context.Context) error { return nil })
	if err := <-ch; err != nil {
		t.Fatal(err)
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}
