package worker

import (
	"context"
	"errors"
	"testing"
)

type fakeLedger struct {
	bucket string
	key    string
	ok     bool
	err    error
	calls  int
}

func (f *fakeLedger) ClaimCleanup(_ context.Context, _ string) (string, string, bool, error) {
	f.calls++
	return f.bucket, f.key, f.ok, f.err
}

type fakeDeleter struct {
	deleted [][2]string
	err     error
}

func (f *fakeDeleter) DeleteObject(_ context.Context, bucket, key string) error {
	f.deleted = append(f.deleted, [2]string{bucket, key})
	return f.err
}

func TestCleanupRender(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes claimed asset", func(t *testing.T) {
		ledger := &fakeLedger{bucket: "b", key: "uploads/x.mp4", ok: true}
		store := &fakeDeleter{}

		if err := cleanupRender(ctx, ledger, store, "r1"); err != nil {
			t.Fatalf("cleanupRender: %v", err)
		}
		if len(store.deleted) != 1 {
			t.Fatalf("expected 1 delete, got %d", len(store.deleted))
		}
		if store.deleted[0] != [2]string{"b", "uploads/x.mp4"} {
			t.Errorf("deleted wrong object: %v", store.deleted[0])
		}
	})

	t.Run("skips when claim not granted", func(t *testing.T) {
		ledger := &fakeLedger{ok: false}
		store := &fakeDeleter{}

		if err := cleanupRender(ctx, ledger, store, "r1"); err != nil {
			t.Fatalf("cleanupRender: %v", err)
		}
		if len(store.deleted) != 0 {
			t.Errorf("expected no deletes, got %d", len(store.deleted))
		}
	})

	t.Run("propagates claim error", func(t *testing.T) {
		want := errors.New("db down")
		ledger := &fakeLedger{err: want}
		store := &fakeDeleter{}

		if err := cleanupRender(ctx, ledger, store, "r1"); !errors.Is(err, want) {
			t.Fatalf("expected claim error, got %v", err)
		}
		if len(store.deleted) != 0 {
			t.Errorf("expected no deletes, got %d", len(store.deleted))
		}
	})

	t.Run("propagates delete error", func(t *testing.T) {
		want := errors.New("storage down")
		ledger := &fakeLedger{bucket: "b", key: "k", ok: true}
		store := &fakeDeleter{err: want}

		if err := cleanupRender(ctx, ledger, store, "r1"); !errors.Is(err, want) {
			t.Fatalf("expected delete error, got %v", err)
		}
	})
}
