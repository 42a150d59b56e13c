package app

import (
	"context"
	"testing"

	"github.com/gotd/td/tg"
)

type countingHandler struct {
	calls int
}

func (h *countingHandler) Handle(context.Context, tg.UpdatesClass) error {
	h.calls++
	return nil
}

func TestLazyUpdateHandler(t *testing.T) {
	t.Parallel()

	lazy := &lazyUpdateHandler{}
	ctx := context.Background()

	// До set апдейты молча отбрасываются.
	if err := lazy.Handle(ctx, &tg.UpdatesTooLong{}); err != nil {
		t.Fatalf("Handle before set: %v", err)
	}

	next := &countingHandler{}
	lazy.set(next)
	if err := lazy.Handle(ctx, &tg.UpdatesTooLong{}); err != nil {
		t.Fatalf("Handle after set: %v", err)
	}
	if next.calls != 1 {
		t.Fatalf("calls = %d, want 1", next.calls)
	}

	dump := dumpHandler{next: next}
	if err := dump.Handle(ctx, &tg.UpdatesTooLong{}); err != nil {
		t.Fatalf("dumpHandler.Handle: %v", err)
	}
	if next.calls != 2 {
		t.Fatalf("calls = %d, want 2", next.calls)
	}
}
