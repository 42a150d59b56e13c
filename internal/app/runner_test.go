package app

import (
	"context"
	"sync"
	"testing"

	"telegram-forwarder/internal/adapters/web"
)

func TestRunnerRefusesStartAfterStop(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := NewRunner(ctx, cancel, nil, nil, nil, web.NewServer("127.0.0.1:0"))
	r.stopAllServices()

	if r.startWebServer() {
		t.Fatal("startWebServer() after stop = true")
	}
	// updates.Manager не нужен: после остановки до него дело не доходит.
	if r.startUpdates(ctx, nil, 0) {
		t.Fatal("startUpdates() after stop = true")
	}
	// Повторная остановка — no-op.
	r.stopAllServices()
}

func TestRunnerStartStopConcurrently(t *testing.T) {
	t.Parallel()

	for range 20 {
		ctx, cancel := context.WithCancel(context.Background())
		r := NewRunner(ctx, cancel, nil, nil, nil, web.NewServer("127.0.0.1:0"))

		var wg sync.WaitGroup
		wg.Go(func() { r.startWebServer() })
		wg.Go(r.stopAllServices)
		wg.Wait()

		// Какая бы сторона ни выиграла, после второй остановки сервер не висит.
		r.stopAllServices()
		r.webWG.Wait()
		cancel()
	}
}
