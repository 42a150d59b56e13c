package logsink_test

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"telegram-forwarder/internal/domain/logsink"
	"telegram-forwarder/internal/infra/logger"
	"telegram-forwarder/internal/infra/pr"
)

type sent struct {
	chat string
	text string
}

type fakeDelivery struct {
	mu      sync.Mutex
	logs    []sent
	notices []sent
	err     error
}

func (f *fakeDelivery) SendLog(_ context.Context, chat, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, sent{chat: chat, text: text})
	return f.err
}

func (f *fakeDelivery) SendNotice(_ context.Context, chat, title, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, sent{chat: chat, text: title + "|" + body})
	return f.err
}

func TestSinkRespectsFlag(t *testing.T) {
	t.Parallel()

	state := logsink.NewState(true)
	d := &fakeDelivery{}
	sink := logsink.New(state, d, "me")
	ctx := context.Background()

	if !sink.Send(ctx, "-> Copying to: UsBabyUs...") {
		t.Fatal("Send() with logging on = false, want true")
	}

	state.SetEnabled(false)
	for _, line := range []string{"-> Success!", "Error: boom", ""} {
		if sink.Send(ctx, line) {
			t.Fatalf("Send(%q) with logging off delivered", line)
		}
	}

	state.SetEnabled(true)
	sink.Send(ctx, "-> Success!")

	want := []sent{
		{chat: "me", text: "-> Copying to: UsBabyUs..."},
		{chat: "me", text: "-> Success!"},
	}
	if !reflect.DeepEqual(d.logs, want) {
		t.Fatalf("delivered = %#v, want %#v", d.logs, want)
	}
}

func TestSinkSwallowsDeliveryErrors(t *testing.T) {
	t.Parallel()

	d := &fakeDelivery{err: errors.New("CHAT_WRITE_FORBIDDEN")}
	sink := logsink.New(logsink.NewState(true), d, "@logs")

	if sink.Send(context.Background(), "line") {
		t.Fatal("Send() reported success on failed delivery")
	}
	if len(d.logs) != 1 {
		t.Fatalf("delivery attempts = %d, want exactly 1 (no retries)", len(d.logs))
	}
}

func TestAnnounce(t *testing.T) {
	t.Parallel()

	state := logsink.NewState(false)
	d := &fakeDelivery{}
	sink := logsink.New(state, d, "me")

	if sink.Announce(context.Background(), "title", "body") {
		t.Fatal("Announce() with logging off delivered")
	}
	state.SetEnabled(true)
	if !sink.Announce(context.Background(), "title", "body") {
		t.Fatal("Announce() with logging on = false")
	}
	if len(d.notices) != 1 || d.notices[0].text != "title|body" || len(d.logs) != 0 {
		t.Fatalf("notices = %#v logs = %#v", d.notices, d.logs)
	}
}

func TestStateConcurrentToggle(t *testing.T) {
	t.Parallel()

	state := logsink.NewState(true)
	var wg sync.WaitGroup
	for i := range 64 {
		wg.Go(func() {
			state.SetEnabled(i%2 == 0)
			_ = state.Enabled()
		})
	}
	wg.Wait()
}

// Не parallel: подменяет глобальный вывод pr и уровень логгера.
func TestSinkAlwaysPrintsToConsole(t *testing.T) {
	var console bytes.Buffer
	pr.SetOutput(&console, &console)
	logger.Init("error")
	t.Cleanup(func() {
		pr.SetOutput(nil, nil)
		logger.Init("info")
	})

	d := &fakeDelivery{}
	sink := logsink.New(logsink.NewState(false), d, "me")
	sink.Send(context.Background(), "-> Copying to: UsBabyUs...")

	if !strings.Contains(console.String(), "-> Copying to: UsBabyUs...") {
		t.Fatalf("console = %q, want the log line even at LOG_LEVEL=error with logging off", console.String())
	}
	if len(d.logs) != 0 {
		t.Fatalf("delivered with logging off: %#v", d.logs)
	}
}
