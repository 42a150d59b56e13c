package peersmgr

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/gotd/td/tg"
)

func TestNormalizeDialogsResponse(t *testing.T) {
	t.Parallel()

	slice := &tg.MessagesDialogsSlice{Dialogs: []tg.DialogClass{&tg.Dialog{TopMessage: 5}}}
	got, err := normalizeDialogsResponse(slice)
	if err != nil || len(got.Dialogs) != 1 {
		t.Fatalf("slice: got %+v err %v", got, err)
	}
	if _, err = normalizeDialogsResponse(&tg.MessagesDialogsNotModified{}); !errors.Is(err, errDialogsNotModified) {
		t.Fatalf("not modified: err = %v", err)
	}
}

func TestDialogPagination(t *testing.T) {
	t.Parallel()

	batch := &tg.MessagesDialogs{
		Users:    []tg.UserClass{&tg.User{ID: 1, AccessHash: 11}},
		Chats:    []tg.ChatClass{&tg.Channel{ID: 2, AccessHash: 22}, &tg.Chat{ID: 3}},
		Messages: []tg.MessageClass{&tg.Message{ID: 7, Date: 1700}, &tg.MessageService{ID: 8, Date: 1800}},
	}
	users, channels := map[int64]int64{}, map[int64]int64{}
	updateHashesFromBatch(batch, users, channels)

	if users[1] != 11 || channels[2] != 22 {
		t.Fatalf("hashes users=%v channels=%v", users, channels)
	}
	if d := messageDate(batch.Messages, 8); d != 1800 {
		t.Fatalf("messageDate(8) = %d", d)
	}
	if d := messageDate(batch.Messages, 99); d != dialogFetchZeroOffset {
		t.Fatalf("messageDate(99) = %d", d)
	}

	in, ok := dialogPeerToInput(&tg.PeerChannel{ChannelID: 2}, users, channels).(*tg.InputPeerChannel)
	if !ok || in.AccessHash != 22 {
		t.Fatalf("dialogPeerToInput(channel) = %+v", in)
	}
	if _, ok = dialogPeerToInput(nil, users, channels).(*tg.InputPeerEmpty); !ok {
		t.Fatal("dialogPeerToInput(nil) is not empty peer")
	}
}

func TestPersistMarksDatabaseNonEmpty(t *testing.T) {
	t.Parallel()

	svc, err := New(tg.NewClient(nil), filepath.Join(t.TempDir(), "data", "peers.bbolt"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })

	empty, err := svc.isDatabaseEmpty()
	if err != nil || !empty {
		t.Fatalf("fresh db: empty=%v err=%v", empty, err)
	}

	// Диалоги из MessagesGetDialogs всегда приходят с фото; без него канал не кодируется.
	saved := svc.persist(context.Background(),
		[]tg.UserClass{&tg.User{ID: 1, AccessHash: 11}},
		[]tg.ChatClass{&tg.Channel{ID: 2, AccessHash: 22, Photo: &tg.ChatPhotoEmpty{}}},
	)
	if saved != 2 {
		t.Fatalf("persist saved %d, want 2", saved)
	}

	empty, err = svc.isDatabaseEmpty()
	if err != nil || empty {
		t.Fatalf("after persist: empty=%v err=%v", empty, err)
	}
}
