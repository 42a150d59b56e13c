package tgutil

import (
	"testing"

	"github.com/gotd/td/tg"
)

func TestGetPeerID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		peer tg.PeerClass
		id   int64
		text string
	}{
		{peer: &tg.PeerUser{UserID: 42}, id: 42, text: "user:42"},
		{peer: &tg.PeerChat{ChatID: 7}, id: 7, text: "chat:7"},
		{peer: &tg.PeerChannel{ChannelID: 100}, id: 100, text: "channel:100"},
		{peer: nil, id: 0, text: "unknown"},
	}
	for _, tc := range cases {
		if got := GetPeerID(tc.peer); got != tc.id {
			t.Errorf("GetPeerID(%v) = %d, want %d", tc.peer, got, tc.id)
		}
		if got := PeerLabel(tc.peer); got != tc.text {
			t.Errorf("PeerLabel(%v) = %q, want %q", tc.peer, got, tc.text)
		}
	}
}

func TestReplyToID(t *testing.T) {
	t.Parallel()

	if got := ReplyToID(nil); got != 0 {
		t.Fatalf("ReplyToID(nil) = %d", got)
	}
	if got := ReplyToID(&tg.Message{}); got != 0 {
		t.Fatalf("ReplyToID(no header) = %d", got)
	}
	msg := &tg.Message{ReplyTo: &tg.MessageReplyHeader{ReplyToMsgID: 17}}
	if got := ReplyToID(msg); got != 17 {
		t.Fatalf("ReplyToID() = %d, want 17", got)
	}
}
