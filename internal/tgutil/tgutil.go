package tgutil

import (
	"fmt"

	"github.com/gotd/td/tg"
)

// GetPeerID нормализует получателя до его числового идентификатора (user/chat/channel).
// Возвращает 0 для неизвестного типа peer.
func GetPeerID(peer tg.PeerClass) int64 {
	switch p := peer.(type) {
	case *tg.PeerUser:
		return p.UserID
	case *tg.PeerChat:
		return p.ChatID
	case *tg.PeerChannel:
		return p.ChannelID
	default:
		return 0
	}
}

// PeerLabel — короткая подпись peer для консоли и логов: "user:42", "chat:7", "channel:100".
func PeerLabel(peer tg.PeerClass) string {
	switch p := peer.(type) {
	case *tg.PeerUser:
		return fmt.Sprintf("user:%d", p.UserID)
	case *tg.PeerChat:
		return fmt.Sprintf("chat:%d", p.ChatID)
	case *tg.PeerChannel:
		return fmt.Sprintf("channel:%d", p.ChannelID)
	default:
		return "unknown"
	}
}

// ReplyToID возвращает ID сообщения, на которое отвечает msg, или 0.
// Флаги заголовка не проверяются: достаточно ненулевого ReplyToMsgID.
func ReplyToID(msg *tg.Message) int {
	if msg == nil {
		return 0
	}
	hdr, ok := msg.ReplyTo.(*tg.MessageReplyHeader)
	if !ok {
		return 0
	}
	return hdr.ReplyToMsgID
}
