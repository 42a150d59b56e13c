// Package messenger реализует операции над сообщениями через MTProto-клиента:
// правку, загрузку исходного сообщения, копирование без заголовка пересылки,
// реакции, удаление и отправку строк журнала в лог-чат.
// Пиры резолвятся через peersmgr, поэтому адаптер сам по себе сетевых
// запросов за access hash не делает (кроме ResolveDomain для @username).
package messenger

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/go-faster/errors"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/telegram/message/styling"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"

	"telegram-forwarder/internal/infra/logger"
	"telegram-forwarder/internal/infra/telegram/peersmgr"
	"telegram-forwarder/internal/tgutil"
)

// ErrMessageNotFound — исходное сообщение удалено или недоступно.
var ErrMessageNotFound = errors.New("original message not found")

// Client выполняет операции над сообщениями через заданный MTProto-клиент.
type Client struct {
	api    *tg.Client
	peers  *peersmgr.Service
	sender *message.Sender
}

// New создаёт адаптер. peers обязателен: без него не из чего брать access hash.
func New(api *tg.Client, peers *peersmgr.Service) *Client {
	if api == nil || peers == nil {
		panic("messenger: api and peers manager must not be nil")
	}
	return &Client{
		api:    api,
		peers:  peers,
		sender: message.NewSender(api),
	}
}

// EditText заменяет текст сообщения msg в его чате.
func (c *Client) EditText(ctx context.Context, msg *tg.Message, text string) error {
	peer, _, err := c.peers.InputPeer(ctx, msg.PeerID)
	if err != nil {
		return err
	}
	if _, err = c.api.MessagesEditMessage(ctx, &tg.MessagesEditMessageRequest{
		Peer:    peer,
		ID:      msg.ID,
		Message: text,
	}); err != nil {
		return errors.Wrap(err, "edit message")
	}
	return nil
}

// ReplyMessage загружает сообщение, на которое отвечает msg. Для каналов и
// супергрупп нужен channels.getMessages, для остальных — messages.getMessages.
func (c *Client) ReplyMessage(ctx context.Context, msg *tg.Message) (*tg.Message, error) {
	replyID := tgutil.ReplyToID(msg)
	if replyID == 0 {
		return nil, errors.New("message is not a reply")
	}

	_, channel, err := c.peers.InputPeer(ctx, msg.PeerID)
	if err != nil {
		return nil, err
	}

	ids := []tg.InputMessageClass{&tg.InputMessageID{ID: replyID}}
	var res tg.MessagesMessagesClass
	if channel != nil {
		res, err = c.api.ChannelsGetMessages(ctx, &tg.ChannelsGetMessagesRequest{Channel: channel, ID: ids})
	} else {
		res, err = c.api.MessagesGetMessages(ctx, ids)
	}
	if err != nil {
		return nil, errors.Wrap(err, "get original message")
	}

	original, err := FirstMessage(res)
	if err != nil {
		return nil, err
	}
	if original.PeerID == nil {
		original.PeerID = msg.PeerID
	}
	return original, nil
}

// Copy пересылает src адресату target с DropAuthor: получатель видит
// обычное сообщение без «Forwarded from», текст и медиа сохраняются.
func (c *Client) Copy(ctx context.Context, src *tg.Message, target string) error {
	toPeer, err := c.peers.ResolveTarget(ctx, target)
	if err != nil {
		return err
	}
	fromPeer, _, err := c.peers.InputPeer(ctx, src.PeerID)
	if err != nil {
		return err
	}

	logger.Debug("copy message",
		zap.String("from", tgutil.PeerLabel(src.PeerID)),
		zap.Int("msg_id", src.ID),
		zap.String("to", target),
	)

	if _, err = c.api.MessagesForwardMessages(ctx, &tg.MessagesForwardMessagesRequest{
		FromPeer:   fromPeer,
		ID:         []int{src.ID},
		RandomID:   []int64{rand.Int64()},
		ToPeer:     toPeer,
		DropAuthor: true,
	}); err != nil {
		return errors.Wrapf(err, "copy to %s", target)
	}
	return nil
}

// React ставит эмодзи-реакцию на сообщение msgID в чате chat.
func (c *Client) React(ctx context.Context, chat tg.PeerClass, msgID int, emoji string) error {
	peer, _, err := c.peers.InputPeer(ctx, chat)
	if err != nil {
		return err
	}
	_, err = c.api.MessagesSendReaction(ctx, &tg.MessagesSendReactionRequest{
		Peer:     peer,
		MsgID:    msgID,
		Reaction: []tg.ReactionClass{&tg.ReactionEmoji{Emoticon: emoji}},
	})
	return err
}

// Delete удаляет msg у всех участников чата.
func (c *Client) Delete(ctx context.Context, msg *tg.Message) error {
	_, channel, err := c.peers.InputPeer(ctx, msg.PeerID)
	if err != nil {
		return err
	}
	ids := []int{msg.ID}
	if channel != nil {
		_, err = c.api.ChannelsDeleteMessages(ctx, &tg.ChannelsDeleteMessagesRequest{Channel: channel, ID: ids})
	} else {
		_, err = c.api.MessagesDeleteMessages(ctx, &tg.MessagesDeleteMessagesRequest{Revoke: true, ID: ids})
	}
	if err != nil {
		return errors.Wrap(err, "delete command")
	}
	return nil
}

// SendLog отправляет строку журнала моноширинным текстом.
func (c *Client) SendLog(ctx context.Context, chat, text string) error {
	peer, err := c.peers.ResolveTarget(ctx, chat)
	if err != nil {
		return err
	}
	_, err = c.sender.To(peer).StyledText(ctx, styling.Code(text))
	return err
}

// SendNotice отправляет заметку: жирный заголовок и обычный текст с новой строки.
func (c *Client) SendNotice(ctx context.Context, chat, title, body string) error {
	peer, err := c.peers.ResolveTarget(ctx, chat)
	if err != nil {
		return err
	}
	_, err = c.sender.To(peer).StyledText(ctx, styling.Bold(title), styling.Plain("\n"+body))
	return err
}

// FirstMessage достаёт первое настоящее сообщение из ответа *.getMessages.
func FirstMessage(res tg.MessagesMessagesClass) (*tg.Message, error) {
	var list []tg.MessageClass
	switch r := res.(type) {
	case *tg.MessagesMessages:
		list = r.Messages
	case *tg.MessagesMessagesSlice:
		list = r.Messages
	case *tg.MessagesChannelMessages:
		list = r.Messages
	default:
		return nil, fmt.Errorf("unexpected response %T: %w", res, ErrMessageNotFound)
	}
	for _, m := range list {
		if msg, ok := m.(*tg.Message); ok {
			return msg, nil
		}
	}
	return nil, ErrMessageNotFound
}
