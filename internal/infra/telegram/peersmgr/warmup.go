package peersmgr

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	contribstorage "github.com/gotd/contrib/storage"
	"github.com/gotd/td/tg"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"telegram-forwarder/internal/infra/logger"
)

const (
	dialogFetchWaitMin    = 500 * time.Millisecond
	dialogFetchWaitMax    = 1500 * time.Millisecond
	dialogFetchPageLimit  = 100
	dialogFetchMaxPages   = 5
	dialogFetchZeroOffset = 0
)

var errDialogsNotModified = errors.New("dialogs not modified")

// WarmupIfEmpty при пустом кэше пиров выгружает последние диалоги, применяет их
// к менеджеру и сохраняет в bbolt. Без прогрева числовые адресаты (-100…) не
// резолвятся, пока из чата не придёт хотя бы один апдейт.
func (s *Service) WarmupIfEmpty(ctx context.Context) error {
	empty, err := s.isDatabaseEmpty()
	if err != nil {
		return fmt.Errorf("peersmgr: check db empty: %w", err)
	}
	if !empty {
		return nil
	}

	batch, err := fetchDialogs(ctx, s.api, dialogFetchMaxPages)
	if err != nil {
		return fmt.Errorf("peersmgr: fetch dialogs: %w", err)
	}
	if err = s.Mgr.Apply(ctx, batch.Users, batch.Chats); err != nil {
		return fmt.Errorf("peersmgr: apply dialogs: %w", err)
	}
	saved := s.persist(ctx, batch.Users, batch.Chats)
	logger.Debug("peers warmup complete",
		zap.Int("dialogs", len(batch.Dialogs)),
		zap.Int("saved", saved),
	)
	return nil
}

// persist пишет пиров в bbolt, пропуская те, что не удалось сконвертировать.
func (s *Service) persist(ctx context.Context, users []tg.UserClass, chats []tg.ChatClass) int {
	saved := 0
	for _, u := range users {
		var p contribstorage.Peer
		if !p.FromUser(u) {
			continue
		}
		if err := s.store.Add(ctx, p); err == nil {
			saved++
		}
	}
	for _, c := range chats {
		var p contribstorage.Peer
		if !p.FromChat(c) {
			continue
		}
		if err := s.store.Add(ctx, p); err == nil {
			saved++
		}
	}
	return saved
}

func (s *Service) isDatabaseEmpty() (bool, error) {
	empty := true
	err := s.db.View(func(tx *bbolt.Tx) error {
		if bucket := tx.Bucket(peersBucketBytes); bucket != nil {
			if key, _ := bucket.Cursor().First(); key != nil {
				empty = false
			}
		}
		return nil
	})
	return empty, err
}

// fetchDialogs постранично выгружает диалоги через MessagesGetDialogs, не больше maxPages страниц.
// Пагинация по (offset_date, offset_id, offset_peer) с access_hash из уже полученных страниц.
func fetchDialogs(ctx context.Context, api *tg.Client, maxPages int) (*tg.MessagesDialogs, error) {
	result := &tg.MessagesDialogs{}

	offsetDate := dialogFetchZeroOffset
	offsetID := dialogFetchZeroOffset
	var offsetPeer tg.InputPeerClass = &tg.InputPeerEmpty{}

	userHashes := make(map[int64]int64)
	channelHashes := make(map[int64]int64)

	for page := 0; page < maxPages; page++ {
		if err := randomPause(ctx); err != nil {
			return nil, err
		}

		resp, err := api.MessagesGetDialogs(ctx, &tg.MessagesGetDialogsRequest{
			OffsetDate: offsetDate,
			OffsetID:   offsetID,
			OffsetPeer: offsetPeer,
			Limit:      dialogFetchPageLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("MessagesGetDialogs: %w", err)
		}

		batch, err := normalizeDialogsResponse(resp)
		if err != nil {
			if errors.Is(err, errDialogsNotModified) {
				return result, nil
			}
			return nil, err
		}
		if len(batch.Dialogs) == 0 {
			break
		}

		result.Dialogs = append(result.Dialogs, batch.Dialogs...)
		result.Messages = append(result.Messages, batch.Messages...)
		result.Chats = append(result.Chats, batch.Chats...)
		result.Users = append(result.Users, batch.Users...)

		updateHashesFromBatch(batch, userHashes, channelHashes)

		if dlg, ok := batch.Dialogs[len(batch.Dialogs)-1].(*tg.Dialog); ok {
			if id := dlg.TopMessage; id != dialogFetchZeroOffset {
				offsetID = id
			}
			if date := messageDate(batch.Messages, dlg.TopMessage); date != dialogFetchZeroOffset {
				offsetDate = date
			}
			offsetPeer = dialogPeerToInput(dlg.Peer, userHashes, channelHashes)
		}

		if len(batch.Dialogs) < dialogFetchPageLimit {
			break
		}
	}

	return result, nil
}

// randomPause — случайная пауза между страницами, прерываемая ctx.
func randomPause(ctx context.Context) error {
	d := dialogFetchWaitMin + rand.N(dialogFetchWaitMax-dialogFetchWaitMin)
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func normalizeDialogsResponse(resp tg.MessagesDialogsClass) (*tg.MessagesDialogs, error) {
	switch data := resp.(type) {
	case *tg.MessagesDialogs:
		return data, nil
	case *tg.MessagesDialogsSlice:
		return &tg.MessagesDialogs{
			Dialogs:  data.Dialogs,
			Messages: data.Messages,
			Chats:    data.Chats,
			Users:    data.Users,
		}, nil
	case *tg.MessagesDialogsNotModified:
		return nil, errDialogsNotModified
	default:
		return nil, fmt.Errorf("unexpected dialogs response: %T", resp)
	}
}

func updateHashesFromBatch(batch *tg.MessagesDialogs, userHashes, channelHashes map[int64]int64) {
	for _, entity := range batch.Users {
		if user, ok := entity.(*tg.User); ok {
			userHashes[user.ID] = user.AccessHash
		}
	}
	for _, entity := range batch.Chats {
		if channel, ok := entity.(*tg.Channel); ok {
			channelHashes[channel.ID] = channel.AccessHash
		}
	}
}

func messageDate(messages []tg.MessageClass, id int) int {
	for _, msg := range messages {
		switch item := msg.(type) {
		case *tg.Message:
			if item.ID == id {
				return item.Date
			}
		case *tg.MessageService:
			if item.ID == id {
				return item.Date
			}
		}
	}
	return dialogFetchZeroOffset
}

func dialogPeerToInput(peer tg.PeerClass, userHashes, channelHashes map[int64]int64) tg.InputPeerClass {
	switch entity := peer.(type) {
	case *tg.PeerUser:
		return &tg.InputPeerUser{UserID: entity.UserID, AccessHash: userHashes[entity.UserID]}
	case *tg.PeerChat:
		return &tg.InputPeerChat{ChatID: entity.ChatID}
	case *tg.PeerChannel:
		return &tg.InputPeerChannel{ChannelID: entity.ChannelID, AccessHash: channelHashes[entity.ChannelID]}
	default:
		return &tg.InputPeerEmpty{}
	}
}
