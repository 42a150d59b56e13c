// Package peersmgr — обёртка над gotd peers.Manager с персистентным хранилищем на bbolt.
// Сервис отвечает за:
//   - открытие/закрытие файла bbolt, в котором лежат пиры и состояние апдейтов;
//   - загрузку сохранённых пиров в peers.Manager при старте (access hash без сетевых запросов);
//   - прогрев пустого кэша списком диалогов;
//   - резолв адресатов команд: "me", @username, t.me-ссылки и числовые Bot API id;
//   - получение InputPeer/InputChannel для чата, из которого пришло сообщение.
package peersmgr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	bboltdb "github.com/gotd/contrib/bbolt"
	contribstorage "github.com/gotd/contrib/storage"
	"github.com/gotd/td/telegram/peers"
	"github.com/gotd/td/telegram/query/dialogs"
	tgupdates "github.com/gotd/td/telegram/updates"
	"github.com/gotd/td/tg"
	"go.etcd.io/bbolt"

	"telegram-forwarder/internal/infra/storage"
)

const (
	peersBucketName = "peers"
	dbOpenTimeout   = time.Second
	// channelIDOffset — Bot API кодирует каналы как -100<id>.
	channelIDOffset int64 = 1_000_000_000_000
)

var peersBucketBytes = []byte(peersBucketName)

// ErrEmptyTarget — адресат не указан.
var ErrEmptyTarget = errors.New("peersmgr: empty target")

// Service инкапсулирует менеджер пиров и bbolt-хранилище.
type Service struct {
	api   *tg.Client
	db    *bbolt.DB
	store contribstorage.PeerStorage
	Mgr   *peers.Manager
}

// New создаёт сервис пиров поверх bbolt и gotd peers.Manager. Сетевых запросов не делает.
func New(api *tg.Client, dbPath string) (*Service, error) {
	if api == nil {
		return nil, errors.New("peersmgr: api client is nil")
	}
	path := strings.TrimSpace(dbPath)
	if path == "" {
		return nil, errors.New("peersmgr: db path is empty")
	}
	if err := storage.EnsureDir(path); err != nil {
		return nil, fmt.Errorf("peersmgr: %w", err)
	}

	db, err := bbolt.Open(path, storage.SecretFilePerm, &bbolt.Options{Timeout: dbOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("peersmgr: open db: %w", err)
	}

	return &Service{
		api:   api,
		db:    db,
		store: bboltdb.NewPeerStorage(db, peersBucketBytes),
		Mgr:   (peers.Options{}).Build(api),
	}, nil
}

// Close закрывает файл базы данных.
func (s *Service) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Store возвращает персистентное хранилище пиров (для UpdateHook).
func (s *Service) Store() contribstorage.PeerStorage {
	return s.store
}

// StateStorage возвращает хранилище состояния updates.Manager в том же файле bbolt.
func (s *Service) StateStorage() tgupdates.StateStorage {
	return bboltdb.NewStateStorage(s.db)
}

// LoadFromStorage прогружает сохранённые peers из bbolt в оперативный peers.Manager.
// Битые записи (старый формат) сбрасываются: кэш восстановится из апдейтов.
func (s *Service) LoadFromStorage(ctx context.Context) error {
	iter, exists, err := s.iterateStoredPeers(ctx)
	if err != nil {
		if isJSONUnmarshalError(err) {
			_ = s.resetPeersBucket()
			return nil
		}
		return fmt.Errorf("peersmgr: iterate stored peers: %w", err)
	}
	if !exists {
		return nil
	}
	defer func() {
		_ = iter.Close()
	}()

	users := make([]tg.UserClass, 0)
	chats := make([]tg.ChatClass, 0)

	for iter.Next(ctx) {
		value := iter.Value()
		switch value.Key.Kind {
		case dialogs.User:
			user := value.User
			if user == nil {
				user = &tg.User{ID: value.Key.ID, AccessHash: value.Key.AccessHash}
			}
			users = append(users, user)
		case dialogs.Chat:
			chat := value.Chat
			if chat == nil {
				chat = &tg.Chat{ID: value.Key.ID}
			}
			chats = append(chats, chat)
		case dialogs.Channel:
			channel := value.Channel
			if channel == nil {
				channel = &tg.Channel{ID: value.Key.ID, AccessHash: value.Key.AccessHash}
			}
			chats = append(chats, channel)
		}
	}

	if err = iter.Err(); err != nil {
		return fmt.Errorf("peersmgr: iterate stored peers: %w", err)
	}
	if len(users) == 0 && len(chats) == 0 {
		return nil
	}
	return s.Mgr.Apply(ctx, users, chats)
}

// InputPeer возвращает tg.InputPeerClass для peer из сообщения. Для каналов и
// супергрупп дополнительно отдаёт InputChannel (нужен channels.* методам), иначе nil.
func (s *Service) InputPeer(ctx context.Context, peer tg.PeerClass) (tg.InputPeerClass, tg.InputChannelClass, error) {
	switch p := peer.(type) {
	case *tg.PeerUser:
		user, err := s.Mgr.ResolveUserID(ctx, p.UserID)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve user %d: %w", p.UserID, err)
		}
		return user.InputPeer(), nil, nil
	case *tg.PeerChat:
		chat, err := s.Mgr.ResolveChatID(ctx, p.ChatID)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve chat %d: %w", p.ChatID, err)
		}
		return chat.InputPeer(), nil, nil
	case *tg.PeerChannel:
		channel, err := s.Mgr.ResolveChannelID(ctx, p.ChannelID)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve channel %d: %w", p.ChannelID, err)
		}
		return channel.InputPeer(), channel.InputChannel(), nil
	default:
		return nil, nil, fmt.Errorf("peersmgr: unsupported peer type %T", peer)
	}
}

// ResolveTarget превращает адресата из конфига или команды в InputPeer.
func (s *Service) ResolveTarget(ctx context.Context, target string) (tg.InputPeerClass, error) {
	t, err := ParseTarget(target)
	if err != nil {
		return nil, err
	}

	switch t.Kind {
	case TargetSelf:
		return &tg.InputPeerSelf{}, nil
	case TargetUsername:
		p, resolveErr := s.Mgr.ResolveDomain(ctx, t.Username)
		if resolveErr != nil {
			return nil, fmt.Errorf("resolve @%s: %w", t.Username, resolveErr)
		}
		return p.InputPeer(), nil
	case TargetUser:
		user, resolveErr := s.Mgr.ResolveUserID(ctx, t.ID)
		if resolveErr != nil {
			return nil, fmt.Errorf("resolve user %d: %w", t.ID, resolveErr)
		}
		return user.InputPeer(), nil
	case TargetChat:
		chat, resolveErr := s.Mgr.ResolveChatID(ctx, t.ID)
		if resolveErr != nil {
			return nil, fmt.Errorf("resolve chat %d: %w", t.ID, resolveErr)
		}
		return chat.InputPeer(), nil
	case TargetChannel:
		channel, resolveErr := s.Mgr.ResolveChannelID(ctx, t.ID)
		if resolveErr != nil {
			return nil, fmt.Errorf("resolve channel %d: %w", t.ID, resolveErr)
		}
		return channel.InputPeer(), nil
	default:
		return nil, fmt.Errorf("peersmgr: unsupported target %q", target)
	}
}

// TargetKind — форма, в которой задан адресат.
type TargetKind int

const (
	TargetSelf TargetKind = iota + 1
	TargetUsername
	TargetUser
	TargetChat
	TargetChannel
)

// Target — разобранный адресат.
type Target struct {
	Kind     TargetKind
	Username string
	ID       int64
}

// ParseTarget разбирает адресата:
//   - "me"/"self" → Saved Messages;
//   - "@name", "name", "t.me/name", "https://t.me/name" → username;
//   - положительное число → пользователь, "-N" → группа, "-100N" → канал/супергруппа.
func ParseTarget(raw string) (Target, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return Target{}, ErrEmptyTarget
	}
	if strings.EqualFold(v, "me") || strings.EqualFold(v, "self") {
		return Target{Kind: TargetSelf}, nil
	}

	if id, err := strconv.ParseInt(v, 10, 64); err == nil {
		switch {
		case id > 0:
			return Target{Kind: TargetUser, ID: id}, nil
		case id <= -channelIDOffset:
			return Target{Kind: TargetChannel, ID: -id - channelIDOffset}, nil
		case id < 0:
			return Target{Kind: TargetChat, ID: -id}, nil
		default:
			return Target{}, fmt.Errorf("peersmgr: invalid target id %q", raw)
		}
	}

	for _, prefix := range []string{"https://", "http://"} {
		v = strings.TrimPrefix(v, prefix)
	}
	v = strings.TrimPrefix(v, "t.me/")
	v = strings.TrimPrefix(v, "@")
	if i := strings.IndexAny(v, "/?"); i >= 0 {
		v = v[:i]
	}
	if v == "" {
		return Target{}, ErrEmptyTarget
	}
	return Target{Kind: TargetUsername, Username: v}, nil
}

func (s *Service) iterateStoredPeers(ctx context.Context) (contribstorage.PeerIterator, bool, error) {
	exists := false
	if err := s.db.View(func(tx *bbolt.Tx) error {
		exists = tx.Bucket(peersBucketBytes) != nil
		return nil
	}); err != nil {
		return nil, false, err
	}
	if !exists {
		return nil, false, nil
	}
	iter, err := s.store.Iterate(ctx)
	if err != nil {
		return nil, false, err
	}
	return iter, true, nil
}

func isJSONUnmarshalError(err error) bool {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return true
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return true
	}
	return strings.Contains(err.Error(), "json:")
}

func (s *Service) resetPeersBucket() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(peersBucketBytes); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(peersBucketBytes)
		return err
	})
}
