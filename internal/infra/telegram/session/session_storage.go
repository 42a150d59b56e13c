// Package session содержит хранилище MTProto‑сессии, живущее в строке (SESSION_STRING).
//   - строка — URL-safe base64 от JSON, который gotd пишет в tdsession.Storage;
//   - строки Telethon StringSession (префикс версии "1") конвертируются при загрузке;
//   - обновления сессии во время работы держатся в памяти; Token() отдаёт актуальную строку.
// Файл на диске не нужен: хостинг часто не даёт постоянной ФС, а строку легко положить в env.
package session

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"

	"github.com/go-faster/errors"

	tdsession "github.com/gotd/td/session"
)

const telethonVersionPrefix = "1"

var encoding = base64.RawURLEncoding

// ErrEmptySession — у хранилища ещё нет данных (логин не выполнен).
var ErrEmptySession = errors.New("session is empty")

// StringStorage реализует tdsession.Storage поверх байтов в памяти.
// Потокобезопасен: gotd сохраняет сессию из своих горутин.
type StringStorage struct {
	mux  sync.Mutex
	data []byte
}

var _ tdsession.Storage = (*StringStorage)(nil)

// NewStringStorage разбирает строку сессии. Пустая строка даёт пустое хранилище
// (нужно генератору, который начинает с нуля).
func NewStringStorage(ctx context.Context, token string) (*StringStorage, error) {
	s := &StringStorage{}
	token = strings.TrimSpace(token)
	if token == "" {
		return s, nil
	}

	if strings.HasPrefix(token, telethonVersionPrefix) {
		data, err := tdsession.TelethonSession(token)
		if err != nil {
			return nil, errors.Wrap(err, "decode telethon session")
		}
		loader := tdsession.Loader{Storage: s}
		if err = loader.Save(ctx, data); err != nil {
			return nil, errors.Wrap(err, "import telethon session")
		}
		return s, nil
	}

	raw, err := encoding.DecodeString(token)
	if err != nil {
		return nil, errors.Wrap(err, "decode session string")
	}
	s.data = raw

	// Проверяем, что внутри действительно сессия gotd, чтобы упасть на старте, а не при коннекте.
	loader := tdsession.Loader{Storage: s}
	if _, err = loader.Load(ctx); err != nil {
		return nil, errors.Wrap(err, "parse session string")
	}
	return s, nil
}

// LoadSession отдаёт копию сохранённых байтов или tdsession.ErrNotFound.
func (s *StringStorage) LoadSession(_ context.Context) ([]byte, error) {
	if s == nil {
		return nil, errors.New("nil session storage is invalid")
	}
	s.mux.Lock()
	defer s.mux.Unlock()

	if len(s.data) == 0 {
		return nil, tdsession.ErrNotFound
	}
	return append([]byte(nil), s.data...), nil
}

// StoreSession запоминает копию байтов сессии.
func (s *StringStorage) StoreSession(_ context.Context, data []byte) error {
	if s == nil {
		return errors.New("nil session storage is invalid")
	}
	s.mux.Lock()
	defer s.mux.Unlock()

	s.data = append([]byte(nil), data...)
	return nil
}

// Token кодирует текущую сессию в строку для SESSION_STRING.
func (s *StringStorage) Token() (string, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	if len(s.data) == 0 {
		return "", ErrEmptySession
	}
	return encoding.EncodeToString(s.data), nil
}
