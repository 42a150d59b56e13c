// Package logsink — «журнал» команд пересыльщика.
// Каждая строка всегда печатается в консоль процесса (через pr, мимо уровня
// LOG_LEVEL) и дублируется в zap на debug для файлового лога; если зеркалирование
// включено, та же строка уходит моноширинным текстом в лог-чат (по умолчанию
// Saved Messages). Ошибка доставки в лог-чат не должна ни ронять команду,
// ни порождать новую запись в лог-чате, поэтому она только трассируется в debug.
package logsink

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"telegram-forwarder/internal/infra/logger"
	"telegram-forwarder/internal/infra/pr"
)

// State — флаг зеркалирования логов. Переживает только текущий процесс.
// atomic: апдейты gotd обрабатываются из нескольких горутин одновременно.
type State struct {
	enabled atomic.Bool
}

// NewState создаёт флаг с начальным значением.
func NewState(enabled bool) *State {
	s := &State{}
	s.enabled.Store(enabled)
	return s
}

// Enabled сообщает, включено ли зеркалирование.
func (s *State) Enabled() bool { return s.enabled.Load() }

// SetEnabled переключает зеркалирование.
func (s *State) SetEnabled(v bool) { s.enabled.Store(v) }

// Delivery отправляет сообщения в чат-адресат (реализуется адаптером Telegram).
type Delivery interface {
	// SendLog отправляет text в chat, оформленным как код.
	SendLog(ctx context.Context, chat, text string) error
	// SendNotice отправляет заметку с жирным заголовком и обычным телом.
	SendNotice(ctx context.Context, chat, title, body string) error
}

// Sink — точка записи строк журнала.
type Sink struct {
	state    *State
	delivery Delivery
	chat     string
}

// New связывает флаг, транспорт и лог-чат.
func New(state *State, delivery Delivery, chat string) *Sink {
	return &Sink{state: state, delivery: delivery, chat: chat}
}

// Send печатает строку в консоль и, если зеркалирование включено, шлёт в лог-чат.
// Консольная копия не зависит ни от флага, ни от LOG_LEVEL.
// Возвращает true, если строка была отправлена в лог-чат успешно.
func (s *Sink) Send(ctx context.Context, text string) bool {
	pr.Println(text)
	logger.Debug("log line", zap.String("text", text))
	if !s.state.Enabled() || s.delivery == nil {
		return false
	}
	if err := s.delivery.SendLog(ctx, s.chat, text); err != nil {
		logger.Debug("log chat delivery failed", zap.String("chat", s.chat), zap.Error(err))
		return false
	}
	return true
}

// Announce отправляет стартовую заметку в лог-чат, если зеркалирование включено.
// В консоль не дублирует: там уже есть собственные записи запуска.
func (s *Sink) Announce(ctx context.Context, title, body string) bool {
	if !s.state.Enabled() || s.delivery == nil {
		return false
	}
	if err := s.delivery.SendNotice(ctx, s.chat, title, body); err != nil {
		logger.Debug("startup notice failed", zap.String("chat", s.chat), zap.Error(err))
		return false
	}
	return true
}
