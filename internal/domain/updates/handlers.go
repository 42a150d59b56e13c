// Package updates связывает входящие апдейты Telegram с командами владельца аккаунта.
// Обрабатываются только собственные сообщения (msg.Out): команды пишет сам
// пользователь, от чужих сообщений никаких эффектов быть не должно.
//
//  1. /logs on|off — переключает зеркалирование журнала и правит команду в подтверждение;
//  2. /fr — ответом на сообщение копирует его адресату, ставит реакцию на
//     оригинал и удаляет саму команду.
//
// Каждый обработчик возвращает явный результат (LogsResult/ForwardResult), чтобы
// тесты проверяли вид сбоя, а не текст строки журнала.
package updates

import (
	"context"
	"fmt"

	"github.com/gotd/td/tg"
	"go.uber.org/zap"

	"telegram-forwarder/internal/domain/commands"
	"telegram-forwarder/internal/domain/logsink"
	"telegram-forwarder/internal/infra/logger"
	"telegram-forwarder/internal/support/debug"
	"telegram-forwarder/internal/tgutil"
)

// Тексты подтверждений и строк журнала.
const (
	LogsOnText     = "✅ Logs ON"
	LogsOffText    = "❌ Logs OFF"
	copyingFormat  = "-> Copying to: %s..."
	successLine    = "-> Success!"
	errorFormat    = "Error: %v"
	defaultEmoji   = "⚡"
	defaultDestine = "UsBabyUs"
)

// Messenger — операции над сообщениями, которые нужны командам.
type Messenger interface {
	// EditText заменяет текст сообщения msg.
	EditText(ctx context.Context, msg *tg.Message, text string) error
	// ReplyMessage загружает сообщение, на которое отвечает msg.
	ReplyMessage(ctx context.Context, msg *tg.Message) (*tg.Message, error)
	// Copy копирует src (текст и медиа, без заголовка пересылки) адресату target.
	Copy(ctx context.Context, src *tg.Message, target string) error
	// React ставит реакцию emoji на сообщение msgID в чате chat.
	React(ctx context.Context, chat tg.PeerClass, msgID int, emoji string) error
	// Delete удаляет msg у всех участников.
	Delete(ctx context.Context, msg *tg.Message) error
}

// LogSink — журнал команд (см. logsink.Sink).
type LogSink interface {
	Send(ctx context.Context, text string) bool
}

// Options — настраиваемые параметры команд.
type Options struct {
	DefaultDestination string
	ReactionEmoji      string
}

// Handlers агрегирует зависимости обработчиков команд.
type Handlers struct {
	msgr  Messenger
	sink  LogSink
	state *logsink.State
	opts  Options
}

// NewHandlers связывает транспорт, журнал и флаг логирования.
func NewHandlers(msgr Messenger, sink LogSink, state *logsink.State, opts Options) *Handlers {
	if opts.DefaultDestination == "" {
		opts.DefaultDestination = defaultDestine
	}
	if opts.ReactionEmoji == "" {
		opts.ReactionEmoji = defaultEmoji
	}
	return &Handlers{msgr: msgr, sink: sink, state: state, opts: opts}
}

// OnNewMessage — входящие и исходящие сообщения в личках и группах.
func (h *Handlers) OnNewMessage(ctx context.Context, _ tg.Entities, u *tg.UpdateNewMessage) error {
	if msg, ok := u.Message.(*tg.Message); ok {
		h.Dispatch(ctx, msg)
	}
	return nil
}

// OnNewChannelMessage — то же для каналов и супергрупп.
func (h *Handlers) OnNewChannelMessage(ctx context.Context, _ tg.Entities, u *tg.UpdateNewChannelMessage) error {
	if msg, ok := u.Message.(*tg.Message); ok {
		h.Dispatch(ctx, msg)
	}
	return nil
}

// Dispatch направляет собственное сообщение в нужный обработчик.
// Ошибки не возвращаются в gotd: сбой одной команды не должен рвать поток апдейтов.
func (h *Handlers) Dispatch(ctx context.Context, msg *tg.Message) {
	if msg == nil || !msg.Out {
		return
	}
	switch commands.Match(msg.Message) {
	case commands.KindLogs:
		debug.PrintUpdate("logs", msg)
		res := h.HandleLogs(ctx, msg)
		if res.Err != nil {
			logger.Warn("logs command: edit failed", zap.Int("msg_id", msg.ID), zap.Error(res.Err))
		}
	case commands.KindForward:
		debug.PrintUpdate("fr", msg)
		res := h.HandleForward(ctx, msg)
		logger.Debug("fr command finished",
			zap.String("peer", tgutil.PeerLabel(msg.PeerID)),
			zap.Int("msg_id", msg.ID),
			zap.Stringer("stage", res.Stage),
			zap.String("target", res.Target),
			zap.Error(res.Err),
		)
	}
}

// LogsResult — исход команды /logs.
type LogsResult struct {
	Action commands.LogsAction
	Edited bool
	Err    error
}

// HandleLogs переключает флаг и подтверждает это правкой самой команды.
// Неоднозначный текст — без изменений и без ответа.
func (h *Handlers) HandleLogs(ctx context.Context, msg *tg.Message) LogsResult {
	if msg == nil || !msg.Out {
		return LogsResult{}
	}

	action := commands.ParseLogs(msg.Message)
	var text string
	switch action {
	case commands.LogsOn:
		h.state.SetEnabled(true)
		text = LogsOnText
	case commands.LogsOff:
		h.state.SetEnabled(false)
		text = LogsOffText
	default:
		return LogsResult{Action: action}
	}

	if err := h.msgr.EditText(ctx, msg, text); err != nil {
		return LogsResult{Action: action, Err: err}
	}
	return LogsResult{Action: action, Edited: true}
}

// Stage — шаг /fr, на котором команда завершилась.
type Stage int

const (
	StageIgnored Stage = iota // не ответ или чужое сообщение
	StageResolve              // не удалось загрузить исходное сообщение
	StageCopy                 // не удалось скопировать
	StageDelete               // скопировано, но команда не удалена
	StageDone                 // всё выполнено
)

func (s Stage) String() string {
	switch s {
	case StageIgnored:
		return "ignored"
	case StageResolve:
		return "resolve"
	case StageCopy:
		return "copy"
	case StageDelete:
		return "delete"
	case StageDone:
		return "done"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// ForwardResult — исход команды /fr. Err != nil только для StageResolve/Copy/Delete.
// ReactionErr — сбой реакции; на Stage не влияет и в журнал не попадает.
type ForwardResult struct {
	Stage       Stage
	Target      string
	Original    *tg.Message
	Err         error
	ReactionErr error
}

// HandleForward копирует сообщение, на которое ответили командой /fr.
// Отката нет: если копия ушла, а удаление упало, копия остаётся.
func (h *Handlers) HandleForward(ctx context.Context, msg *tg.Message) ForwardResult {
	if msg == nil || !msg.Out || !isReply(msg) {
		return ForwardResult{Stage: StageIgnored}
	}

	res := ForwardResult{Target: commands.ForwardDestination(msg.Message, h.opts.DefaultDestination)}

	original, err := h.msgr.ReplyMessage(ctx, msg)
	if err != nil {
		return h.fail(ctx, res, StageResolve, err)
	}
	res.Original = original

	h.sink.Send(ctx, fmt.Sprintf(copyingFormat, res.Target))

	if err = h.msgr.Copy(ctx, original, res.Target); err != nil {
		return h.fail(ctx, res, StageCopy, err)
	}
	h.sink.Send(ctx, successLine)

	// Реакция — необязательный штрих: её ошибка глушится полностью.
	if reactErr := h.msgr.React(ctx, msg.PeerID, original.ID, h.opts.ReactionEmoji); reactErr != nil {
		res.ReactionErr = reactErr
		logger.Debug("reaction failed", zap.Int("msg_id", original.ID), zap.Error(reactErr))
	}

	if err = h.msgr.Delete(ctx, msg); err != nil {
		return h.fail(ctx, res, StageDelete, err)
	}

	res.Stage = StageDone
	return res
}

func (h *Handlers) fail(ctx context.Context, res ForwardResult, stage Stage, err error) ForwardResult {
	res.Stage = stage
	res.Err = err
	h.sink.Send(ctx, fmt.Sprintf(errorFormat, err))
	return res
}

func isReply(msg *tg.Message) bool { return tgutil.ReplyToID(msg) > 0 }
