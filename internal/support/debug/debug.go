// Package debug — печать входящих команд в консоль при уровне логирования debug.
// Пакет не влияет на бизнес‑логику: при уровне info и выше все функции молчат.
package debug

import (
	"unicode/utf8"

	"github.com/gotd/td/tg"

	"telegram-forwarder/internal/infra/logger"
	"telegram-forwarder/internal/infra/pr"
	"telegram-forwarder/internal/tgutil"
)

// textMaxLen — сколько рун текста показывать в строке консоли.
const textMaxLen = 50

// Enabled сообщает, нужно ли печатать отладочный вывод.
func Enabled() bool { return logger.IsDebugEnabled() }

// PrintUpdate печатает компактное представление сообщения-команды.
// Формат: [prefix] <peer> #<id>: <обрезанный текст>.
func PrintUpdate(prefix string, msg *tg.Message) {
	if !Enabled() || msg == nil {
		return
	}
	pr.Printf("[%s] %s #%d: %s\n", prefix, tgutil.PeerLabel(msg.PeerID), msg.ID, Truncate(msg.Message, textMaxLen))
}

// Dump печатает структуру целиком (kr/pretty), например сырой апдейт.
func Dump(prefix string, v any) {
	if !Enabled() {
		return
	}
	pr.Printf("[%s] %s\n", prefix, pr.Pf(v))
}

// Truncate режет текст по рунам, а не по байтам, чтобы не порвать UTF‑8.
func Truncate(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit]) + "..."
}
