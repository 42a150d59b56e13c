// Package commands разбирает текст служебных команд, которые владелец аккаунта
// пишет прямо в чатах. Пакет чисто текстовый: никакого обращения к Telegram,
// только распознавание префикса и аргументов.
//
//	/logs on|off       — включить/выключить зеркалирование логов в лог-чат;
//	/fr [@destination] — (ответом на сообщение) скопировать его адресату.
//
// Префикс сравнивается без учёта регистра и только в начале текста, поэтому
// "/FR", "/Logs off" и даже "/from" распознаются как команды.
package commands

import (
	"regexp"
	"strings"
)

// Kind — тип распознанной команды.
type Kind int

const (
	KindNone Kind = iota
	KindLogs
	KindForward
)

func (k Kind) String() string {
	switch k {
	case KindLogs:
		return "logs"
	case KindForward:
		return "fr"
	default:
		return "none"
	}
}

// LogsAction — что делать с флагом логирования.
type LogsAction int

const (
	LogsNoop LogsAction = iota
	LogsOn
	LogsOff
)

func (a LogsAction) String() string {
	switch a {
	case LogsOn:
		return "on"
	case LogsOff:
		return "off"
	default:
		return "noop"
	}
}

// MentionSigil — признак username-адресата в аргументах /fr.
const MentionSigil = "@"

var (
	logsPattern    = regexp.MustCompile(`(?i)^/logs`)
	forwardPattern = regexp.MustCompile(`(?i)^/fr`)
)

// Match определяет, является ли текст командой и какой.
func Match(text string) Kind {
	switch {
	case logsPattern.MatchString(text):
		return KindLogs
	case forwardPattern.MatchString(text):
		return KindForward
	default:
		return KindNone
	}
}

// ParseLogs решает судьбу флага по подстрокам: "on" проверяется первым,
// затем "off"; если нет ни того, ни другого — LogsNoop.
func ParseLogs(text string) LogsAction {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "on"):
		return LogsOn
	case strings.Contains(lower, "off"):
		return LogsOff
	default:
		return LogsNoop
	}
}

// ForwardDestination возвращает адресата для /fr: первый аргумент после
// команды, начинающийся с "@", иначе fallback.
// Правило намеренно шире «только второй токен»: "/fr @X" даёт то же, что и там,
// но "/fr reply_text @X" и "/fr hello @X" тоже дают "@X". Одиночный "@"
// адресатом не считается и уходит в fallback, а не в ошибку резолва.
func ForwardDestination(text, fallback string) string {
	parts := strings.Fields(text)
	for _, arg := range parts[min(1, len(parts)):] {
		if len(arg) > len(MentionSigil) && strings.HasPrefix(arg, MentionSigil) {
			return arg
		}
	}
	return fallback
}
