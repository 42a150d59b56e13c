package commands_test

import (
	"testing"

	"telegram-forwarder/internal/domain/commands"
)

func TestMatch(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want commands.Kind
	}{
		{text: "/logs on", want: commands.KindLogs},
		{text: "/LOGS off", want: commands.KindLogs},
		{text: "/logs", want: commands.KindLogs},
		{text: "/fr", want: commands.KindForward},
		{text: "/Fr @SomeChannel", want: commands.KindForward},
		{text: "/from here", want: commands.KindForward},
		{text: " /fr", want: commands.KindNone},
		{text: "please /fr", want: commands.KindNone},
		{text: "hello", want: commands.KindNone},
		{text: "", want: commands.KindNone},
	}

	for _, tc := range cases {
		if got := commands.Match(tc.text); got != tc.want {
			t.Errorf("Match(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestParseLogs(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want commands.LogsAction
	}{
		{text: "/logs on", want: commands.LogsOn},
		{text: "/logs ON", want: commands.LogsOn},
		{text: "/logs off", want: commands.LogsOff},
		{text: "/Logs OFF", want: commands.LogsOff},
		{text: "/logs", want: commands.LogsNoop},
		{text: "/logs status", want: commands.LogsNoop},
		// Проверка подстрочная: "on" внутри слова тоже включает.
		{text: "/logs monitor", want: commands.LogsOn},
	}

	for _, tc := range cases {
		if got := commands.ParseLogs(tc.text); got != tc.want {
			t.Errorf("ParseLogs(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestForwardDestination(t *testing.T) {
	t.Parallel()

	const fallback = "UsBabyUs"
	cases := []struct {
		name string
		text string
		want string
	}{
		{name: "no token", text: "/fr", want: fallback},
		{name: "mention", text: "/fr @SomeChannel", want: "@SomeChannel"},
		{name: "extra spaces", text: "/fr    @SomeChannel   tail", want: "@SomeChannel"},
		{name: "not a mention", text: "/fr SomeChannel", want: fallback},
		{name: "mention after text", text: "/fr reply_text @SomeChannel", want: "@SomeChannel"},
		{name: "bare sigil", text: "/fr @", want: fallback},
		{name: "first mention wins", text: "/fr @One @Two", want: "@One"},
		{name: "mention after word", text: "/fr hello @X", want: "@X"},
		{name: "sigil then mention", text: "/fr @ @X", want: "@X"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := commands.ForwardDestination(tc.text, fallback); got != tc.want {
				t.Fatalf("ForwardDestination(%q) = %q, want %q", tc.text, got, tc.want)
			}
		})
	}
}
