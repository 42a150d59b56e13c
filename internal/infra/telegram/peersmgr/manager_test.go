package peersmgr_test

import (
	"errors"
	"testing"

	"telegram-forwarder/internal/infra/telegram/peersmgr"
)

func TestParseTarget(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want peersmgr.Target
	}{
		{name: "saved messages", in: "me", want: peersmgr.Target{Kind: peersmgr.TargetSelf}},
		{name: "self upper", in: " SELF ", want: peersmgr.Target{Kind: peersmgr.TargetSelf}},
		{name: "mention", in: "@SomeChannel", want: peersmgr.Target{Kind: peersmgr.TargetUsername, Username: "SomeChannel"}},
		{name: "bare username", in: "UsBabyUs", want: peersmgr.Target{Kind: peersmgr.TargetUsername, Username: "UsBabyUs"}},
		{name: "link", in: "https://t.me/durov/12", want: peersmgr.Target{Kind: peersmgr.TargetUsername, Username: "durov"}},
		{name: "user id", in: "777000", want: peersmgr.Target{Kind: peersmgr.TargetUser, ID: 777000}},
		{name: "basic group", in: "-4012345", want: peersmgr.Target{Kind: peersmgr.TargetChat, ID: 4012345}},
		{name: "channel", in: "-1001234567890", want: peersmgr.Target{Kind: peersmgr.TargetChannel, ID: 1234567890}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := peersmgr.ParseTarget(tc.in)
			if err != nil {
				t.Fatalf("ParseTarget(%q) error = %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("ParseTarget(%q) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseTargetInvalid(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "   ", "@", "0"} {
		if _, err := peersmgr.ParseTarget(in); err == nil {
			t.Errorf("ParseTarget(%q) error = nil, want failure", in)
		}
	}
	if _, err := peersmgr.ParseTarget(""); !errors.Is(err, peersmgr.ErrEmptyTarget) {
		t.Errorf("ParseTarget(\"\") error = %v, want ErrEmptyTarget", err)
	}
}
