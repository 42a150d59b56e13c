package debug

import "testing"

func TestTruncate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text  string
		limit int
		want  string
	}{
		{text: "short", limit: 10, want: "short"},
		{text: "exactly10!", limit: 10, want: "exactly10!"},
		{text: "привет мир", limit: 6, want: "привет..."},
		{text: "anything", limit: 0, want: "anything"},
	}
	for _, tc := range cases {
		if got := Truncate(tc.text, tc.limit); got != tc.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tc.text, tc.limit, got, tc.want)
		}
	}
}
