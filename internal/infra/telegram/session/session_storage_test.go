package session

import (
	"bytes"
	"context"
	"errors"
	"testing"

	tdsession "github.com/gotd/td/session"
)

func sampleData() *tdsession.Data {
	return &tdsession.Data{
		DC:        2,
		Addr:      "149.154.167.50:443",
		AuthKey:   bytes.Repeat([]byte{0xAB}, 256),
		AuthKeyID: bytes.Repeat([]byte{0x01}, 8),
		Salt:      42,
	}
}

func TestStringStorageRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	src, err := NewStringStorage(ctx, "")
	if err != nil {
		t.Fatalf("NewStringStorage(empty) error = %v", err)
	}
	if _, err = src.Token(); !errors.Is(err, ErrEmptySession) {
		t.Fatalf("Token() on empty storage error = %v, want ErrEmptySession", err)
	}
	if err = (&tdsession.Loader{Storage: src}).Save(ctx, sampleData()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	token, err := src.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}

	dst, err := NewStringStorage(ctx, "  "+token+"\n")
	if err != nil {
		t.Fatalf("NewStringStorage(token) error = %v", err)
	}
	got, err := (&tdsession.Loader{Storage: dst}).Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := sampleData()
	if got.DC != want.DC || got.Addr != want.Addr || got.Salt != want.Salt || !bytes.Equal(got.AuthKey, want.AuthKey) {
		t.Fatalf("loaded session = %+v, want %+v", got, want)
	}
}

func TestStringStorageEmptyLoad(t *testing.T) {
	t.Parallel()

	s, err := NewStringStorage(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err = s.LoadSession(context.Background()); !errors.Is(err, tdsession.ErrNotFound) {
		t.Fatalf("LoadSession() error = %v, want ErrNotFound", err)
	}
}

func TestStringStorageRejectsGarbage(t *testing.T) {
	t.Parallel()

	cases := []string{
		"not base64 !!!",
		encoding.EncodeToString([]byte("not json")),
	}
	for _, token := range cases {
		if _, err := NewStringStorage(context.Background(), token); err == nil {
			t.Errorf("NewStringStorage(%q) error = nil, want failure", token)
		}
	}
}

func TestStoreSessionCopiesInput(t *testing.T) {
	t.Parallel()

	s := &StringStorage{}
	buf := []byte("abc")
	if err := s.StoreSession(context.Background(), buf); err != nil {
		t.Fatal(err)
	}
	buf[0] = 'x'
	got, err := s.LoadSession(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "abc" {
		t.Fatalf("stored data aliased caller buffer: %q", got)
	}
}
