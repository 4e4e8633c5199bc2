package model

import (
	"errors"
	"testing"

	"github.com/and161185/secure-vault/internal/errs"
)

func TestParseFileID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"1", 1, false},
		{" 42 ", 42, false},
		{"", 0, true},
		{"abc", 0, true},
		{"1.5", 0, true},
		{"0", 0, true},
		{"-3", 0, true},
	}
	for _, c := range cases {
		got, err := ParseFileID(c.in)
		if c.wantErr {
			if !errors.Is(err, errs.ErrInvalidIDFormat) {
				t.Fatalf("ParseFileID(%q): want ErrInvalidIDFormat, got %v", c.in, err)
			}
			continue
		}
		if err != nil || got != c.want {
			t.Fatalf("ParseFileID(%q) = %d, %v; want %d", c.in, got, err, c.want)
		}
	}
}

func TestFileRecord_Access(t *testing.T) {
	t.Parallel()

	f := &FileRecord{ID: 1, Owner: "alice", SharedWith: []string{"bob"}}

	if !f.IsOwner("alice") || f.IsOwner("bob") {
		t.Fatalf("IsOwner mismatch")
	}
	if !f.CanRead("alice") || !f.CanRead("bob") {
		t.Fatalf("owner and shared user must read")
	}
	if f.CanRead("carol") || f.CanRead("") {
		t.Fatalf("unrelated user must not read")
	}
}
