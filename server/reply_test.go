package server

import (
	"bufio"
	"bytes"
	"testing"
)

func TestWriteReply(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	if err := writeReply(w, 220, "Service ready."); err != nil {
		t.Fatalf("writeReply: %v", err)
	}

	want := "220 Service ready.\r\n"
	if buf.String() != want {
		t.Errorf("writeReply wrote %q, want %q", buf.String(), want)
	}
}

func TestReplyFormatsArgs(t *testing.T) {
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)

	if err := reply(w, 257, "%q created.", "/alice/docs"); err != nil {
		t.Fatalf("reply: %v", err)
	}

	want := `257 "/alice/docs" created.` + "\r\n"
	if buf.String() != want {
		t.Errorf("reply wrote %q, want %q", buf.String(), want)
	}
}
