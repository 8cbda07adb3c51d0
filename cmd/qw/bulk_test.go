package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestBulkCmd_Help(t *testing.T) {
	cmd := newRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"bulk", "--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("bulk --help failed: %v", err)
	}

	out := buf.String()
	for _, sub := range []string{"draft-outreach", "web-form", "mark-sent", "mark-error"} {
		if !strings.Contains(out, sub) {
			t.Errorf("expected help to list %q subcommand, got: %s", sub, out)
		}
	}
}

func TestBulkDraftOutreachCmd_ConcurrencyDefault(t *testing.T) {
	cmd := newBulkDraftOutreachCmd()
	flag := cmd.Flags().Lookup("concurrency")
	if flag == nil {
		t.Fatal("expected --concurrency flag")
	}
	if flag.DefValue != "3" {
		t.Errorf("--concurrency default = %q, want %q", flag.DefValue, "3")
	}
}

func TestBulkMarkSentCmd_ConcurrencyDefault(t *testing.T) {
	cmd := newBulkMarkSentCmd()
	flag := cmd.Flags().Lookup("concurrency")
	if flag == nil {
		t.Fatal("expected --concurrency flag")
	}
	if flag.DefValue != "3" {
		t.Errorf("--concurrency default = %q, want %q", flag.DefValue, "3")
	}
}

func TestBulkMarkErrorCmd_RequiresNote(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"bulk", "mark-error", "dst-00001"})

	if err := cmd.Execute(); err == nil {
		t.Error("expected error when --note is missing")
	}
}

func TestBulkDraftOutreachCmd_RequiresArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"bulk", "draft-outreach"})

	if err := cmd.Execute(); err == nil {
		t.Error("expected error when no destination IDs are given")
	}
}
