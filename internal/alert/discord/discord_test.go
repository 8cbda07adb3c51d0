package discord

import (
	"fmt"
	"testing"

	"github.com/bwmarrin/discordgo"
)

// mockSession records sent messages and can simulate failures.
type mockSession struct {
	sendErr  error
	channels []string
	contents []string
}

func (m *mockSession) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	m.channels = append(m.channels, channelID)
	m.contents = append(m.contents, content)
	return &discordgo.Message{ID: "1", ChannelID: channelID, Content: content}, nil
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Opts{BotToken: "tok"}); err == nil {
		t.Error("expected error for missing channel")
	}
	if _, err := New(Opts{ChannelID: "C1"}); err == nil {
		t.Error("expected error for missing token without injected session")
	}
}

func TestPost(t *testing.T) {
	m := &mockSession{}
	n, err := New(Opts{ChannelID: "123456", Session: m})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := n.Post("RFQ rfq-1 needs attention"); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if len(m.channels) != 1 || m.channels[0] != "123456" {
		t.Errorf("channels = %v, want [123456]", m.channels)
	}
	if m.contents[0] != "RFQ rfq-1 needs attention" {
		t.Errorf("content = %q", m.contents[0])
	}
}

func TestPost_Error(t *testing.T) {
	m := &mockSession{sendErr: fmt.Errorf("missing access")}
	n, err := New(Opts{ChannelID: "123456", Session: m})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := n.Post("hello"); err == nil {
		t.Fatal("expected error")
	}
}
