package chat_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"saucebot/internal/chat"
	"saucebot/internal/services"
)

func TestAttachmentImageURL(t *testing.T) {
	cases := []struct {
		name       string
		attachment chat.Attachment
		want       string
	}{
		{
			"native image",
			chat.Attachment{URL: "https://cdn.example/a.PNG"},
			"https://cdn.example/a.PNG",
		},
		{
			"video uses proxy frame",
			chat.Attachment{URL: "https://cdn.example/clip.mp4", ProxyURL: "https://proxy.example/clip.mp4"},
			"https://proxy.example/clip.mp4?format=jpeg",
		},
		{
			"video without proxy",
			chat.Attachment{URL: "https://cdn.example/clip.webm"},
			"",
		},
		{
			"unsupported type",
			chat.Attachment{URL: "https://cdn.example/doc.pdf"},
			"",
		},
		{
			"empty",
			chat.Attachment{},
			"",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.attachment.ImageURL(); got != tc.want {
				t.Fatalf("ImageURL() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestMessageImageAttachments(t *testing.T) {
	message := &chat.Message{
		Attachments: []chat.Attachment{
			{URL: "https://cdn.example/a.png"},
			{URL: "https://cdn.example/doc.pdf"},
			{URL: "https://cdn.example/clip.mov", ProxyURL: "https://proxy.example/clip.mov"},
		},
	}
	images := message.ImageAttachments()
	if len(images) != 2 {
		t.Fatalf("expected 2 image attachments, got %d", len(images))
	}
}

func TestKeycapRoundTrip(t *testing.T) {
	for n := 1; n <= 10; n++ {
		emoji := chat.KeycapEmoji(n)
		if emoji == "" {
			t.Fatalf("no emoji for %d", n)
		}
		if got := chat.KeycapToInt(emoji); got != n {
			t.Fatalf("KeycapToInt(KeycapEmoji(%d)) = %d", n, got)
		}
	}
	if chat.KeycapEmoji(0) != "" || chat.KeycapEmoji(11) != "" {
		t.Fatal("out of range numbers must not map to emoji")
	}
	if chat.KeycapToInt("🎉") != 0 {
		t.Fatal("non-keycap emoji must map to zero")
	}
}

func TestReactionBrokerDeliversMatch(t *testing.T) {
	broker := chat.NewReactionBroker()

	done := make(chan chat.Reaction, 1)
	go func() {
		reaction, err := broker.Await(context.Background(), time.Second, func(r chat.Reaction) bool {
			return r.MessageID == "prompt-1" && r.UserID == "user-1"
		})
		if err != nil {
			t.Errorf("Await failed: %v", err)
		}
		done <- reaction
	}()

	// Non-matching reactions are ignored.
	deadline := time.After(2 * time.Second)
	for {
		broker.Publish(chat.Reaction{MessageID: "prompt-1", UserID: "someone-else", Emoji: chat.KeycapEmoji(1)})
		broker.Publish(chat.Reaction{MessageID: "prompt-1", UserID: "user-1", Emoji: chat.KeycapEmoji(2)})
		select {
		case reaction := <-done:
			if reaction.Emoji != chat.KeycapEmoji(2) {
				t.Fatalf("wrong reaction delivered: %+v", reaction)
			}
			return
		case <-deadline:
			t.Fatal("matching reaction never delivered")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func TestReactionBrokerTimeout(t *testing.T) {
	broker := chat.NewReactionBroker()
	_, err := broker.Await(context.Background(), 20*time.Millisecond, func(chat.Reaction) bool { return true })
	if !errors.Is(err, services.ErrSelectionTimedOut) {
		t.Fatalf("expected ErrSelectionTimedOut, got %v", err)
	}
}

func TestReactionBrokerContextCancel(t *testing.T) {
	broker := chat.NewReactionBroker()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := broker.Await(ctx, time.Second, func(chat.Reaction) bool { return true })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
