// Package chat defines the platform-neutral message, embed, and
// reaction surface the bot runs against. A gateway adapter supplies
// concrete implementations; tests use in-memory fakes.
package chat

import "strings"

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

var videoExtensions = []string{".mp4", ".webm", ".mov"}

// Attachment is a file attached to a message.
type Attachment struct {
	URL      string
	ProxyURL string
	Filename string
}

// ImageURL returns a URL suitable for a reverse image search, or an
// empty string when the attachment is neither an image nor a video.
// Video attachments resolve to a platform-rendered still frame.
func (a Attachment) ImageURL() string {
	if a.URL == "" {
		return ""
	}
	lower := strings.ToLower(a.URL)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return a.URL
		}
	}
	for _, ext := range videoExtensions {
		if strings.HasSuffix(lower, ext) && a.ProxyURL != "" {
			return a.ProxyURL + "?format=jpeg"
		}
	}
	return ""
}

// Message is a chat message as seen by the bot.
type Message struct {
	ID          string
	ChannelID   string
	GuildID     string
	AuthorID    string
	Content     string
	Attachments []Attachment

	// ReferenceID is the ID of the message this one replies to, empty
	// when the message is not a reply.
	ReferenceID string
}

// ImageAttachments returns the attachments that can serve as a search
// subject, in their original order.
func (m *Message) ImageAttachments() []Attachment {
	var images []Attachment
	for _, attachment := range m.Attachments {
		if attachment.ImageURL() != "" {
			images = append(images, attachment)
		}
	}
	return images
}

// EmbedField is a labelled value inside an embed.
type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

// Embed is a rich response card.
type Embed struct {
	Title         string
	URL           string
	Description   string
	AuthorName    string
	AuthorURL     string
	ThumbnailURL  string
	ImageURL      string
	FooterText    string
	FooterIconURL string
	Fields        []EmbedField
}

// AddField appends a field to the embed.
func (e *Embed) AddField(name, value string, inline bool) {
	e.Fields = append(e.Fields, EmbedField{Name: name, Value: value, Inline: inline})
}

// File is binary content uploaded alongside a reply.
type File struct {
	Name string
	Data []byte
}

// Reply is the bot's response to a command.
type Reply struct {
	Text  string
	Embed *Embed
	File  *File
}
