package infra

import (
	"context"
	"fmt"
	"io"
	"strings"

	"quotepilot/internal/config"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

// InboundMessage is one unread mailbox message. ID is the RFC 5322 Message-Id
// header — stable across connections, so it doubles as the dedup key persisted
// with each offer.
type InboundMessage struct {
	ID      string
	Sender  string
	Subject string
	Raw     string
}

// IMAPMailbox polls an IMAP inbox. A fresh connection is opened per call:
// the watcher cycles every few seconds and a broken long-lived session would
// otherwise poison every subsequent cycle.
type IMAPMailbox struct {
	addr     string
	user     string
	password string
	tls      bool
}

func NewIMAPMailbox(cfg *config.Config) *IMAPMailbox {
	return &IMAPMailbox{
		addr:     fmt.Sprintf("%s:%d", cfg.IMAPHost, cfg.IMAPPort),
		user:     cfg.IMAPUser,
		password: cfg.IMAPPassword,
		tls:      cfg.IMAPTLS,
	}
}

func (m *IMAPMailbox) connect() (*client.Client, error) {
	if m.tls {
		return client.DialTLS(m.addr, nil)
	}
	return client.Dial(m.addr)
}

// Unread returns all UNSEEN messages in INBOX with their full raw content.
func (m *IMAPMailbox) Unread(ctx context.Context) ([]InboundMessage, error) {
	c, err := m.connect()
	if err != nil {
		return nil, fmt.Errorf("imap dial %s: %w", m.addr, err)
	}
	defer c.Logout()

	if err := c.Login(m.user, m.password); err != nil {
		return nil, fmt.Errorf("imap login: %w", err)
	}
	if _, err := c.Select("INBOX", false); err != nil {
		return nil, fmt.Errorf("imap select: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	seqNums, err := c.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("imap search: %w", err)
	}
	if len(seqNums) == 0 {
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(seqNums...)

	// Fetch the full body with PEEK so the read does not flip \Seen — marking
	// read is the watcher's explicit decision after processing.
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, section.FetchItem()}

	ch := make(chan *imap.Message, len(seqNums))
	done := make(chan error, 1)
	go func() { done <- c.Fetch(seqset, items, ch) }()

	var msgs []InboundMessage
	for msg := range ch {
		im := InboundMessage{}
		if msg.Envelope != nil {
			im.ID = msg.Envelope.MessageId
			im.Subject = msg.Envelope.Subject
			if len(msg.Envelope.From) > 0 {
				im.Sender = msg.Envelope.From[0].Address()
			}
		}
		if body := msg.GetBody(section); body != nil {
			raw, err := io.ReadAll(body)
			if err == nil {
				im.Raw = string(raw)
			}
		}
		if im.ID == "" {
			// No Message-Id header — synthesize a stable key from the content
			// so dedup still holds for identical re-deliveries.
			im.ID = fmt.Sprintf("<synthetic-%x@quotepilot>", fnvSum(im.Sender+im.Subject+im.Raw))
		}
		msgs = append(msgs, im)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("imap fetch: %w", err)
	}
	return msgs, nil
}

// MarkSeen flags the message with the given Message-Id as read.
func (m *IMAPMailbox) MarkSeen(ctx context.Context, messageID string) error {
	c, err := m.connect()
	if err != nil {
		return fmt.Errorf("imap dial %s: %w", m.addr, err)
	}
	defer c.Logout()

	if err := c.Login(m.user, m.password); err != nil {
		return fmt.Errorf("imap login: %w", err)
	}
	if _, err := c.Select("INBOX", false); err != nil {
		return fmt.Errorf("imap select: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.Header.Add("Message-Id", strings.Trim(messageID, "<>"))
	seqNums, err := c.Search(criteria)
	if err != nil {
		return fmt.Errorf("imap search by message-id: %w", err)
	}
	if len(seqNums) == 0 {
		return nil // already purged or flagged elsewhere
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(seqNums...)
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	flags := []interface{}{imap.SeenFlag}
	return c.Store(seqset, item, flags, nil)
}

// fnvSum is a tiny FNV-1a over s for synthetic message ids.
func fnvSum(s string) uint64 {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}
