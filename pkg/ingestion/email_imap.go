package ingestion

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"github.com/konetibalaji/benchsales-match/pkg/apperr"
	"github.com/konetibalaji/benchsales-match/pkg/config"
)

// IMAPMailbox is the Mailbox implementation backed by a real IMAP
// server via github.com/emersion/go-imap.
type IMAPMailbox struct {
	addr     string
	tls      bool
	user     string
	password string
	mailbox  string

	conn *client.Client
}

// NewIMAPMailbox builds a Mailbox that lazily dials on first use and
// redials on the next tick whenever the previous connection went bad.
func NewIMAPMailbox(cfg config.IngestionConfig, user, password string) *IMAPMailbox {
	return &IMAPMailbox{
		addr:     fmt.Sprintf("%s:%d", cfg.IMAPHost, cfg.IMAPPort),
		tls:      cfg.IMAPTLS,
		user:     user,
		password: password,
		mailbox:  cfg.IMAPMailbox,
	}
}

func (m *IMAPMailbox) ensureConnected() error {
	if m.conn != nil {
		if _, err := m.conn.Select(m.mailbox, false); err == nil {
			return nil
		}
		_ = m.conn.Logout()
		m.conn = nil
	}

	var c *client.Client
	var err error
	if m.tls {
		c, err = client.DialTLS(m.addr, nil)
	} else {
		c, err = client.Dial(m.addr)
	}
	if err != nil {
		return apperr.Wrap(apperr.KindTransient, "dial imap server", err)
	}
	if err := c.Login(m.user, m.password); err != nil {
		return apperr.Wrap(apperr.KindTransient, "imap login", err)
	}
	if _, err := c.Select(m.mailbox, false); err != nil {
		return apperr.Wrap(apperr.KindTransient, "select imap mailbox", err)
	}
	m.conn = c
	return nil
}

// FetchUnseen lists every message without the \Seen flag and parses its
// RFC822 body into EmailMessage.
func (m *IMAPMailbox) FetchUnseen(ctx context.Context) ([]EmailMessage, error) {
	if err := m.ensureConnected(); err != nil {
		return nil, err
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	uids, err := m.conn.Search(criteria)
	if err != nil {
		m.conn = nil
		return nil, apperr.Wrap(apperr.KindTransient, "imap search", err)
	}
	if len(uids) == 0 {
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	section := &imap.BodySectionName{}
	items := []imap.FetchItem{section.FetchItem(), imap.FetchUid}

	messages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() { done <- m.conn.Fetch(seqset, items, messages) }()

	var out []EmailMessage
	for msg := range messages {
		body := msg.GetBody(section)
		if body == nil {
			continue
		}
		parsed, err := parseEmailBody(body)
		if err != nil {
			continue
		}
		parsed.UID = msg.Uid
		out = append(out, parsed)
	}
	if err := <-done; err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "imap fetch", err)
	}
	return out, nil
}

// MarkSeen flags a message \Seen by its UID.
func (m *IMAPMailbox) MarkSeen(ctx context.Context, uid uint32) error {
	if err := m.ensureConnected(); err != nil {
		return err
	}
	seqset := new(imap.SeqSet)
	seqset.AddNum(uid)
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	flags := []interface{}{imap.SeenFlag}
	if err := m.conn.UidStore(seqset, item, flags, nil); err != nil {
		return apperr.Wrap(apperr.KindTransient, "imap mark seen", err)
	}
	return nil
}

// parseEmailBody turns a raw RFC822 reader into an EmailMessage,
// walking a multipart body when present and treating any non-multipart
// message as a plain-text body with no attachments.
func parseEmailBody(r io.Reader) (EmailMessage, error) {
	msg, err := mail.ReadMessage(bufio.NewReader(r))
	if err != nil {
		return EmailMessage{}, err
	}

	out := EmailMessage{Subject: msg.Header.Get("Subject")}

	contentType := msg.Header.Get("Content-Type")
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		raw, _ := io.ReadAll(msg.Body)
		out.Body = string(raw)
		return out, nil
	}

	reader := multipart.NewReader(msg.Body, params["boundary"])
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		if att, isAttachment := readPart(part); isAttachment {
			out.Attachments = append(out.Attachments, att)
		} else {
			data, _ := io.ReadAll(part)
			out.Body += string(data)
		}
	}
	return out, nil
}

func readPart(part *multipart.Part) (EmailAttachment, bool) {
	disposition := part.Header.Get("Content-Disposition")
	fileName := part.FileName()
	if disposition == "" && fileName == "" {
		return EmailAttachment{}, false
	}

	contentType := part.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}

	data, err := io.ReadAll(part)
	if err != nil {
		return EmailAttachment{}, false
	}

	return EmailAttachment{
		FileName:    fileName,
		ContentType: mediaType,
		Content:     data,
	}, true
}
