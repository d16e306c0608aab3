package ingestion

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/konetibalaji/benchsales-match/pkg/database"
)

// EmailMessage is one fetched, unseen mailbox message.
type EmailMessage struct {
	UID         uint32
	Subject     string
	Body        string
	Attachments []EmailAttachment
}

// EmailAttachment is one attachment on a polled message.
type EmailAttachment struct {
	FileName    string
	ContentType string
	Content     []byte
}

// Mailbox is the seam email_imap.go implements; a polling loop built
// against this interface needs no IMAP-specific knowledge, matching
// pkg/queue's pattern of driving a worker loop off a narrow interface
// rather than a concrete client.
type Mailbox interface {
	// FetchUnseen returns every unseen message in the configured mailbox.
	FetchUnseen(ctx context.Context) ([]EmailMessage, error)
	// MarkSeen flags a message \Seen once its enqueue succeeds.
	MarkSeen(ctx context.Context, uid uint32) error
}

// EmailPoller drives Mailbox on a fixed interval, routing each
// message's body text to the requirement path and its whitelisted
// attachments to the resume path.
type EmailPoller struct {
	tenant                  database.TenantContext
	mailbox                 Mailbox
	resumes                 *ResumePipeline
	requirements            *RequirementPipeline
	interval                time.Duration
	attachmentMimeWhitelist map[string]bool

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// minRequirementBodyLength is the body-length floor below which an
// email's body text is not worth enqueuing as a requirement.
const minRequirementBodyLength = 50

// NewEmailPoller builds a poller for one tenant's mailbox.
func NewEmailPoller(tc database.TenantContext, mailbox Mailbox, resumes *ResumePipeline, requirements *RequirementPipeline, interval time.Duration, attachmentMimeWhitelist []string) *EmailPoller {
	whitelist := make(map[string]bool, len(attachmentMimeWhitelist))
	for _, mt := range attachmentMimeWhitelist {
		whitelist[mt] = true
	}
	return &EmailPoller{
		tenant:                  tc,
		mailbox:                 mailbox,
		resumes:                 resumes,
		requirements:            requirements,
		interval:                interval,
		attachmentMimeWhitelist: whitelist,
		stopCh:                  make(chan struct{}),
	}
}

// Start runs the poll loop until Stop is called or ctx is cancelled.
func (p *EmailPoller) Start(ctx context.Context) {
	p.wg.Add(1)
	go p.run(ctx)
}

// Stop signals the poll loop to exit and waits for it to finish.
func (p *EmailPoller) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	p.wg.Wait()
}

func (p *EmailPoller) run(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

// pollOnce fetches and routes every unseen message. An IMAP error here
// is logged and left for the next tick — the mailbox implementation is
// expected to reconnect lazily on its next FetchUnseen call.
func (p *EmailPoller) pollOnce(ctx context.Context) {
	messages, err := p.mailbox.FetchUnseen(ctx)
	if err != nil {
		slog.Error("email poll: fetch unseen failed", "error", err)
		return
	}

	for _, msg := range messages {
		if err := p.route(ctx, msg); err != nil {
			slog.Error("email poll: routing message failed", "uid", msg.UID, "error", err)
			continue
		}
		if err := p.mailbox.MarkSeen(ctx, msg.UID); err != nil {
			slog.Error("email poll: mark seen failed", "uid", msg.UID, "error", err)
		}
	}
}

func (p *EmailPoller) route(ctx context.Context, msg EmailMessage) error {
	if len(msg.Body) > minRequirementBodyLength {
		if _, err := p.requirements.Intake(ctx, p.tenant, RequirementRequest{
			RawContent: msg.Body,
			Source:     "email",
		}); err != nil {
			return err
		}
	}

	for _, att := range msg.Attachments {
		if !p.attachmentMimeWhitelist[att.ContentType] {
			continue
		}
		if _, err := p.resumes.Intake(ctx, p.tenant, ResumeRequest{
			FileName:    att.FileName,
			ContentType: att.ContentType,
			Content:     att.Content,
			Source:      "email",
		}); err != nil {
			return err
		}
	}
	return nil
}
