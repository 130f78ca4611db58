package imap

import (
	"context"
	"fmt"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/opentracing/opentracing-go"

	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/tracing"
)

// ListFolders returns every mailbox name the server reports.
func (s *IMAPService) ListFolders(ctx context.Context) ([]string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IMAPService.ListFolders")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.getClient(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	mailboxes := make(chan *imap.MailboxInfo, 10)
	done := make(chan error, 1)
	go func() {
		done <- c.List("", "*", mailboxes)
	}()

	var folders []string
	for m := range mailboxes {
		folders = append(folders, m.Name)
	}
	if err := <-done; err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}

	span.SetTag("folders.count", len(folders))
	return folders, nil
}

// selectFolder selects the server mailbox backing a logical folder. Callers must hold mu.
func (s *IMAPService) selectFolder(ctx context.Context, c *client.Client, folder enum.EmailFolder, readOnly bool) (*imap.MailboxStatus, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IMAPService.selectFolder")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	name := s.serverFolder(folder)
	span.SetTag("folder.name", name)

	c.Timeout = dialTimeout
	mbox, err := c.Select(name, readOnly)
	c.Timeout = 0
	if err != nil {
		err = fmt.Errorf("[%s][%s] error selecting folder: %w", s.cfg.MailboxID, name, err)
		tracing.TraceErr(span, err)
		return nil, err
	}

	span.SetTag("messages.total", mbox.Messages)
	span.SetTag("messages.unseen", mbox.Unseen)
	return mbox, nil
}
