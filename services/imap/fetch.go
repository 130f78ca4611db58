package imap

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/opentracing/opentracing-go"

	"github.com/relocrm/leadstack/dto"
	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/tracing"
)

// FetchLatest returns up to limit of the newest messages in folder, newest first.
// Bodies are fetched with BODY.PEEK so syncing never marks mail as read.
func (s *IMAPService) FetchLatest(ctx context.Context, folder enum.EmailFolder, limit int) ([]*dto.RawMessage, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IMAPService.FetchLatest")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("folder", folder.String())
	span.SetTag("limit", limit)

	if limit <= 0 {
		limit = s.cfg.DefaultSyncLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.getClient(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	mbox, err := s.selectFolder(ctx, c, folder, true)
	if err != nil {
		return nil, err
	}
	if mbox.Messages == 0 {
		return []*dto.RawMessage{}, nil
	}

	seqSet := new(imap.SeqSet)
	if folder == enum.EmailFolderStarred {
		criteria := imap.NewSearchCriteria()
		criteria.WithFlags = []string{imap.FlaggedFlag}
		seqNums, err := c.Search(criteria)
		if err != nil {
			tracing.TraceErr(span, err)
			return nil, fmt.Errorf("failed to search flagged messages: %w", err)
		}
		if len(seqNums) == 0 {
			return []*dto.RawMessage{}, nil
		}
		sort.Slice(seqNums, func(i, j int) bool { return seqNums[i] < seqNums[j] })
		if len(seqNums) > limit {
			seqNums = seqNums[len(seqNums)-limit:]
		}
		seqSet.AddNum(seqNums...)
	} else {
		start := uint32(1)
		if mbox.Messages > uint32(limit) {
			start = mbox.Messages - uint32(limit) + 1
		}
		seqSet.AddRange(start, mbox.Messages)
	}

	messages, err := s.fetch(ctx, c, seqSet)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	sort.Slice(messages, func(i, j int) bool { return messages[i].UID > messages[j].UID })
	span.SetTag("messages.fetched", len(messages))
	return messages, nil
}

func (s *IMAPService) fetch(ctx context.Context, c *client.Client, seqSet *imap.SeqSet) ([]*dto.RawMessage, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "IMAPService.fetch")
	defer span.Finish()

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{
		section.FetchItem(),
		imap.FetchFlags,
		imap.FetchUid,
		imap.FetchInternalDate,
	}

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqSet, items, messages)
	}()

	var result []*dto.RawMessage
	for msg := range messages {
		raw := &dto.RawMessage{
			UID:          msg.Uid,
			Flags:        msg.Flags,
			InternalDate: msg.InternalDate,
		}
		if literal := msg.GetBody(section); literal != nil {
			body, err := io.ReadAll(literal)
			if err != nil {
				s.log.Warnf("[%s] failed to read body of uid %d: %v", s.cfg.MailboxID, msg.Uid, err)
				continue
			}
			raw.Body = body
		}
		result = append(result, raw)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	return result, nil
}
