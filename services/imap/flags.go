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

func (s *IMAPService) SetSeen(ctx context.Context, folder enum.EmailFolder, uid uint32, seen bool) error {
	return s.storeFlag(ctx, "IMAPService.SetSeen", folder, uid, imap.SeenFlag, seen)
}

func (s *IMAPService) SetFlagged(ctx context.Context, folder enum.EmailFolder, uid uint32, flagged bool) error {
	return s.storeFlag(ctx, "IMAPService.SetFlagged", folder, uid, imap.FlaggedFlag, flagged)
}

func (s *IMAPService) storeFlag(ctx context.Context, operation string, folder enum.EmailFolder, uid uint32, flag string, set bool) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, operation)
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("folder", folder.String())
	span.SetTag("uid", uid)
	span.SetTag("set", set)

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.getClient(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if _, err = s.selectFolder(ctx, c, folder, false); err != nil {
		return err
	}

	op := imap.FlagsOp(imap.RemoveFlags)
	if set {
		op = imap.AddFlags
	}
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	if err = c.UidStore(seqSet, imap.FormatFlagsOp(op, true), []interface{}{flag}, nil); err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("failed to store %s on uid %d: %w", flag, uid, err)
	}
	return nil
}

// Move relocates a message to another logical folder and returns its uid there,
// since uids are per folder. go-imap falls back to COPY + \Deleted + EXPUNGE when
// the server lacks MOVE. A zero uid means the moved message could not be located.
func (s *IMAPService) Move(ctx context.Context, folder enum.EmailFolder, uid uint32, target enum.EmailFolder, messageID string) (uint32, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IMAPService.Move")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("folder", folder.String())
	span.SetTag("target", target.String())
	span.SetTag("uid", uid)

	if s.serverFolder(folder) == s.serverFolder(target) {
		return uid, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.getClient(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}

	// every uid assigned by the move is at least the target's UIDNEXT
	status, err := c.Status(s.serverFolder(target), []imap.StatusItem{imap.StatusUidNext})
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, fmt.Errorf("failed to read status of %s: %w", target, err)
	}

	if _, err = s.selectFolder(ctx, c, folder, false); err != nil {
		return 0, err
	}
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)
	if err = c.UidMove(seqSet, s.serverFolder(target)); err != nil {
		tracing.TraceErr(span, err)
		return 0, fmt.Errorf("failed to move uid %d to %s: %w", uid, target, err)
	}

	newUID, err := s.locateMoved(ctx, c, target, status.UidNext, messageID)
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}
	if newUID == 0 {
		s.log.Warnf("[%s] moved uid %d to %s but could not find its new uid", s.cfg.MailboxID, uid, target)
	}
	span.SetTag("uid.new", newUID)
	return newUID, nil
}

// locateMoved finds the uid a moved message received in target. Callers must hold mu.
func (s *IMAPService) locateMoved(ctx context.Context, c *client.Client, target enum.EmailFolder, uidNext uint32, messageID string) (uint32, error) {
	if _, err := s.selectFolder(ctx, c, target, true); err != nil {
		return 0, err
	}

	search := func(byMessageID bool) (uint32, error) {
		criteria := imap.NewSearchCriteria()
		if uidNext > 0 {
			criteria.Uid = new(imap.SeqSet)
			criteria.Uid.AddRange(uidNext, 0)
		}
		if byMessageID {
			criteria.Header.Add("Message-Id", messageID)
		}
		uids, err := c.UidSearch(criteria)
		if err != nil {
			return 0, fmt.Errorf("failed to search %s: %w", target, err)
		}
		return lowestUIDFrom(uids, uidNext), nil
	}

	if messageID != "" {
		if found, err := search(true); err != nil || found > 0 {
			return found, err
		}
	}
	if uidNext == 0 {
		return 0, nil
	}
	return search(false)
}

// lowestUIDFrom returns the smallest uid not below min. "n:*" always matches the
// highest uid in the folder, even when it is below n.
func lowestUIDFrom(uids []uint32, min uint32) uint32 {
	var lowest uint32
	for _, u := range uids {
		if u >= min && (lowest == 0 || u < lowest) {
			lowest = u
		}
	}
	return lowest
}

// Expunge permanently removes a message from the server.
func (s *IMAPService) Expunge(ctx context.Context, folder enum.EmailFolder, uid uint32) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IMAPService.Expunge")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("folder", folder.String())
	span.SetTag("uid", uid)

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.getClient(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if _, err = s.selectFolder(ctx, c, folder, false); err != nil {
		return err
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)
	if err = c.UidStore(seqSet, imap.FormatFlagsOp(imap.AddFlags, true), []interface{}{imap.DeletedFlag}, nil); err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if err = c.Expunge(nil); err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("failed to expunge uid %d: %w", uid, err)
	}
	return nil
}
