package imap

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-imap/client"
	"github.com/opentracing/opentracing-go"

	"github.com/relocrm/leadstack/internal/tracing"
)

const (
	dialTimeout   = 30 * time.Second
	loginTimeout  = 30 * time.Second
	logoutTimeout = 5 * time.Second
)

// connect dials and logs in to the configured server.
func (s *IMAPService) connect(ctx context.Context) (*client.Client, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IMAPService.connect")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.SetTag("mailbox.id", s.cfg.MailboxID)
	span.SetTag("server", s.cfg.ImapServer)
	span.SetTag("port", s.cfg.ImapPort)
	span.SetTag("tls", s.cfg.ImapTLS)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	serverAddr := net.JoinHostPort(s.cfg.ImapServer, strconv.Itoa(s.cfg.ImapPort))
	dialer := &net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}

	var c *client.Client
	var err error
	if s.cfg.ImapTLS {
		c, err = client.DialWithDialerTLS(dialer, serverAddr, &tls.Config{ServerName: s.cfg.ImapServer})
	} else {
		c, err = client.DialWithDialer(dialer, serverAddr)
	}
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to connect to %s: %w", serverAddr, err)
	}

	if err = s.login(ctx, c); err != nil {
		_ = c.Logout()
		return nil, err
	}

	s.log.Infof("[%s] connected to %s", s.cfg.MailboxID, serverAddr)
	return c, nil
}

func (s *IMAPService) login(ctx context.Context, c *client.Client) error {
	span, _ := opentracing.StartSpanFromContext(ctx, "IMAPService.login")
	defer span.Finish()
	span.SetTag("username", s.cfg.ImapUsername)

	c.Timeout = loginTimeout
	defer func() { c.Timeout = 0 }()
	if err := c.Login(s.cfg.ImapUsername, s.cfg.ImapPassword); err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("failed to login as %s: %w", s.cfg.ImapUsername, err)
	}
	return nil
}

// getClient returns the cached client if it still answers NOOP, otherwise reconnects.
// Callers must hold mu.
func (s *IMAPService) getClient(ctx context.Context) (*client.Client, error) {
	if s.client != nil {
		err := s.client.Noop()
		if err == nil {
			return s.client, nil
		}
		s.log.Warnf("[%s] existing connection is broken: %v", s.cfg.MailboxID, err)
		s.client = nil
	}

	c, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	s.client = c
	return c, nil
}

// disconnect logs out with a bounded wait. Callers must hold mu.
func (s *IMAPService) disconnect(ctx context.Context) {
	span, _ := opentracing.StartSpanFromContext(ctx, "IMAPService.disconnect")
	defer span.Finish()

	c := s.client
	s.client = nil
	if c == nil {
		return
	}

	c.Timeout = logoutTimeout
	done := make(chan error, 1)
	go func() {
		done <- c.Logout()
	}()

	select {
	case err := <-done:
		if err != nil {
			s.log.Warnf("[%s] error during logout: %v", s.cfg.MailboxID, err)
			tracing.TraceErr(span, err)
		}
	case <-time.After(logoutTimeout):
		s.log.Warnf("[%s] logout timed out", s.cfg.MailboxID)
		span.SetTag("timeout", true)
	}
}
