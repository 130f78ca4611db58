package imap

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/backend/memory"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-imap/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relocrm/leadstack/config"
	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/logger"
)

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode:  true,
		LogLevel: "debug",
	})
	appLogger.InitLogger()
	return appLogger
}

// startServer runs an in-memory IMAP server holding one seen message (uid 6) in INBOX.
func startServer(t *testing.T) *config.MailboxConfig {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := server.New(memory.New())
	srv.AllowInsecureAuth = true
	go func() {
		_ = srv.Serve(listener)
	}()
	t.Cleanup(func() { _ = srv.Close() })

	addr := listener.Addr().(*net.TCPAddr)
	return &config.MailboxConfig{
		MailboxID:        "test",
		ImapServer:       "127.0.0.1",
		ImapPort:         addr.Port,
		ImapUsername:     "username",
		ImapPassword:     "password",
		ImapTLS:          false,
		InboxFolder:      "INBOX",
		SentFolder:       "Sent",
		DraftsFolder:     "Drafts",
		ArchiveFolder:    "Archive",
		TrashFolder:      "Trash",
		DefaultSyncLimit: 50,
	}
}

func TestIMAPService_ListFolders(t *testing.T) {
	// Arrange
	svc := NewIMAPService(startServer(t), getLogger())
	defer svc.Close(context.Background())

	// Act
	folders, err := svc.ListFolders(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Contains(t, folders, "INBOX")
}

func TestIMAPService_FetchLatest(t *testing.T) {
	// Arrange
	svc := NewIMAPService(startServer(t), getLogger())
	defer svc.Close(context.Background())

	// Act
	messages, err := svc.FetchLatest(context.Background(), enum.EmailFolderInbox, 10)

	// Assert
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, uint32(6), messages[0].UID)
	assert.Contains(t, messages[0].Flags, imap.SeenFlag)
	assert.True(t, strings.Contains(string(messages[0].Body), "Hi there"))
}

func TestIMAPService_FetchLatest_UnknownFolderFails(t *testing.T) {
	svc := NewIMAPService(startServer(t), getLogger())
	defer svc.Close(context.Background())

	_, err := svc.FetchLatest(context.Background(), enum.EmailFolderArchive, 10)

	assert.Error(t, err)
}

func TestIMAPService_SetFlaggedShowsInStarred(t *testing.T) {
	// Arrange
	svc := NewIMAPService(startServer(t), getLogger())
	defer svc.Close(context.Background())
	ctx := context.Background()

	starred, err := svc.FetchLatest(ctx, enum.EmailFolderStarred, 10)
	require.NoError(t, err)
	require.Empty(t, starred)

	// Act
	require.NoError(t, svc.SetFlagged(ctx, enum.EmailFolderInbox, 6, true))
	starred, err = svc.FetchLatest(ctx, enum.EmailFolderStarred, 10)

	// Assert
	require.NoError(t, err)
	require.Len(t, starred, 1)
	assert.Contains(t, starred[0].Flags, imap.FlaggedFlag)
}

func TestIMAPService_SetSeenFalseClearsFlag(t *testing.T) {
	// Arrange
	svc := NewIMAPService(startServer(t), getLogger())
	defer svc.Close(context.Background())
	ctx := context.Background()

	// Act
	require.NoError(t, svc.SetSeen(ctx, enum.EmailFolderInbox, 6, false))
	messages, err := svc.FetchLatest(ctx, enum.EmailFolderInbox, 10)

	// Assert
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.NotContains(t, messages[0].Flags, imap.SeenFlag)
}

func TestIMAPService_ConnectFailsWithWrongPassword(t *testing.T) {
	cfg := startServer(t)
	cfg.ImapPassword = "wrong"
	svc := NewIMAPService(cfg, getLogger())

	_, err := svc.ListFolders(context.Background())

	assert.Error(t, err)
}

// seedFolder creates folder on the test server and appends one message per subject,
// so they get uids 1..n.
func seedFolder(t *testing.T, cfg *config.MailboxConfig, folder string, subjects ...string) {
	t.Helper()

	c, err := client.Dial(net.JoinHostPort(cfg.ImapServer, strconv.Itoa(cfg.ImapPort)))
	require.NoError(t, err)
	defer c.Logout()
	require.NoError(t, c.Login(cfg.ImapUsername, cfg.ImapPassword))
	require.NoError(t, c.Create(folder))

	for i, subject := range subjects {
		body := fmt.Sprintf("From: lead@example.com\r\nSubject: %s\r\nMessage-ID: <seed-%d@example.com>\r\n\r\n%s\r\n", subject, i, subject)
		require.NoError(t, c.Append(folder, nil, time.Now(), bytes.NewBufferString(body)))
	}
}

func TestIMAPService_MoveThenExpungeRemovesOnlyMovedMessage(t *testing.T) {
	tests := []struct {
		name      string
		messageID string
	}{
		{name: "located by uid range"},
		{name: "located by message id", messageID: "0000000@localhost/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			cfg := startServer(t)
			seedFolder(t, cfg, "Trash", "unrelated A", "unrelated B", "unrelated C", "unrelated D", "unrelated E", "unrelated F")
			svc := NewIMAPService(cfg, getLogger())
			defer svc.Close(context.Background())
			ctx := context.Background()

			// Act
			newUID, err := svc.Move(ctx, enum.EmailFolderInbox, 6, enum.EmailFolderTrash, tt.messageID)
			require.NoError(t, err)
			require.NoError(t, svc.Expunge(ctx, enum.EmailFolderTrash, newUID))

			// Assert
			assert.Equal(t, uint32(7), newUID)
			trash, err := svc.FetchLatest(ctx, enum.EmailFolderTrash, 20)
			require.NoError(t, err)
			require.Len(t, trash, 6)
			for _, message := range trash {
				assert.Contains(t, string(message.Body), "unrelated")
			}
			inbox, err := svc.FetchLatest(ctx, enum.EmailFolderInbox, 20)
			require.NoError(t, err)
			assert.Empty(t, inbox)
		})
	}
}

func TestIMAPService_MoveWithinSameServerFolderKeepsUID(t *testing.T) {
	svc := NewIMAPService(startServer(t), getLogger())
	defer svc.Close(context.Background())

	uid, err := svc.Move(context.Background(), enum.EmailFolderStarred, 6, enum.EmailFolderInbox, "")

	require.NoError(t, err)
	assert.Equal(t, uint32(6), uid)
}

func TestLowestUIDFrom(t *testing.T) {
	assert.Equal(t, uint32(7), lowestUIDFrom([]uint32{9, 7, 8}, 7))
	assert.Zero(t, lowestUIDFrom([]uint32{5}, 7))
	assert.Zero(t, lowestUIDFrom(nil, 7))
}
