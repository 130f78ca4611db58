package smtp

import (
	"bytes"
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/relocrm/leadstack/config"
	"github.com/relocrm/leadstack/dto"
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

func newTestService(send sendFunc) *SMTPService {
	svc := NewSMTPService(&config.MailboxConfig{
		SmtpServer:  "smtp.example.com",
		SmtpPort:    587,
		FromAddress: "info@umzug.example",
		FromName:    "Umzug Team",
	}, getLogger())
	svc.send = send
	return svc
}

func TestSMTPService_Send(t *testing.T) {
	// Arrange
	var captured bytes.Buffer
	svc := newTestService(func(messages ...*gomail.Message) error {
		require.Len(t, messages, 1)
		_, err := messages[0].WriteTo(&captured)
		return err
	})

	// Act
	sent, err := svc.Send(context.Background(), &dto.OutgoingEmail{
		To:      []string{"max@example.com", "max@example.com"},
		Subject: "Ihr Angebot",
		Text:    "Hallo Max",
		HTML:    "<p>Hallo Max</p>",
		Attachments: []dto.OutgoingAttachment{
			{Filename: "angebot.pdf", ContentType: "application/pdf", Data: []byte("%PDF")},
		},
	})

	// Assert
	require.NoError(t, err)
	require.NotNil(t, sent)
	assert.Contains(t, sent.MessageID, "@umzug.example>")
	raw := captured.String()
	assert.Contains(t, raw, "Subject: Ihr Angebot")
	assert.Contains(t, raw, "Umzug Team")
	assert.Contains(t, raw, "text/html")
	assert.Contains(t, raw, "angebot.pdf")
}

func TestSMTPService_SendValidation(t *testing.T) {
	svc := newTestService(func(...*gomail.Message) error { return nil })

	cases := map[string]*dto.OutgoingEmail{
		"nil email":        nil,
		"no recipients":    {Subject: "x", Text: "y"},
		"invalid address":  {To: []string{"not-an-address"}, Subject: "x", Text: "y"},
		"no content":       {To: []string{"a@example.com"}, Subject: "x"},
		"no subject":       {To: []string{"a@example.com"}, Text: "y"},
		"invalid cc entry": {To: []string{"a@example.com"}, Cc: []string{"bad"}, Subject: "x", Text: "y"},
	}
	for name, email := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Send(context.Background(), email)
			assert.Error(t, err)
		})
	}
}

func TestSMTPService_SendTransportError(t *testing.T) {
	svc := newTestService(func(...*gomail.Message) error { return errors.New("connection refused") })

	sent, err := svc.Send(context.Background(), &dto.OutgoingEmail{
		To:      []string{"a@example.com"},
		Subject: "x",
		Text:    "y",
	})

	assert.Nil(t, sent)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
