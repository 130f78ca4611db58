package emails

import (
	"context"
	"net/http"

	"github.com/customeros/mailsherpa/mailvalidate"
	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	custom_err "github.com/relocrm/leadstack/api/errors"
	"github.com/relocrm/leadstack/dto"
	"github.com/relocrm/leadstack/internal/tracing"
)

// Send delivers a new message over SMTP and stores it in the sent folder.
func (h *EmailsHandler) Send() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "EmailsHandler.Send", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request SendEmailRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			custom_err.RespondWithError(c, span, http.StatusBadRequest, "Invalid request format", err)
			return
		}

		errs := h.validateRequest(ctx, &request)
		if errs.HasErrors() {
			custom_err.RespondWithValidationErrors(c, span, errs)
			return
		}

		email, err := h.emails.Send(ctx, toOutgoingEmail(&request))
		if err != nil {
			custom_err.RespondWithServiceError(c, span, "Failed to send email", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id":        email.ID,
			"messageId": email.MessageID,
		})
	}
}

func (h *EmailsHandler) validateRequest(ctx context.Context, request *SendEmailRequest) *custom_err.MultiErrors {
	span, _ := opentracing.StartSpanFromContext(ctx, "EmailsHandler.validateRequest")
	defer span.Finish()
	tracing.TagComponentRest(span)

	errs := custom_err.NewMultiErrors()

	if len(request.ToAddresses) == 0 {
		errs.Add("toAddresses", "please provide at least one valid to address", errors.New("toAddresses is empty"))
	}

	for field, addresses := range map[string][]string{
		"toAddresses":  request.ToAddresses,
		"ccAddresses":  request.CCAddresses,
		"bccAddresses": request.BCCAddresses,
	} {
		for _, address := range addresses {
			if !mailvalidate.ValidateEmailSyntax(address).IsValid {
				errs.Add(field, "invalid email address: "+address, errors.New("invalid address"))
			}
		}
	}

	if request.Subject == "" {
		errs.Add("subject", "please provide an email subject", errors.New("subject is empty"))
	}

	if request.Body.HTML == "" && request.Body.Text == "" {
		errs.Add("body", "please provide a valid html or text body (or both)", errors.New("body is empty"))
	}

	for _, attachment := range request.Attachments {
		if attachment.Filename == "" || len(attachment.Data) == 0 {
			errs.Add("attachments", "every attachment needs a filename and data", errors.New("attachment incomplete"))
			break
		}
	}

	return errs
}

func toOutgoingEmail(request *SendEmailRequest) *dto.OutgoingEmail {
	outgoing := &dto.OutgoingEmail{
		To:        request.ToAddresses,
		Cc:        request.CCAddresses,
		Bcc:       request.BCCAddresses,
		Subject:   request.Subject,
		Text:      request.Body.Text,
		HTML:      request.Body.HTML,
		ReplyTo:   request.ReplyTo,
		InReplyTo: request.InReplyTo,
	}
	for _, attachment := range request.Attachments {
		outgoing.Attachments = append(outgoing.Attachments, dto.OutgoingAttachment{
			Filename:    attachment.Filename,
			ContentType: attachment.ContentType,
			Data:        attachment.Data,
		})
	}
	return outgoing
}
