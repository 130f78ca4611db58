package emails

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	custom_err "github.com/relocrm/leadstack/api/errors"
	leadstack_errors "github.com/relocrm/leadstack/errors"
	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/tracing"
)

func parseFolder(raw string) (enum.EmailFolder, error) {
	if raw == "" {
		return enum.EmailFolderInbox, nil
	}
	folder := enum.EmailFolder(strings.ToLower(strings.TrimSpace(raw)))
	if !folder.IsValid() {
		return "", leadstack_errors.ErrInvalidFolder
	}
	return folder, nil
}

func (h *EmailsHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "EmailsHandler.List", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request ListRequest
		if err := c.ShouldBindQuery(&request); err != nil {
			custom_err.RespondWithError(c, span, http.StatusBadRequest, "Invalid query", err)
			return
		}
		folder, err := parseFolder(request.Folder)
		if err != nil {
			custom_err.RespondWithError(c, span, http.StatusBadRequest, "Invalid folder", err)
			return
		}
		if request.Limit <= 0 {
			request.Limit = h.defaultLimit
		}

		emails, total, err := h.emails.List(ctx, folder, request.Limit, request.Offset)
		if err != nil {
			custom_err.RespondWithServiceError(c, span, "Failed to list emails", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"emails": emails,
			"total":  total,
			"folder": folder,
		})
	}
}

func (h *EmailsHandler) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "EmailsHandler.Get", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		email, err := h.emails.Get(ctx, c.Param("id"))
		if err != nil {
			custom_err.RespondWithServiceError(c, span, "Failed to load email", err)
			return
		}
		c.JSON(http.StatusOK, email)
	}
}

// Sync pulls one folder. Transport failures come back as success=false, not as HTTP errors.
func (h *EmailsHandler) Sync() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "EmailsHandler.Sync", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request SyncRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&request); err != nil {
				custom_err.RespondWithError(c, span, http.StatusBadRequest, "Invalid request format", err)
				return
			}
		}
		folder, err := parseFolder(request.Folder)
		if err != nil {
			custom_err.RespondWithError(c, span, http.StatusBadRequest, "Invalid folder", err)
			return
		}

		c.JSON(http.StatusOK, h.sync.SyncEmails(ctx, folder, request.Limit, request.ForceSync))
	}
}

func (h *EmailsHandler) SyncAll() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "EmailsHandler.SyncAll", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request SyncRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&request); err != nil {
				custom_err.RespondWithError(c, span, http.StatusBadRequest, "Invalid request format", err)
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"results": h.sync.SyncAllFolders(ctx, request.Limit, request.ForceSync)})
	}
}

func (h *EmailsHandler) Folders() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "EmailsHandler.Folders", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		folders, err := h.sync.ListFolders(ctx)
		if err != nil {
			custom_err.RespondWithError(c, span, http.StatusBadGateway, "Failed to list mailbox folders", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"folders": folders})
	}
}

func (h *EmailsHandler) SetRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "EmailsHandler.SetRead", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request ReadRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&request); err != nil {
				custom_err.RespondWithError(c, span, http.StatusBadRequest, "Invalid request format", err)
				return
			}
		}
		read := request.Read == nil || *request.Read

		if err := h.emails.SetRead(ctx, c.Param("id"), read); err != nil {
			custom_err.RespondWithServiceError(c, span, "Failed to update read state", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "isRead": read})
	}
}

func (h *EmailsHandler) SetStarred() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "EmailsHandler.SetStarred", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request StarRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&request); err != nil {
				custom_err.RespondWithError(c, span, http.StatusBadRequest, "Invalid request format", err)
				return
			}
		}
		starred := request.Starred == nil || *request.Starred

		if err := h.emails.SetStarred(ctx, c.Param("id"), starred); err != nil {
			custom_err.RespondWithServiceError(c, span, "Failed to update starred state", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "isStarred": starred})
	}
}

func (h *EmailsHandler) Move() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "EmailsHandler.Move", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request MoveRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			custom_err.RespondWithError(c, span, http.StatusBadRequest, "Invalid request format", err)
			return
		}
		folder, err := parseFolder(request.Folder)
		if err != nil {
			custom_err.RespondWithError(c, span, http.StatusBadRequest, "Invalid folder", err)
			return
		}

		if err := h.emails.Move(ctx, c.Param("id"), folder); err != nil {
			custom_err.RespondWithServiceError(c, span, "Failed to move email", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "folder": folder})
	}
}

// Delete moves the email to trash; an email already in trash is removed for good.
func (h *EmailsHandler) Delete() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "EmailsHandler.Delete", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		if err := h.emails.Delete(ctx, c.Param("id")); err != nil {
			custom_err.RespondWithServiceError(c, span, "Failed to delete email", err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
