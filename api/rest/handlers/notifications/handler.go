package notifications

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	custom_err "github.com/relocrm/leadstack/api/errors"
	"github.com/relocrm/leadstack/interfaces"
	"github.com/relocrm/leadstack/internal/models"
	"github.com/relocrm/leadstack/internal/tracing"
)

const (
	defaultLimit      = 50
	keepAliveInterval = 30 * time.Second
)

type NotificationsHandler struct {
	notifications interfaces.NotificationService
	keepAlive     time.Duration
}

func NewNotificationsHandler(notifications interfaces.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{
		notifications: notifications,
		keepAlive:     keepAliveInterval,
	}
}

type limitQuery struct {
	Limit int `form:"limit"`
}

func (q limitQuery) value() int {
	if q.Limit <= 0 {
		return defaultLimit
	}
	return q.Limit
}

func (h *NotificationsHandler) Unread() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "NotificationsHandler.Unread", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var query limitQuery
		if err := c.ShouldBindQuery(&query); err != nil {
			custom_err.RespondWithError(c, span, http.StatusBadRequest, "Invalid query", err)
			return
		}

		items, err := h.notifications.GetUnreadNotifications(ctx, query.value())
		if err != nil {
			custom_err.RespondWithServiceError(c, span, "Failed to load notifications", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"notifications": items})
	}
}

func (h *NotificationsHandler) Create() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "NotificationsHandler.Create", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request interfaces.NotificationInput
		if err := c.ShouldBindJSON(&request); err != nil {
			custom_err.RespondWithError(c, span, http.StatusBadRequest, "Invalid request format", err)
			return
		}

		id, err := h.notifications.CreateNotification(ctx, request)
		if err != nil {
			custom_err.RespondWithServiceError(c, span, "Failed to create notification", err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": id})
	}
}

func (h *NotificationsHandler) MarkRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "NotificationsHandler.MarkRead", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		if err := h.notifications.MarkAsRead(ctx, c.Param("id")); err != nil {
			custom_err.RespondWithServiceError(c, span, "Failed to mark notification read", err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// MarkAllRead reports how many rows were updated, also when some failed.
func (h *NotificationsHandler) MarkAllRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "NotificationsHandler.MarkAllRead", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		count, err := h.notifications.MarkAllAsRead(ctx)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Some notifications could not be marked read",
				"details": err.Error(),
				"count":   count,
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": count})
	}
}

// Stream pushes the unread set as server-sent events: once on connect and again on every change.
// The subscription is closed when the client goes away.
func (h *NotificationsHandler) Stream() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "NotificationsHandler.Stream", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var query limitQuery
		if err := c.ShouldBindQuery(&query); err != nil {
			custom_err.RespondWithError(c, span, http.StatusBadRequest, "Invalid query", err)
			return
		}

		// holds only the newest set; a slow client skips intermediate states
		updates := make(chan []*models.Notification, 1)
		subscription, err := h.notifications.SubscribeToNotifications(ctx, query.value(), func(items []*models.Notification) {
			for {
				select {
				case updates <- items:
					return
				default:
				}
				select {
				case <-updates:
				default:
				}
			}
		})
		if err != nil {
			custom_err.RespondWithServiceError(c, span, "Failed to subscribe to notifications", err)
			return
		}
		defer subscription.Close()

		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		ticker := time.NewTicker(h.keepAlive)
		defer ticker.Stop()

		c.Stream(func(w io.Writer) bool {
			select {
			case <-ctx.Done():
				return false
			case items := <-updates:
				c.SSEvent("notifications", items)
				return true
			case <-ticker.C:
				c.SSEvent("ping", time.Now().Unix())
				return true
			}
		})
	}
}
