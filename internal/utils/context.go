package utils

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

type CustomContext struct {
	AppSource string
	UserId    string
	UserEmail string
}

type contextKey string

const customContextKey contextKey = "CUSTOM_CONTEXT"

var (
	UserIdHeaders    = []string{"X-User-Id", "X-USER-ID", "userId", "UserId"}
	UserEmailHeaders = []string{"X-User-Email", "X-USER-EMAIL", "userEmail", "UserEmail"}
)

func WithCustomContext(ctx context.Context, customContext *CustomContext) context.Context {
	return context.WithValue(ctx, customContextKey, customContext)
}

func WithCustomContextFromGinRequest(c *gin.Context, appSource string) context.Context {
	customContext := &CustomContext{
		AppSource: appSource,
		UserId:    c.GetString("UserId"),
		UserEmail: c.GetString("UserEmail"),
	}
	return WithCustomContext(c.Request.Context(), customContext)
}

func GetContext(ctx context.Context) *CustomContext {
	customContext, ok := ctx.Value(customContextKey).(*CustomContext)
	if !ok {
		return new(CustomContext)
	}
	return customContext
}

func GetAppSourceFromContext(ctx context.Context) string {
	return GetContext(ctx).AppSource
}

func GetUserIdFromContext(ctx context.Context) string {
	return GetContext(ctx).UserId
}

func GetUserEmailFromContext(ctx context.Context) string {
	return GetContext(ctx).UserEmail
}

// GetActorFromContext returns who is acting: the user email, the user id, or the app source.
func GetActorFromContext(ctx context.Context) string {
	c := GetContext(ctx)
	switch {
	case c.UserEmail != "":
		return c.UserEmail
	case c.UserId != "":
		return c.UserId
	case c.AppSource != "":
		return c.AppSource
	}
	return "system"
}

func SetAppSourceInContext(ctx context.Context, appSource string) context.Context {
	customContext := *GetContext(ctx)
	customContext.AppSource = appSource
	return WithCustomContext(ctx, &customContext)
}

func SetUserIdInContext(ctx context.Context, userId string) context.Context {
	customContext := *GetContext(ctx)
	customContext.UserId = userId
	return WithCustomContext(ctx, &customContext)
}

func ValidateUser(ctx context.Context) error {
	if GetUserIdFromContext(ctx) == "" && GetUserEmailFromContext(ctx) == "" {
		return errors.New("user is missing")
	}
	return nil
}
