package tracing

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/opentracing/opentracing-go/log"

	"github.com/relocrm/leadstack/internal/logger"
	"github.com/relocrm/leadstack/internal/utils"
)

const (
	SpanTagUserId    = "user-id"
	SpanTagUserEmail = "user-email"
	SpanTagAppSource = "app-source"
	SpanTagEntityId  = "entity-id"
	SpanTagComponent = "component"

	uberTraceIdKey = "uber-trace-id"
)

const (
	SpanTagComponentPostgresRepository = "postgresRepository"
	SpanTagComponentLocalStore         = "localStore"
	SpanTagComponentRest               = "rest"
	SpanTagComponentCronJob            = "cronJob"
	SpanTagComponentService            = "service"
	SpanTagComponentListener           = "listener"
)

// StartHttpServerTracerSpanWithHeader continues the caller's trace when the request
// carries one. Otherwise it starts a root span and writes it into headers so handlers
// further down see the same trace.
func StartHttpServerTracerSpanWithHeader(ctx context.Context, operationName string, headers http.Header) (context.Context, opentracing.Span) {
	carrier := opentracing.HTTPHeadersCarrier(headers)
	ctx, span, continued := startServerSpan(ctx, operationName, opentracing.HTTPHeaders, carrier)
	if !continued {
		_ = opentracing.GlobalTracer().Inject(span.Context(), opentracing.HTTPHeaders, carrier)
	}
	return ctx, span
}

// StartRabbitMQMessageTracerSpanWithHeader continues the trace stored in an event's metadata.
func StartRabbitMQMessageTracerSpanWithHeader(ctx context.Context, operationName string, uberTraceId string) (context.Context, opentracing.Span) {
	carrier := opentracing.TextMapCarrier{uberTraceIdKey: uberTraceId}
	ctx, span, _ := startServerSpan(ctx, operationName, opentracing.TextMap, carrier)
	return ctx, span
}

func startServerSpan(ctx context.Context, operationName string, format, carrier interface{}) (context.Context, opentracing.Span, bool) {
	tracer := opentracing.GlobalTracer()

	var opts []opentracing.StartSpanOption
	parent, err := tracer.Extract(format, carrier)
	if err == nil {
		opts = append(opts, ext.RPCServerOption(parent))
	}
	span := tracer.StartSpan(operationName, opts...)
	return opentracing.ContextWithSpan(ctx, span), span, err == nil
}

// StartTracerSpan starts a root span, used by cron jobs and startup work.
func StartTracerSpan(ctx context.Context, operationName string) (opentracing.Span, context.Context) {
	span := opentracing.GlobalTracer().StartSpan(operationName)
	return span, opentracing.ContextWithSpan(ctx, span)
}

func setDefaultSpanTags(ctx context.Context, span opentracing.Span, component string) {
	custom := utils.GetContext(ctx)
	for tag, value := range map[string]string{
		SpanTagUserId:    custom.UserId,
		SpanTagUserEmail: custom.UserEmail,
		SpanTagAppSource: custom.AppSource,
	} {
		if value != "" {
			span.SetTag(tag, value)
		}
	}
	span.SetTag(SpanTagComponent, component)
}

func SetDefaultServiceSpanTags(ctx context.Context, span opentracing.Span) {
	setDefaultSpanTags(ctx, span, SpanTagComponentService)
}

func SetDefaultListenerSpanTags(ctx context.Context, span opentracing.Span) {
	setDefaultSpanTags(ctx, span, SpanTagComponentListener)
}

func TraceErr(span opentracing.Span, err error, fields ...log.Field) {
	if span == nil || err == nil {
		return
	}
	ext.LogError(span, err, fields...)
}

// LogObjectAsJson logs object under name, falling back to the tracer's own
// encoding when it does not marshal.
func LogObjectAsJson(span opentracing.Span, name string, object any) {
	if object == nil {
		span.LogFields(log.String(name, "nil"))
		return
	}
	if encoded, err := json.Marshal(object); err == nil {
		span.LogFields(log.String(name, string(encoded)))
		return
	}
	span.LogFields(log.Object(name, object))
}

// ExtractTextMapCarrier serializes spanCtx for propagation through event metadata.
// A tracer that cannot inject yields an empty carrier.
func ExtractTextMapCarrier(spanCtx opentracing.SpanContext) opentracing.TextMapCarrier {
	carrier := make(opentracing.TextMapCarrier)
	if err := opentracing.GlobalTracer().Inject(spanCtx, opentracing.TextMap, carrier); err != nil {
		return make(opentracing.TextMapCarrier)
	}
	return carrier
}

func TagEntity(span opentracing.Span, entityId string) {
	if entityId != "" {
		span.SetTag(SpanTagEntityId, entityId)
	}
}

func TagComponentPostgresRepository(span opentracing.Span) {
	span.SetTag(SpanTagComponent, SpanTagComponentPostgresRepository)
}

func TagComponentLocalStore(span opentracing.Span) {
	span.SetTag(SpanTagComponent, SpanTagComponentLocalStore)
}

func TagComponentCronJob(span opentracing.Span) {
	span.SetTag(SpanTagComponent, SpanTagComponentCronJob)
}

func TagComponentRest(span opentracing.Span) {
	span.SetTag(SpanTagComponent, SpanTagComponentRest)
}

func TagComponentService(span opentracing.Span) {
	span.SetTag(SpanTagComponent, SpanTagComponentService)
}

func TagComponentListener(span opentracing.Span) {
	span.SetTag(SpanTagComponent, SpanTagComponentListener)
}

// RecoveryWithJaeger turns a handler panic into a 500 and a panic-recovery span.
func RecoveryWithJaeger(tracer opentracing.Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				recordPanic(tracer, r, string(debug.Stack()))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
		}()
		c.Next()
	}
}

// RecoverAndLogToJaeger is deferred by goroutines that must survive a panicking job
// or handler.
func RecoverAndLogToJaeger(appLogger logger.Logger) {
	if r := recover(); r != nil {
		stack := string(debug.Stack())
		recordPanic(opentracing.GlobalTracer(), r, stack)
		appLogger.Errorf("Recovered from panic: %v\nStack trace:\n%s", r, stack)
	}
}

func recordPanic(tracer opentracing.Tracer, recovered any, stack string) {
	span := tracer.StartSpan("panic-recovery")
	defer span.Finish()

	ext.Error.Set(span, true)
	span.LogKV(
		"event", "error",
		"error.object", recovered,
		"stack", stack,
	)
}
