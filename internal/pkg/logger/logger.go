package logger

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Logger 是进程级别的根日志实例。
// 服务启动时调用 Init 设置服务名等公共字段。
var Logger zerolog.Logger

func init() {
	Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// Init 初始化根日志，附加服务名字段。
func Init(serviceName string) {
	Logger = zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// Ctx 返回一个携带追踪信息的日志实例。
// 如果 ctx 中存在有效的 Span，则自动附加 trace_id / span_id 字段，
// 便于在日志系统中和 Jaeger 的调用链互相关联。
func Ctx(ctx context.Context) *zerolog.Logger {
	span := trace.SpanFromContext(ctx)
	if sc := span.SpanContext(); sc.IsValid() {
		l := Logger.With().
			Str("trace_id", sc.TraceID().String()).
			Str("span_id", sc.SpanID().String()).
			Logger()
		return &l
	}
	return &Logger
}
