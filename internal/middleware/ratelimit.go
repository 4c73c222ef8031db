package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/shortlink/internal/ratelimit"
	"go.uber.org/zap"
)

// RateLimiter returns a Huma middleware that limits requests per client and route.
// Routes declare their limits with ratelimit.MetadataKey; the limiter's
// defaults cover the rest. A failing limit store lets the request through.
func RateLimiter(
	api huma.API, limiter *ratelimit.Limiter, logger *zap.Logger,
) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		route := operationPath(ctx)
		limits := ratelimit.OperationLimits(ctx.Operation())

		exceeded, err := limiter.Allow(ctx.Context(), clientKey(ctx), route, limits)
		if err != nil {
			logger.Error("rate limit check failed", zap.String("route", route), zap.Error(err))
			next(ctx)

			return
		}

		if exceeded != nil {
			logger.Warn("rate limit exceeded",
				zap.String("route", route),
				zap.String("method", ctx.Method()),
				zap.Int64("count", exceeded.Count),
				zap.Int64("max", exceeded.Limit.Max),
				zap.Duration("window", exceeded.Limit.Window),
				zap.String("client_ip", clientIP(ctx)),
			)

			ctx.SetHeader("Retry-After", strconv.Itoa(int(exceeded.Limit.Window.Seconds())))

			msg := fmt.Sprintf("rate limit exceeded: %d/%d requests in %s",
				exceeded.Count, exceeded.Limit.Max, exceeded.Limit.Window)
			_ = huma.WriteErr(api, ctx, http.StatusTooManyRequests, msg)

			return
		}

		next(ctx)
	}
}
