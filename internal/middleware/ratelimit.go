package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
)

// RateLimit limits requests per client IP using an in-memory store.
// rateFormatted follows the limiter format: "100-M", "1000-H", "50-S".
// An empty rate disables limiting.
func RateLimit(rateFormatted string) (gin.HandlerFunc, error) {
	if rateFormatted == "" {
		return func(c *gin.Context) { c.Next() }, nil
	}

	rate, err := limiter.NewRateFromFormatted(rateFormatted)
	if err != nil {
		return nil, err
	}

	instance := limiter.New(memory.NewStore(), rate)
	return mgin.NewMiddleware(instance,
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			apierrors.AbortWithError(c, http.StatusTooManyRequests,
				apierrors.NewAPIError(apierrors.ErrCodeRateLimited, "Rate limit exceeded"))
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			log.Error().Err(err).Msg("Rate limiter failed")
			apierrors.InternalError(c, "")
		}),
	), nil
}
