package obs

import (
	"context"
	"location-tracker-service/internal/platform/logging"
	"location-tracker-service/internal/platform/metrics"
	"time"
)

// Time starts timing an operation. Call the returned func with a pointer to
// the operation's named error result, usually via defer.
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	return func(errp *error) {
		dur := time.Since(start)
		failed := errp != nil && *errp != nil
		metrics.RecordOperation(name, failed, dur)

		if failed {
			logging.Ctx(ctx).Warn().Str("op", name).Int64("dur_ms", dur.Milliseconds()).Err(*errp).Msg("operation failed")
			return
		}
		logging.Ctx(ctx).Debug().Str("op", name).Int64("dur_ms", dur.Milliseconds()).Msg("operation complete")
	}
}
