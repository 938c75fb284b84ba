package usecase

import (
	"context"
	"log"

	"account-service/internal/domain"
	"account-service/pkg/id"
)

// ActivityRecorder appends one log row per authentication attempt. The
// geo lookup is best-effort and never blocks the record.
type ActivityRecorder struct {
	activity ActivityStore
	geo      GeoLookup
	sf       *id.Snowflake
}

func NewActivityRecorder(activity ActivityStore, geo GeoLookup, sf *id.Snowflake) *ActivityRecorder {
	return &ActivityRecorder{activity: activity, geo: geo, sf: sf}
}

func (r *ActivityRecorder) RecordLogin(ctx context.Context, emailAddr, ipAddress, userAgent string, statusCode int, failureReason string) error {
	rec := &domain.UserActivityLog{
		ID:         r.sf.Generate(),
		Email:      emailAddr,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		StatusCode: statusCode,
		Action:     domain.ActivityActionLogin,
	}
	if failureReason != "" {
		rec.FailureReason = &failureReason
	}

	if r.geo != nil && ipAddress != "" {
		if loc, err := r.geo.Lookup(ctx, ipAddress); err == nil {
			s := loc.String()
			rec.GeoLocation = &s
		} else {
			log.Printf("geo lookup failed for %s: %v", ipAddress, err)
		}
	}

	return r.activity.Create(ctx, rec)
}
