package services

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// dailyAt returns a schedule firing every day at hour:minute in loc.
func dailyAt(loc *time.Location, hour, minute int) (cron.Schedule, error) {
	return cron.ParseStandard(fmt.Sprintf("CRON_TZ=%s %d %d * * *", loc.String(), minute, hour))
}

// dayStart returns midnight of t's calendar day in loc.
func dayStart(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
