package domain

import (
	"fmt"
	"time"
)

// LatestCycle returns the most recent forecast cycle expected to be published
// at now: now minus lag, with the hour floored to a multiple of cycle and the
// minutes and seconds zeroed. cycle must be a whole number of hours that
// divides 24.
func LatestCycle(now time.Time, lag, cycle time.Duration) time.Time {
	t := now.UTC().Add(-lag)
	step := int(cycle / time.Hour)
	if step < 1 {
		step = 1
	}
	hour := (t.Hour() / step) * step
	return time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, time.UTC)
}

// CurrentCycle is LatestCycle evaluated at the package clock.
func CurrentCycle(lag, cycle time.Duration) time.Time {
	return LatestCycle(clock.Now(), lag, cycle)
}

// CycleStamp formats a cycle as YYYYMMDDHHMMSS.
func CycleStamp(cycle time.Time) string {
	return cycle.UTC().Format("20060102150405")
}

// SourceFileName is the archive file name of the MSM surface GRIB2 product
// for the given cycle.
func SourceFileName(cycle time.Time) string {
	return fmt.Sprintf("Z__C_RJTD_%s_MSM_GPV_Rjp_Lsurf_FH00-15_grib2.bin", CycleStamp(cycle))
}

// SourcePath is the archive path of the cycle's file relative to the archive
// root: YYYY/MM/DD/<file name>.
func SourcePath(cycle time.Time) string {
	c := cycle.UTC()
	return fmt.Sprintf("%04d/%02d/%02d/%s", c.Year(), int(c.Month()), c.Day(), SourceFileName(c))
}
