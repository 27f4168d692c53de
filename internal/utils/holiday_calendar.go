package utils

import (
	"time"

	cal "github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/us"
)

// create once at init
var holidayCal = cal.NewBusinessCalendar()

func init() {
	holidayCal.AddHoliday(
		us.NewYear,
		us.MlkDay,
		us.PresidentsDay,
		us.MemorialDay,
		us.Juneteenth,
		us.IndependenceDay,
		us.LaborDay,
		us.ThanksgivingDay,
		us.ChristmasDay,
	)
}

// IsPublicHoliday reports whether t falls on a public holiday. Shifts posted
// on holidays get the boosted flag during daily maintenance.
func IsPublicHoliday(t time.Time) bool {
	ok, _, _ := holidayCal.IsHoliday(t)
	return ok
}
