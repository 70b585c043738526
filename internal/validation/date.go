package validation

import (
	"time"

	"github.com/julianstephens/routinely/internal/constants"
)

func parseDate(s string) (time.Time, error) {
	return time.Parse(constants.DateFormat, s)
}
