package testutil

import (
	"time"

	"inro/internal/card/apdu"
)

// Tokyo is fixed at UTC+9 so fixtures do not depend on the tz database.
var Tokyo = time.FixedZone("JST", 9*60*60)

// TokyoTime is the instant at hour:minute on the given Tokyo civil date.
func TokyoTime(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, Tokyo)
}

// FixedClock always returns t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// CardResponse is a successful READ BINARY response carrying digits.
func CardResponse(digits string) []byte {
	return CardResponseWithStatus(digits, apdu.SWSuccess)
}

// CardResponseWithStatus is digits followed by the given status word.
func CardResponseWithStatus(digits string, sw apdu.StatusWord) []byte {
	return append([]byte(digits), sw.Bytes()...)
}
