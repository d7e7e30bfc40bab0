package utils

import "time"

// Moscow time (MSK, +03:00); the bot's users are Russian-speaking.
var mskLoc = func() *time.Location {
	if loc, err := time.LoadLocation("Europe/Moscow"); err == nil {
		return loc
	}
	return time.FixedZone("MSK", 3*3600)
}()

// NowRFC3339 is the timestamp format stored in TravelRequest.CreatedAt.
func NowRFC3339() string {
	return time.Now().In(mskLoc).Format(time.RFC3339)
}

