package redisx

import "fmt"

const ns = "kinogo:v1"

func KeyShowSummary(showID int64) string {
	return fmt.Sprintf("%s:show:%d:summary", ns, showID)
}

func KeyShowAvailability(showID int64) string {
	return fmt.Sprintf("%s:show:%d:availability", ns, showID)
}

func KeyShowSeatMap(showID int64) string {
	return fmt.Sprintf("%s:show:%d:seatmap", ns, showID)
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

func ChannelShowsChanged() string {
	return ns + ":shows:changed"
}
