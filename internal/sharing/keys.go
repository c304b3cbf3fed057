package sharing

import (
	"fmt"
	"math"
	"time"
)

// Namespace is the prefix under which every key of this subsystem lives
const Namespace = "shares"

// Contract constants. These are part of the wire contract with existing data:
// changing any of them breaks continuity of already-written buckets.
const (
	DedupWindow = 3600 * time.Second
	DailyTTL    = 7 * 24 * time.Hour
	WeeklyTTL   = 30 * 24 * time.Hour
	MonthlyTTL  = 365 * 24 * time.Hour
	EventLogTTL = 30 * 24 * time.Hour
	EventLogCap = 1000

	// How much history the aggregator reconstructs, counted back from now
	DailyBuckets   = 7
	WeeklyBuckets  = 4
	MonthlyBuckets = 12
)

// Platforms is the fixed set of platform names the per-key aggregator reads.
// Platforms outside this list are still counted in the global histogram.
var Platforms = []string{"twitter", "weibo", "linkedin", "facebook", "qq", "wechat", "copy"}

// keys derives every store key from (contentKey, platform, date). All
// functions are pure; the rest of the package never builds a key by hand.

func platformKey(contentKey, platform string) string {
	return fmt.Sprintf("%s:%s:platform:%s", Namespace, contentKey, platform)
}

func totalKey(contentKey string) string {
	return fmt.Sprintf("%s:%s:total", Namespace, contentKey)
}

func dailyKey(contentKey, day string) string {
	return fmt.Sprintf("%s:%s:daily:%s", Namespace, contentKey, day)
}

func weeklyKey(contentKey, week string) string {
	return fmt.Sprintf("%s:%s:weekly:%s", Namespace, contentKey, week)
}

func monthlyKey(contentKey, month string) string {
	return fmt.Sprintf("%s:%s:monthly:%s", Namespace, contentKey, month)
}

func lastSharedKey(contentKey string) string {
	return fmt.Sprintf("%s:%s:last_shared", Namespace, contentKey)
}

func eventLogKey(contentKey string) string {
	return fmt.Sprintf("%s:%s:events", Namespace, contentKey)
}

func dedupKey(clientIPHash, contentKey, platform string) string {
	return fmt.Sprintf("%s:dedup:%s:%s:%s", Namespace, clientIPHash, contentKey, platform)
}

func globalTotalKey() string {
	return Namespace + ":total"
}

func leaderboardKey() string {
	return Namespace + ":leaderboard"
}

func platformHistogramKey() string {
	return Namespace + ":platforms"
}

// NamespacePattern matches every key of the subsystem, for bulk cleanup
func NamespacePattern() string {
	return Namespace + ":*"
}

// dayLabel formats a UTC calendar day as YYYY-MM-DD
func dayLabel(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// monthLabel formats a UTC calendar month as YYYY-MM
func monthLabel(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// weekLabel formats a week as YYYY-W<n> where n = ceil((date - Jan 1) / 7d).
// This is not the ISO-8601 week number; near year boundaries the two
// disagree. Kept for continuity with buckets already written in this scheme.
func weekLabel(t time.Time) string {
	t = t.UTC()
	jan1 := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	week := int(math.Ceil(t.Sub(jan1).Hours() / (24 * 7)))
	return fmt.Sprintf("%d-W%d", t.Year(), week)
}

// lastDayLabels returns labels for the most recent n days, newest first
func lastDayLabels(now time.Time, n int) []string {
	labels := make([]string, 0, n)
	for i := 0; i < n; i++ {
		labels = append(labels, dayLabel(now.AddDate(0, 0, -i)))
	}
	return labels
}

// lastWeekLabels returns labels for the most recent n weeks, newest first
func lastWeekLabels(now time.Time, n int) []string {
	labels := make([]string, 0, n)
	for i := 0; i < n; i++ {
		labels = append(labels, weekLabel(now.AddDate(0, 0, -7*i)))
	}
	return labels
}

// lastMonthLabels returns labels for the most recent n months, newest first.
// Anchored to the first of the month so day-of-month overflow can't skip one.
func lastMonthLabels(now time.Time, n int) []string {
	now = now.UTC()
	anchor := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	labels := make([]string, 0, n)
	for i := 0; i < n; i++ {
		labels = append(labels, monthLabel(anchor.AddDate(0, -i, 0)))
	}
	return labels
}
