package datetime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// 2024-02-29 23:30:05 UTC is 2024-03-01 07:30:05 in Shanghai.
var fixed = time.Date(2024, 2, 29, 23, 30, 5, 0, time.UTC)

func fixedClock() Clock {
	return Clock{Now: func() time.Time { return fixed }}
}

func TestCurrentDateAndTimeInZone(t *testing.T) {
	t.Parallel()

	c := fixedClock()

	date, err := c.CurrentDate("Asia/Shanghai")
	require.NoError(t, err)
	require.Equal(t, "2024-03-01", date)

	clock, err := c.CurrentTime("UTC")
	require.NoError(t, err)
	require.Equal(t, "23:30:05", clock)

	both, err := c.CurrentDateTime("America/New_York")
	require.NoError(t, err)
	require.Equal(t, "2024-02-29 18:30:05", both)
}

func TestUnknownZone(t *testing.T) {
	t.Parallel()

	_, err := fixedClock().CurrentDate("Mars/Olympus_Mons")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Mars/Olympus_Mons")
}

func TestInfo(t *testing.T) {
	t.Parallel()

	info, err := fixedClock().Info("UTC")
	require.NoError(t, err)
	require.Equal(t, Info{
		Date:          "2024-02-29",
		Time:          "23:30:05",
		DateTime:      "2024-02-29 23:30:05",
		Year:          2024,
		Month:         2,
		Day:           29,
		Hour:          23,
		Minute:        30,
		Second:        5,
		Weekday:       3,
		WeekdayName:   "Thursday",
		WeekdayNameZH: "周四",
		DayOfYear:     60,
		WeekOfYear:    9,
		IsLeapYear:    true,
		Timezone:      "UTC",
	}, info)
}

func TestInfoLocalZone(t *testing.T) {
	t.Parallel()

	info, err := fixedClock().Info("")
	require.NoError(t, err)
	require.Equal(t, "local", info.Timezone)
}

func TestDescribeSundayAndISOWeek(t *testing.T) {
	t.Parallel()

	// ISO week 1 of 2021 starts on 2021-01-04, so 2021-01-03 is week 53 of 2020.
	info := Describe(time.Date(2021, 1, 3, 12, 0, 0, 0, time.UTC), "UTC")
	require.Equal(t, 6, info.Weekday)
	require.Equal(t, "周日", info.WeekdayNameZH)
	require.Equal(t, 53, info.WeekOfYear)
	require.False(t, info.IsLeapYear)
}

func TestIsLeap(t *testing.T) {
	t.Parallel()

	require.True(t, isLeap(2000))
	require.False(t, isLeap(1900))
	require.True(t, isLeap(2024))
	require.False(t, isLeap(2023))
}

func TestFormat(t *testing.T) {
	t.Parallel()

	c := fixedClock()

	cases := []struct {
		date, pattern, tz, want string
	}{
		{"2024-07-04", "%m/%d/%Y", "", "07/04/2024"},
		{"2024-07-04", "%Y年%m月%d日", "Asia/Shanghai", "2024年07月04日"},
		{"today", "", "Asia/Shanghai", "2024-03-01"},
		{"NOW", "%H:%M", "UTC", "23:30"},
		{"今天", "%A", "UTC", "Thursday"},
		{"当前", "%Y", "Pacific/Auckland", "2024"},
	}
	for _, tc := range cases {
		got, err := c.Format(tc.date, tc.pattern, tc.tz)
		require.NoError(t, err, tc.date)
		require.Equal(t, tc.want, got)
	}
}

func TestFormatRejectsBadDate(t *testing.T) {
	t.Parallel()

	_, err := fixedClock().Format("04/07/2024", "%Y", "UTC")
	require.Error(t, err)
	require.Contains(t, err.Error(), "YYYY-MM-DD")
}

func TestCommonTimezonesResolve(t *testing.T) {
	t.Parallel()

	zones := CommonTimezones()
	require.Len(t, zones, 13)
	require.Equal(t, "UTC", zones[0])
	for _, zone := range zones {
		_, err := LoadLocation(zone)
		require.NoError(t, err, zone)
	}

	zones[0] = "changed"
	require.Equal(t, "UTC", CommonTimezones()[0])
}
