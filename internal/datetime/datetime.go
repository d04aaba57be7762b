// Package datetime answers calendar questions about the current instant in
// a chosen IANA time zone.
package datetime

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/lestrrat-go/strftime"
)

const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04:05"
	DateTimeLayout = "2006-01-02 15:04:05"

	DefaultFormat = "%Y-%m-%d"

	localZoneName = "local"
)

var commonTimezones = []string{
	"UTC",
	"Asia/Shanghai",
	"Asia/Tokyo",
	"Asia/Hong_Kong",
	"Asia/Singapore",
	"Europe/London",
	"Europe/Paris",
	"Europe/Berlin",
	"America/New_York",
	"America/Los_Angeles",
	"America/Chicago",
	"Australia/Sydney",
	"Pacific/Auckland",
}

var weekdayNamesZH = [...]string{"周一", "周二", "周三", "周四", "周五", "周六", "周日"}

// nowAliases select the current instant in Format.
var nowAliases = []string{"today", "now", "当前", "今天"}

// Clock reads the current time. A zero Clock uses time.Now.
type Clock struct {
	Now func() time.Time
}

// Info is a detailed breakdown of one instant.
type Info struct {
	Date          string `json:"date"`
	Time          string `json:"time"`
	DateTime      string `json:"datetime"`
	Year          int    `json:"year"`
	Month         int    `json:"month"`
	Day           int    `json:"day"`
	Hour          int    `json:"hour"`
	Minute        int    `json:"minute"`
	Second        int    `json:"second"`
	Weekday       int    `json:"weekday"`
	WeekdayName   string `json:"weekday_name"`
	WeekdayNameZH string `json:"weekday_name_zh"`
	DayOfYear     int    `json:"day_of_year"`
	WeekOfYear    int    `json:"week_of_year"`
	IsLeapYear    bool   `json:"is_leap_year"`
	Timezone      string `json:"timezone"`
}

// LoadLocation resolves an IANA zone name. Empty means the local zone.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("unknown time zone %q: %w", name, err)
	}
	return loc, nil
}

func (c Clock) now(tz string) (time.Time, error) {
	loc, err := LoadLocation(tz)
	if err != nil {
		return time.Time{}, err
	}
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return now().In(loc), nil
}

func (c Clock) CurrentDate(tz string) (string, error) {
	return c.layout(tz, DateLayout)
}

func (c Clock) CurrentTime(tz string) (string, error) {
	return c.layout(tz, TimeLayout)
}

func (c Clock) CurrentDateTime(tz string) (string, error) {
	return c.layout(tz, DateTimeLayout)
}

func (c Clock) layout(tz, layout string) (string, error) {
	now, err := c.now(tz)
	if err != nil {
		return "", err
	}
	return now.Format(layout), nil
}

func (c Clock) Info(tz string) (Info, error) {
	now, err := c.now(tz)
	if err != nil {
		return Info{}, err
	}

	zone := localZoneName
	if strings.TrimSpace(tz) != "" {
		zone = now.Location().String()
	}
	return Describe(now, zone), nil
}

// Describe breaks t down as seen in its own location.
func Describe(t time.Time, zone string) Info {
	_, week := t.ISOWeek()
	weekday := mondayFirst(t.Weekday())

	return Info{
		Date:          t.Format(DateLayout),
		Time:          t.Format(TimeLayout),
		DateTime:      t.Format(DateTimeLayout),
		Year:          t.Year(),
		Month:         int(t.Month()),
		Day:           t.Day(),
		Hour:          t.Hour(),
		Minute:        t.Minute(),
		Second:        t.Second(),
		Weekday:       weekday,
		WeekdayName:   t.Weekday().String(),
		WeekdayNameZH: weekdayNamesZH[weekday],
		DayOfYear:     t.YearDay(),
		WeekOfYear:    week,
		IsLeapYear:    isLeap(t.Year()),
		Timezone:      zone,
	}
}

// Format renders dateStr with a strftime pattern. dateStr is either one of
// the "now" aliases or a YYYY-MM-DD date interpreted at midnight in tz.
func (c Clock) Format(dateStr, pattern, tz string) (string, error) {
	if pattern == "" {
		pattern = DefaultFormat
	}

	now, err := c.now(tz)
	if err != nil {
		return "", err
	}

	t := now
	if !isNowAlias(dateStr) {
		t, err = time.ParseInLocation(DateLayout, strings.TrimSpace(dateStr), now.Location())
		if err != nil {
			return "", fmt.Errorf("date %q does not match YYYY-MM-DD", dateStr)
		}
	}

	out, err := strftime.Format(pattern, t)
	if err != nil {
		return "", fmt.Errorf("format %q: %w", pattern, err)
	}
	return out, nil
}

func CommonTimezones() []string {
	return append([]string(nil), commonTimezones...)
}

func isNowAlias(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, alias := range nowAliases {
		if s == alias {
			return true
		}
	}
	return false
}

func mondayFirst(d time.Weekday) int {
	return (int(d) + 6) % 7
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
