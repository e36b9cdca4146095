package ical

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planora/libplanora/civil"
	"github.com/planora/libplanora/event"
)

func date(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func TestEncodeICS_RecurringEvent(t *testing.T) {
	end := date(2026, time.June, 30)
	ev := &event.BaseEvent{
		ID:         "standup-1",
		OriginDate: date(2026, time.January, 5),
		Content:    event.Content{Title: "Standup", Color: "#3b82f6", AllDay: true},
		Rule: &event.RecurrenceRule{
			Frequency:  event.Weekly,
			Interval:   2,
			DaysOfWeek: []time.Weekday{time.Monday, time.Friday},
			EndDate:    &end,
		},
		Exceptions: []event.RecurrenceException{
			{OriginalDate: date(2026, time.January, 19), IsDeleted: true},
		},
	}

	ics, err := EncodeICS([]*event.BaseEvent{ev})
	require.NoError(t, err)

	assert.Contains(t, ics, "BEGIN:VEVENT")
	assert.Contains(t, ics, "UID:standup-1")
	assert.Contains(t, ics, "SUMMARY:Standup")
	assert.Contains(t, ics, "DTSTART;VALUE=DATE:20260105")
	assert.Contains(t, ics, "EXDATE;VALUE=DATE:20260119")
	assert.Contains(t, ics, "FREQ=WEEKLY")
	assert.Contains(t, ics, "INTERVAL=2")
	assert.Contains(t, ics, "UNTIL=20260630")

	// RRULE parts are separated by literal, unescaped semicolons.
	assert.Contains(t, ics, "RRULE:FREQ=WEEKLY")
	assert.NotContains(t, ics, "RRULE;VALUE=TEXT")
	assert.NotContains(t, ics, `\;`)
}

func TestEncodeICS_OverrideBecomesCompanionEvent(t *testing.T) {
	ev := &event.BaseEvent{
		ID:         "standup-1",
		OriginDate: date(2026, time.January, 5),
		Content:    event.Content{Title: "Standup"},
		Rule:       &event.RecurrenceRule{Frequency: event.Weekly, Interval: 1},
		Exceptions: []event.RecurrenceException{
			{
				OriginalDate: date(2026, time.January, 12),
				Override: &event.Override{
					Date:    date(2026, time.January, 13),
					Content: event.Content{Title: "Standup (moved)"},
				},
			},
		},
	}

	ics, err := EncodeICS([]*event.BaseEvent{ev})
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(ics, "BEGIN:VEVENT"))
	assert.Contains(t, ics, "RECURRENCE-ID;VALUE=DATE:20260112")
	assert.Contains(t, ics, "DTSTART;VALUE=DATE:20260113")
	assert.Contains(t, ics, "SUMMARY:Standup (moved)")
}

func TestRoundTrip_PreservesRuleSemantics(t *testing.T) {
	end := date(2027, time.December, 31)
	events := []*event.BaseEvent{
		{
			ID:         "daily-1",
			OriginDate: date(2026, time.March, 1),
			Content:    event.Content{Title: "Medication", Notes: "with food", AllDay: true},
			Rule: &event.RecurrenceRule{
				Frequency:     event.Daily,
				Interval:      3,
				EndAfterCount: 20,
			},
		},
		{
			ID:         "rent-1",
			OriginDate: date(2026, time.January, 15),
			Content:    event.Content{Title: "Rent", AllDay: true},
			Rule: &event.RecurrenceRule{
				Frequency:  event.Monthly,
				Interval:   1,
				DayOfMonth: 31,
				EndDate:    &end,
			},
		},
		{
			ID:         "oneoff-1",
			OriginDate: date(2026, time.May, 2),
			Content:    event.Content{Title: "Concert", AllDay: true},
		},
	}

	ics, err := EncodeICS(events)
	require.NoError(t, err)

	decoded, err := DecodeICS(ics)
	require.NoError(t, err)
	require.Len(t, decoded, 3)

	byID := make(map[string]*event.BaseEvent)
	for _, ev := range decoded {
		byID[ev.ID] = ev
	}

	daily := byID["daily-1"]
	require.NotNil(t, daily)
	require.NotNil(t, daily.Rule)
	assert.Equal(t, event.Daily, daily.Rule.Frequency)
	assert.Equal(t, 3, daily.Rule.Interval)
	assert.Equal(t, 20, daily.Rule.EndAfterCount)
	assert.Equal(t, date(2026, time.March, 1), daily.OriginDate)
	assert.Equal(t, "Medication", daily.Content.Title)
	assert.Equal(t, "with food", daily.Content.Notes)

	rent := byID["rent-1"]
	require.NotNil(t, rent)
	require.NotNil(t, rent.Rule)
	assert.Equal(t, event.Monthly, rent.Rule.Frequency)
	assert.Equal(t, 31, rent.Rule.DayOfMonth)
	require.NotNil(t, rent.Rule.EndDate)
	assert.Equal(t, end, *rent.Rule.EndDate)

	oneOff := byID["oneoff-1"]
	require.NotNil(t, oneOff)
	assert.Nil(t, oneOff.Rule)
}

func TestDecodeICS_ExdatesAndOverrides(t *testing.T) {
	ics := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//test//EN",
		"BEGIN:VEVENT",
		"UID:ev-1",
		"DTSTAMP:20260101T000000Z",
		"DTSTART;VALUE=DATE:20260105",
		"SUMMARY:Standup",
		"RRULE:FREQ=WEEKLY",
		"EXDATE;VALUE=DATE:20260112,20260126",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:ev-1",
		"DTSTAMP:20260101T000000Z",
		"RECURRENCE-ID;VALUE=DATE:20260119",
		"DTSTART;VALUE=DATE:20260120",
		"SUMMARY:Standup (moved)",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")

	events, err := DecodeICS(ics)
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "ev-1", ev.ID)
	require.NotNil(t, ev.Rule)
	assert.Equal(t, event.Weekly, ev.Rule.Frequency)
	assert.Equal(t, 1, ev.Rule.Interval)

	require.Len(t, ev.Exceptions, 3)

	var deleted []civil.Date
	var overrides []event.RecurrenceException
	for _, exc := range ev.Exceptions {
		if exc.IsDeleted {
			deleted = append(deleted, exc.OriginalDate)
		} else {
			overrides = append(overrides, exc)
		}
	}
	assert.ElementsMatch(t, []civil.Date{
		date(2026, time.January, 12),
		date(2026, time.January, 26),
	}, deleted)

	require.Len(t, overrides, 1)
	assert.Equal(t, date(2026, time.January, 19), overrides[0].OriginalDate)
	require.NotNil(t, overrides[0].Override)
	assert.Equal(t, date(2026, time.January, 20), overrides[0].Override.Date)
	assert.Equal(t, "Standup (moved)", overrides[0].Override.Content.Title)
}

func TestDecodeICS_RejectsUnsupportedRules(t *testing.T) {
	template := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//test//EN",
		"BEGIN:VEVENT",
		"UID:ev-1",
		"DTSTAMP:20260101T000000Z",
		"DTSTART;VALUE=DATE:20260105",
		"SUMMARY:Unsupported",
		"RRULE:%s",
		"END:VEVENT",
		"END:VCALENDAR",
		"",
	}, "\r\n")

	rules := []string{
		"FREQ=HOURLY",
		"FREQ=MONTHLY;BYSETPOS=-1;BYDAY=MO",
		"FREQ=MONTHLY;BYMONTHDAY=-1",
		"FREQ=MONTHLY;BYMONTHDAY=1,15",
	}
	for _, rule := range rules {
		_, err := DecodeICS(strings.Replace(template, "%s", rule, 1))
		assert.ErrorIs(t, err, ErrUnsupportedRule, "rule %s", rule)
	}
}

func TestRoundTrip_WeekdayMapping(t *testing.T) {
	ev := &event.BaseEvent{
		ID:         "wk",
		OriginDate: date(2026, time.January, 5),
		Content:    event.Content{Title: "Weekdays", AllDay: true},
		Rule: &event.RecurrenceRule{
			Frequency:  event.Weekly,
			Interval:   1,
			DaysOfWeek: []time.Weekday{time.Sunday, time.Monday, time.Saturday},
		},
	}

	ics, err := EncodeICS([]*event.BaseEvent{ev})
	require.NoError(t, err)

	decoded, err := DecodeICS(ics)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	require.NotNil(t, decoded[0].Rule)
	assert.ElementsMatch(t,
		[]time.Weekday{time.Sunday, time.Monday, time.Saturday},
		decoded[0].Rule.DaysOfWeek)
}
