// Package ical converts base events to and from iCalendar (RFC 5545)
// objects so a sync layer can exchange them with external calendars. Only
// the rule subset the recurrence engine understands is supported; the engine
// itself never sees RRULE text.
package ical

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"

	"github.com/planora/libplanora/civil"
	"github.com/planora/libplanora/event"
)

const prodID = "-//planora//libplanora//EN"

// ErrUnsupportedRule reports an RRULE that uses parts outside the engine's
// rule model (multiple simultaneous by-rules, set positions, sub-daily
// frequencies, and so on).
var ErrUnsupportedRule = errors.New("unsupported recurrence rule")

const (
	dateLayout     = "20060102"
	dateTimeLayout = "20060102T150405Z"

	// go-ical has no constant for RECURRENCE-ID.
	propRecurrenceID = "RECURRENCE-ID"
)

// EncodeCalendar renders events as a VCALENDAR with one VEVENT per base
// event, EXDATE entries for deleted occurrences, and companion VEVENTs with
// RECURRENCE-ID for overrides.
func EncodeCalendar(events []*event.BaseEvent) (*ical.Calendar, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, prodID)
	cal.Props.SetText(ical.PropVersion, "2.0")

	for _, ev := range events {
		comp, err := encodeEvent(ev)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", ev.ID, err)
		}
		cal.Children = append(cal.Children, comp)

		for _, exc := range ev.Exceptions {
			if exc.IsDeleted || exc.Override == nil {
				continue
			}
			cal.Children = append(cal.Children, encodeOverride(ev, exc))
		}
	}

	return cal, nil
}

// EncodeICS renders events as iCalendar text.
func EncodeICS(events []*event.BaseEvent) (string, error) {
	cal, err := EncodeCalendar(events)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return "", fmt.Errorf("encode calendar: %w", err)
	}
	return buf.String(), nil
}

func encodeEvent(ev *event.BaseEvent) (*ical.Component, error) {
	comp := ical.NewEvent()
	comp.Props.SetText(ical.PropUID, ev.ID)
	comp.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	setContent(comp.Props, ev.Content)
	comp.Props.Set(dateProp(ical.PropDateTimeStart, ev.OriginDate))

	if ev.Rule != nil {
		value, err := ruleToRRule(ev.OriginDate, ev.Rule)
		if err != nil {
			return nil, err
		}
		// RRULE is RECUR-valued, so the value must be set verbatim.
		// SetText would escape the part separators.
		rruleProp := ical.NewProp(ical.PropRecurrenceRule)
		rruleProp.Value = value
		comp.Props.Set(rruleProp)
	}

	for _, exc := range ev.Exceptions {
		if exc.IsDeleted {
			comp.Props.Add(dateProp(ical.PropExceptionDates, exc.OriginalDate))
		}
	}

	return comp.Component, nil
}

func encodeOverride(ev *event.BaseEvent, exc event.RecurrenceException) *ical.Component {
	comp := ical.NewEvent()
	comp.Props.SetText(ical.PropUID, ev.ID)
	comp.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	comp.Props.Set(dateProp(propRecurrenceID, exc.OriginalDate))
	setContent(comp.Props, exc.Override.Content)

	date := exc.Override.Date
	if date.IsZero() {
		date = exc.OriginalDate
	}
	comp.Props.Set(dateProp(ical.PropDateTimeStart, date))

	return comp.Component
}

func setContent(props ical.Props, content event.Content) {
	props.SetText(ical.PropSummary, content.Title)
	if content.Notes != "" {
		props.SetText(ical.PropDescription, content.Notes)
	}
	if content.Color != "" {
		props.SetText(ical.PropColor, content.Color)
	}
}

func dateProp(name string, d civil.Date) *ical.Prop {
	p := ical.NewProp(name)
	p.SetValueType(ical.ValueDate)
	p.Value = d.Time().Format(dateLayout)
	return p
}

// ruleToRRule serializes the rule through rrule-go, which owns the RFC 5545
// text form.
func ruleToRRule(origin civil.Date, r *event.RecurrenceRule) (string, error) {
	opt := rrule.ROption{Interval: r.Interval}

	switch r.Frequency {
	case event.Daily:
		opt.Freq = rrule.DAILY
	case event.Weekly:
		opt.Freq = rrule.WEEKLY
	case event.Monthly:
		opt.Freq = rrule.MONTHLY
	case event.Yearly:
		opt.Freq = rrule.YEARLY
	default:
		return "", fmt.Errorf("%w: frequency %q", ErrUnsupportedRule, r.Frequency)
	}

	for _, wd := range r.DaysOfWeek {
		opt.Byweekday = append(opt.Byweekday, toRRuleWeekday(wd))
	}
	if r.DayOfMonth > 0 && r.DayOfMonth != origin.Day {
		opt.Bymonthday = []int{r.DayOfMonth}
	}
	if r.EndDate != nil {
		opt.Until = r.EndDate.Time()
	}
	if r.EndAfterCount > 0 {
		opt.Count = r.EndAfterCount
	}

	rr, err := rrule.NewRRule(opt)
	if err != nil {
		return "", fmt.Errorf("build rrule: %w", err)
	}
	return rr.OrigOptions.RRuleString(), nil
}

// DecodeCalendar extracts base events from a VCALENDAR. VEVENTs sharing a
// UID are folded together: the one without RECURRENCE-ID is the base, the
// rest become override exceptions.
func DecodeCalendar(cal *ical.Calendar) ([]*event.BaseEvent, error) {
	byID := make(map[string]*event.BaseEvent)
	var order []string
	type override struct {
		uid string
		exc event.RecurrenceException
	}
	var overrides []override

	for _, child := range cal.Children {
		if child.Name != ical.CompEvent {
			continue
		}
		uid, err := child.Props.Text(ical.PropUID)
		if err != nil {
			return nil, fmt.Errorf("read UID: %w", err)
		}
		if uid == "" {
			return nil, errors.New("event missing UID")
		}

		if rid := child.Props.Get(propRecurrenceID); rid != nil {
			exc, err := decodeOverride(child, rid)
			if err != nil {
				return nil, fmt.Errorf("event %s: %w", uid, err)
			}
			overrides = append(overrides, override{uid: uid, exc: exc})
			continue
		}

		ev, err := decodeEvent(uid, child)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", uid, err)
		}
		byID[uid] = ev
		order = append(order, uid)
	}

	for _, ov := range overrides {
		base, ok := byID[ov.uid]
		if !ok {
			// Orphan override with no master event; nothing to attach to.
			continue
		}
		base.Exceptions = append(base.Exceptions, ov.exc)
	}

	events := make([]*event.BaseEvent, 0, len(order))
	for _, uid := range order {
		events = append(events, byID[uid])
	}
	return events, nil
}

// DecodeICS parses iCalendar text into base events.
func DecodeICS(ics string) ([]*event.BaseEvent, error) {
	cal, err := ical.NewDecoder(strings.NewReader(ics)).Decode()
	if err != nil {
		return nil, fmt.Errorf("decode calendar: %w", err)
	}
	return DecodeCalendar(cal)
}

func decodeEvent(uid string, comp *ical.Component) (*event.BaseEvent, error) {
	origin, allDay, err := datePropValue(comp, ical.PropDateTimeStart)
	if err != nil {
		return nil, err
	}

	ev := &event.BaseEvent{
		ID:         uid,
		OriginDate: origin,
		Content:    decodeContent(comp, allDay),
	}

	if prop := comp.Props.Get(ical.PropRecurrenceRule); prop != nil && prop.Value != "" {
		rule, err := rruleToRule(prop.Value)
		if err != nil {
			return nil, err
		}
		ev.Rule = rule
	}

	for _, prop := range comp.Props[ical.PropExceptionDates] {
		dates, err := parseDateList(prop.Value)
		if err != nil {
			return nil, fmt.Errorf("exdate: %w", err)
		}
		for _, d := range dates {
			ev.Exceptions = append(ev.Exceptions, event.RecurrenceException{
				OriginalDate: d,
				IsDeleted:    true,
			})
		}
	}

	return ev, nil
}

func decodeOverride(comp *ical.Component, rid *ical.Prop) (event.RecurrenceException, error) {
	original, err := parseICalDate(rid.Value)
	if err != nil {
		return event.RecurrenceException{}, fmt.Errorf("recurrence-id: %w", err)
	}

	date, allDay, err := datePropValue(comp, ical.PropDateTimeStart)
	if err != nil {
		return event.RecurrenceException{}, err
	}

	return event.RecurrenceException{
		OriginalDate: original,
		Override: &event.Override{
			Date:    date,
			Content: decodeContent(comp, allDay),
		},
	}, nil
}

func decodeContent(comp *ical.Component, allDay bool) event.Content {
	content := event.Content{AllDay: allDay}
	content.Title, _ = comp.Props.Text(ical.PropSummary)
	content.Notes, _ = comp.Props.Text(ical.PropDescription)
	content.Color, _ = comp.Props.Text(ical.PropColor)
	return content
}

// datePropValue reads a DATE or DATE-TIME property as a civil date, also
// reporting whether it was a whole-day value.
func datePropValue(comp *ical.Component, name string) (civil.Date, bool, error) {
	prop := comp.Props.Get(name)
	if prop == nil {
		return civil.Date{}, false, fmt.Errorf("missing %s", name)
	}
	d, err := parseICalDate(prop.Value)
	if err != nil {
		return civil.Date{}, false, fmt.Errorf("%s: %w", name, err)
	}
	return d, prop.ValueType() == ical.ValueDate, nil
}

func parseICalDate(value string) (civil.Date, error) {
	if t, err := time.ParseInLocation(dateLayout, value, time.UTC); err == nil {
		return civil.DateOf(t), nil
	}
	if t, err := time.Parse(dateTimeLayout, value); err == nil {
		return civil.DateOf(t.UTC()), nil
	}
	return civil.Date{}, fmt.Errorf("cannot parse date %q", value)
}

func parseDateList(value string) ([]civil.Date, error) {
	var out []civil.Date
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := parseICalDate(part)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// rruleToRule maps an RRULE onto the engine's rule model, rejecting parts
// the engine does not evaluate rather than silently dropping them.
func rruleToRule(value string) (*event.RecurrenceRule, error) {
	opt, err := rrule.StrToROption(value)
	if err != nil {
		return nil, fmt.Errorf("parse rrule %q: %w", value, err)
	}

	rule := &event.RecurrenceRule{Interval: opt.Interval}
	if rule.Interval == 0 {
		rule.Interval = 1
	}

	switch opt.Freq {
	case rrule.DAILY:
		rule.Frequency = event.Daily
	case rrule.WEEKLY:
		rule.Frequency = event.Weekly
	case rrule.MONTHLY:
		rule.Frequency = event.Monthly
	case rrule.YEARLY:
		rule.Frequency = event.Yearly
	default:
		return nil, fmt.Errorf("%w: frequency in %q", ErrUnsupportedRule, value)
	}

	if len(opt.Bysetpos) > 0 || len(opt.Bymonth) > 0 || len(opt.Byyearday) > 0 ||
		len(opt.Byweekno) > 0 || len(opt.Byhour) > 0 || len(opt.Byminute) > 0 ||
		len(opt.Bysecond) > 0 {
		return nil, fmt.Errorf("%w: by-rule parts in %q", ErrUnsupportedRule, value)
	}

	if len(opt.Byweekday) > 0 {
		if rule.Frequency != event.Weekly {
			return nil, fmt.Errorf("%w: BYDAY outside weekly in %q", ErrUnsupportedRule, value)
		}
		for _, wd := range opt.Byweekday {
			if wd.N() != 0 {
				return nil, fmt.Errorf("%w: positional BYDAY in %q", ErrUnsupportedRule, value)
			}
			rule.DaysOfWeek = append(rule.DaysOfWeek, fromRRuleWeekday(wd))
		}
	}

	if len(opt.Bymonthday) > 0 {
		if rule.Frequency != event.Monthly || len(opt.Bymonthday) > 1 || opt.Bymonthday[0] < 1 {
			return nil, fmt.Errorf("%w: BYMONTHDAY in %q", ErrUnsupportedRule, value)
		}
		rule.DayOfMonth = opt.Bymonthday[0]
	}

	if !opt.Until.IsZero() {
		end := civil.DateOf(opt.Until.UTC())
		rule.EndDate = &end
	}
	if opt.Count > 0 {
		rule.EndAfterCount = opt.Count
	}

	return rule, nil
}

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

func toRRuleWeekday(wd time.Weekday) rrule.Weekday {
	return rruleWeekdays[wd]
}

func fromRRuleWeekday(wd rrule.Weekday) time.Weekday {
	// rrule weekdays are Monday-based (MO=0); time.Weekday is Sunday-based.
	return time.Weekday((wd.Day() + 1) % 7)
}
