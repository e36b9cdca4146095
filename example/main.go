// Command example seeds an in-memory store with a few events and prints a
// month view built through the recurrence engine.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/planora/libplanora/civil"
	"github.com/planora/libplanora/event"
	"github.com/planora/libplanora/ical"
	"github.com/planora/libplanora/recurrence"
	"github.com/planora/libplanora/storage/memory"
	"github.com/planora/libplanora/view"
)

func main() {
	ctx := context.Background()
	store := memory.New()

	standup := &event.BaseEvent{
		ID:         "standup",
		OriginDate: civil.Date{Year: 2026, Month: time.January, Day: 5},
		Content:    event.Content{Title: "Team standup", Color: "#3b82f6"},
		Rule: &event.RecurrenceRule{
			Frequency:  event.Weekly,
			Interval:   1,
			DaysOfWeek: []time.Weekday{time.Monday, time.Wednesday, time.Friday},
		},
	}

	rent := &event.BaseEvent{
		ID:         "rent",
		OriginDate: civil.Date{Year: 2026, Month: time.January, Day: 31},
		Content:    event.Content{Title: "Pay rent", Color: "#ef4444", AllDay: true},
		Rule: &event.RecurrenceRule{
			Frequency: event.Monthly,
			Interval:  1,
		},
	}

	checkup := &event.BaseEvent{
		ID:         "checkup",
		OriginDate: civil.Date{Year: 2026, Month: time.February, Day: 3},
		Content:    event.Content{Title: "Dentist", AllDay: true},
	}

	for _, ev := range []*event.BaseEvent{standup, rent, checkup} {
		if err := store.PutEvent(ctx, ev); err != nil {
			log.Fatalf("seed store: %v", err)
		}
	}

	// Cancel one standup and move another.
	mustPutException(ctx, store, "standup", event.RecurrenceException{
		OriginalDate: civil.Date{Year: 2026, Month: time.February, Day: 9},
		IsDeleted:    true,
	})
	mustPutException(ctx, store, "standup", event.RecurrenceException{
		OriginalDate: civil.Date{Year: 2026, Month: time.February, Day: 11},
		Override: &event.Override{
			Date:    civil.Date{Year: 2026, Month: time.February, Day: 12},
			Content: event.Content{Title: "Team standup (moved)", Color: "#3b82f6"},
		},
	})

	engine := recurrence.NewEngineWithConfig(recurrence.DefaultEngineConfig)
	defer engine.Close()

	events, err := store.ListEvents(ctx)
	if err != nil {
		log.Fatalf("list events: %v", err)
	}

	month, err := view.NewBuilder(engine, nil).Month(events, 2026, time.February)
	if err != nil {
		log.Fatalf("build month view: %v", err)
	}

	fmt.Println("February 2026")
	for _, day := range month.Days() {
		for _, occ := range month.On(day) {
			marker := " "
			if occ.IsOverride {
				marker = "*"
			}
			fmt.Printf("  %s %s %s\n", day, marker, occ.Content.Title)
		}
	}

	ics, err := ical.EncodeICS(events)
	if err != nil {
		log.Fatalf("encode ics: %v", err)
	}
	fmt.Println()
	fmt.Println(ics)
}

func mustPutException(ctx context.Context, store *memory.Store, eventID string, exc event.RecurrenceException) {
	if err := store.PutException(ctx, eventID, exc); err != nil {
		log.Fatalf("put exception: %v", err)
	}
}
