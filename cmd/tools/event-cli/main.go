package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/annel0/teemap/internal/eventbus"
	"github.com/annel0/teemap/internal/teemap"
)

const (
	defaultNatsURL = "nats://127.0.0.1:4222"
	timeFormat     = "2006-01-02T15:04:05Z"
)

func main() {
	var (
		natsURL    = flag.String("nats", envOr("TEEMAP_NATS_URL", defaultNatsURL), "NATS server URL")
		stream     = flag.String("stream", eventbus.DefaultStream, "JetStream stream name")
		command    = flag.String("cmd", "tail", "Command: tail, stats")
		eventTypes = flag.String("types", "", "Event types filter (comma-separated)")
		sources    = flag.String("sources", "", "Event sources filter (comma-separated)")
		since      = flag.String("since", "1h", "Time duration since now (e.g., 1h, 30m) or RFC3339 time")
		limit      = flag.Int("limit", 100, "Maximum number of events")
		follow     = flag.Bool("follow", false, "Follow new events (like tail -f)")
		idle       = flag.Duration("idle", 2*time.Second, "Stop when no event arrives for this long (ignored with -follow)")
	)
	flag.Parse()

	start, err := parseSinceTime(*since, time.Now())
	if err != nil {
		log.Fatalf("❌ Invalid since time: %v", err)
	}

	bus, err := eventbus.NewJetStreamBus(*natsURL, *stream, 0)
	if err != nil {
		log.Fatalf("❌ Failed to connect to NATS: %v", err)
	}
	defer bus.Close()

	filter := eventbus.Filter{
		Types:   parseStringList(*eventTypes),
		Sources: parseStringList(*sources),
		Since:   start,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch *command {
	case "tail":
		err = tailEvents(ctx, bus, filter, *limit, *follow, *idle)
	case "stats":
		err = showStats(ctx, bus, filter, *idle)
	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: tail, stats")
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("❌ %s failed: %v", *command, err)
	}
}

// collect подписывается на шину и передаёт события в fn, пока fn возвращает true,
// контекст не отменён или (без follow) не истёк интервал простоя.
func collect(ctx context.Context, bus eventbus.EventBus, f eventbus.Filter, follow bool, idle time.Duration, fn func(*eventbus.Envelope) bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan *eventbus.Envelope, 64)
	sub, err := bus.Subscribe(ctx, f, func(hctx context.Context, ev *eventbus.Envelope) {
		select {
		case events <- ev:
		case <-hctx.Done():
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	timer := time.NewTimer(idle)
	defer timer.Stop()
	for {
		var timeout <-chan time.Time
		if !follow {
			timeout = timer.C
		}
		select {
		case <-ctx.Done():
			return nil
		case <-timeout:
			return nil
		case ev := <-events:
			if !fn(ev) {
				return nil
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(idle)
		}
	}
}

// tailEvents выводит события
func tailEvents(ctx context.Context, bus eventbus.EventBus, f eventbus.Filter, limit int, follow bool, idle time.Duration) error {
	fmt.Printf("🎬 Tailing events since %s (limit: %d, follow: %v)\n", f.Since.UTC().Format(timeFormat), limit, follow)

	count := 0
	err := collect(ctx, bus, f, follow, idle, func(ev *eventbus.Envelope) bool {
		printEvent(ev)
		count++
		return follow || count < limit
	})
	fmt.Printf("\n📊 Total events: %d\n", count)
	return err
}

// showStats выводит количество событий по типам
func showStats(ctx context.Context, bus eventbus.EventBus, f eventbus.Filter, idle time.Duration) error {
	fmt.Println("📊 Event statistics")

	byType := make(map[string]int)
	total := 0
	err := collect(ctx, bus, f, false, idle, func(ev *eventbus.Envelope) bool {
		byType[ev.EventType]++
		total++
		return true
	})

	fmt.Printf("Since: %s\n", f.Since.UTC().Format(timeFormat))
	fmt.Printf("Total events: %d\n", total)
	fmt.Println("\nBy event type:")
	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Printf("  %s: %d events\n", t, byType[t])
	}
	return err
}

// printEvent выводит событие в читаемом формате
func printEvent(ev *eventbus.Envelope) {
	fmt.Printf("[%s] %s [%s] %s\n", ev.Timestamp.Format("15:04:05"), ev.Source, ev.EventType, ev.ID)

	switch ev.EventType {
	case eventbus.EventMapLoaded:
		var s teemap.Summary
		if err := json.Unmarshal(ev.Payload, &s); err == nil {
			fmt.Printf("  Map: %016x %dx%d layers=%d author=%q\n", s.Checksum, s.Width, s.Height, s.Layers, s.Author)
		}
	case eventbus.EventMapRejected:
		var r eventbus.MapRejected
		if err := json.Unmarshal(ev.Payload, &r); err == nil {
			fmt.Printf("  Origin: %s Error: %s\n", r.Origin, r.Error)
		}
	}
}

// parseStringList парсит строку с разделителями-запятыми
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// parseSinceTime парсит относительное время типа "1h", "30m" или абсолютное
func parseSinceTime(since string, from time.Time) (time.Time, error) {
	if since == "" {
		return from, nil
	}
	duration, err := time.ParseDuration(since)
	if err != nil {
		return time.Parse(timeFormat, since)
	}
	return from.Add(-duration), nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
