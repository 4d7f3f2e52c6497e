// incident-sim publishes synthetic incident lifecycle events, standing
// in for the incident management system during local development.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/opskit/incident-events/events"
	"github.com/opskit/incident-events/publisher"
)

func main() {
	var (
		brokers    = flag.String("brokers", getenv("KAFKA_BROKERS", "localhost:9092"), "kafka brokers, comma separated")
		topic      = flag.String("topic", getenv("KAFKA_TOPIC", "incidents.events"), "incident events topic")
		evtType    = flag.String("type", "incident_created", "incident_created or status_updated")
		incidentID = flag.Int64("incident-id", 0, "incident id (0 derives one from the clock)")
		title      = flag.String("title", "Simulated incident", "incident title")
		priority   = flag.String("priority", "high", "low, medium, high or critical")
		status     = flag.String("status", "open", "initial status for incident_created")
		category   = flag.String("category", "software", "hardware, software, network, security or other")
		reporter   = flag.String("reported-by", "sim@opskit.local", "reporting user")
		assignee   = flag.String("assigned-to", "", "assigned user")
		oldStatus  = flag.String("old-status", "open", "previous status for status_updated")
		newStatus  = flag.String("new-status", "in_progress", "new status for status_updated")
		actor      = flag.String("actor", "sim@opskit.local", "acting user")
		count      = flag.Int("count", 1, "number of events to publish")
	)
	flag.Parse()

	pub, err := publisher.New(publisher.Config{Brokers: *brokers, Topic: *topic})
	if err != nil {
		fatal(err.Error())
	}
	defer pub.Close()

	id := *incidentID
	if id == 0 {
		id = time.Now().Unix() % 100000
	}

	ctx := context.Background()
	for i := 0; i < *count; i++ {
		inc := events.Incident{
			ID:         id + int64(i),
			Title:      *title,
			Priority:   events.Priority(*priority),
			Status:     events.Status(*status),
			Category:   events.Category(*category),
			ReportedBy: *reporter,
			AssignedTo: *assignee,
		}

		var ev events.Event
		switch *evtType {
		case "incident_created":
			ev = events.NewIncidentCreated(inc, *actor)
		case "status_updated":
			ev = events.NewStatusUpdated(inc, events.Status(*oldStatus), events.Status(*newStatus), *actor)
		default:
			fatal("unsupported event type: " + *evtType)
		}

		if err := pub.Publish(ctx, ev); err != nil {
			fatal(err.Error())
		}
		fmt.Printf("published event_id=%s type=%s incident_id=%d key=%s\n",
			ev.EventID, ev.Type, ev.IncidentID, ev.PartitionKey())
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
