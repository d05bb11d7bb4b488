// Command rentctl books a vehicle from the terminal against a running rentme
// server, or tails the booking events it publishes.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/IBM/sarama"

	"vehiclerental/internal/infra/broker/kafka"
	"vehiclerental/internal/infra/http/client"
	"vehiclerental/internal/infra/obs"
	"vehiclerental/internal/wizard"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := os.Args[1:]
	if len(args) > 0 && args[0] == "events" {
		if err := runEvents(ctx, args[1:]); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "rentctl events:", err)
			os.Exit(1)
		}
		return
	}
	if err := runBook(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, "rentctl:", err)
		os.Exit(1)
	}
}

func runBook(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("rentctl", flag.ContinueOnError)
	api := fs.String("api", envOr("RENTME_API", "http://localhost:8080/api/v1"), "booking API base URL")
	timeout := fs.Duration("timeout", 10*time.Second, "per-request timeout")
	debug := fs.Bool("debug", false, "panic on invalid wizard transitions")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rentals := client.New(*api, *timeout)
	if err := rentals.Ping(ctx); err != nil {
		return fmt.Errorf("server not reachable at %s: %w", *api, err)
	}
	logger := obs.NewLoggerTo(os.Stderr, "dev", "warn")
	m := wizard.New(wizard.Options{
		Submitter: rentals,
		Catalog:   rentals,
		Debug:     *debug,
		Logger:    logger,
	})
	defer m.Dispose()
	return newSession(m, os.Stdin, os.Stdout).Run(ctx)
}

func runEvents(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("rentctl events", flag.ContinueOnError)
	brokers := fs.String("brokers", envOr("KAFKA_BROKERS", "localhost:9092"), "comma separated Kafka brokers")
	prefix := fs.String("topic-prefix", os.Getenv("KAFKA_TOPIC_PREFIX"), "topic prefix used by the server")
	group := fs.String("group", "rentctl", "consumer group id")
	oldest := fs.Bool("from-beginning", false, "start from the oldest retained event")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var list []string
	for _, b := range strings.Split(*brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			list = append(list, b)
		}
	}
	consumer, err := kafka.NewConsumer(list, *group, *oldest, kafka.HandlerFunc(printEvent))
	if err != nil {
		return err
	}
	defer consumer.Close()
	return consumer.Run(ctx, []string{*prefix + "booking.events.v1"})
}

type cloudEvent struct {
	Type    string          `json:"type"`
	Subject string          `json:"subject"`
	Time    time.Time       `json:"time"`
	Data    json.RawMessage `json:"data"`
}

func printEvent(_ context.Context, msg *sarama.ConsumerMessage) error {
	var ev cloudEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		fmt.Printf("offset=%d undecodable event: %v\n", msg.Offset, err)
		return nil
	}
	fmt.Printf("%s %s %s %s\n", ev.Time.Format(time.RFC3339), ev.Type, ev.Subject, ev.Data)
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
