//go:build ignore

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/efa-transit/internal/domain"
)

func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address for streams")
	stationID := flag.Int("station", 20018235, "EFA station id")
	limit := flag.Int("limit", 10, "max departures")
	equivs := flag.Bool("equivs", false, "include equivalent stops")
	flag.Parse()

	client := redis.NewClient(&redis.Options{
		Addr: *redisAddr,
	})
	defer client.Close()

	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	event := domain.DepartureRequestEvent{
		RequestID:     uuid.New(),
		StationID:     *stationID,
		MaxDepartures: *limit,
		Equivs:        *equivs,
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Fatalf("Failed to marshal event: %v", err)
	}

	// Запоминаем конец стрима ответов до публикации
	lastID := "$"
	if msgs, err := client.XRevRangeN(ctx, domain.StreamDepartureDone, "+", "-", 1).Result(); err == nil && len(msgs) > 0 {
		lastID = msgs[0].ID
	}

	result, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: domain.StreamDepartureRequest,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		log.Fatalf("Failed to publish event: %v", err)
	}

	fmt.Printf("Event published\n")
	fmt.Printf("   Stream: %s\n", domain.StreamDepartureRequest)
	fmt.Printf("   Message ID: %s\n", result)
	fmt.Printf("   Request ID: %s\n", event.RequestID)
	fmt.Printf("   Station: %d\n", event.StationID)

	fmt.Printf("\nWaiting for response in %s...\n", domain.StreamDepartureDone)

	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		streams, err := client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{domain.StreamDepartureDone, lastID},
			Count:   10,
			Block:   time.Second,
		}).Result()
		if err != nil && err != redis.Nil {
			log.Fatalf("Failed to read responses: %v", err)
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				lastID = msg.ID

				dataStr, ok := msg.Values["data"].(string)
				if !ok {
					continue
				}

				var done domain.DepartureDoneEvent
				if err := json.Unmarshal([]byte(dataStr), &done); err != nil {
					continue
				}
				if done.RequestID != event.RequestID {
					continue
				}

				if done.Failed() {
					fmt.Printf("\nRequest failed (retryable=%t): %s\n", done.Retryable, done.Error)
					return
				}

				fmt.Printf("\nResponse received, status %s\n", done.Status)
				for _, sd := range done.StationDepartures {
					fmt.Printf("\n%s\n", sd.Location)
					for _, d := range sd.Departures {
						dest := ""
						if d.Destination != nil {
							dest = d.Destination.UniqueShortName()
						}
						fmt.Printf("   %s  %-8s %-30s %s\n", d.Time().Format("15:04"), d.Line.Label(), dest, d.Position)
					}
				}
				return
			}
		}
	}

	fmt.Println("Timeout waiting for response")
}
