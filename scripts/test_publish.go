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

	"github.com/map-metadata/internal/domain"
)

func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address for streams")
	trajectories := flag.String("trajectories", "", "trajectory CSV (default from worker config)")
	edges := flag.String("edges", "", "edge CSV (default from worker config)")
	nodes := flag.String("nodes", "", "node CSV (default from worker config)")
	wait := flag.Duration("wait", 2*time.Minute, "how long to wait for the result")
	flag.Parse()

	client := redis.NewClient(&redis.Options{
		Addr: *redisAddr,
	})
	defer client.Close()

	ctx := context.Background()

	// Проверка подключения
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	event := domain.RecomputeEvent{
		RunID:          uuid.New(),
		TrajectoryPath: *trajectories,
		EdgesPath:      *edges,
		NodesPath:      *nodes,
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Fatalf("Failed to marshal event: %v", err)
	}

	// Запоминаем хвост стрима результатов до публикации
	lastID := "0-0"
	if msgs, err := client.XRevRangeN(ctx, domain.StreamMetadataDone, "+", "-", 1).Result(); err == nil && len(msgs) > 0 {
		lastID = msgs[0].ID
	}

	// Публикация в стрим
	result, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: domain.StreamMetadataRecompute,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		log.Fatalf("Failed to publish event: %v", err)
	}

	fmt.Printf("Event published\n")
	fmt.Printf("   Stream: %s\n", domain.StreamMetadataRecompute)
	fmt.Printf("   Message ID: %s\n", result)
	fmt.Printf("   Run ID: %s\n", event.RunID)

	fmt.Printf("\nWaiting for response in %s...\n", domain.StreamMetadataDone)

	deadline := time.Now().Add(*wait)
	for time.Now().Before(deadline) {
		results, err := client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{domain.StreamMetadataDone, lastID},
			Count:   10,
			Block:   time.Second,
		}).Result()
		if err != nil && err != redis.Nil {
			log.Printf("Read failed: %v", err)
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range results {
			for _, msg := range stream.Messages {
				lastID = msg.ID
				dataStr, ok := msg.Values["data"].(string)
				if !ok {
					continue
				}

				var done domain.RecomputeDoneEvent
				if err := json.Unmarshal([]byte(dataStr), &done); err != nil || done.RunID != event.RunID {
					continue
				}

				pretty, _ := json.MarshalIndent(done, "", "  ")
				if done.Succeeded() {
					fmt.Printf("\nRun finished\n%s\n", pretty)
				} else {
					fmt.Printf("\nRun failed\n%s\n", pretty)
				}
				return
			}
		}
	}
	fmt.Println("Timeout waiting for response")
}
