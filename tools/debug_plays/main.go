package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/ClickHouse/clickhouse-go/v2"
)

func main() {
	chURL := os.Getenv("CLICKHOUSE_URL")
	if chURL == "" {
		chURL = "clickhouse://localhost:9000/playcall"
	}

	opts, err := clickhouse.ParseDSN(chURL)
	if err != nil {
		log.Fatalf("Failed to parse DSN: %v", err)
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open connection: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	rows, err := conn.Query(ctx, `
		SELECT
			toInt64(season) AS season,
			count() AS plays,
			uniqExact(game_id) AS games,
			countIf(play_type = 'pass') / count() AS pass_rate
		FROM playcall.plays
		WHERE play_type IN ('pass', 'run') AND down > 0
		GROUP BY season
		ORDER BY season
	`)
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	defer rows.Close()

	fmt.Printf("%-8s %10s %8s %10s\n", "season", "plays", "games", "pass_rate")
	for rows.Next() {
		var season int64
		var plays, games uint64
		var passRate float64
		if err := rows.Scan(&season, &plays, &games, &passRate); err != nil {
			log.Fatalf("Scan failed: %v", err)
		}
		fmt.Printf("%-8d %10d %8d %10.3f\n", season, plays, games, passRate)
	}
	if err := rows.Err(); err != nil {
		log.Fatal(err)
	}
}
