package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/gridiron-labs/playcall/internal/models"
)

// Config
const (
	API_URL = "http://localhost:8080/api/v1/ingest/plays"
	GAME_ID = "2023_99_SEED_TEST"
)

func main() {
	url := flag.String("url", API_URL, "ingest endpoint")
	drives := flag.Int("drives", 3, "number of drives to send")
	passRate := flag.Float64("pass-rate", 0.6, "share of pass calls")
	flag.Parse()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	// The handler splits the body by newline, one JSON play per line.
	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	plays := 0
	for d := 1; d <= *drives; d++ {
		for _, play := range syntheticDrive(rng, fmt.Sprint(d), *passRate) {
			if err := enc.Encode(play); err != nil {
				log.Fatalf("Failed to marshal JSON: %v", err)
			}
			plays++
		}
	}

	req, err := http.NewRequest("POST", *url, &body)
	if err != nil {
		log.Fatalf("Failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-ndjson")

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("Failed to send request: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("Sent %d plays in %d drives\n", plays, *drives)
	fmt.Printf("Status: %s\n", resp.Status)
	fmt.Printf("Response: %s\n", string(respBody))

	if resp.StatusCode == http.StatusAccepted {
		fmt.Println("✅ Injection Successful!")
	} else {
		fmt.Println("❌ Injection Failed!")
	}
}

// syntheticDrive walks a drive from the offense's 25 until it scores,
// turns it over on downs or punts on fourth down.
func syntheticDrive(rng *rand.Rand, driveID string, passRate float64) []models.PlayRecord {
	var plays []models.PlayRecord
	down, toGo, yardline := 1, 10, 75
	clock := 3600.0 - rng.Float64()*3000
	score := float64(rng.Intn(15) - 7)

	for i := 1; ; i++ {
		playType := "run"
		gain := rng.Intn(8) - 1
		if rng.Float64() < passRate {
			playType = "pass"
			gain = rng.Intn(20) - 3
			if rng.Intn(3) == 0 {
				gain = 0 // incompletion
			}
		}

		seconds := clock
		plays = append(plays, models.PlayRecord{
			GameID:               GAME_ID,
			DriveID:              driveID,
			PlayIndex:            i,
			Season:               2023,
			SeasonType:           "REG",
			Posteam:              "KC",
			PlayType:             playType,
			Down:                 down,
			YardsToGo:            toGo,
			YardlineFromGoal:     yardline,
			ScoreDifferential:    &score,
			GameSecondsRemaining: &seconds,
			PosteamType:          "home",
		})

		yardline -= gain
		toGo -= gain
		clock -= 35
		switch {
		case yardline <= 0:
			plays[len(plays)-1].DriveEnd = true
			return plays
		case toGo <= 0:
			down, toGo = 1, min(10, yardline)
		case down == 4:
			plays[len(plays)-1].DriveEnd = true
			return plays
		default:
			down++
		}
		if down == 4 && toGo > 2 {
			// Punt situations end the drive without a run/pass call.
			plays[len(plays)-1].DriveEnd = true
			return plays
		}
	}
}
