// Command scanner watches a directory of camera frames, decodes the first QR
// code it finds and submits it to the attendance API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"Backend-Attendance/src/scanner"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Warning: No .env file found")
	}

	var (
		apiURL   = flag.String("api", envOr("SCANNER_API_URL", "http://localhost:8888"), "attendance API base URL")
		token    = flag.String("token", os.Getenv("SCANNER_TOKEN"), "participant bearer token")
		frames   = flag.String("frames", envOr("SCANNER_FRAMES_DIR", "frames"), "directory polled for image frames")
		interval = flag.Duration("interval", 250*time.Millisecond, "frame sampling interval")
		timeout  = flag.Duration("timeout", 10*time.Second, "request timeout")
		lat      = flag.String("lat", os.Getenv("SCANNER_LATITUDE"), "device latitude")
		lon      = flag.String("lon", os.Getenv("SCANNER_LONGITUDE"), "device longitude")
		retries  = flag.Int("retries", 3, "resubmissions after a network error")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src, err := scanner.NewDirSource(*frames)
	if err != nil {
		log.Fatalf("❌ Frame source: %v", err)
	}

	opts := []scanner.Option{scanner.WithInterval(*interval)}
	if loc, err := parseLocation(*lat, *lon); err != nil {
		log.Fatalf("❌ %v", err)
	} else if loc != nil {
		opts = append(opts, scanner.WithLocator(*loc))
	}

	s := scanner.New(src, scanner.NewZXingDecoder(), scanner.NewHTTPSubmitter(*apiURL, *token, *timeout), opts...)
	defer s.Stop()

	log.Printf("📷 Watching %s for QR codes", *frames)
	for attempt := 0; ; attempt++ {
		res, err := s.Run(ctx)
		if errors.Is(err, context.Canceled) {
			log.Println("🛑 Camera stopped")
			return
		}
		if err != nil {
			log.Fatalf("❌ Scan failed: %v", err)
		}

		fmt.Printf("%s: %s\n", res.Code, res.Message)
		if res.Data != nil {
			fmt.Printf("  %s @ %s (%s)\n", res.Data.ParticipantName, res.Data.EventTitle, res.Data.ScannedAt.Format(time.RFC3339))
		}
		if !res.Retryable || attempt >= *retries {
			s.Stop()
			if !res.Success() {
				os.Exit(1)
			}
			return
		}
		log.Printf("🔁 Retrying (%d/%d), drop a new frame to re-scan", attempt+1, *retries)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseLocation(lat, lon string) (*scanner.StaticLocator, error) {
	if lat == "" && lon == "" {
		return nil, nil
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude %q", lat)
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude %q", lon)
	}
	return &scanner.StaticLocator{Latitude: la, Longitude: lo}, nil
}
