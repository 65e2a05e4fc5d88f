// Hammers a single (date, heure) slot with concurrent booking requests and
// reports how the intake gate held up. With the gate working, admitted never
// exceeds the slot capacity no matter how many workers race.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/inauto/garage-booking/internal/db"
)

type result struct {
	status  int
	code    string
	latency time.Duration
}

type tally struct {
	mu        sync.Mutex
	results   []result
	admitted  int
	slotFull  int
	slotBusy  int
	errored   int
	latencies []time.Duration
}

func (t *tally) record(r result) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.results = append(t.results, r)
	t.latencies = append(t.latencies, r.latency)

	switch {
	case r.status == http.StatusCreated:
		t.admitted++
	case r.code == "slot_full":
		t.slotFull++
	case r.code == "slot_busy":
		t.slotBusy++
	default:
		t.errored++
	}
}

func (t *tally) percentile(p int) time.Duration {
	if len(t.latencies) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(t.latencies))
	copy(sorted, t.latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := len(sorted) * p / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:8080", "api base URL")
		workers  = flag.Int("workers", 20, "concurrent booking attempts")
		date     = flag.String("date", time.Now().AddDate(0, 0, 7).Format("2006-01-02"), "target slot date")
		heure    = flag.String("heure", "10:00", "target slot heure")
		capacity = flag.Int("capacity", 3, "expected slot capacity")
	)
	flag.Parse()

	log.SetFlags(log.LstdFlags)
	log.Printf("simulating %d concurrent bookings for slot %s %s", *workers, *date, *heure)

	client := &http.Client{Timeout: 10 * time.Second}
	t := &tally{}

	var wg sync.WaitGroup
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			t.record(attemptBooking(client, *baseURL, *date, *heure, n))
		}(i)
	}
	wg.Wait()

	fmt.Println()
	fmt.Printf("admitted:  %d\n", t.admitted)
	fmt.Printf("slot_full: %d\n", t.slotFull)
	fmt.Printf("slot_busy: %d\n", t.slotBusy)
	fmt.Printf("errors:    %d\n", t.errored)
	fmt.Printf("latency p50=%s p95=%s\n", t.percentile(50), t.percentile(95))

	if t.admitted > *capacity {
		log.Fatalf("FAIL: %d bookings admitted into a slot with capacity %d", t.admitted, *capacity)
	}
	fmt.Printf("OK: admissions stayed within capacity %d\n", *capacity)

	verifyAgainstStore(*date, *heure, *capacity)
}

func attemptBooking(client *http.Client, baseURL, date, heure string, n int) result {
	payload := map[string]any{
		"nom":       fmt.Sprintf("Client simulé %d", n),
		"telephone": fmt.Sprintf("+2376%08d", n),
		"service":   "Vidange",
		"date":      date,
		"heure":     heure,
	}
	body, _ := json.Marshal(payload)

	start := time.Now()
	resp, err := client.Post(baseURL+"/appointments", "application/json", bytes.NewReader(body))
	latency := time.Since(start)
	if err != nil {
		return result{status: 0, code: "transport_error", latency: latency}
	}
	defer resp.Body.Close()

	var errResp struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &errResp)

	return result{status: resp.StatusCode, code: errResp.Error, latency: latency}
}

// verifyAgainstStore double-checks the invariant in the database when a DSN
// is available.
func verifyAgainstStore(date, heure string, capacity int) {
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Printf("store verification skipped: %v", err)
		return
	}
	defer pool.Close()

	var count int
	err = pool.QueryRow(ctx, `
		SELECT count(*) FROM appointments
		WHERE date = $1 AND heure = $2 AND status <> 'cancelled'
	`, date, heure).Scan(&count)
	if err != nil {
		log.Printf("store verification failed: %v", err)
		return
	}

	if count > capacity {
		log.Fatalf("FAIL: store holds %d non-cancelled bookings for %s %s (capacity %d)", count, date, heure, capacity)
	}
	fmt.Printf("store verified: %d non-cancelled bookings for %s %s\n", count, date, heure)
}
