package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Standalone load generator for the public ticket form. Useful for
// watching the rate limiter saturate: expect mostly 429s once the
// per-minute ticket budget is spent.
func main() {
	baseURL := "http://localhost:8080/api"

	var createdCount int64
	var limitedCount int64
	var errorCount int64
	var wg sync.WaitGroup

	numRequests := 500
	concurrentWorkers := 25

	startTime := time.Now()

	jobs := make(chan int, numRequests)

	// start workers
	for w := 0; w < concurrentWorkers; w++ {
		wg.Add(1)
		go worker(w, jobs, baseURL, &createdCount, &limitedCount, &errorCount, &wg)
	}

	// send jobs
	for j := 0; j < numRequests; j++ {
		jobs <- j
	}
	close(jobs)

	wg.Wait()

	duration := time.Since(startTime)
	requestsPerSecond := float64(numRequests) / duration.Seconds()

	fmt.Println("Load Test Results:")
	fmt.Println("==================")
	fmt.Printf("Total Requests: %d\n", numRequests)
	fmt.Printf("Tickets Created: %d\n", createdCount)
	fmt.Printf("Rate Limited (429): %d\n", limitedCount)
	fmt.Printf("Failed: %d\n", errorCount)
	fmt.Printf("Duration: %v\n", duration)
	fmt.Printf("Requests/sec: %.2f\n", requestsPerSecond)
}

func worker(
	id int,
	jobs <-chan int,
	baseURL string,
	createdCount, limitedCount, errorCount *int64,
	wg *sync.WaitGroup,
) {
	defer wg.Done()

	client := &http.Client{
		Timeout: 10 * time.Second,
	}

	for j := range jobs {
		payload := map[string]string{
			"name":    fmt.Sprintf("Load Tester %d", id),
			"email":   fmt.Sprintf("loadtest+%d@example.com", id),
			"subject": fmt.Sprintf("Synthetic ticket %d", j),
			"message": "Generated by loadtest, safe to delete",
		}

		jsonData, _ := json.Marshal(payload)

		req, err := http.NewRequest(
			"POST",
			baseURL+"/tickets",
			bytes.NewBuffer(jsonData),
		)
		if err != nil {
			atomic.AddInt64(errorCount, 1)
			continue
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", id))

		resp, err := client.Do(req)
		if err != nil {
			log.Printf("Worker %d error: %v\n", id, err)
			atomic.AddInt64(errorCount, 1)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			atomic.AddInt64(limitedCount, 1)
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			atomic.AddInt64(createdCount, 1)
		default:
			atomic.AddInt64(errorCount, 1)
		}
		resp.Body.Close()

		time.Sleep(10 * time.Millisecond)
	}
}
