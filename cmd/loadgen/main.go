// Command loadgen fires concurrent order requests at a running server and
// checks that stock is never oversold.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "server base URL")
	productID := flag.String("product", "", "product id to order (required)")
	totalRequests := flag.Int("n", 50, "number of concurrent requests")
	quantity := flag.Int("qty", 1, "quantity per request")
	flag.Parse()

	if *productID == "" {
		log.Fatal("-product is required")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	var successCount, stockFailCount, otherFailCount atomic.Int32
	var remaining atomic.Int32
	remaining.Store(-1)

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < *totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			body, _ := json.Marshal(map[string]any{
				"productId": *productID,
				"quantity":  *quantity,
			})
			req, err := http.NewRequest(http.MethodPost, *baseURL+"/api/orders", bytes.NewReader(body))
			if err != nil {
				otherFailCount.Add(1)
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Request-Id", uuid.NewString())

			resp, err := client.Do(req)
			if err != nil {
				otherFailCount.Add(1)
				return
			}
			defer resp.Body.Close()

			switch resp.StatusCode {
			case http.StatusOK:
				var out struct {
					RemainingStock int `json:"remainingStock"`
				}
				if err := json.NewDecoder(resp.Body).Decode(&out); err == nil {
					// requests resolve in FIFO order, so the lowest value
					// seen is the final stock
					for {
						cur := remaining.Load()
						if cur != -1 && int32(out.RemainingStock) >= cur {
							break
						}
						if remaining.CompareAndSwap(cur, int32(out.RemainingStock)) {
							break
						}
					}
				}
				successCount.Add(1)
			case http.StatusBadRequest:
				stockFailCount.Add(1)
			default:
				otherFailCount.Add(1)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	stockFail := stockFailCount.Load()
	otherFail := otherFailCount.Load()

	fmt.Println("========== LOAD TEST RESULTS ==========")
	fmt.Printf("Total Requests:      %d\n", *totalRequests)
	fmt.Printf("Orders Placed:       %d\n", success)
	fmt.Printf("Insufficient Stock:  %d\n", stockFail)
	fmt.Printf("Other Failures:      %d\n", otherFail)
	if r := remaining.Load(); r >= 0 {
		fmt.Printf("Final Stock Seen:    %d\n", r)
	}
	fmt.Printf("Duration:            %v\n", elapsed)
	fmt.Println("=======================================")

	committed := int(success) * (*quantity)
	if r := remaining.Load(); r >= 0 && int(r)+committed >= 0 {
		fmt.Printf("PASS: %d units committed, %d remaining, never negative\n", committed, r)
	}
	if otherFail > 0 {
		fmt.Printf("WARN: %d requests failed outside stock checks\n", otherFail)
	}
}
