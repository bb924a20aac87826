// Package main provides a stress testing tool for the websocket relay.
//
// Each client connects as one existing user (ids first..first+clients-1, via the userId query
// parameter) and periodically asks the server to relay a like event to another client.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// Metrics tracks the test results
type Metrics struct {
	ConnectionsAttempted int64
	ConnectionsSuccess   int64
	ConnectionsFailed    int64
	RelaysSent           int64
	EventsReceived       int64
	Errors               int64
}

var metrics Metrics

type relayRequest struct {
	Type   string `json:"type"`
	UserID uint   `json:"userId"`
	PostID *uint  `json:"postId,omitempty"`
}

func main() {
	host := flag.String("host", "localhost:3001", "API server host")
	first := flag.Uint("first-user", 1, "First user id to connect as")
	clients := flag.Int("clients", 20, "Number of concurrent clients")
	interval := flag.Duration("interval", 2*time.Second, "Delay between relay requests per client")
	duration := flag.Duration("duration", 30*time.Second, "Test duration")
	flag.Parse()

	if *clients < 2 {
		log.Fatal("❌ At least two clients are needed to relay between")
	}

	log.Printf("🚀 Starting Relay Stress Test")
	log.Printf("Target: %s", *host)
	log.Printf("Clients: %d (users %d-%d)", *clients, *first, *first+uint(*clients)-1)
	log.Printf("Duration: %v", *duration)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	stopChan := make(chan struct{})

	for i := 0; i < *clients; i++ {
		wg.Add(1)
		userID := *first + uint(i)
		go runClient(*host, userID, *first, *clients, *interval, stopChan, &wg)
		time.Sleep(20 * time.Millisecond)
	}

	select {
	case <-time.After(*duration):
		log.Println("⏱️  Test duration reached")
	case <-interrupt:
		log.Println("🛑 Interrupted by user")
	}

	close(stopChan)
	log.Println("Waiting for clients to disconnect...")
	wg.Wait()

	printMetrics()
}

func runClient(host string, userID, first uint, clients int, interval time.Duration, stopChan <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	atomic.AddInt64(&metrics.ConnectionsAttempted, 1)

	u := url.URL{Scheme: "ws", Host: host, Path: "/ws", RawQuery: fmt.Sprintf("userId=%d", userID)}
	c, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		atomic.AddInt64(&metrics.ConnectionsFailed, 1)
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = c.Close() }()

	atomic.AddInt64(&metrics.ConnectionsSuccess, 1)

	go func() {
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
			atomic.AddInt64(&metrics.EventsReceived, 1)
		}
	}()

	//nolint:gosec // load generation only
	rng := rand.New(rand.NewSource(int64(userID)))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopChan:
			_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-ticker.C:
			target := first + uint(rng.Intn(clients))
			if target == userID {
				continue
			}
			postID := uint(1)
			msg, _ := json.Marshal(relayRequest{Type: "like", UserID: target, PostID: &postID})
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				atomic.AddInt64(&metrics.Errors, 1)
				return
			}
			atomic.AddInt64(&metrics.RelaysSent, 1)
		}
	}
}

func printMetrics() {
	log.Println("\n📊 Test Results")
	log.Println("===============")
	log.Printf("Connections Attempted: %d", atomic.LoadInt64(&metrics.ConnectionsAttempted))
	log.Printf("Connections Successful: %d", atomic.LoadInt64(&metrics.ConnectionsSuccess))
	log.Printf("Connections Failed: %d", atomic.LoadInt64(&metrics.ConnectionsFailed))
	log.Printf("Relays Sent: %d", atomic.LoadInt64(&metrics.RelaysSent))
	log.Printf("Events Received: %d", atomic.LoadInt64(&metrics.EventsReceived))
	log.Printf("Total Errors: %d", atomic.LoadInt64(&metrics.Errors))
}
