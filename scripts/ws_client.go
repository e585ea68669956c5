// Package main runs a demo WebSocket client for plan events.
package main

import (
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	u := url.URL{Scheme: "ws", Host: fmt.Sprintf("localhost:%s", port), Path: "/v1/daily-routes/events/ws"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	log.Printf("connected to %s", u.String())

	// Trigger today's generation so an event arrives.
	go func() {
		time.Sleep(500 * time.Millisecond)
		resp, err := http.Post(base+"/v1/daily-routes/generate-today", "application/json", nil)
		if err != nil {
			log.Printf("generate: %v", err)
			return
		}
		resp.Body.Close()
		log.Printf("generate-today: %s", resp.Status)
	}()

	deadline := time.After(30 * time.Second)
	events := make(chan []byte, 1)
	go func() {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				log.Printf("read: %v", err)
				close(events)
				return
			}
			events <- msg
		}
	}()

	for {
		select {
		case msg, ok := <-events:
			if !ok {
				return
			}
			log.Printf("event: %s", msg)
		case <-deadline:
			log.Printf("done")
			return
		}
	}
}
