// Command testserver runs a throwaway HTTP target for exercising pulsehammer
// by hand: configurable response delay, status code, and body size.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"
)

func main() {
	port := flag.Int("port", 8080, "Listening port")
	delay := flag.Duration("delay", 0, "Artificial response delay")
	status := flag.Int("status", http.StatusOK, "Status code to answer with")
	bodySize := flag.Int("body-size", 64, "Response body size in bytes")
	flag.Parse()

	body := bytes.Repeat([]byte("x"), *bodySize)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if *delay > 0 {
			time.Sleep(*delay)
		}
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(*status)
		_, _ = w.Write(body)
	})
	// /status/503 style override so error handling can be poked per request.
	mux.HandleFunc("/status/", func(w http.ResponseWriter, r *http.Request) {
		code, err := strconv.Atoi(r.URL.Path[len("/status/"):])
		if err != nil || code < 100 || code > 599 {
			http.Error(w, "bad status code", http.StatusBadRequest)
			return
		}
		if *delay > 0 {
			time.Sleep(*delay)
		}
		w.WriteHeader(code)
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("test server listening on %s (delay=%s status=%d body=%dB)", addr, *delay, *status, *bodySize)
	log.Fatal(http.ListenAndServe(addr, mux))
}
