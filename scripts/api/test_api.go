// Minimal end‑to‑end integration test for the VeriTrust API. Needs a running server
// with a live AI provider key.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	baseURL  = getenv("API_URL", "http://localhost:8080/v1")
	redisURL = os.Getenv("REDIS_URL")
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	token, sid := newSession()

	text := "Integration check " + uuid.NewString() + ": please wire the deposit before noon, the CEO is travelling."
	verifyText(token, text)
	checkDashboard(token)
	checkHistory(token, 1)

	if redisURL != "" {
		checkGateReleased(sid)
	}

	other, _ := newSession()
	checkHistory(other, 0)

	fmt.Println("✓ all endpoints passed")
}

// ----------------------------- sessions

func newSession() (string, string) {
	var resp struct {
		Token     string
		SessionID string
	}
	doJSON("POST", "/sessions", nil, &resp, http.StatusCreated)
	if resp.Token == "" || resp.SessionID == "" {
		log.Fatal("sessions: empty token")
	}
	return resp.Token, resp.SessionID
}

// ----------------------------- verification

func verifyText(tok, text string) {
	var resp struct {
		Record struct {
			ID     string
			Result struct {
				TrustScore         int
				AuthenticityRating string
			}
		}
	}
	doAuth(tok, "POST", "/verify", map[string]any{"kind": "text", "text": text}, &resp, http.StatusOK)
	if resp.Record.ID == "" {
		log.Fatal("verify: record missing id")
	}
	fmt.Printf("  verdict: %s (%d)\n", resp.Record.Result.AuthenticityRating, resp.Record.Result.TrustScore)
}

func checkDashboard(tok string) {
	var ov struct {
		Stats struct{ Total int }
		Trend []struct{ TrustScore int }
	}
	doAuth(tok, "GET", "/dashboard?trend=10", nil, &ov, http.StatusOK)
	if ov.Stats.Total != 1 || len(ov.Trend) != 1 {
		log.Fatalf("dashboard: total=%d trend=%d", ov.Stats.Total, len(ov.Trend))
	}
}

func checkHistory(tok string, want int) {
	var resp struct{ Records []struct{ ID string } }
	doAuth(tok, "GET", "/history", nil, &resp, http.StatusOK)
	if len(resp.Records) != want {
		log.Fatalf("history: want %d records got %d", want, len(resp.Records))
	}
}

// ----------------------------- redis gate

func checkGateReleased(sid string) {
	rdb := mustRedis()
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	n, err := rdb.Exists(ctx, "veritrust:pending:"+sid).Result()
	if err != nil {
		log.Fatalf("redis exists: %v", err)
	}
	if n != 0 {
		log.Fatal("redis: pending flag not released")
	}
}

// ----------------------------- helpers

func mustRedis() *redis.Client {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("redis url: %v", err)
	}
	return redis.NewClient(opt)
}

func doAuth(token, method, path string, body, out any, want int) {
	doReq(method, path, token, body, out, want)
}

func doJSON(method, path string, body, out any, want int) {
	doReq(method, path, "", body, out, want)
}

func doReq(method, path, token string, body, out any, want int) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			log.Fatalf("%s %s encode: %v", method, path, err)
		}
	}
	req, _ := http.NewRequest(method, baseURL+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	if res.StatusCode != want {
		log.Fatalf("%s %s: want %d got %d", method, path, want, res.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			log.Fatalf("%s %s decode: %v", method, path, err)
		}
	}
}
