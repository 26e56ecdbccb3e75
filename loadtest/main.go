package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	BaseURL   = "http://localhost:8080"
	WSURL     = "ws://localhost:8080/ws"
	PairCount = 50 // ⚠️ Start small (50 pairs = 100 users). Database might choke on larger runs immediately.
	MsgCount  = 20 // Messages per user
)

type authResponse struct {
	Token string `json:"token"`
	ID    string `json:"id"`
}

func main() {
	log.Printf("🔥 STARTING STRESS TEST: %d Users, %d Messages each...", PairCount*2, MsgCount)
	var wg sync.WaitGroup

	// We will create pairs: User 0 talks to User 1, User 2 talks to User 3...
	for i := 0; i < PairCount; i++ {
		wg.Add(1)
		go func(pairID int) {
			defer wg.Done()
			runPair(pairID)
		}(i)
	}

	wg.Wait()
	log.Println("✅ LOAD TEST COMPLETE")
}

func runPair(pairID int) {
	userA := fmt.Sprintf("u_%d_a", pairID)
	userB := fmt.Sprintf("u_%d_b", pairID)
	pass := "password123"

	tokenA, idA := authenticate(userA, pass)
	tokenB, idB := authenticate(userB, pass)

	if tokenA == "" || tokenB == "" {
		return // Failed auth
	}

	// The conversation key is derived, no create step needed.
	convID := conversationID(idA, idB)

	var wsWg sync.WaitGroup
	wsWg.Add(2)

	go spamChat(&wsWg, tokenA, convID, idB, userA)
	go spamChat(&wsWg, tokenB, convID, idA, userB)

	wsWg.Wait()
}

// authenticate registers (ignores error if exists) and logs in.
func authenticate(username, password string) (string, string) {
	postJSON("/Register", map[string]any{
		"userName": username,
		"email":    username + "@loadtest.local",
		"password": password,
	})

	resp, err := postJSON("/Login", map[string]any{
		"emailOrUsername": username,
		"password":        password,
	})
	if err != nil {
		log.Printf("❌ Login Failed [%s]: %v", username, err)
		return "", ""
	}
	defer resp.Body.Close()

	var data authResponse
	json.NewDecoder(resp.Body).Decode(&data)
	return data.Token, data.ID
}

func conversationID(a, b string) string {
	if a < b {
		return a + "-" + b
	}
	return b + "-" + a
}

func spamChat(wg *sync.WaitGroup, token, convID, receiverID, user string) {
	defer wg.Done()

	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("%s?token=%s", WSURL, token), nil)
	if err != nil {
		log.Printf("❌ WS Connect Fail [%s]: %v", user, err)
		return
	}
	defer conn.Close()

	for i := 0; i < MsgCount; i++ {
		frame := map[string]any{
			"event": "sendMessage",
			"data": map[string]any{
				"receiverId":     receiverID,
				"conversationId": convID,
				"message":        fmt.Sprintf("LoadTest Msg %d from %s", i, user),
			},
		}
		if err := conn.WriteJSON(frame); err != nil {
			log.Printf("❌ Send Fail [%s]: %v", user, err)
			break
		}
		// Small sleep to prevent instant localhost bottleneck (simulate real network)
		time.Sleep(10 * time.Millisecond)
	}
	log.Printf("✅ %s finished sending %d msgs", user, MsgCount)
}

func postJSON(endpoint string, data any) (*http.Response, error) {
	jsonData, _ := json.Marshal(data)
	return http.Post(BaseURL+endpoint, "application/json", bytes.NewBuffer(jsonData))
}
