// Interactive relay client for manual testing: authenticates, joins the
// two-party room shared with a peer, then relays stdin lines as messages
// while printing everything the server emits.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"chat-relay/domain"
	"chat-relay/domain/event"
	"chat-relay/runtime"
)

type Config struct {
	WebsocketURL string `envconfig:"TESTER_WEBSOCKET_URL" default:"ws://localhost:8080/ws"`
	ServerURL    string `envconfig:"TESTER_SERVER_URL" default:"http://localhost:8080"`
}

func main() {
	_ = godotenv.Load()
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	userID := flag.String("user", "", "your user id")
	name := flag.String("name", "", "your display name")
	peerID := flag.String("peer", "", "the peer's user id")
	flag.Parse()
	if *userID == "" || *name == "" || *peerID == "" {
		log.Fatal("usage: tester -user <id> -name <name> -peer <id>")
	}

	conn, _, err := websocket.DefaultDialer.Dial(config.WebsocketURL, nil)
	if err != nil {
		log.Fatalf("Connection to %s failed: %v", config.WebsocketURL, err)
	}
	defer conn.Close()

	roomID := runtime.RoomIDFor(*userID, *peerID)
	banner := fmt.Sprintf(" Connected as %s, room %s ", *name, roomID)
	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render(banner))

	send(conn, event.TypeAuthenticate, event.Authenticate{UserID: *userID, Name: *name})
	send(conn, event.TypeJoinRoom, event.JoinRoom{RoomID: string(roomID)})

	go receive(conn)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit":
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			time.Sleep(200 * time.Millisecond)
			return
		case line == "/users":
			printUsers(config.ServerURL)
		case line == "/typing on" || line == "/typing off":
			send(conn, event.TypeTyping, event.Typing{RoomID: string(roomID), IsTyping: line == "/typing on"})
		default:
			send(conn, event.TypeSendMessage, event.SendMessage{
				RoomID:        string(roomID),
				Text:          line,
				CorrelationID: uuid.NewString(),
			})
		}
	}
}

func send(conn *websocket.Conn, eventType string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		color.Red.Printf("Encoding %s failed: %v\n", eventType, err)
		return
	}
	envelope := event.Envelope{Type: eventType, Payload: raw}
	if err := conn.WriteJSON(envelope); err != nil {
		color.Red.Printf("Sending %s failed: %v\n", eventType, err)
	}
}

func receive(conn *websocket.Conn) {
	for {
		var envelope event.Envelope
		if err := conn.ReadJSON(&envelope); err != nil {
			color.Red.Printf("Connection lost: %v\n", err)
			os.Exit(1)
		}

		switch envelope.Type {
		case "authenticated":
			var e event.Authenticated
			if json.Unmarshal(envelope.Payload, &e) == nil {
				color.Green.Printf("<< %s\n", e.Message)
			}
		case "previous_messages":
			var e event.PreviousMessages
			if json.Unmarshal(envelope.Payload, &e) == nil {
				color.Gray.Printf("<< %d previous message(s)\n", len(e.Messages))
				for _, msg := range e.Messages {
					color.Gray.Printf("   [%s] %s\n", msg.SenderName, msg.Text)
				}
			}
		case "new_message":
			var msg domain.Message
			if json.Unmarshal(envelope.Payload, &msg) == nil {
				color.Cyan.Printf("[%s] %s\n", msg.SenderName, msg.Text)
			}
		case "user_typing":
			var e event.UserTyping
			if json.Unmarshal(envelope.Payload, &e) == nil {
				if e.IsTyping {
					color.Yellow.Printf("%s is typing...\n", e.UserName)
				} else {
					color.Yellow.Printf("%s stopped typing\n", e.UserName)
				}
			}
		case "error":
			var e event.Error
			if json.Unmarshal(envelope.Payload, &e) == nil {
				color.Red.Printf("<< error: %s\n", e.Message)
			}
		default:
			color.Gray.Printf("<< unknown event %q\n", envelope.Type)
		}
	}
}

// printUsers fetches the read-only user listing and renders it as a table.
func printUsers(serverURL string) {
	resp, err := http.Get(serverURL + "/users")
	if err != nil {
		color.Red.Printf("Fetching users failed: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var body struct {
		Users []domain.User `json:"users"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		color.Red.Printf("Decoding users failed: %v\n", err)
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "Connection", "Connected At"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	rows := lo.Map(body.Users, func(u domain.User, _ int) []string {
		return []string{u.ID, u.Name, u.ConnectionID, u.ConnectedAt.Format(time.RFC3339)}
	})
	table.AppendBulk(rows)
	table.Render()
}
