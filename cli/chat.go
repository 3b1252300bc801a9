package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/xiaot623/gogo/marketing/internal/protocol"
)

var chatClientID string

// chatCmd opens an interactive chat session
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the campaign assistant",
	Long: `Open a WebSocket to /ws/<client> and chat with the assistant.

Type a message and press Enter to send. /quit exits.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatClientID, "client", "cli", "Client id")
}

func runChat(cmd *cobra.Command, args []string) error {
	u := url.URL{Scheme: "ws", Host: serverAddr, Path: "/ws/" + url.PathEscape(chatClientID)}
	fmt.Printf("Connecting to %s...\n", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	go readReplies(conn, done)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		fmt.Println("\nInterrupted")
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	}()

	fmt.Println("Connected. Type a message and press Enter to send. /quit to exit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return nil
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/quit" {
			fmt.Println("Bye!")
			return nil
		}

		msg := protocol.ChatMessage{
			BaseMessage: protocol.BaseMessage{Type: protocol.TypeChatMessage},
			Message:     input,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		}
		if err := conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("send: %w", err)
		}

		select {
		case <-done:
			return nil
		default:
		}
	}
}

func readReplies(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				fmt.Fprintf(os.Stderr, "read error: %v\n", err)
			}
			return
		}

		var resp protocol.AIResponse
		if err := json.Unmarshal(data, &resp); err != nil || resp.Type != protocol.TypeAIResponse {
			fmt.Printf("\n[raw] %s\n> ", data)
			continue
		}
		fmt.Printf("\nassistant: %s\n> ", resp.Content)
	}
}
