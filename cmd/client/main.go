// Command client is a terminal chat client for manual testing: log in,
// list chats, open one and exchange live messages with another session.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/gookit/color"

	"social-live/client"
	"social-live/realtime"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	email := flag.String("email", "", "Account email")
	password := flag.String("password", "", "Account password")
	chatWith := flag.String("with", "", "Peer email to open a direct chat with")
	flag.Parse()

	if *email == "" || *password == "" {
		return fmt.Errorf("both -email and -password are required")
	}

	cfg, err := client.LoadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	rest := client.NewRestClient(cfg.ServerURL, cfg.RequestTimeout)
	if err := rest.Login(*email, *password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	color.Green.Println("Logged in.")

	chatID, err := resolveChat(rest, *chatWith)
	if err != nil {
		return err
	}

	socket, err := client.Dial(cfg.SocketURL, rest.Token())
	if err != nil {
		return fmt.Errorf("socket dial failed: %w", err)
	}
	defer socket.Close()

	controller := client.NewChatController(rest, socket, chatID)
	if err := controller.Open(); err != nil {
		return fmt.Errorf("opening chat: %w", err)
	}

	for _, msg := range controller.Messages() {
		color.Gray.Printf("[%s] %s\n", msg.SentAt.Format("15:04:05"), msg.Text)
	}

	go func() {
		for env := range socket.Events() {
			if !controller.HandleEvent(env) {
				if env.Event == realtime.EventError {
					color.Red.Printf("server error: %s\n", string(env.Data))
				}
				continue
			}
			view := controller.Messages()
			last := view[len(view)-1]
			color.Cyan.Printf("[%s] %s: %s\n",
				last.SentAt.Format("15:04:05"), last.Sender, last.Text)
		}
	}()

	color.Green.Println("Type a message and press enter. /quit exits, /older loads history.")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case line == "/quit":
			return controller.Close()
		case line == "/older":
			if err := controller.LoadOlder(); err != nil {
				color.Red.Printf("history fetch failed: %v\n", err)
			}
		default:
			if _, err := controller.SendText(line); err != nil {
				color.Red.Printf("send failed: %v\n", err)
			}
		}
	}
	return scanner.Err()
}

// resolveChat opens (or finds) a direct chat with the peer, or falls back
// to the most recently active chat when no peer is given.
func resolveChat(rest *client.RestClient, peerEmail string) (string, error) {
	if peerEmail != "" {
		summary, err := rest.CreateDirectChat(peerEmail)
		if err != nil {
			return "", fmt.Errorf("opening chat with %s: %w", peerEmail, err)
		}
		return summary.ChatID, nil
	}

	chats, err := rest.FetchChats()
	if err != nil {
		return "", err
	}
	if len(chats) == 0 {
		return "", fmt.Errorf("no chats yet, use -with to start one")
	}
	for _, c := range chats {
		color.Gray.Printf("%s  %s  %s\n", c.ChatID, c.OtherParticipantName, c.LastMessage)
	}
	return chats[0].ChatID, nil
}
