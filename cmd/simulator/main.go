package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dom/card-chess/internal/protocol"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Global flags
	apiURL := "http://localhost:8080"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "play":
		playCmd(apiURL, args)
	case "host":
		hostCmd(apiURL, args)
	case "join":
		joinCmd(apiURL, args)
	case "history":
		historyCmd(apiURL, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Card Chess Simulator - Development tool for exercising the game server

USAGE:
  simulator <command> [options]

COMMANDS:
  play      Queue two bots for quick play and let them finish a game
  host      Open a friend room and play it as white once someone joins
  join      Join a friend room and play it as black
  history   Print recently archived matches
  help      Show this help message

ENVIRONMENT:
  API_URL   Backend URL (default: http://localhost:8080)

EXAMPLES:
  # Two bots play a timed game with half a second per move
  simulator play --mode=timed --delay=500ms

  # Open a room for yourself to join from the browser
  simulator host

  # Play against a room you created in the browser
  simulator join --room=friend-1a2b3c4d

  # Show the last 5 finished matches
  simulator history --limit=5`)
}

func wsURL(apiURL string) string {
	return "ws" + strings.TrimPrefix(apiURL, "http")
}

func fail(format string, args ...interface{}) {
	fmt.Printf("Error: "+format+"\n", args...)
	os.Exit(1)
}

func printResult(over *protocol.GameOverPayload) {
	fmt.Println()
	fmt.Printf("=== %s (%s) ===\n", over.Message, over.Reason)
}

func playCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	mode := fs.String("mode", "standard", "Game mode: standard or timed")
	delay := fs.Duration("delay", 0, "Pause before each move")
	seed := fs.Int64("seed", time.Now().UnixNano(), "Random seed for move choice")
	fs.Parse(args)

	fmt.Println("=== Card Chess Simulator: Quick Play ===")

	white, err := DialBot(wsURL(apiURL), "white", *delay, *seed)
	if err != nil {
		fail("%v", err)
	}
	defer white.Close()
	black, err := DialBot(wsURL(apiURL), "black", *delay, *seed+1)
	if err != nil {
		fail("%v", err)
	}
	defer black.Close()

	// The first queued connection plays white.
	if err := white.FindGame(*mode); err != nil {
		fail("%v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if err := black.FindGame(*mode); err != nil {
		fail("%v", err)
	}

	var (
		wg     sync.WaitGroup
		result *protocol.GameOverPayload
		errs   = make([]error, 2)
	)
	for i, b := range []*Bot{white, black} {
		wg.Add(1)
		go func(i int, b *Bot) {
			defer wg.Done()
			over, err := b.Play()
			if err != nil {
				errs[i] = err
				return
			}
			if i == 0 {
				result = over
			}
		}(i, b)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			fail("%v", err)
		}
	}
	printResult(result)
}

func hostCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("host", flag.ExitOnError)
	mode := fs.String("mode", "standard", "Game mode: standard or timed")
	delay := fs.Duration("delay", time.Second, "Pause before each move")
	fs.Parse(args)

	bot, err := DialBot(wsURL(apiURL), "host", *delay, time.Now().UnixNano())
	if err != nil {
		fail("%v", err)
	}
	defer bot.Close()

	roomID, err := bot.CreateRoom(*mode)
	if err != nil {
		fail("%v", err)
	}
	fmt.Printf("Room created: %s\nWaiting for an opponent...\n", roomID)

	over, err := bot.Play()
	if err != nil {
		fail("%v", err)
	}
	printResult(over)
}

func joinCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("join", flag.ExitOnError)
	roomID := fs.String("room", "", "Friend room id (required)")
	delay := fs.Duration("delay", time.Second, "Pause before each move")
	fs.Parse(args)

	if *roomID == "" {
		fail("--room is required")
	}

	bot, err := DialBot(wsURL(apiURL), "guest", *delay, time.Now().UnixNano())
	if err != nil {
		fail("%v", err)
	}
	defer bot.Close()

	if err := bot.JoinRoom(*roomID); err != nil {
		fail("%v", err)
	}
	over, err := bot.Play()
	if err != nil {
		fail("%v", err)
	}
	printResult(over)
}

func historyCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	limit := fs.Int("limit", 10, "Number of matches to show")
	fs.Parse(args)

	client := NewAPIClient(apiURL)

	health, err := client.Health()
	if err != nil {
		fail("%v", err)
	}
	fmt.Printf("Server %s: %d rooms, %d waiting, up %ds\n\n", health.Status, health.Rooms, health.Waiting, health.UptimeSeconds)

	records, err := client.RecentMatches(*limit)
	if err != nil {
		fail("%v", err)
	}
	if len(records) == 0 {
		fmt.Println("No archived matches.")
		return
	}
	for _, r := range records {
		fmt.Printf("%s  %-9s %-8s %-5s %-11s %s\n",
			r.EndedAt.Local().Format(time.DateTime), r.Kind, r.Mode, r.Result, r.Reason, r.ID)
	}
}
