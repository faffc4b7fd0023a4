package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

var (
	server    string
	chunkSize int
	interval  time.Duration
	language  string
	wait      time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "voiceclient <audio.pcm>",
	Short: "Stream a PCM file to /ws/voice and print the transcript",
	Long: `Voiceclient plays the browser side of the voice protocol: it sends
listening_start, streams the file as binary frames and sends listening_end,
then prints the server's transcript or error.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&server, "server", "localhost:8080", "server host:port")
	rootCmd.Flags().IntVar(&chunkSize, "chunk-size", 4096, "bytes per binary frame")
	rootCmd.Flags().DurationVar(&interval, "interval", 100*time.Millisecond, "delay between frames")
	rootCmd.Flags().StringVar(&language, "language", "", "recognition language sent with listening_start")
	rootCmd.Flags().DurationVar(&wait, "wait", 30*time.Second, "how long to wait for the transcript")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	audio, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read audio: %w", err)
	}
	if chunkSize <= 0 {
		return fmt.Errorf("chunk-size must be positive")
	}

	u := url.URL{Scheme: "ws", Host: server, Path: "/ws/voice"}
	log.Printf("connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer c.Close()

	if err := sendJSON(c, map[string]any{"type": "listening_start", "sample_rate": 16000, "language": language}); err != nil {
		return err
	}
	started, err := readReply(c)
	if err != nil {
		return err
	}
	log.Printf("session %v started", started["session_id"])

	start := time.Now()
	for offset := 0; offset < len(audio); offset += chunkSize {
		end := min(offset+chunkSize, len(audio))
		if err := c.WriteMessage(websocket.BinaryMessage, audio[offset:end]); err != nil {
			return fmt.Errorf("send audio: %w", err)
		}
		time.Sleep(interval)
	}
	log.Printf("sent %d bytes in %v", len(audio), time.Since(start))

	if err := sendJSON(c, map[string]any{"type": "listening_end"}); err != nil {
		return err
	}

	c.SetReadDeadline(time.Now().Add(wait))
	reply, err := readReply(c)
	if err != nil {
		return err
	}

	_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))

	switch reply["type"] {
	case "transcript":
		fmt.Fprintln(cmd.OutOrStdout(), reply["text"])
		log.Printf("record %v", reply["record_id"])
		return nil
	case "error":
		return fmt.Errorf("%v: %v", reply["error_code"], reply["message"])
	default:
		return fmt.Errorf("unexpected reply: %v", reply)
	}
}

func sendJSON(c *websocket.Conn, message map[string]any) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.TextMessage, data)
}

// readReply returns the next server message that is not a pong.
func readReply(c *websocket.Conn) (map[string]any, error) {
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}
		var msg map[string]any
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("invalid server message %q: %w", data, err)
		}
		if msg["type"] != "pong" {
			return msg, nil
		}
	}
}
