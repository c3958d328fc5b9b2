package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yourusername/mediagrab/api/handlers"
	"github.com/yourusername/mediagrab/internal/domain"
)

// streamEndpoint converts the server URL into the WebSocket stream URL for mediaURL
func streamEndpoint(server, mediaURL string, mode domain.Mode) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/ws"
	u.RawQuery = url.Values{"url": {mediaURL}, "format": {string(mode)}}.Encode()
	return u.String(), nil
}

// streamDownload follows a download over the WebSocket and saves the finished file into outDir.
// Interrupting the command asks the server to cancel the download.
func streamDownload(mediaURL string, mode domain.Mode, outDir string, out io.Writer) (string, error) {
	endpoint, err := streamEndpoint(serverURL, mediaURL, mode)
	if err != nil {
		return "", err
	}

	conn, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()
	log.Debug("Connected", zap.String("endpoint", endpoint))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			log.Debug("Sending cancel")
			conn.WriteMessage(websocket.TextMessage, []byte("cancel"))
		case <-done:
		}
	}()

	for {
		var msg handlers.WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return "", fmt.Errorf("connection closed before the download finished: %w", err)
		}

		switch domain.EventType(msg.Event) {
		case domain.EventInfo:
			fmt.Fprintf(out, "Title: %v\n", msg.Data["title"])
		case domain.EventProgress:
			fmt.Fprintf(out, "\rProgress: %5.1f%%", toFloat(msg.Data["percent"]))
		case domain.EventComplete:
			fmt.Fprintln(out)
			downloadURL, _ := msg.Data["downloadUrl"].(string)
			filename, _ := msg.Data["filename"].(string)
			return fetchFile(downloadURL, filename, outDir)
		case domain.EventError:
			fmt.Fprintln(out)
			return "", errors.New(fmt.Sprint(msg.Data["message"]))
		default:
			log.Debug("Ignoring message", zap.String("event", msg.Event))
		}
	}
}

// fetchFile downloads a finished file from the server
func fetchFile(downloadURL, filename, outDir string) (string, error) {
	if downloadURL == "" {
		return "", errors.New("server did not return a download URL")
	}
	if filename == "" {
		filename = filepath.Base(downloadURL)
	}

	resp, err := http.Get(serverURL + downloadURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("failed to fetch file: %s", errorBody(body))
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(outDir, filepath.Base(filename))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return path, nil
}

func toFloat(v interface{}) float64 {
	if f, ok := v.(float64); ok {
		return f
	}
	return 0
}
