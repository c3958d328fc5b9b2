package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourusername/mediagrab/internal/app"
	"github.com/yourusername/mediagrab/internal/domain"
	"github.com/yourusername/mediagrab/pkg/logger"
)

var (
	serverURL   string
	noAutoStart bool
	verbose     bool
	log         = zap.NewNop()
	rootCmd     = &cobra.Command{
		Use:   "mediagrab",
		Short: "mediagrab CLI - Fetch video and audio through a mediagrab server",
		Long:  `A command-line client for a mediagrab server: inspect media, download it with live progress and view download statistics.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log = logger.NewCLI(verbose)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:3000", "Server URL")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
}

// ensureServer checks if server is running and starts it if needed (unless --no-auto-start)
func ensureServer() {
	if noAutoStart {
		return
	}
	if err := ensureServerRunning(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// errorBody extracts the "error" field of a JSON error response
func errorBody(body []byte) string {
	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err == nil {
		if msg, ok := result["error"].(string); ok {
			return msg
		}
	}
	return string(body)
}

var infoCmd = &cobra.Command{
	Use:   "info [url]",
	Short: "Show media metadata without downloading",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		data, _ := json.Marshal(map[string]string{"url": args[0]})
		resp, err := http.Post(serverURL+"/api/info", "application/json", bytes.NewBuffer(data))
		if err != nil {
			fail(err)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fail(fmt.Errorf("%s", errorBody(body)))
		}

		var info domain.VideoMetadata
		if err := json.Unmarshal(body, &info); err != nil {
			fail(err)
		}

		fmt.Printf("Media Details:\n")
		fmt.Printf("  Title:     %s\n", info.Title)
		fmt.Printf("  Uploader:  %s\n", info.Uploader)
		fmt.Printf("  Duration:  %s\n", info.Duration)
		fmt.Printf("  Thumbnail: %s\n", info.Thumbnail)
	},
}

var getCmd = &cobra.Command{
	Use:   "get [url]",
	Short: "Download media with live progress",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		audio, _ := cmd.Flags().GetBool("audio")
		outDir, _ := cmd.Flags().GetString("out")

		mode := domain.ModeVideo
		if audio {
			mode = domain.ModeAudio
		}

		path, err := streamDownload(args[0], mode, outDir, os.Stdout)
		if err != nil {
			fail(err)
		}
		fmt.Printf("Saved to %s\n", path)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show download statistics",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		resp, err := http.Get(serverURL + "/api/stats")
		if err != nil {
			fail(err)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fail(fmt.Errorf("%s", errorBody(body)))
		}

		var stats domain.DownloadStats
		if err := json.Unmarshal(body, &stats); err != nil {
			fail(err)
		}
		printStats(os.Stdout, &stats)
	},
}

func printStats(out io.Writer, stats *domain.DownloadStats) {
	fmt.Fprintln(out, "Download Statistics:")
	fmt.Fprintf(out, "  Total:        %d\n", stats.Totals.TotalDownloads)
	fmt.Fprintf(out, "  Video:        %d\n", stats.Totals.VideoDownloads)
	fmt.Fprintf(out, "  Audio:        %d\n", stats.Totals.AudioDownloads)
	fmt.Fprintf(out, "  Successful:   %d\n", stats.Totals.Successful)
	fmt.Fprintf(out, "  Failed:       %d\n", stats.Totals.Failed)
	fmt.Fprintf(out, "  Unique users: %d\n", stats.Totals.UniqueUsers)
	fmt.Fprintf(out, "  Today:        %d (%d users)\n", stats.Today.Downloads, stats.Today.UniqueUsers)

	if len(stats.TopVideos) > 0 {
		fmt.Fprintln(out, "\nTop Videos:")
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TITLE\tUPLOADER\tDOWNLOADS")
		for _, v := range stats.TopVideos {
			fmt.Fprintf(w, "%s\t%s\t%d\n", truncate(v.VideoTitle, 50), truncate(v.VideoUploader, 20), v.DownloadCount)
		}
		w.Flush()
	}

	if len(stats.RecentDownloads) > 0 {
		fmt.Fprintln(out, "\nRecent Downloads:")
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TITLE\tFORMAT\tSTATUS\tCREATED")
		for _, d := range stats.RecentDownloads {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				truncate(d.VideoTitle, 50),
				d.Format,
				d.Status,
				d.CreatedAt.Local().Format("2006-01-02 15:04"))
		}
		w.Flush()
	}
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage server configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a config file with default values",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := "configs/config.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(path); err == nil && !force {
			fail(fmt.Errorf("%s already exists (use --force to overwrite)", path))
		}

		if err := app.SaveConfig(domain.DefaultConfig(), path); err != nil {
			fail(err)
		}
		fmt.Printf("Config written to %s\n", path)
	},
}

func init() {
	getCmd.Flags().BoolP("audio", "a", false, "Extract audio only")
	getCmd.Flags().StringP("out", "o", ".", "Directory to save the file in")
	configInitCmd.Flags().BoolP("force", "f", false, "Overwrite an existing file")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
