package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/voidhouse/decay/internal/config"
)

// These commands talk to a running daemon over its HTTP API.

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current decay level, stage, and trend",
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			Level     float64 `json:"level"`
			Stage     string  `json:"stage"`
			Trend     string  `json:"trend"`
			Projected string  `json:"projected_stage_change_in"`
			Report    string  `json:"report"`
		}
		if err := apiGet("/api/status", &resp); err != nil {
			return err
		}

		fmt.Printf("level: %.2f/10\nstage: %s\ntrend: %s\n", resp.Level, resp.Stage, resp.Trend)
		if resp.Projected != "" {
			fmt.Printf("next stage change in: %s\n", resp.Projected)
		}
		fmt.Println()
		fmt.Println(resp.Report)
		return nil
	},
}

var tickRecentMessages int

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Force a schedule tick on the running daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]any{"recent_messages": tickRecentMessages}

		var resp struct {
			Day          int     `json:"day"`
			InWindow     bool    `json:"in_window"`
			DriftApplied float64 `json:"drift_applied"`
			Level        float64 `json:"level"`
			Stage        string  `json:"stage"`
		}
		if err := apiPost("/api/tick", body, &resp); err != nil {
			return err
		}

		if !resp.InWindow {
			fmt.Println("outside campaign window; no drift applied")
		} else {
			fmt.Printf("day %d: drift %+.2f, level %.2f (%s)\n", resp.Day+1, resp.DriftApplied, resp.Level, resp.Stage)
		}
		return nil
	},
}

var challengeKind string

var challengeCmd = &cobra.Command{
	Use:   "challenge",
	Short: "Request a recovery challenge from the running daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]any{"kind": challengeKind}

		var resp struct {
			ID         string `json:"id"`
			Kind       string `json:"kind"`
			Difficulty int    `json:"difficulty"`
			Prompt     string `json:"prompt"`
		}
		if err := apiPost("/api/challenges", body, &resp); err != nil {
			return err
		}

		fmt.Printf("challenge %s (%s, difficulty %d)\n\n%s\n", resp.ID, resp.Kind, resp.Difficulty, resp.Prompt)
		fmt.Fprintf(os.Stderr, "submit with: POST /api/challenges/%s/submit\n", resp.ID)
		return nil
	},
}

func init() {
	tickCmd.Flags().IntVar(&tickRecentMessages, "recent-messages", 0, "Recent channel message count fed to the event selector")
	challengeCmd.Flags().StringVarP(&challengeKind, "kind", "k", "", "Challenge kind: memory, circuit, static, debug, binary (random when empty)")
}

func baseURL() string {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}
	return "http://" + cfg.ListenAddr()
}

func apiGet(path string, out any) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL() + path)
	if err != nil {
		return fmt.Errorf("is the daemon running? %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("daemon returned %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func apiPost(path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(baseURL()+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("is the daemon running? %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("daemon returned %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
