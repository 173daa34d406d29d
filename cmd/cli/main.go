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
)

var (
	serverURL   string
	noAutoStart bool
	rootCmd     = &cobra.Command{
		Use:   "vidfetch",
		Short: "vidfetch CLI - quality-aware video download manager",
		Long:  `A command-line interface for queueing video downloads with quality/size preferences and inspecting attempt reports.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(diagnoseCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(retryCmd)
	rootCmd.AddCommand(logsCmd)
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

var addCmd = &cobra.Command{
	Use:   "add [url]",
	Short: "Add a download to the queue",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		url := args[0]
		quality, _ := cmd.Flags().GetString("quality")
		size, _ := cmd.Flags().GetString("size")

		payload := map[string]string{
			"url": url,
		}
		if quality != "" {
			payload["quality"] = quality
		}
		if size != "" {
			payload["size"] = size
		}

		data, _ := json.Marshal(payload)
		resp, err := http.Post(serverURL+"/api/v1/downloads", "application/json", bytes.NewBuffer(data))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusCreated {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		var result map[string]interface{}
		json.Unmarshal(body, &result)
		fmt.Printf("Download added successfully!\n")
		fmt.Printf("ID: %s\n", result["id"])
		fmt.Printf("Status: %s\n", result["status"])
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all downloads",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		status, _ := cmd.Flags().GetString("status")

		url := serverURL + "/api/v1/downloads"
		if status != "" {
			url += "?status=" + status
		}

		resp, err := http.Get(url)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var downloads []map[string]interface{}
		json.Unmarshal(body, &downloads)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tURL\tQUALITY\tSIZE\tSTATUS\tCREATED")
		for _, d := range downloads {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				truncate(d["id"].(string), 8),
				truncate(d["url"].(string), 40),
				d["quality"],
				d["size"],
				d["status"],
				d["created_at"])
		}
		w.Flush()
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show download statistics",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		resp, err := http.Get(serverURL + "/api/v1/downloads/stats")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var stats map[string]interface{}
		json.Unmarshal(body, &stats)

		fmt.Println("Download Statistics:")
		fmt.Printf("  Total:      %v\n", stats["total"])
		fmt.Printf("  Queued:     %v\n", stats["queued"])
		fmt.Printf("  Processing: %v\n", stats["processing"])
		fmt.Printf("  Completed:  %v\n", stats["completed"])
		fmt.Printf("  Failed:     %v\n", stats["failed"])
		fmt.Printf("  Cancelled:  %v\n", stats["cancelled"])
	},
}

var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Get download details",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		id := args[0]
		resp, err := http.Get(serverURL + "/api/v1/downloads/" + id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var download map[string]interface{}
		json.Unmarshal(body, &download)

		fmt.Printf("Download Details:\n")
		fmt.Printf("  ID:      %s\n", download["id"])
		fmt.Printf("  URL:     %s\n", download["url"])
		fmt.Printf("  Quality: %s\n", download["quality"])
		fmt.Printf("  Size:    %s\n", download["size"])
		fmt.Printf("  Status:  %s\n", download["status"])
		fmt.Printf("  Created: %s\n", download["created_at"])
		if download["file_path"] != nil && download["file_path"] != "" {
			fmt.Printf("  File:    %s\n", download["file_path"])
		}
		if download["error_message"] != nil && download["error_message"] != "" {
			fmt.Printf("  Error:   %s\n", download["error_message"])
		}
	},
}

var reportCmd = &cobra.Command{
	Use:   "report [id]",
	Short: "Show the attempt-by-attempt session report for a download",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		id := args[0]
		resp, err := http.Get(serverURL + "/api/v1/downloads/" + id + "/report")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		var result struct {
			URL    string `json:"url"`
			Status string `json:"status"`
			Report *struct {
				Outcome        string   `json:"outcome"`
				ChosenSelector string   `json:"chosen_selector"`
				Warnings       []string `json:"warnings"`
				Attempts       []struct {
					Selector  string `json:"selector"`
					Rationale string `json:"rationale"`
					Outcome   string `json:"outcome"`
					Detail    string `json:"detail"`
				} `json:"attempts"`
			} `json:"report"`
		}
		if err := json.Unmarshal(body, &result); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Session Report for %s\n", result.URL)
		fmt.Printf("  Status:  %s\n", result.Status)
		if result.Report == nil {
			fmt.Println("  No attempts recorded yet")
			return
		}
		fmt.Printf("  Outcome: %s\n", result.Report.Outcome)
		if result.Report.ChosenSelector != "" {
			fmt.Printf("  Chosen:  %s\n", result.Report.ChosenSelector)
		}

		fmt.Println("  Attempts:")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "    SELECTOR\tRATIONALE\tOUTCOME\tDETAIL")
		for _, a := range result.Report.Attempts {
			fmt.Fprintf(w, "    %s\t%s\t%s\t%s\n",
				a.Selector, a.Rationale, a.Outcome, truncate(a.Detail, 60))
		}
		w.Flush()

		for _, warning := range result.Report.Warnings {
			fmt.Printf("  Warning: %s\n", warning)
		}
	},
}

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose [url]",
	Short: "Probe a URL without downloading",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()

		payload, _ := json.Marshal(map[string]string{"url": args[0]})
		resp, err := http.Post(serverURL+"/api/v1/diagnostics", "application/json", bytes.NewBuffer(payload))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		var report struct {
			URL                    string `json:"url"`
			Accessible             bool   `json:"accessible"`
			MetadataExtracted      bool   `json:"metadata_extracted"`
			AdaptiveStreamDetected bool   `json:"adaptive_stream_detected"`
			Catalog                []struct {
				ID     string `json:"id"`
				Kind   string `json:"kind"`
				Height int    `json:"height"`
			} `json:"catalog"`
			RecommendedEntry *struct {
				ID     string `json:"id"`
				Height int    `json:"height"`
			} `json:"recommended_entry"`
			Metadata struct {
				Title string `json:"title"`
			} `json:"metadata"`
			Issues []string `json:"issues"`
		}
		if err := json.Unmarshal(body, &report); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Diagnostics for %s\n", report.URL)
		fmt.Printf("  Accessible: %v\n", report.Accessible)
		fmt.Printf("  Metadata:   %v", report.MetadataExtracted)
		if report.Metadata.Title != "" {
			fmt.Printf(" (%s)", truncate(report.Metadata.Title, 50))
		}
		fmt.Println()
		fmt.Printf("  Adaptive:   %v\n", report.AdaptiveStreamDetected)
		fmt.Printf("  Formats:    %d\n", len(report.Catalog))
		if report.RecommendedEntry != nil {
			fmt.Printf("  Recommended: %s (%dp)\n", report.RecommendedEntry.ID, report.RecommendedEntry.Height)
		}
		for _, issue := range report.Issues {
			fmt.Printf("  Issue: %s\n", issue)
		}
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel [id]",
	Short: "Cancel a download",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		id := args[0]
		resp, err := http.Post(serverURL+"/api/v1/downloads/"+id+"/cancel", "application/json", nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}
		fmt.Println("Download cancelled successfully")
	},
}

var retryCmd = &cobra.Command{
	Use:   "retry [id]",
	Short: "Retry a failed download",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		id := args[0]
		resp, err := http.Post(serverURL+"/api/v1/downloads/"+id+"/retry", "application/json", nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}
		fmt.Println("Download queued for retry")
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs [category]",
	Short: "View server logs (queue, attempt, web, error)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		category := args[0]
		limit, _ := cmd.Flags().GetInt("limit")

		url := fmt.Sprintf("%s/api/v1/logs/%s?limit=%d", serverURL, category, limit)
		resp, err := http.Get(url)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		var result struct {
			Entries []struct {
				Timestamp string                 `json:"timestamp"`
				Level     string                 `json:"level"`
				Message   string                 `json:"message"`
				Fields    map[string]interface{} `json:"fields"`
			} `json:"entries"`
		}
		json.Unmarshal(body, &result)

		for _, entry := range result.Entries {
			line := fmt.Sprintf("%s [%s] %s", entry.Timestamp, entry.Level, entry.Message)
			if len(entry.Fields) > 0 {
				fields, _ := json.Marshal(entry.Fields)
				line += " " + string(fields)
			}
			fmt.Println(line)
		}
	},
}

func init() {
	addCmd.Flags().StringP("quality", "q", "", "Quality tier (low, medium, high)")
	addCmd.Flags().StringP("size", "s", "", "Size tier (low, medium, high)")
	listCmd.Flags().String("status", "", "Filter by status")
	logsCmd.Flags().IntP("limit", "n", 50, "Number of entries to show")
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
