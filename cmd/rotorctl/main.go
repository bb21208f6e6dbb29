// Package main provides the rotor operator CLI.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

var (
	app    = kingpin.New("rotorctl", "rotor scheduler admin client")
	server = app.Flag("server", "Server address").Default("http://localhost:8097").String()
	token  = app.Flag("token", "Admin token (or set ROTOR_ADMIN_TOKEN env)").Envar("ROTOR_ADMIN_TOKEN").String()

	// status command
	statusCmd = app.Command("status", "Show scheduler status")

	// queue command
	queueCmd = app.Command("queue", "Show the remaining working queue")

	// reload command
	reloadCmd     = app.Command("reload", "Reload the candidate list")
	reloadURIs    = reloadCmd.Flag("uri", "Candidate URI (repeatable; omit to reload the configured playlist file)").Strings()
	reloadNoDrain = reloadCmd.Flag("no-drain", "Keep already prefetched items").Bool()

	// next command
	nextCmd = app.Command("next", "Pull the next resolved item")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	var err error
	switch command {
	case statusCmd.FullCommand():
		err = status()
	case queueCmd.FullCommand():
		err = queue()
	case reloadCmd.FullCommand():
		err = reload()
	case nextCmd.FullCommand():
		err = next()
	}
	if err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func status() error {
	var resp struct {
		Scheduler struct {
			Mode         string `json:"mode"`
			Loop         bool   `json:"loop"`
			Generation   uint64 `json:"generation"`
			QueueLen     int    `json:"queue_len"`
			SourceLen    int    `json:"source_len"`
			Failures     int    `json:"consecutive_failures"`
			CoolingDown  bool   `json:"cooling_down"`
			Stopped      bool   `json:"stopped"`
			ShuttingDown bool   `json:"shutting_down"`
		} `json:"scheduler"`
		Prefetched int `json:"prefetched"`
	}
	if err := call(http.MethodGet, "/v1/status", nil, &resp); err != nil {
		return err
	}

	s := resp.Scheduler
	fmt.Printf("Mode:        %s (loop=%v)\n", s.Mode, s.Loop)
	fmt.Printf("Generation:  %d\n", s.Generation)
	fmt.Printf("Queue:       %d remaining of %d\n", s.QueueLen, s.SourceLen)
	fmt.Printf("Prefetched:  %d\n", resp.Prefetched)
	fmt.Printf("Failures:    %d\n", s.Failures)

	switch {
	case s.ShuttingDown:
		color.Red("State:       shutting down")
	case s.Stopped:
		color.Yellow("State:       stopped (exhausted)")
	case s.CoolingDown:
		color.Yellow("State:       cooling down")
	default:
		color.Green("State:       running")
	}
	return nil
}

func queue() error {
	var resp struct {
		Count   int `json:"count"`
		Entries []struct {
			URI   string `json:"uri"`
			Label string `json:"label"`
		} `json:"entries"`
	}
	if err := call(http.MethodGet, "/v1/queue", nil, &resp); err != nil {
		return err
	}

	fmt.Printf("Remaining candidates: %d\n", resp.Count)
	for i, e := range resp.Entries {
		if e.Label != e.URI {
			fmt.Printf("  %3d. %s (%s)\n", i+1, e.Label, e.URI)
		} else {
			fmt.Printf("  %3d. %s\n", i+1, e.URI)
		}
	}
	return nil
}

func reload() error {
	body := map[string]any{
		"uris":  *reloadURIs,
		"drain": !*reloadNoDrain,
	}
	var resp struct {
		Loaded     int    `json:"loaded"`
		Generation uint64 `json:"generation"`
	}
	if err := call(http.MethodPost, "/v1/reload", body, &resp); err != nil {
		return err
	}
	color.Green("Reloaded %d candidates (generation %d)", resp.Loaded, resp.Generation)
	return nil
}

func next() error {
	var resp struct {
		ID    string `json:"id"`
		URI   string `json:"uri"`
		Label string `json:"label"`
	}
	err := call(http.MethodPost, "/v1/next", nil, &resp)
	if err == errNoContent {
		color.Yellow("No item available right now")
		return nil
	}
	if err != nil {
		return err
	}
	color.Green("Resolved: %s", resp.Label)
	fmt.Printf("  uri: %s\n  id:  %s\n", resp.URI, resp.ID)
	return nil
}

var errNoContent = fmt.Errorf("no content")

func call(method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, *server+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if *token != "" {
		req.Header.Set("Authorization", "Bearer "+*token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return errNoContent
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %s: %s", resp.Status, bytes.TrimSpace(data))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
