package zoneset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/paularlott/cli"

	"subnetd/internal/model"
)

var serverURL string

func init() {
	serverURL = os.Getenv("SUBNETD_SERVER_URL")
	if serverURL == "" {
		serverURL = "http://localhost:8080"
	}
}

// Commands returns the zone set management subcommands
func Commands() []*cli.Command {
	return []*cli.Command{
		addCommand(),
		listCommand(),
		getCommand(),
		deleteCommand(),
	}
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:        "add",
		Usage:       "Add a new zone set",
		Description: "Add a new zone set with an ordered list of zones",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Zone set name", Required: true},
			&cli.StringFlag{Name: "zones", Usage: "Comma-separated ordered zone names", Required: true},
			&cli.StringFlag{Name: "description", Usage: "Zone set description"},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			zs := &model.ZoneSet{
				Name:        cmd.GetString("name"),
				Zones:       parseList(cmd.GetString("zones")),
				Description: cmd.GetString("description"),
			}

			if err := postJSON("/api/zonesets", zs, zs, http.StatusCreated); err != nil {
				return err
			}
			fmt.Printf("Zone set created: %s (ID: %s)\n", zs.Name, zs.ID)
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:        "list",
		Usage:       "List zone sets",
		Description: "List all zone sets, optionally filtered by name",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Filter by name"},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			path := "/api/zonesets"
			if name := cmd.GetString("name"); name != "" {
				path += "?name=" + name
			}

			var sets []model.ZoneSet
			if err := getJSON(path, &sets); err != nil {
				return err
			}

			if len(sets) == 0 {
				fmt.Println("No zone sets found")
				return nil
			}
			for _, zs := range sets {
				printZoneSet(&zs)
			}
			return nil
		},
	}
}

func getCommand() *cli.Command {
	return &cli.Command{
		Name:        "get",
		Usage:       "Get a zone set",
		Description: "Get a zone set by ID or name",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id", Required: true},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			var zs model.ZoneSet
			if err := getJSON("/api/zonesets/"+cmd.GetStringArg("id"), &zs); err != nil {
				return err
			}
			printZoneSet(&zs)
			return nil
		},
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:        "delete",
		Usage:       "Delete a zone set",
		Description: "Delete a zone set that no placement references",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id", Required: true},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			if err := doDelete("/api/zonesets/" + cmd.GetStringArg("id")); err != nil {
				return err
			}
			fmt.Println("Zone set deleted")
			return nil
		},
	}
}

func printZoneSet(zs *model.ZoneSet) {
	fmt.Printf("%s (ID: %s)\n", zs.Name, zs.ID)
	fmt.Printf("  Zones: %s\n", strings.Join(zs.Zones, ", "))
	if zs.Description != "" {
		fmt.Printf("  Description: %s\n", zs.Description)
	}
}

func parseList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// HTTP helpers

func newRequest(method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequest(method, serverURL+path, body)
	if err != nil {
		return nil, err
	}
	if token := os.Getenv("SUBNETD_BEARER_TOKEN"); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func getJSON(path string, out interface{}) error {
	req, err := newRequest("GET", path, nil)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error: %s", string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func postJSON(path string, in, out interface{}, wantStatus int) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := newRequest("POST", path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error: %s", string(body))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func doDelete(path string) error {
	req, err := newRequest("DELETE", path, nil)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error: %s", string(body))
	}
	return nil
}
