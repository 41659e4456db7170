package placement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
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

// Commands returns the placement management subcommands
func Commands() []*cli.Command {
	return []*cli.Command{
		addCommand(),
		listCommand(),
		getCommand(),
		deleteCommand(),
		exportCommand(),
		importCommand(),
	}
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:        "add",
		Usage:       "Add a new placement",
		Description: "Lay out and store a new placement from named groups",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Placement name", Required: true},
			&cli.StringFlag{Name: "category", Usage: "Category (public, private, isolated)", Required: true},
			&cli.StringFlag{Name: "zoneset", Usage: "Zone set ID or name", Required: true},
			&cli.StringFlag{Name: "groups", Usage: "Comma-separated group names", Required: true},
			&cli.StringFlag{Name: "description", Usage: "Placement description"},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			body := map[string]interface{}{
				"name":        cmd.GetString("name"),
				"category":    cmd.GetString("category"),
				"zoneset_id":  cmd.GetString("zoneset"),
				"groups":      parseList(cmd.GetString("groups")),
				"description": cmd.GetString("description"),
			}

			var p model.Placement
			if err := postJSON("/api/placements", body, &p, http.StatusCreated); err != nil {
				return err
			}
			fmt.Printf("Placement created: %s (ID: %s)\n", p.Name, p.ID)
			printSubnets(p.Subnets)
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:        "list",
		Usage:       "List placements",
		Description: "List placements, optionally filtered by name, category or zone set",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Filter by name"},
			&cli.StringFlag{Name: "category", Usage: "Filter by category"},
			&cli.StringFlag{Name: "zoneset", Usage: "Filter by zone set ID"},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			q := url.Values{}
			if v := cmd.GetString("name"); v != "" {
				q.Set("name", v)
			}
			if v := cmd.GetString("category"); v != "" {
				q.Set("category", v)
			}
			if v := cmd.GetString("zoneset"); v != "" {
				q.Set("zoneset_id", v)
			}
			path := "/api/placements"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			var placements []model.Placement
			if err := getJSON(path, &placements); err != nil {
				return err
			}

			if len(placements) == 0 {
				fmt.Println("No placements found")
				return nil
			}
			for _, p := range placements {
				fmt.Printf("%s (ID: %s, category: %s, subnets: %d)\n", p.Name, p.ID, p.Category, len(p.Subnets))
			}
			return nil
		},
	}
}

func getCommand() *cli.Command {
	return &cli.Command{
		Name:        "get",
		Usage:       "Get a placement",
		Description: "Get a placement by ID or name, including its subnet list",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id", Required: true},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			var p model.Placement
			if err := getJSON("/api/placements/"+cmd.GetStringArg("id"), &p); err != nil {
				return err
			}

			fmt.Printf("%s (ID: %s)\n", p.Name, p.ID)
			fmt.Printf("  Category: %s\n", p.Category)
			fmt.Printf("  Zone set: %s\n", p.ZoneSetID)
			if p.Description != "" {
				fmt.Printf("  Description: %s\n", p.Description)
			}
			printSubnets(p.Subnets)
			return nil
		},
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:        "delete",
		Usage:       "Delete a placement",
		Description: "Delete a placement from storage",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id", Required: true},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			if err := doDelete("/api/placements/" + cmd.GetStringArg("id")); err != nil {
				return err
			}
			fmt.Println("Placement deleted")
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:        "export",
		Usage:       "Export a placement",
		Description: "Encode a placement and publish its lists to the export store",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id", Required: true},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			var res struct {
				Record   model.ExportRecord `json:"record"`
				IDsKey   string             `json:"subnet_ids_key"`
				NamesKey string             `json:"group_names_key"`
			}
			path := "/api/placements/" + cmd.GetStringArg("id") + "/export"
			if err := postJSON(path, nil, &res, http.StatusOK); err != nil {
				return err
			}

			if res.IDsKey == "" {
				fmt.Println("Placement is empty; export lists retracted")
				return nil
			}
			fmt.Printf("Subnet IDs published: %s (%d entries)\n", res.IDsKey, len(res.Record.IDs))
			if res.NamesKey != "" {
				fmt.Printf("Group names published: %s (%s)\n", res.NamesKey, strings.Join(res.Record.Names, ", "))
			} else {
				fmt.Println("Group names omitted (single default group)")
			}
			return nil
		},
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:        "import",
		Usage:       "Import exported subnets",
		Description: "Reconstruct a subnet list from exported lists or literal values",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Usage: "Category (public, private, isolated)", Required: true},
			&cli.StringFlag{Name: "zoneset", Usage: "Zone set ID or name supplying the zones"},
			&cli.StringFlag{Name: "zones", Usage: "Comma-separated literal zone list"},
			&cli.StringFlag{Name: "ids", Usage: "Comma-separated subnet IDs"},
			&cli.StringFlag{Name: "names", Usage: "Comma-separated group names"},
			&cli.StringFlag{Name: "ids-key", Usage: "Export-store key holding the subnet IDs"},
			&cli.StringFlag{Name: "names-key", Usage: "Export-store key holding the group names"},
			&cli.BoolFlag{Name: "provision", Usage: "Provision subnets with empty IDs"},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			body := map[string]interface{}{
				"category":  cmd.GetString("category"),
				"provision": cmd.GetBool("provision"),
			}
			if v := cmd.GetString("zoneset"); v != "" {
				body["zoneset_id"] = v
			}
			if v := parseList(cmd.GetString("zones")); v != nil {
				body["zones"] = v
			}
			if v := parseList(cmd.GetString("ids")); v != nil {
				body["subnet_ids"] = v
			}
			if v := parseList(cmd.GetString("names")); v != nil {
				body["group_names"] = v
			}
			if v := cmd.GetString("ids-key"); v != "" {
				body["subnet_ids_key"] = v
			}
			if v := cmd.GetString("names-key"); v != "" {
				body["group_names_key"] = v
			}

			var res struct {
				Subnets []model.Subnet `json:"subnets"`
			}
			if err := postJSON("/api/import", body, &res, http.StatusOK); err != nil {
				return err
			}

			fmt.Printf("Imported %d subnets\n", len(res.Subnets))
			printSubnets(res.Subnets)
			return nil
		},
	}
}

func printSubnets(subnets []model.Subnet) {
	for _, s := range subnets {
		fmt.Printf("  %s  id=%s zone=%s group=%s\n", s.Path, s.SubnetID, s.Zone, s.GroupName)
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
	var reader io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := newRequest("POST", path, reader)
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
