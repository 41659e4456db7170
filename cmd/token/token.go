package token

import (
	"context"
	"fmt"
	"os"

	"github.com/paularlott/cli"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

// Command returns the token management command
func Command() *cli.Command {
	return &cli.Command{
		Name:        "token",
		Usage:       "Token management commands",
		Description: "Generate credentials for API and MCP authentication",
		Commands: []*cli.Command{
			hashCommand(),
		},
	}
}

func hashCommand() *cli.Command {
	return &cli.Command{
		Name:        "hash",
		Usage:       "Hash a bearer token",
		Description: "Read a token from stdin and print its bcrypt hash for use with --token-hash",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:         "cost",
				Usage:        "Bcrypt cost factor",
				DefaultValue: bcrypt.DefaultCost,
			},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cost := cmd.GetInt("cost")
			if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
				return fmt.Errorf("cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
			}

			var token []byte
			if term.IsTerminal(int(os.Stdin.Fd())) {
				fmt.Fprint(os.Stderr, "Token: ")
				var err error
				token, err = term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Fprintln(os.Stderr)
				if err != nil {
					return fmt.Errorf("reading token: %w", err)
				}
			} else {
				// Piped input
				var err error
				token, err = readLine(os.Stdin)
				if err != nil {
					return fmt.Errorf("reading token: %w", err)
				}
			}

			if len(token) == 0 {
				return fmt.Errorf("token must not be empty")
			}

			hash, err := bcrypt.GenerateFromPassword(token, cost)
			if err != nil {
				return fmt.Errorf("hashing token: %w", err)
			}

			fmt.Println(string(hash))
			return nil
		},
	}
}

func readLine(f *os.File) ([]byte, error) {
	var line []byte
	buf := make([]byte, 1)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				break
			}
			if buf[0] != '\r' {
				line = append(line, buf[0])
			}
		}
		if err != nil {
			break
		}
	}
	return line, nil
}
