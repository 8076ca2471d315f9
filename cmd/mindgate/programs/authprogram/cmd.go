package authprogram

import (
	"bufio"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/andrebq/mindgate/gate"
	"github.com/andrebq/mindgate/internal/cmdflags"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Generate secrets and credentials for the gate",
		Subcommands: []*cli.Command{
			keygenCmd(),
			saltgenCmd(),
			hashCmd(),
			tokenCmd(),
		},
	}
}

func keygenCmd() *cli.Command {
	return &cli.Command{
		Name:  "keygen",
		Usage: "Print a new base64 root key, to be exported in the root key environment variable",
		Action: func(ctx *cli.Context) error {
			var key gate.Key
			if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
				return err
			}
			fmt.Fprintln(ctx.App.Writer, base64.StdEncoding.EncodeToString(key[:]))
			key.Zero()
			return nil
		},
	}
}

func saltgenCmd() *cli.Command {
	return &cli.Command{
		Name:  "saltgen",
		Usage: "Print a new random salt",
		Action: func(ctx *cli.Context) error {
			buf := make([]byte, 32)
			if _, err := io.ReadFull(rand.Reader, buf); err != nil {
				return err
			}
			fmt.Fprintln(ctx.App.Writer, gate.ToHex(buf))
			return nil
		},
	}
}

func hashCmd() *cli.Command {
	var username string
	var salt string
	var saltEnvVar string
	return &cli.Command{
		Name:  "hash",
		Usage: "Hash a password (read from stdin) and print the matching login entry",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "username",
				Aliases:     []string{"u", "user"},
				Usage:       "Name of the user",
				Destination: &username,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "salt",
				Usage:       "Salt used by the gate, when empty it is read from the salt environment variable",
				Destination: &salt,
			},
			cmdflags.SaltEnvVar(&saltEnvVar),
		},
		Action: func(ctx *cli.Context) error {
			if salt == "" {
				var err error
				salt, err = gate.SaltFromEnv(saltEnvVar, os.Getenv, os.Setenv)
				if err != nil {
					return err
				}
			}
			if salt == "" {
				return errors.New("missing salt")
			}
			sc := bufio.NewScanner(os.Stdin)
			if !sc.Scan() {
				if sc.Err() != nil {
					return sc.Err()
				}
				return errors.New("missing password from stdin")
			}
			password := strings.TrimSpace(sc.Text())
			if len(password) == 0 {
				return errors.New("missing password from stdin")
			}
			fmt.Fprintln(ctx.App.Writer, loginEntry(username, salt, password))
			return nil
		},
	}
}

func tokenCmd() *cli.Command {
	var rootKeyEnvVar string
	return &cli.Command{
		Name:  "token",
		Usage: "Issue a token that can be sent as 'Authorization: token=<token>' by scripts",
		Flags: []cli.Flag{
			cmdflags.RootKeyEnvVar(&rootKeyEnvVar),
		},
		Action: func(ctx *cli.Context) error {
			key, err := gate.KeyFromEnv(rootKeyEnvVar, os.Getenv, os.Setenv)
			if err != nil {
				return err
			}
			defer key.Zero()
			token, err := gate.IssueToken(rand.Reader, key)
			if err != nil {
				return err
			}
			fmt.Fprintln(ctx.App.Writer, token)
			return nil
		},
	}
}

// loginEntry returns a line that can be pasted inside the login table
// of a configuration file
func loginEntry(username, salt, password string) string {
	return fmt.Sprintf("[%v] = %v,", luaQuote(username), luaQuote(gate.ToHex(gate.HashPassword(salt, password))))
}

// luaQuote writes s as a double quoted lua string, non printable bytes
// use decimal escapes since lua has no \x form
func luaQuote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case c < 0x20 || c == 0x7f:
			fmt.Fprintf(&sb, "\\%03d", c)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
