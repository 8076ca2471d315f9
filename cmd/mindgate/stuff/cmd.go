package stuff

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"strconv"
	"strings"

	"github.com/andrebq/mindgate/internal/cmdflags"
	"github.com/andrebq/mindgate/stuff"
	"github.com/urfave/cli/v2"
)

func Cmd() *cli.Command {
	var db string
	return &cli.Command{
		Name:  "stuff",
		Usage: "Manage stuff directly in the database",
		Flags: []cli.Flag{
			cmdflags.Database(&db),
		},
		Subcommands: []*cli.Command{
			addCmd(&db),
			listCmd(&db),
			stateCmd(&db, "tick", "Mark stuff as done", (*stuff.Store).Tick),
			stateCmd(&db, "untick", "Mark stuff as active again", (*stuff.Store).Untick),
			stateCmd(&db, "forget", "Hide stuff from every listing", (*stuff.Store).Forget),
		},
	}
}

func addCmd(db *string) *cli.Command {
	return &cli.Command{
		Name:      "add",
		Aliases:   []string{"a"},
		Usage:     "Add new stuff, words starting with # become tags (reads stdin when no argument is given)",
		ArgsUsage: "[text...]",
		Action: func(ctx *cli.Context) error {
			text := strings.Join(ctx.Args().Slice(), " ")
			if text == "" {
				buf, err := ioutil.ReadAll(bufio.NewReader(os.Stdin))
				if err != nil {
					return err
				}
				text = string(buf)
			}
			st, err := stuff.Open(ctx.Context, *db, true)
			if err != nil {
				return err
			}
			defer st.Close()
			rec, tags, err := st.Add(ctx.Context, text)
			if err != nil {
				return err
			}
			fmt.Fprintf(ctx.App.Writer, "%v\t%v\t%v\n", rec.ID, rec.Body, strings.Join(tags, ","))
			return nil
		},
	}
}

func listCmd(db *string) *cli.Command {
	var tag string
	var state string
	var page int
	var oldest bool
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List stuff, latest first",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "tag",
				Aliases:     []string{"t"},
				Usage:       "Only list stuff with this tag",
				Destination: &tag,
			},
			&cli.StringFlag{
				Name:        "state",
				Usage:       "One of active, ticked, forgotten or any",
				Value:       stuff.Active.String(),
				Destination: &state,
			},
			&cli.IntFlag{
				Name:        "page",
				Usage:       "Page to list, starting at zero",
				Destination: &page,
			},
			&cli.BoolFlag{
				Name:        "oldest",
				Usage:       "List oldest stuff first",
				Destination: &oldest,
			},
		},
		Action: func(ctx *cli.Context) error {
			st, err := stuff.ParseState(state)
			if err != nil {
				return err
			}
			store, err := stuff.Open(ctx.Context, *db, false)
			if err != nil {
				return err
			}
			defer store.Close()
			records, err := store.Query(ctx.Context, stuff.Query{
				Tag:    strings.TrimPrefix(tag, "#"),
				State:  st,
				Oldest: oldest,
				Offset: page * stuff.PageSize,
			})
			if err != nil {
				return err
			}
			for i, r := range records {
				if i == stuff.PageSize {
					fmt.Fprintf(ctx.App.Writer, "... more on page %v\n", page+1)
					break
				}
				fmt.Fprintf(ctx.App.Writer, "%v\t%v\t%v\n", r.ID, r.State, r.Body)
			}
			return nil
		},
	}
}

func stateCmd(db *string, name, usage string, fn func(*stuff.Store, context.Context, int64) error) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<id>",
		Action: func(ctx *cli.Context) error {
			if ctx.NArg() != 1 {
				return errors.New("expecting exactly one id")
			}
			id, err := strconv.ParseInt(ctx.Args().First(), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q, cause %w", ctx.Args().First(), err)
			}
			st, err := stuff.Open(ctx.Context, *db, true)
			if err != nil {
				return err
			}
			defer st.Close()
			return fn(st, ctx.Context, id)
		},
	}
}
