package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/qnkhuat/openingrush/pkg/engine"
	"github.com/qnkhuat/openingrush/pkg/pgn"
)

var (
	heading = color.New(color.Bold)
	warning = color.New(color.FgRed)
	muted   = color.New(color.FgHiBlack)
)

func newLinesCommand(opts *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "lines [file]",
		Short: "Print the move tree of every game in a PGN file",
		Long:  "Print the move tree of every game in a PGN file, or of stdin when no file is given, and check that every branch is legal.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "tree" && format != "pgn" {
				return fmt.Errorf("invalid format %q: must be tree or pgn", format)
			}
			var r io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			data, err := io.ReadAll(r)
			if err != nil {
				return err
			}
			games, err := pgn.Parse(string(data))
			if err != nil {
				return err
			}
			printGames(cmd.OutOrStdout(), games, format)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "tree", "output format (tree|pgn)")
	return cmd
}

func printGames(w io.Writer, games []pgn.Game, format string) {
	e := engine.New()
	for i, g := range games {
		if i > 0 {
			fmt.Fprintln(w)
		}
		title := fmt.Sprintf("Game %d", i+1)
		if event := g.Tags["Event"]; event != "" {
			title = fmt.Sprintf("%s: %s", title, event)
		}
		heading.Fprintln(w, title)
		muted.Fprintf(w, "%d moves, %d branches, result %s\n", g.Moves.Nodes(), g.Moves.Branches(), g.Result)

		if format == "pgn" {
			fmt.Fprintln(w, g.Moves.Format())
		} else {
			fmt.Fprint(w, g.Moves.Tree())
		}
		if err := e.CheckLine(g.Moves); err != nil {
			warning.Fprintf(w, "illegal: %v\n", err)
		}
	}
}

func newPresetsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the preset lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := opts.catalog()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, p := range catalog.All() {
				heading.Fprintf(w, "%-28s", p.Name)
				fmt.Fprintf(w, " %-6s %s\n", p.Color, strings.TrimSpace(p.PGN))
			}
			return nil
		},
	}
}
