package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/qnkhuat/openingrush/pkg"
	"github.com/qnkhuat/openingrush/pkg/presets"
	"github.com/qnkhuat/openingrush/pkg/trainer"
)

func newPlayCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Train in the full screen terminal board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := opts.logger("play", true)
			if err != nil {
				return err
			}
			defer log.Sync()
			catalog, err := opts.catalog()
			if err != nil {
				return err
			}
			theme, err := opts.theme()
			if err != nil {
				return err
			}
			return pkg.NewClient(opts.cfg, catalog, theme, log).Run(cmd.Context())
		},
	}
}

type lineOptions struct {
	preset string
	pgn    string
	file   string
	color  string
}

func newDrillCommand(opts *rootOptions) *cobra.Command {
	lo := &lineOptions{}
	cmd := &cobra.Command{
		Use:   "drill",
		Short: "Train a line by typing moves in a plain terminal",
		Example: `  openingrush drill --preset "Caro-Kann"
  openingrush drill --pgn "1. e4 e5 2. Nf3 Nc6 *" --color white
  openingrush drill --file najdorf.pgn --color black`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := opts.logger("drill", true)
			if err != nil {
				return err
			}
			defer log.Sync()
			catalog, err := opts.catalog()
			if err != nil {
				return err
			}
			text, player, err := lo.resolve(catalog, cmd.Flags().Changed("color"))
			if err != nil {
				return err
			}

			fd := int(os.Stdin.Fd())
			interactive := term.IsTerminal(fd)
			if interactive {
				state, err := term.MakeRaw(fd)
				if err != nil {
					return err
				}
				defer term.Restore(fd, state)
			}

			d := pkg.NewDrill(opts.cfg, struct {
				io.Reader
				io.Writer
			}{os.Stdin, cmd.OutOrStdout()}, interactive, log)
			if err := d.Load(text, player); err != nil {
				return errors.New(pkg.LoadErrorText(err))
			}
			return d.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&lo.preset, "preset", "", "name of a preset line")
	cmd.Flags().StringVar(&lo.pgn, "pgn", "", "PGN of the line")
	cmd.Flags().StringVar(&lo.file, "file", "", "file holding the PGN of the line")
	cmd.Flags().StringVar(&lo.color, "color", "white", "side you play, white or black")
	cmd.MarkFlagsMutuallyExclusive("preset", "pgn", "file")
	return cmd
}

// resolve returns the PGN and side to train. A preset brings its own side
// unless colorSet.
func (lo *lineOptions) resolve(catalog *presets.Catalog, colorSet bool) (string, trainer.Color, error) {
	player, err := trainer.ParseColor(lo.color)
	if err != nil {
		return "", player, err
	}

	switch {
	case lo.preset != "":
		p, ok := catalog.Find(lo.preset)
		if !ok {
			return "", player, fmt.Errorf("unknown preset %q, see openingrush presets", lo.preset)
		}
		if !colorSet {
			player = p.Player()
		}
		return p.PGN, player, nil
	case lo.file != "":
		data, err := os.ReadFile(lo.file)
		if err != nil {
			return "", player, err
		}
		return string(data), player, nil
	case lo.pgn != "":
		return lo.pgn, player, nil
	default:
		return "", player, errors.New("pick a line with --preset, --pgn or --file")
	}
}
