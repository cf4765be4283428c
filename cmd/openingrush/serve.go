package main

import (
	"github.com/spf13/cobra"

	"github.com/qnkhuat/openingrush/pkg"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the trainer over ssh or websocket",
	}
	cmd.PersistentFlags().Duration("idle-timeout", 0, "drop sessions idle for this long")
	opts.bind(cmd.PersistentFlags().Lookup("idle-timeout"), "idle_timeout")

	cmd.AddCommand(newServeSSHCommand(opts))
	cmd.AddCommand(newServeWebCommand(opts))
	return cmd
}

func newServeSSHCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ssh",
		Short: "Run the terminal trainer for every ssh session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := opts.logger("ssh", false)
			if err != nil {
				return err
			}
			defer log.Sync()
			s, err := pkg.NewSSHServer(opts.cfg, log)
			if err != nil {
				return err
			}
			return s.ListenAndServe(cmd.Context())
		},
	}
	cmd.Flags().String("addr", "", "listen address")
	cmd.Flags().String("host-key", "", "host key file, generated when missing")
	cmd.Flags().String("command", "", "command run for each session, this binary's play command when empty")
	opts.bind(cmd.Flags().Lookup("addr"), "ssh_addr")
	opts.bind(cmd.Flags().Lookup("host-key"), "ssh_host_key")
	opts.bind(cmd.Flags().Lookup("command"), "ssh_command")
	return cmd
}

func newServeWebCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the websocket board protocol",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := opts.logger("web", false)
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
			return pkg.NewWebServer(opts.cfg, catalog, theme, log).ListenAndServe(cmd.Context())
		},
	}
	cmd.Flags().String("addr", "", "listen address")
	opts.bind(cmd.Flags().Lookup("addr"), "web_addr")
	return cmd
}
