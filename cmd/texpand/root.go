package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/atinylittleshell/texpand/internal/app"
	"github.com/atinylittleshell/texpand/internal/expand"
	"github.com/atinylittleshell/texpand/internal/hook"
	"github.com/atinylittleshell/texpand/internal/predict"
	"github.com/atinylittleshell/texpand/internal/shortcuts"
	"github.com/atinylittleshell/texpand/internal/styles"
	"github.com/atinylittleshell/texpand/internal/ui"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/truncate"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	ConfigPath string
	Headless   bool
}

const defaultListWidth = 80

// newRootCommand creates the root command. Without a subcommand it behaves
// like run.
func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "texpand",
		Short: "texpand - system-wide text expansion",
		Long: `Type a trigger followed by a space or punctuation anywhere on the desktop
and texpand replaces it with its expansion. The shortcut manager suggests
expansions as you type them when a text generation backend is configured.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to the config file (default ~/.texpand/config.yaml)")
	cmd.Flags().BoolVar(&opts.Headless, "headless", false, "expand triggers without the shortcut manager")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newAddCommand(opts))
	cmd.AddCommand(newRemoveCommand(opts))
	cmd.AddCommand(newListCommand(opts))
	cmd.AddCommand(newTryCommand(opts))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func newRunCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start expanding triggers and open the shortcut manager",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.Headless, "headless", false, "expand triggers without the shortcut manager")
	return cmd
}

func runSession(cmd *cobra.Command, opts *rootOptions) error {
	if !opts.Headless && !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("the shortcut manager needs a terminal, use --headless to run without it")
	}

	env, err := setupEnvironment(opts)
	if err != nil {
		return err
	}
	defer env.close()

	ctx := cmd.Context()
	system, err := hook.NewSystem(hook.Config{
		Devices:        env.config.Hook.Devices,
		Injector:       env.config.Hook.Injector,
		PasteThreshold: env.config.Hook.PasteThreshold,
		Logger:         env.logger.Named("hook"),
	})
	keyboard, err := selectHook(system, err, opts.Headless)
	if err != nil {
		return err
	}
	if keyboard == nil {
		env.logger.Warn("keyboard hook unavailable, expansion disabled")
		fmt.Fprintln(cmd.ErrOrStderr(), styles.DIM("triggers are not expanded on this platform, opening the shortcut manager only"))
	}

	var backend predict.Backend
	if router := predict.NewRouterFromConfig(ctx, env.config, env.logger.Named("predict")); router != nil {
		backend = router
	}

	session := app.NewSession(app.Options{
		Config:     env.config,
		Store:      env.store,
		Hook:       keyboard,
		Backend:    backend,
		Headless:   opts.Headless,
		WatchStore: true,
		Logger:     env.logger,
	})
	if opts.Headless {
		fmt.Fprintln(cmd.OutOrStdout(), styles.DIM("expanding triggers, press ctrl+c to stop"))
	}
	return session.Run(ctx)
}

// selectHook returns the hook a session should use. Without a keyboard
// source the shortcut manager still runs, with a nil hook; headless mode has
// nothing left to do and fails.
func selectHook(system *hook.System, err error, headless bool) (hook.Hook, error) {
	switch {
	case errors.Is(err, hook.ErrUnsupported) && !headless:
		return nil, nil
	case err != nil:
		return nil, err
	}
	return system, nil
}

func newAddCommand(opts *rootOptions) *cobra.Command {
	var temporary bool

	cmd := &cobra.Command{
		Use:   "add TRIGGER EXPANSION",
		Short: "Add a shortcut",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setupEnvironment(opts)
			if err != nil {
				return err
			}
			defer env.close()

			err = env.store.Add(args[0], args[1], temporary)
			switch {
			case errors.Is(err, shortcuts.ErrDuplicateTrigger):
				return errors.New(ui.MsgDuplicate)
			case errors.Is(err, shortcuts.ErrEmptyField):
				return errors.New(ui.MsgFieldsRequired)
			case errors.Is(err, shortcuts.ErrInvalidTrigger):
				return errors.New(ui.MsgInvalidTrigger)
			case err != nil:
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), styles.SUCCESS("added ")+styles.TRIGGER(strings.TrimSpace(args[0])))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&temporary, "temporary", "t", false, "remove the shortcut when the next session ends")
	return cmd
}

func newRemoveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm TRIGGER",
		Aliases: []string{"remove"},
		Short:   "Remove a shortcut",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setupEnvironment(opts)
			if err != nil {
				return err
			}
			defer env.close()

			err = env.store.Remove(args[0])
			if errors.Is(err, shortcuts.ErrNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), styles.DIM("no shortcut named "+args[0]))
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), styles.SUCCESS("removed ")+styles.TRIGGER(args[0]))
			return nil
		},
	}
}

func newListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list [QUERY]",
		Aliases: []string{"ls"},
		Short:   "List shortcuts, optionally filtered by QUERY",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setupEnvironment(opts)
			if err != nil {
				return err
			}
			defer env.close()

			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			entries, err := env.store.Search(query)
			if err != nil {
				return err
			}

			writeEntries(cmd, entries, listWidth())
			return nil
		},
	}
}

func listWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return defaultListWidth
	}
	return width
}

func writeEntries(cmd *cobra.Command, entries []shortcuts.ShortcutEntry, width int) {
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, styles.DIM("no shortcuts"))
		return
	}

	triggerWidth := 0
	for _, entry := range entries {
		triggerWidth = max(triggerWidth, len(entry.Trigger))
	}

	for _, entry := range entries {
		var suffix []string
		if entry.Temporary {
			suffix = append(suffix, styles.TEMPORARY("temporary"))
		}
		if entry.AddedAt.Valid {
			suffix = append(suffix, styles.DIM(humanize.Time(entry.AddedAt.Time)))
		}

		expansion := strings.ReplaceAll(entry.Expansion, "\n", "⏎")
		expansion = truncate.StringWithTail(expansion, uint(max(width-triggerWidth-30, 10)), "…")

		line := styles.TRIGGER(fmt.Sprintf("%-*s", triggerWidth, entry.Trigger)) + "  " + expansion
		if len(suffix) > 0 {
			line += "  " + strings.Join(suffix, " ")
		}
		fmt.Fprintln(out, line)
	}
}

func newTryCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "try TEXT",
		Short: "Show what typing TEXT would produce with the current shortcuts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setupEnvironment(opts)
			if err != nil {
				return err
			}
			defer env.close()

			surface := hook.NewVirtual()
			listener := expand.NewListener(expand.ListenerConfig{
				Hook:   surface,
				Logger: env.logger.Named("listener"),
			})
			if err := env.store.Load(listener); err != nil {
				return err
			}

			done := make(chan error, 1)
			go func() { done <- listener.Run(cmd.Context()) }()

			for _, r := range args[0] {
				surface.Press(hook.RuneEvent(r))
				surface.Settle()
			}
			listener.Stop()
			if err := <-done; err != nil && !errors.Is(err, expand.ErrStopped) {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), surface.Text())
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), BUILD_VERSION)
		},
	}
}
