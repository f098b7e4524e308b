package main

import (
	"fmt"
	"os"
	"sort"

	"lol-autopilot/internal/api"
	"lol-autopilot/internal/champion"
	"lol-autopilot/internal/config"
	"lol-autopilot/internal/domain"
	fxmodules "lol-autopilot/internal/fx"
	"lol-autopilot/internal/logger"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags config.Flags

	root := &cobra.Command{
		Use:          "autopilot",
		Short:        "Drives League of Legends champ select from a local control server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.EnvFile, "config", "", "env file to load (default .env)")
	pf.StringVar(&flags.ChampionsFile, "champions", "", "champions file (default CHAMPIONS_FILE or champions.yaml)")
	pf.StringVar(&flags.Pick, "pick", "", "champion to pick")
	pf.StringVar(&flags.Ban, "ban", "", "champion to ban")
	pf.StringVar(&flags.Role, "role", "", "role to play (top, jungle, mid, bot, support)")
	pf.BoolVar(&flags.NoLoadout, "no-loadout", false, "do not send runes and summoner spells")
	pf.BoolVar(&flags.WaitForStart, "wait-for-start", false, "wait for POST /start before connecting to the client")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Start the autopilot and its control server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(flags)
			},
		},
		newValidateCmd(&flags),
	)
	return root
}

func run(flags config.Flags) error {
	app := fx.New(
		fx.Supply(flags),
		fxmodules.Module,
	)
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}

func newValidateCmd(flags *config.Flags) *cobra.Command {
	var online bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and champions file",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.Console(zerolog.InfoLevel)

			cfg, err := config.Load(log, *flags)
			if err != nil {
				return err
			}
			printChampions(cmd, cfg.Champions)

			if !online {
				return nil
			}
			client := api.NewLCUClient(cfg, log)
			if err := client.Connect(); err != nil {
				return fmt.Errorf("failed to connect to client: %w", err)
			}
			catalog := champion.NewCatalog(log)
			if err := catalog.Load(cmd.Context(), client); err != nil {
				return err
			}
			names := cfg.Champions.All()
			for _, n := range []string{cfg.Request.Pick, cfg.Request.Ban} {
				if n != "" {
					names = append(names, n)
				}
			}
			if err := catalog.Validate(names); err != nil {
				return err
			}
			log.Info().Int("champions", catalog.Len()).Msg("all champion names resolve")
			return nil
		},
	}
	cmd.Flags().BoolVar(&online, "online", false, "also resolve names against the running client")
	return cmd
}

func printChampions(cmd *cobra.Command, c config.Champions) {
	out := cmd.OutOrStdout()
	for _, section := range []struct {
		title string
		lists map[domain.Role][]string
	}{
		{"picks", c.Pick},
		{"bans", c.Ban},
	} {
		roles := make([]string, 0, len(section.lists))
		for r := range section.lists {
			roles = append(roles, string(r))
		}
		sort.Strings(roles)
		fmt.Fprintf(out, "%s:\n", section.title)
		for _, r := range roles {
			fmt.Fprintf(out, "  %-8s %v\n", r, section.lists[domain.Role(r)])
		}
	}
	if p := c.Preferences; p.PinnedPick != "" || p.PinnedBan != "" || len(p.PinnedSpells) > 0 {
		fmt.Fprintf(out, "pinned: pick=%q ban=%q spells=%v\n", p.PinnedPick, p.PinnedBan, p.PinnedSpells)
	}
}
