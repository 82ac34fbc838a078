package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rileyhilliard/provmon/internal/config"
	"github.com/rileyhilliard/provmon/internal/demo"
	"github.com/rileyhilliard/provmon/internal/errors"
	"github.com/spf13/cobra"
)

// Command-specific flags
var (
	dashboardIntervalFlag string
	listOpts              ListOptions
	addOpts               AddOptions
	removeYes             bool
	demoOpts              DemoOptions
)

// dashboardCmd starts the TUI dashboard
var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"monitor"},
	Short:   "Interactive dashboard of machines and providers",
	Long: `Start an interactive TUI dashboard listing every configured machine
with its provider summary. Drill into a machine to see its providers, and
into a provider to see every field it reports.

Keyboard shortcuts:
  /           Search (Enter keeps, Esc clears)
  s           Cycle sort on the focused column (asc, desc, off)
  left/right  Focus previous / next column
  [ / ]       Previous / next page
  up/down     Select row
  Enter       Open selected row
  Esc         Back
  r           Refresh now
  ?           Show help
  q / Ctrl+C  Quit

Examples:
  provmon dashboard
  provmon dashboard --interval 10s`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return dashboardCommand(dashboardIntervalFlag)
	},
}

// machinesCmd groups the machine subcommands
var machinesCmd = &cobra.Command{
	Use:     "machines",
	Aliases: []string{"machine", "m"},
	Short:   "List, inspect, add and remove machines",
}

var machinesListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List machines with their provider summary",
	Long: `Fetch every machine's status endpoint and print one page of the
machine table.

Sortable columns: machine_id, name, location, summary.total,
summary.working, summary.waiting, summary.unknown, summary.working_percent

Examples:
  provmon machines list
  provmon machines list --search warsaw
  provmon machines list --sort summary.working_percent:desc --page 2
  provmon machines list --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cliLogger())
		if err != nil {
			return err
		}
		defer a.close()
		return machinesList(cmd.Context(), cmd.OutOrStdout(), a, listOpts)
	},
}

var machinesShowCmd = &cobra.Command{
	Use:   "show <machine>",
	Short: "Show a machine and its providers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cliLogger())
		if err != nil {
			return err
		}
		defer a.close()
		return machinesShow(cmd.Context(), cmd.OutOrStdout(), a, args[0], time.Now())
	},
}

var machinesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a machine",
	Long: `Add a machine to the machine list. Without --name or --url, and
when run in a terminal, you'll be prompted for the details.

The id defaults to a slug of the name ("Geode 0" becomes "geode-0").

Examples:
  provmon machines add
  provmon machines add --name "Geode 0" --location Warsaw --url http://10.0.0.5:8080/providers`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cliLogger())
		if err != nil {
			return err
		}
		defer a.close()

		var prompt func(*AddOptions) error
		if interactive() {
			prompt = promptMachine
		}
		return machinesAdd(cmd.OutOrStdout(), a.store, addOpts, prompt)
	},
}

var machinesRemoveCmd = &cobra.Command{
	Use:     "remove <machine>",
	Aliases: []string{"rm"},
	Short:   "Remove a machine",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cliLogger())
		if err != nil {
			return err
		}
		defer a.close()

		var confirm func(m config.MachineConfig) (bool, error)
		if !removeYes {
			if !interactive() {
				return errors.New(errors.ErrConfig,
					"Refusing to remove without confirmation",
					"Pass --yes to remove non-interactively.")
			}
			confirm = confirmRemove
		}
		return machinesRemove(cmd.OutOrStdout(), a.store, args[0], confirm)
	},
}

// providerCmd groups the provider subcommands
var providerCmd = &cobra.Command{
	Use:     "provider",
	Aliases: []string{"providers", "p"},
	Short:   "Inspect providers",
}

var providerShowCmd = &cobra.Command{
	Use:   "show <machine> <provider>",
	Short: "Show every field of one provider",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cliLogger())
		if err != nil {
			return err
		}
		defer a.close()
		return providerShow(cmd.Context(), cmd.OutOrStdout(), a, args[0], args[1], time.Now())
	},
}

// overviewCmd prints fleet totals
var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Fleet totals, machines needing attention and locations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cliLogger())
		if err != nil {
			return err
		}
		defer a.close()
		return overview(cmd.Context(), cmd.OutOrStdout(), a)
	},
}

// demoCmd serves synthetic provider status
var demoCmd = &cobra.Command{
	Use:   "demo-endpoint",
	Short: "Serve synthetic provider status for trying provmon",
	Long: `Serve a status endpoint with a seeded, pseudo-random mix of working,
waiting and unknown providers. Each request draws a new snapshot.

Routes:
  GET /providers        provider list
  GET /providers/{id}   one provider
  GET /healthz          liveness
  GET /fail             always 500, to see failure handling

Examples:
  provmon demo-endpoint
  provmon demo-endpoint --addr :9000 --providers 24 --seed 7`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return demoCommand(ctx, cmd.OutOrStdout(), demoOpts)
	},
}

// completionCmd generates shell completion scripts
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion scripts for provmon.

Examples:
  # Bash
  provmon completion bash > /etc/bash_completion.d/provmon

  # Zsh
  provmon completion zsh > "${fpath[1]}/_provmon"

  # Fish
  provmon completion fish > ~/.config/fish/completions/provmon.fish`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(out)
		case "zsh":
			return rootCmd.GenZshCompletion(out)
		case "fish":
			return rootCmd.GenFishCompletion(out, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(out)
		default:
			return errors.New(errors.ErrExec,
				"Unknown shell: "+args[0],
				"Supported shells: bash, zsh, fish, powershell")
		}
	},
}

func init() {
	// dashboard flags
	dashboardCmd.Flags().StringVar(&dashboardIntervalFlag, "interval", "", "refresh interval (default: refresh_interval setting, e.g. 10s, 1m)")

	// machines list flags
	machinesListCmd.Flags().StringVar(&listOpts.Search, "search", "", "only machines whose id, name or location contains this")
	machinesListCmd.Flags().StringVar(&listOpts.Sort, "sort", "", "sort column, optionally with :asc or :desc")
	machinesListCmd.Flags().IntVar(&listOpts.Page, "page", 1, "page to show")

	// machines add flags
	machinesAddCmd.Flags().StringVar(&addOpts.Name, "name", "", "display name")
	machinesAddCmd.Flags().StringVar(&addOpts.ID, "id", "", "machine id (default: slug of the name)")
	machinesAddCmd.Flags().StringVar(&addOpts.Location, "location", "", "where the machine lives")
	machinesAddCmd.Flags().StringVar(&addOpts.URL, "url", "", "status endpoint URL")

	// machines remove flags
	machinesRemoveCmd.Flags().BoolVarP(&removeYes, "yes", "y", false, "skip the confirmation prompt")

	// demo-endpoint flags
	demoCmd.Flags().StringVar(&demoOpts.Addr, "addr", "127.0.0.1:8080", "listen address")
	demoCmd.Flags().IntVar(&demoOpts.Providers, "providers", demo.DefaultProviders, "providers per snapshot")
	demoCmd.Flags().Int64Var(&demoOpts.Seed, "seed", demo.DefaultSeed, "random seed")

	// Register all commands
	machinesCmd.AddCommand(machinesListCmd, machinesShowCmd, machinesAddCmd, machinesRemoveCmd)
	providerCmd.AddCommand(providerShowCmd)

	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(machinesCmd)
	rootCmd.AddCommand(providerCmd)
	rootCmd.AddCommand(overviewCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(completionCmd)
}
