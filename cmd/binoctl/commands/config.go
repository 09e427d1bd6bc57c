package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"binocular/internal/config"
	"binocular/internal/platform"

	"github.com/spf13/cobra"
)

// autostartName matches the Run key value the panel writes
const autostartName = "Binocular"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect Binocular configuration",
	Long:  `View the effective configuration after file values, environment overrides and defaults are merged.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Example: `  # Show configuration as YAML (default)
  binoctl config show

  # Show configuration as JSON
  binoctl config show --format json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

var autostartCmd = &cobra.Command{
	Use:   "autostart [on|off|status]",
	Short: "Manage starting Binocular at login",
	Long: `Turn start-at-login for the Binocular panel on or off.

The setting is saved as 'autostart' in the config file, so the panel keeps
it on its next start, and the login entry is updated right away. The entry
points at the panel executable: by default the binocular executable next
to binoctl, or the path given with --target.`,
	Example: `  # Start the panel installed next to binoctl at login
  binoctl autostart on

  # Point the entry at a panel installed elsewhere
  binoctl autostart on --target "C:\Program Files\Binocular\binocular.exe"`,
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"on", "off", "status"},
	RunE:      runAutostart,
}

var (
	formatFlag      string
	autostartTarget string

	// newRunKey and executablePath are swapped out by tests
	newRunKey      = platform.NewRunKey
	executablePath = os.Executable
)

func init() {
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(autostartCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)

	configShowCmd.Flags().StringVarP(&formatFlag, "format", "f", "yaml", "output format (yaml or json)")
	autostartCmd.Flags().StringVar(&autostartTarget, "target", "", "panel executable to start at login (default is binocular next to binoctl)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, _, _, err := loadConfig()
	if err != nil {
		return err
	}
	return encode(cmd.OutOrStdout(), formatFlag, cfg)
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	_, loader, _, err := loadConfig()
	if err != nil {
		return err
	}

	path := loader.Path()
	if path == "" {
		path = fmt.Sprintf("%s (not present, using defaults)", cfgPathOrDefault())
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func cfgPathOrDefault() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultPath()
}

func runAutostart(cmd *cobra.Command, args []string) error {
	action := "status"
	if len(args) == 1 {
		action = args[0]
	}

	_, loader, _, err := loadConfig()
	if err != nil {
		return err
	}
	autostart := platform.NewAutostart(newRunKey(), autostartName)

	switch action {
	case "on":
		target, err := panelTarget()
		if err != nil {
			return err
		}
		if err := autostart.Enable(target); err != nil {
			return fmt.Errorf("failed to update autostart: %w", err)
		}
		if err := loader.Persist("autostart", true); err != nil {
			return fmt.Errorf("failed to save autostart setting: %w", err)
		}
	case "off":
		if err := autostart.Disable(); err != nil {
			return fmt.Errorf("failed to update autostart: %w", err)
		}
		if err := loader.Persist("autostart", false); err != nil {
			return fmt.Errorf("failed to save autostart setting: %w", err)
		}
	}

	target, present, err := autostart.Target()
	if err != nil {
		return fmt.Errorf("failed to read autostart: %w", err)
	}

	out := cmd.OutOrStdout()
	state := "off"
	if present {
		state = "on"
	}
	fmt.Fprintf(out, "autostart: %s\n", state)
	if present {
		fmt.Fprintf(out, "target: %s\n", target)
	}
	fmt.Fprintf(out, "config: %t\n", loader.Config().Autostart)
	return nil
}

func panelBinary() string {
	if runtime.GOOS == "windows" {
		return "binocular.exe"
	}
	return "binocular"
}

// panelTarget resolves the executable the login entry should start. The
// entry must name the panel, never binoctl itself.
func panelTarget() (string, error) {
	target := autostartTarget
	if target == "" {
		self, err := executablePath()
		if err != nil {
			return "", fmt.Errorf("failed to locate binoctl: %w", err)
		}
		target = filepath.Join(filepath.Dir(self), panelBinary())
	}

	target, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("invalid autostart target: %w", err)
	}
	info, err := os.Stat(target)
	if err != nil {
		return "", fmt.Errorf("panel executable not found at %s, pass --target with its path: %w", target, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("autostart target %s is a directory", target)
	}
	return target, nil
}
