package commands

import (
	"fmt"
	"strings"

	winerrors "binocular/internal/infrastructure/errors"
	"binocular/internal/switcher"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List switchable windows",
	Long: `List the top-level windows the switcher panel would show, in z-order.

The window table is walked once when the command runs. Binocular's own
windows are never listed.`,
	Example: `  # List windows in table format (default)
  binoctl list

  # List windows as YAML including their icons
  binoctl list --format yaml --icons`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Fuzzy-search switchable windows",
	Long:  `List the windows whose title or process name fuzzily matches QUERY, best match first.`,
	Example: `  # Find editor windows
  binoctl search code

  # Multi-word queries are joined with spaces
  binoctl search main go --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

var (
	listFormat string
	listIcons  bool
)

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(searchCmd)

	for _, cmd := range []*cobra.Command{listCmd, searchCmd} {
		cmd.Flags().StringVarP(&listFormat, "format", "f", "table", "output format (table, json or yaml)")
		cmd.Flags().BoolVar(&listIcons, "icons", false, "include icon data URIs in json/yaml output")
	}
}

func refreshedRegistry() (*switcher.Registry, error) {
	registry, err := openRegistry()
	if err != nil {
		return nil, err
	}
	if err := registry.Refresh(); err != nil {
		if winerrors.IsUnsupported(err) {
			return nil, fmt.Errorf("window enumeration is only available on Windows: %w", err)
		}
		return nil, fmt.Errorf("failed to enumerate windows: %w", err)
	}
	return registry, nil
}

func runList(cmd *cobra.Command, args []string) error {
	registry, err := refreshedRegistry()
	if err != nil {
		return err
	}
	return writeList(cmd.OutOrStdout(), registry.Snapshot().List(), listFormat, listIcons)
}

func runSearch(cmd *cobra.Command, args []string) error {
	registry, err := refreshedRegistry()
	if err != nil {
		return err
	}

	list := registry.Snapshot().List()
	list.Windows = switcher.FilterRecords(list.Windows, strings.Join(args, " "))
	return writeList(cmd.OutOrStdout(), list, listFormat, listIcons)
}
