package commands

import (
	"fmt"
	"strconv"

	"binocular/internal/platform"

	"github.com/spf13/cobra"
)

var focusCmd = &cobra.Command{
	Use:   "focus HANDLE",
	Short: "Bring a window to the foreground",
	Long: `Restore HANDLE if it is minimised and make it the foreground window.

HANDLE is the value printed by 'binoctl list', in hex (0x...) or decimal.`,
	Example: `  binoctl focus 0x1a2b3c`,
	Args:    cobra.ExactArgs(1),
	RunE:    runFocus,
}

var closeCmd = &cobra.Command{
	Use:   "close HANDLE",
	Short: "Ask a window to close",
	Long: `Send HANDLE a close request and return immediately.

The window may prompt the user or refuse; binoctl does not wait to find out.`,
	Example: `  binoctl close 0x1a2b3c`,
	Args:    cobra.ExactArgs(1),
	RunE:    runClose,
}

func init() {
	rootCmd.AddCommand(focusCmd)
	rootCmd.AddCommand(closeCmd)
}

// parseHandle accepts 0x-prefixed hex, 0-prefixed octal or decimal
func parseHandle(s string) (platform.Handle, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("invalid window handle: %s", s)
	}
	return platform.Handle(v), nil
}

func runFocus(cmd *cobra.Command, args []string) error {
	h, err := parseHandle(args[0])
	if err != nil {
		return err
	}
	registry, err := openRegistry()
	if err != nil {
		return err
	}

	if err := registry.Focus(h); err != nil {
		return explainError(h, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Focused 0x%x\n", uintptr(h))
	return nil
}

func runClose(cmd *cobra.Command, args []string) error {
	h, err := parseHandle(args[0])
	if err != nil {
		return err
	}
	registry, err := openRegistry()
	if err != nil {
		return err
	}

	registry.Close(h)
	fmt.Fprintf(cmd.OutOrStdout(), "Close requested for 0x%x\n", uintptr(h))
	return nil
}
