package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vedsharma/pingforge/internal/format"
	"github.com/vedsharma/pingforge/internal/mask"
)

func init() {
	maskCmd := &cobra.Command{
		Use:   "mask",
		Short: "Control how client IPs are shown",
		Long: `Control how client IPs are shown in capture output. Masking only
changes what is printed; exports and stored data keep the real address.`,
		Run: runMaskShow,
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the current masking setting",
		Run:   runMaskShow,
	}

	onCmd := &cobra.Command{
		Use:   "on",
		Short: "Enable IP masking",
		Run:   func(cmd *cobra.Command, args []string) { setMasking(true) },
	}

	offCmd := &cobra.Command{
		Use:   "off",
		Short: "Disable IP masking",
		Run:   func(cmd *cobra.Command, args []string) { setMasking(false) },
	}

	toggleCmd := &cobra.Command{
		Use:   "toggle",
		Short: "Switch IP masking on or off",
		Run:   runMaskToggle,
	}

	policyCmd := &cobra.Command{
		Use:       "policy <partial|last_octet|full|hash>",
		Short:     "Choose the masking policy",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"partial", "last_octet", "full", "hash"},
		Run:       runMaskPolicy,
	}

	testCmd := &cobra.Command{
		Use:   "test <ip>",
		Short: "Show how an address renders under every policy",
		Args:  cobra.ExactArgs(1),
		Run:   runMaskTest,
	}

	maskCmd.AddCommand(showCmd, onCmd, offCmd, toggleCmd, policyCmd, testCmd)
	rootCmd.AddCommand(maskCmd)
}

func runMaskShow(cmd *cobra.Command, args []string) {
	s := newMasker().Settings()
	state := "off"
	if s.Enabled {
		state = "on"
	}
	fmt.Printf("Masking: %s\nPolicy:  %s\n", state, s.Policy)
}

func setMasking(enabled bool) {
	exitOnError("Failed to save masking setting", newMasker().SetEnabled(enabled))
	setMaskingMessage(enabled)
}

func setMaskingMessage(enabled bool) {
	if enabled {
		format.PrintSuccess("IP masking enabled")
		return
	}
	format.PrintSuccess("IP masking disabled")
}

func runMaskToggle(cmd *cobra.Command, args []string) {
	m := newMasker()
	exitOnError("Failed to save masking setting", m.Toggle())
	setMaskingMessage(m.Settings().Enabled)
}

func runMaskPolicy(cmd *cobra.Command, args []string) {
	p, err := mask.ParsePolicy(args[0])
	exitOnError("Invalid policy", err)
	exitOnError("Failed to save masking setting", newMasker().SetPolicy(p))
	format.PrintSuccess(fmt.Sprintf("Masking policy set to %s", p))
}

func runMaskTest(cmd *cobra.Command, args []string) {
	current := newMasker().Settings().Policy
	for _, p := range mask.Policies {
		marker := " "
		if p == current {
			marker = "*"
		}
		fmt.Printf("%s %-10s %s\n", marker, p, mask.Mask(args[0], p, true))
	}
}
