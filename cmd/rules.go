package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vedsharma/pingforge/internal/format"
	"github.com/vedsharma/pingforge/internal/model"
)

var (
	ruleCondition  string
	ruleOperator   string
	ruleValue      string
	ruleRecipients []string
	ruleCooldown   int
)

// addRuleCommands registers "session rules" under sessionCmd.
func addRuleCommands(sessionCmd *cobra.Command) {
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage email notification rules of a session",
	}

	listCmd := &cobra.Command{
		Use:   "list <session>",
		Short: "List notification rules of a session",
		Args:  cobra.ExactArgs(1),
		Run:   runRulesList,
	}

	createCmd := &cobra.Command{
		Use:   "create <session> <name>",
		Short: "Email recipients when a captured request matches a condition",
		Long: `Email recipients when a captured request matches a condition.

Conditions and their operators:
` + conditionHelp() + `
Example:
  pingforge session rules create a1b2c3d4 "server errors" \
    --condition status_code --operator greater_than --value 499 --email ops@example.com`,
		Args: cobra.ExactArgs(2),
		Run:  runRulesCreate,
	}
	createCmd.Flags().StringVar(&ruleCondition, "condition", "status_code", "What to match on")
	createCmd.Flags().StringVar(&ruleOperator, "operator", "equals", "How to compare")
	createCmd.Flags().StringVar(&ruleValue, "value", "", "Value to compare against")
	createCmd.Flags().StringArrayVar(&ruleRecipients, "email", nil, "Recipient address (can be used multiple times)")
	createCmd.Flags().IntVar(&ruleCooldown, "cooldown", model.DefaultCooldownMinutes, "Minutes to stay quiet after an alert")

	deleteCmd := &cobra.Command{
		Use:   "delete <rule-id>",
		Short: "Delete a notification rule",
		Args:  cobra.ExactArgs(1),
		Run:   runRulesDelete,
	}

	rulesCmd.AddCommand(listCmd, createCmd, deleteCmd)
	sessionCmd.AddCommand(rulesCmd)
}

func conditionHelp() string {
	var b strings.Builder
	for _, c := range model.RuleOperators {
		fmt.Fprintf(&b, "  %-16s %s\n", c.Condition, strings.Join(c.Operators, ", "))
	}
	return b.String()
}

// ruleFromFlags builds and checks the rule described by the create flags.
func ruleFromFlags(sessionID, name string) (model.NotificationRule, error) {
	rule := model.NotificationRule{
		SessionID:       strings.TrimSpace(sessionID),
		Name:            name,
		Condition:       ruleCondition,
		Operator:        ruleOperator,
		Value:           ruleValue,
		EmailRecipients: ruleRecipients,
		CooldownMinutes: ruleCooldown,
	}
	rule.Normalize()
	return rule, rule.Validate()
}

func runRulesList(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()

	rules, err := newBackend().ListRules(ctx, args[0])
	exitOnError("Failed to list notification rules", err)
	format.PrintRules(os.Stdout, rules)
}

func runRulesCreate(cmd *cobra.Command, args []string) {
	rule, err := ruleFromFlags(args[0], args[1])
	exitOnError("Invalid rule", err)

	ctx, cancel := signalContext()
	defer cancel()

	created, err := newBackend().CreateRule(ctx, rule)
	exitOnError("Failed to create notification rule", err)
	format.PrintSuccess(fmt.Sprintf("Rule '%s' created (%s)", created.Name, created.ID))
}

func runRulesDelete(cmd *cobra.Command, args []string) {
	ctx, cancel := signalContext()
	defer cancel()

	exitOnError("Failed to delete notification rule", newBackend().DeleteRule(ctx, args[0]))
	format.PrintSuccess(fmt.Sprintf("Rule '%s' deleted", args[0]))
}
