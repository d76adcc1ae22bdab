package main

import (
	"github.com/hupe1980/automesh/config"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "automesh",
	Short: "Rule-based automation engine for customer messaging",
	Long: `automesh reacts to conversation events with configurable automation
rules: when an event matches a rule's trigger and conditions, the rule's
actions run in order (send messages, tag contacts, create tasks, call
webhooks, escalate to a human, and more).

Run 'automesh serve' to start the engine with its HTTP admin API, then
manage rules and emit events through the API or with 'automesh emit'.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the YAML configuration file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(emitCmd)
}
