package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the gigacal application
var rootCmd = &cobra.Command{
	Use:   "gigacal",
	Short: "Telegram bot that turns voice messages into Google Calendar events",
	Long: `gigacal is a Telegram bot that listens for voice and text messages,
transcribes and parses them with GigaChat, and creates the described
events in the user's Google Calendar.

Each user connects their own calendar through an OAuth flow started
from the bot's /start keyboard.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "gigacal version %s\n" .Version}}`)

	// If no subcommand is provided, run the bot by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "run")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newVersionCmd())
}
