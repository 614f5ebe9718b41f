package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"letternest/internal/cli/scheme/colours"
	"letternest/internal/config"
	"letternest/internal/story/nest"
)

func main() {
	configPath := configFlag(os.Args[1:])

	settings, err := config.Load(configPath)
	if err != nil {
		colours.Error.Printf("❌ Error: %v\n", err)
		os.Exit(1)
	}
	settings.ConfigureLogging()

	app, err := nest.NewLetterNest(settings)
	if err != nil {
		colours.Error.Printf("❌ Error: %v\n", err)
		os.Exit(1)
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		app.Cancel()
		app.Close()
		fmt.Println("\n" + colours.Warning.Sprint("👋 Goodbye! See you next lesson! 🌈"))
		os.Exit(0)
	}()

	rootCmd := &cobra.Command{
		Use:   "letternest",
		Short: "🔤 Letter lessons for little learners",
		Long: `
┌─────────────────────────────────────┐
│  🔤 Welcome to LetterNest! 🐣       │
│  Learn your ABCs one lesson a time  │
│  Stories read aloud for kids ✨     │
└─────────────────────────────────────┘

LetterNest plays letter lessons: short stories read aloud with each word
lit up as it is spoken, and videos picked by your grown-ups. Earn a star for
every lesson you finish! ⭐
		`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			app.ShowWelcome()
		},
	}
	rootCmd.PersistentFlags().String("config", "", "Path to a letternest.yaml config file")

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "📋 List letter lessons",
		Long:  "Display the lessons available from the LetterNest backend",
		Args:  cobra.NoArgs,
		RunE:  app.ListTopics,
	}

	// Play command
	playCmd := &cobra.Command{
		Use:   "play [lesson-id]",
		Short: "▶️ Play a lesson",
		Long:  "Listen to a narrated lesson with a read-along highlight, or open its video",
		Args:  cobra.ExactArgs(1),
		RunE:  app.PlayTopic,
	}

	// Voices command
	voicesCmd := &cobra.Command{
		Use:   "voices",
		Short: "🎤 List narrator voices",
		Long:  "Show the voices the configured TTS backend offers",
		Args:  cobra.NoArgs,
		RunE:  app.ListVoices,
	}

	// Progress command
	progressCmd := &cobra.Command{
		Use:   "progress",
		Short: "⭐ Show your stars",
		Long:  "Show finished lessons on this computer and, when logged in, saved progress",
		Args:  cobra.NoArgs,
		RunE:  app.ShowProgress,
	}

	// Add flags
	listCmd.Flags().StringP("letter", "l", "", "Filter by letter")
	listCmd.Flags().StringP("theme", "t", "", "Filter by theme")
	listCmd.Flags().Bool("offline", false, "Use the built-in sample lessons")
	playCmd.Flags().StringP("voice", "v", "", "Narrator voice to use. See 'letternest voices' for options")
	playCmd.Flags().Bool("offline", false, "Use the built-in sample lessons")

	rootCmd.AddCommand(listCmd, playCmd, voicesCmd, progressCmd)
	app.AddCacheCommands(rootCmd)
	app.AddAdminCommands(rootCmd)

	err = rootCmd.Execute()
	app.Close()
	if err != nil {
		logrus.WithError(err).Debug("command failed")
		colours.Error.Printf("❌ Error: %v\n", err)
		os.Exit(1)
	}
}

// configFlag finds --config before cobra parses flags, since settings are
// needed to build the app the commands run against.
func configFlag(args []string) string {
	for i, a := range args {
		switch {
		case a == "--config" && i+1 < len(args):
			return args[i+1]
		case len(a) > len("--config=") && a[:len("--config=")] == "--config=":
			return a[len("--config="):]
		}
	}
	return ""
}
