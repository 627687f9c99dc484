package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quran-tui/internal/config"
	"quran-tui/internal/logger"
)

var (
	// Global flags
	cfgPath string
	verbose bool

	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "quran-tui",
	Short: "Read and listen to the Qur'an in the terminal",
	Long: `quran-tui is a terminal reader for the Qur'an backed by the equran.id API.

Run without arguments to start the interactive reader: browse the 114 surah,
read verses with transliteration and translation, play recitations per verse
or per surah, and open the tafsir for any verse.

The subcommands print the same data for scripts.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}

		// The interactive reader owns the terminal, so it only logs to a file.
		if cmd == cmd.Root() {
			log, err = logger.ForTUI(cfg, verbose)
		} else {
			log, err = logger.New(cfg, verbose)
		}
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
	RunE: runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ./config/config.yaml or $XDG_CONFIG_HOME/quran-tui/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.Flags().IntVar(&startChapter, "chapter", 0, "open this surah on start")
	rootCmd.Flags().BoolVar(&resume, "resume", false, "reopen the last surah read")

	listCmd.Flags().BoolVar(&listJSON, "json", false, "print JSON")
	readCmd.Flags().IntVar(&readVerse, "verse", 0, "print only this verse")
	readCmd.Flags().BoolVar(&readNoLatin, "no-latin", false, "omit the transliteration")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "maximum results (default from config)")
	downloadCmd.Flags().BoolVar(&downloadForce, "force", false, "download chapters that are already cached")
	downloadCmd.Flags().BoolVar(&downloadClear, "clear", false, "remove the offline cache instead of filling it")

	rootCmd.AddCommand(listCmd, readCmd, tafsirCmd, searchCmd, downloadCmd, verifyCmd)
}

// signalContext is cancelled on interrupt so long fan-outs stop cleanly.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
