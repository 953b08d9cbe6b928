package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/antonkuzmin/adminctl/internal/client/cli"
	"github.com/antonkuzmin/adminctl/internal/client/config"
	"github.com/antonkuzmin/adminctl/internal/logging"
)

var cfgFile string
var debug bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "adminctl",
	Short: "Interactive console for the admin backend",
	Long: `adminctl is an interactive console for managing companies, users,
admins, owners, notes and files on the admin backend.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		level := zerolog.InfoLevel
		if debug {
			level = zerolog.DebugLevel
		}
		log := logging.NewZerologLogger(os.Stderr, level)

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		app, err := cli.NewApp(cfg, log)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app.Run(ctx)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is built-in defaults plus ADMINCTL_* env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}
