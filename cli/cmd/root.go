package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

const (
	serverURLKey = "server_url"
	logLevelKey  = "log_level"
	coloursKey   = "colours"
)

var rootCmd = &cobra.Command{
	Use:   "stream-signal",
	Short: "Console client for the stream signaling server.",
	Long: `Host or join a stream on a signaling server, chat with its members
and negotiate direct peer connections with them.`,
	SilenceUsage: true,
}

// Execute runs the root command until it returns or the process is
// interrupted. Called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.stream-signal.yaml)")
	rootCmd.PersistentFlags().String("server", "ws://localhost:3001/ws", "websocket URL of the signaling server")
	rootCmd.PersistentFlags().String("log-level", "WARN", "client log level")
	rootCmd.PersistentFlags().Bool("colours", true, "colourise output")

	_ = viper.BindPFlag(serverURLKey, rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag(logLevelKey, rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag(coloursKey, rootCmd.PersistentFlags().Lookup("colours"))
}

// initConfig reads the config file and STREAM_SIGNAL_* environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".stream-signal")
	}

	viper.SetEnvPrefix("STREAM_SIGNAL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintln(os.Stderr, "Error reading config file:", err)
		}
	}
}
