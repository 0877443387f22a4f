package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"keyword-research-go/internal/config"
)

var configPath string

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "keyword-research",
		Short:         "Keyword research from a seed topic",
		Long:          "Generates seed keywords for a topic, fetches search metrics and SERPs, clusters the keywords and writes a prioritised report.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addGlobalFlags(root)

	root.AddCommand(newAnalyzeCommand())
	root.AddCommand(newCredentialsCommand())
	root.AddCommand(NewServeCommand())
	return root
}

// Execute runs the root command.
func Execute() error {
	err := NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	return err
}

func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "configuration file (YAML); environment variables use the KWR_ prefix")
	cmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
}

// loadConfig binds the given command flags onto their config keys and loads the configuration.
func loadConfig(cmd *cobra.Command, bindings map[string]string) (config.Manager, *config.Config, error) {
	m := config.NewManager()

	bindings["logger.level"] = "log-level"
	for key, name := range bindings {
		flag := cmd.Flags().Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := m.BindFlag(key, flag); err != nil {
			return nil, nil, err
		}
	}

	cfg, err := m.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	return m, cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
