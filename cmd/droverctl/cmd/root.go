package cmd

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/droverproject/drover/internal/common"
	"github.com/droverproject/drover/pkg/operator"
)

// connectionConfig holds how droverctl reaches the cluster. Values come from
// a .droverctl config file in the user's home directory, DROVER_ environment
// variables and command line flags, in ascending order of precedence.
type connectionConfig struct {
	Master  string
	Agent   string
	Timeout time.Duration
}

var config connectionConfig

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "droverctl",
		Short: "droverctl inspects and administers a cluster through its operator API.",
	}

	cmd.PersistentFlags().String("master", "http://localhost:5050", "master operator endpoint url")
	cmd.PersistentFlags().String("agent", "", "agent operator endpoint url, for agent-scoped commands")
	cmd.PersistentFlags().Duration("timeout", 30*time.Second, "request timeout")

	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		common.BindCommandlineArguments(cmd.PersistentFlags())
		common.LoadConfig(&config, ".droverctl", configDir())
	}

	cmd.AddCommand(
		versionCmd(),
		healthCmd(),
		metricsCmd(),
		getCmd(),
		setCmd(),
		filesCmd(),
		containersCmd(),
		pruneImagesCmd(),
		maintenanceCmd(),
		watchCmd(),
	)

	return cmd
}

func configDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

func masterClient() *operator.MasterClient {
	return operator.NewMasterClient(operator.ClientConfig{
		URL:            config.Master,
		RequestTimeout: config.Timeout,
	})
}

func agentClient() (*operator.AgentClient, error) {
	if config.Agent == "" {
		return nil, errAgentRequired
	}
	return operator.NewAgentClient(operator.ClientConfig{
		URL:            config.Agent,
		RequestTimeout: config.Timeout,
	}), nil
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), config.Timeout)
}
