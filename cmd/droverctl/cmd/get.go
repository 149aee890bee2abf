package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var errAgentRequired = errors.New("this command needs an agent endpoint, set one with --agent")

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the master's version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()
			info, err := masterClient().GetVersion(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("version: %s\n", info.Version)
			if info.GitSHA != "" {
				fmt.Printf("git sha: %s\n", info.GitSHA)
			}
			return nil
		},
	}
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the health of the master, or of an agent when --agent is set",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()

			var healthy bool
			var err error
			if config.Agent != "" {
				agent, agentErr := agentClient()
				if agentErr != nil {
					return agentErr
				}
				healthy, err = agent.GetHealth(ctx)
			} else {
				healthy, err = masterClient().GetHealth(ctx)
			}
			if err != nil {
				return err
			}
			if !healthy {
				return errors.New("daemon reports unhealthy")
			}
			fmt.Println("healthy")
			return nil
		},
	}
}

func metricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Print a snapshot of the master's metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()
			metrics, err := masterClient().GetMetrics(ctx, 0)
			if err != nil {
				return err
			}
			for _, metric := range metrics {
				if metric.Value != nil {
					fmt.Printf("%s %v\n", metric.Name, *metric.Value)
				} else {
					fmt.Println(metric.Name)
				}
			}
			return nil
		},
	}
}

func getCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Retrieve cluster state from the master",
	}
	cmd.AddCommand(
		getMasterCmd(),
		getFrameworksCmd(),
		getTasksCmd(),
		getAgentsCmd(),
		getRolesCmd(),
		getWeightsCmd(),
		getQuotaCmd(),
		getFlagsCmd(),
		getLoggingLevelCmd(),
	)
	return cmd
}

func getMasterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "master",
		Short: "Print the elected master",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()
			info, err := masterClient().GetMaster(ctx)
			if err != nil {
				return err
			}
			if info == nil {
				return errors.New("no master is currently elected")
			}
			fmt.Printf("%s:%d (id %s)\n", info.Hostname, info.Port, info.ID)
			return nil
		},
	}
}

func getFrameworksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "frameworks",
		Short: "List registered frameworks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()
			resp, err := masterClient().GetFrameworks(ctx)
			if err != nil {
				return err
			}
			for _, framework := range resp.Frameworks {
				state := "disconnected"
				if framework.Connected {
					state = "connected"
				}
				id := ""
				if framework.FrameworkInfo.ID != nil {
					id = framework.FrameworkInfo.ID.Value
				}
				fmt.Printf("%s\t%s\t%s\n", id, framework.FrameworkInfo.Name, state)
			}
			return nil
		},
	}
}

func getTasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List known tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()
			resp, err := masterClient().GetTasks(ctx)
			if err != nil {
				return err
			}
			for _, task := range resp.Tasks {
				fmt.Printf("%s\t%s\t%s\t%s\n", task.TaskID.Value, task.Name, task.State, task.AgentID.Value)
			}
			return nil
		},
	}
}

func getAgentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List registered agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()
			resp, err := masterClient().GetAgents(ctx)
			if err != nil {
				return err
			}
			for _, agent := range resp.Agents {
				state := "inactive"
				if agent.Active {
					state = "active"
				}
				id := ""
				if agent.AgentInfo.ID != nil {
					id = agent.AgentInfo.ID.Value
				}
				fmt.Printf("%s\t%s\t%s\n", id, agent.AgentInfo.Hostname, state)
			}
			return nil
		},
	}
}

func getRolesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roles",
		Short: "List known roles and their weights",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()
			roles, err := masterClient().GetRoles(ctx)
			if err != nil {
				return err
			}
			for _, role := range roles {
				fmt.Printf("%s\t%v\n", role.Name, role.Weight)
			}
			return nil
		},
	}
}

func getWeightsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weights",
		Short: "List role weights",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()
			weights, err := masterClient().GetWeights(ctx)
			if err != nil {
				return err
			}
			for _, weight := range weights {
				fmt.Printf("%s\t%v\n", weight.Role, weight.Weight)
			}
			return nil
		},
	}
}

func getQuotaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quota",
		Short: "List configured quota guarantees",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()
			infos, err := masterClient().GetQuota(ctx)
			if err != nil {
				return err
			}
			for _, info := range infos {
				fmt.Printf("%s\t%v\n", info.Role, info.Guarantee)
			}
			return nil
		},
	}
}

func getFlagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flags",
		Short: "Print the master's launch flags",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()
			flags, err := masterClient().GetFlags(ctx)
			if err != nil {
				return err
			}
			for _, flag := range flags {
				fmt.Printf("--%s=%s\n", flag.Name, flag.Value)
			}
			return nil
		},
	}
}

func getLoggingLevelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logging-level",
		Short: "Print the master's logging verbosity level",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()
			level, err := masterClient().GetLoggingLevel(ctx)
			if err != nil {
				return err
			}
			fmt.Println(level)
			return nil
		},
	}
}
