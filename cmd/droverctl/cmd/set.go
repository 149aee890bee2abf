package cmd

import (
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/droverproject/drover/pkg/api"
	"github.com/droverproject/drover/pkg/operator"
)

func setCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change cluster settings through the master",
	}
	cmd.AddCommand(
		setLoggingLevelCmd(),
		setWeightCmd(),
		setQuotaCmd(),
		removeQuotaCmd(),
		markAgentGoneCmd(),
	)
	return cmd
}

func setLoggingLevelCmd() *cobra.Command {
	var duration time.Duration
	cmd := &cobra.Command{
		Use:   "logging-level <level>",
		Short: "Raise the master's logging verbosity for a limited duration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext()
			defer cancel()
			if err := masterClient().SetLoggingLevel(ctx, uint32(level), duration); err != nil {
				return err
			}
			log.Infof("Logging level set to %d for %s", level, duration)
			return nil
		},
	}
	cmd.Flags().DurationVar(&duration, "duration", time.Minute, "how long the level stays raised")
	return cmd
}

func setWeightCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weight <role> <weight>",
		Short: "Update the allocation weight of a role",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			weight, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext()
			defer cancel()
			weights := []operator.WeightInfo{{Role: args[0], Weight: weight}}
			if err := masterClient().UpdateWeights(ctx, weights); err != nil {
				return err
			}
			log.Infof("Weight for role %s set to %v", args[0], weight)
			return nil
		},
	}
}

func setQuotaCmd() *cobra.Command {
	var cpus float64
	var mem float64
	var force bool
	cmd := &cobra.Command{
		Use:   "quota <role>",
		Short: "Set a resource quota guarantee for a role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()
			request := operator.QuotaRequest{
				Role:  args[0],
				Force: force,
			}
			if cpus > 0 {
				request.Guarantee = append(request.Guarantee, api.ScalarResource("cpus", cpus))
			}
			if mem > 0 {
				request.Guarantee = append(request.Guarantee, api.ScalarResource("mem", mem))
			}
			if err := masterClient().SetQuota(ctx, request); err != nil {
				return err
			}
			log.Infof("Quota set for role %s", args[0])
			return nil
		},
	}
	cmd.Flags().Float64Var(&cpus, "cpus", 0, "guaranteed cpus")
	cmd.Flags().Float64Var(&mem, "mem", 0, "guaranteed memory in MB")
	cmd.Flags().BoolVar(&force, "force", false, "set the quota even if it exceeds current capacity")
	return cmd
}

func removeQuotaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "no-quota <role>",
		Short: "Remove the quota guarantee of a role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()
			if err := masterClient().RemoveQuota(ctx, args[0]); err != nil {
				return err
			}
			log.Infof("Quota removed for role %s", args[0])
			return nil
		},
	}
}

func markAgentGoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agent-gone <agent-id>",
		Short: "Mark an unreachable agent as permanently gone",
		Long: "Mark an unreachable agent as permanently gone. Tasks on the agent " +
			"transition to a gone state and frameworks are notified. This cannot be undone.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()
			if err := masterClient().MarkAgentGone(ctx, api.AgentID{Value: args[0]}); err != nil {
				return err
			}
			log.Infof("Agent %s marked gone", args[0])
			return nil
		},
	}
}
