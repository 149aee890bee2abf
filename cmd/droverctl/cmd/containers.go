package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func containersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "containers",
		Short: "List containers running on an agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			agent, err := agentClient()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext()
			defer cancel()
			containers, err := agent.GetContainers(ctx)
			if err != nil {
				return err
			}
			for _, container := range containers {
				executor := container.ExecutorName
				if executor == "" && container.ExecutorID != nil {
					executor = container.ExecutorID.Value
				}
				fmt.Printf("%s\t%s\n", container.ContainerID.Value, executor)
			}
			return nil
		},
	}
}

func pruneImagesCmd() *cobra.Command {
	var exclude []string
	cmd := &cobra.Command{
		Use:   "prune-images",
		Short: "Remove unused container images from an agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			agent, err := agentClient()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext()
			defer cancel()
			if err := agent.PruneImages(ctx, exclude); err != nil {
				return err
			}
			log.Info("Image pruning triggered")
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "images to keep even if unused")
	return cmd
}
