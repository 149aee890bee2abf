package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/droverproject/drover/pkg/operator"
)

func filesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Browse files exposed by a daemon, e.g. logs and task sandboxes",
	}
	cmd.AddCommand(listFilesCmd(), readFileCmd())
	return cmd
}

func listFilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <path>",
		Short: "List files under a daemon-exposed path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()

			var files []operator.FileInfo
			var err error
			if config.Agent != "" {
				agent, agentErr := agentClient()
				if agentErr != nil {
					return agentErr
				}
				files, err = agent.ListFiles(ctx, args[0])
			} else {
				files, err = masterClient().ListFiles(ctx, args[0])
			}
			if err != nil {
				return err
			}
			for _, file := range files {
				fmt.Printf("%10d  %s\n", file.Size, file.Path)
			}
			return nil
		},
	}
}

func readFileCmd() *cobra.Command {
	var offset uint64
	var length uint64
	cmd := &cobra.Command{
		Use:   "read <path>",
		Short: "Read a daemon-exposed file to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()

			var lengthArg *uint64
			if length > 0 {
				lengthArg = &length
			}
			var resp *operator.ReadFileResponse
			var err error
			if config.Agent != "" {
				agent, agentErr := agentClient()
				if agentErr != nil {
					return agentErr
				}
				resp, err = agent.ReadFile(ctx, args[0], offset, lengthArg)
			} else {
				resp, err = masterClient().ReadFile(ctx, args[0], offset, lengthArg)
			}
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(resp.Data)
			return err
		},
	}
	cmd.Flags().Uint64Var(&offset, "offset", 0, "byte offset to read from")
	cmd.Flags().Uint64Var(&length, "length", 0, "maximum bytes to read, 0 for the daemon default")
	return cmd
}
