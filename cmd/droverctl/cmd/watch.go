package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/droverproject/drover/internal/common"
	"github.com/droverproject/drover/pkg/api"
	"github.com/droverproject/drover/pkg/operator"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream cluster events from the master until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Event lines from a long-running watch carry timestamps.
			common.ConfigureLogging()

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-stop
				cancel()
			}()

			err := masterClient().Subscribe(ctx, eventPrinter{})
			if err == context.Canceled {
				return nil
			}
			return err
		},
	}
}

type eventPrinter struct {
	operator.NopMaster
}

func (eventPrinter) TaskAdded(task operator.Task) {
	log.Infof("task added: %s (%s) on agent %s", task.TaskID.Value, task.State, task.AgentID.Value)
}

func (eventPrinter) TaskUpdated(frameworkID api.FrameworkID, status api.TaskStatus) {
	log.Infof("task updated: %s -> %s (framework %s)", status.TaskID.Value, status.State, frameworkID.Value)
}

func (eventPrinter) FrameworkAdded(framework operator.Framework) {
	log.Infof("framework added: %s", framework.FrameworkInfo.Name)
}

func (eventPrinter) FrameworkUpdated(framework operator.Framework) {
	log.Infof("framework updated: %s", framework.FrameworkInfo.Name)
}

func (eventPrinter) FrameworkRemoved(frameworkInfo api.FrameworkInfo) {
	log.Infof("framework removed: %s", frameworkInfo.Name)
}

func (eventPrinter) AgentAdded(agent operator.Agent) {
	log.Infof("agent added: %s", agent.AgentInfo.Hostname)
}

func (eventPrinter) AgentRemoved(agentID api.AgentID) {
	log.Infof("agent removed: %s", agentID.Value)
}
