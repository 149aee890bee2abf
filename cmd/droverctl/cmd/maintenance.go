package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/droverproject/drover/pkg/operator"
)

func maintenanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maintenance",
		Short: "Inspect and control machine maintenance",
	}
	cmd.AddCommand(
		maintenanceStatusCmd(),
		maintenanceScheduleCmd(),
		maintenanceStartCmd(),
		maintenanceStopCmd(),
	)
	return cmd
}

func maintenanceStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show machines that are draining or down",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()
			status, err := masterClient().GetMaintenanceStatus(ctx)
			if err != nil {
				return err
			}
			for _, machine := range status.Status.DrainingMachines {
				fmt.Printf("%s\tdraining\n", machine.ID.Hostname)
			}
			for _, machine := range status.Status.DownMachines {
				fmt.Printf("%s\tdown\n", machine.Hostname)
			}
			return nil
		},
	}
}

func maintenanceScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Show the configured maintenance windows",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()
			schedule, err := masterClient().GetMaintenanceSchedule(ctx)
			if err != nil {
				return err
			}
			for i, window := range schedule.Windows {
				fmt.Printf("window %d:\n", i)
				for _, machine := range window.MachineIDs {
					fmt.Printf("  %s %s\n", machine.Hostname, machine.IP)
				}
			}
			return nil
		},
	}
}

func maintenanceStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <hostname>...",
		Short: "Bring scheduled machines down for maintenance",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()
			if err := masterClient().StartMaintenance(ctx, machineIDs(args)); err != nil {
				return err
			}
			log.Infof("Maintenance started on %d machines", len(args))
			return nil
		},
	}
}

func maintenanceStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <hostname>...",
		Short: "Bring machines back up from maintenance",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext()
			defer cancel()
			if err := masterClient().StopMaintenance(ctx, machineIDs(args)); err != nil {
				return err
			}
			log.Infof("Maintenance stopped on %d machines", len(args))
			return nil
		},
	}
}

func machineIDs(hostnames []string) []operator.MachineID {
	machines := make([]operator.MachineID, 0, len(hostnames))
	for _, hostname := range hostnames {
		machines = append(machines, operator.MachineID{Hostname: hostname})
	}
	return machines
}
