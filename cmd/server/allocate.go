package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/warp/capacity-engine/allocation"
	"github.com/warp/capacity-engine/factory"
)

func newAllocateCmd() *cobra.Command {
	var (
		file    string
		horizon int
	)

	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Compute a YAML plan and print the day assignments",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading plan: %w", err)
			}
			return runAllocate(cmd.OutOrStdout(), data, horizon)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Plan file (YAML)")
	cmd.Flags().IntVar(&horizon, "horizon", allocation.DefaultHorizon, "Days walked for open-ended allocations")
	cmd.MarkFlagRequired("file")

	return cmd
}

func runAllocate(w io.Writer, data []byte, horizon int) error {
	plan, err := factory.New().ParsePlanYAML(data)
	if err != nil {
		return err
	}

	allocator := allocation.NewAllocator()
	allocator.Horizon = horizon
	results, err := plan.Run(allocator)
	if err != nil {
		return err
	}

	for i, res := range results {
		item := plan.Items[i]
		label := item.Request.ResourceID
		if len(item.Shares) > 0 {
			label = fmt.Sprintf("%d resources", len(item.Shares))
		}
		if item.Request.TaskID != "" {
			label = item.Request.TaskID + " / " + label
		}
		fmt.Fprintf(w, "%s: %s -> %s, %s assigned", label, res.Start, res.End, res.Assigned)
		if !res.Satisfied {
			fmt.Fprintf(w, ", %s missing", res.Remaining)
		}
		fmt.Fprintln(w)

		printAssignments(w, res.Assignments)
		fmt.Fprintln(w)
	}
	return nil
}

func printAssignments(w io.Writer, assignments []allocation.DayAssignment) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  DATE\tRESOURCE\tDURATION\tHOURS")
	for _, a := range assignments {
		if a.Duration.IsZero() {
			continue
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", a.Date, a.ResourceID, a.Duration, a.Duration.ToHours().StringFixed(2))
	}
	tw.Flush()
}
