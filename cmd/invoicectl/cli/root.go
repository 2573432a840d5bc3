// Package cli builds the invoicectl operator commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/invoicer/invoicer/internal/templates"
	"github.com/invoicer/invoicer/jobs"
)

// JobRunner is the queue surface the jobs commands need.
type JobRunner interface {
	Trigger(ctx context.Context, name string, opts TriggerOptions) (*asynq.TaskInfo, error)
	InspectQueue(ctx context.Context) (jobs.QueueHealth, error)
}

// Deps resolves runtime services lazily so that --help never dials a database.
type Deps struct {
	Migrate func(ctx context.Context) ([]string, error)
	Seed    func(ctx context.Context) (templates.SeedResult, error)
	Jobs    func() (JobRunner, error)
}

// NewRootCommand assembles the command tree.
func NewRootCommand(deps Deps) *cobra.Command {
	root := &cobra.Command{
		Use:           "invoicectl",
		Short:         "Operate an invoicer deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(migrateCmd(deps), seedCmd(deps), jobsCmd(deps))
	return root
}

func migrateCmd(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			applied, err := deps.Migrate(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(applied) == 0 {
				fmt.Fprintln(out, "schema up to date")
				return nil
			}
			for _, name := range applied {
				fmt.Fprintf(out, "applied %s\n", name)
			}
			return nil
		},
	}
}

func seedCmd(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-templates",
		Short: "Install the system invoice templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := deps.Seed(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d inserted)\n", res.Message, res.Count)
			return nil
		},
	}
}

func jobsCmd(deps Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and trigger background jobs",
	}

	var opts TriggerOptions
	trigger := &cobra.Command{
		Use:       "trigger <task-type>",
		Short:     "Enqueue a job now",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{jobs.TaskAnalyticsWarmup, jobs.TaskLogoDelete},
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := deps.Jobs()
			if err != nil {
				return err
			}
			info, err := runner.Trigger(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
			return nil
		},
	}
	trigger.Flags().StringSliceVar(&opts.UserIDs, "user", nil, "limit analytics warmup to these user ids")
	trigger.Flags().StringVar(&opts.Key, "key", "", "object key for storage:logo_delete")

	var asJSON bool
	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show default queue counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner, err := deps.Jobs()
			if err != nil {
				return err
			}
			health, err := runner.InspectQueue(cmd.Context())
			if err != nil {
				return err
			}
			return printStats(cmd.OutOrStdout(), health, asJSON)
		},
	}
	stats.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	cmd.AddCommand(trigger, stats)
	return cmd
}

func printStats(w io.Writer, h jobs.QueueHealth, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(h)
	}
	_, err := fmt.Fprintf(w, "queue=%s pending=%d active=%d retry=%d archived=%d processed=%d failed=%d\n",
		h.Queue, h.Pending, h.Active, h.Retry, h.Archived, h.Processed, h.Failed)
	return err
}
