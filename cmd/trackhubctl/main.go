// Command trackhubctl runs maintenance tasks against the TrackHub stores.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mansoorceksport/trackhub/internal/bootstrap"
	"github.com/mansoorceksport/trackhub/internal/config"
	"github.com/mansoorceksport/trackhub/internal/domain"
	"github.com/mansoorceksport/trackhub/internal/jobs"
	"github.com/mansoorceksport/trackhub/internal/server"
	"github.com/mansoorceksport/trackhub/internal/telemetry"
	"github.com/spf13/cobra"
)

// env is what every subcommand needs once the stores are connected
type env struct {
	cfg   *config.Config
	infra *bootstrap.Infra
	svc   *server.Services
	jobs  *jobs.Scheduler
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "trackhubctl",
		Short:         "Maintenance commands for TrackHub",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(seedCmd(), recalcCmd(), purgeCmd(), limitsCmd())
	return root
}

// withEnv connects to the stores, runs fn and disconnects
func withEnv(cmd *cobra.Command, fn func(ctx context.Context, e *env) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := telemetry.NewLogger(cfg.Log.Level, "text")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	infra, err := bootstrap.Connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer infra.Close(context.Background())

	svc := server.NewServices(infra.Deps)
	scheduler, err := jobs.NewScheduler(cfg.Jobs, jobs.Tasks{
		Experience: svc.Experiences,
		Tokens:     svc.Tokens,
		Orphans:    svc.Exercises,
		Ratings:    svc.Reviews,
	}, logger)
	if err != nil {
		return err
	}
	return fn(ctx, &env{cfg: cfg, infra: infra, svc: svc, jobs: scheduler})
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the default exercise categories and gym equipment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				categories, equipment, err := e.svc.Exercises.SeedCatalog(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d categories, %d gym equipment\n", categories, equipment)
				return nil
			})
		},
	}
}

func recalcCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recalc",
		Short: "Recompute derived aggregates",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "experience",
		Short: "Recompute whole experience of every trainer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				n, err := e.svc.Experiences.RecalculateAll(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "recalculated %d trainers\n", n)
				return nil
			})
		},
	}, &cobra.Command{
		Use:   "ratings",
		Short: "Recompute the rating of every user from reviews",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				return e.jobs.Run(ctx, jobs.RatingRefresh)
			})
		},
	})
	return cmd
}

func purgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Remove stale records",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "tokens",
		Short: "Delete expired refresh tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				return e.jobs.Run(ctx, jobs.TokenPurge)
			})
		},
	}, &cobra.Command{
		Use:   "orphans",
		Short: "Delete exercises without an owner that nobody can reach",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				return e.jobs.Run(ctx, jobs.OrphanPurge)
			})
		},
	})
	return cmd
}

func limitsCmd() *cobra.Command {
	var workouts, exercises, plans int

	cmd := &cobra.Command{
		Use:   "limits <user-id>",
		Short: "Show or change the content limits of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, func(ctx context.Context, e *env) error {
				userID := args[0]
				current, err := e.svc.Limits.Limits(ctx, userID)
				if err != nil {
					return err
				}

				changed := false
				if cmd.Flags().Changed("workouts") {
					current.Workouts, changed = workouts, true
				}
				if cmd.Flags().Changed("exercises") {
					current.Exercises, changed = exercises, true
				}
				if cmd.Flags().Changed("plans") {
					current.Plans, changed = plans, true
				}
				if changed {
					current.UserID = userID
					if err := e.svc.Limits.Set(ctx, current); err != nil {
						return err
					}
				}

				report, err := e.svc.Limits.Report(ctx, userID)
				if err != nil {
					return err
				}
				printLimits(cmd, report.Limits, report.Usage)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&workouts, "workouts", 0, "maximum number of workouts")
	cmd.Flags().IntVar(&exercises, "exercises", 0, "maximum number of exercises")
	cmd.Flags().IntVar(&plans, "plans", 0, "maximum number of weekly plans")
	return cmd
}

func printLimits(cmd *cobra.Command, limits domain.FitnessLimits, usage domain.FitnessUsage) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "workouts:  %d / %d\n", usage.Workouts, limits.Workouts)
	fmt.Fprintf(out, "exercises: %d / %d\n", usage.Exercises, limits.Exercises)
	fmt.Fprintf(out, "plans:     %d / %d\n", usage.Plans, limits.Plans)
}
