package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"postshare/internal/repository"
	"postshare/internal/service"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var errGraphInconsistent = errors.New("follow graph has inconsistencies")

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Inspect and repair the follow graph",
}

var graphCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Report asymmetric or dangling follow edges without writing",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := connect()
		if err != nil {
			return err
		}
		return runGraphCheck(cmd.Context(), db, cmd.OutOrStdout())
	},
}

var graphReconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Rebuild every followers list from the following lists",
	Long: `Rebuild every followers list from the following lists.

Following lists are authoritative. Self references, duplicates and ids of
deleted users are removed from both sides.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := connect()
		if err != nil {
			return err
		}
		return runGraphReconcile(cmd.Context(), db, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.AddCommand(graphCheckCmd, graphReconcileCmd)
}

func graphService(db *gorm.DB) *service.SocialGraphService {
	return service.NewSocialGraphService(repository.NewUserRepository(db))
}

func runGraphCheck(ctx context.Context, db *gorm.DB, w io.Writer) error {
	report, err := graphService(db).CheckGraph(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		if err := printJSON(w, report); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintf(w, "Scanned %d users, %d issues\n", report.UsersScanned, len(report.Issues))
		for _, issue := range report.Issues {
			_, _ = fmt.Fprintf(w, "  %-16s user=%d other=%d\n", issue.Kind, issue.UserID, issue.OtherID)
		}
	}

	if len(report.Issues) > 0 {
		return errGraphInconsistent
	}
	return nil
}

func runGraphReconcile(ctx context.Context, db *gorm.DB, w io.Writer) error {
	report, err := graphService(db).ReconcileFollowers(ctx)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(w, report)
	}
	_, err = fmt.Fprintf(w, "Scanned %d users, repaired %d %v\n", report.UsersScanned, report.UsersRepaired, report.Repaired)
	return err
}
