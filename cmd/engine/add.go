package main

import (
	"errors"
	"fmt"
	"strconv"

	"jobportal-engine/internal/listing"

	"github.com/spf13/cobra"
)

var manualInput listing.ManualInput

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a job by hand",
	Long:  `Store a manually entered posting under source "manual". Adding the same posting again updates it.`,
	RunE:  runAdd,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored job by id",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	addCmd.Flags().StringVar(&manualInput.Title, "title", "", "job title (required)")
	addCmd.Flags().StringVar(&manualInput.Company, "company", "", "company (required)")
	addCmd.Flags().StringVar(&manualInput.Location, "location", "", "location (required)")
	addCmd.Flags().StringVar(&manualInput.Description, "description", "", "description, text or HTML")
	addCmd.Flags().StringVar(&manualInput.ApplyURL, "apply-url", "", "application link")

	rootCmd.AddCommand(addCmd, deleteCmd)
}

func runAdd(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	job, err := newListing(a).AddManual(cmd.Context(), manualInput)
	var ve *listing.ValidationError
	if errors.As(err, &ve) {
		for _, f := range ve.Fields {
			fmt.Fprintf(cmd.ErrOrStderr(), "  --%s: %s\n", flagName(f.Field), f.Rule)
		}
		return err
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "stored job %d (%s:%s)\n", job.ID, job.Source, job.SourceJobID)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid id %q", args[0])
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := newListing(a).Delete(cmd.Context(), id); err != nil {
		return fmt.Errorf("delete job %d: %w", id, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted job %d\n", id)
	return nil
}

func flagName(field string) string {
	if field == "apply_url" {
		return "apply-url"
	}
	return field
}
