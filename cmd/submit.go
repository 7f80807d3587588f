package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/urbanika/leadsync/internal/lead"
)

var (
	submitFirstName string
	submitLastName  string
	submitEmail     string
	submitPhone     string
	submitMessage   string
	submitInquiry   string
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a single lead to the CRM",
	Long: `Maps the given fields through the general-contact form mapper and runs
the full submission: contact creation, stage resolution, opportunity creation.
Useful for verifying credentials and pipeline configuration.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initLead(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		req, v := env.Mapper.MapGeneralContact(lead.GeneralContactForm{
			FirstName:   submitFirstName,
			LastName:    submitLastName,
			Email:       submitEmail,
			Phone:       submitPhone,
			Message:     submitMessage,
			InquiryType: submitInquiry,
		})
		if !v.Valid {
			return eris.Errorf("invalid lead: %v", v.Errors)
		}

		result, err := env.Orchestrator.Submit(ctx, req)
		if err != nil {
			return eris.Wrap(err, "submit lead")
		}

		zap.L().Info("lead submitted",
			zap.String("contact_id", result.Contact.ID),
			zap.String("opportunity_id", result.Opportunity.ID),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	submitCmd.Flags().StringVar(&submitFirstName, "first-name", "", "lead first name (required)")
	submitCmd.Flags().StringVar(&submitLastName, "last-name", "", "lead last name (required)")
	submitCmd.Flags().StringVar(&submitEmail, "email", "", "lead email (required)")
	submitCmd.Flags().StringVar(&submitPhone, "phone", "", "lead phone")
	submitCmd.Flags().StringVar(&submitMessage, "message", "", "lead message (required)")
	submitCmd.Flags().StringVar(&submitInquiry, "inquiry", "otro", "inquiry type (comprar|vender|arrendar|inversion|propiedad|otro)")
	_ = submitCmd.MarkFlagRequired("first-name")
	_ = submitCmd.MarkFlagRequired("last-name")
	_ = submitCmd.MarkFlagRequired("email")
	_ = submitCmd.MarkFlagRequired("message")
	rootCmd.AddCommand(submitCmd)
}
