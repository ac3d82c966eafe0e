package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"invoicedesk/internal/client"
	"invoicedesk/internal/draft"

	"github.com/spf13/cobra"
)

var errSubmitFailed = errors.New("submission failed")

// printer shows controller notifications and the navigation target.
type printer struct {
	a      *app
	apiURL string
}

func (p *printer) Success(message string) { p.a.printf("OK: %s\n", message) }
func (p *printer) Failure(message string) { p.a.printf("ERROR: %s\n", message) }

func (p *printer) Navigate(path string) {
	p.a.printf("-> %s%s\n", strings.TrimSuffix(p.apiURL, "/api"), path)
}

func newSubmitCommand(a *app) *cobra.Command {
	var keep bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "submit FILE",
		Short: "Validate and submit the draft",
		Long: `submit validates the draft and sends it to POST /invoices. On success the
draft file is removed (unless --keep) and the invoice link is printed. On any
failure the file is left exactly as it was.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			d, err := loadDraft(path)
			if err != nil {
				return err
			}

			api, cfg, err := a.client()
			if err != nil {
				return err
			}

			p := &printer{a: a, apiURL: cfg.APIURL}
			ctrl := draft.NewController(d, api, p, p)

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			res, err := ctrl.Submit(ctx)
			if err != nil {
				return err
			}

			switch res.State {
			case draft.StateSucceeded:
				if !keep {
					if err := os.Remove(path); err != nil {
						return fmt.Errorf("invoice %s created but the draft could not be removed: %w", res.ID, err)
					}
				}
				return nil
			case draft.StateIdle:
				if len(res.Errors) > 0 {
					printErrors(a, res.Errors)
					return errDraftInvalid
				}
				return errSubmitFailed
			default:
				return fmt.Errorf("unexpected state %s", res.State)
			}
		},
	}
	cmd.Flags().BoolVar(&keep, "keep", false, "keep the draft file after a successful submit")
	cmd.Flags().DurationVar(&timeout, "timeout", client.DefaultTimeout, "request timeout")
	return cmd
}

func newCompaniesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "companies",
		Short: "List the companies you can invoice for",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, cfg, err := a.client()
			if err != nil {
				return err
			}

			companies := client.NewCompanySource(api, cfg.Retries, cfg.RetryBackoff).Load(cmd.Context())
			if len(companies) == 0 {
				a.printf("no companies\n")
				return nil
			}
			for _, c := range companies {
				a.printf("%s  %s  %s\n", c.ID, c.NIP, c.Name)
			}
			return nil
		},
	}
}

func newLoginCommand(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Obtain an access token and store it in the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if password == "" {
				password = os.Getenv("INVOICECTL_PASSWORD")
			}

			tok, err := client.New(cfg.APIURL).Login(cmd.Context(), email, password)
			if err != nil {
				var rej *draft.RejectionError
				if errors.As(err, &rej) && rej.Detail != "" {
					return fmt.Errorf("login failed: %s", rej.Detail)
				}
				return fmt.Errorf("login failed: %w", err)
			}

			cfg.Token = tok.Token
			if err := SaveConfig(a.cfgPath, cfg); err != nil {
				return err
			}
			a.printf("logged in, token valid until %s\n", tok.ExpiresAt)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (or INVOICECTL_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
