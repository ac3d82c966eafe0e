// Package cli implements invoicectl, the operator tool that composes invoice
// drafts locally and submits them to the API.
package cli

import (
	"fmt"
	"io"
	"time"

	"invoicedesk/internal/client"

	"github.com/spf13/cobra"
)

// app carries the state shared by every command.
type app struct {
	out     io.Writer
	cfgPath string
	apiURL  string
	token   string
	now     func() time.Time
}

func (a *app) config() (Config, error) {
	cfg, err := LoadConfig(a.cfgPath)
	if err != nil {
		return cfg, err
	}
	if a.apiURL != "" {
		cfg.APIURL = a.apiURL
	}
	if a.token != "" {
		cfg.Token = a.token
	}
	return cfg, nil
}

func (a *app) client() (*client.Client, Config, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, cfg, err
	}
	return client.New(cfg.APIURL, client.WithToken(cfg.Token)), cfg, nil
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// NewRootCommand builds the invoicectl command tree writing to out.
func NewRootCommand(out io.Writer) *cobra.Command {
	return newRootCommand(&app{out: out, now: time.Now})
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "invoicectl",
		Short: "Compose invoice drafts and submit them to invoicedesk",
		Long: `invoicectl keeps an invoice draft in a local YAML file, edits its rows,
shows the running totals, validates it and submits it to the invoicedesk API,
which forwards accepted invoices to KSeF.

Example:
  invoicectl login --email me@example.com
  invoicectl draft init fv-001.yaml --company <id> --number FV/2026/03/001
  invoicectl draft items set fv-001.yaml 0 name "Consulting"
  invoicectl draft submit fv-001.yaml`,
		SilenceUsage: true,
	}
	root.SetOut(a.out)
	root.SetErr(a.out)

	root.PersistentFlags().StringVar(&a.cfgPath, "config", DefaultConfigPath(), "path to the invoicectl config file")
	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "API base URL (overrides the config file)")
	root.PersistentFlags().StringVar(&a.token, "token", "", "access token (overrides the config file)")

	root.AddCommand(
		newDraftCommand(a),
		newCompaniesCommand(a),
		newLoginCommand(a),
	)
	return root
}
