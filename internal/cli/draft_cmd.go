package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"invoicedesk/internal/draft"

	"github.com/spf13/cobra"
)

func newDraftCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Work with a local invoice draft",
	}
	cmd.AddCommand(
		newDraftInitCommand(a),
		newItemsCommand(a),
		newTotalsCommand(a),
		newValidateCommand(a),
		newSchemaCommand(a),
		newSubmitCommand(a),
	)
	return cmd
}

func newDraftInitCommand(a *app) *cobra.Command {
	var companyID, number string
	var force bool

	cmd := &cobra.Command{
		Use:   "init FILE",
		Short: "Create a draft dated today with one blank row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to replace it)", path)
			}

			d := draft.New(a.now())
			d.CompanyID = companyID
			d.InvoiceNumber = number
			if err := saveDraft(path, d); err != nil {
				return err
			}
			a.printf("created %s (due %s)\n", path, d.DueDate)
			return nil
		},
	}
	cmd.Flags().StringVar(&companyID, "company", "", "issuing company id")
	cmd.Flags().StringVar(&number, "number", "", "invoice number")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

// editDraft loads path, applies fn and saves the result.
func editDraft(path string, fn func(d *draft.Draft) error) (*draft.Draft, error) {
	d, err := loadDraft(path)
	if err != nil {
		return nil, err
	}
	if err := fn(d); err != nil {
		return nil, err
	}
	return d, saveDraft(path, d)
}

func newItemsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Add, remove or edit rows",
	}

	add := &cobra.Command{
		Use:   "add FILE",
		Short: "Append a blank row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := editDraft(args[0], func(d *draft.Draft) error {
				d.Items.Add()
				return nil
			})
			if err != nil {
				return err
			}
			a.printf("%d rows\n", d.Items.Len())
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "remove FILE INDEX",
		Short: "Delete the row at INDEX",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[1])
			}
			d, err := editDraft(args[0], func(d *draft.Draft) error {
				d.Items.Remove(index)
				return nil
			})
			if err != nil {
				return err
			}
			a.printf("%d rows\n", d.Items.Len())
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set FILE INDEX FIELD VALUE",
		Short: "Change one field of a row (name, quantity, unit, net_price, vat_rate)",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid index %q", args[1])
			}
			d, err := editDraft(args[0], func(d *draft.Draft) error {
				return d.Items.Update(index, args[2], args[3])
			})
			if err != nil {
				return err
			}
			printTotals(a, d.Totals())
			return nil
		},
	}

	cmd.AddCommand(add, remove, set)
	return cmd
}

func printTotals(a *app, t draft.Totals) {
	a.printf("net   %s\nvat   %s\ngross %s\n", t.Net, t.VAT, t.Gross)
}

func newTotalsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "totals FILE",
		Short: "Print the running totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDraft(args[0])
			if err != nil {
				return err
			}
			printTotals(a, d.Totals())
			return nil
		},
	}
}

var errDraftInvalid = errors.New("draft is not valid")

func newValidateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check the draft the way submit does",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDraft(args[0])
			if err != nil {
				return err
			}
			errs := d.Validate()
			if len(errs) == 0 {
				a.printf("ok\n")
				return nil
			}
			printErrors(a, errs)
			return errDraftInvalid
		},
	}
}

func printErrors(a *app, errs draft.ErrorMap) {
	for _, path := range errs.Paths() {
		a.printf("%s: %s\n", path, errs[path])
	}
}

func newSchemaCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the submitted payload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := json.MarshalIndent(draft.Schema(), "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode schema: %w", err)
			}
			a.printf("%s\n", data)
			return nil
		},
	}
}
