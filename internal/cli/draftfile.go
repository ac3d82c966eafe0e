package cli

import (
	"fmt"
	"os"

	"invoicedesk/internal/draft"

	"gopkg.in/yaml.v3"
)

// loadDraft reads a draft saved by saveDraft. Blank rows are kept.
func loadDraft(path string) (*draft.Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read draft: %w", err)
	}

	var inv draft.Invoice
	if err := yaml.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("failed to parse draft %s: %w", path, err)
	}
	return draft.FromInvoice(inv), nil
}

func saveDraft(path string, d *draft.Draft) error {
	data, err := yaml.Marshal(d.Snapshot())
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write draft: %w", err)
	}
	return nil
}
