package draft

import (
	"errors"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrorMap maps a field path such as "contractor_data.nip" or
// "items[0].quantity" to the message shown next to that field.
type ErrorMap map[string]string

// Paths returns the failing field paths in a stable order.
func (m ErrorMap) Paths() []string {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Reindex rewrites "items[k]..." paths reported against a filtered item list
// to "items[positions[k]]...", the row the operator edits. Other paths are
// kept as is.
func (m ErrorMap) Reindex(positions []int) ErrorMap {
	out := make(ErrorMap, len(m))
	for path, msg := range m {
		if sub := itemPathPattern.FindStringSubmatch(path); sub != nil {
			k, err := strconv.Atoi(sub[1])
			if err == nil && k < len(positions) {
				path = "items[" + strconv.Itoa(positions[k]) + "]" + sub[2]
			}
		}
		out[path] = msg
	}
	return out
}

// Messages shown per field path. Item paths use "items[]" for any index.
var fieldMessages = map[string]string{
	"company_id":                          "select a company",
	"invoice_number":                      "invoice number is required",
	"issue_date":                          "issue date is required",
	"sale_date":                           "sale date is required",
	"due_date":                            "due date is required",
	"payment_method":                      "payment method is required",
	"contractor_data.nip":                 "NIP must be 10 digits",
	"contractor_data.name":                "contractor name is required",
	"contractor_data.address.street":      "street is required",
	"contractor_data.address.city":        "city is required",
	"contractor_data.address.postal_code": "postal code must be in format XX-XXX",
	"items":                               "add at least one item",
	"items[].name":                        "item name is required",
	"items[].quantity":                    "quantity must be greater than 0",
	"items[].unit":                        "unit is required",
	"items[].net_price":                   "net price must be greater than 0",
	"items[].vat_rate":                    "VAT rate must be between 0 and 23",
}

// Overrides for a path when a specific tag fails.
var tagMessages = map[string]string{
	"issue_date:datetime": "issue date must be in format YYYY-MM-DD",
	"sale_date:datetime":  "sale date must be in format YYYY-MM-DD",
	"due_date:datetime":   "due date must be in format YYYY-MM-DD",
}

const MsgDueBeforeIssue = "due date cannot be earlier than issue date"

var (
	nipPattern        = regexp.MustCompile(`^\d{10}$`)
	postalCodePattern = regexp.MustCompile(`^\d{2}-\d{3}$`)
	itemIndexPattern  = regexp.MustCompile(`\[\d+\]`)
	itemPathPattern   = regexp.MustCompile(`^items\[(\d+)\](.*)$`)
)

var rules = newRuleSet()

func newRuleSet() *validator.Validate {
	v := validator.New()

	// Report json names so paths match the payload.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Compare decimals as numbers for gt/gte/lte.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("nip", func(fl validator.FieldLevel) bool {
		return nipPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("postal_code_pl", func(fl validator.FieldLevel) bool {
		return postalCodePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("uuid_string", func(fl validator.FieldLevel) bool {
		return IsUUID(fl.Field().String())
	})

	return v
}

// IsUUID reports whether s is a UUID in its canonical 36 character form.
func IsUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// crossFieldRule inspects the whole invoice and returns the failing path and
// message, or an empty path when the rule holds.
type crossFieldRule func(inv Invoice) (path, message string)

var crossFieldRules = []crossFieldRule{
	dueNotBeforeIssue,
}

func dueNotBeforeIssue(inv Invoice) (string, string) {
	issue, err := time.Parse(DateLayout, inv.IssueDate)
	if err != nil {
		return "", ""
	}
	due, err := time.Parse(DateLayout, inv.DueDate)
	if err != nil {
		return "", ""
	}
	if due.Before(issue) {
		return "due_date", MsgDueBeforeIssue
	}
	return "", ""
}

// Validate checks an assembled invoice and returns every failing field at
// once. An empty map means the invoice may be submitted. Blank rows must be
// filtered out beforehand (see Draft.Invoice and Prepare).
func Validate(inv Invoice) ErrorMap {
	errs := ErrorMap{}

	if err := rules.Struct(inv); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				path := fieldPath(fe.Namespace())
				if _, seen := errs[path]; seen {
					continue
				}
				errs[path] = messageFor(path, fe.Tag())
			}
		}
	}

	return errs
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func messageFor(path, tag string) string {
	generic := itemIndexPattern.ReplaceAllString(path, "[]")
	if msg, ok := tagMessages[generic+":"+tag]; ok {
		return msg
	}
	if msg, ok := fieldMessages[generic]; ok {
		return msg
	}
	return path + " is invalid"
}

// AllowedVATRates are the rates offered by the selector and accepted by the
// gateway.
var AllowedVATRates = []decimal.Decimal{
	decimal.NewFromInt(23),
	decimal.NewFromInt(8),
	decimal.NewFromInt(5),
	decimal.Zero,
}

const MsgVATRateNotAllowed = "VAT rate must be one of 0, 5, 8, 23"

// ValidateStrict is the server-side check. On top of Validate it applies the
// cross-field rules and requires every VAT rate to be one of AllowedVATRates.
// Validate alone only enforces the 0..23 range so that programmatic edits can
// carry other rates up to the server.
func ValidateStrict(inv Invoice) ErrorMap {
	errs := Validate(inv)
	for _, rule := range crossFieldRules {
		path, msg := rule(inv)
		if path == "" {
			continue
		}
		if _, seen := errs[path]; !seen {
			errs[path] = msg
		}
	}
	for i, it := range inv.Items {
		path := "items[" + strconv.Itoa(i) + "].vat_rate"
		if _, seen := errs[path]; seen {
			continue
		}
		if !allowedVATRate(it.VATRate) {
			errs[path] = MsgVATRateNotAllowed
		}
	}
	return errs
}

func allowedVATRate(rate decimal.Decimal) bool {
	for _, r := range AllowedVATRates {
		if rate.Equal(r) {
			return true
		}
	}
	return false
}
