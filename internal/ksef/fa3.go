package ksef

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	fa3Namespace = "http://crd.gov.pl/wzor/2025/06/25/13775/"
	fa3Code      = "FA"
	fa3Variant   = "3"
	fa3System    = "invoicedesk"
)

// Party is a seller or buyer as printed on the structured invoice.
type Party struct {
	NIP        string
	Name       string
	Street     string
	City       string
	PostalCode string
	Country    string
}

// Line is one invoice row with its computed amounts.
type Line struct {
	Name      string
	Unit      string
	Quantity  decimal.Decimal
	NetPrice  decimal.Decimal
	VATRate   decimal.Decimal
	NetAmount decimal.Decimal
}

// Document is the input of the FA(3) renderer.
type Document struct {
	InvoiceNumber string
	IssueDate     time.Time
	SaleDate      time.Time
	DueDate       time.Time
	PaymentMethod string
	Currency      string
	Seller        Party
	Buyer         Party
	Lines         []Line
	NetTotal      decimal.Decimal
	VATTotal      decimal.Decimal
	GrossTotal    decimal.Decimal
	CreatedAt     time.Time
}

type fa3Invoice struct {
	XMLName xml.Name   `xml:"Faktura"`
	Xmlns   string     `xml:"xmlns,attr"`
	Header  fa3Header  `xml:"Naglowek"`
	Seller  fa3Subject `xml:"Podmiot1"`
	Buyer   fa3Subject `xml:"Podmiot2"`
	Body    fa3Body    `xml:"Fa"`
}

type fa3FormCode struct {
	Code          string `xml:",chardata"`
	SystemCode    string `xml:"kodSystemowy,attr"`
	SchemaVersion string `xml:"wersjaSchemy,attr"`
}

type fa3Header struct {
	FormCode   fa3FormCode `xml:"KodFormularza"`
	Variant    string      `xml:"WariantFormularza"`
	CreatedAt  string      `xml:"DataWytworzeniaFa"`
	SystemName string      `xml:"SystemInfo"`
}

type fa3Subject struct {
	NIP     string     `xml:"DaneIdentyfikacyjne>NIP"`
	Name    string     `xml:"DaneIdentyfikacyjne>Nazwa"`
	Address fa3Address `xml:"Adres"`
}

type fa3Address struct {
	Country string `xml:"KodKraju"`
	Line1   string `xml:"AdresL1"`
	Line2   string `xml:"AdresL2"`
}

type fa3Body struct {
	Currency   string     `xml:"KodWaluty"`
	IssueDate  string     `xml:"P_1"`
	Number     string     `xml:"P_2"`
	SaleDate   string     `xml:"P_6"`
	NetTotal   string     `xml:"P_13_1"`
	VATTotal   string     `xml:"P_14_1"`
	GrossTotal string     `xml:"P_15"`
	Kind       string     `xml:"RodzajFaktury"`
	Rows       []fa3Row   `xml:"FaWiersz"`
	Payment    fa3Payment `xml:"Platnosc"`
}

type fa3Row struct {
	No        int    `xml:"NrWierszaFa"`
	Name      string `xml:"P_7"`
	Unit      string `xml:"P_8A"`
	Quantity  string `xml:"P_8B"`
	NetPrice  string `xml:"P_9A"`
	NetAmount string `xml:"P_11"`
	VATRate   string `xml:"P_12"`
}

type fa3Payment struct {
	DueDate string `xml:"TerminPlatnosci>Termin"`
	Method  string `xml:"FormaPlatnosci"`
}

// FA(3) payment form codes
var paymentForms = map[string]string{
	"cash":     "1",
	"card":     "2",
	"transfer": "6",
}

// RenderFA3 serialises doc as an FA(3) structured invoice.
func RenderFA3(doc Document) ([]byte, error) {
	const dateLayout = "2006-01-02"

	currency := doc.Currency
	if currency == "" {
		currency = "PLN"
	}

	inv := fa3Invoice{
		Xmlns: fa3Namespace,
		Header: fa3Header{
			FormCode:   fa3FormCode{Code: fa3Code, SystemCode: "FA (3)", SchemaVersion: "1-0E"},
			Variant:    fa3Variant,
			CreatedAt:  doc.CreatedAt.UTC().Format(time.RFC3339),
			SystemName: fa3System,
		},
		Seller: toSubject(doc.Seller),
		Buyer:  toSubject(doc.Buyer),
		Body: fa3Body{
			Currency:   currency,
			IssueDate:  doc.IssueDate.Format(dateLayout),
			Number:     doc.InvoiceNumber,
			SaleDate:   doc.SaleDate.Format(dateLayout),
			NetTotal:   doc.NetTotal.StringFixed(2),
			VATTotal:   doc.VATTotal.StringFixed(2),
			GrossTotal: doc.GrossTotal.StringFixed(2),
			Kind:       "VAT",
			Payment: fa3Payment{
				DueDate: doc.DueDate.Format(dateLayout),
				Method:  paymentForms[doc.PaymentMethod],
			},
		},
	}

	for i, l := range doc.Lines {
		inv.Body.Rows = append(inv.Body.Rows, fa3Row{
			No:        i + 1,
			Name:      l.Name,
			Unit:      l.Unit,
			Quantity:  l.Quantity.String(),
			NetPrice:  l.NetPrice.StringFixed(2),
			NetAmount: l.NetAmount.StringFixed(2),
			VATRate:   l.VATRate.String(),
		})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(inv); err != nil {
		return nil, fmt.Errorf("failed to encode FA(3) document: %w", err)
	}
	return buf.Bytes(), nil
}

func toSubject(p Party) fa3Subject {
	country := p.Country
	if country == "" {
		country = "PL"
	}
	return fa3Subject{
		NIP:  p.NIP,
		Name: p.Name,
		Address: fa3Address{
			Country: country,
			Line1:   p.Street,
			Line2:   p.PostalCode + " " + p.City,
		},
	}
}
