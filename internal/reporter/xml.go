package reporter

import (
	"encoding/xml"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"invoice-reconciliation-service/internal/models"
	"invoice-reconciliation-service/pkg/errors"
)

// invoiceListXML is the root element of the invoice export.
type invoiceListXML struct {
	XMLName  xml.Name     `xml:"invoices"`
	Invoices []invoiceXML `xml:"invoice"`
}

type invoiceXML struct {
	Filename      string `xml:"filename"`
	InvoiceNumber string `xml:"invoice_number,omitempty"`
	InvoiceDate   string `xml:"invoice_date,omitempty"`
	TotalAmount   string `xml:"total_amount,omitempty"`
	Currency      string `xml:"currency"`
	SupplierName  string `xml:"supplier_name,omitempty"`
	CustomerName  string `xml:"customer_name,omitempty"`
}

// writeInvoiceXML renders the extracted invoices as an indented XML document
// with a standard declaration. Absent fields are omitted rather than
// rendered empty.
func writeInvoiceXML(w io.Writer, invoices []*models.InvoiceRecord) error {
	doc := invoiceListXML{Invoices: make([]invoiceXML, 0, len(invoices))}

	for _, invoice := range invoices {
		doc.Invoices = append(doc.Invoices, invoiceXML{
			Filename:      invoice.SourceFile,
			InvoiceNumber: stringOrEmpty(invoice.InvoiceNumber),
			InvoiceDate:   dateOrEmpty(invoice.InvoiceDate),
			TotalAmount:   amountOrEmpty(invoice.TotalAmount),
			Currency:      invoice.Currency,
			SupplierName:  stringOrEmpty(invoice.SupplierName),
			CustomerName:  stringOrEmpty(invoice.CustomerName),
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return errors.InternalError("xml encoding", err)
	}

	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return errors.InternalError("xml encoding", err)
	}
	if err := encoder.Close(); err != nil {
		return errors.InternalError("xml encoding", err)
	}

	_, err := io.WriteString(w, "\n")
	return err
}

func dateOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func amountOrEmpty(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(2)
}

func scoreOrEmpty(score *float64) string {
	if score == nil {
		return ""
	}
	return strconv.FormatFloat(*score, 'f', 1, 64)
}
