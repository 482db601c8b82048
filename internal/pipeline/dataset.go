package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"shipmatch/internal"
)

const (
	DatasetShipments = "shipment"
	DatasetAccounts  = "account"

	ColTrackingNumber       = "Tracking Number"
	ColRecipientCompanyName = "Recipient Company Name"
	ColCustomerName         = "Customer Name"
	ColAccountNumber        = "Account Number"
)

// ColumnError reports required columns absent from a dataset. Matching must
// not start when one is returned.
type ColumnError struct {
	Dataset string
	Missing []string
}

func (e *ColumnError) Error() string {
	quoted := make([]string, 0, len(e.Missing))
	for _, m := range e.Missing {
		quoted = append(quoted, "'"+m+"'")
	}
	return fmt.Sprintf("%s file is missing required column(s): %s", e.Dataset, strings.Join(quoted, ", "))
}

// ReadTable reads the first table from a file, choosing the parser by
// extension.
func ReadTable(path string) (Table, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return Table{}, err
	}
	t, err := ReadTableFrom(path, blob)
	if err != nil {
		return Table{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return t, nil
}

func ReadTableFrom(name string, content []byte) (Table, error) {
	var (
		t   Table
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".xlsx", ".xlsm":
		t, err = parseXLSX(content)
	case ".csv", ".tsv", ".txt":
		t, err = parseCSV(content)
	case ".html", ".htm":
		t, err = parseHTMLTable(content)
	case ".eml":
		t, err = parseEmail(content)
	default:
		return Table{}, fmt.Errorf("unsupported input type: %s", ext)
	}
	if err != nil {
		return Table{}, err
	}
	if t.Source == "" {
		t.Source = filepath.Base(name)
	}
	return t, nil
}

func (t Table) Require(dataset string, columns ...string) error {
	var missing []string
	for _, c := range columns {
		if t.Column(c) < 0 {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &ColumnError{Dataset: dataset, Missing: missing}
	}
	return nil
}

// RequireColumns checks both datasets before any record is built. When both
// are missing columns the joined error carries one ColumnError per dataset.
func RequireColumns(shipments Table, accounts *Table) error {
	errs := []error{shipments.Require(DatasetShipments, ColTrackingNumber, ColRecipientCompanyName)}
	if accounts != nil {
		errs = append(errs, accounts.Require(DatasetAccounts, ColCustomerName, ColAccountNumber))
	}
	return errors.Join(errs...)
}

func LoadShipments(t Table) ([]internal.ShipmentRecord, error) {
	if err := t.Require(DatasetShipments, ColTrackingNumber, ColRecipientCompanyName); err != nil {
		return nil, err
	}
	trackingIdx, recipientIdx := t.Column(ColTrackingNumber), t.Column(ColRecipientCompanyName)

	out := make([]internal.ShipmentRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, internal.ShipmentRecord{
			TrackingNumber:       t.Cell(row, trackingIdx),
			RecipientCompanyName: t.Cell(row, recipientIdx),
		})
	}
	return out, nil
}

func LoadAccounts(t Table) ([]internal.AccountRecord, error) {
	if err := t.Require(DatasetAccounts, ColCustomerName, ColAccountNumber); err != nil {
		return nil, err
	}
	nameIdx, numberIdx := t.Column(ColCustomerName), t.Column(ColAccountNumber)

	out := make([]internal.AccountRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, internal.AccountRecord{
			CustomerName:  t.Cell(row, nameIdx),
			AccountNumber: t.Cell(row, numberIdx),
		})
	}
	return out, nil
}
