package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/xraph/freightledger/invoice"
	"github.com/xraph/freightledger/types"
)

// draftFile is the YAML form of an invoice being created or edited. Empty
// fields leave the draft untouched; a non-empty item list replaces the
// draft's items.
type draftFile struct {
	CustomerName    string           `yaml:"customer_name"`
	CustomerAddress string           `yaml:"customer_address"`
	Items           []draftItem      `yaml:"items"`
	Shipping        string           `yaml:"shipping"`
	Discount        string           `yaml:"discount"`
	Tax             *TaxConfig       `yaml:"tax"`
	Details         *invoice.Details `yaml:"details"`
}

type draftItem struct {
	Product string `yaml:"product"`
	Unit    string `yaml:"unit"`
	Qty     int64  `yaml:"qty"`
	Price   string `yaml:"price"`
}

func readDraftFile(path string) (draftFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return draftFile{}, fmt.Errorf("read draft: %w", err)
	}
	var f draftFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return draftFile{}, fmt.Errorf("parse draft %s: %w", path, err)
	}
	return f, nil
}

// apply copies the file onto d.
func (f draftFile) apply(d *invoice.Draft) error {
	cur := d.Currency()

	if f.CustomerName != "" {
		d.CustomerName = f.CustomerName
	}
	if f.CustomerAddress != "" {
		d.CustomerAddress = f.CustomerAddress
	}
	if f.Details != nil {
		d.Details = *f.Details
	}

	if len(f.Items) > 0 {
		for i := d.Len() - 1; i >= 0; i-- {
			if err := d.RemoveItem(i); err != nil {
				return err
			}
		}
		for i, it := range f.Items {
			price, err := types.ParseMoney(it.Price, cur)
			if err != nil {
				return fmt.Errorf("item %d price: %w", i+1, err)
			}
			if _, err := d.AddItem(it.Product, it.Unit, it.Qty, price); err != nil {
				return fmt.Errorf("item %d: %w", i+1, err)
			}
		}
	}

	if f.Shipping != "" {
		m, err := types.ParseMoney(f.Shipping, cur)
		if err != nil {
			return fmt.Errorf("shipping: %w", err)
		}
		if err := d.SetShipping(m); err != nil {
			return err
		}
	}
	if f.Discount != "" {
		m, err := types.ParseMoney(f.Discount, cur)
		if err != nil {
			return fmt.Errorf("discount: %w", err)
		}
		if err := d.SetDiscount(m); err != nil {
			return err
		}
	}
	if f.Tax != nil {
		tax, err := invoice.ParseTax(f.Tax.Mode, f.Tax.Value, cur)
		if err != nil {
			return err
		}
		d.Tax = tax
	}
	return nil
}
