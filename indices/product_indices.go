package indices

import (
	"context"
	"fmt"
	"stocktrack/catalog"
	"stocktrack/client/es"
	"stocktrack/infra/metrics"
	"stocktrack/misc"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
)

var (
	ProductIndexName = "products"
)

// ProductDocument is the indexed form of a product. CurrentPrice ignores deleted price entries.
type ProductDocument struct {
	ProdCode     string           `json:"prodcode"`
	Description  string           `json:"description"`
	Unit         string           `json:"unit"`
	Status       string           `json:"status"`
	Stamp        *types.Timestamp `json:"stamp,omitempty"`
	CurrentPrice *IndexedPrice    `json:"currentPrice,omitempty"`
}

type IndexedPrice struct {
	EffDate   misc.Date `json:"effdate"`
	UnitPrice float64   `json:"unitprice"`
}

type BatchActionError map[string]error

func (e BatchActionError) Error() string {
	return fmt.Sprintf("%v", map[string]error(e))
}

func NewProductDocument(v catalog.ProductView) ProductDocument {
	doc := ProductDocument{ProdCode: v.ProdCode, Description: v.Description, Unit: v.Unit, Status: v.Status, Stamp: v.Stamp}
	if v.CurrentPrice != nil {
		doc.CurrentPrice = &IndexedPrice{EffDate: v.CurrentPrice.EffDate, UnitPrice: v.CurrentPrice.UnitPrice}
	}
	return doc
}

// View converts the document back, status and stamp are kept only when withStatus is set.
func (d ProductDocument) View(withStatus bool) catalog.ProductView {
	v := catalog.ProductView{Product: catalog.Product{ProdCode: d.ProdCode, Description: d.Description, Unit: d.Unit}}
	if withStatus {
		v.Status, v.Stamp = d.Status, d.Stamp
	}
	if d.CurrentPrice != nil {
		v.CurrentPrice = &catalog.PriceEntry{ProdCode: d.ProdCode, EffDate: d.CurrentPrice.EffDate, UnitPrice: d.CurrentPrice.UnitPrice}
	}
	return v
}

func IndexProducts(ctx context.Context, views []catalog.ProductView) error {
	errs := BatchActionError{}
	for _, v := range views {
		err := es.IndexFunc(ctx, ProductIndexName, v.ProdCode, NewProductDocument(v))
		countOperation("index", err)
		if err != nil {
			errs[v.ProdCode] = err
			logrus.Warnf("index product %s: %v", v.ProdCode, err)
		} else {
			logrus.Debugf("index product %s successfully", v.ProdCode)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func RemoveProduct(ctx context.Context, code string) error {
	err := es.DeleteDocumentFunc(ctx, ProductIndexName, code)
	countOperation("delete", err)
	return err
}

func countOperation(op string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	metrics.IndexOperations.WithLabelValues(op, outcome).Inc()
}
