package analytics

import (
	"math"
	"sort"
	"stocktrack/catalog"
)

// Dataset is one bounded sample loaded for a chart.
type Dataset struct {
	Customers []Customer
	Products  []catalog.Product
	Sales     []Sale
	Details   []SaleDetail
	Prices    []catalog.PriceEntry
}

// TopProducts sums sold quantities per product of the sample, largest first.
func TopProducts(ds *Dataset) ([]ProductQuantity, error) {
	totals := map[string]int{}
	for _, d := range ds.Details {
		if d.Quantity == nil {
			return nil, &DecodeError{Table: "salesdetail", Key: d.TransNo + "/" + d.ProdCode, Reason: "quantity is null"}
		}
		totals[d.ProdCode] += *d.Quantity
	}

	result := make([]ProductQuantity, 0, len(ds.Products))
	for _, p := range ds.Products {
		result = append(result, ProductQuantity{ProdCode: p.ProdCode, Description: p.Description, Quantity: totals[p.ProdCode]})
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Quantity != result[j].Quantity {
			return result[i].Quantity > result[j].Quantity
		}
		return result[i].ProdCode < result[j].ProdCode
	})
	return result, nil
}

// TopCustomers sums quantity times latest unit price per customer, largest first.
func TopCustomers(ds *Dataset) ([]CustomerRevenue, error) {
	customerOf := map[string]string{}
	for _, s := range ds.Sales {
		customerOf[s.TransNo] = s.CustNo
	}
	amounts, err := lineAmounts(ds)
	if err != nil {
		return nil, err
	}
	revenue := map[string]float64{}
	for i, d := range ds.Details {
		revenue[customerOf[d.TransNo]] += amounts[i]
	}

	result := make([]CustomerRevenue, 0, len(ds.Customers))
	for _, c := range ds.Customers {
		result = append(result, CustomerRevenue{CustNo: c.CustNo, CustName: c.CustName, Revenue: roundMoney(revenue[c.CustNo])})
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Revenue != result[j].Revenue {
			return result[i].Revenue > result[j].Revenue
		}
		return result[i].CustNo < result[j].CustNo
	})
	return result, nil
}

// SalesTrend sums quantity times latest unit price per sale month (YYYY-MM), oldest month first.
func SalesTrend(ds *Dataset) ([]MonthlySales, error) {
	sales := map[string]Sale{}
	for _, s := range ds.Sales {
		sales[s.TransNo] = s
	}
	amounts, err := lineAmounts(ds)
	if err != nil {
		return nil, err
	}

	byMonth := map[string]float64{}
	for i, d := range ds.Details {
		s, found := sales[d.TransNo]
		if !found {
			continue
		}
		if s.SalesDate == nil || s.SalesDate.IsZero() {
			return nil, &DecodeError{Table: "sales", Key: s.TransNo, Reason: "salesdate is null"}
		}
		byMonth[s.SalesDate.Format("2006-01")] += amounts[i]
	}

	result := make([]MonthlySales, 0, len(byMonth))
	for month, amount := range byMonth {
		result = append(result, MonthlySales{Month: month, Amount: roundMoney(amount)})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Month < result[j].Month })
	return result, nil
}

// lineAmounts prices every detail line with the latest unit price of its product.
func lineAmounts(ds *Dataset) ([]float64, error) {
	pricesOf := map[string][]catalog.PriceEntry{}
	for _, e := range ds.Prices {
		pricesOf[e.ProdCode] = append(pricesOf[e.ProdCode], e)
	}
	amounts := make([]float64, len(ds.Details))
	for i, d := range ds.Details {
		if d.Quantity == nil {
			return nil, &DecodeError{Table: "salesdetail", Key: d.TransNo + "/" + d.ProdCode, Reason: "quantity is null"}
		}
		current := catalog.CurrentPrice(pricesOf[d.ProdCode])
		if current == nil {
			return nil, &DecodeError{Table: "pricehist", Key: d.ProdCode, Reason: "product has no price"}
		}
		amounts[i] = float64(*d.Quantity) * current.UnitPrice
	}
	return amounts, nil
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
