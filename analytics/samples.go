package analytics

// Illustrative data shown when a chart has nothing real to show.

func sampleSummary() Summary {
	return Summary{Products: 48, Customers: 12, Sales: 230}
}

func sampleTopProducts() []ProductQuantity {
	return []ProductQuantity{
		{ProdCode: "LT0001", Description: "Laptop", Quantity: 120},
		{ProdCode: "MS0001", Description: "Wireless mouse", Quantity: 95},
		{ProdCode: "KB0001", Description: "Keyboard", Quantity: 80},
		{ProdCode: "MN0001", Description: "Monitor 24in", Quantity: 64},
		{ProdCode: "HS0001", Description: "Headset", Quantity: 41},
	}
}

func sampleTopCustomers() []CustomerRevenue {
	return []CustomerRevenue{
		{CustNo: "C0001", CustName: "Acme Trading", Revenue: 15230.5},
		{CustNo: "C0002", CustName: "Northwind Supplies", Revenue: 12100},
		{CustNo: "C0003", CustName: "Blue Harbor Retail", Revenue: 9875.25},
		{CustNo: "C0004", CustName: "Summit Office", Revenue: 7420},
		{CustNo: "C0005", CustName: "Greenfield Stores", Revenue: 5310.75},
	}
}

func sampleSalesTrend() []MonthlySales {
	return []MonthlySales{
		{Month: "2023-01", Amount: 4200},
		{Month: "2023-02", Amount: 5100},
		{Month: "2023-03", Amount: 4800},
		{Month: "2023-04", Amount: 6300},
		{Month: "2023-05", Amount: 7050},
		{Month: "2023-06", Amount: 6900},
	}
}
