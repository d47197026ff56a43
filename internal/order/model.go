package order

// LineItem is one variant and quantity in a new order.
type LineItem struct {
	VariantID int64 `json:"variant_id"`
	Quantity  int   `json:"quantity"`
}

// Order is what the Order Service reports back after creating a pending order.
type Order struct {
	Reference   string
	Name        string
	TotalAmount string
	Currency    string
}

type TransactionKind string

const TransactionSale TransactionKind = "sale"

type TransactionStatus string

const TransactionSuccess TransactionStatus = "success"

type FinancialStatus string

const (
	FinancialStatusPending FinancialStatus = "pending"
	FinancialStatusPaid    FinancialStatus = "paid"
)
