package transactions

import "time"

// Transaction represents a single product sale loaded from the seed feed.
type Transaction struct {
	ID          string    `json:"_id" bson:"_id,omitempty"`
	ProductID   int       `json:"id" bson:"id"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	Price       float64   `json:"price" bson:"price"`
	Category    string    `json:"category" bson:"category"`
	Image       string    `json:"image" bson:"image"`
	Sold        bool      `json:"sold" bson:"sold"`
	DateOfSale  time.Time `json:"dateOfSale" bson:"dateOfSale"`
}

// Page is one page of a transaction listing.
type Page struct {
	Transactions []Transaction `json:"transactions"`
	Total        int64         `json:"total"`
	Page         int           `json:"page"`
	PerPage      int           `json:"perPage"`
	TotalPages   int64         `json:"totalPages"`
}

// Statistics holds the sale totals for a month.
type Statistics struct {
	TotalAmount  float64 `json:"totalAmount" bson:"totalAmount"`
	SoldItems    int64   `json:"soldItems" bson:"soldItems"`
	NotSoldItems int64   `json:"notSoldItems" bson:"notSoldItems"`
}

// PriceRangeCount is one histogram bar.
type PriceRangeCount struct {
	Range string `json:"range"`
	Count int64  `json:"count"`
}

// CategoryCount is one slice of the category breakdown.
type CategoryCount struct {
	Category string `json:"category" bson:"_id"`
	Count    int64  `json:"count" bson:"count"`
}

// Combined groups the three month reports returned by Service.Combined.
type Combined struct {
	Statistics Statistics        `json:"statistics"`
	BarChart   []PriceRangeCount `json:"barChart"`
	PieChart   []CategoryCount   `json:"pieChart"`
}
