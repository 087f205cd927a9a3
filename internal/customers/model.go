package customers

// Customer is a pet owner identified by phone number.
type Customer struct {
	ID        int64  `json:"id"`
	Phone     string `json:"phone"`
	OwnerName string `json:"owner_name"`
}

// Pet belongs to exactly one customer.
type Pet struct {
	ID         int64  `json:"id"`
	CustomerID int64  `json:"customer_id"`
	Name       string `json:"name"`
}
