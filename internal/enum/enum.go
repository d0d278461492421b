package enum

// ── Order lifecycle (CHECK constrained in DB) ──

const (
	OrderStatusPending   int16 = 0
	OrderStatusDelivered int16 = 1
)

// ParseOrderStatusLabel returns the stored status for a list-filter label.
// ok is false for anything other than the exact strings "pending" and
// "delivered"; matching is deliberately case-sensitive.
func ParseOrderStatusLabel(label string) (int16, bool) {
	switch label {
	case "pending":
		return OrderStatusPending, true
	case "delivered":
		return OrderStatusDelivered, true
	}
	return 0, false
}

// ── Role groups (seeded by migration, names are load-bearing) ──

const (
	GroupManager      = "Manager"
	GroupDeliveryCrew = "Delivery Crew"
)

// ── Storage precision limits ──

const (
	// MaxQuantity is the largest quantity a cart or order line may hold (SMALLINT).
	MaxQuantity = 32767

	// MaxLineTotal is the largest value a NUMERIC(6,2) money column can store.
	MaxLineTotal = "9999.99"
)
