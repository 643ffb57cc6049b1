package taskname

const (
	// Search index
	BookingSearchSync = "booking:search:sync"

	// Performance snapshots
	PerformanceRollup = "performance:rollup"

	// Memberships
	MembershipExpire = "membership:expire"
)
