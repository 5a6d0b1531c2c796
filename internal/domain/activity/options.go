package activity

// DefaultListLimit caps list results when no limit is given.
const DefaultListLimit = 50

// ListActivityOptions provides filtering options for listing activity.
type ListActivityOptions struct {
	StoreID      *int64
	PeriodID     *string
	ActivityType *ActivityType
	Limit        int
	Offset       int
}
