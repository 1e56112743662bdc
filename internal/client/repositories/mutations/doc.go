// Package mutations persists the offline write queue. Entries are read back
// in (timestamp, id) order.
package mutations
