package models

// Quota is the global storage ledger snapshot. Used only ever moves in pairs:
// plus the file size on a successful upload, minus it on soft-delete.
type Quota struct {
	TotalSpaceBytes int64 `json:"total_space_bytes"`
	UsedSpaceBytes  int64 `json:"used_space_bytes"`
}

// FreeBytes returns the remaining capacity.
func (q Quota) FreeBytes() int64 {
	free := q.TotalSpaceBytes - q.UsedSpaceBytes
	if free < 0 {
		return 0
	}
	return free
}

// UsagePercent returns used space as a percentage of total.
func (q Quota) UsagePercent() float64 {
	if q.TotalSpaceBytes == 0 {
		return 0
	}
	return float64(q.UsedSpaceBytes) / float64(q.TotalSpaceBytes) * 100
}
