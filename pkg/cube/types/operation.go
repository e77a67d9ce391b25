package types

// OpKind distinguishes the three sync actions.
type OpKind string

const (
	OpSingle OpKind = "single"
	OpBulk   OpKind = "bulk"
	OpPreset OpKind = "preset"
)

// OpStatus is the lifecycle of a SyncOperation.
type OpStatus string

const (
	OpPending   OpStatus = "pending"
	OpSucceeded OpStatus = "succeeded"
	OpFailed    OpStatus = "failed"
)

// SyncOperation is one in-flight or completed sync action. Target is the
// ticker for single syncs and the preset key for preset syncs; Tickers is
// only set for bulk syncs. Counts are meaningful for bulk and preset only.
type SyncOperation struct {
	Kind         OpKind
	Target       string
	Tickers      []string
	Status       OpStatus
	SuccessCount int
	ErrorCount   int
}

// Done reports whether the operation reached a terminal status.
func (o SyncOperation) Done() bool {
	return o.Status == OpSucceeded || o.Status == OpFailed
}
