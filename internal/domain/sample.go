package domain

// Sample is one positional reading from the upstream producer.
// Samples are immutable once produced and passed by value everywhere;
// T is unix seconds and is non-decreasing per source.
type Sample struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	T float64 `json:"t"`
}
