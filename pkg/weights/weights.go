// Package weights provides load-order weights for emitted chunks.
// Chunks with lower weights are loaded first.
package weights

// Default weights for chunk kinds.
// Lower weights are loaded first.
const (
	WeightRuntime = 0
	WeightVendor  = 100
	WeightInitial = 1000
	WeightAsync   = 2000
	WeightDefault = 5000
)

// kindWeights maps a chunk kind to its weight.
var kindWeights = map[string]int{
	"runtime": WeightRuntime,
	"vendor":  WeightVendor,
	"initial": WeightInitial,
	"async":   WeightAsync,
}

// GetWeight returns the weight for a chunk kind.
// Lower weights should be loaded first.
func GetWeight(kind string) int {
	if weight, ok := kindWeights[kind]; ok {
		return weight
	}

	// Default weight for unknown kinds
	return WeightDefault
}
