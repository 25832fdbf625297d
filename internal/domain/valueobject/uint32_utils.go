package valueobject

// MaxUint32 represents the maximum value of a uint32.
const MaxUint32 = ^uint32(0)

// ClampUintToUint32 converts tree-sitter offsets to uint32, saturating at MaxUint32.
func ClampUintToUint32(u uint) uint32 {
	if u > uint(MaxUint32) {
		return MaxUint32
	}
	return uint32(u)
}
