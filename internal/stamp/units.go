package stamp

const (
	unitsPerInch = 72.0
	mmPerInch    = 25.4
)

// MmToUnits converts millimetres to page-space units (72 per inch).
func MmToUnits(mm float64) float64 {
	return mm * unitsPerInch / mmPerInch
}
