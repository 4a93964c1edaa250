package material

// Built-in compositions, by isotope id. The fuel composition is extended with
// a contiguous block of ids for every problem larger than the small one.
var (
	fuelSmall = []int{
		58, 59, 60, 61, 40, 42, 43, 44, 45, 46, 1, 2, 3, 7, 8, 9, 10,
		29, 57, 47, 48, 0, 62, 15, 33, 34, 52, 53, 54, 55, 56, 18, 23, 41,
	}
	cladding = []int{63, 64, 65, 66, 67}
	water    = []int{24, 41, 4, 5}
	vessel   = []int{
		19, 20, 21, 22, 35, 36, 37, 38, 39, 25, 27, 28, 29, 30, 31, 32,
		26, 49, 50, 51, 11, 12, 13, 14, 6, 16, 17,
	}
	reflector = []int{
		24, 41, 4, 5, 19, 20, 21, 22, 35, 36, 37, 38, 39, 25, 49, 50, 51,
		11, 12, 13, 14,
	}
	assemblyEnds = []int{24, 41, 4, 5, 63, 64, 65, 66, 67}
)

// largeFuelExtra is the number of ids appended to the fuel composition for
// problems other than the small one; they start right after the small set.
const largeFuelExtra = 287

// Layout returns fresh copies of the twelve built-in isotope lists.
func Layout(isotopes int) [][]int {
	fuel := append([]int(nil), fuelSmall...)
	if isotopes != SmallIsotopes {
		for i := 0; i < largeFuelExtra; i++ {
			fuel = append(fuel, SmallIsotopes+i)
		}
	}
	clone := func(s []int) []int { return append([]int(nil), s...) }
	return [][]int{
		fuel,
		clone(cladding),
		clone(water),
		clone(water),
		clone(vessel),
		clone(reflector),
		clone(reflector),
		clone(reflector),
		clone(reflector),
		clone(reflector),
		clone(assemblyEnds),
		clone(assemblyEnds),
	}
}
