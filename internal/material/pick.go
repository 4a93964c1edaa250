package material

// Distribution holds the volume fractions of the twelve materials in the
// reactor core, in material id order.
var Distribution = [Count]float64{
	0.140, // fuel
	0.052, // cladding
	0.275, // cold, borated water
	0.134, // hot, borated water
	0.154, // reactor pressure vessel
	0.064, // lower, radial reflector
	0.066, // upper reflector / top plate
	0.055, // bottom plate
	0.008, // bottom nozzle
	0.015, // top nozzle
	0.025, // top of fuel assemblies
	0.013, // bottom of fuel assemblies
}

// Pick maps a roll in [0,1) to a material id.
//
// The running sum for candidate mat covers Distribution[mat] down to
// Distribution[1] and never includes Distribution[0], so mat 0 can only be
// reached through the fallback: when no candidate matches, the loop ends at
// mat == Count and the modulo wraps it to 0. Checksums depend on this exact
// mapping; it is not a cumulative-distribution draw and must not become one.
func Pick(roll float64) int {
	mat := 0
	for ; mat < Count; mat++ {
		running := 0.0
		for j := mat; j > 0; j-- {
			running += Distribution[j]
		}
		if roll < running {
			break
		}
	}
	return mat % Count
}
