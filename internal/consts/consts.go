package consts

const (
	SBASE   = 100.0                // System base power (MVA)
	DEG2RAD = 0.017453292519943295 // Degrees to radians (pi/180)
	RAD2DEG = 57.29577951308232    // Radians to degrees (180/pi)
)
