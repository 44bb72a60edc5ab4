package lsm6dsl

// Register map (LSM6DSL datasheet).
const (
	RegWhoAmI   = 0x0F
	RegCtrl1XL  = 0x10
	RegCtrl2G   = 0x11
	RegCtrl3C   = 0x12
	RegCtrl4C   = 0x13
	RegStatus   = 0x1E
	RegOutTempL = 0x20

	WhoAmIValue = 0x6A

	Ctrl3BDU     = 0x40 // block data update
	Ctrl3IFInc   = 0x04 // register auto-increment during bursts
	Ctrl3SWReset = 0x01

	BurstLen = 14 // OUT_TEMP_L through OUTZ_H_XL
)

// Status is the STATUS_REG byte.
type Status uint8

const (
	statusXLDA = 0x01
	statusGDA  = 0x02
	statusTDA  = 0x04
)

func (s Status) AccelReady() bool { return s&statusXLDA != 0 }
func (s Status) GyroReady() bool  { return s&statusGDA != 0 }
func (s Status) TempReady() bool  { return s&statusTDA != 0 }

// AccelODR selects the accelerometer output data rate (CTRL1_XL high
// nibble).
type AccelODR uint8

const (
	AccelODRPowerDown AccelODR = 0x00
	AccelODR12Hz5     AccelODR = 0x10
	AccelODR26Hz      AccelODR = 0x20
	AccelODR52Hz      AccelODR = 0x30
	AccelODR104Hz     AccelODR = 0x40
)

// AccelFS selects the accelerometer full scale (CTRL1_XL FS bits).
type AccelFS uint8

const (
	AccelFS2G  AccelFS = 0x00
	AccelFS16G AccelFS = 0x04
	AccelFS4G  AccelFS = 0x08
	AccelFS8G  AccelFS = 0x0C
)

// Sensitivity returns the range's resolution in mg/LSB. Codes outside
// the defined set fall back to the narrowest range.
func (fs AccelFS) Sensitivity() float64 {
	switch fs {
	case AccelFS2G:
		return 0.061
	case AccelFS4G:
		return 0.122
	case AccelFS8G:
		return 0.244
	case AccelFS16G:
		return 0.488
	default:
		return 0.061
	}
}

// GyroODR selects the gyroscope output data rate (CTRL2_G high nibble).
type GyroODR uint8

const (
	GyroODRPowerDown GyroODR = 0x00
	GyroODR12Hz5     GyroODR = 0x10
	GyroODR26Hz      GyroODR = 0x20
	GyroODR52Hz      GyroODR = 0x30
	GyroODR104Hz     GyroODR = 0x40
)

// GyroFS selects the gyroscope full scale (CTRL2_G FS bits).
type GyroFS uint8

const (
	GyroFS250DPS  GyroFS = 0x00
	GyroFS125DPS  GyroFS = 0x02
	GyroFS500DPS  GyroFS = 0x04
	GyroFS1000DPS GyroFS = 0x08
	GyroFS2000DPS GyroFS = 0x0C
)

// Sensitivity returns the range's resolution in mdps/LSB. Codes outside
// the defined set fall back to the narrowest range.
func (fs GyroFS) Sensitivity() float64 {
	switch fs {
	case GyroFS125DPS:
		return 4.375
	case GyroFS250DPS:
		return 8.75
	case GyroFS500DPS:
		return 17.5
	case GyroFS1000DPS:
		return 35.0
	case GyroFS2000DPS:
		return 70.0
	default:
		return 4.375
	}
}

// AccelODRFromHz maps a configured rate in Hz to the register code.
func AccelODRFromHz(hz int) (AccelODR, bool) {
	switch hz {
	case 0:
		return AccelODRPowerDown, true
	case 12, 13: // 12.5 Hz
		return AccelODR12Hz5, true
	case 26:
		return AccelODR26Hz, true
	case 52:
		return AccelODR52Hz, true
	case 104:
		return AccelODR104Hz, true
	default:
		return AccelODRPowerDown, false
	}
}

// AccelFSFromG maps a configured range in g to the register code.
func AccelFSFromG(g int) (AccelFS, bool) {
	switch g {
	case 2:
		return AccelFS2G, true
	case 4:
		return AccelFS4G, true
	case 8:
		return AccelFS8G, true
	case 16:
		return AccelFS16G, true
	default:
		return AccelFS2G, false
	}
}

// GyroODRFromHz maps a configured rate in Hz to the register code.
func GyroODRFromHz(hz int) (GyroODR, bool) {
	switch hz {
	case 0:
		return GyroODRPowerDown, true
	case 12, 13: // 12.5 Hz
		return GyroODR12Hz5, true
	case 26:
		return GyroODR26Hz, true
	case 52:
		return GyroODR52Hz, true
	case 104:
		return GyroODR104Hz, true
	default:
		return GyroODRPowerDown, false
	}
}

// GyroFSFromDPS maps a configured range in degrees/second to the
// register code.
func GyroFSFromDPS(dps int) (GyroFS, bool) {
	switch dps {
	case 125:
		return GyroFS125DPS, true
	case 250:
		return GyroFS250DPS, true
	case 500:
		return GyroFS500DPS, true
	case 1000:
		return GyroFS1000DPS, true
	case 2000:
		return GyroFS2000DPS, true
	default:
		return GyroFS250DPS, false
	}
}

// I2 decodes a little-endian int16 at p.
func I2(p []uint8) int16 {
	return (int16(p[1]) << 8) + int16(p[0])
}
