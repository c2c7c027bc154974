// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"periph.io/x/conn/v3/i2c"
)

// MPU9250 registers written directly; the driver does not expose them.
const (
	regSmplrtDiv  = 0x19 // Sample Rate = Internal_Sample_Rate / (1 + SMPLRT_DIV)
	regConfig     = 0x1A // DLPF_CFG in bits 2:0
	regIntPinCfg  = 0x37
	regIntEnable  = 0x38
	regPwrMgmt1   = 0x6B
	mpuInternalHz = 1000 // internal rate with DLPF enabled

	dlpf41Hz      = 0x03
	intAnyRdClear = 1 << 4
	intBypassEn   = 1 << 1
	intRawRdyEn   = 1 << 0
	pwrSleep      = 1 << 6
)

// AK8963 magnetometer, reachable at its own address once MPU bypass is on.
const (
	akAddr     = 0x0C
	akWIA      = 0x00 // 0x48=AK8963
	akST1      = 0x02 // bit0 DRDY
	akCNTL1    = 0x0A
	akASAX     = 0x10 // fuse ROM sensitivity adjustment X, Y, Z follow
	akDeviceID = 0x48

	akModePowerDown  = 0x00
	akModeFuseROM    = 0x0F
	akModeContinuous = 0x16 // 16-bit output, continuous measurement mode 2 (100Hz)

	akST1DataReady = 1 << 0
	akST2Overflow  = 1 << 3
	akMicroTesla   = 0.15 // µT per LSB in 16-bit mode
)

func writeReg(d *i2c.Dev, reg, value byte) error {
	return d.Tx([]byte{reg, value}, nil)
}

func readRegs(d *i2c.Dev, reg byte, out []byte) error {
	return d.Tx([]byte{reg}, out)
}
