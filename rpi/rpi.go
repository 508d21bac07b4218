// Package rpi drives Raspberry Pi GPIO pins through the memory-mapped
// register block, fast enough to bit-bang a one-wire LED strip.
package rpi

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	mmap "github.com/edsrzf/mmap-go"
)

type RPi struct {
	hw      *hw
	gpioBuf mmap.MMap
	gpio    *gpioT
}

// NewRPi identifies the board and maps its GPIO registers.
func NewRPi() (*RPi, error) {
	hw, err := detectHardware()
	if err != nil {
		return nil, fmt.Errorf("couldn't detect RPi hardware: %w", err)
	}
	rp := RPi{
		hw: hw,
	}
	err = rp.initGPIO()
	if err != nil {
		return nil, fmt.Errorf("couldn't init GPIO: %w", err)
	}
	return &rp, nil
}

// Close unmaps the registers. Pins obtained from rp mustn't be used afterwards.
func (rp *RPi) Close() error {
	if rp.gpioBuf == nil {
		return nil
	}
	rp.gpio = nil
	err := rp.gpioBuf.Unmap()
	rp.gpioBuf = nil
	return err
}

// Name is the board's model name.
func (rp *RPi) Name() string {
	return rp.hw.name
}

// Profile names the timing calibration that matches this board's SoC.
func (rp *RPi) Profile() string {
	return rp.hw.profile
}

type hw struct {
	hwType     int
	periphBase uintptr
	name       string
	profile    string
}

const (
	RPI_HWVER_TYPE_UNKNOWN = iota
	RPI_HWVER_TYPE_PI1
	RPI_HWVER_TYPE_PI2
	RPI_HWVER_TYPE_PI4

	PERIPH_BASE_RPI  = 0x20000000
	PERIPH_BASE_RPI2 = 0x3f000000
	PERIPH_BASE_RPI4 = 0xfe000000

	GPIO_OFFSET = uintptr(0x00200000)
	PAGE_SIZE   = 4096
)

var ErrUnsupported = errors.New("unsupported board")

// Detect which version of a Raspberry Pi we're running on.
func detectHardware() (*hw, error) {
	f, err := os.Open("/proc/device-tree/system/linux,revision")
	if err != nil {
		return nil, fmt.Errorf("couldn't open linux revision file: %w", err)
	}
	b := make([]byte, 4)
	n, err := f.Read(b)
	f.Close() // Ignore error
	if err != nil {
		return nil, fmt.Errorf("couldn't read revision: %w", err)
	}
	if n != 4 {
		return nil, fmt.Errorf("revision file got %d instead of 4 bytes", n)
	}
	r := bytes.NewReader(b)
	var ver uint32
	err = binary.Read(r, binary.BigEndian, &ver)
	if err != nil {
		return nil, fmt.Errorf("somehow couldn't convert 4 bytes to a uint32: %w", err)
	}
	return hwForRevision(ver)
}

// hwForRevision decodes a board revision code. New-style codes (bit 23 set)
// carry the SoC in bits 12-15 and the board type in bits 4-11; anything older
// is an original BCM2835 board.
func hwForRevision(rev uint32) (*hw, error) {
	if rev&(1<<23) == 0 {
		rev &= 0xffff // drop the warranty bits
		name, ok := oldStyleNames[rev]
		if !ok {
			return nil, fmt.Errorf("%w: old-style revision %X", ErrUnsupported, rev)
		}
		return &hw{
			hwType:     RPI_HWVER_TYPE_PI1,
			periphBase: PERIPH_BASE_RPI,
			name:       name,
			profile:    "bcm2835",
		}, nil
	}

	name, ok := boardTypes[(rev>>4)&0xff]
	if !ok {
		name = fmt.Sprintf("unknown board %X", rev)
	}
	switch (rev >> 12) & 0xf {
	case 0: // BCM2835
		return &hw{RPI_HWVER_TYPE_PI1, PERIPH_BASE_RPI, name, "bcm2835"}, nil
	case 1, 2: // BCM2836, BCM2837
		return &hw{RPI_HWVER_TYPE_PI2, PERIPH_BASE_RPI2, name, "bcm2835"}, nil
	case 3: // BCM2711
		return &hw{RPI_HWVER_TYPE_PI4, PERIPH_BASE_RPI4, name, "bcm2711"}, nil
	}
	// The Pi 5's GPIOs sit behind RP1 on PCIe, with a different register layout.
	return nil, fmt.Errorf("%w: %s (revision %X)", ErrUnsupported, name, rev)
}

var oldStyleNames = map[uint32]string{
	0x02: "Model B", 0x03: "Model B", 0x04: "Model B", 0x05: "Model B", 0x06: "Model B",
	0x07: "Model A", 0x08: "Model A", 0x09: "Model A",
	0x0d: "Model B", 0x0e: "Model B", 0x0f: "Model B",
	0x10: "Model B+", 0x13: "Model B+",
	0x11: "Compute Module 1", 0x14: "Compute Module 1",
	0x12: "Model A+", 0x15: "Model A+",
}

var boardTypes = map[uint32]string{
	0x00: "Model A",
	0x01: "Model B",
	0x02: "Model A+",
	0x03: "Model B+",
	0x04: "Pi 2 Model B",
	0x06: "Compute Module 1",
	0x08: "Pi 3 Model B",
	0x09: "Pi Zero",
	0x0a: "Compute Module 3",
	0x0c: "Pi Zero W",
	0x0d: "Pi 3 Model B+",
	0x0e: "Pi 3 Model A+",
	0x10: "Compute Module 3+",
	0x11: "Pi 4 Model B",
	0x12: "Pi Zero 2 W",
	0x13: "Pi 400",
	0x14: "Compute Module 4",
	0x15: "Compute Module 4S",
	0x17: "Pi 5",
}
