package rpi

import (
	"fmt"
	"log/slog"
	"time"
	"unsafe"
)

type gpioT struct {
	fsel       [6]uint32 // GPIO Function Select
	resvd_0x18 uint32
	set        [2]uint32 // GPIO Pin Output Set
	resvc_0x24 uint32
	clr        [2]uint32 // GPIO Pin Output Clear
	resvd_0x30 uint32
	lev        [2]uint32 // GPIO Pin Level
	resvd_0x3c uint32
	eds        [2]uint32 // GPIO Pin Event Detect Status
	resvd_0x48 uint32
	ren        [2]uint32 // GPIO Pin Rising Edge Detect Enable
	resvd_0x54 uint32
	fen        [2]uint32 // GPIO Pin Falling Edge Detect Enable
	resvd_0x60 uint32
	hen        [2]uint32 // GPIO Pin High Detect Enable
	resvd_0x6c uint32
	len        [2]uint32 // GPIO Pin Low Detect Enable
	resvd_0x78 uint32
	aren       [2]uint32 // GPIO Pin Async Rising Edge Detect
	resvd_0x84 uint32
	afen       [2]uint32 // GPIO Pin Async Falling Edge Detect
	resvd_0x90 uint32
	pud        uint32    // GPIO Pin Pull up/down Enable (BCM2835-7)
	pudclk     [2]uint32 // GPIO Pin Pull up/down Enable Clock (BCM2835-7)
	resvd_0xa0 [4]uint32
	test       uint32
	resvd_0xb4 [12]uint32
	pupPdn     [4]uint32 // GPIO Pull-up / Pull-down (BCM2711)
}

type PullMode uint

const (
	// See p101. These are GPPUD values
	PullNone PullMode = 0
	PullDown PullMode = 1
	PullUp   PullMode = 2
)

const maxPin = 53 // p94

func (rp *RPi) initGPIO() error {
	var (
		bufOffs uintptr
		err     error
	)
	rp.gpioBuf, bufOffs, err = rp.mapGPIO(int(unsafe.Sizeof(gpioT{})))
	if err != nil {
		return fmt.Errorf("couldn't map gpioT: %w", err)
	}
	slog.Debug("mapped GPIO", "len", len(rp.gpioBuf), "offset", bufOffs, "board", rp.hw.name)
	rp.gpio = (*gpioT)(unsafe.Pointer(&rp.gpioBuf[bufOffs]))
	return nil
}

func (rp *RPi) gpioSetPinFunction(pin int, fnc uint32) error {
	if pin < 0 || pin > maxPin {
		return fmt.Errorf("pin %d not supported", pin)
	}
	reg := pin / 10
	offset := uint((pin % 10) * 3)
	rp.gpio.fsel[reg] &= ^(0x7 << offset)
	rp.gpio.fsel[reg] |= fnc << offset
	return nil
}

func (rp *RPi) gpioSetPull(pin int, pm PullMode) error {
	if pm > PullUp {
		return fmt.Errorf("%d is an invalid pull mode", pm)
	}
	if rp.hw.hwType == RPI_HWVER_TYPE_PI4 {
		// Two bits per pin, and up and down are the other way round.
		v := [...]uint32{0, 2, 1}[pm]
		reg := pin / 16
		offset := uint((pin % 16) * 2)
		rp.gpio.pupPdn[reg] &= ^(0x3 << offset)
		rp.gpio.pupPdn[reg] |= v << offset
		return nil
	}

	// See p101 for the description of this procedure.
	rp.gpio.pud = uint32(pm)
	time.Sleep(10 * time.Microsecond) // Datasheet says to sleep for 150 cycles after setting pud
	reg := pin / 32
	offset := uint(pin % 32)
	rp.gpio.pudclk[reg] = 1 << offset
	time.Sleep(10 * time.Microsecond) // Datasheet says to sleep for 150 cycles after setting pudclk
	rp.gpio.pud = 0
	rp.gpio.pudclk[reg] = 0
	return nil
}

func (rp *RPi) GPIOSetInput(pin int, pm PullMode) error {
	err := rp.gpioSetPinFunction(pin, 0)
	if err != nil {
		return fmt.Errorf("couldn't set pin as input: %w", err)
	}
	return rp.gpioSetPull(pin, pm)
}

func (rp *RPi) GPIOSetOutput(pin int, pm PullMode) error {
	err := rp.gpioSetPinFunction(pin, 1)
	if err != nil {
		return fmt.Errorf("couldn't set pin as output: %w", err)
	}
	return rp.gpioSetPull(pin, pm)
}

func (rp *RPi) GPIOSetPin(pin int, high bool) error {
	if pin < 0 || pin > maxPin {
		return fmt.Errorf("pin %d not supported", pin)
	}
	if high {
		rp.gpio.set[pin/32] = 1 << uint(pin%32)
	} else {
		rp.gpio.clr[pin/32] = 1 << uint(pin%32)
	}
	return nil
}

func (rp *RPi) GPIOGetPin(pin int) (bool, error) {
	if pin < 0 || pin > maxPin {
		return false, fmt.Errorf("pin %d not supported", pin)
	}
	return rp.gpio.lev[pin/32]&(1<<uint(pin%32)) != 0, nil
}

// Line is an output pin reduced to the two register writes that change it.
// Its methods do no checking at all, so a bit costs as little as possible.
type Line struct {
	set  *uint32
	clr  *uint32
	lev  *uint32
	mask uint32
}

// OutputLine configures pin as an output, drives it low and returns it as a
// Line.
func (rp *RPi) OutputLine(pin int) (*Line, error) {
	err := rp.GPIOSetOutput(pin, PullNone)
	if err != nil {
		return nil, err
	}
	reg := pin / 32
	l := &Line{
		set:  &rp.gpio.set[reg],
		clr:  &rp.gpio.clr[reg],
		lev:  &rp.gpio.lev[reg],
		mask: 1 << uint(pin%32),
	}
	l.Low()
	return l, nil
}

func (l *Line) High() { *l.set = l.mask }
func (l *Line) Low()  { *l.clr = l.mask }

func (l *Line) Level() bool {
	return *l.lev&l.mask != 0
}
