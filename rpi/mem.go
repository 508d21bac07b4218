package rpi

import (
	"fmt"
	"log/slog"
	"os"

	mmap "github.com/edsrzf/mmap-go"
)

const (
	GPIOMEM_FILE = "/dev/gpiomem"
	MEM_FILE     = "/dev/mem"
)

// mapMem maps size bytes of physical memory starting at physAddr from file.
// mmap wants a page-aligned offset, so the mapping starts at the page
// containing physAddr; the returned offset says where in the mapping physAddr
// is.
func mapMem(file string, physAddr uintptr, size int) (mmap.MMap, uintptr, error) {
	f, err := os.OpenFile(file, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, 0, fmt.Errorf("couldn't open %s: %w", file, err)
	}
	defer f.Close() // Ignore error, the mapping outlives the descriptor

	pagemask := ^uintptr(PAGE_SIZE - 1)
	mapAddr := physAddr & pagemask
	size += int(physAddr - mapAddr)
	slog.Debug("mapping registers", "file", file, "addr", fmt.Sprintf("%08X", mapAddr), "size", size)
	mm, err := mmap.MapRegion(f, size, mmap.RDWR, 0, int64(mapAddr))
	if err != nil {
		return nil, 0, fmt.Errorf("couldn't map region (%08X, %v): %w", physAddr, size, err)
	}
	return mm, physAddr & (PAGE_SIZE - 1), nil
}

// mapGPIO maps the GPIO register block. /dev/gpiomem exposes just that block
// at offset zero and doesn't need root; /dev/mem does, and needs the SoC's
// peripheral base.
func (rp *RPi) mapGPIO(size int) (mmap.MMap, uintptr, error) {
	mm, offs, err := mapMem(GPIOMEM_FILE, 0, size)
	if err == nil {
		return mm, offs, nil
	}
	slog.Debug("falling back to /dev/mem", "err", err)
	mm, offs, err2 := mapMem(MEM_FILE, rp.hw.periphBase+GPIO_OFFSET, size)
	if err2 != nil {
		return nil, 0, fmt.Errorf("%v; %w", err, err2)
	}
	return mm, offs, nil
}
