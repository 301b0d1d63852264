package hook

import (
	"bufio"
	"encoding/binary"
	"io"
	"path/filepath"
	"strconv"
	"strings"
)

// ProcDevicesFile lists input devices and their capabilities.
const ProcDevicesFile = "/proc/bus/input/devices"

// InputDir holds the evdev nodes.
const InputDir = "/dev/input"

// evRepBit is EV_REP in the EV capability bitmask. Real keyboards support
// auto-repeat; power buttons and media remotes with a kbd handler do not.
const evRepBit = 1 << 0x14

// ParseKeyboards returns the /dev/input/event* paths of keyboards listed in a
// /proc/bus/input/devices document.
func ParseKeyboards(r io.Reader) ([]string, error) {
	var (
		paths    []string
		handlers []string
		evMask   uint64
	)

	flush := func() {
		defer func() {
			handlers = nil
			evMask = 0
		}()
		if evMask&evRepBit == 0 {
			return
		}
		var isKbd bool
		var event string
		for _, h := range handlers {
			if h == "kbd" {
				isKbd = true
			}
			if strings.HasPrefix(h, "event") {
				event = h
			}
		}
		if isKbd && event != "" {
			paths = append(paths, filepath.Join(InputDir, event))
		}
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "H: Handlers="):
			handlers = strings.Fields(strings.TrimPrefix(line, "H: Handlers="))
		case strings.HasPrefix(line, "B: EV="):
			mask, err := strconv.ParseUint(strings.TrimPrefix(line, "B: EV="), 16, 64)
			if err == nil {
				evMask = mask
			}
		}
	}
	flush()

	return paths, scanner.Err()
}

// inputEventSize is sizeof(struct input_event) on 64-bit Linux.
const inputEventSize = 24

// inputEvent is struct input_event: a timeval followed by type, code, value.
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

func decodeInputEvent(buf []byte) inputEvent {
	return inputEvent{
		Sec:   int64(binary.LittleEndian.Uint64(buf[0:8])),
		Usec:  int64(binary.LittleEndian.Uint64(buf[8:16])),
		Type:  binary.LittleEndian.Uint16(buf[16:18]),
		Code:  binary.LittleEndian.Uint16(buf[18:20]),
		Value: int32(binary.LittleEndian.Uint32(buf[20:24])),
	}
}
