// Package activity watches USB and HID interrupt counters in
// /proc/interrupts. A burst of interrupts means someone touched a mouse,
// keyboard or touchscreen, which ends the screensaver.
package activity

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"
)

// DefaultPath is the kernel's interrupt table.
const DefaultPath = "/proc/interrupts"

// Counts are interrupt totals summed over every CPU column.
type Counts struct {
	USB uint64 `json:"usb"`
	HID uint64 `json:"hid"`
}

// Total returns USB + HID.
func (c Counts) Total() uint64 { return c.USB + c.HID }

var (
	usbKeywords = []string{"usb", "ehci", "ohci", "xhci"}
	hidKeywords = []string{"hid", "input", "mouse", "keyboard"}
)

// ParseInterrupts sums the per-CPU counts of every USB controller and
// input-device line. A line counts as USB when it names a USB host
// controller, otherwise as HID.
func ParseInterrupts(r io.Reader) (Counts, error) {
	var c Counts
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		lower := strings.ToLower(line)
		usb := containsAny(lower, usbKeywords)
		if !usb && !containsAny(lower, hidKeywords) {
			continue
		}
		fields := strings.Fields(line)
		var sum uint64
		for _, f := range fields[min(1, len(fields)):] {
			n, err := strconv.ParseUint(f, 10, 64)
			if err != nil {
				break // end of the CPU columns
			}
			sum += n
		}
		if usb {
			c.USB += sum
		} else {
			c.HID += sum
		}
	}
	return c, sc.Err()
}

// ReadInterrupts parses the table at path.
func ReadInterrupts(path string) (Counts, error) {
	f, err := os.Open(path)
	if err != nil {
		return Counts{}, err
	}
	defer f.Close()
	return ParseInterrupts(f)
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
