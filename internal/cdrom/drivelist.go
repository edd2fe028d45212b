package cdrom

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strings"
)

// driveNamePrefix starts the line of /proc/sys/dev/cdrom/info that lists
// the drives.
const driveNamePrefix = "drive name:"

// ParseDriveList returns the device path of the n-th drive in a
// /proc/sys/dev/cdrom/info listing. The kernel lists the most recently
// registered drive first, so the list is reversed before indexing: given
// "drive name:\tsr1\tsr0", index 0 is /dev/sr0.
func ParseDriveList(r io.Reader, n int) (string, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		rest, ok := strings.CutPrefix(scanner.Text(), driveNamePrefix)
		if !ok {
			continue
		}

		var names []string
		for _, name := range strings.Split(rest, "\t") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
		slices.Reverse(names)

		if n < 0 || n >= len(names) {
			return "", fmt.Errorf("%w: drive index %d of %d", ErrNoDevice, n, len(names))
		}
		return "/dev/" + names[n], nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoDevice, err)
	}
	return "", fmt.Errorf("%w: no %q line", ErrNoDevice, driveNamePrefix)
}
