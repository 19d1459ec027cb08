package inventory

import (
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
)

// =============================================================================
// Procfs Socket Source
// =============================================================================

// tcpListenState is the LISTEN state code in /proc/net/tcp.
const tcpListenState = "0A"

// ProcfsSockets lists listening TCP ports from the kernel's socket
// tables. This is the first of the two socket inventory sources.
type ProcfsSockets struct {
	// Root overrides /proc for tests. Empty means the real procfs.
	Root string
}

// ListeningPorts returns every locally listening TCP port from
// /proc/net/tcp and /proc/net/tcp6, deduplicated and sorted.
func (p ProcfsSockets) ListeningPorts() ([]int, error) {
	root := p.Root
	if root == "" {
		root = "/proc"
	}

	seen := make(map[int]bool)
	for _, table := range []string{root + "/net/tcp", root + "/net/tcp6"} {
		content, err := os.ReadFile(table)
		if err != nil {
			if os.IsNotExist(err) {
				continue // tcp6 may be absent
			}
			return nil, NewInventoryError("ListeningPorts", "procfs", err.Error(), ErrSocketTableUnavailable)
		}
		for _, port := range parseProcNetTCP(string(content)) {
			seen[port] = true
		}
	}

	return sortedPorts(seen), nil
}

// parseProcNetTCP extracts listening local ports from a /proc/net/tcp
// style table. Format per line:
//
//	sl local_address rem_address st ...
//	0: 00000000:1388 00000000:0000 0A ...
//
// The local port is hex after the colon; only LISTEN (0A) entries count.
func parseProcNetTCP(content string) []int {
	var ports []int
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if i == 0 {
			continue // header
		}
		fields := strings.Fields(line)
		if len(fields) < 4 || fields[3] != tcpListenState {
			continue
		}
		_, hexPort, ok := strings.Cut(fields[1], ":")
		if !ok {
			continue
		}
		port, err := strconv.ParseInt(hexPort, 16, 32)
		if err != nil {
			continue
		}
		ports = append(ports, int(port))
	}
	return ports
}

// =============================================================================
// ss Socket Source
// =============================================================================

// SSSockets lists listening TCP ports by invoking ss(8). This is the
// second, independent socket inventory source; it can disagree with
// procfs (stale vs live state), which is why callers OR the two.
type SSSockets struct {
	// Command overrides the binary for tests. Empty means "ss".
	Command string
}

// ListeningPorts runs `ss -Htln` and parses the local ports. The command
// is built as an argument list, never a shell string.
func (s SSSockets) ListeningPorts() ([]int, error) {
	command := s.Command
	if command == "" {
		command = "ss"
	}

	out, err := exec.Command(command, "-Htln").Output()
	if err != nil {
		return nil, NewInventoryError("ListeningPorts", "ss", err.Error(), ErrSocketTableUnavailable)
	}
	return parseSSOutput(string(out)), nil
}

// parseSSOutput extracts local ports from `ss -Htln` output. Lines look
// like:
//
//	LISTEN 0 4096 0.0.0.0:5432 0.0.0.0:*
//	LISTEN 0 511  [::]:80      [::]:*
func parseSSOutput(content string) []int {
	seen := make(map[int]bool)
	for _, line := range strings.Split(content, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		local := fields[3]
		idx := strings.LastIndex(local, ":")
		if idx < 0 {
			continue
		}
		port, err := strconv.Atoi(local[idx+1:])
		if err != nil {
			continue
		}
		seen[port] = true
	}
	return sortedPorts(seen)
}

func sortedPorts(seen map[int]bool) []int {
	ports := make([]int, 0, len(seen))
	for port := range seen {
		ports = append(ports, port)
	}
	sort.Ints(ports)
	return ports
}
