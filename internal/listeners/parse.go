package listeners

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"
)

// ParseLsof parses `lsof -F pn` output.
// Output format: p<pid>\nf<fd>\nn<address:port>\n...
func ParseLsof(output string) []Listener {
	var result []Listener
	currentPID := -1

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		switch line[0] {
		case 'p':
			pid, err := strconv.Atoi(line[1:])
			if err != nil || pid < 0 {
				currentPID = -1
				continue
			}
			currentPID = pid
		case 'n':
			if currentPID < 0 {
				continue
			}
			if port, ok := parsePort(line[1:]); ok {
				result = append(result, Listener{PID: currentPID, Port: port})
			}
		}
	}

	return result
}

// ParseNetstat parses `netstat -ano` output from Windows.
//
//	Proto  Local Address          Foreign Address        State           PID
//	TCP    0.0.0.0:8088           0.0.0.0:0              LISTENING       31715
func ParseNetstat(output string) []Listener {
	var result []Listener

	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}
		if fields[3] != "LISTENING" {
			continue
		}

		port, ok := parsePort(fields[1])
		if !ok {
			continue
		}
		pid, err := strconv.Atoi(fields[len(fields)-1])
		if err != nil || pid < 0 {
			continue
		}

		result = append(result, Listener{PID: pid, Port: port})
	}

	return result
}

var ssUserRe = regexp.MustCompile(`pid=(\d+)`)

// ParseSS parses `ss -tlnpH` output. A socket shared by several processes
// produces one pair per pid entry:
//
//	LISTEN 0 511 0.0.0.0:80 0.0.0.0:* users:(("nginx",pid=12,fd=6),("nginx",pid=13,fd=6))
func ParseSS(output string) []Listener {
	var result []Listener

	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 6 || fields[0] != "LISTEN" {
			continue
		}

		port, ok := parsePort(fields[3])
		if !ok {
			continue
		}

		users := strings.Join(fields[5:], " ")
		for _, m := range ssUserRe.FindAllStringSubmatch(users, -1) {
			pid, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			result = append(result, Listener{PID: pid, Port: port})
		}
	}

	return result
}
