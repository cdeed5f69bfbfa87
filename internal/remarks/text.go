package remarks

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"

	"fortio.org/safecast"
)

// file.c:12:3: remark: loop not vectorized [-Rpass-missed=loop-vectorize]
var rpassLine = regexp.MustCompile(`^(.+?):(\d+):(\d+): remark: (.*) \[-Rpass(-missed|-analysis)?=([^\]]+)\]\s*$`)

// ParseText reads clang -Rpass diagnostics. Lines that are not remarks are
// skipped; only reader errors are returned.
func ParseText(r io.Reader) ([]Remark, error) {
	var out []Remark
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		m := rpassLine.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		rem := Remark{
			Pass:    clean(m[6]),
			Message: clean(m[4]),
			Loc: Location{
				File:   clean(m[1]),
				Line:   atou32(m[2]),
				Column: atou32(m[3]),
			},
		}
		switch m[5] {
		case "-missed":
			rem.Kind = Missed
		case "-analysis":
			rem.Kind = Analysis
		default:
			rem.Kind = Applied
		}
		rem.IsMachine = IsMachinePass(rem.Pass)
		out = append(out, rem)
	}
	if err := sc.Err(); err != nil {
		return out, fmt.Errorf("failed to read remarks: %w", err)
	}
	return out, nil
}

func atou32(s string) uint32 {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return 0
	}
	return v
}

// ReadFile loads remarks from path, picking the YAML or text reader by
// content.
func ReadFile(path string) ([]Remark, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read remarks file %q: %w", path, err)
	}
	if bytes.Contains(data, []byte("--- !")) {
		return ParseYAML(data), nil
	}
	rs, err := ParseText(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rs, nil
}
