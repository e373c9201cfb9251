package shell

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"k8s.io/klog/v2"

	"github.com/myuser/txkv/internal/sql"
	"github.com/myuser/txkv/internal/storage"
)

// Shell executes one statement per input line against an Engine.
type Shell struct {
	Engine storage.Engine
	Out    io.Writer
	Prompt string
	// Echo writes each statement before its result, for scripted input.
	Echo bool
}

// Stats summarizes a Run.
type Stats struct {
	Statements int
	Errors     int
}

// Run reads statements from in until EOF. Statement errors are reported and
// do not stop the loop; only read errors are returned. A transaction still
// open at EOF is rolled back.
func (s *Shell) Run(in io.Reader) (Stats, error) {
	var stats Stats
	scanner := bufio.NewScanner(in)

	s.prompt()
	for scanner.Scan() {
		stmt := normalize(scanner.Text())
		if stmt == "" {
			s.prompt()
			continue
		}
		if s.Echo {
			fmt.Fprintln(s.Out, stmt)
		}

		stats.Statements++
		res, err := sql.ExecuteString(stmt, s.Engine)
		if err != nil {
			stats.Errors++
			klog.V(1).Infof("Statement %q failed: %v", stmt, err)
			fmt.Fprintf(s.Out, "ERROR: %v\n", err)
		} else {
			s.print(res)
		}
		s.prompt()
	}
	if err := scanner.Err(); err != nil {
		return stats, err
	}

	if s.Engine.State() == storage.StateInTransaction {
		if err := s.Engine.Rollback(); err != nil {
			return stats, err
		}
		fmt.Fprintln(s.Out, "open transaction rolled back")
	}
	return stats, nil
}

func (s *Shell) prompt() {
	if s.Prompt != "" {
		fmt.Fprint(s.Out, s.Prompt)
	}
}

func (s *Shell) print(res *sql.Result) {
	if res.Message != "" {
		fmt.Fprintln(s.Out, res.Message)
		return
	}
	if len(res.Rows) == 0 {
		fmt.Fprintln(s.Out, "(no rows)")
		return
	}
	for _, row := range res.Rows {
		fmt.Fprintln(s.Out, strings.Join(row, "\t"))
	}
}

// normalize strips comments, whitespace and a trailing semicolon.
func normalize(line string) string {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "--") {
		return ""
	}
	return strings.TrimSpace(strings.TrimSuffix(line, ";"))
}
