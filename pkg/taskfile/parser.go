// Package taskfile reads task definition files.
//
// A task file consists of pairs of significant lines. The first line of each
// pair is the header
//
//	name: dep1 dep2
//
// and the second one is the shell command that runs the task. Blank lines,
// comments (#) and lines whose first non-space character is a tab are ignored.
package taskfile

import (
	"bufio"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
)

// Delimiter separates the task name from its dependency list
const Delimiter = ':'

// Record is a single header / command pair.
type Record struct {
	Name    string
	Deps    string
	Command string
	Line    int
}

type line struct {
	text   string
	number int
}

// significant reports whether a line carries a header or a command.
func significant(text string) bool {
	trimmed := strings.TrimLeft(text, " ")
	if trimmed == "" {
		return false
	}

	switch trimmed[0] {
	case '#', '\t':
		return false
	}
	return true
}

func validName(name string) bool {
	if name == "" {
		return false
	}

	for idx, r := range name {
		if idx == 0 && !unicode.IsLetter(r) {
			return false
		}
		if unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// ParseFile opens the given file and parses it
func ParseFile(path string) ([]Record, error) {
	handle, err := os.Open(path)
	if err != nil {
		return nil, &FileOpenError{Path: path, Err: err}
	}
	defer handle.Close()

	records, err := parse(handle, path)
	if err != nil {
		var perr *ParseError
		if eris.As(err, &perr) {
			return nil, err
		}
		return nil, &FileOpenError{Path: path, Err: err}
	}
	return records, nil
}

// Parse reads all records from r
func Parse(r io.Reader) ([]Record, error) {
	return parse(r, "")
}

func parse(r io.Reader, filename string) ([]Record, error) {
	lines := make([]line, 0)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	number := 0
	for scanner.Scan() {
		number++
		text := strings.TrimSuffix(scanner.Text(), "\r")
		if significant(text) {
			lines = append(lines, line{text: text, number: number})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "failed to read lines")
	}

	records := make([]Record, 0, len(lines)/2)
	for idx := 0; idx < len(lines); idx += 2 {
		header := lines[idx]
		pos := strings.IndexRune(header.text, Delimiter)
		if pos < 0 {
			return nil, &ParseError{File: filename, Line: header.number, Reason: "missing delimiter ':' in task header"}
		}

		name := strings.TrimSpace(header.text[:pos])
		if !validName(name) {
			return nil, &ParseError{File: filename, Line: header.number, Reason: "invalid task name \"" + name + "\""}
		}

		if idx+1 >= len(lines) {
			return nil, &ParseError{File: filename, Line: header.number, Reason: "missing command for task " + name}
		}

		records = append(records, Record{
			Name:    name,
			Deps:    header.text[pos+1:],
			Command: strings.TrimLeft(lines[idx+1].text, " "),
			Line:    header.number,
		})
	}

	return records, nil
}
