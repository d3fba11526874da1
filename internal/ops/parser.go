package ops

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// Parse reads a script of tagged operations from r and returns them in
// input order (spec §4.5). Lines beginning with "//" or consisting
// solely of whitespace are skipped. Any other malformed line is a
// fatal ParseError — the caller should abort the run on the first one.
func Parse(r io.Reader) ([]Op, error) {
	scanner := bufio.NewScanner(r)
	var result []Op
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		op, err := parseLine(line, lineNo)
		if err != nil {
			return nil, err
		}
		result = append(result, op)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func parseLine(line string, lineNo int) (Op, error) {
	name, args, ok := splitCall(line)
	if !ok {
		return Op{}, newParseError(ErrMalformedTuple, lineNo, line, "expected name(args)")
	}

	switch {
	case name == "beginRO":
		txn, err := parseTxnArg(args, lineNo, line)
		if err != nil {
			return Op{}, err
		}
		return Op{Kind: BeginRO, Txn: txn, Line: lineNo}, nil

	case name == "begin":
		txn, err := parseTxnArg(args, lineNo, line)
		if err != nil {
			return Op{}, err
		}
		return Op{Kind: Begin, Txn: txn, Line: lineNo}, nil

	case name == "end":
		txn, err := parseTxnArg(args, lineNo, line)
		if err != nil {
			return Op{}, err
		}
		return Op{Kind: End, Txn: txn, Line: lineNo}, nil

	case name == "fail":
		site, err := parseIntArg(args, lineNo, line)
		if err != nil {
			return Op{}, err
		}
		return Op{Kind: Fail, Site: site, Line: lineNo}, nil

	case name == "recover":
		site, err := parseIntArg(args, lineNo, line)
		if err != nil {
			return Op{}, err
		}
		return Op{Kind: Recover, Site: site, Line: lineNo}, nil

	case name == "dump":
		return Op{Kind: Dump, Line: lineNo}, nil

	case name == "R":
		parts := strings.Split(args, ",")
		if len(parts) != 2 {
			return Op{}, newParseError(ErrMalformedTuple, lineNo, line, "R takes (txn, var)")
		}
		txn, err := parseTxnID(parts[0], lineNo, line)
		if err != nil {
			return Op{}, err
		}
		v, err := parseVarID(parts[1], lineNo, line)
		if err != nil {
			return Op{}, err
		}
		return Op{Kind: Read, Txn: txn, Var: v, Line: lineNo}, nil

	case name == "W":
		parts := strings.Split(args, ",")
		if len(parts) != 3 {
			return Op{}, newParseError(ErrMalformedTuple, lineNo, line, "W takes (txn, var, value)")
		}
		txn, err := parseTxnID(parts[0], lineNo, line)
		if err != nil {
			return Op{}, err
		}
		v, err := parseVarID(parts[1], lineNo, line)
		if err != nil {
			return Op{}, err
		}
		value, convErr := strconv.Atoi(strings.TrimSpace(parts[2]))
		if convErr != nil {
			return Op{}, newParseError(ErrMalformedTuple, lineNo, line, "value must be an integer")
		}
		return Op{Kind: Write, Txn: txn, Var: v, Value: value, Line: lineNo}, nil

	default:
		return Op{}, newParseError(ErrUnknownPrefix, lineNo, line, "unrecognized instruction "+name)
	}
}

// splitCall splits "name(args)" into ("name", "args", true).
func splitCall(line string) (name, args string, ok bool) {
	open := strings.IndexByte(line, '(')
	if open < 0 || !strings.HasSuffix(line, ")") {
		return "", "", false
	}
	return strings.TrimSpace(line[:open]), line[open+1 : len(line)-1], true
}

func parseTxnArg(args string, lineNo int, line string) (int, error) {
	return parseTxnID(args, lineNo, line)
}

func parseIntArg(args string, lineNo int, line string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil {
		return 0, newParseError(ErrMalformedTuple, lineNo, line, "expected an integer argument")
	}
	return v, nil
}

// parseTxnID parses "T<digits>" into its integer suffix.
func parseTxnID(s string, lineNo int, line string) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != 'T' {
		return 0, newParseError(ErrMalformedTuple, lineNo, line, "transaction id must look like T<digits>")
	}
	n, err := strconv.Atoi(s[1:])
	if err != nil {
		return 0, newParseError(ErrMalformedTuple, lineNo, line, "transaction id must look like T<digits>")
	}
	return n, nil
}

// parseVarID parses "x<digits>" into its integer suffix.
func parseVarID(s string, lineNo int, line string) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != 'x' {
		return 0, newParseError(ErrMalformedTuple, lineNo, line, "variable id must look like x<digits>")
	}
	n, err := strconv.Atoi(s[1:])
	if err != nil {
		return 0, newParseError(ErrMalformedTuple, lineNo, line, "variable id must look like x<digits>")
	}
	return n, nil
}
