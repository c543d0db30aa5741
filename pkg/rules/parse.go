package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/neanderx/nxcc/pkg/ir"
)

// Parse reads a rule table from its textual form, one rule per line:
//
//	nonterminal: PATTERN "template" cost [?predicate]
//
// Terminals are spelled in folded form (ADDI2, INDIRU1, JUMPV), lowercase
// identifiers are nonterminals. Directive lines set table properties:
// %start names the goal nonterminal, %instr lists the instruction-class
// nonterminals. Templates beginning with '#' bind the structured action
// registered under the rest of the string. Predicates are either the
// builtin range(lo,hi) over the matched node's constant operand or a name
// from the preds registry. Lines starting with '#' are comments.
func Parse(src string, acts map[string]EmitFunc, preds map[string]Predicate) (*Table, error) {
	t := &Table{
		instr:  map[NT]bool{},
		direct: map[ir.Key][]*Rule{},
		chains: map[NT][]*Rule{},
	}
	for lineno, raw := range strings.Split(src, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || line[0] == '#' {
			continue
		}
		if line[0] == '%' {
			if err := t.directive(line); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineno+1, err)
			}
			continue
		}
		if err := t.rule(line, acts, preds); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineno+1, err)
		}
	}
	if t.Start == 0 {
		return nil, fmt.Errorf("no %%start directive")
	}
	return t, nil
}

func (t *Table) directive(line string) error {
	fields := strings.Fields(line)
	switch fields[0] {
	case "%start":
		if len(fields) != 2 {
			return fmt.Errorf("%%start wants one nonterminal")
		}
		t.Start = t.intern(fields[1])
	case "%instr":
		for _, name := range fields[1:] {
			t.instr[t.intern(name)] = true
		}
	default:
		return fmt.Errorf("unknown directive %q", fields[0])
	}
	return nil
}

func (t *Table) rule(line string, acts map[string]EmitFunc, preds map[string]Predicate) error {
	colon := strings.IndexByte(line, ':')
	if colon < 0 {
		return fmt.Errorf("missing ':' in rule")
	}
	lhs := t.intern(strings.TrimSpace(line[:colon]))
	rest := strings.TrimSpace(line[colon+1:])

	pat, rest, err := t.pattern(rest)
	if err != nil {
		return err
	}
	tmpl, rest, err := template(strings.TrimSpace(rest))
	if err != nil {
		return err
	}
	fields := strings.Fields(rest)
	if len(fields) < 1 {
		return fmt.Errorf("missing cost")
	}
	cost, err := strconv.Atoi(fields[0])
	if err != nil {
		return fmt.Errorf("bad cost %q", fields[0])
	}
	r := &Rule{Lhs: lhs, Pattern: pat, Cost: cost}
	if len(fields) > 1 {
		if fields[1][0] != '?' {
			return fmt.Errorf("unexpected %q after cost", fields[1])
		}
		r.PredName = fields[1][1:]
		r.Pred, err = predicate(r.PredName, preds)
		if err != nil {
			return err
		}
	}
	if strings.HasPrefix(tmpl, "#") {
		name := tmpl[1:]
		fn, ok := acts[name]
		if !ok {
			return fmt.Errorf("unregistered structured action %q", name)
		}
		r.Action = StructuredEmit{Name: name, Fn: fn}
	} else {
		r.Action = TextTemplate(tmpl)
	}
	t.add(r)
	return nil
}

// pattern parses IDENT or IDENT(p1,p2); lowercase starts a nonterminal.
func (t *Table) pattern(s string) (*Pattern, string, error) {
	i := 0
	for i < len(s) && (isAlnum(s[i]) || s[i] == '_') {
		i++
	}
	if i == 0 {
		return nil, s, fmt.Errorf("expected pattern at %q", s)
	}
	name, rest := s[:i], s[i:]
	p := &Pattern{}
	if name[0] >= 'a' && name[0] <= 'z' {
		p.NT = t.intern(name)
	} else {
		k, err := ir.ParseKey(name)
		if err != nil {
			return nil, rest, err
		}
		p.Key = k
	}
	rest = strings.TrimLeft(rest, " \t")
	if strings.HasPrefix(rest, "(") {
		if p.NT != 0 {
			return nil, rest, fmt.Errorf("nonterminal %q cannot take children", name)
		}
		rest = rest[1:]
		for {
			var kid *Pattern
			var err error
			kid, rest, err = t.pattern(strings.TrimLeft(rest, " \t"))
			if err != nil {
				return nil, rest, err
			}
			p.Kids = append(p.Kids, kid)
			rest = strings.TrimLeft(rest, " \t")
			if strings.HasPrefix(rest, ",") {
				rest = rest[1:]
				continue
			}
			if strings.HasPrefix(rest, ")") {
				rest = rest[1:]
				break
			}
			return nil, rest, fmt.Errorf("expected ',' or ')' in pattern")
		}
	}
	return p, rest, nil
}

func template(s string) (string, string, error) {
	if !strings.HasPrefix(s, `"`) {
		return "", s, fmt.Errorf("expected quoted template at %q", s)
	}
	var b strings.Builder
	i := 1
	for i < len(s) {
		switch c := s[i]; c {
		case '"':
			return b.String(), s[i+1:], nil
		case '\\':
			i++
			if i >= len(s) {
				return "", s, fmt.Errorf("truncated escape in template")
			}
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '"', '\\':
				b.WriteByte(s[i])
			default:
				return "", s, fmt.Errorf("bad escape \\%c in template", s[i])
			}
		default:
			b.WriteByte(c)
		}
		i++
	}
	return "", s, fmt.Errorf("unterminated template")
}

func predicate(name string, preds map[string]Predicate) (Predicate, error) {
	if strings.HasPrefix(name, "range(") && strings.HasSuffix(name, ")") {
		parts := strings.Split(name[len("range("):len(name)-1], ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("range wants two bounds")
		}
		lo, err1 := strconv.ParseInt(strings.TrimSpace(parts[0]), 0, 64)
		hi, err2 := strconv.ParseInt(strings.TrimSpace(parts[1]), 0, 64)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("bad range bounds in %q", name)
		}
		return func(n *ir.Node) bool {
			v, ok := n.ConstValue()
			return ok && v >= lo && v <= hi
		}, nil
	}
	if p, ok := preds[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("unregistered predicate %q", name)
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
