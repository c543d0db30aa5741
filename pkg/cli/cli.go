// Package cli is a small flag and help framework: long/short flags,
// prefix-matched pass-through flags (-W..., -F...), and a help page wrapped
// to the terminal width.
package cli

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/term"
)

type Value interface {
	String() string
	Set(string) error
}

type stringValue struct{ p *string }

func (v *stringValue) Set(s string) error { *v.p = s; return nil }
func (v *stringValue) String() string     { return *v.p }

type boolValue struct{ p *bool }

func (v *boolValue) Set(s string) error {
	if s == "" {
		*v.p = true
		return nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("invalid boolean value %q", s)
	}
	*v.p = b
	return nil
}
func (v *boolValue) String() string { return strconv.FormatBool(*v.p) }

type listValue struct{ p *[]string }

func (v *listValue) Set(s string) error { *v.p = append(*v.p, s); return nil }
func (v *listValue) String() string     { return strings.Join(*v.p, ",") }

type Flag struct {
	Name      string
	Shorthand string
	Usage     string
	Arg       string // placeholder in help; empty for booleans
	Value     Value
	Default   string
}

type FlagSet struct {
	flags      map[string]*Flag
	shorthands map[string]*Flag
	prefixes   map[string]*Flag // -W<x>, -F<x> pass-through
	args       []string
}

func NewFlagSet() *FlagSet {
	return &FlagSet{
		flags:      map[string]*Flag{},
		shorthands: map[string]*Flag{},
		prefixes:   map[string]*Flag{},
	}
}

func (f *FlagSet) Args() []string { return f.args }

func (f *FlagSet) String(p *string, name, shorthand, value, arg, usage string) {
	*p = value
	f.add(&Flag{Name: name, Shorthand: shorthand, Usage: usage, Arg: arg,
		Value: &stringValue{p}, Default: value})
}

func (f *FlagSet) Bool(p *bool, name, shorthand string, value bool, usage string) {
	*p = value
	f.add(&Flag{Name: name, Shorthand: shorthand, Usage: usage,
		Value: &boolValue{p}})
}

// Prefix registers a pass-through family: every -<prefix><rest> argument
// appends rest to the list.
func (f *FlagSet) Prefix(p *[]string, prefix, arg, usage string) {
	*p = []string{}
	fl := &Flag{Name: prefix, Usage: usage, Arg: arg, Value: &listValue{p}}
	f.flags[prefix] = fl
	f.prefixes[prefix] = fl
}

func (f *FlagSet) add(fl *Flag) {
	if _, dup := f.flags[fl.Name]; dup {
		panic("flag redefined: " + fl.Name)
	}
	f.flags[fl.Name] = fl
	if fl.Shorthand != "" {
		if _, dup := f.shorthands[fl.Shorthand]; dup {
			panic("shorthand redefined: " + fl.Shorthand)
		}
		f.shorthands[fl.Shorthand] = fl
	}
}

func (f *FlagSet) Parse(arguments []string) error {
	f.args = nil
	for i := 0; i < len(arguments); i++ {
		arg := arguments[i]
		if len(arg) < 2 || arg[0] != '-' {
			f.args = append(f.args, arg)
			continue
		}
		if arg == "--" {
			f.args = append(f.args, arguments[i+1:]...)
			break
		}
		name := strings.TrimLeft(arg, "-")
		var inline string
		var hasInline bool
		if eq := strings.IndexByte(name, '='); eq >= 0 {
			name, inline, hasInline = name[:eq], name[eq+1:], true
		}
		fl := f.flags[name]
		if fl == nil {
			fl = f.shorthands[name]
		}
		if fl == nil && !strings.HasPrefix(arg, "--") {
			for prefix, pf := range f.prefixes {
				if strings.HasPrefix(name, prefix) && len(name) > len(prefix) {
					fl, inline, hasInline = pf, name[len(prefix):], true
					break
				}
			}
		}
		if fl == nil {
			return fmt.Errorf("unknown flag: %s", arg)
		}
		switch {
		case hasInline:
			if err := fl.Value.Set(inline); err != nil {
				return err
			}
		default:
			if _, isBool := fl.Value.(*boolValue); isBool {
				if err := fl.Value.Set(""); err != nil {
					return err
				}
				continue
			}
			if i+1 >= len(arguments) {
				return fmt.Errorf("flag needs an argument: %s", arg)
			}
			i++
			if err := fl.Value.Set(arguments[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

// Section is one extra help block, e.g. the registered warnings with their
// defaults.
type Section struct {
	Title   string
	Intro   string
	Entries [][2]string // name, description
}

type App struct {
	Name        string
	Synopsis    string
	Description string
	FlagSet     *FlagSet
	Sections    []Section
	Action      func(args []string) error
}

func NewApp(name string) *App {
	return &App{Name: name, FlagSet: NewFlagSet()}
}

func (a *App) Run(arguments []string) error {
	help := false
	a.FlagSet.Bool(&help, "help", "h", false, "Display this information.")
	if err := a.FlagSet.Parse(arguments); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", a.Name, err)
		fmt.Fprintf(os.Stderr, "Run '%s --help' for usage.\n", a.Name)
		return err
	}
	if help {
		a.writeHelp(os.Stdout)
		return nil
	}
	if a.Action != nil {
		return a.Action(a.FlagSet.Args())
	}
	return nil
}

func (a *App) writeHelp(w *os.File) {
	width := terminalWidth()
	var sb strings.Builder

	fmt.Fprintf(&sb, "Usage: %s %s\n", a.Name, a.Synopsis)
	if a.Description != "" {
		sb.WriteString("\n")
		for _, line := range wrapText(a.Description, width-4) {
			fmt.Fprintf(&sb, "    %s\n", line)
		}
	}

	var flags []*Flag
	left := 0
	for _, fl := range a.FlagSet.flags {
		flags = append(flags, fl)
		if n := len(flagHeader(fl)); n > left {
			left = n
		}
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i].Name < flags[j].Name })
	sb.WriteString("\nOptions\n")
	for _, fl := range flags {
		writeEntry(&sb, flagHeader(fl), flagUsage(fl), left, width)
	}

	for _, sec := range a.Sections {
		for _, e := range sec.Entries {
			if len(e[0]) > left {
				left = len(e[0])
			}
		}
	}
	for _, sec := range a.Sections {
		fmt.Fprintf(&sb, "\n%s\n", sec.Title)
		if sec.Intro != "" {
			for _, line := range wrapText(sec.Intro, width-4) {
				fmt.Fprintf(&sb, "    %s\n", line)
			}
		}
		entries := append([][2]string(nil), sec.Entries...)
		sort.Slice(entries, func(i, j int) bool { return entries[i][0] < entries[j][0] })
		for _, e := range entries {
			writeEntry(&sb, e[0], e[1], left, width)
		}
	}
	fmt.Fprint(w, sb.String())
}

func flagHeader(fl *Flag) string {
	var b strings.Builder
	if _, isPrefix := fl.Value.(*listValue); isPrefix {
		fmt.Fprintf(&b, "-%s<%s>", fl.Name, fl.Arg)
		return b.String()
	}
	if fl.Shorthand != "" {
		fmt.Fprintf(&b, "-%s, ", fl.Shorthand)
	}
	fmt.Fprintf(&b, "--%s", fl.Name)
	if fl.Arg != "" {
		fmt.Fprintf(&b, " <%s>", fl.Arg)
	}
	return b.String()
}

func flagUsage(fl *Flag) string {
	if fl.Default != "" {
		return fmt.Sprintf("%s [%s]", fl.Usage, fl.Default)
	}
	return fl.Usage
}

func writeEntry(sb *strings.Builder, header, usage string, left, width int) {
	avail := width - left - 6
	if avail < 10 {
		avail = 10
	}
	lines := wrapText(usage, avail)
	if len(lines) == 0 {
		lines = []string{""}
	}
	fmt.Fprintf(sb, "    %-*s  %s\n", left, header, lines[0])
	for _, line := range lines[1:] {
		fmt.Fprintf(sb, "    %-*s  %s\n", left, "", line)
	}
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < 40 {
		return 80
	}
	return width
}

func wrapText(text string, maxWidth int) []string {
	words := strings.Fields(text)
	var lines []string
	var cur strings.Builder
	for _, w := range words {
		if cur.Len() > 0 && cur.Len()+1+len(w) > maxWidth {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(w)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}
