package util

import (
	"fmt"
	"os"
	"strings"

	"github.com/neanderx/nxcc/pkg/config"
)

// Pos locates a diagnostic in one of the registered source files.
type Pos struct {
	FileIndex int
	Line      int
	Column    int
	Len       int
}

// SourceFileRecord tracks the name and content of a single source file.
type SourceFileRecord struct {
	Name    string
	Content []rune
}

var sourceFiles []SourceFileRecord

// SetSourceFiles stores the source code for all input files for rich error messages
func SetSourceFiles(files []SourceFileRecord) {
	sourceFiles = files
}

// AddSourceFile registers one file and returns its index for Pos values.
func AddSourceFile(name, content string) int {
	sourceFiles = append(sourceFiles, SourceFileRecord{Name: name, Content: []rune(content)})
	return len(sourceFiles) - 1
}

func findFileAndLine(pos Pos) (filename string, line, col int) {
	if pos.FileIndex < 0 || pos.FileIndex >= len(sourceFiles) {
		return "unknown", pos.Line, pos.Column
	}
	return sourceFiles[pos.FileIndex].Name, pos.Line, pos.Column
}

// printErrorLine prints the source line and a caret indicating the position
func printErrorLine(stream *os.File, pos Pos) {
	if pos.FileIndex < 0 || pos.FileIndex >= len(sourceFiles) || pos.Line == 0 {
		return
	}

	content := sourceFiles[pos.FileIndex].Content
	lineNum := pos.Line
	lineStart := 0
	for i, r := range content {
		if lineNum <= 1 {
			break
		}
		if r == '\n' {
			lineNum--
			lineStart = i + 1
		}
	}

	lineEnd := len(content)
	for i := lineStart; i < len(content); i++ {
		if content[i] == '\n' {
			lineEnd = i
			break
		}
	}

	fmt.Fprintf(stream, "  %s\n", string(content[lineStart:lineEnd]))

	fmt.Fprintf(stream, "  %s\033[32m^", strings.Repeat(" ", pos.Column-1))
	if pos.Len > 1 {
		fmt.Fprintf(stream, "%s", strings.Repeat("~", pos.Len-1))
	}
	fmt.Fprintln(stream, "\033[0m")
}

// Error prints a formatted error message and exits the program
func Error(pos Pos, format string, args ...interface{}) {
	filename, line, col := findFileAndLine(pos)
	fmt.Fprintf(os.Stderr, "%s:%d:%d: \033[31merror:\033[0m ", filename, line, col)
	fmt.Fprintf(os.Stderr, format, args...)
	fmt.Fprintln(os.Stderr)
	printErrorLine(os.Stderr, pos)
	os.Exit(1)
}

// Fatal prints an error with no source position and exits the program.
func Fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "nxcc: \033[31merror:\033[0m ")
	fmt.Fprintf(os.Stderr, format, args...)
	fmt.Fprintln(os.Stderr)
	os.Exit(1)
}

// Warn prints a formatted warning message if the warning is enabled
func Warn(cfg *config.Config, wt config.Warning, pos Pos, format string, args ...interface{}) {
	if !cfg.IsWarningEnabled(wt) {
		return
	}
	filename, line, col := findFileAndLine(pos)
	warningName := cfg.Warnings[wt].Name
	fmt.Fprintf(os.Stderr, "%s:%d:%d: \033[33mwarning:\033[0m ", filename, line, col)
	fmt.Fprintf(os.Stderr, format, args...)
	fmt.Fprintf(os.Stderr, " [-W%s]\n", warningName)
	printErrorLine(os.Stderr, pos)
}
