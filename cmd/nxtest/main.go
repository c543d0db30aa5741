package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"

	"github.com/neanderx/nxcc/pkg/asm"
	"github.com/neanderx/nxcc/pkg/config"
	"github.com/neanderx/nxcc/pkg/emit"
	"github.com/neanderx/nxcc/pkg/irtext"
	"github.com/neanderx/nxcc/pkg/neander"
	"github.com/neanderx/nxcc/pkg/sim"
	"github.com/neanderx/nxcc/pkg/util"
)

// Execution is the observable outcome of running a compiled program on the
// simulator. Cycle counts are recorded but not compared, so codegen changes
// that only affect instruction counts do not invalidate golden files.
type Execution struct {
	AC     uint8  `json:"ac"`
	X      uint8  `json:"x"`
	Y      uint8  `json:"y"`
	Cycles int    `json:"cycles,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Golden is the stored expectation for one source file.
type Golden struct {
	SourceHash string    `json:"source_hash"`
	Result     Execution `json:"result"`
}

type FileTestResult struct {
	File    string  `json:"file"`
	Status  string  `json:"status"` // PASS, FAIL, SKIP, ERROR
	Message string  `json:"message,omitempty"`
	Diff    string  `json:"diff,omitempty"`
	Golden  *Golden `json:"golden,omitempty"`
	Got     *Golden `json:"got,omitempty"`
}

type TestSuiteResults map[string]*FileTestResult

var (
	generateGolden = flag.String("generate-golden", "", "Generate a golden .json file for a given source file.")
	testFiles      = flag.String("test-files", "tests/*.nxir", "Glob pattern(s) for files to test (space-separated).")
	skipFiles      = flag.String("skip-files", "", "Files to skip (space-separated).")
	outputJSON     = flag.String("output", ".test_results.json", "Output file for the JSON test report.")
	jsonDir        = flag.String("dir", "", "Directory to store/read golden JSON files (defaults to source file dir).")
	cycleCap       = flag.Int("cycles", 5_000_000, "Cycle limit per simulated run.")
	jobs           = flag.Int("j", 4, "Number of parallel test jobs.")
	features       = flag.String("features", "", "Feature flags passed to the compiler (comma-separated, e.g. 'indexed-ops,no-intern-strings').")
	verbose        = flag.Bool("v", false, "Enable verbose logging.")
)

var sourceMu sync.Mutex

const (
	cRed    = "\x1b[91m"
	cYellow = "\x1b[93m"
	cGreen  = "\x1b[92m"
	cCyan   = "\x1b[96m"
	cBold   = "\x1b[1m"
	cNone   = "\x1b[0m"
)

func main() {
	flag.Parse()
	log.SetFlags(0)

	if *generateGolden != "" {
		handleGenerateGolden(*generateGolden)
		return
	}

	handleRunTestSuite()
}

func getJSONPath(sourceFile string) string {
	jsonFileName := "." + filepath.Base(sourceFile) + ".json"
	if *jsonDir != "" {
		return filepath.Join(*jsonDir, jsonFileName)
	}
	return filepath.Join(filepath.Dir(sourceFile), jsonFileName)
}

func hashBytes(data []byte) string {
	return fmt.Sprintf("%x", xxhash.Sum64(data))
}

// newConfig builds a compiler configuration for one run, applying the
// --features list on top of the defaults.
func newConfig() (*config.Config, error) {
	cfg := config.NewConfig()
	if err := cfg.SetTarget("neanderx"); err != nil {
		return nil, err
	}
	if *features != "" {
		for _, f := range strings.Split(*features, ",") {
			f = strings.TrimSpace(f)
			if f == "" {
				continue
			}
			enable := true
			if rest, ok := strings.CutPrefix(f, "no-"); ok {
				f, enable = rest, false
			}
			ft, ok := cfg.FeatureMap[f]
			if !ok {
				return nil, fmt.Errorf("unknown feature %q", f)
			}
			cfg.SetFeature(ft, enable)
		}
	}
	return cfg, nil
}

// compileAndRun pushes one source file through the whole pipeline and
// captures the simulator's final register state. Compile and assembly
// errors come back inside the Execution rather than as a Go error, so a
// golden file can legitimately expect a rejection.
func compileAndRun(sourceFile string, content []byte) Execution {
	cfg, err := newConfig()
	if err != nil {
		return Execution{Error: err.Error()}
	}
	cfg.ModuleName = strings.TrimSuffix(filepath.Base(sourceFile), filepath.Ext(sourceFile))

	// The source file registry is a package-level slice shared by all workers.
	sourceMu.Lock()
	idx := util.AddSourceFile(sourceFile, string(content))
	sourceMu.Unlock()
	prog, err := irtext.Read(cfg, string(content), idx)
	if err != nil {
		return Execution{Error: "read: " + err.Error()}
	}

	tgt, err := neander.Target(cfg)
	if err != nil {
		return Execution{Error: "target: " + err.Error()}
	}

	out, err := irtext.Compile(cfg, emit.New(cfg, tgt), prog)
	if err != nil {
		return Execution{Error: "compile: " + err.Error()}
	}

	image, err := asm.Assemble(out.String())
	if err != nil {
		return Execution{Error: "assemble: " + err.Error()}
	}

	cpu := sim.New()
	cpu.Load(image.Mem, 0, cfg.StackTop)
	if err := cpu.Run(*cycleCap); err != nil {
		return Execution{AC: cpu.AC, X: cpu.X, Y: cpu.Y, Cycles: cpu.Cycles, Error: "run: " + err.Error()}
	}
	return Execution{AC: cpu.AC, X: cpu.X, Y: cpu.Y, Cycles: cpu.Cycles}
}

func handleGenerateGolden(sourceFile string) {
	content, err := os.ReadFile(sourceFile)
	if err != nil {
		log.Fatalf("%s[ERROR]%s Could not read %s: %v\n", cRed, cNone, sourceFile, err)
	}

	golden := Golden{
		SourceHash: hashBytes(content),
		Result:     compileAndRun(sourceFile, content),
	}

	jsonData, err := json.MarshalIndent(golden, "", "  ")
	if err != nil {
		log.Fatalf("%s[ERROR]%s Failed to marshal golden data to JSON: %v\n", cRed, cNone, err)
	}

	goldenFileName := getJSONPath(sourceFile)
	if *jsonDir != "" {
		if err := os.MkdirAll(*jsonDir, 0755); err != nil {
			log.Fatalf("%s[ERROR]%s Failed to create directory %s: %v\n", cRed, cNone, *jsonDir, err)
		}
	}

	if err := os.WriteFile(goldenFileName, jsonData, 0644); err != nil {
		log.Fatalf("%s[ERROR]%s Failed to write golden file %s: %v\n", cRed, cNone, goldenFileName, err)
	}

	log.Printf("%s[SUCCESS]%s Golden file created at %s\n", cGreen, cNone, goldenFileName)
}

func handleRunTestSuite() {
	files, err := expandGlobPatterns(*testFiles)
	if err != nil {
		log.Fatalf("%s[ERROR]%s Invalid glob pattern(s): %v\n", cRed, cNone, err)
	}
	if len(files) == 0 {
		log.Println("No test files found matching the pattern(s).")
		return
	}

	skipList := make(map[string]bool)
	for _, f := range strings.Fields(*skipFiles) {
		abs, err := filepath.Abs(f)
		if err == nil {
			skipList[abs] = true
		}
		skipList[f] = true
	}

	tasks := make(chan string, len(files))
	resultsChan := make(chan *FileTestResult, len(files))
	var wg sync.WaitGroup

	for i := 0; i < *jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range tasks {
				resultsChan <- testFile(file)
			}
		}()
	}

	// Feed the tasks channel, skipping files with identical content.
	seenHashes := make(map[string]string)
	for _, file := range files {
		if skipList[file] {
			resultsChan <- &FileTestResult{File: file, Status: "SKIP", Message: "Explicitly skipped"}
			continue
		}
		content, err := os.ReadFile(file)
		if err != nil {
			resultsChan <- &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Failed to read file for hashing: %v", err)}
			continue
		}
		fileHash := hashBytes(content)
		if originalFile, seen := seenHashes[fileHash]; seen {
			resultsChan <- &FileTestResult{File: file, Status: "SKIP", Message: fmt.Sprintf("Content is identical to %s", originalFile)}
			continue
		}
		seenHashes[fileHash] = file
		tasks <- file
	}
	close(tasks)

	wg.Wait()
	close(resultsChan)

	var allResults []*FileTestResult
	for result := range resultsChan {
		allResults = append(allResults, result)
	}

	sort.Slice(allResults, func(i, j int) bool {
		return allResults[i].File < allResults[j].File
	})

	printSummary(allResults)
	resultsMap := writeJSONReport(allResults)

	if hasFailures(resultsMap) {
		os.Exit(1)
	}
}

func testFile(file string) *FileTestResult {
	content, err := os.ReadFile(file)
	if err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Could not read %s: %v", file, err)}
	}

	goldenFile := getJSONPath(file)
	goldenData, err := os.ReadFile(goldenFile)
	if err != nil {
		return &FileTestResult{File: file, Status: "SKIP", Message: fmt.Sprintf("No golden file at %s (use --generate-golden)", goldenFile)}
	}
	var golden Golden
	if err := json.Unmarshal(goldenData, &golden); err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Could not parse golden file %s: %v", goldenFile, err)}
	}

	got := &Golden{
		SourceHash: hashBytes(content),
		Result:     compileAndRun(file, content),
	}

	if golden.SourceHash != "" && golden.SourceHash != got.SourceHash {
		return &FileTestResult{
			File:    file,
			Status:  "ERROR",
			Message: fmt.Sprintf("Source changed since golden file was generated (regenerate %s)", goldenFile),
			Golden:  &golden,
			Got:     got,
		}
	}

	// Cycle counts are informational only.
	want := golden.Result
	have := got.Result
	want.Cycles, have.Cycles = 0, 0
	if diff := cmp.Diff(want, have); diff != "" {
		return &FileTestResult{
			File:    file,
			Status:  "FAIL",
			Message: "Final machine state mismatch",
			Diff:    diff,
			Golden:  &golden,
			Got:     got,
		}
	}

	msg := fmt.Sprintf("AC=%d X=%d Y=%d after %d cycles", got.Result.AC, got.Result.X, got.Result.Y, got.Result.Cycles)
	if got.Result.Error != "" {
		msg = "Rejected as expected: " + got.Result.Error
	}
	return &FileTestResult{File: file, Status: "PASS", Message: msg, Golden: &golden, Got: got}
}

func printSummary(results []*FileTestResult) {
	var passed, failed, skipped, errored int

	for _, result := range results {
		switch result.Status {
		case "PASS":
			passed++
			if *verbose {
				fmt.Printf("[%sPASS%s] %s%s%s: %s\n", cGreen, cNone, cCyan, result.File, cNone, result.Message)
			}
		case "FAIL":
			failed++
			fmt.Printf("[%sFAIL%s] %s%s%s: %s\n", cRed, cNone, cCyan, result.File, cNone, result.Message)
			fmt.Println(formatDiff(result.Diff))
		case "SKIP":
			skipped++
			fmt.Printf("[%sSKIP%s] %s%s%s: %s\n", cYellow, cNone, cCyan, result.File, cNone, result.Message)
		case "ERROR":
			errored++
			fmt.Printf("[%sERROR%s] %s%s%s: %s\n", cRed, cNone, cCyan, result.File, cNone, result.Message)
		}
	}

	fmt.Println("----------------------------------------------------------------------")
	fmt.Printf("%sTest Summary:%s %s%d Passed%s, %s%d Failed%s, %s%d Skipped%s, %s%d Errored%s, %d Total\n",
		cBold, cNone, cGreen, passed, cNone, cRed, failed, cNone, cYellow, skipped, cNone, cRed, errored, cNone, len(results))
}

func formatDiff(diff string) string {
	if diff == "" {
		return ""
	}
	var builder strings.Builder
	builder.WriteString("    --- Diff ---\n")
	for _, line := range strings.Split(diff, "\n") {
		lineWithIndent := "    " + line
		trimmedLine := strings.TrimSpace(line)
		if strings.HasPrefix(trimmedLine, "-") {
			builder.WriteString(cRed)
		} else if strings.HasPrefix(trimmedLine, "+") {
			builder.WriteString(cGreen)
		}
		builder.WriteString(lineWithIndent)
		builder.WriteString(cNone)
		builder.WriteString("\n")
	}
	return builder.String()
}

func writeJSONReport(results []*FileTestResult) TestSuiteResults {
	resultsMap := make(TestSuiteResults, len(results))
	for _, r := range results {
		resultsMap[r.File] = r
	}

	jsonData, err := json.MarshalIndent(resultsMap, "", "  ")
	if err != nil {
		log.Printf("%s[ERROR]%s Failed to marshal results to JSON: %v\n", cRed, cNone, err)
		return resultsMap
	}

	outputFile := *outputJSON
	if *jsonDir != "" {
		if err := os.MkdirAll(*jsonDir, 0755); err != nil {
			log.Printf("%s[ERROR]%s Failed to create dir %s: %v\n", cRed, cNone, *jsonDir, err)
		}
		outputFile = filepath.Join(*jsonDir, *outputJSON)
	}

	if err := os.WriteFile(outputFile, jsonData, 0644); err != nil {
		log.Printf("%s[ERROR]%s Failed to write JSON report to %s: %v\n", cRed, cNone, outputFile, err)
	} else {
		fmt.Printf("Full test report saved to %s\n", outputFile)
	}
	return resultsMap
}

func hasFailures(results TestSuiteResults) bool {
	for _, result := range results {
		if result.Status == "FAIL" || result.Status == "ERROR" {
			return true
		}
	}
	return false
}

func expandGlobPatterns(patterns string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]bool)
	for _, pattern := range strings.Fields(patterns) {
		files, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %s: %w", pattern, err)
		}
		for _, file := range files {
			if !seen[file] {
				if info, err := os.Stat(file); err == nil && info.Mode().IsRegular() {
					allFiles = append(allFiles, file)
					seen[file] = true
				}
			}
		}
	}
	return allFiles, nil
}
