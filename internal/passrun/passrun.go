// Package passrun drives the external LLVM tools: opt runs the pass
// pipeline and writes YAML remarks, llvm-dis turns bitcode into text.
package passrun

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// OptLevels are the accepted -O levels, in the order opt documents them.
var OptLevels = []string{"O0", "O1", "O2", "O3", "Os", "Oz"}

var ErrToolNotFound = errors.New("LLVM tool not found")

// Options configures one opt invocation.
type Options struct {
	Opt     string // path or name of opt
	LLVMDis string // path or name of llvm-dis

	Passes          string // explicit -passes= pipeline; overrides OptLevel
	OptLevel        string
	Vectorize       bool
	Unroll          bool
	VerifyEach      bool
	InlineThreshold int // 0 keeps opt's default

	// PrintCommands echoes each command line before running it.
	PrintCommands io.Writer
}

// DefaultOptions mirrors a plain `opt -O2` run.
func DefaultOptions() Options {
	return Options{
		Opt:       "opt",
		LLVMDis:   "llvm-dis",
		OptLevel:  "O2",
		Vectorize: true,
		Unroll:    true,
	}
}

func (o *Options) Validate() error {
	if o.Passes == "" && !slices.Contains(OptLevels, o.OptLevel) {
		return fmt.Errorf("unknown optimization level %q (want one of %s)", o.OptLevel, strings.Join(OptLevels, " "))
	}
	if o.InlineThreshold < 0 {
		return fmt.Errorf("inline threshold must not be negative")
	}
	return nil
}

// Pipeline is the label stored with a session: the explicit pipeline or
// default-<level>.
func (o *Options) Pipeline() string {
	if o.Passes != "" {
		return o.Passes
	}
	return "default-" + o.OptLevel
}

func (o *Options) passesFlag() string {
	if o.Passes != "" {
		return "-passes=" + o.Passes
	}
	return "-passes=default<" + o.OptLevel + ">"
}

// OptArgs builds the opt command line. Remarks go to remarksPath as YAML.
func (o *Options) OptArgs(input, output, remarksPath string) []string {
	args := []string{
		o.passesFlag(),
		"-pass-remarks-output=" + remarksPath,
		"-pass-remarks-format=yaml",
	}
	if o.VerifyEach {
		args = append(args, "-verify-each")
	}
	if !o.Vectorize {
		args = append(args, "-vectorize-loops=false", "-vectorize-slp=false")
	}
	if !o.Unroll {
		args = append(args, "-disable-loop-unrolling")
	}
	if o.InlineThreshold > 0 {
		args = append(args, "-inline-threshold="+strconv.Itoa(o.InlineThreshold))
	}
	return append(args, "-S", input, "-o", output)
}

// Result lists the files one Optimize call produced.
type Result struct {
	OutputPath  string
	RemarksPath string
	// VerificationFailed is set when -verify-each rejected the module.
	// OutputPath may be missing then; RemarksPath holds what opt wrote
	// before it stopped.
	VerificationFailed bool
	Stderr             string
}

// Optimize runs opt on input, writing after.ll and remarks.yaml into
// workDir. A verifier failure is reported in Result, not as an error.
func Optimize(ctx context.Context, opts *Options, input, workDir string) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	res := Result{
		OutputPath:  filepath.Join(workDir, "after.ll"),
		RemarksPath: filepath.Join(workDir, "remarks.yaml"),
	}
	stderr, err := run(ctx, opts.PrintCommands, opts.Opt, opts.OptArgs(input, res.OutputPath, res.RemarksPath)...)
	res.Stderr = stderr
	if err != nil {
		var exitErr *ExitError
		if opts.VerifyEach && errors.As(err, &exitErr) && isVerifierFailure(exitErr.Stderr) {
			res.VerificationFailed = true
			return res, nil
		}
		return res, err
	}
	return res, nil
}

// Disassemble converts bitcode at input into textual IR at output.
func Disassemble(ctx context.Context, opts *Options, input, output string) error {
	tool := opts.LLVMDis
	if tool == "" {
		tool = "llvm-dis"
	}
	_, err := run(ctx, opts.PrintCommands, tool, input, "-o", output)
	return err
}

func isVerifierFailure(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "broken module") || strings.Contains(s, "verification failed") || strings.Contains(s, "verifier")
}

// ExitError is a tool run that exited non-zero.
type ExitError struct {
	Tool   string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("%s exited with status %d", e.Tool, e.Code)
	}
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return fmt.Sprintf("%s exited with status %d: %s", e.Tool, e.Code, msg)
}

func run(ctx context.Context, printCommands io.Writer, name string, args ...string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s (install LLVM or set analysis.%s in optdbg.toml)", ErrToolNotFound, name, configKey(name))
	}
	if printCommands != nil {
		if _, printErr := fmt.Fprintf(printCommands, "%s %s\n", name, strings.Join(args, " ")); printErr != nil {
			return "", fmt.Errorf("failed to print command: %w", printErr)
		}
	}
	cmd := exec.CommandContext(ctx, path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return stderr.String(), ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stderr.String(), &ExitError{Tool: filepath.Base(name), Code: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return stderr.String(), fmt.Errorf("failed to run %s: %w", name, err)
	}
	return stderr.String(), nil
}

func configKey(tool string) string {
	if strings.Contains(filepath.Base(tool), "llvm-dis") {
		return "llvm_dis"
	}
	return "opt"
}
