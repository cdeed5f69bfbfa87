package passrun

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestOptArgs(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Options)
		want string
	}{
		{
			name: "defaults",
			mod:  func(*Options) {},
			want: "-passes=default<O2> -pass-remarks-output=r.yaml -pass-remarks-format=yaml -S in.ll -o out.ll",
		},
		{
			name: "explicit pipeline with knobs",
			mod: func(o *Options) {
				o.Passes = "loop-vectorize,instcombine"
				o.VerifyEach = true
				o.Vectorize = false
				o.Unroll = false
				o.InlineThreshold = 500
			},
			want: "-passes=loop-vectorize,instcombine -pass-remarks-output=r.yaml -pass-remarks-format=yaml " +
				"-verify-each -vectorize-loops=false -vectorize-slp=false -disable-loop-unrolling " +
				"-inline-threshold=500 -S in.ll -o out.ll",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mod(&opts)
			got := strings.Join(opts.OptArgs("in.ll", "out.ll", "r.yaml"), " ")
			if got != tt.want {
				t.Errorf("OptArgs =\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestPipelineLabel(t *testing.T) {
	opts := DefaultOptions()
	opts.OptLevel = "O3"
	if got := opts.Pipeline(); got != "default-O3" {
		t.Errorf("Pipeline() = %q, want default-O3", got)
	}
	opts.Passes = "gvn"
	if got := opts.Pipeline(); got != "gvn" {
		t.Errorf("Pipeline() = %q, want gvn", got)
	}
}

func TestValidate(t *testing.T) {
	opts := DefaultOptions()
	opts.OptLevel = "O7"
	if err := opts.Validate(); err == nil {
		t.Error("Validate accepted O7")
	}
	opts.Passes = "gvn"
	if err := opts.Validate(); err != nil {
		t.Errorf("explicit pipeline should ignore the level: %v", err)
	}
	opts.InlineThreshold = -1
	if err := opts.Validate(); err == nil {
		t.Error("Validate accepted a negative threshold")
	}
}

func TestMissingTool(t *testing.T) {
	opts := DefaultOptions()
	opts.Opt = "optdbg-no-such-opt"
	_, err := Optimize(context.Background(), &opts, "in.ll", t.TempDir())
	if !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("Optimize error = %v, want ErrToolNotFound", err)
	}
	if !strings.Contains(err.Error(), "analysis.opt") {
		t.Errorf("error should point at the config key: %v", err)
	}
}

func TestExitErrorMessage(t *testing.T) {
	err := &ExitError{Tool: "opt", Code: 1, Stderr: "opt: in.ll:3:1: error: expected type\nmore\n"}
	want := "opt exited with status 1: opt: in.ll:3:1: error: expected type"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !isVerifierFailure("Broken module found, compilation aborted!") {
		t.Error("verifier message not recognized")
	}
}
