// Package pipeline runs one analysis: load the inputs, run opt when
// needed, diff the snapshots and classify the remarks.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"optdbg/internal/catalog"
	"optdbg/internal/classify"
	"optdbg/internal/ir"
	"optdbg/internal/irdiff"
	"optdbg/internal/passrun"
	"optdbg/internal/remarks"
	"optdbg/internal/session"
	"optdbg/internal/trace"
)

// Result is a finished run.
type Result struct {
	Session *session.Session
	Timings Timings
	Cached  bool
}

// Run executes req. The core engines only see fully loaded inputs.
func Run(ctx context.Context, req *Request) (Result, error) {
	var result Result
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return result, fmt.Errorf("missing analysis request")
	}
	if err := req.Validate(); err != nil {
		return result, err
	}
	cat := req.Catalog
	if cat == nil {
		cat = catalog.Builtin()
	}

	tracer := trace.FromContext(ctx)
	ctx, root := trace.StartSpan(ctx, trace.ScopeDriver, "analyze")
	defer root.End("")

	for _, st := range Stages {
		emit(req.Progress, st, StatusQueued, "", nil)
	}

	var key session.Key
	if req.Cache != nil {
		k, err := cacheKey(req, cat)
		if err != nil {
			return result, err
		}
		key = k
		s, ok, err := req.Cache.Get(key)
		if err != nil {
			return result, err
		}
		if ok {
			trace.Point(tracer, trace.ScopeStage, "cache", "hit "+key.String()[:12])
			for _, st := range Stages {
				emit(req.Progress, st, StatusSkipped, "cached", nil)
			}
			result.Session = s
			result.Cached = true
			return result, nil
		}
		trace.Point(tracer, trace.ScopeStage, "cache", "miss "+key.String()[:12])
	}

	workDir := req.WorkDir
	if workDir == "" {
		dir, err := os.MkdirTemp("", "optdbg-")
		if err != nil {
			return result, fmt.Errorf("failed to create work directory: %w", err)
		}
		defer os.RemoveAll(dir)
		workDir = dir
	}

	s := session.New(req.pipelineLabel())
	s.InputPath, s.BeforePath, s.AfterPath, s.RemarksPath = req.Input, req.Before, req.After, req.Remarks

	var in inputs
	var err error
	if req.pairMode() {
		in, err = loadPair(ctx, req, workDir, &result.Timings)
	} else {
		in, err = loadAndOptimize(ctx, req, workDir, &result.Timings)
	}
	if err != nil {
		return result, err
	}
	s.VerificationFailed = in.verificationFailed
	s.Remarks = in.remarks

	dctx, span := stageBegin(ctx, req, StageDiff)
	start := time.Now()
	md, err := irdiff.DiffConcurrent(dctx, in.before, in.after, req.Jobs)
	if err != nil {
		stageFail(req, span, StageDiff, err)
		return result, fmt.Errorf("diff failed: %w", err)
	}
	s.Diff = *md
	result.Timings.Set(StageDiff, time.Since(start))
	stageEnd(req, span, StageDiff, strconv.Itoa(len(md.Functions))+" functions", &result.Timings)

	_, span = stageBegin(ctx, req, StageClassify)
	start = time.Now()
	s.Diagnostics = classify.New(cat).Analyze(s.Remarks, &s.Diff)
	result.Timings.Set(StageClassify, time.Since(start))
	stageEnd(req, span, StageClassify, strconv.Itoa(len(s.Diagnostics))+" diagnostics", &result.Timings)

	if req.Cache != nil {
		if err := req.Cache.Put(key, s); err != nil {
			// кэш не должен ломать анализ
			trace.Point(tracer, trace.ScopeStage, "cache", "store failed: "+err.Error())
		}
	}
	result.Session = s
	return result, nil
}

type inputs struct {
	before, after      *ir.Module
	remarks            []remarks.Remark
	verificationFailed bool
}

// loadPair reads the two snapshots and the optional remarks concurrently.
func loadPair(ctx context.Context, req *Request, workDir string, timings *Timings) (inputs, error) {
	var in inputs
	lctx, span := stageBegin(ctx, req, StageLoad)
	start := time.Now()

	g, gctx := errgroup.WithContext(lctx)
	g.Go(func() (err error) {
		in.before, err = LoadModule(gctx, &req.Pass, req.Before, filepath.Join(workDir, "before.ll"))
		return err
	})
	g.Go(func() (err error) {
		in.after, err = LoadModule(gctx, &req.Pass, req.After, filepath.Join(workDir, "after.ll"))
		return err
	})
	if req.Remarks != "" {
		g.Go(func() (err error) {
			in.remarks, err = remarks.ReadFile(req.Remarks)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		stageFail(req, span, StageLoad, err)
		return in, err
	}
	timings.Set(StageLoad, time.Since(start))
	stageEnd(req, span, StageLoad, "", timings)
	emit(req.Progress, StageOptimize, StatusSkipped, "external snapshots", nil)
	return in, nil
}

// loadAndOptimize runs opt on req.Input, then loads the input, the
// optimized output and the remarks concurrently.
func loadAndOptimize(ctx context.Context, req *Request, workDir string, timings *Timings) (inputs, error) {
	var in inputs
	input := req.Input

	octx, span := stageBegin(ctx, req, StageOptimize)
	start := time.Now()
	hb := trace.StartHeartbeat(trace.FromContext(octx), heartbeatInterval, req.Pass.Opt)
	res, err := passrun.Optimize(octx, &req.Pass, input, workDir)
	hb.Stop()
	if err != nil {
		stageFail(req, span, StageOptimize, err)
		return in, err
	}
	in.verificationFailed = res.VerificationFailed
	timings.Set(StageOptimize, time.Since(start))
	detail := req.Pass.Pipeline()
	if res.VerificationFailed {
		detail += ", verifier failed"
	}
	stageEnd(req, span, StageOptimize, detail, timings)

	lctx, span := stageBegin(ctx, req, StageLoad)
	start = time.Now()
	g, gctx := errgroup.WithContext(lctx)
	g.Go(func() (err error) {
		in.before, err = LoadModule(gctx, &req.Pass, input, filepath.Join(workDir, "before.ll"))
		return err
	})
	g.Go(func() error {
		if _, statErr := os.Stat(res.OutputPath); statErr != nil && res.VerificationFailed {
			// opt stopped before writing output; diff against nothing changed
			return nil
		}
		m, err := ir.ParseFile(res.OutputPath)
		in.after = m
		return err
	})
	g.Go(func() error {
		if _, statErr := os.Stat(res.RemarksPath); statErr != nil {
			return nil
		}
		rs, err := remarks.ReadFile(res.RemarksPath)
		in.remarks = rs
		return err
	})
	if err := g.Wait(); err != nil {
		stageFail(req, span, StageLoad, err)
		return in, err
	}
	if in.after == nil {
		in.after = in.before
	}
	timings.Set(StageLoad, time.Since(start))
	stageEnd(req, span, StageLoad, strconv.Itoa(len(in.remarks))+" remarks", timings)
	return in, nil
}

// LoadModule parses the IR at path. Bitcode is first disassembled into
// scratch with llvm-dis.
func LoadModule(ctx context.Context, opts *passrun.Options, path, scratch string) (*ir.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read IR file %q: %w", path, err)
	}
	if !ir.IsBitcode(data) {
		return ir.ParseBytes(path, data)
	}
	if err := passrun.Disassemble(ctx, opts, path, scratch); err != nil {
		return nil, fmt.Errorf("failed to disassemble %s: %w", path, err)
	}
	return ir.ParseFile(scratch)
}

const heartbeatInterval = 2 * time.Second

func stageBegin(ctx context.Context, req *Request, stage Stage) (context.Context, *trace.Span) {
	emit(req.Progress, stage, StatusWorking, "", nil)
	return trace.StartSpan(ctx, trace.ScopeStage, string(stage))
}

func stageEnd(req *Request, span *trace.Span, stage Stage, detail string, timings *Timings) {
	span.End(detail)
	emitDone(req.Progress, stage, detail, timings)
}

func stageFail(req *Request, span *trace.Span, stage Stage, err error) {
	span.Fail(err)
	emit(req.Progress, stage, StatusError, "", err)
}
